// Package images resolves record image references to decodable assets.
// Resolution never fails hard: an unusable reference yields a Result whose
// Err is set, and callers omit the image.
package images

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/h2non/filetype"
	_ "golang.org/x/image/webp" // register webp decoder
)

// ErrUnresolvedAsset indicates an image reference that cannot be used.
var ErrUnresolvedAsset = errors.New("unresolved image asset")

// headerSize is enough for filetype to recognize every supported format.
const headerSize = 261

// Asset is a resolved, decodable image file.
type Asset struct {
	Path   string // absolute path
	MIME   string
	Width  int // pixels, after EXIF orientation
	Height int
}

// Result is the optional outcome of resolving a reference.
type Result struct {
	Asset Asset
	Err   error
}

// OK reports whether the asset can be embedded.
func (r Result) OK() bool {
	return r.Err == nil
}

// Resolver maps an image reference to an asset.
type Resolver interface {
	Resolve(ref string) Result
}

// FileResolver resolves references against the local filesystem.
// Relative references are taken relative to BaseDir. Results are cached per
// reference; a FileResolver is not safe for concurrent use.
type FileResolver struct {
	BaseDir string
	cache   map[string]Result
}

// NewFileResolver creates a resolver rooted at baseDir.
func NewFileResolver(baseDir string) *FileResolver {
	return &FileResolver{BaseDir: baseDir, cache: make(map[string]Result)}
}

// Resolve checks that ref names an existing image file that decodes.
func (f *FileResolver) Resolve(ref string) Result {
	if ref == "" {
		return Result{Err: fmt.Errorf("%w: empty reference", ErrUnresolvedAsset)}
	}
	if f.cache == nil {
		f.cache = make(map[string]Result)
	}
	if r, ok := f.cache[ref]; ok {
		return r
	}
	r := f.resolve(ref)
	f.cache[ref] = r
	return r
}

func (f *FileResolver) resolve(ref string) Result {
	path := ref
	if !filepath.IsAbs(path) {
		path = filepath.Join(f.BaseDir, path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return Result{Err: fmt.Errorf("%w: %s: %v", ErrUnresolvedAsset, ref, err)}
	}

	info, err := os.Stat(abs)
	if err != nil {
		return Result{Err: fmt.Errorf("%w: %s: %v", ErrUnresolvedAsset, ref, err)}
	}
	if info.IsDir() {
		return Result{Err: fmt.Errorf("%w: %s is a directory", ErrUnresolvedAsset, ref)}
	}

	mime, err := sniff(abs)
	if err != nil {
		return Result{Err: fmt.Errorf("%w: %s: %v", ErrUnresolvedAsset, ref, err)}
	}

	img, err := imaging.Open(abs, imaging.AutoOrientation(true))
	if err != nil {
		return Result{Err: fmt.Errorf("%w: %s: %v", ErrUnresolvedAsset, ref, err)}
	}
	b := img.Bounds()

	return Result{Asset: Asset{
		Path:   abs,
		MIME:   mime,
		Width:  b.Dx(),
		Height: b.Dy(),
	}}
}

// sniff returns the MIME type of an image file from its header.
func sniff(path string) (string, error) {
	file, err := os.Open(path) // #nosec G304 -- path comes from the record store
	if err != nil {
		return "", err
	}
	defer file.Close()

	head := make([]byte, headerSize)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", err
	}

	kind, err := filetype.Match(head[:n])
	if err != nil {
		return "", err
	}
	if !filetype.IsImage(head[:n]) {
		return "", fmt.Errorf("not an image (%s)", kind.MIME.Value)
	}
	return kind.MIME.Value, nil
}
