package section

import (
	"errors"
	"fmt"
	"strings"

	"github.com/opencs408/workbook/internal/catalog"
	"github.com/opencs408/workbook/internal/images"
)

// Sentinel errors for section building.
var (
	ErrUnsorted      = errors.New("records are not in assembly order")
	ErrOrderMismatch = errors.New("answers pass order differs from items pass")
)

// Labels holds the fixed texts of the document.
type Labels struct {
	Items       string // items section heading
	Answers     string // answers section heading
	Answer      string // prefix of the correct answer line
	Explanation string // label before an explanation
}

// DefaultLabels returns the labels of the study document.
func DefaultLabels() Labels {
	return Labels{
		Items:       "习题",
		Answers:     "答案解析",
		Answer:      "参考答案：",
		Explanation: "解析：",
	}
}

// Counter hands out the shared item numbers. The zero value starts at 1.
// It is threaded through the items pass, which is the only caller of Next.
type Counter struct {
	last int
}

// Next returns the next number.
func (c *Counter) Next() int {
	c.last++
	return c.last
}

// Last returns the most recently issued number, 0 if none.
func (c *Counter) Last() int {
	return c.last
}

// Assignment records the number given to a record in the items pass.
type Assignment struct {
	RecordID string
	Number   int
}

// Index maps group -> subgroup -> block index of the subgroup heading.
type Index map[catalog.Group]map[string]int

// Lookup returns the heading block index of a subgroup.
func (ix Index) Lookup(g catalog.Group, subgroup string) (int, bool) {
	i, ok := ix[g][subgroup]
	return i, ok
}

// Document is the output of Build.
type Document struct {
	Blocks       []Block
	Index        Index
	Assignments  []Assignment // in items-pass order
	AnswersStart int          // index of the answers heading block
}

// NumberOf returns the shared number assigned to a record.
func (d *Document) NumberOf(id string) (int, bool) {
	for _, a := range d.Assignments {
		if a.RecordID == id {
			return a.Number, true
		}
	}
	return 0, false
}

// Builder produces the block stream from sorted records.
type Builder struct {
	resolver images.Resolver
	labels   Labels
	skipped  func(rec catalog.Record, res images.Result)
}

// Option configures a Builder.
type Option func(*Builder)

// WithLabels overrides the fixed document texts.
func WithLabels(l Labels) Option {
	return func(b *Builder) {
		b.labels = l
	}
}

// WithSkippedImageHook registers a callback invoked for every image
// reference that did not resolve.
func WithSkippedImageHook(fn func(rec catalog.Record, res images.Result)) Option {
	return func(b *Builder) {
		b.skipped = fn
	}
}

// NewBuilder creates a Builder. A nil resolver omits all images.
func NewBuilder(resolver images.Resolver, opts ...Option) *Builder {
	b := &Builder{resolver: resolver, labels: DefaultLabels()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build emits the items section and then the answers section for sorted
// records. Records that are not published are dropped first and take no
// number. Both passes walk the same slice; numbers are issued once, in the
// items pass, and reused verbatim by the answers pass.
func (b *Builder) Build(sorted []catalog.Record) (*Document, error) {
	sorted = catalog.Eligible(sorted)
	for i := 1; i < len(sorted); i++ {
		if catalog.Compare(&sorted[i-1], &sorted[i]) > 0 {
			return nil, fmt.Errorf("%w: %s before %s", ErrUnsorted, sorted[i-1].ID, sorted[i].ID)
		}
	}

	doc := &Document{Index: make(Index)}
	var counter Counter

	doc.Blocks, doc.Assignments = b.itemsPass(sorted, &counter, doc.Index)

	doc.AnswersStart = len(doc.Blocks)
	answers, err := b.answersPass(sorted, doc.Assignments)
	if err != nil {
		return nil, err
	}
	doc.Blocks = append(doc.Blocks, answers...)
	return doc, nil
}

// itemsPass emits headings and numbered items grouped by group then
// subgroup, with a page break after every group.
func (b *Builder) itemsPass(sorted []catalog.Record, counter *Counter, index Index) ([]Block, []Assignment) {
	var (
		blocks      []Block
		assignments = make([]Assignment, 0, len(sorted))
	)

	for _, g := range catalog.GroupRuns(sorted) {
		blocks = append(blocks, Block{Kind: KindGroupHeading, Text: g.Group.Name(), Group: g.Group})

		for _, s := range g.Subgroups {
			if index[g.Group] == nil {
				index[g.Group] = make(map[string]int)
			}
			if _, seen := index[g.Group][s.Key]; !seen {
				index[g.Group][s.Key] = len(blocks)
			}
			blocks = append(blocks, Block{
				Kind:     KindSubgroupHeading,
				Text:     g.Group.ChapterName(s.Key),
				Group:    g.Group,
				Subgroup: s.Key,
			})

			for _, rec := range s.Records {
				n := counter.Next()
				assignments = append(assignments, Assignment{RecordID: rec.ID, Number: n})
				blocks = append(blocks, b.item(rec, n)...)
			}
		}

		blocks = append(blocks, Block{Kind: KindPageBreak, Group: g.Group})
	}
	return blocks, assignments
}

func (b *Builder) item(rec catalog.Record, n int) []Block {
	blocks := []Block{{
		Kind:     KindItem,
		Text:     rec.Body,
		Number:   n,
		Group:    rec.Group,
		Subgroup: rec.Subgroup,
		RecordID: rec.ID,
	}}
	for _, c := range rec.Choices() {
		blocks = append(blocks, Block{
			Kind:     KindChoice,
			Text:     c.Text,
			Letter:   c.Letter,
			Group:    rec.Group,
			Subgroup: rec.Subgroup,
			RecordID: rec.ID,
		})
	}
	if img, ok := b.image(rec); ok {
		blocks = append(blocks, img)
	}
	return blocks
}

// answersPass emits one answer per record in the flat sorted order.
// assignments must come from the items pass over the same slice.
func (b *Builder) answersPass(sorted []catalog.Record, assignments []Assignment) ([]Block, error) {
	if len(assignments) != len(sorted) {
		return nil, fmt.Errorf("%w: %d numbers for %d records", ErrOrderMismatch, len(assignments), len(sorted))
	}

	blocks := []Block{{Kind: KindAnswersHeading, Text: b.labels.Answers}}
	for i, rec := range sorted {
		a := assignments[i]
		if a.RecordID != rec.ID {
			return nil, fmt.Errorf("%w: position %d holds %s, numbered %s", ErrOrderMismatch, i, rec.ID, a.RecordID)
		}

		blocks = append(blocks, Block{
			Kind:     KindAnswer,
			Text:     rec.CorrectAnswer,
			Number:   a.Number,
			Group:    rec.Group,
			Subgroup: rec.Subgroup,
			RecordID: rec.ID,
		})
		if strings.TrimSpace(rec.Explanation) != "" {
			blocks = append(blocks, Block{
				Kind:     KindExplanation,
				Text:     rec.Explanation,
				Group:    rec.Group,
				Subgroup: rec.Subgroup,
				RecordID: rec.ID,
			})
		}
		if img, ok := b.image(rec); ok {
			blocks = append(blocks, img)
		}
	}
	return blocks, nil
}

// image resolves the record's image. Unresolved references are reported to
// the hook and omitted.
func (b *Builder) image(rec catalog.Record) (Block, bool) {
	if rec.ImageRef == "" || b.resolver == nil {
		return Block{}, false
	}
	res := b.resolver.Resolve(rec.ImageRef)
	if !res.OK() {
		if b.skipped != nil {
			b.skipped(rec, res)
		}
		return Block{}, false
	}
	return Block{
		Kind:     KindImage,
		Image:    res.Asset,
		Group:    rec.Group,
		Subgroup: rec.Subgroup,
		RecordID: rec.ID,
	}, true
}
