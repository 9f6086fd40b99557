// Package assets provides the stylesheet and HTML template of the workbook.
//
// # Loader Architecture
//
//	AssetLoader (interface)
//	    │
//	    ├── EmbeddedLoader    - loads from go:embed filesystem
//	    ├── FilesystemLoader  - loads from a custom directory on disk
//	    └── AssetResolver     - custom first, embedded as fallback
//
// A custom directory mirrors the embedded layout, so a single file can be
// overridden while the rest keep their built-in version:
//
//	{basePath}/
//	├── styles/
//	│   └── workbook.css
//	└── templates/
//	    └── document.html
//
// Asset names are validated and FilesystemLoader keeps every resolved path
// inside basePath, symlinks included.
package assets
