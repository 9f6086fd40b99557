package assets

// Names of the built-in assets.
const (
	DefaultStyleName    = "workbook"
	DefaultTemplateName = "document"
)

var defaultLoader = NewEmbeddedLoader()

// LoadStyle loads a CSS file by name using the embedded loader.
// The name must not include the .css extension or path components.
func LoadStyle(name string) (string, error) {
	return defaultLoader.LoadStyle(name)
}

// LoadTemplate loads an HTML template by name using the embedded loader.
func LoadTemplate(name string) (string, error) {
	return defaultLoader.LoadTemplate(name)
}
