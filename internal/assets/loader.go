package assets

// AssetLoader loads CSS styles and HTML templates by name, without
// extension. Implementations return ErrStyleNotFound or ErrTemplateNotFound
// for missing assets and ErrInvalidAssetName for unsafe names.
type AssetLoader interface {
	LoadStyle(name string) (string, error)
	LoadTemplate(name string) (string, error)
}
