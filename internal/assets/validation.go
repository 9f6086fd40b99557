package assets

import (
	"fmt"
	"strings"
)

// ValidateAssetName reports ErrInvalidAssetName for empty names and for
// names containing separators or dots.
func ValidateAssetName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidAssetName)
	}
	if strings.ContainsAny(name, `/\.`) {
		return fmt.Errorf("%w: %q", ErrInvalidAssetName, name)
	}
	return nil
}
