package catalog

import "context"

// Source loads the records eligible for assembly, in any order.
type Source interface {
	Published(ctx context.Context) ([]Record, error)
}
