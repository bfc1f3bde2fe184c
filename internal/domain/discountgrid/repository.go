package discountgrid

import "context"

// Repository provides read access to discount grids in the external store
type Repository interface {
	// Get returns one grid by id, or a not found error
	Get(ctx context.Context, id string) (*Grid, error)

	// List returns all grids
	List(ctx context.Context) ([]*Grid, error)
}
