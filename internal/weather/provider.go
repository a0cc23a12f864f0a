package weather

import "context"

// Provider abstracts a current-conditions source for a fixed location.
type Provider interface {
	Name() string
	Location() Location
	Fetch(ctx context.Context) (Record, error)
}
