package apikeys

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Lookup when the key is unknown.
var ErrNotFound = errors.New("api key not found")

// Registry port (interface for key persistence)
type Registry interface {
	Save(ctx context.Context, rec *Record) error
	Lookup(ctx context.Context, key string) (*Record, error)
}
