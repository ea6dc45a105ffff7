package auditlog

import "context"

// Repository port (interface for log persistence)
type Repository interface {
	Append(ctx context.Context, e *Entry) error
	Latest(ctx context.Context, limit int) ([]*Entry, error)
	Summary(ctx context.Context, sinceDays int) (*Summary, error)
}
