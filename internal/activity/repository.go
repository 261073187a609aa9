package activity

import "context"

// Sink durably records audit entries. Callers treat failures as best-effort.
type Sink interface {
	Record(ctx context.Context, e *Entry) error
}
