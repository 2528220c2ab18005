package health

import "context"

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// MediaChecker checks that the rendition directory accepts writes.
type MediaChecker interface {
	Writable(ctx context.Context) error
}
