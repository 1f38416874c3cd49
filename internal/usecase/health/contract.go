package health

import "context"

// Pinger checks availability of one dependency, e.g. the translation cache.
type Pinger interface {
	Ping(ctx context.Context) error
}
