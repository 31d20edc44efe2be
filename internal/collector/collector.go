// Package collector defines the Collector contract and provides
// implementations for each metric source. Collectors return absolute or
// cumulative values straight from the OS; all delta and rate math happens
// in the sampler.
package collector

import "context"

// Collector is the interface every metric source implements.
type Collector interface {
	// Name returns the unique identifier for this source.
	Name() string

	// Init acquires whatever OS resources the source needs and establishes
	// measurement baselines. An error here is unrecoverable for this source:
	// the caller treats it as fatal when the source was explicitly requested.
	Init(ctx context.Context) error

	// Collect gathers the source's current values. An error here is a
	// degraded outcome: the caller logs it and omits this source's block
	// from the snapshot without affecting sibling sources.
	Collect(ctx context.Context) (interface{}, error)

	// Close releases resources acquired by Init. Safe to call once after a
	// successful Init, on every exit path.
	Close() error
}
