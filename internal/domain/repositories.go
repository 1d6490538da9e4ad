package domain

import (
	"context"
	"time"
)

// ListFilter selects which slice of the catalog a List call returns
type ListFilter int

const (
	// FilterAll returns every logo in the catalog
	FilterAll ListFilter = iota

	// FilterUsed returns logos referenced by at least one channel or VOD entry
	FilterUsed

	// FilterChannelAssignable returns logos that are unused or used by the
	// channel domain, excluding logos referenced exclusively by VOD content
	FilterChannelAssignable
)

// CatalogClient provides access to the logo catalog service
type CatalogClient interface {
	// List returns one page of logos matching the filter.
	// Returns (items, totalCount, error) for pagination support.
	List(ctx context.Context, filter ListFilter, offset, limit int) ([]Logo, int, error)

	// ListAll returns every logo matching the filter in one unpaginated call
	ListAll(ctx context.Context, filter ListFilter) ([]Logo, error)

	// GetByIDs returns the subset of the given ids that exist server-side
	GetByIDs(ctx context.Context, ids []int64) ([]Logo, error)

	// Create creates a logo; the server assigns the ID
	Create(ctx context.Context, name, url string) (*Logo, error)

	// Update applies a partial update and returns the updated record
	Update(ctx context.Context, id int64, update LogoUpdate) (*Logo, error)

	// Delete removes a logo from the catalog
	Delete(ctx context.Context, id int64) error
}

// SnapshotStore persists a catalog snapshot between sessions so the
// background populator can warm the cache without a network call.
type SnapshotStore interface {
	// Get returns the persisted snapshot, if one exists
	Get() ([]Logo, bool)

	// Save replaces the snapshot and records the fetch time
	Save(logos []Logo) error

	// IsFresh reports whether the snapshot was saved within maxAge
	IsFresh(maxAge time.Duration) bool

	// Invalidate removes the snapshot
	Invalidate()

	Close() error
}

// ProgressFunc reports incremental progress (loaded, total) during a
// chunked load. total may be zero when the source size is unknown upfront.
type ProgressFunc func(loaded, total int)
