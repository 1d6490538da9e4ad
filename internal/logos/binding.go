package logos

import (
	"context"
	"sync"

	"github.com/pantherale0/Dispatcharr/internal/domain"
)

// Fallback renditions served by the console's static assets
const (
	// PlaceholderURL renders while a logo is unresolved
	PlaceholderURL = "/static/logos/placeholder.png"

	// MissingURL renders once a logo's load has terminally failed
	MissingURL = "/static/logos/missing.png"
)

// Binding is a per-usage-site adapter over the shared cache. Each consumer
// (a channel row, a VOD tile) gets its own Binding: the request-once guard
// survives re-renders, and the loading indicator reflects only this site's
// outstanding request, independent of any other binding's state.
//
// Bindings read through the shared cache; they never hold private copies,
// so an in-place edit is visible on the next read with no re-fetch.
type Binding struct {
	svc *Service
	id  int64

	mu        sync.Mutex
	requested bool
	loading   bool
	failed    bool
}

// NewBinding creates a binding for one logo ID
func (s *Service) NewBinding(id int64) *Binding {
	return &Binding{svc: s, id: id}
}

// ID returns the bound logo ID
func (b *Binding) ID() int64 {
	return b.id
}

// Logo reads the bound record through the shared cache
func (b *Binding) Logo() (*domain.Logo, bool) {
	return b.svc.Get(b.id)
}

// Ensure requests the load exactly once for this binding; re-invocations
// (re-renders) return immediately without re-triggering the request, even
// while the first call is still in flight. The triggering call blocks until
// the batch containing this ID resolves.
func (b *Binding) Ensure(ctx context.Context) error {
	b.mu.Lock()
	if b.requested {
		b.mu.Unlock()
		return nil
	}
	b.requested = true

	if _, ok := b.svc.Get(b.id); ok {
		b.mu.Unlock()
		return nil
	}

	b.loading = true
	b.mu.Unlock()

	err := b.svc.EnsureLoaded(ctx, b.id)

	b.mu.Lock()
	b.loading = false
	if err != nil {
		b.failed = true
	}
	b.mu.Unlock()
	return err
}

// Loading reports whether this binding's own request is outstanding
func (b *Binding) Loading() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loading
}

// Failed reports whether this binding's request terminally failed
func (b *Binding) Failed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failed
}

// URL returns the rendition to display: the resolved record's URL, the
// stable placeholder while unresolved, or the missing fallback after a
// failed load
func (b *Binding) URL() string {
	if logo, ok := b.svc.Get(b.id); ok {
		if url := logo.DisplayURL(); url != "" {
			return url
		}
		return PlaceholderURL
	}
	if b.Failed() {
		return MissingURL
	}
	return PlaceholderURL
}

// OnChange registers a re-render hook invoked after every cache mutation
func (b *Binding) OnChange(fn func()) {
	b.svc.cache.OnChange(fn)
}
