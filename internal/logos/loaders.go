package logos

import (
	"context"
	"fmt"

	"github.com/pantherale0/Dispatcharr/internal/domain"
)

// View loader names
const (
	viewFull = "full"
)

// subsetFilters maps subset cache names to their server-side predicates.
// The predicates are defined over usage-join rows the client must not
// replicate; the client only ever needs the bounded result slice.
var subsetFilters = map[string]domain.ListFilter{
	SubsetUsed:              domain.FilterUsed,
	SubsetChannelAssignable: domain.FilterChannelAssignable,
}

// EnsureFullCatalogLoaded fetches the entire record set in one unpaginated
// call for management-style consumers. Idempotent and single-flight: once
// loaded it returns without network activity, and a concurrent caller
// shares the in-flight call's result. On failure the view stays unloaded so
// a future call retries.
func (s *Service) EnsureFullCatalogLoaded(ctx context.Context) error {
	if s.viewLoaded(viewFull) && s.cache.Count() > 0 {
		return nil
	}

	gen := s.generation()
	cacheGen := s.cache.Generation()
	_, err, _ := s.sf.Do(viewFull, func() (interface{}, error) {
		logos, err := s.client.ListAll(ctx, domain.FilterAll)
		if err != nil {
			s.logger.Error("failed to load logo catalog", "error", err)
			s.setLoadedAt(gen, viewFull, err)
			return nil, err
		}
		if !s.cache.UpsertManyAt(cacheGen, logos) {
			// Reset during the fetch: the session this load was for is gone
			return nil, nil
		}
		s.setLoadedAt(gen, viewFull, nil)
		s.logger.Info("loaded logo catalog", "count", len(logos))
		return nil, nil
	})
	return err
}

// EnsureUsedLoaded loads the "used" subset view
func (s *Service) EnsureUsedLoaded(ctx context.Context) error {
	return s.EnsureSubsetLoaded(ctx, SubsetUsed)
}

// EnsureChannelAssignableLoaded loads the logos offered in channel pickers:
// unused, or used by the channel domain. Logos referenced exclusively by
// VOD content are excluded server-side.
func (s *Service) EnsureChannelAssignableLoaded(ctx context.Context) error {
	return s.EnsureSubsetLoaded(ctx, SubsetChannelAssignable)
}

// EnsureSubsetLoaded loads a named derived view into its own subset cache,
// with the same idempotent single-flight contract as the full catalog but
// independent loading and has-loaded flags.
func (s *Service) EnsureSubsetLoaded(ctx context.Context, name string) error {
	filter, ok := subsetFilters[name]
	if !ok {
		return fmt.Errorf("unknown logo subset: %s", name)
	}

	if s.viewLoaded(name) && s.cache.SubsetCount(name) > 0 {
		return nil
	}

	gen := s.generation()
	cacheGen := s.cache.Generation()
	_, err, _ := s.sf.Do(name, func() (interface{}, error) {
		logos, err := s.client.ListAll(ctx, filter)
		if err != nil {
			s.logger.Error("failed to load logo subset", "error", err, "subset", name)
			s.setLoadedAt(gen, name, err)
			return nil, err
		}
		if !s.cache.SubsetUpsertManyAt(cacheGen, name, logos) {
			return nil, nil
		}
		s.setLoadedAt(gen, name, nil)
		s.logger.Info("loaded logo subset", "subset", name, "count", len(logos))
		return nil, nil
	})
	return err
}

// Subset returns the named subset's entries, in unspecified order
func (s *Service) Subset(name string) []*domain.Logo {
	return s.cache.SubsetAll(name)
}

// LastError returns the most recent load error recorded for a view, or nil
func (s *Service) LastError(view string) error {
	s.viewMu.Lock()
	defer s.viewMu.Unlock()

	if v, ok := s.views[view]; ok {
		return v.lastErr
	}
	return nil
}

// viewLoaded reports whether a view's has-loaded flag is set
func (s *Service) viewLoaded(view string) bool {
	s.viewMu.Lock()
	defer s.viewMu.Unlock()

	v, ok := s.views[view]
	return ok && v.loaded
}

// generation identifies the current session. Reset starts a new one.
func (s *Service) generation() uint64 {
	s.viewMu.Lock()
	defer s.viewMu.Unlock()
	return s.gen
}

// setLoadedAt records a view load outcome, unless a Reset has started a new
// session since the load began: success sets the has-loaded flag and clears
// the error; failure records the error and leaves the view eligible for
// retry.
func (s *Service) setLoadedAt(gen uint64, view string, err error) {
	s.viewMu.Lock()
	defer s.viewMu.Unlock()

	if s.gen != gen {
		return
	}

	v, ok := s.views[view]
	if !ok {
		v = &viewState{}
		s.views[view] = v
	}
	if err != nil {
		v.lastErr = err
		v.loaded = false
		return
	}
	v.lastErr = nil
	v.loaded = true
}
