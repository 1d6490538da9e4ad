package logos

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/pantherale0/Dispatcharr/internal/domain"
)

const (
	defaultWarmDelay      = 3 * time.Second
	defaultSnapshotMaxAge = 24 * time.Hour
)

// Config holds the cache core tunables
type Config struct {
	BatchWindow    time.Duration // Debounce window for by-id coalescing
	RetryCooldown  time.Duration // Not-found ids become retryable after this
	ChunkSize      int           // Background populator chunk size
	WarmDelay      time.Duration // Delay before the warm-start load begins
	SnapshotMaxAge time.Duration // Snapshot freshness bound for warm starts
}

// DefaultConfig returns the default cache core configuration
func DefaultConfig() Config {
	return Config{
		BatchWindow:    defaultBatchWindow,
		RetryCooldown:  defaultRetryCooldown,
		ChunkSize:      defaultChunkSize,
		WarmDelay:      defaultWarmDelay,
		SnapshotMaxAge: defaultSnapshotMaxAge,
	}
}

// viewState tracks one eager-load view's guard flags
type viewState struct {
	loaded  bool
	lastErr error
}

// Service is the session-scoped facade over the logo cache core: the entry
// cache, the batch coordinator, the single-flight view loaders, the
// background populator, and the CRUD passthroughs. It is initialized empty
// at session start and torn down with Reset at logout.
type Service struct {
	client domain.CatalogClient
	store  domain.SnapshotStore // may be nil (no persistence)
	logger *slog.Logger
	cfg    Config

	cache     *Cache
	batcher   *Batcher
	populator *Populator

	sf     singleflight.Group
	viewMu sync.Mutex
	gen    uint64
	views  map[string]*viewState

	warmTimer *time.Timer
}

// NewService wires the cache core. store may be nil to disable the
// warm-start snapshot.
func NewService(client domain.CatalogClient, store domain.SnapshotStore, cfg Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.WarmDelay <= 0 {
		cfg.WarmDelay = defaultWarmDelay
	}
	if cfg.SnapshotMaxAge <= 0 {
		cfg.SnapshotMaxAge = defaultSnapshotMaxAge
	}

	cache := NewCache()
	return &Service{
		client:    client,
		store:     store,
		logger:    logger,
		cfg:       cfg,
		cache:     cache,
		batcher:   NewBatcher(client, cache, cfg.BatchWindow, cfg.RetryCooldown, logger),
		populator: NewPopulator(cache, cfg.ChunkSize, logger),
		views:     make(map[string]*viewState),
	}
}

// Cache exposes the shared entry cache for read-through consumers
func (s *Service) Cache() *Cache {
	return s.cache
}

// Get returns the cached logo for id, if present. Synchronous.
func (s *Service) Get(id int64) (*domain.Logo, bool) {
	return s.cache.Get(id)
}

// Count returns the number of cached logos
func (s *Service) Count() int {
	return s.cache.Count()
}

// EnsureLoaded resolves once the logo for id is cached, batching the lookup
// with other requests arriving in the same window
func (s *Service) EnsureLoaded(ctx context.Context, id int64) error {
	return s.batcher.EnsureLoaded(ctx, id)
}

// State returns the process-wide load state for id
func (s *Service) State(id int64) domain.LoadState {
	return s.batcher.State(id)
}

// Create creates a logo server-side and caches the result. The cache is
// touched only after the server write succeeds.
func (s *Service) Create(ctx context.Context, name, url string) (*domain.Logo, error) {
	logo, err := s.client.Create(ctx, name, url)
	if err != nil {
		s.logger.Error("failed to create logo", "error", err, "name", name)
		return nil, err
	}
	canonical := s.cache.UpsertOne(*logo)
	s.logger.Info("created logo", "id", canonical.ID, "name", canonical.Name)
	return canonical, nil
}

// Update applies a partial update server-side, then mutates the cached
// record in place so every holder observes the new state without a re-fetch
func (s *Service) Update(ctx context.Context, id int64, update domain.LogoUpdate) (*domain.Logo, error) {
	logo, err := s.client.Update(ctx, id, update)
	if err != nil {
		s.logger.Error("failed to update logo", "error", err, "id", id)
		return nil, err
	}
	canonical := s.cache.UpsertOne(*logo)
	s.logger.Info("updated logo", "id", id)
	return canonical, nil
}

// Delete removes a logo server-side, then drops it from the cache and all
// subset views
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.client.Delete(ctx, id); err != nil {
		s.logger.Error("failed to delete logo", "error", err, "id", id)
		return err
	}
	s.cache.Remove(id)
	s.logger.Info("deleted logo", "id", id)
	return nil
}

// StartWarm schedules the best-effort background population to begin after
// the configured delay, so it never competes with interactive first loads.
// Errors are logged and swallowed; this is opportunistic cache warming.
func (s *Service) StartWarm(ctx context.Context) {
	s.viewMu.Lock()
	if s.warmTimer != nil {
		s.viewMu.Unlock()
		return
	}
	s.warmTimer = time.AfterFunc(s.cfg.WarmDelay, func() {
		if err := s.Warm(ctx); err != nil {
			s.logger.Warn("background logo warm failed", "error", err)
		}
	})
	s.viewMu.Unlock()
}

// Warm populates the cache with the full catalog in bounded chunks,
// preferring a fresh local snapshot over a network call. Single-flight:
// concurrent calls share one run. A run that straddles a Reset discards
// its results.
func (s *Service) Warm(ctx context.Context) error {
	gen := s.generation()
	_, err, _ := s.sf.Do("warm", func() (interface{}, error) {
		src, fromSnapshot := s.warmSource(ctx)
		if src == nil {
			logos, err := s.client.ListAll(ctx, domain.FilterAll)
			if err != nil {
				return nil, err
			}
			src = logos
		}

		if err := s.populator.Run(ctx, src, nil); err != nil {
			return nil, err
		}
		if s.generation() != gen {
			return nil, nil
		}

		if !fromSnapshot {
			s.saveSnapshot(src)
		}
		s.setLoadedAt(gen, viewFull, nil)
		s.logger.Info("warmed logo cache", "count", len(src), "fromSnapshot", fromSnapshot)
		return nil, nil
	})
	return err
}

// warmSource returns a snapshot-backed source when one is fresh enough
func (s *Service) warmSource(ctx context.Context) ([]domain.Logo, bool) {
	if s.store == nil || !s.store.IsFresh(s.cfg.SnapshotMaxAge) {
		return nil, false
	}
	snapshot, ok := s.store.Get()
	if !ok || len(snapshot) == 0 {
		return nil, false
	}
	return snapshot, true
}

// SaveSnapshot persists the current catalog for the next session's warm start
func (s *Service) SaveSnapshot() {
	logos := s.cache.All()
	flat := make([]domain.Logo, len(logos))
	for i, logo := range logos {
		flat[i] = *logo
	}
	s.saveSnapshot(flat)
}

func (s *Service) saveSnapshot(logos []domain.Logo) {
	if s.store == nil {
		return
	}
	if err := s.store.Save(logos); err != nil {
		s.logger.Warn("failed to save logo snapshot", "error", err)
	}
}

// Reset tears down all session state: caches, subset views, pending batch
// state, loader flags, and the persisted snapshot. Used at logout and for
// test isolation. Loads still in flight when Reset runs discard their
// results on completion instead of repopulating the new session.
func (s *Service) Reset() {
	s.viewMu.Lock()
	s.gen++
	if s.warmTimer != nil {
		s.warmTimer.Stop()
		s.warmTimer = nil
	}
	s.views = make(map[string]*viewState)
	s.viewMu.Unlock()

	s.batcher.Reset()
	s.cache.Reset()

	if s.store != nil {
		s.store.Invalidate()
	}
	s.logger.Info("logo cache reset")
}
