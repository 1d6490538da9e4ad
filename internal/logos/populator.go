package logos

import (
	"context"
	"log/slog"
	"runtime"

	"github.com/pantherale0/Dispatcharr/internal/domain"
)

const defaultChunkSize = 1000

// Populator loads large record sets into the cache in bounded chunks,
// yielding to the scheduler between chunks so interleaved work can run.
type Populator struct {
	cache     *Cache
	logger    *slog.Logger
	chunkSize int

	// yield runs between chunks; replaced in tests to count yields
	yield func()
}

// NewPopulator creates a chunked populator. chunkSize <= 0 selects the
// default of 1000 records per chunk.
func NewPopulator(cache *Cache, chunkSize int, logger *slog.Logger) *Populator {
	if logger == nil {
		logger = slog.Default()
	}
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	return &Populator{
		cache:     cache,
		logger:    logger,
		chunkSize: chunkSize,
		yield:     runtime.Gosched,
	}
}

// Run stages src chunk by chunk and commits once at the end with a single
// merge, so readers never observe a half-populated catalog. Yields
// ceil(len(src)/chunkSize) - 1 times. Cancellation is honored at chunk
// boundaries; a cancelled run commits nothing, and a run that straddles a
// cache Reset drops its commit.
func (p *Populator) Run(ctx context.Context, src []domain.Logo, onProgress domain.ProgressFunc) error {
	if len(src) == 0 {
		return nil
	}

	gen := p.cache.Generation()
	staged := make([]domain.Logo, 0, len(src))

	for offset := 0; offset < len(src); offset += p.chunkSize {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		end := offset + p.chunkSize
		if end > len(src) {
			end = len(src)
		}
		staged = append(staged, src[offset:end]...)

		if onProgress != nil {
			onProgress(len(staged), len(src))
		}

		if end < len(src) {
			p.yield()
		}
	}

	if !p.cache.UpsertManyAt(gen, staged) {
		p.logger.Debug("dropped logo population after cache reset", "count", len(staged))
		return nil
	}
	p.logger.Debug("populated logo cache", "count", len(staged), "chunkSize", p.chunkSize)
	return nil
}
