package logos

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/pantherale0/Dispatcharr/internal/domain"
)

// testLogger returns a logger that discards all output
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeClient is an in-memory domain.CatalogClient recording call counts and
// batch contents for assertions.
type fakeClient struct {
	mu    sync.Mutex
	logos map[int64]domain.Logo

	listAllCalls  int
	getByIDsCalls int
	batches       [][]int64

	listAllErr   error
	getByIDsErr  error
	listAllWait  time.Duration
	getByIDsWait time.Duration

	nextID int64
}

func newFakeClient(logos ...domain.Logo) *fakeClient {
	c := &fakeClient{logos: make(map[int64]domain.Logo)}
	for _, logo := range logos {
		c.logos[logo.ID] = logo
		if logo.ID > c.nextID {
			c.nextID = logo.ID
		}
	}
	return c
}

func (c *fakeClient) matches(logo domain.Logo, filter domain.ListFilter) bool {
	switch filter {
	case domain.FilterUsed:
		return logo.IsUsed()
	case domain.FilterChannelAssignable:
		return logo.ChannelAssignable()
	default:
		return true
	}
}

func (c *fakeClient) all(filter domain.ListFilter) []domain.Logo {
	var out []domain.Logo
	for _, logo := range c.logos {
		if c.matches(logo, filter) {
			out = append(out, logo)
		}
	}
	return out
}

func (c *fakeClient) List(ctx context.Context, filter domain.ListFilter, offset, limit int) ([]domain.Logo, int, error) {
	logos, err := c.ListAll(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	total := len(logos)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}
	return logos[offset:end], total, nil
}

func (c *fakeClient) ListAll(ctx context.Context, filter domain.ListFilter) ([]domain.Logo, error) {
	c.mu.Lock()
	wait := c.listAllWait
	err := c.listAllErr
	c.listAllCalls++
	c.mu.Unlock()

	if wait > 0 {
		time.Sleep(wait)
	}
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.all(filter), nil
}

func (c *fakeClient) GetByIDs(ctx context.Context, ids []int64) ([]domain.Logo, error) {
	c.mu.Lock()
	c.getByIDsCalls++
	batch := make([]int64, len(ids))
	copy(batch, ids)
	c.batches = append(c.batches, batch)
	wait := c.getByIDsWait
	err := c.getByIDsErr
	c.mu.Unlock()

	if wait > 0 {
		time.Sleep(wait)
	}
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	var out []domain.Logo
	for _, id := range ids {
		if logo, ok := c.logos[id]; ok {
			out = append(out, logo)
		}
	}
	return out, nil
}

func (c *fakeClient) Create(ctx context.Context, name, url string) (*domain.Logo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	logo := domain.Logo{ID: c.nextID, Name: name, URL: url}
	c.logos[logo.ID] = logo
	return &logo, nil
}

func (c *fakeClient) Update(ctx context.Context, id int64, update domain.LogoUpdate) (*domain.Logo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	logo, ok := c.logos[id]
	if !ok {
		return nil, domain.ErrLogoNotFound
	}
	if update.Name != nil {
		logo.Name = *update.Name
	}
	if update.URL != nil {
		logo.URL = *update.URL
	}
	c.logos[id] = logo
	return &logo, nil
}

func (c *fakeClient) Delete(ctx context.Context, id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.logos[id]; !ok {
		return domain.ErrLogoNotFound
	}
	delete(c.logos, id)
	return nil
}

func (c *fakeClient) listAllCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.listAllCalls
}

func (c *fakeClient) getByIDsCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.getByIDsCalls
}

func (c *fakeClient) batch(i int) []int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i >= len(c.batches) {
		return nil
	}
	return c.batches[i]
}

func (c *fakeClient) setGetByIDsErr(err error) {
	c.mu.Lock()
	c.getByIDsErr = err
	c.mu.Unlock()
}

func (c *fakeClient) setListAllErr(err error) {
	c.mu.Lock()
	c.listAllErr = err
	c.mu.Unlock()
}
