package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/rs/zerolog"

	"github.com/ariondjunior/tapajos/internal/usecase"
)

// FetchBanks reads every bank account page.
func (c *Client) FetchBanks(ctx context.Context) ([]usecase.RemoteBank, usecase.FetchStats, error) {
	return fetchAll(ctx, c, c.banksPath, parseBank)
}

// FetchEntities reads every counterparty page.
func (c *Client) FetchEntities(ctx context.Context) ([]usecase.RemoteEntity, usecase.FetchStats, error) {
	return fetchAll(ctx, c, c.entitiesPath, parseEntity)
}

// fetchAll reads the first page, then the remaining pages concurrently on a
// worker pool. Records keep page order. The first failing page cancels the
// rest.
func fetchAll[T any](ctx context.Context, c *Client, path string, parse func(json.RawMessage) (T, error)) ([]T, usecase.FetchStats, error) {
	var stats usecase.FetchStats

	first, err := c.fetchPage(ctx, path, 0)
	if err != nil {
		return nil, stats, err
	}

	count, err := c.pageCount(first)
	if err != nil {
		return nil, stats, fmt.Errorf("fetch %s: %w", path, err)
	}

	pages := make([]*page, count)
	pages[0] = first

	if len(pages) > 1 {
		if err := c.fetchRemaining(ctx, path, pages); err != nil {
			return nil, stats, err
		}
	}

	logger := zerolog.Ctx(ctx)
	records := []T{}
	for _, p := range pages {
		if p == nil {
			break
		}
		stats.Pages++
		for _, raw := range p.Content {
			stats.Records++
			rec, err := parse(raw)
			if err != nil {
				stats.Rejected++
				logger.Warn().Err(err).Str("path", path).Int("page", p.Number).Msg("rejected remote record")
				continue
			}
			records = append(records, rec)
		}
		if p.Last {
			break
		}
	}

	return records, stats, nil
}

// pageCount is the number of pages to read, taken from the first page. A
// first page marked last ends the listing whatever totalPages says.
func (c *Client) pageCount(first *page) (int, error) {
	switch {
	case first.Last:
		return 1, nil
	case first.TotalPages < 0:
		return 0, fmt.Errorf("%w: totalPages %d", ErrBadPagination, first.TotalPages)
	case first.TotalPages > c.maxPages:
		return 0, fmt.Errorf("%w: totalPages %d exceeds limit %d", ErrBadPagination, first.TotalPages, c.maxPages)
	}
	return max(first.TotalPages, 1), nil
}

func (c *Client) fetchRemaining(ctx context.Context, path string, pages []*page) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pool, err := ants.NewPool(c.workers)
	if err != nil {
		return fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
			cancel()
		}
		mu.Unlock()
	}

	for n := 1; n < len(pages); n++ {
		number := n
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			p, err := c.fetchPage(ctx, path, number)
			if err != nil {
				fail(err)
				return
			}
			pages[number] = p
		})
		if err != nil {
			wg.Done()
			fail(fmt.Errorf("submit page %d: %w", number, err))
			break
		}
	}

	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}
