package pagination

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Config holds batch fetcher configuration.
type Config struct {
	// MaxConcurrency bounds the pages fetched at the same time.
	MaxConcurrency int

	// Timeout applies to each page fetch.
	Timeout time.Duration

	// MaxPages caps the number of pages fetched, 0 for no cap.
	MaxPages int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 4,
		Timeout:        30 * time.Second,
		MaxPages:       1000,
	}
}

// PageFetcher fetches one page and reports how many pages exist.
type PageFetcher interface {
	FetchPage(ctx context.Context, endpoint string, pageNum int) (data []byte, totalPages int, err error)
}

// TotalPages returns the number of pages needed for total records at perPage
// records per page, at least 1.
func TotalPages(total, perPage int) int {
	if total <= 0 || perPage <= 0 {
		return 1
	}
	return (total + perPage - 1) / perPage
}

// Pages holds page bodies in order; Pages[0] is page 1. A page that was not
// fetched is nil.
type Pages [][]byte

// Complete returns the leading run of fetched pages.
func (p Pages) Complete() Pages {
	for i, data := range p {
		if data == nil {
			return p[:i]
		}
	}
	return p
}

// BatchFetcher fetches every page of a collection with bounded parallelism.
type BatchFetcher struct {
	fetcher PageFetcher
	config  Config
}

// NewBatchFetcher creates a batch fetcher. Non-positive settings fall back
// to DefaultConfig.
func NewBatchFetcher(fetcher PageFetcher, config Config) *BatchFetcher {
	def := DefaultConfig()
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = def.MaxConcurrency
	}
	if config.Timeout <= 0 {
		config.Timeout = def.Timeout
	}
	return &BatchFetcher{fetcher: fetcher, config: config}
}

// FetchAll reads page 1 to learn the page count and fetches the remaining
// pages in parallel. When a page fails the remaining fetches are cancelled
// and the pages fetched so far are returned with the error.
func (bf *BatchFetcher) FetchAll(ctx context.Context, endpoint string) (Pages, error) {
	start := time.Now()

	first, totalPages, err := bf.fetchPage(ctx, endpoint, 1)
	if err != nil {
		return nil, fmt.Errorf("fetch first page: %w", err)
	}

	if bf.config.MaxPages > 0 && totalPages > bf.config.MaxPages {
		log.Warn().
			Str("endpoint", endpoint).
			Int("total_pages", totalPages).
			Int("max_pages", bf.config.MaxPages).
			Msg("Page count exceeds limit, truncating")
		totalPages = bf.config.MaxPages
	}
	if totalPages < 1 {
		totalPages = 1
	}

	pages := make(Pages, totalPages)
	pages[0] = first

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bf.config.MaxConcurrency)

	for page := 2; page <= totalPages; page++ {
		page := page
		g.Go(func() error {
			data, _, err := bf.fetchPage(gctx, endpoint, page)
			if err != nil {
				return fmt.Errorf("page %d: %w", page, err)
			}
			// each goroutine owns its slot
			pages[page-1] = data
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		fetched := 0
		for _, data := range pages {
			if data != nil {
				fetched++
			}
		}
		log.Warn().
			Err(err).
			Str("endpoint", endpoint).
			Int("fetched_pages", fetched).
			Int("total_pages", totalPages).
			Msg("Page fetch failed, returning partial results")
		return pages, fmt.Errorf("partial data %d/%d pages: %w", fetched, totalPages, err)
	}

	log.Debug().
		Str("endpoint", endpoint).
		Int("pages", totalPages).
		Dur("duration", time.Since(start)).
		Msg("Fetched all pages")

	return pages, nil
}

func (bf *BatchFetcher) fetchPage(ctx context.Context, endpoint string, page int) ([]byte, int, error) {
	pageCtx, cancel := context.WithTimeout(ctx, bf.config.Timeout)
	defer cancel()
	return bf.fetcher.FetchPage(pageCtx, endpoint, page)
}
