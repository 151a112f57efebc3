package vision

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/banktocfo/banktocfo/internal/domain"
)

// Options bound the cost and failure behavior of the multi-page extraction.
type Options struct {
	// MaxConcurrent caps simultaneous external calls to respect rate limits.
	MaxConcurrent int
	// MaxAttempts is the per-page attempt budget for transient failures.
	MaxAttempts int
	// RetryDelay is the base backoff between attempts, scaled linearly.
	RetryDelay time.Duration
}

// DefaultOptions are tuned for the rate limits of the default model.
func DefaultOptions() Options {
	return Options{
		MaxConcurrent: 4,
		MaxAttempts:   3,
		RetryDelay:    2 * time.Second,
	}
}

// Result aggregates extraction across all pages of one document.
type Result struct {
	Transactions []domain.Transaction
	PagesFailed  int
	PagesTotal   int
}

// ExtractPages runs the extractor over every page, bounded-concurrently, and
// merges results in page order. A page whose attempts are exhausted
// contributes zero transactions instead of failing the document; only
// cancellation aborts the whole run. Cross-page duplicates are removed and
// the merged list is sorted by date.
func ExtractPages(ctx context.Context, ex PageExtractor, pages [][]byte, opts Options, log zerolog.Logger) (*Result, error) {
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 1
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 1
	}

	perPage := make([][]domain.Transaction, len(pages))
	var failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.MaxConcurrent)

	for i, page := range pages {
		g.Go(func() error {
			txs, err := extractPageWithRetry(gctx, ex, page, opts)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				failed.Add(1)
				log.Warn().Err(err).Int("page", i+1).Msg("Page extraction exhausted retries, skipping page")
				return nil
			}
			perPage[i] = txs
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("vision: extraction aborted: %w", err)
	}

	var merged []domain.Transaction
	for _, txs := range perPage {
		merged = append(merged, txs...)
	}

	merged = dedupe(merged)
	sort.SliceStable(merged, func(a, b int) bool {
		return merged[a].Date.Before(merged[b].Date)
	})

	return &Result{
		Transactions: merged,
		PagesFailed:  int(failed.Load()),
		PagesTotal:   len(pages),
	}, nil
}

func extractPageWithRetry(ctx context.Context, ex PageExtractor, page []byte, opts Options) ([]domain.Transaction, error) {
	var lastErr error
	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		txs, err := ex.ExtractPage(ctx, page)
		if err == nil {
			return txs, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		lastErr = err

		if attempt < opts.MaxAttempts {
			select {
			case <-time.After(time.Duration(attempt) * opts.RetryDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return nil, lastErr
}

// dedupe removes transactions repeated across page boundaries, keyed on
// (date, description, amount). Statements occasionally repeat the last rows
// of a page at the top of the next one.
func dedupe(txs []domain.Transaction) []domain.Transaction {
	seen := make(map[string]bool, len(txs))
	out := txs[:0]
	for _, tx := range txs {
		key := tx.Date.String() + "_" + tx.Description + "_" + tx.Amount.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, tx)
	}
	return out
}
