package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"coinoswap_admin/internal/domain"

	"golang.org/x/sync/errgroup"
)

// DefaultFetchLimit is the per-branch page size used to pull a whole category at once.
const DefaultFetchLimit = 1000

// Searcher is the subset of the API client the fetcher needs.
type Searcher interface {
	SearchCoins(ctx context.Context, market domain.Market, p domain.SearchParams) (*domain.SearchResponse, error)
}

// BranchResult is the outcome of one pair's query. A failed branch carries
// Err and no coins; it never aborts its siblings.
type BranchResult struct {
	Pair    domain.Pair
	Success bool
	Err     error
	Coins   []domain.Coin
}

// FanOut issues one search per pair concurrently and waits for all of them.
// Results are returned in pair order regardless of completion order.
func FanOut(ctx context.Context, s Searcher, market domain.Market, pairs []domain.Pair, limit int) []BranchResult {
	results := make([]BranchResult, len(pairs))
	if len(pairs) == 0 {
		return results
	}
	if limit <= 0 {
		limit = DefaultFetchLimit
	}

	// Plain Group: branch errors are values, so no sibling is ever cancelled.
	var g errgroup.Group
	for i, pair := range pairs {
		g.Go(func() error {
			results[i] = fetchBranch(ctx, s, market, pair, limit)
			return nil
		})
	}
	g.Wait()

	return results
}

func fetchBranch(ctx context.Context, s Searcher, market domain.Market, pair domain.Pair, limit int) (res BranchResult) {
	res.Pair = pair
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("Fetch branch panicked",
				slog.String("pair", pair.String()),
				slog.Any("panic", r))
			res = BranchResult{Pair: pair, Err: fmt.Errorf("fetch %s panicked: %v", pair, r)}
		}
	}()

	isFiat := pair.IsFiat
	resp, err := s.SearchCoins(ctx, market, domain.SearchParams{
		IsFiat:     &isFiat,
		IsStandard: pair.IsStandard,
		Page:       1,
		Limit:      limit,
	})
	if err != nil {
		slog.Warn("Fetch branch failed",
			slog.String("pair", pair.String()),
			slog.Any("error", err))
		res.Err = err
		return res
	}

	res.Success = true
	res.Coins = resp.Coins
	slog.Debug("Fetch branch completed",
		slog.String("pair", pair.String()),
		slog.Int("coins", len(res.Coins)),
		slog.Duration("elapsed", time.Since(start)))
	return res
}

// FirstFailure returns the error of the first failed branch when every branch
// failed and no coins are available. Partial success yields nil.
func FirstFailure(results []BranchResult) error {
	if len(results) == 0 {
		return nil
	}
	var first error
	for _, r := range results {
		if r.Success || len(r.Coins) > 0 {
			return nil
		}
		if first == nil {
			first = r.Err
		}
	}
	if first == nil {
		first = fmt.Errorf("all %d branches failed", len(results))
	}
	return first
}
