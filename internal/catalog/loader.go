package catalog

import (
	"context"
	"log/slog"

	"coinoswap_admin/internal/domain"
	"coinoswap_admin/internal/infra/coinoswap"
)

const fetchFailedMessage = "Failed to fetch coins"

// Loader runs stages 1-3 of the pipeline for one market: expand, fan out, merge.
type Loader struct {
	searcher Searcher
	market   domain.Market
	limit    int
	notifier domain.Notifier
}

// NewLoader creates a loader. A nil notifier discards messages.
func NewLoader(s Searcher, market domain.Market, limit int, notifier domain.Notifier) *Loader {
	if notifier == nil {
		notifier = domain.NopNotifier{}
	}
	return &Loader{searcher: s, market: market, limit: limit, notifier: notifier}
}

// Market returns the market the loader queries.
func (l *Loader) Market() domain.Market {
	return l.market
}

// Load fetches and merges every category enabled by t. When every branch
// fails, exactly one error notification is raised and an empty list returned.
func (l *Loader) Load(ctx context.Context, t domain.Toggles) ([]domain.Coin, []BranchResult) {
	pairs := Expand(t)
	if len(pairs) == 0 {
		return []domain.Coin{}, nil
	}

	results := FanOut(ctx, l.searcher, l.market, pairs, l.limit)
	merged := Merge(results)

	if err := FirstFailure(results); err != nil {
		msg := coinoswap.MessageOf(err, fetchFailedMessage)
		slog.Error("All fetch branches failed",
			slog.String("market", string(l.market)),
			slog.Int("branches", len(results)),
			slog.Any("error", err))
		l.notifier.Error(msg)
	}

	return merged, results
}

// View applies stages 4-5 to a merged list.
func View(merged []domain.Coin, term string, page, size int) ([]domain.Coin, domain.Pagination) {
	return Paginate(FilterAndRank(merged, term), page, size)
}
