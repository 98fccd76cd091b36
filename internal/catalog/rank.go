package catalog

import (
	"sort"
	"strings"

	"coinoswap_admin/internal/domain"
)

// Match categories, best first.
const (
	rankExactTicker = iota
	rankTickerPrefix
	rankNamePrefix
	rankContains
)

// FilterAndRank keeps the coins whose ticker, name or network contains term
// (case-insensitive) and orders them: exact ticker match, ticker prefix, name
// prefix, then everything else; ties by ticker ascending. The sort is stable.
// A blank term returns coins unchanged.
func FilterAndRank(coins []domain.Coin, term string) []domain.Coin {
	q := strings.ToLower(strings.TrimSpace(term))
	if q == "" {
		return coins
	}

	type ranked struct {
		coin   domain.Coin
		rank   int
		ticker string
	}

	matches := make([]ranked, 0, len(coins))
	for _, c := range coins {
		ticker := strings.ToLower(c.Ticker)
		name := strings.ToLower(c.Name)
		network := strings.ToLower(c.Network)
		if !strings.Contains(ticker, q) && !strings.Contains(name, q) && !strings.Contains(network, q) {
			continue
		}

		rank := rankContains
		switch {
		case ticker == q:
			rank = rankExactTicker
		case strings.HasPrefix(ticker, q):
			rank = rankTickerPrefix
		case strings.HasPrefix(name, q):
			rank = rankNamePrefix
		}
		matches = append(matches, ranked{coin: c, rank: rank, ticker: ticker})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].rank != matches[j].rank {
			return matches[i].rank < matches[j].rank
		}
		return matches[i].ticker < matches[j].ticker
	})

	out := make([]domain.Coin, len(matches))
	for i, m := range matches {
		out[i] = m.coin
	}
	return out
}
