package catalog

import "coinoswap_admin/internal/domain"

// Merge concatenates the coins of successful branches in branch order.
// No de-duplication is performed.
func Merge(results []BranchResult) []domain.Coin {
	n := 0
	for _, r := range results {
		if r.Success {
			n += len(r.Coins)
		}
	}

	merged := make([]domain.Coin, 0, n)
	for _, r := range results {
		if r.Success {
			merged = append(merged, r.Coins...)
		}
	}
	return merged
}
