// Package catalog implements the coin aggregation pipeline of the admin
// coin screens: expand toggles into query pairs, fan the queries out, merge
// the branches, then filter, rank and paginate the merged list locally.
package catalog

import "coinoswap_admin/internal/domain"

// Expand turns the four category toggles into the (isFiat, isStandard) pairs
// to query, in the fixed branch order fiat/std, fiat/non-std, crypto/std,
// crypto/non-std. A pair is included only when both of its axis toggles are on.
func Expand(t domain.Toggles) []domain.Pair {
	pairs := make([]domain.Pair, 0, 4)
	if t.ShowFiat && t.ShowStandard {
		pairs = append(pairs, domain.Pair{IsFiat: true, IsStandard: true})
	}
	if t.ShowFiat && t.ShowNonStandard {
		pairs = append(pairs, domain.Pair{IsFiat: true, IsStandard: false})
	}
	if t.ShowCrypto && t.ShowStandard {
		pairs = append(pairs, domain.Pair{IsFiat: false, IsStandard: true})
	}
	if t.ShowCrypto && t.ShowNonStandard {
		pairs = append(pairs, domain.Pair{IsFiat: false, IsStandard: false})
	}
	return pairs
}
