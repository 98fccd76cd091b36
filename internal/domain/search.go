package domain

import "fmt"

// Market selects which search endpoint family is queried.
type Market string

const (
	MarketBuy  Market = "buy"
	MarketSwap Market = "swap"
)

// ParseMarket validates a market name.
func ParseMarket(s string) (Market, error) {
	switch Market(s) {
	case MarketBuy, MarketSwap:
		return Market(s), nil
	default:
		return "", fmt.Errorf("unknown market %q (want buy or swap)", s)
	}
}

// Toggles are the four independent category filters of the coin screens.
type Toggles struct {
	ShowFiat        bool `json:"showFiat"`
	ShowCrypto      bool `json:"showCrypto"`
	ShowStandard    bool `json:"showStandard"`
	ShowNonStandard bool `json:"showNonStandard"`
}

// AllToggles enables every category.
func AllToggles() Toggles {
	return Toggles{ShowFiat: true, ShowCrypto: true, ShowStandard: true, ShowNonStandard: true}
}

// Pair is one (isFiat, isStandard) query combination.
type Pair struct {
	IsFiat     bool `json:"isFiat"`
	IsStandard bool `json:"isStandard"`
}

func (p Pair) String() string {
	fiat, std := "crypto", "nonstandard"
	if p.IsFiat {
		fiat = "fiat"
	}
	if p.IsStandard {
		std = "standard"
	}
	return fiat + "/" + std
}

// SearchParams are the query parameters of a search-coins request.
// IsFiat is omitted when nil (the swap endpoint has no fiat axis).
type SearchParams struct {
	IsFiat     *bool
	IsStandard bool
	SearchTerm *string
	Page       int
	Limit      int
}

// Pagination is the normalised pagination block of a search response.
type Pagination struct {
	CurrentPage     int  `json:"currentPage"`
	TotalPages      int  `json:"totalPages"`
	TotalCount      int  `json:"totalCount"`
	Limit           int  `json:"limit"`
	HasNextPage     bool `json:"hasNextPage"`
	HasPreviousPage bool `json:"hasPreviousPage"`
}

// SearchResponse is the decoded body of a search-coins call.
type SearchResponse struct {
	Success    bool        `json:"success"`
	Coins      []Coin      `json:"coins"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// MutationResponse is the common envelope of every write endpoint.
type MutationResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message,omitempty"`
	TotalAdded *int   `json:"totalAdded,omitempty"`
}

// BoolFlag renders a bool as the API's 0|1 query value.
func BoolFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
