package coinoswap

import "coinoswap_admin/internal/domain"

// Endpoint paths relative to the configured base URL.
const (
	pathBuySearch           = "/buy/search-coins"
	pathBuyStandardCoin     = "/buy/create-standard-coin"
	pathSwapSearch          = "/swap/search-coins"
	pathSwapUpdateCoin      = "/swap/update-coin"
	pathSwapMerge           = "/swap/merge-coins-to-mapped"
	pathSwapNotifications   = "/swap/update-notifications"
	pathAdminSettings       = "/admin/settings"
	maxResponseBytes        = 16 << 20
	defaultSwapSearchLimit  = 10
	requestIDHeader         = "X-Request-ID"
	contentTypeJSON         = "application/json"
	defaultSessionCookieKey = "connect.sid"
)

// envelope is the success/message pair every response carries.
type envelope struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
}

// wireCoin tolerates the field aliases the buy and swap endpoints use.
type wireCoin struct {
	ID             int64                   `json:"id"`
	Ticker         string                  `json:"ticker"`
	Symbol         string                  `json:"symbol"`
	ShortName      string                  `json:"shortName"`
	Name           string                  `json:"name"`
	Network        string                  `json:"network"`
	Image          string                  `json:"image"`
	ImageURL       string                  `json:"imageUrl"`
	IsFiat         bool                    `json:"isFiat"`
	IsStandard     bool                    `json:"isStandard"`
	IsApproved     bool                    `json:"isApproved"`
	BuyPartner     string                  `json:"buyPartner"`
	SwapPartner    string                  `json:"swapPartner"`
	CoinType       domain.CoinType         `json:"coinType"`
	MappedPartners []domain.PartnerMapping `json:"mappedPartners"`
}

func (w wireCoin) toDomain() domain.Coin {
	c := domain.Coin{
		ID:             w.ID,
		Ticker:         firstNonEmpty(w.Ticker, w.Symbol, w.ShortName),
		Name:           w.Name,
		Network:        w.Network,
		Image:          firstNonEmpty(w.Image, w.ImageURL),
		IsFiat:         w.IsFiat,
		IsStandard:     w.IsStandard,
		BuyPartner:     w.BuyPartner,
		SwapPartner:    w.SwapPartner,
		MappedPartners: w.MappedPartners,
		ShortName:      w.ShortName,
		CoinType:       w.CoinType,
		IsApproved:     w.IsApproved,
	}
	if c.Name == "" {
		c.Name = c.Ticker
	}
	return c
}

type wirePagination struct {
	CurrentPage     int   `json:"currentPage"`
	TotalPages      int   `json:"totalPages"`
	TotalCoins      *int  `json:"totalCoins"`
	TotalCount      *int  `json:"totalCount"`
	Limit           int   `json:"limit"`
	HasNextPage     bool  `json:"hasNextPage"`
	HasPrevPage     *bool `json:"hasPrevPage"`
	HasPreviousPage *bool `json:"hasPreviousPage"`
}

func (w *wirePagination) toDomain(requestedPage, requestedLimit int) *domain.Pagination {
	if w == nil {
		return nil
	}
	p := &domain.Pagination{
		CurrentPage: w.CurrentPage,
		TotalPages:  w.TotalPages,
		Limit:       w.Limit,
		HasNextPage: w.HasNextPage,
	}
	if p.CurrentPage <= 0 {
		p.CurrentPage = requestedPage
	}
	if p.TotalPages <= 0 {
		p.TotalPages = 1
	}
	if p.Limit <= 0 {
		p.Limit = requestedLimit
	}
	switch {
	case w.TotalCoins != nil:
		p.TotalCount = *w.TotalCoins
	case w.TotalCount != nil:
		p.TotalCount = *w.TotalCount
	}
	switch {
	case w.HasPrevPage != nil:
		p.HasPreviousPage = *w.HasPrevPage
	case w.HasPreviousPage != nil:
		p.HasPreviousPage = *w.HasPreviousPage
	}
	return p
}

type wireSearchResponse struct {
	Success    bool            `json:"success"`
	Coins      []wireCoin      `json:"coins"`
	Pagination *wirePagination `json:"pagination"`
}

type wireSettingsResponse struct {
	Settings []domain.Setting `json:"settings"`
	Data     []domain.Setting `json:"data"`
}

type wireSettingResponse struct {
	Setting *domain.Setting `json:"setting"`
	Data    *domain.Setting `json:"data"`
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
