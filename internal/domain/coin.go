package domain

import "strings"

// CoinType classifies a partner mapping.
type CoinType string

const (
	CoinTypePopular       CoinType = "popular"
	CoinTypePopularStable CoinType = "popular&stable"
	CoinTypeOther         CoinType = "other"
)

// Valid reports whether t is one of the enumerated coin types.
func (t CoinType) Valid() bool {
	switch t {
	case CoinTypePopular, CoinTypePopularStable, CoinTypeOther:
		return true
	default:
		return false
	}
}

// PartnerMapping is an external exchange's representation of a standard coin.
type PartnerMapping struct {
	SwapPartner         string   `json:"swapPartner"`
	Ticker              string   `json:"ticker"`
	Name                string   `json:"name"`
	Network             string   `json:"network"`
	CoinType            CoinType `json:"coinType"`
	RequiresExtraID     bool     `json:"requiresExtraId"`
	PayInNotifications  []string `json:"payInNotifications,omitempty"`
	PayOutNotifications []string `json:"payOutNotifications,omitempty"`
}

// Coin is a search result record. Records are owned by the API; the client only
// ever holds read-mostly copies.
type Coin struct {
	ID         int64  `json:"id"`
	Ticker     string `json:"ticker"`
	Name       string `json:"name"`
	Network    string `json:"network"`
	Image      string `json:"image,omitempty"`
	IsFiat     bool   `json:"isFiat"`
	IsStandard bool   `json:"isStandard"`

	// Non-standard coins only.
	BuyPartner  string `json:"buyPartner,omitempty"`
	SwapPartner string `json:"swapPartner,omitempty"`

	// Standard coins only.
	MappedPartners []PartnerMapping `json:"mappedPartners,omitempty"`

	ShortName  string   `json:"shortName,omitempty"`
	CoinType   CoinType `json:"coinType,omitempty"`
	IsApproved bool     `json:"isApproved,omitempty"`
}

// DisplayTicker prefers the admin-assigned short name over the raw ticker.
func (c Coin) DisplayTicker() string {
	if c.ShortName != "" {
		return c.ShortName
	}
	return c.Ticker
}

// Partners returns the partner identifiers relevant to the coin: the mapped
// partners for a standard coin, the buy (or swap) partner otherwise.
// Duplicate mappings are returned as-is.
func (c Coin) Partners() []string {
	if c.IsStandard {
		out := make([]string, 0, len(c.MappedPartners))
		for _, m := range c.MappedPartners {
			out = append(out, m.SwapPartner)
		}
		return out
	}
	if c.BuyPartner != "" {
		return []string{c.BuyPartner}
	}
	if c.SwapPartner != "" {
		return []string{c.SwapPartner}
	}
	return nil
}

// FindPartner returns the first mapping whose partner matches name (case-insensitive).
func (c Coin) FindPartner(name string) (PartnerMapping, bool) {
	for _, m := range c.MappedPartners {
		if strings.EqualFold(m.SwapPartner, name) {
			return m, true
		}
	}
	return PartnerMapping{}, false
}
