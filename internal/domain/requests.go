package domain

// MergeRequest links non-standard coins to a standard coin's mapped partners.
type MergeRequest struct {
	StandardCoinID int64   `json:"standardCoinId"`
	CoinIDs        []int64 `json:"coinIds"`
}

// CoinUpdate is a partial update of a standard coin. Nil fields are not sent.
type CoinUpdate struct {
	CoinID     int64     `json:"coinId"`
	ShortName  *string   `json:"shortName,omitempty"`
	CoinType   *CoinType `json:"coinType,omitempty"`
	Image      *string   `json:"image,omitempty"`
	IsApproved *bool     `json:"isApproved,omitempty"`
}

// StandardCoinAction selects the operation of the buy standard-coin endpoint.
type StandardCoinAction string

const (
	ActionCreate StandardCoinAction = "create"
	ActionDelete StandardCoinAction = "delete"
)

// StandardCoinRequest creates or deletes a standard coin on the buy side.
type StandardCoinRequest struct {
	Action StandardCoinAction `json:"action"`
	CoinID int64              `json:"coinId"`
}

// NotificationUpdate replaces a partner mapping's pay-in/pay-out notices.
// Empty lists are omitted so the server keeps its current value.
type NotificationUpdate struct {
	StandardCoinID      int64    `json:"standardCoinId"`
	SwapPartner         string   `json:"swapPartner"`
	PayInNotifications  []string `json:"payInNotifications,omitempty"`
	PayOutNotifications []string `json:"payOutNotifications,omitempty"`
}

// SettingUpsert creates or replaces an admin setting.
type SettingUpsert struct {
	Key         string `json:"key"`
	Value       any    `json:"value"`
	Description string `json:"description,omitempty"`
}
