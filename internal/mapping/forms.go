package mapping

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"coinoswap_admin/internal/domain"
)

var (
	errInvalidJSON = errors.New("invalid json")
	errNotArray    = errors.New("not an array")
	errNotStrings  = errors.New("not strings")
)

// FieldError is a notification textarea that failed to parse.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return strings.ToLower(e.Field) + ": " + e.Err.Error()
}

// Message returns the operator-facing text.
func (e *FieldError) Message() string {
	switch e.Err {
	case errInvalidJSON:
		return "Invalid JSON format for " + e.Field
	case errNotStrings:
		return e.Field + " must contain only strings"
	default:
		return e.Field + " must be a JSON array"
	}
}

func (e *FieldError) Unwrap() error { return e.Err }

// CoinForm is the edit dialog of a standard coin. Blank fields are not sent.
type CoinForm struct {
	StandardCoinID string
	ShortName      string
	CoinType       string
	Image          string
}

// Build validates the form into a partial update.
func (f CoinForm) Build() (domain.CoinUpdate, error) {
	if strings.TrimSpace(f.StandardCoinID) == "" {
		return domain.CoinUpdate{}, ErrCoinIDRequired
	}

	shortName := strings.TrimSpace(f.ShortName)
	coinType := domain.CoinType(strings.TrimSpace(f.CoinType))
	image := strings.TrimSpace(f.Image)
	if shortName == "" && coinType == "" && image == "" {
		return domain.CoinUpdate{}, ErrNoFields
	}

	id, err := ParseCoinID(f.StandardCoinID)
	if err != nil {
		return domain.CoinUpdate{}, err
	}

	req := domain.CoinUpdate{CoinID: id}
	if shortName != "" {
		req.ShortName = &shortName
	}
	if coinType != "" {
		if !coinType.Valid() {
			return domain.CoinUpdate{}, ErrInvalidCoinType
		}
		req.CoinType = &coinType
	}
	if image != "" {
		req.Image = &image
	}
	return req, nil
}

// NotificationForm is the notification dialog. PayIn and PayOut hold JSON arrays of strings.
type NotificationForm struct {
	StandardCoinID string
	SwapPartner    string
	PayIn          string
	PayOut         string
}

// PrefillNotificationForm fills the form from coin's mapping for partner,
// or from its first mapping when partner is empty.
func PrefillNotificationForm(c domain.Coin, partner string) NotificationForm {
	form := NotificationForm{StandardCoinID: idString(c.ID), SwapPartner: partner}

	var m domain.PartnerMapping
	var ok bool
	if partner == "" {
		if len(c.MappedPartners) > 0 {
			m, ok = c.MappedPartners[0], true
		}
	} else {
		m, ok = c.FindPartner(partner)
	}
	if !ok {
		return form
	}

	form.SwapPartner = m.SwapPartner
	form.PayIn = prettyJSON(m.PayInNotifications)
	form.PayOut = prettyJSON(m.PayOutNotifications)
	return form
}

// Build validates the form. Only non-empty arrays are included.
func (f NotificationForm) Build() (domain.NotificationUpdate, error) {
	if strings.TrimSpace(f.StandardCoinID) == "" {
		return domain.NotificationUpdate{}, ErrCoinIDRequired
	}
	id, err := ParseCoinID(f.StandardCoinID)
	if err != nil {
		return domain.NotificationUpdate{}, err
	}
	partner := strings.TrimSpace(f.SwapPartner)
	if partner == "" {
		return domain.NotificationUpdate{}, ErrPartnerRequired
	}

	payIn, err := parseNotifications("Pay In Notifications", f.PayIn)
	if err != nil {
		return domain.NotificationUpdate{}, err
	}
	payOut, err := parseNotifications("Pay Out Notifications", f.PayOut)
	if err != nil {
		return domain.NotificationUpdate{}, err
	}
	if len(payIn) == 0 && len(payOut) == 0 {
		return domain.NotificationUpdate{}, ErrNoNotifications
	}

	req := domain.NotificationUpdate{StandardCoinID: id, SwapPartner: partner}
	if len(payIn) > 0 {
		req.PayInNotifications = payIn
	}
	if len(payOut) > 0 {
		req.PayOutNotifications = payOut
	}
	return req, nil
}

func parseNotifications(field, text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	var raw any
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, &FieldError{Field: field, Err: errInvalidJSON}
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, &FieldError{Field: field, Err: errNotArray}
	}

	out := make([]string, 0, len(items))
	for _, it := range items {
		s, ok := it.(string)
		if !ok {
			return nil, &FieldError{Field: field, Err: errNotStrings}
		}
		out = append(out, s)
	}
	return out, nil
}

func prettyJSON(v []string) string {
	if len(v) == 0 {
		return ""
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return ""
	}
	return string(b)
}

func idString(id int64) string {
	if id <= 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}
