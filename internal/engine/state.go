package engine

import (
	"coinoswap_admin/internal/catalog"
	"coinoswap_admin/internal/domain"
	"coinoswap_admin/internal/event"
)

// State is everything the coin screen derives its view from.
// It is owned by the Sequencer goroutine and only changed through Reduce.
type State struct {
	Market     domain.Market  `json:"market"`
	Toggles    domain.Toggles `json:"toggles"`
	Term       string         `json:"term"`
	Page       int            `json:"page"`
	Merged     []domain.Coin  `json:"merged"`
	Generation uint64         `json:"generation"` // latest dispatched fetch
	Applied    uint64         `json:"applied"`    // generation Merged came from
	Loading    bool           `json:"loading"`
	LastFailed bool           `json:"lastFailed"`
}

// NewState returns the initial state of a screen: every category on, page 1.
func NewState(market domain.Market) State {
	return State{
		Market:  market,
		Toggles: domain.AllToggles(),
		Page:    1,
		Merged:  []domain.Coin{},
	}
}

// Reduce applies ev to s and returns the next state. It performs no I/O.
// Fetch completions from a generation other than the latest are ignored.
func Reduce(s State, ev event.Event) State {
	switch e := ev.(type) {
	case *event.TogglesChangedEvent:
		s.Toggles = e.Toggles
		s.Page = 1
	case *event.SearchSettledEvent:
		s.Term = e.Term
		s.Page = 1
	case *event.PageRequestedEvent:
		s.Page = e.Page
	case *event.RefreshRequestedEvent:
		// Nothing changes until the fetch is dispatched.
	case *event.FetchDispatchedEvent:
		s.Generation = e.Generation
		s.Loading = true
	case *event.FetchCompletedEvent:
		if e.Generation != s.Generation {
			return s
		}
		s.Merged = e.Coins
		if s.Merged == nil {
			s.Merged = []domain.Coin{}
		}
		s.Applied = e.Generation
		s.Loading = false
		s.LastFailed = e.Failed
	}
	return s
}

// NeedsFetch reports whether ev invalidates the merged list.
func NeedsFetch(ev event.Event) bool {
	switch ev.GetType() {
	case event.EvTogglesChanged, event.EvRefreshRequested:
		return true
	default:
		return false
	}
}

// Snapshot is the rendered view of a State.
type Snapshot struct {
	Market     domain.Market     `json:"market"`
	Toggles    domain.Toggles    `json:"toggles"`
	Term       string            `json:"term"`
	Items      []domain.Coin     `json:"items"`
	Pagination domain.Pagination `json:"pagination"`
	Loading    bool              `json:"loading"`
	Generation uint64            `json:"generation"`
}

// View runs the filter, rank and paginate stages over s.
func View(s State, pageSize int) Snapshot {
	items, p := catalog.View(s.Merged, s.Term, s.Page, pageSize)
	return Snapshot{
		Market:     s.Market,
		Toggles:    s.Toggles,
		Term:       s.Term,
		Items:      items,
		Pagination: p,
		Loading:    s.Loading,
		Generation: s.Applied,
	}
}
