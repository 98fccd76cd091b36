// Package event defines the messages consumed by the catalog sequencer.
package event

import (
	"time"

	"coinoswap_admin/internal/domain"
)

// Type defines the type of event.
type Type uint16

const (
	EvTogglesChanged Type = iota + 1
	EvSearchSettled
	EvPageRequested
	EvRefreshRequested
	EvFetchDispatched
	EvFetchCompleted
)

func (t Type) String() string {
	switch t {
	case EvTogglesChanged:
		return "TogglesChanged"
	case EvSearchSettled:
		return "SearchSettled"
	case EvPageRequested:
		return "PageRequested"
	case EvRefreshRequested:
		return "RefreshRequested"
	case EvFetchDispatched:
		return "FetchDispatched"
	case EvFetchCompleted:
		return "FetchCompleted"
	default:
		return "Unknown"
	}
}

// Event is the interface for all sequencer events.
type Event interface {
	GetSeq() uint64
	GetTs() time.Time
	GetType() Type
}

// BaseEvent contains common fields for all events.
// Seq is stamped by the sequencer on acceptance.
type BaseEvent struct {
	Seq uint64    `json:"seq"`
	Ts  time.Time `json:"ts"`
}

func (e BaseEvent) GetSeq() uint64   { return e.Seq }
func (e BaseEvent) GetTs() time.Time { return e.Ts }

// Stamp assigns the sequence number and, if unset, the timestamp.
func (e *BaseEvent) Stamp(seq uint64, ts time.Time) {
	e.Seq = seq
	if e.Ts.IsZero() {
		e.Ts = ts
	}
}

// TogglesChangedEvent replaces the category filters; the merged list is refetched.
type TogglesChangedEvent struct {
	BaseEvent
	Toggles domain.Toggles `json:"toggles"`
}

func (e TogglesChangedEvent) GetType() Type { return EvTogglesChanged }

// SearchSettledEvent carries a debounced search term.
type SearchSettledEvent struct {
	BaseEvent
	Term string `json:"term"`
}

func (e SearchSettledEvent) GetType() Type { return EvSearchSettled }

// PageRequestedEvent moves the view to a 1-based page.
type PageRequestedEvent struct {
	BaseEvent
	Page int `json:"page"`
}

func (e PageRequestedEvent) GetType() Type { return EvPageRequested }

// RefreshRequestedEvent refetches with the current toggles (e.g. after a merge).
type RefreshRequestedEvent struct {
	BaseEvent
}

func (e RefreshRequestedEvent) GetType() Type { return EvRefreshRequested }

// FetchDispatchedEvent records that a fetch for Generation has started.
type FetchDispatchedEvent struct {
	BaseEvent
	Generation uint64         `json:"generation"`
	Toggles    domain.Toggles `json:"toggles"`
}

func (e FetchDispatchedEvent) GetType() Type { return EvFetchDispatched }

// FetchCompletedEvent delivers the merged list of the fetch tagged Generation.
type FetchCompletedEvent struct {
	BaseEvent
	Generation uint64        `json:"generation"`
	Coins      []domain.Coin `json:"coins"`
	Failed     bool          `json:"failed"`
}

func (e FetchCompletedEvent) GetType() Type { return EvFetchCompleted }
