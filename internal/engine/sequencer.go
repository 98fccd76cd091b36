// Package engine owns the state of a coin screen and serialises every change
// to it through a single goroutine.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"coinoswap_admin/internal/catalog"
	"coinoswap_admin/internal/domain"
	"coinoswap_admin/internal/event"
)

// Loader fetches and merges the coins enabled by a toggle set.
type Loader interface {
	Load(ctx context.Context, t domain.Toggles) ([]domain.Coin, []catalog.BranchResult)
}

// Hooks are boundary callbacks. They run on the sequencer goroutine and must not block.
type Hooks struct {
	OnUpdate         func(Snapshot)
	OnTogglesChanged func(domain.Toggles)
	OnMerged         func(State)
}

type stamper interface {
	Stamp(seq uint64, ts time.Time)
}

// Sequencer is the single-threaded owner of a screen's State.
// Every dispatched fetch is tagged with a new generation; completions of
// older generations are discarded so a slow response never overwrites a
// newer one.
type Sequencer struct {
	inbox    chan event.Event
	done     chan struct{}
	loader   Loader
	pageSize int
	hooks    Hooks

	state     State
	nextSeq   uint64
	discarded atomic.Uint64

	fetches sync.WaitGroup
	mu      sync.RWMutex // Used only for external reads
}

// NewSequencer creates a sequencer starting from initial.
func NewSequencer(inboxSize int, initial State, loader Loader, pageSize int, hooks Hooks) *Sequencer {
	if pageSize <= 0 {
		pageSize = catalog.DefaultPageSize
	}
	if initial.Page < 1 {
		initial.Page = 1
	}
	return &Sequencer{
		inbox:    make(chan event.Event, inboxSize),
		done:     make(chan struct{}),
		loader:   loader,
		pageSize: pageSize,
		hooks:    hooks,
		state:    initial,
		nextSeq:  1,
	}
}

// Post hands ev to the sequencer. It fails once ctx is done or the sequencer has stopped.
func (s *Sequencer) Post(ctx context.Context, ev event.Event) error {
	select {
	case s.inbox <- ev:
		return nil
	case <-s.done:
		return fmt.Errorf("sequencer stopped")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run starts the main event loop. It must be run in a single goroutine and
// returns after ctx is cancelled and every in-flight fetch has exited.
func (s *Sequencer) Run(ctx context.Context) {
	slog.Info("Sequencer started", slog.String("market", string(s.state.Market)))

	defer s.fetches.Wait()
	defer close(s.done)
	defer func() {
		if r := recover(); r != nil {
			slog.Error("CRITICAL_PANIC_DETECTED", slog.Any("panic", r))
			s.DumpState("panic_dump.json")
		}
	}()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Sequencer stopping...")
			return
		case ev := <-s.inbox:
			s.process(ctx, ev)
		}
	}
}

func (s *Sequencer) process(ctx context.Context, ev event.Event) {
	if st, ok := ev.(stamper); ok {
		st.Stamp(s.nextSeq, time.Now())
	}
	s.nextSeq++

	prev := s.state
	next := Reduce(prev, ev)
	s.setState(next)

	switch e := ev.(type) {
	case *event.TogglesChangedEvent:
		if s.hooks.OnTogglesChanged != nil {
			s.hooks.OnTogglesChanged(e.Toggles)
		}
	case *event.FetchCompletedEvent:
		if e.Generation != next.Generation {
			s.discarded.Add(1)
			slog.Debug("Discarding stale fetch result",
				slog.Uint64("generation", e.Generation),
				slog.Uint64("latest", next.Generation))
			return
		}
		slog.Info("Fetch applied",
			slog.Uint64("generation", e.Generation),
			slog.Int("coins", len(next.Merged)),
			slog.Bool("failed", e.Failed))
		if s.hooks.OnMerged != nil {
			s.hooks.OnMerged(next)
		}
	}

	if NeedsFetch(ev) {
		s.dispatch(ctx)
	}

	if s.hooks.OnUpdate != nil {
		s.hooks.OnUpdate(View(s.state, s.pageSize))
	}
}

// dispatch starts a fetch for the current toggles under a new generation.
func (s *Sequencer) dispatch(ctx context.Context) {
	gen := s.state.Generation + 1
	toggles := s.state.Toggles

	dispatched := &event.FetchDispatchedEvent{Generation: gen, Toggles: toggles}
	dispatched.Stamp(s.nextSeq, time.Now())
	s.nextSeq++
	s.setState(Reduce(s.state, dispatched))

	slog.Debug("Fetch dispatched",
		slog.Uint64("generation", gen),
		slog.Any("toggles", toggles))

	s.fetches.Add(1)
	go func() {
		defer s.fetches.Done()

		completed := &event.FetchCompletedEvent{Generation: gen, Failed: true}
		func() {
			defer func() {
				if r := recover(); r != nil {
					slog.Error("Fetch panicked", slog.Uint64("generation", gen), slog.Any("panic", r))
				}
			}()
			coins, results := s.loader.Load(ctx, toggles)
			completed.Coins = coins
			completed.Failed = catalog.FirstFailure(results) != nil
		}()

		select {
		case s.inbox <- completed:
		case <-s.done:
		case <-ctx.Done():
		}
	}()
}

func (s *Sequencer) setState(next State) {
	s.mu.Lock()
	s.state = next
	s.mu.Unlock()
}

// State returns a copy of the current state (external read).
func (s *Sequencer) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Snapshot renders the current state (external read).
func (s *Sequencer) Snapshot() Snapshot {
	return View(s.State(), s.pageSize)
}

// Discarded returns how many stale fetch results have been dropped.
func (s *Sequencer) Discarded() uint64 {
	return s.discarded.Load()
}

// DumpState writes the entire internal state to a file (for post-mortem).
func (s *Sequencer) DumpState(filename string) {
	slog.Info("Dumping internal state...", slog.String("file", filename))

	data := struct {
		NextSeq uint64 `json:"next_seq"`
		State   State  `json:"state"`
	}{
		NextSeq: s.nextSeq,
		State:   s.State(),
	}

	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		slog.Error("Failed to marshal state", slog.Any("error", err))
		return
	}

	if err := os.WriteFile(filename, b, 0644); err != nil {
		slog.Error("Failed to write state dump", slog.Any("error", err))
	}
}
