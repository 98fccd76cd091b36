package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"coinoswap_admin/internal/app"
	"coinoswap_admin/internal/domain"
	"coinoswap_admin/internal/engine"
	"coinoswap_admin/internal/event"
	"coinoswap_admin/internal/infra"
	"coinoswap_admin/internal/mapping"

	"github.com/spf13/cobra"
)

// catalogHandler serves one coin per (isFiat, isStandard) category.
func catalogHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var coins string
	switch q.Get("isFiat") + q.Get("isStandard") {
	case "11":
		coins = `{"id":1,"ticker":"EUR","name":"Euro","network":"fiat","isFiat":true,"isStandard":true}`
	case "10":
		coins = `{"id":2,"ticker":"USD","name":"Dollar","network":"fiat","isFiat":true,"buyPartner":"mercuryo"}`
	case "01":
		coins = `{"id":3,"ticker":"BTC","name":"Bitcoin","network":"bitcoin","isStandard":true,
			"mappedPartners":[{"swapPartner":"changenow","ticker":"btc","payInNotifications":["Send BTC only"]}]}`
	case "00":
		coins = `{"id":4,"ticker":"BTCB","name":"Bitcoin BEP20","network":"bsc","buyPartner":"guardarian"}`
	}
	w.Write([]byte(`{"success":true,"coins":[` + coins + `]}`))
}

// setupCLI points the global bootstrap at srv with a throwaway workspace.
func setupCLI(t *testing.T, srv *httptest.Server) (*bytes.Buffer, *cobra.Command, *bytes.Buffer) {
	t.Helper()
	t.Chdir(t.TempDir())
	if err := os.Mkdir("_workspace", 0755); err != nil {
		t.Fatal(err)
	}

	cfg := infra.DefaultConfig()
	cfg.API.BaseURL = srv.URL + "/api"
	cfg.API.MaxRetries = 0
	cfg.Catalog.DebounceMS = 10
	cfg.Logging.Level = "error"

	notices := &bytes.Buffer{}
	b := app.NewBootstrap(notices)
	if err := b.InitializeWith(cfg); err != nil {
		t.Fatalf("InitializeWith failed: %v", err)
	}
	boot = b

	searchTerm, searchPage, searchOffline, searchServer, searchJSON = "", 1, false, false, false
	mergeTarget = ""

	t.Cleanup(func() {
		b.Close()
		boot = nil
	})

	out := &bytes.Buffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(out)
	return out, cmd, notices
}

func TestSearchCmd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(catalogHandler))
	defer srv.Close()
	out, cmd, _ := setupCLI(t, srv)

	searchTerm = "btc"
	if err := runSearch(cmd, []string{"buy"}); err != nil {
		t.Fatalf("runSearch failed: %v", err)
	}

	got := out.String()
	for _, want := range []string{"BTC", "BTCB", "page 1/1, 2 coins"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "EUR") {
		t.Errorf("filtered coin should not be printed:\n%s", got)
	}

	snap, err := boot.LoadOffline(domain.MarketBuy)
	if err != nil {
		t.Fatalf("expected a saved snapshot: %v", err)
	}
	if len(snap.Coins) != 4 {
		t.Errorf("Expected 4 saved coins, got %d", len(snap.Coins))
	}
}

func TestSearchCmd_Offline(t *testing.T) {
	var down atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if down.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		catalogHandler(w, r)
	}))
	defer srv.Close()
	out, cmd, _ := setupCLI(t, srv)

	if err := runSearch(cmd, []string{"swap"}); err != nil {
		t.Fatalf("online search failed: %v", err)
	}

	down.Store(true)
	out.Reset()
	if err := runSearch(cmd, []string{"swap"}); err == nil {
		t.Fatal("expected an error when every branch fails")
	}

	out.Reset()
	searchOffline = true
	searchTerm = "euro"
	if err := runSearch(cmd, []string{"swap"}); err != nil {
		t.Fatalf("offline search failed: %v", err)
	}
	if !strings.Contains(out.String(), "EUR") {
		t.Errorf("offline output missing EUR:\n%s", out.String())
	}
}

func TestSearchCmd_ServerMode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/swap/search-coins" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("searchTerm") != "eth" || r.URL.Query().Get("page") != "2" {
			t.Errorf("Unexpected query: %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"success":true,"coins":[{"id":9,"ticker":"ETH","name":"Ethereum"}],
			"pagination":{"currentPage":2,"totalPages":3,"totalCount":21}}`))
	}))
	defer srv.Close()
	out, cmd, _ := setupCLI(t, srv)

	searchServer = true
	if err := runSearch(cmd, []string{"buy"}); err == nil {
		t.Error("--server should be rejected for the buy catalog")
	}

	searchTerm, searchPage = "eth", 2
	if err := runSearch(cmd, []string{"swap"}); err != nil {
		t.Fatalf("server search failed: %v", err)
	}
	if !strings.Contains(out.String(), "page 2/3, 21 coins") {
		t.Errorf("unexpected output:\n%s", out.String())
	}
}

func TestMergeCmd(t *testing.T) {
	var body domain.MergeRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()
	out, cmd, notices := setupCLI(t, srv)

	mergeTarget = "12"
	if err := runMerge(cmd, []string{"5", "6", "5"}); err != nil {
		t.Fatalf("runMerge failed: %v", err)
	}
	if body.StandardCoinID != 12 || len(body.CoinIDs) != 2 {
		t.Errorf("unexpected merge body: %+v", body)
	}
	if !strings.Contains(notices.String(), "[OK] Successfully merged 2 partners") {
		t.Errorf("missing success notice: %q", notices.String())
	}

	if err := runAudit(cmd, nil); err != nil {
		t.Fatalf("runAudit failed: %v", err)
	}
	if !strings.Contains(out.String(), "merge") || !strings.Contains(out.String(), "12") {
		t.Errorf("audit output missing merge record:\n%s", out.String())
	}
}

func TestMergeCmd_Validation(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()
	_, cmd, notices := setupCLI(t, srv)

	mergeTarget = "12"
	if err := runMerge(cmd, nil); !errors.Is(err, mapping.ErrEmptySelection) {
		t.Errorf("Expected ErrEmptySelection, got %v", err)
	}
	mergeTarget = "abc"
	if err := runMerge(cmd, []string{"5"}); !errors.Is(err, mapping.ErrInvalidTarget) {
		t.Errorf("Expected ErrInvalidTarget, got %v", err)
	}
	if calls.Load() != 0 {
		t.Errorf("validation failures must not reach the API, got %d calls", calls.Load())
	}
	if !strings.Contains(notices.String(), "[ERROR] Please select at least one coin to merge") {
		t.Errorf("missing validation notice: %q", notices.String())
	}
}

func TestSettingsSetCmd_RepairsFragments(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"success":true,"message":"Saved"}`))
	}))
	defer srv.Close()
	_, cmd, notices := setupCLI(t, srv)

	if err := runSettingsSet(cmd, []string{"fees", "swap: 0.5, buy: 'low',"}); err != nil {
		t.Fatalf("runSettingsSet failed: %v", err)
	}
	value, ok := got["value"].(map[string]any)
	if !ok {
		t.Fatalf("Expected an object value, got %#v", got["value"])
	}
	if value["buy"] != "low" || value["swap"] != 0.5 {
		t.Errorf("unexpected value: %#v", value)
	}
	if !strings.Contains(notices.String(), "[OK] Saved") {
		t.Errorf("missing success notice: %q", notices.String())
	}
}

func TestSettingsListCmd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"settings":[
			{"key":"fees","value":{"swap":0.5}},
			{"key":"banner","value":"{title: 'Hi'}"}
		]}`))
	}))
	defer srv.Close()
	out, cmd, _ := setupCLI(t, srv)

	if err := runSettingsList(cmd, nil); err != nil {
		t.Fatalf("runSettingsList failed: %v", err)
	}
	got := out.String()
	for _, want := range []string{"fees", "banner", "ok (repaired)", `"title": "Hi"`} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestBrowseSession(t *testing.T) {
	var merged atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			merged.Add(1)
			w.Write([]byte(`{"success":true,"totalAdded":1}`))
			return
		}
		catalogHandler(w, r)
	}))
	defer srv.Close()
	_, _, notices := setupCLI(t, srv)

	ctx, cancel := context.WithCancel(context.Background())
	out := &bytes.Buffer{}
	session := &browseSession{out: out}
	session.seq = boot.NewSequencer(ctx, domain.MarketSwap, session.render)
	session.debounce = engine.NewDebouncer(boot.Config.Debounce(), func(term string) {
		session.seq.Post(ctx, &event.SearchSettledEvent{Term: term})
	})
	session.mutator = boot.NewMutator(func(ctx context.Context) {
		session.seq.Post(ctx, &event.RefreshRequestedEvent{})
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		session.seq.Run(ctx)
	}()
	defer func() {
		session.debounce.Stop()
		cancel()
		<-done
	}()

	session.seq.Post(ctx, &event.RefreshRequestedEvent{})
	waitFor(t, "initial fetch", func() bool { return len(session.seq.State().Merged) == 4 })

	if _, err := session.handle(ctx, "fiat"); err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	waitFor(t, "refetch without fiat", func() bool {
		s := session.seq.State()
		return !s.Toggles.ShowFiat && !s.Loading && len(s.Merged) == 2
	})

	if _, err := session.handle(ctx, "/bitcoin"); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "settled search", func() bool { return session.seq.State().Term == "bitcoin" })

	if _, err := session.handle(ctx, "sel 99"); err == nil {
		t.Error("selecting a coin outside the list should fail")
	}
	if _, err := session.handle(ctx, "sel 4"); err != nil {
		t.Fatalf("select failed: %v", err)
	}
	if session.mutator.Selection().Len() != 1 {
		t.Fatalf("Expected 1 selected coin, got %d", session.mutator.Selection().Len())
	}

	gen := session.seq.State().Generation
	if _, err := session.handle(ctx, "merge 3"); err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	if merged.Load() != 1 {
		t.Errorf("Expected 1 merge request, got %d", merged.Load())
	}
	if session.mutator.Selection().Len() != 0 {
		t.Error("selection should be cleared after a successful merge")
	}
	waitFor(t, "refresh after merge", func() bool { return session.seq.State().Applied > gen })
	if !strings.Contains(notices.String(), "[OK] Successfully merged 1 partners") {
		t.Errorf("missing merge notice: %q", notices.String())
	}

	if quit, _ := session.handle(ctx, "q"); !quit {
		t.Error("q should end the session")
	}
	if _, err := session.handle(ctx, "bogus"); err == nil {
		t.Error("unknown commands should be reported")
	}
}
