package mapping

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"coinoswap_admin/internal/domain"
	"coinoswap_admin/internal/infra/coinoswap"

	"github.com/google/go-cmp/cmp"
)

type fakeClient struct {
	merges        []domain.MergeRequest
	updates       []domain.CoinUpdate
	standardCoins []domain.StandardCoinRequest
	notifications []domain.NotificationUpdate

	resp *domain.MutationResponse
	err  error
}

func (f *fakeClient) reply() (*domain.MutationResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.resp != nil {
		return f.resp, nil
	}
	return &domain.MutationResponse{Success: true}, nil
}

func (f *fakeClient) MergeCoinsToMapped(ctx context.Context, req domain.MergeRequest) (*domain.MutationResponse, error) {
	f.merges = append(f.merges, req)
	return f.reply()
}

func (f *fakeClient) UpdateStandardCoin(ctx context.Context, req domain.CoinUpdate) (*domain.MutationResponse, error) {
	f.updates = append(f.updates, req)
	return f.reply()
}

func (f *fakeClient) CreateOrDeleteStandardCoin(ctx context.Context, req domain.StandardCoinRequest) (*domain.MutationResponse, error) {
	f.standardCoins = append(f.standardCoins, req)
	return f.reply()
}

func (f *fakeClient) UpdateNotifications(ctx context.Context, req domain.NotificationUpdate) (*domain.MutationResponse, error) {
	f.notifications = append(f.notifications, req)
	return f.reply()
}

type recordingNotifier struct {
	errors    []string
	successes []string
}

func (n *recordingNotifier) Success(msg string) { n.successes = append(n.successes, msg) }
func (n *recordingNotifier) Error(msg string)   { n.errors = append(n.errors, msg) }

type memAuditor struct {
	records []domain.MutationRecord
}

func (a *memAuditor) Record(ctx context.Context, rec domain.MutationRecord) error {
	a.records = append(a.records, rec)
	return nil
}

func intPtr(i int) *int { return &i }

func TestSelection_DedupAndOrder(t *testing.T) {
	s := NewSelection()
	s.Add(domain.Coin{ID: 3})
	s.Add(domain.Coin{ID: 1})
	if s.Add(domain.Coin{ID: 3}) {
		t.Error("duplicate id should not be added")
	}
	s.Add(domain.Coin{ID: 2})

	if s.Toggle(domain.Coin{ID: 1}) {
		t.Error("toggle of selected coin should deselect")
	}
	if !s.Toggle(domain.Coin{ID: 1}) {
		t.Error("toggle of unselected coin should select")
	}

	var got []int64
	for _, c := range s.Coins() {
		got = append(got, c.ID)
	}
	if diff := cmp.Diff([]int64{3, 2, 1}, got); diff != "" {
		t.Errorf("selection order mismatch (-want +got):\n%s", diff)
	}
	if !s.Contains(2) || s.Contains(9) {
		t.Error("Contains reported wrong membership")
	}
}

func TestSelection_ConcurrentToggle(t *testing.T) {
	s := NewSelection()
	coin := domain.Coin{ID: 7, Ticker: "ETH"}

	var wg sync.WaitGroup
	var mu sync.Mutex
	selected := 0
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			on := s.Toggle(coin)
			mu.Lock()
			if on {
				selected++
			} else {
				selected--
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	if selected != 0 {
		t.Errorf("Expected toggles to cancel out, got net %d", selected)
	}
	if s.Contains(7) || s.Len() != 0 {
		t.Errorf("Expected empty selection after an even number of toggles, got %d", s.Len())
	}
}

func TestMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{ErrEmptySelection, "Please select at least one coin to merge"},
		{fmt.Errorf("merge: %w", ErrInvalidTarget), "Invalid standard coin ID"},
		{&FieldError{Field: "Pay In Notifications", Err: errInvalidJSON}, "Invalid JSON format for Pay In Notifications"},
		{errors.New("boom"), "boom"},
	}
	for _, tt := range tests {
		if got := Message(tt.err); got != tt.want {
			t.Errorf("Message(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
	for sentinel := range messages {
		if msg := sentinel.Error(); msg != strings.ToLower(msg) {
			t.Errorf("error string should be lower-case, got %q", msg)
		}
	}
}

func TestMerge_ValidationIssuesNoRequest(t *testing.T) {
	tests := []struct {
		name    string
		coins   []domain.Coin
		target  int64
		wantErr error
	}{
		{"empty selection", nil, 5, ErrEmptySelection},
		{"zero target", []domain.Coin{{ID: 1}}, 0, ErrInvalidTarget},
		{"negative target", []domain.Coin{{ID: 1}}, -4, ErrInvalidTarget},
		{"no valid ids", []domain.Coin{{ID: 0}, {ID: -2}}, 5, ErrNoValidCoinIDs},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeClient{}
			n := &recordingNotifier{}
			m := NewMutator(client, n)
			for _, c := range tt.coins {
				m.Selection().Add(c)
			}

			_, err := m.Merge(context.Background(), tt.target)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Expected %v, got %v", tt.wantErr, err)
			}
			if len(client.merges) != 0 {
				t.Errorf("Expected no request, got %d", len(client.merges))
			}
			if diff := cmp.Diff([]string{Message(tt.wantErr)}, n.errors); diff != "" {
				t.Errorf("notifications mismatch (-want +got):\n%s", diff)
			}
			if m.Selection().Len() != len(tt.coins) {
				t.Error("validation failure must not touch the selection")
			}
		})
	}
}

func TestMerge_Success(t *testing.T) {
	tests := []struct {
		name    string
		resp    *domain.MutationResponse
		wantMsg string
	}{
		{"server message", &domain.MutationResponse{Success: true, Message: "Merged 2 coins"}, "Merged 2 coins"},
		{"total added", &domain.MutationResponse{Success: true, TotalAdded: intPtr(1)}, "Successfully merged 1 partners"},
		{"falls back to selection size", &domain.MutationResponse{Success: true, TotalAdded: intPtr(0)}, "Successfully merged 2 partners"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeClient{resp: tt.resp}
			n := &recordingNotifier{}
			audit := &memAuditor{}
			var calls []string
			m := NewMutator(client, n,
				WithAuditor(audit),
				WithDismiss(func() { calls = append(calls, "dismiss") }),
				WithRefresh(func(ctx context.Context) { calls = append(calls, "refresh") }),
			)
			m.Selection().Add(domain.Coin{ID: 11})
			m.Selection().Add(domain.Coin{ID: 12})

			if _, err := m.Merge(context.Background(), 42); err != nil {
				t.Fatalf("Merge failed: %v", err)
			}

			want := []domain.MergeRequest{{StandardCoinID: 42, CoinIDs: []int64{11, 12}}}
			if diff := cmp.Diff(want, client.merges); diff != "" {
				t.Errorf("request mismatch (-want +got):\n%s", diff)
			}
			if m.Selection().Len() != 0 {
				t.Error("selection should be cleared on success")
			}
			if diff := cmp.Diff([]string{"dismiss", "refresh"}, calls); diff != "" {
				t.Errorf("callbacks mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff([]string{tt.wantMsg}, n.successes); diff != "" {
				t.Errorf("success message mismatch (-want +got):\n%s", diff)
			}
			if len(audit.records) != 1 || !audit.records[0].Success || audit.records[0].Target != "42" {
				t.Errorf("unexpected audit: %+v", audit.records)
			}
		})
	}
}

func TestMerge_FailureKeepsSelection(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{"server message verbatim", &coinoswap.APIError{Status: 400, Message: "Coin 12 already mapped"}, "Coin 12 already mapped"},
		{"generic fallback", errors.New("dial tcp: i/o timeout"), "Failed to merge coins to mapped partners"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeClient{err: tt.err}
			n := &recordingNotifier{}
			refreshed := false
			m := NewMutator(client, n, WithRefresh(func(context.Context) { refreshed = true }))
			m.Selection().Add(domain.Coin{ID: 11})
			m.Selection().Add(domain.Coin{ID: 12})

			if _, err := m.Merge(context.Background(), 42); err == nil {
				t.Fatal("Expected error")
			}
			if m.Selection().Len() != 2 {
				t.Errorf("selection must survive failure, got %d", m.Selection().Len())
			}
			if refreshed {
				t.Error("refresh must not run on failure")
			}
			if diff := cmp.Diff([]string{tt.wantMsg}, n.errors); diff != "" {
				t.Errorf("error message mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCoinForm_Build(t *testing.T) {
	tests := []struct {
		name    string
		form    CoinForm
		wantErr error
		check   func(t *testing.T, u domain.CoinUpdate)
	}{
		{"missing id", CoinForm{ShortName: "ETH"}, ErrCoinIDRequired, nil},
		{"no fields", CoinForm{StandardCoinID: "4", ShortName: "  "}, ErrNoFields, nil},
		{"bad id", CoinForm{StandardCoinID: "abc", Image: "x"}, ErrInvalidCoinID, nil},
		{"bad coin type", CoinForm{StandardCoinID: "4", CoinType: "meme"}, ErrInvalidCoinType, nil},
		{"only non-empty fields", CoinForm{StandardCoinID: " 4 ", ShortName: "ETH", CoinType: "popular&stable"}, nil,
			func(t *testing.T, u domain.CoinUpdate) {
				if u.CoinID != 4 || *u.ShortName != "ETH" || *u.CoinType != domain.CoinTypePopularStable || u.Image != nil {
					t.Errorf("unexpected update: %+v", u)
				}
			}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := tt.form.Build()
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Expected %v, got %v", tt.wantErr, err)
			}
			if tt.check != nil {
				tt.check(t, u)
			}
		})
	}
}

func TestNotificationForm_Build(t *testing.T) {
	tests := []struct {
		name    string
		form    NotificationForm
		wantMsg string
	}{
		{"missing id", NotificationForm{SwapPartner: "changenow"}, "Standard Coin ID is required"},
		{"missing partner", NotificationForm{StandardCoinID: "1"}, "Swap Partner is required"},
		{"pay in invalid json", NotificationForm{StandardCoinID: "1", SwapPartner: "p", PayIn: "[oops"}, "Invalid JSON format for Pay In Notifications"},
		{"pay in not array", NotificationForm{StandardCoinID: "1", SwapPartner: "p", PayIn: `{"a":1}`}, "Pay In Notifications must be a JSON array"},
		{"pay out invalid json", NotificationForm{StandardCoinID: "1", SwapPartner: "p", PayIn: `["x"]`, PayOut: "nope"}, "Invalid JSON format for Pay Out Notifications"},
		{"pay out not strings", NotificationForm{StandardCoinID: "1", SwapPartner: "p", PayOut: `[1,2]`}, "Pay Out Notifications must contain only strings"},
		{"both empty", NotificationForm{StandardCoinID: "1", SwapPartner: "p", PayIn: " [] ", PayOut: ""}, "At least one notification array must be provided"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.form.Build()
			if err == nil {
				t.Fatal("Expected error")
			}
			if got := Message(err); got != tt.wantMsg {
				t.Errorf("Expected %q, got %q", tt.wantMsg, got)
			}
			if msg := err.Error(); msg != strings.ToLower(msg) {
				t.Errorf("error string should be lower-case, got %q", msg)
			}
		})
	}
}

func TestNotificationForm_OnlyNonEmptyArraysSent(t *testing.T) {
	u, err := NotificationForm{StandardCoinID: "7", SwapPartner: "simpleswap", PayIn: "[]", PayOut: `["Memo required"]`}.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	want := domain.NotificationUpdate{StandardCoinID: 7, SwapPartner: "simpleswap", PayOutNotifications: []string{"Memo required"}}
	if diff := cmp.Diff(want, u); diff != "" {
		t.Errorf("update mismatch (-want +got):\n%s", diff)
	}
}

func TestPrefillNotificationForm(t *testing.T) {
	c := domain.Coin{
		ID:         7,
		IsStandard: true,
		MappedPartners: []domain.PartnerMapping{
			{SwapPartner: "changenow", PayInNotifications: []string{"a"}},
			{SwapPartner: "SimpleSwap", PayOutNotifications: []string{"b", "c"}},
		},
	}

	first := PrefillNotificationForm(c, "")
	if first.StandardCoinID != "7" || first.SwapPartner != "changenow" || first.PayOut != "" {
		t.Errorf("unexpected default prefill: %+v", first)
	}
	if first.PayIn != "[\n  \"a\"\n]" {
		t.Errorf("pay-in not pretty-printed: %q", first.PayIn)
	}

	named := PrefillNotificationForm(c, "simpleswap")
	if named.SwapPartner != "SimpleSwap" || named.PayIn != "" || named.PayOut == "" {
		t.Errorf("unexpected named prefill: %+v", named)
	}

	missing := PrefillNotificationForm(c, "exolix")
	if missing.SwapPartner != "exolix" || missing.PayIn != "" {
		t.Errorf("unknown partner should keep the name and leave arrays blank: %+v", missing)
	}
}

func TestMutator_CoinOperations(t *testing.T) {
	client := &fakeClient{}
	n := &recordingNotifier{}
	m := NewMutator(client, n)
	ctx := context.Background()

	if _, err := m.SetApproval(ctx, 0, true); !errors.Is(err, ErrInvalidCoinID) {
		t.Errorf("Expected ErrInvalidCoinID, got %v", err)
	}
	if _, err := m.SetApproval(ctx, 9, true); err != nil {
		t.Fatalf("SetApproval failed: %v", err)
	}
	if len(client.updates) != 1 || !*client.updates[0].IsApproved || client.updates[0].ShortName != nil {
		t.Errorf("unexpected approval request: %+v", client.updates)
	}

	if _, err := m.ManageStandardCoin(ctx, "archive", 3); !errors.Is(err, ErrInvalidAction) {
		t.Errorf("Expected ErrInvalidAction, got %v", err)
	}
	if _, err := m.ManageStandardCoin(ctx, domain.ActionDelete, 3); err != nil {
		t.Fatalf("ManageStandardCoin failed: %v", err)
	}

	wantSuccess := []string{"Approval status updated", "Standard coin deleted successfully"}
	if diff := cmp.Diff(wantSuccess, n.successes); diff != "" {
		t.Errorf("success messages mismatch (-want +got):\n%s", diff)
	}

	client.err = &coinoswap.APIError{Status: 404, Message: "Standard coin not found"}
	if _, err := m.UpdateCoin(ctx, CoinForm{StandardCoinID: "3", Image: "https://x/y.png"}); err == nil {
		t.Fatal("Expected error")
	}
	if last := n.errors[len(n.errors)-1]; last != "Standard coin not found" {
		t.Errorf("Expected server message, got %q", last)
	}
}
