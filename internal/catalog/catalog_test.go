package catalog

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"

	"coinoswap_admin/internal/domain"
	"coinoswap_admin/internal/infra/coinoswap"

	"github.com/google/go-cmp/cmp"
)

type fakeSearcher struct {
	mu      sync.Mutex
	calls   []domain.SearchParams
	coins   map[domain.Pair][]domain.Coin
	errs    map[domain.Pair]error
	panicOn *domain.Pair
}

func (f *fakeSearcher) SearchCoins(ctx context.Context, market domain.Market, p domain.SearchParams) (*domain.SearchResponse, error) {
	f.mu.Lock()
	f.calls = append(f.calls, p)
	f.mu.Unlock()

	pair := domain.Pair{IsFiat: *p.IsFiat, IsStandard: p.IsStandard}
	if f.panicOn != nil && *f.panicOn == pair {
		panic("boom")
	}
	if err := f.errs[pair]; err != nil {
		return nil, err
	}
	return &domain.SearchResponse{Success: true, Coins: f.coins[pair]}, nil
}

type recordingNotifier struct {
	errors    []string
	successes []string
}

func (n *recordingNotifier) Success(msg string) { n.successes = append(n.successes, msg) }
func (n *recordingNotifier) Error(msg string)   { n.errors = append(n.errors, msg) }

var (
	fiatStd     = domain.Pair{IsFiat: true, IsStandard: true}
	fiatNonStd  = domain.Pair{IsFiat: true, IsStandard: false}
	cryptoStd   = domain.Pair{IsFiat: false, IsStandard: true}
	cryptoNonSd = domain.Pair{IsFiat: false, IsStandard: false}
)

func coin(id int64, ticker, name, network string) domain.Coin {
	return domain.Coin{ID: id, Ticker: ticker, Name: name, Network: network}
}

func ids(coins []domain.Coin) []int64 {
	out := make([]int64, len(coins))
	for i, c := range coins {
		out[i] = c.ID
	}
	return out
}

func TestExpand_AllCombinations(t *testing.T) {
	for mask := 0; mask < 16; mask++ {
		tg := domain.Toggles{
			ShowFiat:        mask&1 != 0,
			ShowCrypto:      mask&2 != 0,
			ShowStandard:    mask&4 != 0,
			ShowNonStandard: mask&8 != 0,
		}
		t.Run(fmt.Sprintf("%04b", mask), func(t *testing.T) {
			want := []domain.Pair{}
			for _, p := range []domain.Pair{fiatStd, fiatNonStd, cryptoStd, cryptoNonSd} {
				fiatOn := (p.IsFiat && tg.ShowFiat) || (!p.IsFiat && tg.ShowCrypto)
				stdOn := (p.IsStandard && tg.ShowStandard) || (!p.IsStandard && tg.ShowNonStandard)
				if fiatOn && stdOn {
					want = append(want, p)
				}
			}
			if diff := cmp.Diff(want, Expand(tg)); diff != "" {
				t.Errorf("Expand(%+v) mismatch (-want +got):\n%s", tg, diff)
			}
		})
	}
}

func TestExpand_FixedOrder(t *testing.T) {
	got := Expand(domain.AllToggles())
	want := []domain.Pair{fiatStd, fiatNonStd, cryptoStd, cryptoNonSd}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestFanOut_QueryParameters(t *testing.T) {
	s := &fakeSearcher{}
	FanOut(context.Background(), s, domain.MarketBuy, []domain.Pair{cryptoNonSd}, 0)

	if len(s.calls) != 1 {
		t.Fatalf("Expected 1 call, got %d", len(s.calls))
	}
	p := s.calls[0]
	if *p.IsFiat || p.IsStandard || p.Page != 1 || p.Limit != DefaultFetchLimit {
		t.Errorf("unexpected params: %+v", p)
	}
}

func TestFanOut_BranchIsolation(t *testing.T) {
	s := &fakeSearcher{
		coins: map[domain.Pair][]domain.Coin{
			fiatStd:     {coin(1, "USD", "US Dollar", "fiat")},
			cryptoStd:   {coin(3, "BTC", "Bitcoin", "bitcoin")},
			cryptoNonSd: {coin(4, "ETH", "Ethereum", "ethereum")},
		},
		errs: map[domain.Pair]error{
			fiatNonStd: errors.New("connection reset"),
		},
	}

	results := FanOut(context.Background(), s, domain.MarketBuy, Expand(domain.AllToggles()), 1000)
	if len(results) != 4 {
		t.Fatalf("Expected 4 results, got %d", len(results))
	}
	if results[1].Success || results[1].Err == nil || results[1].Coins != nil {
		t.Errorf("failed branch not isolated: %+v", results[1])
	}
	if diff := cmp.Diff([]int64{1, 3, 4}, ids(Merge(results))); diff != "" {
		t.Errorf("merge mismatch (-want +got):\n%s", diff)
	}
	if err := FirstFailure(results); err != nil {
		t.Errorf("partial success must not report failure, got %v", err)
	}
}

func TestFanOut_RecoversPanickingBranch(t *testing.T) {
	s := &fakeSearcher{
		coins:   map[domain.Pair][]domain.Coin{fiatStd: {coin(1, "USD", "", "")}},
		panicOn: &cryptoStd,
	}
	results := FanOut(context.Background(), s, domain.MarketBuy, []domain.Pair{fiatStd, cryptoStd}, 10)
	if !results[0].Success {
		t.Error("healthy branch should succeed")
	}
	if results[1].Success || results[1].Err == nil {
		t.Errorf("panicking branch should fail, got %+v", results[1])
	}
}

func TestMerge_NoDedupAndBranchOrder(t *testing.T) {
	dup := coin(9, "USDT", "Tether", "tron")
	results := []BranchResult{
		{Pair: fiatStd, Success: true, Coins: []domain.Coin{coin(1, "A", "", ""), dup}},
		{Pair: fiatNonStd, Success: false, Err: errors.New("x")},
		{Pair: cryptoStd, Success: true, Coins: []domain.Coin{dup, coin(2, "B", "", "")}},
	}
	if diff := cmp.Diff([]int64{1, 9, 9, 2}, ids(Merge(results))); diff != "" {
		t.Errorf("merge mismatch (-want +got):\n%s", diff)
	}
}

func TestLoader_EmptyToggleSetIssuesNoRequest(t *testing.T) {
	s := &fakeSearcher{}
	n := &recordingNotifier{}
	merged, results := NewLoader(s, domain.MarketBuy, 1000, n).Load(context.Background(), domain.Toggles{ShowFiat: true})

	if len(s.calls) != 0 {
		t.Errorf("Expected no requests, got %d", len(s.calls))
	}
	if len(merged) != 0 || results != nil {
		t.Errorf("Expected empty output, got %v / %v", merged, results)
	}
	if len(n.errors) != 0 {
		t.Errorf("Expected no notification, got %v", n.errors)
	}
}

func TestLoader_AllFailedNotifiesOnce(t *testing.T) {
	tests := []struct {
		name    string
		first   error
		wantMsg string
	}{
		{"server message", &coinoswap.APIError{Status: 503, Message: "Maintenance window"}, "Maintenance window"},
		{"transport error", errors.New("dial tcp: refused"), "Failed to fetch coins"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &fakeSearcher{errs: map[domain.Pair]error{
				fiatStd:     tt.first,
				fiatNonStd:  errors.New("second"),
				cryptoStd:   errors.New("third"),
				cryptoNonSd: errors.New("fourth"),
			}}
			n := &recordingNotifier{}
			merged, _ := NewLoader(s, domain.MarketBuy, 1000, n).Load(context.Background(), domain.AllToggles())

			if len(merged) != 0 {
				t.Errorf("Expected empty list, got %d coins", len(merged))
			}
			if diff := cmp.Diff([]string{tt.wantMsg}, n.errors); diff != "" {
				t.Errorf("notifications mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoader_PartialFailureIsSilent(t *testing.T) {
	s := &fakeSearcher{
		coins: map[domain.Pair][]domain.Coin{cryptoNonSd: {coin(4, "ETH", "Ethereum", "ethereum")}},
		errs:  map[domain.Pair]error{cryptoStd: errors.New("down")},
	}
	n := &recordingNotifier{}
	merged, _ := NewLoader(s, domain.MarketBuy, 1000, n).Load(context.Background(),
		domain.Toggles{ShowCrypto: true, ShowStandard: true, ShowNonStandard: true})

	if len(merged) != 1 {
		t.Errorf("Expected 1 coin, got %d", len(merged))
	}
	if len(n.errors) != 0 {
		t.Errorf("Expected no notification, got %v", n.errors)
	}
}

func TestFilterAndRank(t *testing.T) {
	coins := []domain.Coin{
		coin(1, "BETH", "Beacon ETH", "ethereum"),
		coin(2, "ETHX", "Stader ETHx", "ethereum"),
		coin(3, "ETH", "Ethereum", "ethereum"),
		coin(4, "USDT", "Tether", "ethereum"),
		coin(5, "WETH", "Wrapped Ether", "arbitrum"),
		coin(6, "BTC", "Bitcoin", "bitcoin"),
	}

	tests := []struct {
		name string
		term string
		want []int64
	}{
		{"blank term keeps order", "  ", []int64{1, 2, 3, 4, 5, 6}},
		{"exact then prefix then contains", "eth", []int64{3, 2, 1, 4, 5}},
		{"case folded", "  EtH ", []int64{3, 2, 1, 4, 5}},
		{"name prefix beats contains", "tether", []int64{4}},
		{"network match", "bitcoin", []int64{6}},
		{"no match", "doge", []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(FilterAndRank(coins, tt.term))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("FilterAndRank(%q) mismatch (-want +got):\n%s", tt.term, diff)
			}
		})
	}
}

func TestFilterAndRank_NamePrefixCategory(t *testing.T) {
	coins := []domain.Coin{
		coin(1, "ZZZ", "some wrapped sol", "solana"),
		coin(2, "WSOL", "Wrapped SOL", "solana"),
		coin(3, "AAA", "Wrapped thing", "base"),
	}
	// "wr": none matches by ticker, 2 and 3 are name prefixes, 1 only contains.
	got := ids(FilterAndRank(coins, "wr"))
	if diff := cmp.Diff([]int64{3, 2, 1}, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestFilterAndRank_Stable(t *testing.T) {
	coins := []domain.Coin{
		coin(1, "USDC", "USD Coin", "ethereum"),
		coin(2, "USDC", "USD Coin", "solana"),
		coin(3, "USDC", "USD Coin", "base"),
	}
	if diff := cmp.Diff([]int64{1, 2, 3}, ids(FilterAndRank(coins, "usdc"))); diff != "" {
		t.Errorf("equal keys must keep merge order (-want +got):\n%s", diff)
	}
}

func TestPaginate(t *testing.T) {
	items := make([]int, 25)
	for i := range items {
		items[i] = i
	}

	tests := []struct {
		name     string
		page     int
		wantLen  int
		wantHead int
		wantNext bool
		wantPrev bool
	}{
		{"first page", 1, 10, 0, true, false},
		{"middle page", 2, 10, 10, true, true},
		{"last partial page", 3, 5, 20, false, true},
		{"past the end", 4, 0, -1, false, true},
		{"zero page", 0, 0, -1, true, false},
		{"far past the end", 1 << 40, 0, -1, false, true},
		{"multiplication overflow", math.MaxInt/10 + 1, 0, -1, false, true},
		{"max int", math.MaxInt, 0, -1, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, p := Paginate(items, tt.page, 10)
			if len(got) != tt.wantLen {
				t.Fatalf("Expected %d items, got %d", tt.wantLen, len(got))
			}
			if tt.wantHead >= 0 && got[0] != tt.wantHead {
				t.Errorf("Expected first item %d, got %d", tt.wantHead, got[0])
			}
			if p.TotalPages != 3 || p.TotalCount != 25 {
				t.Errorf("Expected 3 pages / 25 items, got %d / %d", p.TotalPages, p.TotalCount)
			}
			if p.HasNextPage != tt.wantNext || p.HasPreviousPage != tt.wantPrev {
				t.Errorf("next/prev = %v/%v, want %v/%v", p.HasNextPage, p.HasPreviousPage, tt.wantNext, tt.wantPrev)
			}
		})
	}
}

func TestPaginate_Empty(t *testing.T) {
	got, p := Paginate([]domain.Coin{}, 1, 0)
	if len(got) != 0 {
		t.Errorf("Expected no items, got %d", len(got))
	}
	if p.TotalPages != 1 || p.HasNextPage || p.HasPreviousPage || p.Limit != DefaultPageSize {
		t.Errorf("unexpected pagination: %+v", p)
	}
}

func TestView(t *testing.T) {
	var merged []domain.Coin
	for i := 0; i < 12; i++ {
		merged = append(merged, coin(int64(i), fmt.Sprintf("TOK%02d", i), "Token", "ethereum"))
	}
	merged = append(merged, coin(99, "BTC", "Bitcoin", "bitcoin"))

	page, p := View(merged, "tok", 2, 10)
	if diff := cmp.Diff([]int64{10, 11}, ids(page)); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
	if p.TotalCount != 12 || p.TotalPages != 2 {
		t.Errorf("unexpected pagination: %+v", p)
	}
}
