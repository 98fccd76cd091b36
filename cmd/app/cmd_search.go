package main

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"coinoswap_admin/internal/catalog"
	"coinoswap_admin/internal/domain"

	"github.com/spf13/cobra"
)

var (
	searchFiat        bool
	searchCrypto      bool
	searchStandard    bool
	searchNonStandard bool
	searchTerm        string
	searchPage        int
	searchLimit       int
	searchOffline     bool
	searchServer      bool
	searchJSON        bool
)

// searchCmd runs the aggregation pipeline once and prints one page.
var searchCmd = &cobra.Command{
	Use:   "search [buy|swap]",
	Short: "Search the buy or swap coin catalog",
	Long: `Fetches every enabled fiat/crypto x standard/non-standard category in
parallel, merges the results, filters and ranks them by --term and prints
one page.

Category flags that are not given fall back to the filters saved by the
last search or browse session.

Example:
  coinoswap-admin search buy --crypto=false --term btc
  coinoswap-admin search swap --server --nonstandard --standard=false --term eth`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().BoolVar(&searchFiat, "fiat", true, "Include fiat coins")
	searchCmd.Flags().BoolVar(&searchCrypto, "crypto", true, "Include crypto coins")
	searchCmd.Flags().BoolVar(&searchStandard, "standard", true, "Include standard coins")
	searchCmd.Flags().BoolVar(&searchNonStandard, "nonstandard", true, "Include non-standard coins")
	searchCmd.Flags().StringVarP(&searchTerm, "term", "t", "", "Filter by ticker, name or network")
	searchCmd.Flags().IntVarP(&searchPage, "page", "p", 1, "Page to print (1-based)")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 0, "Page size for --server (default 10)")
	searchCmd.Flags().BoolVar(&searchOffline, "offline", false, "Use the last saved result set instead of the API")
	searchCmd.Flags().BoolVar(&searchServer, "server", false, "Let the swap API filter and paginate (swap only)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "Print the page as JSON")
}

func togglesFromFlags(cmd *cobra.Command, market domain.Market) domain.Toggles {
	flags := cmd.Flags()
	changed := flags.Changed("fiat") || flags.Changed("crypto") ||
		flags.Changed("standard") || flags.Changed("nonstandard")

	ctx := commandContext(cmd)
	if !changed {
		return boot.Toggles(ctx, market)
	}
	t := domain.Toggles{
		ShowFiat:        searchFiat,
		ShowCrypto:      searchCrypto,
		ShowStandard:    searchStandard,
		ShowNonStandard: searchNonStandard,
	}
	boot.SaveToggles(ctx, market, t)
	return t
}

func runSearch(cmd *cobra.Command, args []string) error {
	market, err := parseMarketArg(args)
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)
	out := cmd.OutOrStdout()

	if searchServer {
		return runServerSearch(cmd, market)
	}

	var merged []domain.Coin
	if searchOffline {
		snap, err := boot.LoadOffline(market)
		if err != nil {
			return err
		}
		slog.Info("Using saved result set",
			slog.String("market", string(market)),
			slog.Int("coins", len(snap.Coins)),
			slog.Uint64("generation", snap.Generation))
		merged = snap.Coins
	} else {
		toggles := togglesFromFlags(cmd, market)
		coins, results := boot.NewLoader(market).Load(ctx, toggles)
		if err := catalog.FirstFailure(results); err != nil {
			return fmt.Errorf("search %s failed: %w", market, err)
		}
		boot.SaveSnapshot(market, 0, toggles, coins)
		merged = coins
	}

	items, p := catalog.View(merged, searchTerm, searchPage, boot.Config.Catalog.PageSize)
	if searchJSON {
		return writeJSON(cmd, map[string]any{"coins": items, "pagination": p})
	}
	renderCoins(out, items, p)
	return nil
}

// runServerSearch issues a single paginated swap search, the way the swap
// table and the map-dialog candidate list query the API.
func runServerSearch(cmd *cobra.Command, market domain.Market) error {
	if market != domain.MarketSwap {
		return fmt.Errorf("--server is only supported for the swap catalog")
	}
	t := togglesFromFlags(cmd, market)
	term := searchTerm
	resp, err := boot.Client.SearchCoins(commandContext(cmd), market, domain.SearchParams{
		IsStandard: t.ShowStandard,
		SearchTerm: &term,
		Page:       searchPage,
		Limit:      searchLimit,
	})
	if err != nil {
		return fmt.Errorf("swap search failed: %w", err)
	}

	p := domain.Pagination{CurrentPage: searchPage, TotalPages: 1, TotalCount: len(resp.Coins)}
	if resp.Pagination != nil {
		p = *resp.Pagination
	}
	if searchJSON {
		return writeJSON(cmd, map[string]any{"coins": resp.Coins, "pagination": p})
	}
	renderCoins(cmd.OutOrStdout(), resp.Coins, p)
	return nil
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
