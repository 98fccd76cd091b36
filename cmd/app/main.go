package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"coinoswap_admin/internal/app"
	"coinoswap_admin/internal/domain"
	"coinoswap_admin/internal/infra"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath string
	verbose    bool
	noBanner   bool

	boot *app.Bootstrap
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "coinoswap-admin",
	Short: "CoinoSwap admin console",
	Long: `Admin console for the CoinoSwap aggregator catalog.

Searches the buy and swap coin catalogs across the fiat/crypto and
standard/non-standard categories, merges partner coins into standard
coins and manages admin settings.

The session cookie is read from COINOSWAP_SESSION (or a .env file).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if boot != nil {
			return nil
		}
		path := configPath
		if path == "" {
			path = infra.ResolveConfigPath()
		}
		cfg, err := infra.LoadConfig(path)
		if err != nil {
			return err
		}
		if verbose {
			cfg.Logging.Level = "debug"
		}

		b := app.NewBootstrap(os.Stderr)
		if err := b.InitializeWith(cfg); err != nil {
			return fmt.Errorf("bootstrapping failed: %w", err)
		}
		boot = b
		if !noBanner {
			infra.PrintBanner(cmd.ErrOrStderr(), cfg)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if boot != nil {
			if err := boot.Close(); err != nil {
				slog.Warn("Failed to close store", slog.Any("error", err))
			}
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: ./configs/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&noBanner, "no-banner", false, "Do not print the startup banner")

	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(browseCmd)
	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(notifyCmd)
	rootCmd.AddCommand(coinCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(auditCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// commandContext returns the command's context, falling back to Background
// when the run function is invoked directly.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func parseMarketArg(args []string) (domain.Market, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("market required (buy or swap)")
	}
	return domain.ParseMarket(args[0])
}
