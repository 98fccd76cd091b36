// Package app wires configuration, the API client and local storage into
// the catalog pipeline and the mutators.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"coinoswap_admin/internal/catalog"
	"coinoswap_admin/internal/domain"
	"coinoswap_admin/internal/engine"
	"coinoswap_admin/internal/infra"
	"coinoswap_admin/internal/infra/coinoswap"
	"coinoswap_admin/internal/mapping"
	"coinoswap_admin/internal/settings"
	"coinoswap_admin/internal/storage"

	"github.com/mattn/go-isatty"
)

const snapshotsToKeep = 5

// Bootstrap orchestrates the application startup sequence.
type Bootstrap struct {
	Config    *infra.Config
	Client    *coinoswap.Client
	Store     *storage.Store
	Snapshots *storage.SnapshotManager
	Notifier  domain.Notifier

	out io.Writer
}

// NewBootstrap creates a bootstrap that reports to out (stderr when nil).
func NewBootstrap(out io.Writer) *Bootstrap {
	if out == nil {
		out = os.Stderr
	}
	return &Bootstrap{out: out}
}

// Initialize loads configuration, installs the logger and opens the client and stores.
// An empty configPath resolves the default location.
func (b *Bootstrap) Initialize(configPath string) error {
	if configPath == "" {
		configPath = infra.ResolveConfigPath()
	}
	cfg, err := infra.LoadConfig(configPath)
	if err != nil {
		return err
	}
	return b.InitializeWith(cfg)
}

// InitializeWith wires everything from an already loaded configuration.
func (b *Bootstrap) InitializeWith(cfg *infra.Config) error {
	b.Config = cfg
	slog.SetDefault(infra.NewLogger(cfg))

	color := false
	if f, ok := b.out.(*os.File); ok {
		color = isatty.IsTerminal(f.Fd())
	}
	b.Notifier = infra.NewConsoleNotifier(b.out, color)

	client, err := coinoswap.NewClient(cfg)
	if err != nil {
		return err
	}
	b.Client = client

	if cfg.Storage.Enabled {
		dataDir := filepath.Join(infra.GetWorkspaceDir(), "data")
		if err := infra.EnsureDir(dataDir); err != nil {
			return fmt.Errorf("failed to create data dir: %w", err)
		}

		dbPath := filepath.Join(dataDir, "admin.db")
		store, err := storage.NewStore(dbPath)
		if err != nil {
			return err
		}
		b.Store = store
		slog.Debug("Store initialized", slog.String("path", dbPath))

		if cfg.Storage.Snapshots {
			b.Snapshots = storage.NewSnapshotManager(filepath.Join(dataDir, "snapshots"))
		}
	}

	slog.Debug("Bootstrap complete",
		slog.String("api", cfg.API.BaseURL),
		slog.Bool("storage", b.Store != nil))
	return nil
}

// Close releases the store.
func (b *Bootstrap) Close() error {
	if b.Store != nil {
		return b.Store.Close()
	}
	return nil
}

// Auditor returns the mutation audit sink, or nil when storage is disabled.
func (b *Bootstrap) Auditor() domain.Auditor {
	if b.Store == nil {
		return nil
	}
	return b.Store
}

// NewLoader builds the fetch stages for market.
func (b *Bootstrap) NewLoader(market domain.Market) *catalog.Loader {
	return catalog.NewLoader(b.Client, market, b.Config.Catalog.FetchLimit, b.Notifier)
}

// NewMutator builds the write side with auditing and the given refresh callback.
func (b *Bootstrap) NewMutator(refresh func(ctx context.Context), opts ...mapping.Option) *mapping.Mutator {
	opts = append([]mapping.Option{mapping.WithAuditor(b.Auditor()), mapping.WithRefresh(refresh)}, opts...)
	return mapping.NewMutator(b.Client, b.Notifier, opts...)
}

// NewSettings builds the settings service.
func (b *Bootstrap) NewSettings() *settings.Service {
	return settings.NewService(b.Client, b.Notifier, b.Auditor())
}

// Toggles returns the persisted filters of market, or every category when none were saved.
func (b *Bootstrap) Toggles(ctx context.Context, market domain.Market) domain.Toggles {
	if b.Store == nil {
		return domain.AllToggles()
	}
	t, ok, err := b.Store.LoadToggles(ctx, market)
	if err != nil {
		slog.Warn("Failed to load saved toggles", slog.Any("error", err))
	}
	if !ok {
		return domain.AllToggles()
	}
	return t
}

// SaveToggles persists the filters of market when storage is enabled.
func (b *Bootstrap) SaveToggles(ctx context.Context, market domain.Market, t domain.Toggles) {
	if b.Store == nil {
		return
	}
	if err := b.Store.SaveToggles(ctx, market, t); err != nil {
		slog.Warn("Failed to save toggles", slog.Any("error", err))
	}
}

// SaveSnapshot stores a merged list for offline use and prunes old ones.
func (b *Bootstrap) SaveSnapshot(market domain.Market, generation uint64, t domain.Toggles, coins []domain.Coin) {
	if b.Snapshots == nil {
		return
	}
	if err := b.Snapshots.Save(storage.CreateSnapshot(market, generation, t, coins)); err != nil {
		slog.Warn("Failed to save snapshot", slog.Any("error", err))
		return
	}
	if err := b.Snapshots.Cleanup(market, snapshotsToKeep); err != nil {
		slog.Warn("Failed to prune snapshots", slog.Any("error", err))
	}
}

// LoadOffline returns the last saved merged list of market.
func (b *Bootstrap) LoadOffline(market domain.Market) (*storage.Snapshot, error) {
	if b.Snapshots == nil {
		return nil, fmt.Errorf("snapshots are disabled")
	}
	snap, err := b.Snapshots.LoadLatest(market)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, fmt.Errorf("no %s snapshot saved yet", market)
	}
	return snap, nil
}

// NewSequencer builds the state owner of a market screen. Toggles are
// restored from and persisted to the store, and every applied fetch is
// snapshotted.
func (b *Bootstrap) NewSequencer(ctx context.Context, market domain.Market, onUpdate func(engine.Snapshot)) *engine.Sequencer {
	initial := engine.NewState(market)
	initial.Toggles = b.Toggles(ctx, market)

	return engine.NewSequencer(64, initial, b.NewLoader(market), b.Config.Catalog.PageSize, engine.Hooks{
		OnUpdate: onUpdate,
		OnTogglesChanged: func(t domain.Toggles) {
			b.SaveToggles(ctx, market, t)
		},
		OnMerged: func(s engine.State) {
			if !s.LastFailed {
				b.SaveSnapshot(market, s.Applied, s.Toggles, s.Merged)
			}
		},
	})
}
