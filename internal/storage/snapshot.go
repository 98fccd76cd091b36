package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"coinoswap_admin/internal/domain"
)

// Snapshot is the merged result set of one fetch, kept for offline browsing.
type Snapshot struct {
	Market     domain.Market  `json:"market"`
	Generation uint64         `json:"generation"`
	TsUnixNano int64          `json:"ts"`
	Toggles    domain.Toggles `json:"toggles"`
	Coins      []domain.Coin  `json:"coins"`
}

// SnapshotManager handles saving and loading snapshots.
type SnapshotManager struct {
	dir string
}

// NewSnapshotManager creates a snapshot manager writing into dir.
func NewSnapshotManager(dir string) *SnapshotManager {
	return &SnapshotManager{dir: dir}
}

// CreateSnapshot captures a merged list. The coin slice is copied.
func CreateSnapshot(market domain.Market, generation uint64, t domain.Toggles, coins []domain.Coin) *Snapshot {
	cp := make([]domain.Coin, len(coins))
	copy(cp, coins)
	return &Snapshot{
		Market:     market,
		Generation: generation,
		TsUnixNano: time.Now().UnixNano(),
		Toggles:    t,
		Coins:      cp,
	}
}

func filePrefix(market domain.Market) string {
	return "snapshot_" + string(market) + "_"
}

// Save writes a snapshot to disk.
func (sm *SnapshotManager) Save(snap *Snapshot) error {
	if err := os.MkdirAll(sm.dir, 0755); err != nil {
		return fmt.Errorf("failed to create snapshot dir: %w", err)
	}

	path := filepath.Join(sm.dir, fmt.Sprintf("%s%d.json", filePrefix(snap.Market), snap.TsUnixNano))

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	slog.Info("Snapshot saved",
		slog.String("market", string(snap.Market)),
		slog.Int("coins", len(snap.Coins)),
		slog.String("path", path))
	return nil
}

type snapFile struct {
	path string
	ts   int64
}

// list returns the snapshot files of market, newest first.
func (sm *SnapshotManager) list(market domain.Market) ([]snapFile, error) {
	entries, err := os.ReadDir(sm.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read snapshot dir: %w", err)
	}

	prefix := filePrefix(market)
	var files []snapFile
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".json") {
			continue
		}
		ts, err := strconv.ParseInt(strings.TrimSuffix(strings.TrimPrefix(name, prefix), ".json"), 10, 64)
		if err != nil {
			continue // Not a snapshot file
		}
		files = append(files, snapFile{path: filepath.Join(sm.dir, name), ts: ts})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].ts > files[j].ts })
	return files, nil
}

// LoadLatest loads the most recent snapshot of market. Returns nil if none exists.
func (sm *SnapshotManager) LoadLatest(market domain.Market) (*Snapshot, error) {
	files, err := sm.list(market)
	if err != nil || len(files) == 0 {
		return nil, err
	}

	data, err := os.ReadFile(files[0].path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}

	slog.Info("Snapshot loaded",
		slog.String("market", string(market)),
		slog.Int("coins", len(snap.Coins)),
		slog.String("path", files[0].path))
	return &snap, nil
}

// Cleanup removes old snapshots of market, keeping only the latest keepCount.
func (sm *SnapshotManager) Cleanup(market domain.Market, keepCount int) error {
	files, err := sm.list(market)
	if err != nil {
		return err
	}

	for i := max(keepCount, 0); i < len(files); i++ {
		if err := os.Remove(files[i].path); err != nil {
			slog.Warn("Failed to remove old snapshot", slog.String("path", files[i].path), slog.Any("error", err))
		} else {
			slog.Debug("Removed old snapshot", slog.String("path", files[i].path))
		}
	}
	return nil
}
