// Package catalogstore persists the trading-pair catalog to a single msgpack
// snapshot file. The snapshot is a cold-start fallback for catalog
// population, not a cache of price data.
package catalogstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"kriptobot/pkg/market"
)

// ErrStale is returned by Load when the snapshot is older than the supplied
// bound. A stale catalog may list long-delisted pairs.
var ErrStale = errors.New("catalogstore: snapshot stale")

// snapshot is the on-disk layout.
type snapshot struct {
	Pairs     []string  `msgpack:"pairs"`
	FetchedAt time.Time `msgpack:"fetched_at"`
}

// Store reads and writes one catalog snapshot file.
type Store struct {
	path string
}

// New creates a store for the given file path.
func New(path string) *Store {
	return &Store{path: path}
}

// Save replaces the snapshot atomically (write to a temp file, then rename).
func (s *Store) Save(pairs market.PairSet) error {
	if s == nil || s.path == "" {
		return fmt.Errorf("catalogstore: no path configured")
	}

	list := make([]string, 0, len(pairs))
	for pair := range pairs {
		list = append(list, pair)
	}
	sort.Strings(list)

	data, err := msgpack.Marshal(snapshot{Pairs: list, FetchedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("catalogstore: encode snapshot: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("catalogstore: create dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("catalogstore: write snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("catalogstore: replace snapshot: %w", err)
	}
	return nil
}

// Load reads the snapshot back, rejecting one older than maxAge with an
// error wrapping ErrStale (maxAge <= 0 disables the bound). A missing file is
// reported via os.IsNotExist on the wrapped error.
func (s *Store) Load(maxAge time.Duration) (market.PairSet, time.Time, error) {
	if s == nil || s.path == "" {
		return nil, time.Time{}, fmt.Errorf("catalogstore: no path configured")
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("catalogstore: read snapshot: %w", err)
	}

	var snap snapshot
	if err := msgpack.Unmarshal(data, &snap); err != nil {
		return nil, time.Time{}, fmt.Errorf("catalogstore: decode snapshot: %w", err)
	}

	if maxAge > 0 {
		if age := time.Since(snap.FetchedAt); age > maxAge {
			return nil, snap.FetchedAt, fmt.Errorf("catalogstore: snapshot age %s exceeds %s: %w",
				age.Round(time.Second), maxAge, ErrStale)
		}
	}

	pairs := make(market.PairSet, len(snap.Pairs))
	for _, pair := range snap.Pairs {
		pairs[pair] = struct{}{}
	}
	return pairs, snap.FetchedAt, nil
}
