// internal/sniping/watchlist.go
package sniping

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
)

// Watchlist is a fixed set of pre-approved mints loaded at startup. Tokens
// on it skip risk screening entirely. The set is immutable once loaded, so
// reads need no locking.
type Watchlist struct {
	mints map[string]struct{}
}

// LoadWatchlist reads one mint per line, skipping blanks and lines starting
// with '#'. A missing file is not an error: the engine simply runs with an
// empty list.
func LoadWatchlist(path string, logger *zap.Logger) (*Watchlist, error) {
	w := &Watchlist{mints: make(map[string]struct{})}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Info("watchlist file not found, running without one",
				zap.String("path", path))
			return w, nil
		}
		return nil, fmt.Errorf("failed to open watchlist: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		w.mints[line] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read watchlist: %w", err)
	}

	logger.Info("watchlist loaded",
		zap.String("path", path),
		zap.Int("mints", len(w.mints)))
	return w, nil
}

// Contains reports whether the mint is pre-approved.
func (w *Watchlist) Contains(mint string) bool {
	_, ok := w.mints[mint]
	return ok
}

// Len returns the number of pre-approved mints.
func (w *Watchlist) Len() int {
	return len(w.mints)
}
