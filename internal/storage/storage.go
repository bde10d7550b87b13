// internal/storage/storage.go
package storage

import (
	"context"

	"github.com/rovshanmuradov/solana-sniper/internal/storage/models"
)

// Storage is the trade-history persistence interface. The engine runs fine
// without it; history is strictly best-effort.
type Storage interface {
	RecordTrade(ctx context.Context, trade *models.Trade) error
	ListTrades(ctx context.Context, mint string, limit, offset int) ([]*models.Trade, error)

	RunMigrations() error
}
