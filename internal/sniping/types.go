// internal/sniping/types.go
package sniping

import (
	"context"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"

	solanabc "github.com/rovshanmuradov/solana-sniper/internal/blockchain/solana"
)

// Position is one open trade.
type Position struct {
	Mint           string
	OpenedAt       time.Time
	InvestedAmount float64 // SOL committed
	EntryPrice     float64 // quote currency per token at acquisition
}

// OrderResult is the outcome of one buy or sell submission.
type OrderResult struct {
	Mint      string
	Signature solana.Signature
	Err       error
}

func (r OrderResult) Ok() bool {
	return r.Err == nil
}

// ChainClient is the slice of the RPC pool the execution path depends on.
type ChainClient interface {
	GetRecentBlockhash(ctx context.Context) (solana.Hash, error)
	SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
	GetTokenAccountBalance(ctx context.Context, account solana.PublicKey) (uint64, error)
}

// MintInspector reads on-chain mint state for risk screening.
type MintInspector interface {
	GetMint(ctx context.Context, mint solana.PublicKey) (*solanabc.MintInfo, error)
}

// PriceSource provides live market data. Implementations return errors on
// failure, never zero sentinels.
type PriceSource interface {
	GetPrice(ctx context.Context, mint string) (float64, error)
	GetLiquidity(ctx context.Context, mint string) (float64, error)
}

// keyedMutex serializes operations per mint so a buy and an exit-driven sell
// for the same token cannot interleave their ledger updates.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*sync.Mutex)}
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
