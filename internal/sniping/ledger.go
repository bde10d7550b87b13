// internal/sniping/ledger.go
package sniping

import (
	"errors"
	"sync"
	"time"
)

var (
	ErrDuplicatePosition = errors.New("position already open for token")
	ErrPositionNotFound  = errors.New("no open position for token")
)

// Amounts below this are treated as fully sold.
const dustAmount = 1e-9

// Ledger is the in-memory record of open positions, keyed by mint. It is the
// only shared mutable state between the buy path and the exit monitor; all
// access goes through its methods, readers iterate over snapshots.
type Ledger struct {
	mu        sync.RWMutex
	positions map[string]Position
}

func NewLedger() *Ledger {
	return &Ledger{positions: make(map[string]Position)}
}

// Open inserts a new position. A second open for the same mint is rejected
// with ErrDuplicatePosition; the ledger never double-counts.
func (l *Ledger) Open(mint string, amount, price float64) (Position, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.positions[mint]; exists {
		return Position{}, ErrDuplicatePosition
	}

	pos := Position{
		Mint:           mint,
		OpenedAt:       time.Now(),
		InvestedAmount: amount,
		EntryPrice:     price,
	}
	l.positions[mint] = pos
	return pos, nil
}

// Close removes the position and returns it.
func (l *Ledger) Close(mint string) (Position, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	pos, exists := l.positions[mint]
	if !exists {
		return Position{}, ErrPositionNotFound
	}
	delete(l.positions, mint)
	return pos, nil
}

// Reduce scales the invested amount by (1 - fraction). Reducing by a full or
// near-full fraction closes the position.
func (l *Ledger) Reduce(mint string, fraction float64) (Position, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	pos, exists := l.positions[mint]
	if !exists {
		return Position{}, ErrPositionNotFound
	}

	pos.InvestedAmount *= 1 - fraction
	if fraction >= 1 || pos.InvestedAmount <= dustAmount {
		delete(l.positions, mint)
		pos.InvestedAmount = 0
		return pos, nil
	}

	l.positions[mint] = pos
	return pos, nil
}

// Get returns the position for a mint, if open.
func (l *Ledger) Get(mint string) (Position, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	pos, ok := l.positions[mint]
	return pos, ok
}

// Has reports whether a position is open for the mint.
func (l *Ledger) Has(mint string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.positions[mint]
	return ok
}

// Len returns the number of open positions.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.positions)
}

// Snapshot returns a copy of all open positions, safe to iterate while the
// ledger keeps mutating.
func (l *Ledger) Snapshot() []Position {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Position, 0, len(l.positions))
	for _, pos := range l.positions {
		out = append(out, pos)
	}
	return out
}
