// internal/sniping/exit.go
package sniping

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Seller is the slice of the executor the exit monitor drives.
type Seller interface {
	Sell(ctx context.Context, mint string, percentage float64) OrderResult
}

// ExitConfig holds the take-profit/stop-loss parameters. Thresholds are
// percentages relative to the entry price.
type ExitConfig struct {
	TakeProfit     float64
	StopLoss       float64
	SellPercentage float64
	Interval       time.Duration
	HoldingTime    time.Duration // 0 disables the max-holding-time exit
	CallTimeout    time.Duration
}

// ExitMonitor polls open positions on a fixed interval and liquidates the
// ones whose price crossed a threshold. A position with an unknown entry
// price or an unreadable current price is held untouched until the next
// sweep.
type ExitMonitor struct {
	cfg    ExitConfig
	ledger *Ledger
	market PriceSource
	seller Seller
	logger *zap.Logger
}

func NewExitMonitor(cfg ExitConfig, ledger *Ledger, market PriceSource, seller Seller, logger *zap.Logger) *ExitMonitor {
	if cfg.Interval == 0 {
		cfg.Interval = 10 * time.Second
	}
	if cfg.CallTimeout == 0 {
		cfg.CallTimeout = defaultTimeout
	}
	return &ExitMonitor{
		cfg:    cfg,
		ledger: ledger,
		market: market,
		seller: seller,
		logger: logger.Named("exit_monitor"),
	}
}

// Run blocks until the context is cancelled.
func (m *ExitMonitor) Run(ctx context.Context) error {
	m.logger.Info("📊 Exit monitor started",
		zap.Duration("interval", m.cfg.Interval),
		zap.Float64("take_profit_pct", m.cfg.TakeProfit),
		zap.Float64("stop_loss_pct", m.cfg.StopLoss))

	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("exit monitor stopped")
			return nil
		case <-ticker.C:
			m.tick(ctx)
		}
	}
}

// tick evaluates every open position once. Each position is handled
// independently; one failure never blocks the rest of the sweep.
func (m *ExitMonitor) tick(ctx context.Context) {
	for _, pos := range m.ledger.Snapshot() {
		m.evaluate(ctx, pos)
	}
}

func (m *ExitMonitor) evaluate(ctx context.Context, pos Position) {
	if m.cfg.HoldingTime > 0 && time.Since(pos.OpenedAt) >= m.cfg.HoldingTime {
		m.sell(ctx, pos.Mint, "holding time expired")
		return
	}

	if pos.EntryPrice <= 0 {
		m.logger.Debug("holding position with unknown entry price",
			zap.String("mint", pos.Mint))
		return
	}

	priceCtx, cancel := context.WithTimeout(ctx, m.cfg.CallTimeout)
	price, err := m.market.GetPrice(priceCtx, pos.Mint)
	cancel()
	if err != nil {
		m.logger.Warn("price check failed, holding position",
			zap.String("mint", pos.Mint), zap.Error(err))
		return
	}
	if price <= 0 {
		return
	}

	change := (price - pos.EntryPrice) / pos.EntryPrice * 100
	m.logger.Debug("position checked",
		zap.String("mint", pos.Mint),
		zap.Float64("entry", pos.EntryPrice),
		zap.Float64("current", price),
		zap.Float64("change_pct", change))

	switch {
	case change >= m.cfg.TakeProfit:
		m.sell(ctx, pos.Mint, "take profit")
	case change <= -m.cfg.StopLoss:
		m.sell(ctx, pos.Mint, "stop loss")
	}
}

func (m *ExitMonitor) sell(ctx context.Context, mint, reason string) {
	m.logger.Info("🛑 Exit triggered",
		zap.String("mint", mint),
		zap.String("reason", reason),
		zap.Float64("sell_percentage", m.cfg.SellPercentage))

	if res := m.seller.Sell(ctx, mint, m.cfg.SellPercentage); res.Err != nil {
		m.logger.Error("exit sell failed, position remains open",
			zap.String("mint", mint), zap.Error(res.Err))
	}
}
