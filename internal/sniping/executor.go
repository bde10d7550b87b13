// internal/sniping/executor.go
package sniping

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
	"go.uber.org/zap"

	txbuilder "github.com/rovshanmuradov/solana-sniper/internal/blockchain/solana/transaction"
	"github.com/rovshanmuradov/solana-sniper/internal/storage/models"
	"github.com/rovshanmuradov/solana-sniper/internal/wallet"
)

// Block-builder tip account used to improve inclusion odds.
var jitoTipAccount = solana.MustPublicKeyFromBase58("jito4apjq3WgJ4eBvC1ktH6EYyZg1xRdkD5xsfPvCbD")

const submitMaxElapsed = 15 * time.Second

// TradeRecorder persists executed trades. A nil recorder disables history.
type TradeRecorder interface {
	RecordTrade(ctx context.Context, trade *models.Trade) error
}

// ExecutorConfig carries the trading parameters the execution engine needs.
type ExecutorConfig struct {
	InvestmentAmount float64 // SOL per buy
	JitoTip          uint64  // lamports
	PriorityFee      float64 // SOL, compute unit price
	MaxRetries       int
	RecoveryWallet   solana.PublicKey // zero value → proceeds stay with the engine wallet
	CallTimeout      time.Duration
}

// Executor builds and submits buy/sell orders and keeps the position ledger
// in sync with what was actually executed. Submission failures never mutate
// the ledger and never terminate the process.
type Executor struct {
	cfg    ExecutorConfig
	chain  ChainClient
	wallet *wallet.Wallet
	market PriceSource
	ledger *Ledger
	trades TradeRecorder
	logger *zap.Logger
	locks  *keyedMutex
}

func NewExecutor(cfg ExecutorConfig, chain ChainClient, w *wallet.Wallet,
	market PriceSource, ledger *Ledger, trades TradeRecorder, logger *zap.Logger) *Executor {
	if cfg.CallTimeout == 0 {
		cfg.CallTimeout = defaultTimeout
	}
	if cfg.RecoveryWallet.IsZero() {
		cfg.RecoveryWallet = w.PublicKey
	}
	return &Executor{
		cfg:    cfg,
		chain:  chain,
		wallet: w,
		market: market,
		ledger: ledger,
		trades: trades,
		logger: logger.Named("executor"),
		locks:  newKeyedMutex(),
	}
}

// Buy commits the configured investment to the candidate token plus the
// fixed tip, then opens a ledger position at the current market price. A
// candidate already held is a benign no-op.
func (e *Executor) Buy(ctx context.Context, mint string) OrderResult {
	unlock := e.locks.lock(mint)
	defer unlock()

	if e.ledger.Has(mint) {
		e.logger.Debug("skipping buy, position already open", zap.String("mint", mint))
		return OrderResult{Mint: mint, Err: ErrDuplicatePosition}
	}

	mintKey, err := solana.PublicKeyFromBase58(mint)
	if err != nil {
		return OrderResult{Mint: mint, Err: fmt.Errorf("invalid mint address: %w", err)}
	}

	lamports := uint64(e.cfg.InvestmentAmount * float64(solana.LAMPORTS_PER_SOL))
	instructions := []solana.Instruction{
		system.NewTransferInstruction(lamports, e.wallet.PublicKey, mintKey).Build(),
		system.NewTransferInstruction(e.cfg.JitoTip, e.wallet.PublicKey, jitoTipAccount).Build(),
	}

	sig, err := e.submit(ctx, instructions)
	if err != nil {
		e.logger.Error("Buy failed", zap.String("mint", mint), zap.Error(err))
		e.recordTrade(mint, models.SideBuy, e.cfg.InvestmentAmount, 0, 100, sig, err)
		return OrderResult{Mint: mint, Err: err}
	}

	price := e.entryPrice(ctx, mint)

	if _, err := e.ledger.Open(mint, e.cfg.InvestmentAmount, price); err != nil {
		// Lost a race against another buy path; the submitted transfer
		// stands, the ledger keeps the first entry.
		e.logger.Warn("position already recorded after buy",
			zap.String("mint", mint), zap.Error(err))
	}

	e.logger.Info("🚀 Buy submitted",
		zap.String("mint", mint),
		zap.String("signature", sig.String()),
		zap.Float64("amount_sol", e.cfg.InvestmentAmount),
		zap.Float64("entry_price", price))
	e.recordTrade(mint, models.SideBuy, e.cfg.InvestmentAmount, price, 100, sig, nil)

	return OrderResult{Mint: mint, Signature: sig}
}

// entryPrice queries the market for the acquisition price. When the lookup
// fails the position is opened with a zero entry price, which the exit
// monitor treats as "unknown" and skips.
func (e *Executor) entryPrice(ctx context.Context, mint string) float64 {
	price, err := e.market.GetPrice(ctx, mint)
	if err != nil {
		e.logger.Warn("entry price lookup failed, position will carry unknown entry",
			zap.String("mint", mint), zap.Error(err))
		return 0
	}
	return price
}

// Sell transfers the given percentage of the held token balance out and
// updates the ledger: a full sell closes the position, a partial one scales
// it down.
func (e *Executor) Sell(ctx context.Context, mint string, percentage float64) OrderResult {
	if percentage <= 0 || percentage > 100 {
		return OrderResult{Mint: mint, Err: fmt.Errorf("invalid sell percentage: %v", percentage)}
	}

	unlock := e.locks.lock(mint)
	defer unlock()

	mintKey, err := solana.PublicKeyFromBase58(mint)
	if err != nil {
		return OrderResult{Mint: mint, Err: fmt.Errorf("invalid mint address: %w", err)}
	}

	sourceATA, err := e.wallet.ATA(mintKey)
	if err != nil {
		return OrderResult{Mint: mint, Err: fmt.Errorf("failed to derive token account: %w", err)}
	}

	balanceCtx, cancel := context.WithTimeout(ctx, e.cfg.CallTimeout)
	balance, err := e.chain.GetTokenAccountBalance(balanceCtx, sourceATA)
	cancel()
	if err != nil {
		e.logger.Error("Sell failed, balance lookup error",
			zap.String("mint", mint), zap.Error(err))
		return OrderResult{Mint: mint, Err: err}
	}
	if balance == 0 {
		return OrderResult{Mint: mint, Err: errors.New("no token balance to sell")}
	}

	amount := uint64(float64(balance) * percentage / 100)
	destATA, err := e.wallet.ATAFor(e.cfg.RecoveryWallet, mintKey)
	if err != nil {
		return OrderResult{Mint: mint, Err: fmt.Errorf("failed to derive destination account: %w", err)}
	}

	instructions := []solana.Instruction{
		e.wallet.CreateATAIdempotentInstruction(e.wallet.PublicKey, e.cfg.RecoveryWallet, mintKey),
		token.NewTransferInstruction(amount, sourceATA, destATA, e.wallet.PublicKey, nil).Build(),
	}

	sig, err := e.submit(ctx, instructions)
	if err != nil {
		e.logger.Error("Sell failed", zap.String("mint", mint), zap.Error(err))
		e.recordTrade(mint, models.SideSell, 0, 0, percentage, sig, err)
		return OrderResult{Mint: mint, Err: err}
	}

	if percentage == 100 {
		if _, err := e.ledger.Close(mint); err != nil && !errors.Is(err, ErrPositionNotFound) {
			e.logger.Warn("failed to close position after sell",
				zap.String("mint", mint), zap.Error(err))
		}
	} else {
		if _, err := e.ledger.Reduce(mint, percentage/100); err != nil && !errors.Is(err, ErrPositionNotFound) {
			e.logger.Warn("failed to reduce position after sell",
				zap.String("mint", mint), zap.Error(err))
		}
	}

	e.logger.Info("💰 Sell submitted",
		zap.String("mint", mint),
		zap.String("signature", sig.String()),
		zap.Float64("percentage", percentage),
		zap.Uint64("token_amount", amount))
	e.recordTrade(mint, models.SideSell, 0, 0, percentage, sig, nil)

	return OrderResult{Mint: mint, Signature: sig}
}

// SellAll liquidates the given percentage of every open position. One
// token's failure never aborts the rest.
func (e *Executor) SellAll(ctx context.Context, percentage float64) []OrderResult {
	snapshot := e.ledger.Snapshot()
	results := make([]OrderResult, 0, len(snapshot))

	for _, pos := range snapshot {
		res := e.Sell(ctx, pos.Mint, percentage)
		if res.Err != nil {
			e.logger.Warn("sell failed during liquidation sweep",
				zap.String("mint", pos.Mint), zap.Error(res.Err))
		}
		results = append(results, res)
	}
	return results
}

// submit rebuilds (fresh blockhash), signs and sends the transaction with
// exponential backoff. Build and signing failures are permanent.
func (e *Executor) submit(ctx context.Context, instructions []solana.Instruction) (solana.Signature, error) {
	op := func() (solana.Signature, error) {
		tx, err := e.buildSigned(ctx, instructions)
		if err != nil {
			return solana.Signature{}, backoff.Permanent(err)
		}

		sendCtx, cancel := context.WithTimeout(ctx, e.cfg.CallTimeout)
		defer cancel()
		return e.chain.SendTransaction(sendCtx, tx)
	}

	opts := []backoff.RetryOption{
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(submitMaxElapsed),
	}
	if e.cfg.MaxRetries > 0 {
		opts = append(opts, backoff.WithMaxTries(uint(e.cfg.MaxRetries)))
	}

	return backoff.Retry(ctx, op, opts...)
}

func (e *Executor) buildSigned(ctx context.Context, instructions []solana.Instruction) (*solana.Transaction, error) {
	buildCtx, cancel := context.WithTimeout(ctx, e.cfg.CallTimeout)
	defer cancel()

	b := txbuilder.NewBuilder().
		SetComputeBudget(0, e.cfg.PriorityFee).
		AddSigner(e.wallet.PrivateKey)
	for _, ix := range instructions {
		b.AddInstruction(ix)
	}
	return b.Build(buildCtx, e.chain)
}

func (e *Executor) recordTrade(mint, side string, amountSol, price, percentage float64,
	sig solana.Signature, tradeErr error) {
	if e.trades == nil {
		return
	}

	trade := &models.Trade{
		Mint:       mint,
		Side:       side,
		AmountSol:  amountSol,
		Price:      price,
		Percentage: percentage,
		Status:     models.StatusSubmitted,
	}
	if !sig.IsZero() {
		trade.Signature = sig.String()
	}
	if tradeErr != nil {
		trade.Status = models.StatusFailed
		trade.ErrorMessage = tradeErr.Error()
	}

	ctx, cancel := context.WithTimeout(context.Background(), e.cfg.CallTimeout)
	defer cancel()
	if err := e.trades.RecordTrade(ctx, trade); err != nil {
		e.logger.Warn("failed to record trade history",
			zap.String("mint", mint), zap.Error(err))
	}
}
