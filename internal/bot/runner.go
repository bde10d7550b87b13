// internal/bot/runner.go
package bot

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	solanabc "github.com/rovshanmuradov/solana-sniper/internal/blockchain/solana"
	"github.com/rovshanmuradov/solana-sniper/internal/config"
	"github.com/rovshanmuradov/solana-sniper/internal/eventlistener"
	"github.com/rovshanmuradov/solana-sniper/internal/marketdata"
	"github.com/rovshanmuradov/solana-sniper/internal/sniping"
	"github.com/rovshanmuradov/solana-sniper/internal/storage"
	"github.com/rovshanmuradov/solana-sniper/internal/storage/postgres"
	"github.com/rovshanmuradov/solana-sniper/internal/wallet"
)

// Runner wires the engine together and owns its lifecycle: event listener
// and exit monitor run side by side until a signal or a fatal startup error
// stops everything.
type Runner struct {
	cfg        *config.Config
	logger     *zap.Logger
	shutdownCh chan os.Signal
}

func NewRunner(cfg *config.Config, logger *zap.Logger) *Runner {
	return &Runner{
		cfg:        cfg,
		logger:     logger,
		shutdownCh: make(chan os.Signal, 1),
	}
}

func (r *Runner) Run(ctx context.Context) error {
	signal.Notify(r.shutdownCh, syscall.SIGINT, syscall.SIGTERM)
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		select {
		case sig := <-r.shutdownCh:
			r.logger.Info("📡 Signal received: " + sig.String())
			cancel()
		case <-runCtx.Done():
		}
	}()

	w, err := wallet.New(r.cfg.PrivateKey)
	if err != nil {
		return fmt.Errorf("failed to load wallet: %w", err)
	}
	r.logger.Info("💼 Wallet loaded", zap.String("address", w.String()))

	chain, err := solanabc.NewClient(r.cfg.RPCList, r.logger)
	if err != nil {
		return fmt.Errorf("failed to connect to RPC endpoints: %w", err)
	}

	market := marketdata.NewService(r.logger)

	watchlist, err := sniping.LoadWatchlist(r.cfg.WatchlistPath, r.logger)
	if err != nil {
		return fmt.Errorf("failed to load watchlist: %w", err)
	}

	// Trade history is optional: a dead database never stops trading.
	var trades storage.Storage
	if r.cfg.PostgresURL != "" {
		trades, err = postgres.NewStorage(r.cfg.PostgresURL, r.logger)
		if err != nil {
			r.logger.Warn("trade history unavailable, continuing without it", zap.Error(err))
			trades = nil
		} else if err := trades.RunMigrations(); err != nil {
			r.logger.Warn("trade history migrations failed, continuing without it", zap.Error(err))
			trades = nil
		}
	}

	ledger := sniping.NewLedger()

	validator := sniping.NewValidator(chain, market, sniping.Criteria{
		CheckMineable:        r.cfg.CheckMineable,
		CheckFreezable:       r.cfg.CheckFreezable,
		CheckMintAuthority:   r.cfg.CheckMintAuthority,
		CheckFreezeAuthority: r.cfg.CheckFreezeAuthority,
		MaxDecimals:          r.cfg.MaxDecimals,
		MinLiquidity:         r.cfg.MinLiquidity,
	}, r.logger)

	var recovery solana.PublicKey
	if r.cfg.RecoveryWallet != "" {
		recovery, err = solana.PublicKeyFromBase58(r.cfg.RecoveryWallet)
		if err != nil {
			return fmt.Errorf("invalid recovery_wallet address: %w", err)
		}
	}

	var recorder sniping.TradeRecorder
	if trades != nil {
		recorder = trades
	}
	executor := sniping.NewExecutor(sniping.ExecutorConfig{
		InvestmentAmount: r.cfg.InvestmentAmount,
		JitoTip:          r.cfg.JitoTip,
		PriorityFee:      r.cfg.PriorityFee,
		MaxRetries:       r.cfg.MaxRetries,
		RecoveryWallet:   recovery,
	}, chain, w, market, ledger, recorder, r.logger)

	monitor := sniping.NewExitMonitor(sniping.ExitConfig{
		TakeProfit:     r.cfg.TakeProfit,
		StopLoss:       r.cfg.StopLoss,
		SellPercentage: r.cfg.SellPercentage,
		Interval:       r.cfg.PollInterval,
		HoldingTime:    r.cfg.HoldingTime,
	}, ledger, market, executor, r.logger)

	// The event feed is the engine's reason to exist; failing to reach it
	// at startup is fatal.
	listener, err := eventlistener.NewEventListener(runCtx, r.cfg.WebSocketURL, r.logger)
	if err != nil {
		return fmt.Errorf("failed to connect to event stream: %w", err)
	}
	defer listener.Close()

	handler := eventlistener.NewHandler(chain, validator, executor, watchlist, nil, r.logger)

	g, gCtx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		return listener.Listen(gCtx, handler.HandleSignature)
	})
	g.Go(func() error {
		return monitor.Run(gCtx)
	})

	r.logger.Info("✅ Engine running",
		zap.Int("rpc_endpoints", len(r.cfg.RPCList)),
		zap.Int("watchlist_mints", watchlist.Len()),
		zap.Bool("trade_history", trades != nil))

	err = g.Wait()
	r.logger.Info("👋 Engine shut down gracefully")
	return err
}
