// internal/sniping/validator.go
package sniping

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

// Criteria are the risk-screening toggles, loaded once and immutable at
// runtime.
type Criteria struct {
	CheckMineable        bool
	CheckFreezable       bool
	CheckMintAuthority   bool
	CheckFreezeAuthority bool
	MaxDecimals          uint8
	MinLiquidity         float64
}

// Validator screens a candidate mint before any capital is committed. Any
// lookup failure is a rejection: the engine never buys on incomplete
// information.
type Validator struct {
	chain    MintInspector
	market   PriceSource
	criteria Criteria
	timeout  time.Duration
	logger   *zap.Logger
}

func NewValidator(chain MintInspector, market PriceSource, criteria Criteria, logger *zap.Logger) *Validator {
	return &Validator{
		chain:    chain,
		market:   market,
		criteria: criteria,
		timeout:  defaultTimeout,
		logger:   logger.Named("validator"),
	}
}

const defaultTimeout = 10 * time.Second

// Validate re-evaluates the candidate from scratch on every call; results
// are never cached. Checks run cheapest first and short-circuit.
func (v *Validator) Validate(ctx context.Context, mint string) bool {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	mintKey, err := solana.PublicKeyFromBase58(mint)
	if err != nil {
		v.logger.Debug("rejecting candidate with invalid mint address",
			zap.String("mint", mint), zap.Error(err))
		return false
	}

	info, err := v.chain.GetMint(ctx, mintKey)
	if err != nil {
		v.logger.Debug("rejecting candidate, mint lookup failed",
			zap.String("mint", mint), zap.Error(err))
		return false
	}

	if (v.criteria.CheckMineable || v.criteria.CheckMintAuthority) && info.MintAuthority != nil {
		v.logger.Debug("rejecting candidate with active mint authority",
			zap.String("mint", mint),
			zap.String("authority", info.MintAuthority.String()))
		return false
	}
	if (v.criteria.CheckFreezable || v.criteria.CheckFreezeAuthority) && info.FreezeAuthority != nil {
		v.logger.Debug("rejecting candidate with active freeze authority",
			zap.String("mint", mint),
			zap.String("authority", info.FreezeAuthority.String()))
		return false
	}
	if info.Decimals > v.criteria.MaxDecimals {
		v.logger.Debug("rejecting candidate, too many decimals",
			zap.String("mint", mint),
			zap.Uint8("decimals", info.Decimals),
			zap.Uint8("max", v.criteria.MaxDecimals))
		return false
	}

	liquidity, err := v.market.GetLiquidity(ctx, mint)
	if err != nil {
		v.logger.Debug("rejecting candidate, liquidity lookup failed",
			zap.String("mint", mint), zap.Error(err))
		return false
	}
	if liquidity < v.criteria.MinLiquidity {
		v.logger.Debug("rejecting candidate below liquidity threshold",
			zap.String("mint", mint),
			zap.Float64("liquidity", liquidity),
			zap.Float64("min", v.criteria.MinLiquidity))
		return false
	}

	v.logger.Info("✅ Candidate passed validation",
		zap.String("mint", mint),
		zap.Float64("liquidity", liquidity))
	return true
}
