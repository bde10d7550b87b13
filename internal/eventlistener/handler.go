// internal/eventlistener/handler.go
package eventlistener

import (
	"context"
	"errors"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-sniper/internal/sniping"
)

// TransactionFetcher resolves a signature to the full transaction.
type TransactionFetcher interface {
	GetTransaction(ctx context.Context, signature solana.Signature) (*rpc.GetTransactionResult, error)
}

// CandidateValidator screens a mint before capital is committed.
type CandidateValidator interface {
	Validate(ctx context.Context, mint string) bool
}

// Buyer executes a buy for an approved candidate.
type Buyer interface {
	Buy(ctx context.Context, mint string) sniping.OrderResult
}

// MintExtractor pulls the candidate mint out of a fetched transaction. The
// heuristic depends on which launch platform is being watched, so it is
// pluggable.
type MintExtractor func(tx *solana.Transaction) (solana.PublicKey, bool)

// DefaultMintExtractor takes the second account of the first instruction,
// which is where the mint sits in the launch transactions this engine
// targets.
func DefaultMintExtractor(tx *solana.Transaction) (solana.PublicKey, bool) {
	msg := &tx.Message
	if len(msg.Instructions) == 0 {
		return solana.PublicKey{}, false
	}
	accounts := msg.Instructions[0].Accounts
	if len(accounts) < 2 {
		return solana.PublicKey{}, false
	}
	idx := accounts[1]
	if int(idx) >= len(msg.AccountKeys) {
		return solana.PublicKey{}, false
	}
	return msg.AccountKeys[idx], true
}

// Handler turns one event signature into, at most, one buy. Every failure
// along the way drops the candidate; there will be another event in a
// moment.
type Handler struct {
	chain     TransactionFetcher
	validator CandidateValidator
	buyer     Buyer
	watchlist *sniping.Watchlist
	extract   MintExtractor
	logger    *zap.Logger
}

func NewHandler(chain TransactionFetcher, validator CandidateValidator, buyer Buyer,
	watchlist *sniping.Watchlist, extract MintExtractor, logger *zap.Logger) *Handler {
	if extract == nil {
		extract = DefaultMintExtractor
	}
	return &Handler{
		chain:     chain,
		validator: validator,
		buyer:     buyer,
		watchlist: watchlist,
		extract:   extract,
		logger:    logger.Named("handler"),
	}
}

// HandleSignature fetches the transaction behind the signature, extracts the
// candidate mint and routes it through screening into a buy. Watchlist
// tokens skip screening.
func (h *Handler) HandleSignature(ctx context.Context, signature string) {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		h.logger.Debug("dropping event with invalid signature",
			zap.String("signature", signature), zap.Error(err))
		return
	}

	result, err := h.chain.GetTransaction(ctx, sig)
	if err != nil {
		h.logger.Debug("transaction fetch failed, dropping candidate",
			zap.String("signature", signature), zap.Error(err))
		return
	}
	if result == nil || result.Transaction == nil {
		return
	}

	tx, err := result.Transaction.GetTransaction()
	if err != nil || tx == nil {
		h.logger.Debug("transaction decode failed, dropping candidate",
			zap.String("signature", signature), zap.Error(err))
		return
	}

	mintKey, ok := h.extract(tx)
	if !ok {
		h.logger.Debug("no mint found in transaction",
			zap.String("signature", signature))
		return
	}
	mint := mintKey.String()

	if h.watchlist != nil && h.watchlist.Contains(mint) {
		h.logger.Info("⭐ Watchlist token seen, skipping screening",
			zap.String("mint", mint))
	} else if !h.validator.Validate(ctx, mint) {
		return
	}

	res := h.buyer.Buy(ctx, mint)
	if res.Err != nil {
		if errors.Is(res.Err, sniping.ErrDuplicatePosition) {
			h.logger.Debug("candidate already held", zap.String("mint", mint))
			return
		}
		h.logger.Warn("buy failed for candidate",
			zap.String("mint", mint), zap.Error(res.Err))
	}
}
