// internal/blockchain/solana/types.go
package solana

import (
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
)

const (
	maxRetries     = 3
	retryDelay     = 500 * time.Millisecond
	defaultTimeout = 10 * time.Second
)

// Client fans requests out over a pool of RPC endpoints, rotating away from
// nodes that fail.
type Client struct {
	rpcClients []*RPCClient
	mutex      sync.Mutex
	currIndex  int
	logger     *zap.Logger
}

// RPCClient wraps one RPC endpoint together with its health state.
type RPCClient struct {
	Client *rpc.Client
	URL    string

	mutex   sync.RWMutex
	active  bool
	metrics *RPCMetrics
}

// RPCMetrics tracks per-endpoint request statistics.
type RPCMetrics struct {
	mutex        sync.RWMutex
	successCount uint64
	errorCount   uint64
	latency      time.Duration
}

// MintInfo is the decoded state of an SPL token mint account. A nil
// authority means the authority has been revoked.
type MintInfo struct {
	MintAuthority   *solana.PublicKey
	FreezeAuthority *solana.PublicKey
	Supply          uint64
	Decimals        uint8
}
