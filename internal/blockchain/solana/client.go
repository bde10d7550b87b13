// internal/blockchain/solana/client.go
package solana

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
)

// NewClient creates a pooled Solana RPC client and verifies connectivity to
// at least one endpoint.
func NewClient(rpcURLs []string, logger *zap.Logger) (*Client, error) {
	if len(rpcURLs) == 0 {
		return nil, errors.New("empty RPC URL list")
	}

	var clients []*RPCClient
	for _, urlStr := range rpcURLs {
		if _, err := url.Parse(urlStr); err != nil {
			logger.Warn("Invalid RPC URL", zap.String("url", urlStr), zap.Error(err))
			continue
		}
		clients = append(clients, &RPCClient{
			Client:  rpc.New(urlStr),
			URL:     urlStr,
			active:  true,
			metrics: &RPCMetrics{},
		})
	}
	if len(clients) == 0 {
		return nil, errors.New("no valid RPC URLs provided")
	}

	c := &Client{
		rpcClients: clients,
		logger:     logger.Named("solana_client"),
	}

	if err := c.validateConnections(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to validate connections: %w", err)
	}
	return c, nil
}

func (c *Client) testConnection(ctx context.Context, rpcClient *RPCClient) error {
	version, err := rpcClient.Client.GetVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to get version: %w", err)
	}

	if _, err = rpcClient.Client.GetLatestBlockhash(ctx, rpc.CommitmentFinalized); err != nil {
		return fmt.Errorf("failed to get latest blockhash: %w", err)
	}

	c.logger.Debug("Successfully connected to RPC",
		zap.String("url", rpcClient.URL),
		zap.String("solana_core", version.SolanaCore))
	return nil
}

func (c *Client) validateConnections(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var wg sync.WaitGroup
	errChan := make(chan error, len(c.rpcClients))

	for _, client := range c.rpcClients {
		wg.Add(1)
		go func(rpcClient *RPCClient) {
			defer wg.Done()

			var lastErr error
			for attempt := 0; attempt < maxRetries; attempt++ {
				start := time.Now()
				if err := c.testConnection(ctx, rpcClient); err != nil {
					lastErr = err
					rpcClient.updateMetrics(false, time.Since(start))
					time.Sleep(retryDelay)
					continue
				}
				rpcClient.updateMetrics(true, time.Since(start))
				return
			}
			if lastErr != nil {
				errChan <- fmt.Errorf("failed to connect to %s: %w", rpcClient.URL, lastErr)
				rpcClient.setActive(false)
			}
		}(client)
	}

	wg.Wait()
	close(errChan)

	if !c.hasActiveClients() {
		return errors.New("no active RPC connections available")
	}
	return nil
}

// GetRecentBlockhash returns the latest finalized blockhash.
func (c *Client) GetRecentBlockhash(ctx context.Context) (solana.Hash, error) {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		client := c.getNextClient()
		if client == nil {
			return solana.Hash{}, errors.New("no active RPC clients available")
		}

		start := time.Now()
		result, err := client.Client.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
		client.updateMetrics(err == nil, time.Since(start))

		if err != nil {
			lastErr = err
			client.setActive(false)
			continue
		}
		return result.Value.Blockhash, nil
	}
	return solana.Hash{}, fmt.Errorf("failed to get recent blockhash after %d attempts: %w", maxRetries, lastErr)
}

// SendTransaction submits a signed transaction.
func (c *Client) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		client := c.getNextClient()
		if client == nil {
			return solana.Signature{}, errors.New("no active RPC clients available")
		}

		start := time.Now()
		sig, err := client.Client.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
			SkipPreflight:       true,
			PreflightCommitment: rpc.CommitmentFinalized,
		})
		client.updateMetrics(err == nil, time.Since(start))

		if err != nil {
			lastErr = err
			client.setActive(false)
			continue
		}
		return sig, nil
	}
	return solana.Signature{}, fmt.Errorf("failed to send transaction after %d attempts: %w", maxRetries, lastErr)
}

// GetAccountInfo fetches raw account data at confirmed commitment.
func (c *Client) GetAccountInfo(ctx context.Context, pubkey solana.PublicKey) (*rpc.GetAccountInfoResult, error) {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		client := c.getNextClient()
		if client == nil {
			return nil, errors.New("no active RPC clients available")
		}

		start := time.Now()
		result, err := client.Client.GetAccountInfoWithOpts(ctx, pubkey, &rpc.GetAccountInfoOpts{
			Encoding:   solana.EncodingBase64,
			Commitment: rpc.CommitmentConfirmed,
		})
		client.updateMetrics(err == nil, time.Since(start))

		if err != nil {
			lastErr = err
			client.setActive(false)
			continue
		}
		return result, nil
	}
	return nil, fmt.Errorf("failed to get account info after %d attempts: %w", maxRetries, lastErr)
}

// GetTransaction fetches a confirmed transaction record by signature.
func (c *Client) GetTransaction(ctx context.Context, signature solana.Signature) (*rpc.GetTransactionResult, error) {
	maxVersion := uint64(0)

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		client := c.getNextClient()
		if client == nil {
			return nil, errors.New("no active RPC clients available")
		}

		start := time.Now()
		result, err := client.Client.GetTransaction(ctx, signature, &rpc.GetTransactionOpts{
			Encoding:                       solana.EncodingBase64,
			Commitment:                     rpc.CommitmentConfirmed,
			MaxSupportedTransactionVersion: &maxVersion,
		})
		client.updateMetrics(err == nil, time.Since(start))

		if err != nil {
			lastErr = err
			continue
		}
		return result, nil
	}
	return nil, fmt.Errorf("failed to get transaction after %d attempts: %w", maxRetries, lastErr)
}

// GetTokenAccountBalance returns the raw token balance of an account in the
// mint's smallest units.
func (c *Client) GetTokenAccountBalance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	client := c.getNextClient()
	if client == nil {
		return 0, errors.New("no active RPC clients available")
	}

	start := time.Now()
	result, err := client.Client.GetTokenAccountBalance(ctx, account, rpc.CommitmentConfirmed)
	client.updateMetrics(err == nil, time.Since(start))
	if err != nil {
		return 0, fmt.Errorf("failed to get token account balance: %w", err)
	}
	if result == nil || result.Value == nil {
		return 0, errors.New("empty token account balance result")
	}

	amount, err := strconv.ParseUint(result.Value.Amount, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse token balance %q: %w", result.Value.Amount, err)
	}
	return amount, nil
}

// GetMint fetches and decodes an SPL token mint account.
func (c *Client) GetMint(ctx context.Context, mint solana.PublicKey) (*MintInfo, error) {
	acc, err := c.GetAccountInfo(ctx, mint)
	if err != nil {
		return nil, err
	}
	if acc == nil || acc.Value == nil {
		return nil, fmt.Errorf("mint account not found: %s", mint.String())
	}

	data := acc.Value.Data.GetBinary()
	var decoded token.Mint
	if err := bin.NewBinDecoder(data).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode mint account %s: %w", mint.String(), err)
	}
	if !decoded.IsInitialized {
		return nil, fmt.Errorf("mint account %s is not initialized", mint.String())
	}

	return &MintInfo{
		MintAuthority:   decoded.MintAuthority,
		FreezeAuthority: decoded.FreezeAuthority,
		Supply:          decoded.Supply,
		Decimals:        decoded.Decimals,
	}, nil
}
