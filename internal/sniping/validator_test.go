package sniping

import (
	"context"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	solanabc "github.com/rovshanmuradov/solana-sniper/internal/blockchain/solana"
)

type fakeMintInspector struct {
	info *solanabc.MintInfo
	err  error
}

func (f *fakeMintInspector) GetMint(context.Context, solana.PublicKey) (*solanabc.MintInfo, error) {
	return f.info, f.err
}

type fakePriceSource struct {
	price        float64
	priceErr     error
	liquidity    float64
	liquidityErr error
}

func (f *fakePriceSource) GetPrice(context.Context, string) (float64, error) {
	return f.price, f.priceErr
}

func (f *fakePriceSource) GetLiquidity(context.Context, string) (float64, error) {
	return f.liquidity, f.liquidityErr
}

var testMint = solana.NewWallet().PublicKey().String()

func defaultCriteria() Criteria {
	return Criteria{
		CheckMintAuthority:   true,
		CheckFreezeAuthority: true,
		MaxDecimals:          9,
		MinLiquidity:         50,
	}
}

func TestValidate(t *testing.T) {
	authority := solana.NewWallet().PublicKey()

	testCases := []struct {
		name     string
		criteria Criteria
		chain    *fakeMintInspector
		market   *fakePriceSource
		want     bool
	}{
		{
			name:     "clean token accepted",
			criteria: defaultCriteria(),
			chain:    &fakeMintInspector{info: &solanabc.MintInfo{Decimals: 6}},
			market:   &fakePriceSource{liquidity: 100},
			want:     true,
		},
		{
			name:     "active mint authority rejected",
			criteria: defaultCriteria(),
			chain:    &fakeMintInspector{info: &solanabc.MintInfo{MintAuthority: &authority, Decimals: 6}},
			market:   &fakePriceSource{liquidity: 100},
			want:     false,
		},
		{
			name:     "mineable toggle also rejects mint authority",
			criteria: Criteria{CheckMineable: true, MaxDecimals: 9, MinLiquidity: 50},
			chain:    &fakeMintInspector{info: &solanabc.MintInfo{MintAuthority: &authority, Decimals: 6}},
			market:   &fakePriceSource{liquidity: 100},
			want:     false,
		},
		{
			name:     "mint authority tolerated when checks disabled",
			criteria: Criteria{MaxDecimals: 9, MinLiquidity: 50},
			chain:    &fakeMintInspector{info: &solanabc.MintInfo{MintAuthority: &authority, Decimals: 6}},
			market:   &fakePriceSource{liquidity: 100},
			want:     true,
		},
		{
			name:     "active freeze authority rejected",
			criteria: defaultCriteria(),
			chain:    &fakeMintInspector{info: &solanabc.MintInfo{FreezeAuthority: &authority, Decimals: 6}},
			market:   &fakePriceSource{liquidity: 100},
			want:     false,
		},
		{
			name:     "too many decimals rejected",
			criteria: Criteria{MaxDecimals: 6, MinLiquidity: 50},
			chain:    &fakeMintInspector{info: &solanabc.MintInfo{Decimals: 9}},
			market:   &fakePriceSource{liquidity: 100},
			want:     false,
		},
		{
			name:     "liquidity below threshold rejected",
			criteria: defaultCriteria(),
			chain:    &fakeMintInspector{info: &solanabc.MintInfo{Decimals: 6}},
			market:   &fakePriceSource{liquidity: 49.9},
			want:     false,
		},
		{
			name:     "mint lookup failure fails closed",
			criteria: defaultCriteria(),
			chain:    &fakeMintInspector{err: errors.New("rpc timeout")},
			market:   &fakePriceSource{liquidity: 100},
			want:     false,
		},
		{
			name:     "liquidity lookup failure fails closed",
			criteria: defaultCriteria(),
			chain:    &fakeMintInspector{info: &solanabc.MintInfo{Decimals: 6}},
			market:   &fakePriceSource{liquidityErr: errors.New("api down")},
			want:     false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v := NewValidator(tc.chain, tc.market, tc.criteria, zap.NewNop())
			assert.Equal(t, tc.want, v.Validate(context.Background(), testMint))
		})
	}
}

func TestValidate_InvalidMintAddress(t *testing.T) {
	v := NewValidator(
		&fakeMintInspector{info: &solanabc.MintInfo{Decimals: 6}},
		&fakePriceSource{liquidity: 100},
		defaultCriteria(),
		zap.NewNop(),
	)
	assert.False(t, v.Validate(context.Background(), "not-a-pubkey"))
}
