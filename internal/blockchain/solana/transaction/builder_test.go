package transaction

import (
	"context"
	"testing"

	"github.com/gagliardetto/solana-go"
	computebudget "github.com/gagliardetto/solana-go/programs/compute-budget"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct{}

func (fakeClient) GetRecentBlockhash(context.Context) (solana.Hash, error) {
	return solana.Hash{}, nil
}

func TestBuilder_Build(t *testing.T) {
	payer := solana.NewWallet()
	recipient := solana.NewWallet().PublicKey()

	tx, err := NewBuilder().
		AddInstruction(system.NewTransferInstruction(1_000_000, payer.PublicKey(), recipient).Build()).
		AddSigner(payer.PrivateKey).
		Build(context.Background(), fakeClient{})
	require.NoError(t, err)

	assert.Len(t, tx.Message.Instructions, 1)
	assert.NoError(t, tx.VerifySignatures())
	assert.Equal(t, payer.PublicKey(), tx.Message.AccountKeys[0])
}

func TestBuilder_ComputeBudgetPrepended(t *testing.T) {
	payer := solana.NewWallet()
	recipient := solana.NewWallet().PublicKey()

	tx, err := NewBuilder().
		SetComputeBudget(200_000, 0.000005).
		AddInstruction(system.NewTransferInstruction(1, payer.PublicKey(), recipient).Build()).
		AddSigner(payer.PrivateKey).
		Build(context.Background(), fakeClient{})
	require.NoError(t, err)

	// limit + price + transfer
	require.Len(t, tx.Message.Instructions, 3)

	program, err := tx.Message.Program(tx.Message.Instructions[0].ProgramIDIndex)
	require.NoError(t, err)
	assert.Equal(t, computebudget.ProgramID, program)
}

func TestBuilder_RequiresSignerAndInstruction(t *testing.T) {
	payer := solana.NewWallet()

	_, err := NewBuilder().AddSigner(payer.PrivateKey).Build(context.Background(), fakeClient{})
	assert.Error(t, err)

	_, err = NewBuilder().
		AddInstruction(system.NewTransferInstruction(1, payer.PublicKey(), payer.PublicKey()).Build()).
		Build(context.Background(), fakeClient{})
	assert.Error(t, err)
}
