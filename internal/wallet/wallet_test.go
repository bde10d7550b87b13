package wallet

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	generated := solana.NewWallet()

	w, err := New(generated.PrivateKey.String())
	require.NoError(t, err)
	assert.Equal(t, generated.PublicKey(), w.PublicKey)
}

func TestNew_InvalidKey(t *testing.T) {
	_, err := New("not-base58-!!!")
	assert.Error(t, err)

	// Valid base58 but wrong length.
	_, err = New("3yZe7d")
	assert.Error(t, err)
}

func TestSignTransaction(t *testing.T) {
	generated := solana.NewWallet()
	w, err := New(generated.PrivateKey.String())
	require.NoError(t, err)

	recipient := solana.NewWallet().PublicKey()
	tx, err := solana.NewTransaction(
		[]solana.Instruction{
			solana.NewInstruction(
				solana.SystemProgramID,
				[]*solana.AccountMeta{
					{PublicKey: w.PublicKey, IsWritable: true, IsSigner: true},
					{PublicKey: recipient, IsWritable: true, IsSigner: false},
				},
				[]byte{2, 0, 0, 0},
			),
		},
		solana.Hash{},
		solana.TransactionPayer(w.PublicKey),
	)
	require.NoError(t, err)

	require.NoError(t, w.SignTransaction(tx))
	assert.Len(t, tx.Signatures, 1)
	assert.NoError(t, tx.VerifySignatures())
}

func TestATA_Cached(t *testing.T) {
	w, err := New(solana.NewWallet().PrivateKey.String())
	require.NoError(t, err)

	mint := solana.NewWallet().PublicKey()

	first, err := w.ATA(mint)
	require.NoError(t, err)
	second, err := w.ATA(mint)
	require.NoError(t, err)

	assert.Equal(t, first, second)

	expected, _, err := solana.FindAssociatedTokenAddress(w.PublicKey, mint)
	require.NoError(t, err)
	assert.Equal(t, expected, first)
}

func TestATAFor_DistinctOwners(t *testing.T) {
	w, err := New(solana.NewWallet().PrivateKey.String())
	require.NoError(t, err)

	mint := solana.NewWallet().PublicKey()
	other := solana.NewWallet().PublicKey()

	own, err := w.ATA(mint)
	require.NoError(t, err)
	theirs, err := w.ATAFor(other, mint)
	require.NoError(t, err)

	assert.NotEqual(t, own, theirs)
}
