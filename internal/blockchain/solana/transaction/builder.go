// internal/blockchain/solana/transaction/builder.go
package transaction

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	computebudget "github.com/gagliardetto/solana-go/programs/compute-budget"
)

// SolanaClient is the slice of the RPC client the builder needs.
type SolanaClient interface {
	GetRecentBlockhash(ctx context.Context) (solana.Hash, error)
}

// Builder assembles, prices and signs a transaction.
type Builder struct {
	instructions []solana.Instruction
	signers      []solana.PrivateKey
	computeUnits uint32
	priorityFee  float64 // SOL
}

func NewBuilder() *Builder {
	return &Builder{}
}

// SetComputeBudget sets the compute unit limit and priority fee (in SOL)
// prepended to the transaction.
func (b *Builder) SetComputeBudget(units uint32, priorityFeeSol float64) *Builder {
	b.computeUnits = units
	b.priorityFee = priorityFeeSol
	return b
}

func (b *Builder) AddInstruction(instruction solana.Instruction) *Builder {
	b.instructions = append(b.instructions, instruction)
	return b
}

func (b *Builder) AddSigner(signer solana.PrivateKey) *Builder {
	b.signers = append(b.signers, signer)
	return b
}

// Build fetches a fresh blockhash, assembles the instruction list and signs.
// The first signer pays fees.
func (b *Builder) Build(ctx context.Context, client SolanaClient) (*solana.Transaction, error) {
	if len(b.signers) == 0 {
		return nil, fmt.Errorf("no signers provided")
	}
	if len(b.instructions) == 0 {
		return nil, fmt.Errorf("no instructions provided")
	}

	blockhash, err := client.GetRecentBlockhash(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent blockhash: %w", err)
	}

	budgetInstructions := b.priorityInstructions()
	instructions := make([]solana.Instruction, 0, len(budgetInstructions)+len(b.instructions))
	instructions = append(instructions, budgetInstructions...)
	instructions = append(instructions, b.instructions...)

	tx, err := solana.NewTransaction(
		instructions,
		blockhash,
		solana.TransactionPayer(b.signers[0].PublicKey()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		for _, signer := range b.signers {
			if signer.PublicKey().Equals(key) {
				privateCopy := signer
				return &privateCopy
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}
	return tx, nil
}

func (b *Builder) priorityInstructions() []solana.Instruction {
	var instructions []solana.Instruction
	if b.computeUnits > 0 {
		instructions = append(instructions,
			computebudget.NewSetComputeUnitLimitInstruction(b.computeUnits).Build())
	}
	if b.priorityFee > 0 {
		feeLamports := uint64(b.priorityFee * float64(solana.LAMPORTS_PER_SOL))
		if feeLamports > 0 {
			instructions = append(instructions,
				computebudget.NewSetComputeUnitPriceInstruction(feeLamports).Build())
		}
	}
	return instructions
}
