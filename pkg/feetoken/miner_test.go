package feetoken

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// receiptBackend answers every receipt lookup with the same result.
type receiptBackend struct {
	receipt *types.Receipt
	err     error
	lookups int
}

func (b *receiptBackend) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	b.lookups++
	if b.receipt == nil && b.err == nil {
		return nil, ethereum.NotFound
	}
	return b.receipt, b.err
}

func (b *receiptBackend) CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error) {
	return nil, nil
}

func testTx() *types.Transaction {
	to := common.HexToAddress("0x1111111111111111111111111111111111111111")
	return types.NewTx(&types.LegacyTx{Nonce: 7, To: &to, Gas: 21000, GasPrice: big.NewInt(1)})
}

func TestTxMiner_MineTx(t *testing.T) {
	tx := testTx()

	tests := []struct {
		name    string
		backend *receiptBackend
		wantErr assert.ErrorAssertionFunc
		check   func(t *testing.T, mined *MinedTx, err error)
	}{
		{
			name: "mined",
			backend: &receiptBackend{receipt: &types.Receipt{
				Status:      types.ReceiptStatusSuccessful,
				TxHash:      tx.Hash(),
				BlockNumber: big.NewInt(10),
				GasUsed:     30000,
			}},
			wantErr: assert.NoError,
			check: func(t *testing.T, mined *MinedTx, err error) {
				assert.Equal(t, "donateToFeePool", mined.Operation)
				assert.Equal(t, "FeeToken", mined.Contract)
				assert.Equal(t, tx, mined.Transaction)
				assert.Equal(t, uint64(30000), mined.GasUsed)
			},
		},
		{
			name: "reverted on chain",
			backend: &receiptBackend{receipt: &types.Receipt{
				Status:      types.ReceiptStatusFailed,
				TxHash:      tx.Hash(),
				BlockNumber: big.NewInt(10),
			}},
			wantErr: assert.Error,
			check: func(t *testing.T, mined *MinedTx, err error) {
				assert.Nil(t, mined)
				var callErr *ContractCallError
				require.ErrorAs(t, err, &callErr)
				assert.ErrorIs(t, err, ErrTransactionReverted)
				assert.Equal(t, "donateToFeePool", callErr.Operation)
			},
		},
		{
			name:    "never mined",
			backend: &receiptBackend{},
			wantErr: assert.Error,
			check: func(t *testing.T, mined *MinedTx, err error) {
				var timeoutErr *TransactionTimeoutError
				require.ErrorAs(t, err, &timeoutErr)
				assert.Equal(t, tx.Hash(), timeoutErr.TxHash)
				assert.Contains(t, err.Error(), "not mined within 20ms")
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewTxMiner(tt.backend, WithMineTimeout(20*time.Millisecond))
			mined, err := m.MineTx(context.Background(), tx, "donateToFeePool", "FeeToken")
			if !tt.wantErr(t, err) {
				return
			}
			tt.check(t, mined, err)
			assert.GreaterOrEqual(t, tt.backend.lookups, 1)
		})
	}
}

func TestTxMiner_CallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := NewTxMiner(&receiptBackend{}, WithMineTimeout(0))
	_, err := m.MineTx(ctx, testTx(), "setFeeAuthority", "FeeToken")

	var callErr *ContractCallError
	require.ErrorAs(t, err, &callErr)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestTxMiner_CallerDeadlineEarlierThanTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	m := NewTxMiner(&receiptBackend{}, WithMineTimeout(time.Minute))
	_, err := m.MineTx(ctx, testTx(), "withdrawFees", "FeeToken")

	var timeoutErr *TransactionTimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Greater(t, timeoutErr.Timeout, time.Duration(0))
	assert.LessOrEqual(t, timeoutErr.Timeout, 30*time.Millisecond)
	assert.NotContains(t, err.Error(), "1m0s")
}
