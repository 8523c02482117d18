package feetoken

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

const DefaultMineTimeout = 2 * time.Minute

// MinedTx is a mined transaction receipt labeled with the operation that sent it.
type MinedTx struct {
	*types.Receipt
	Transaction *types.Transaction
	Operation   string
	Contract    string
}

// TxMiner polls the backend for the receipt of a sent transaction.
type TxMiner struct {
	backend bind.DeployBackend
	timeout time.Duration
	logger  *zap.SugaredLogger
}

type MinerOption func(*TxMiner)

// WithMineTimeout bounds how long MineTx waits for a receipt. Zero means only
// the caller's context bounds it.
func WithMineTimeout(timeout time.Duration) MinerOption {
	return func(m *TxMiner) {
		m.timeout = timeout
	}
}

func WithMinerLogger(l *zap.SugaredLogger) MinerOption {
	return func(m *TxMiner) {
		m.logger = l
	}
}

func NewTxMiner(backend bind.DeployBackend, opts ...MinerOption) *TxMiner {
	m := &TxMiner{
		backend: backend,
		timeout: DefaultMineTimeout,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// MineTx blocks until tx is mined. A receipt with a failed status is reported as
// a ContractCallError wrapping ErrTransactionReverted.
func (m *TxMiner) MineTx(ctx context.Context, tx *types.Transaction, operation, contractName string) (*MinedTx, error) {
	bound := m.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); bound <= 0 || remaining < bound {
			bound = remaining.Round(time.Millisecond)
		}
	}
	waitCtx := ctx
	if m.timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	receipt, err := bind.WaitMined(waitCtx, m.backend, tx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			m.logger.Warnw("transaction not mined in time",
				"contract", contractName, "operation", operation, "tx", tx.Hash(), "timeout", bound)
			return nil, &TransactionTimeoutError{
				Contract:  contractName,
				Operation: operation,
				TxHash:    tx.Hash(),
				Timeout:   bound,
				Err:       err,
			}
		}
		return nil, newContractCallError(contractName, operation, err)
	}

	m.logger.Infow("mined transaction",
		"contract", contractName,
		"operation", operation,
		"tx", tx.Hash(),
		"block", receipt.BlockNumber,
		"gasUsed", receipt.GasUsed,
		"status", receipt.Status,
	)
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, &ContractCallError{
			Contract:  contractName,
			Operation: operation,
			Err:       ErrTransactionReverted,
		}
	}

	return &MinedTx{
		Receipt:     receipt,
		Transaction: tx,
		Operation:   operation,
		Contract:    contractName,
	}, nil
}
