package feecheck

import (
	"bytes"
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/KyberNetwork/fee-token-harness/pkg/feecheck/jsonrpc"
	"github.com/KyberNetwork/fee-token-harness/pkg/feetoken/abis"
)

var (
	transferMethodABI     = abis.ExternStateToken.Methods["transfer"]
	transferFromMethodABI = abis.ExternStateToken.Methods["transferFrom"]
)

// TraceCallFrames returns the call tree of a mined transaction using the
// builtin callTracer.
func (c *Checker) TraceCallFrames(ctx context.Context, txHash common.Hash) (*jsonrpc.CallFrame, error) {
	result := new(jsonrpc.CallFrame)
	err := jsonrpc.DebugTraceTransaction(
		ctx,
		c.client,
		txHash,
		&jsonrpc.DebugTraceCallTracerConfigParam{
			Tracer: "callTracer",
		},
		result,
	)
	if err != nil {
		return nil, fmt.Errorf("could not debug_traceTransaction %s: %w", txHash, err)
	}
	return result, nil
}

// ScenariosFromTransaction traces a mined transaction and replays each
// successful transfer()/transferFrom() it made, on the block before it.
func (c *Checker) ScenariosFromTransaction(ctx context.Context, txHash common.Hash) ([]*Scenario, error) {
	tx, _, err := c.ethClient.TransactionByHash(ctx, txHash)
	if err != nil {
		return nil, fmt.Errorf("could not get transaction %s: %w", txHash, err)
	}
	receipt, err := c.ethClient.TransactionReceipt(ctx, txHash)
	if err != nil {
		return nil, fmt.Errorf("could not get receipt of %s: %w", txHash, err)
	}
	frame, err := c.TraceCallFrames(ctx, txHash)
	if err != nil {
		return nil, err
	}
	return ExtractScenarios(frame, tx, receipt), nil
}

// ExtractScenarios collects the successful transfer()/transferFrom() calls of
// a call tree. The simulation block is set to the previous block of the block
// where the tx is executed to maximize the probability that sender has enough amount.
func ExtractScenarios(call *jsonrpc.CallFrame, tx *types.Transaction, receipt *types.Receipt) []*Scenario {
	var (
		scenarios      []*Scenario
		blockNumberHex = hexutil.EncodeBig(new(big.Int).Sub(receipt.BlockNumber, big.NewInt(1)))
	)
	iterateCallFrames(call, func(c *jsonrpc.CallFrame) {
		if c.To == nil || c.Error != "" {
			return
		}
		var (
			isTransferFrom bool
			method         = transferMethodABI
		)
		switch {
		case bytes.HasPrefix(c.Input, transferMethodABI.ID):
		case bytes.HasPrefix(c.Input, transferFromMethodABI.ID):
			isTransferFrom = true
			method = transferFromMethodABI
		default:
			return
		}
		if new(big.Int).SetBytes(c.Output).Cmp(big.NewInt(1)) != 0 {
			logger.Debugw("skipped transfer returning false", "method", method.Name, "token", c.To)
			return
		}
		params, err := method.Inputs.Unpack(c.Input[4:])
		if err != nil {
			logger.Warnw("could not unpack transfer params", "method", method.Name, "error", err)
			return
		}
		s := &Scenario{
			MsgSender:      c.From,
			Token:          *c.To,
			IsTransferFrom: isTransferFrom,
			BlockNumber:    blockNumberHex,
			GasPrice:       tx.GasPrice(),
			GasFeeCap:      tx.GasFeeCap(),
			GasTipCap:      tx.GasTipCap(),
		}
		if isTransferFrom {
			s.From, s.To, s.Amount = params[0].(common.Address), params[1].(common.Address), params[2].(*big.Int)
		} else {
			s.To, s.Amount = params[0].(common.Address), params[1].(*big.Int)
		}
		scenarios = append(scenarios, s)
	})
	return scenarios
}

func iterateCallFrames(call *jsonrpc.CallFrame, callback func(*jsonrpc.CallFrame)) {
	callback(call)
	for i := range call.Calls {
		iterateCallFrames(&call.Calls[i], callback)
	}
}
