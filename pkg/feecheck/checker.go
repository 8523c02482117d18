// Package feecheck verifies on a live node that a fee token moves exactly the
// amounts its fee functions quote.
package feecheck

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"

	"github.com/KyberNetwork/fee-token-harness/pkg/feecheck/jsonrpc"
	"github.com/KyberNetwork/fee-token-harness/pkg/feetoken/abis"
)

var logger *zap.SugaredLogger

func init() {
	l, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	logger = l.Sugar()
}

// very large balance, so the simulated sender can always pay for gas
var senderBalance = (*hexutil.Big)(hexutil.MustDecodeBig("0xffffffffffffffffffffffffffffffff"))

// FeeQuoter is the part of a fee token the checker compares against.
type FeeQuoter interface {
	TransferFeeIncurred(ctx context.Context, value *big.Int) (*big.Int, error)
	TransferPlusFee(ctx context.Context, value *big.Int) (*big.Int, error)
}

// QuoterAt returns the quotes of a token as of blockNumber, so a transfer
// replayed on a past block is compared with the fee rate of that block.
type QuoterAt func(blockNumber *big.Int) FeeQuoter

type Scenario struct {
	// transfer() tx sender, might be wallet or contract
	MsgSender common.Address `json:"msgSender"`
	// fee token contract address
	Token common.Address `json:"token"`
	// If true, call transferFrom(), otherwise, call transfer()
	IsTransferFrom bool `json:"isTransferFrom"`
	// If IsTransferFrom, From is transferFrom() from address
	From common.Address `json:"from"`
	// transferFrom() or transfer() to address
	To common.Address `json:"to"`
	// transferFrom() or transfer() transfer amount
	Amount *big.Int `json:"amount"`
	// block number to call/trace on, latest if empty
	BlockNumber string `json:"blockNumber"`
	// Gas for tracing call
	GasPrice  *big.Int `json:"gasPrice"`
	GasFeeCap *big.Int `json:"gasFeeCap"`
	GasTipCap *big.Int `json:"gasTipCap"`
}

// Payer is the account whose balance a successful transfer debits.
func (s *Scenario) Payer() common.Address {
	if s.IsTransferFrom {
		return s.From
	}
	return s.MsgSender
}

// Report holds the balance changes observed when simulating a scenario next to
// the amounts the token quoted for it.
type Report struct {
	Scenario       *Scenario
	BlockNumber    string
	SenderDebit    *big.Int
	ReceiverCredit *big.Int
	FeePoolCredit  *big.Int
	ExpectedFee    *big.Int
	ExpectedDebit  *big.Int
}

// Match reports whether the payer paid amount plus fee, the receiver got the
// amount and the fee landed in the pool.
func (r *Report) Match() bool {
	return r.SenderDebit.Cmp(r.ExpectedDebit) == 0 &&
		r.ReceiverCredit.Cmp(r.Scenario.Amount) == 0 &&
		r.FeePoolCredit.Cmp(r.ExpectedFee) == 0
}

type Checker struct {
	client    *rpc.Client
	ethClient *ethclient.Client
}

func NewChecker(rpcClient *rpc.Client) *Checker {
	return &Checker{
		client:    rpcClient,
		ethClient: ethclient.NewClient(rpcClient),
	}
}

// Check traces the scenario's transfer and measures the balances it changes.
// The fee pool is the token contract's own balance.
func (c *Checker) Check(ctx context.Context, quoterAt QuoterAt, scenario *Scenario) (*Report, error) {
	/*
		Step 0: If not specific block number, get the latest block number to make the following step consistent.
	*/
	var (
		blockNumber    uint64
		blockNumberHex string
		err            error
	)
	if scenario.BlockNumber != "" {
		blockNumberHex = scenario.BlockNumber
		blockNumber, err = hexutil.DecodeUint64(blockNumberHex)
		if err != nil {
			return nil, err
		}
	} else {
		blockNumber, err = c.ethClient.BlockNumber(ctx)
		if err != nil {
			return nil, fmt.Errorf("could not get block number: %w", err)
		}
		blockNumberHex = hexutil.EncodeUint64(blockNumber)
	}

	/*
		Step 1: Trace a transfer(to, amount) (or transferFrom(from, to, amount)) and extract the post state.
	*/
	var transferData []byte
	if scenario.IsTransferFrom {
		transferData, err = abis.ExternStateToken.Pack("transferFrom", scenario.From, scenario.To, scenario.Amount)
	} else {
		transferData, err = abis.ExternStateToken.Pack("transfer", scenario.To, scenario.Amount)
	}
	if err != nil {
		return nil, err
	}

	// make sure the transfer succeeds
	success, err := c.ethClient.CallContract(
		ctx,
		ethereum.CallMsg{
			From: scenario.MsgSender,
			To:   &scenario.Token,
			Data: transferData,
		},
		new(big.Int).SetUint64(blockNumber),
	)
	if err != nil {
		return nil, fmt.Errorf("could not eth_call: %w", err)
	}
	if new(big.Int).SetBytes(success).Cmp(big.NewInt(1)) != 0 {
		return nil, fmt.Errorf("transfer not success")
	}

	gasPrice, maxFeePerGas, maxPriorityFeePerGas := tracingGas(scenario)
	traceResult := new(jsonrpc.PrestateTracerResult)
	err = jsonrpc.DebugTraceCall(
		ctx,
		c.client,
		&jsonrpc.DebugTraceCallCalldataParam{
			From:                 scenario.MsgSender.String(),
			GasPrice:             gasPrice,
			MaxFeePerGas:         maxFeePerGas,
			MaxPriorityFeePerGas: maxPriorityFeePerGas,
			To:                   scenario.Token.String(),
			Data:                 hexutil.Encode(transferData),
		},
		blockNumberHex,
		&jsonrpc.DebugTraceCallTracerConfigParam{
			// we are using the builtin prestateTracer in go-ethereum
			// https://github.com/ethereum/go-ethereum/blob/master/eth/tracers/native/prestate.go
			Tracer:       "prestateTracer",
			TracerConfig: jsonrpc.TransferTracerConfigEncoded,
			StateOverrides: jsonrpc.StateOverride{
				scenario.MsgSender: {Balance: senderBalance},
			},
		},
		traceResult,
	)
	if err != nil {
		return nil, fmt.Errorf("could not debug_traceCall a transfer tx: %w", err)
	}
	transferStateDiff := jsonrpc.PostStateOverride(traceResult)

	/*
		Step 2: Read payer, receiver and fee pool balances with and without the post state.
	*/
	report := &Report{
		Scenario:    scenario,
		BlockNumber: blockNumberHex,
	}
	payerBefore, payerAfter, err := c.balanceChange(ctx, scenario, scenario.Payer(), blockNumberHex, transferStateDiff)
	if err != nil {
		return nil, err
	}
	report.SenderDebit = new(big.Int).Sub(payerBefore, payerAfter)

	receiverBefore, receiverAfter, err := c.balanceChange(ctx, scenario, scenario.To, blockNumberHex, transferStateDiff)
	if err != nil {
		return nil, err
	}
	report.ReceiverCredit = new(big.Int).Sub(receiverAfter, receiverBefore)

	poolBefore, poolAfter, err := c.balanceChange(ctx, scenario, scenario.Token, blockNumberHex, transferStateDiff)
	if err != nil {
		return nil, err
	}
	report.FeePoolCredit = new(big.Int).Sub(poolAfter, poolBefore)

	/*
		Step 3: Ask the token what it should have charged on the same block.
	*/
	quoter := quoterAt(new(big.Int).SetUint64(blockNumber))
	if report.ExpectedFee, err = quoter.TransferFeeIncurred(ctx, scenario.Amount); err != nil {
		return nil, fmt.Errorf("could not get transferFeeIncurred: %w", err)
	}
	if report.ExpectedDebit, err = quoter.TransferPlusFee(ctx, scenario.Amount); err != nil {
		return nil, fmt.Errorf("could not get transferPlusFee: %w", err)
	}

	logger.Infow("checked transfer fee",
		"token", scenario.Token,
		"amount", scenario.Amount,
		"senderDebit", report.SenderDebit,
		"expectedDebit", report.ExpectedDebit,
		"receiverCredit", report.ReceiverCredit,
		"feePoolCredit", report.FeePoolCredit,
		"expectedFee", report.ExpectedFee,
		"match", report.Match(),
	)
	return report, nil
}

// balanceChange calls balanceOf(account) once on the block state and once with
// the traced post state applied.
func (c *Checker) balanceChange(ctx context.Context, scenario *Scenario, account common.Address, blockNumberHex string, postState jsonrpc.StateOverride) (*big.Int, *big.Int, error) {
	balanceOfData, err := abis.ExternStateToken.Pack("balanceOf", account)
	if err != nil {
		return nil, nil, err
	}
	calldata := &jsonrpc.EthCallCalldataParam{
		From: scenario.MsgSender.String(),
		To:   scenario.Token.String(),
		Data: hexutil.Encode(balanceOfData),
	}

	beforeResult, err := jsonrpc.EthCall(ctx, c.client, calldata, blockNumberHex, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("could not eth_call balanceOf(%s) before transfer: %w", account, err)
	}
	before, err := decodeUint(*beforeResult)
	if err != nil {
		return nil, nil, err
	}

	afterResult, err := jsonrpc.EthCall(ctx, c.client, calldata, blockNumberHex, postState)
	if err != nil {
		return nil, nil, fmt.Errorf("could not eth_call balanceOf(%s) after transfer: %w", account, err)
	}
	after, err := decodeUint(*afterResult)
	if err != nil {
		return nil, nil, err
	}
	return before, after, nil
}

func decodeUint(resultHex string) (*big.Int, error) {
	decoded, err := hexutil.Decode(resultHex)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(decoded), nil
}

// some tracing fails if we don't specify maxFeePerGas and maxPriorityFeePerGas
func tracingGas(scenario *Scenario) (gasPrice, maxFeePerGas, maxPriorityFeePerGas string) {
	if scenario.GasFeeCap != nil && scenario.GasFeeCap.Sign() != 0 {
		c := new(big.Int).Mul(scenario.GasFeeCap, big.NewInt(150))
		c = c.Div(c, big.NewInt(100))
		maxFeePerGas = hexutil.EncodeBig(c)

		if scenario.GasTipCap != nil {
			c := new(big.Int).Mul(scenario.GasTipCap, big.NewInt(150))
			c = c.Div(c, big.NewInt(100))
			maxPriorityFeePerGas = hexutil.EncodeBig(c)
		}
		return
	}
	if scenario.GasPrice != nil {
		gasPrice = hexutil.EncodeBig(scenario.GasPrice)
	}
	return
}
