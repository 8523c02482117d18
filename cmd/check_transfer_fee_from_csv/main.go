package main

import (
	"context"
	"fmt"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/gocarina/gocsv"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/KyberNetwork/fee-token-harness/pkg/feecheck"
	"github.com/KyberNetwork/fee-token-harness/pkg/feetoken"
	"github.com/KyberNetwork/fee-token-harness/pkg/feetoken/abis"
	"github.com/KyberNetwork/fee-token-harness/pkg/types"
)

var logger *zap.SugaredLogger

func main() {
	l, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer l.Sync() // flushes buffer, if any
	logger = l.Sugar()

	app := &cli.App{
		Name:  "check_transfer_fee_from_csv",
		Usage: "replay fee token transfers and compare the amounts moved with the quoted fee",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "rpc",
				Usage:   "node json-rpc endpoint with the debug namespace enabled",
				Value:   "http://localhost:8545",
				EnvVars: []string{"RPC_URL"},
			},
			&cli.StringFlag{
				Name:  "calls",
				Usage: "csv file of transfer calls, see types.TransferCall",
			},
			&cli.StringFlag{
				Name:  "txs",
				Usage: "csv file with a tx_hash column; every transfer inside these txs is replayed",
			},
			&cli.StringFlag{
				Name:  "output",
				Usage: "result csv file",
				Value: "transfer_fee_check.csv",
			},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		logger.Fatalw("check_transfer_fee_from_csv failed", "error", err)
	}
}

func run(c *cli.Context) error {
	if c.String("calls") == "" && c.String("txs") == "" {
		return fmt.Errorf("one of --calls or --txs is required")
	}

	rpcClient, err := rpc.DialContext(c.Context, c.String("rpc"))
	if err != nil {
		return fmt.Errorf("could not dial %s: %w", c.String("rpc"), err)
	}
	defer rpcClient.Close()
	checker := feecheck.NewChecker(rpcClient)

	var scenarios []*feecheck.Scenario
	if path := c.String("calls"); path != "" {
		var calls []*types.TransferCall
		if err := unmarshalFile(path, &calls); err != nil {
			return err
		}
		for i, call := range calls {
			s, err := scenarioFromCall(call)
			if err != nil {
				return fmt.Errorf("%s row %d: %w", path, i+1, err)
			}
			scenarios = append(scenarios, s)
		}
	}
	if path := c.String("txs"); path != "" {
		var txs []*types.TransferTx
		if err := unmarshalFile(path, &txs); err != nil {
			return err
		}
		for i, tx := range txs {
			fromTx, err := checker.ScenariosFromTransaction(c.Context, tx.TxHash)
			if err != nil {
				logger.Warnw("could not extract transfers", "tx", tx.TxHash, "error", err)
				continue
			}
			scenarios = append(scenarios, fromTx...)
			logger.Infow("traced tx call frames", "done", i+1, "total", len(txs))
		}
	}
	logger.Infow("loaded scenarios", "count", len(scenarios))

	records := checkAll(c.Context, checker, newTokenCache(ethclient.NewClient(rpcClient)), scenarios)

	out, err := os.Create(c.String("output"))
	if err != nil {
		return err
	}
	defer out.Close()
	return gocsv.MarshalFile(&records, out)
}

func unmarshalFile(path string, out interface{}) error {
	in, err := os.Open(path)
	if err != nil {
		return err
	}
	defer in.Close()
	if err := gocsv.UnmarshalFile(in, out); err != nil {
		return fmt.Errorf("could not read %s: %w", path, err)
	}
	return nil
}

// scenarioFromCall replays the call on the block before the one it was mined
// in, to maximize the probability that the sender still has enough balance.
func scenarioFromCall(call *types.TransferCall) (*feecheck.Scenario, error) {
	s := &feecheck.Scenario{
		MsgSender:      call.MsgSender,
		Token:          call.Token,
		IsTransferFrom: call.IsTransferFrom,
		From:           call.Sender,
		To:             call.Receiver,
		Amount:         call.Amount,
	}
	var err error
	if s.GasPrice, err = parseBig("gas_price", call.GasPrice); err != nil {
		return nil, err
	}
	if s.GasFeeCap, err = parseBig("max_fee_per_gas", call.MaxFeePerGas); err != nil {
		return nil, err
	}
	if s.GasTipCap, err = parseBig("max_priority_fee_per_gas", call.MaxPriorityFeePerGas); err != nil {
		return nil, err
	}
	if call.BlockNumber != "" {
		blockNumber, ok := new(big.Int).SetString(call.BlockNumber, 0)
		if !ok || blockNumber.Sign() <= 0 {
			return nil, fmt.Errorf("invalid block number %q", call.BlockNumber)
		}
		s.BlockNumber = hexutil.EncodeBig(blockNumber.Sub(blockNumber, big.NewInt(1)))
	}
	return s, nil
}

// parseBig parses a decimal or 0x prefixed column, empty means unset.
func parseBig(column, s string) (*big.Int, error) {
	if s == "" {
		return nil, nil
	}
	v, ok := new(big.Int).SetString(s, 0)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("invalid %s %q", column, s)
	}
	return v, nil
}

// tokenCache binds one FeeToken per token address.
type tokenCache struct {
	backend feetoken.Backend
	miner   feetoken.Miner
	tokens  map[common.Address]*feetoken.FeeToken
}

func newTokenCache(backend feetoken.Backend) *tokenCache {
	return &tokenCache{
		backend: backend,
		miner:   feetoken.NewTxMiner(backend),
		tokens:  make(map[common.Address]*feetoken.FeeToken),
	}
}

func (c *tokenCache) get(address common.Address) (*feetoken.FeeToken, error) {
	if token, ok := c.tokens[address]; ok {
		return token, nil
	}
	token, err := feetoken.NewFeeToken(feetoken.NewContract(address, abis.FeeToken, c.backend), address.Hex(), c.miner)
	if err != nil {
		return nil, err
	}
	c.tokens[address] = token
	return token, nil
}

// checkAll checks every scenario against the token it transfers. A failed
// check is recorded with its error and does not stop the others.
func checkAll(ctx context.Context, checker *feecheck.Checker, tokens *tokenCache, scenarios []*feecheck.Scenario) []*types.TransferCheckRecord {
	records := make([]*types.TransferCheckRecord, 0, len(scenarios))
	for i, s := range scenarios {
		record := &types.TransferCheckRecord{
			Token:       s.Token,
			Payer:       s.Payer(),
			Receiver:    s.To,
			Amount:      s.Amount,
			BlockNumber: s.BlockNumber,
		}
		records = append(records, record)

		token, err := tokens.get(s.Token)
		if err != nil {
			record.Error = err.Error()
			continue
		}

		report, err := checker.Check(ctx, func(blockNumber *big.Int) feecheck.FeeQuoter {
			return token.At(blockNumber)
		}, s)
		if err != nil {
			logger.Warnw("could not check scenario", "scenario", i+1, "token", s.Token, "error", err)
			record.Error = err.Error()
			continue
		}
		record.BlockNumber = report.BlockNumber
		record.SenderDebit = report.SenderDebit
		record.ExpectedDebit = report.ExpectedDebit
		record.ReceiverCredit = report.ReceiverCredit
		record.FeePoolCredit = report.FeePoolCredit
		record.ExpectedFee = report.ExpectedFee
		record.Match = report.Match()
	}
	return records
}
