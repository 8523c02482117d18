package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/gocarina/gocsv"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/KyberNetwork/fee-token-harness/pkg/feeprofile"
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
		Name:  "fee_token_report",
		Usage: "read the fee pool, fee authority and fee rate of every token in a csv file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "rpc",
				Usage:   "node json-rpc endpoint",
				Value:   "http://localhost:8545",
				EnvVars: []string{"RPC_URL"},
			},
			&cli.StringFlag{
				Name:  "tokens",
				Usage: "csv file with token,name columns",
				Value: "fee_tokens.csv",
			},
			&cli.StringFlag{
				Name:  "output",
				Usage: "report csv file",
				Value: "fee_token_report.csv",
			},
			&cli.BoolFlag{
				Name:  "profile",
				Usage: "sample transferFeeIncurred and check its rounding",
				Value: true,
			},
			&cli.BoolFlag{
				Name:  "probe-code",
				Usage: "check that the deployed code dispatches every fee token method before reading it, fails on proxies",
			},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		logger.Fatalw("fee_token_report failed", "error", err)
	}
}

func run(c *cli.Context) error {
	in, err := os.Open(c.String("tokens"))
	if err != nil {
		return err
	}
	defer in.Close()

	var tokens []*types.TokenRecord
	if err := gocsv.UnmarshalFile(in, &tokens); err != nil {
		return fmt.Errorf("could not read tokens: %w", err)
	}
	logger.Infow("loaded tokens", "count", len(tokens))

	rpcClient, err := rpc.DialContext(c.Context, c.String("rpc"))
	if err != nil {
		return fmt.Errorf("could not dial %s: %w", c.String("rpc"), err)
	}
	defer rpcClient.Close()
	ethClient := ethclient.NewClient(rpcClient)
	miner := feetoken.NewTxMiner(ethClient)

	reports := make([]*types.TokenReport, 0, len(tokens))
	for _, t := range tokens {
		report := &types.TokenReport{Token: t.Token, Name: t.Name}
		opts := reportOptions{profile: c.Bool("profile"), probeCode: c.Bool("probe-code")}
		if err := fillReport(c.Context, report, ethClient, miner, opts); err != nil {
			logger.Warnw("could not read token", "token", t.Token, "name", t.Name, "error", err)
			report.Error = err.Error()
		}
		reports = append(reports, report)
	}

	out, err := os.Create(c.String("output"))
	if err != nil {
		return err
	}
	defer out.Close()
	return gocsv.MarshalFile(&reports, out)
}

type reportOptions struct {
	profile   bool
	probeCode bool
}

func fillReport(ctx context.Context, report *types.TokenReport, backend feetoken.Backend, miner feetoken.Miner, opts reportOptions) error {
	if opts.probeCode {
		if err := feetoken.ProbeCode(ctx, backend, report.Token, report.Name, abis.FeeToken); err != nil {
			return err
		}
	}
	contract := feetoken.NewContract(report.Token, abis.FeeToken, backend)
	token, err := feetoken.NewFeeToken(contract, report.Name, miner)
	if err != nil {
		return err
	}

	if report.FeePool, err = token.FeePool(ctx); err != nil {
		return err
	}
	if report.FeeAuthority, err = token.FeeAuthority(ctx); err != nil {
		return err
	}
	if report.TransferFeeRate, err = token.TransferFeeRate(ctx); err != nil {
		return err
	}
	if !opts.profile {
		return nil
	}

	p, err := feeprofile.Run(ctx, token, feeprofile.DefaultValues())
	if err != nil {
		return err
	}
	report.ProfileSlope = p.Slope
	report.ProfileR2 = p.R2
	report.RoundingErrors = p.Mismatches
	return nil
}
