package main

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/KyberNetwork/fee-token-harness/pkg/feetoken"
	"github.com/KyberNetwork/fee-token-harness/pkg/feetoken/feetokentest"
	"github.com/KyberNetwork/fee-token-harness/pkg/types"
)

func TestFillReport(t *testing.T) {
	logger = zap.NewNop().Sugar()
	owner := feetokentest.NewAccount()
	authority := feetokentest.NewAccount()
	rate := big.NewInt(3_000_000_000_000_000)
	backend := feetokentest.NewBackend(feetokentest.Config{
		Owner:           owner.Address,
		FeeAuthority:    authority.Address,
		TransferFeeRate: rate,
		InitialSupply:   big.NewInt(1_000_000),
	})
	miner := feetoken.NewTxMiner(backend, feetoken.WithMineTimeout(time.Second))

	report := &types.TokenReport{Token: backend.Address(), Name: "FeeToken"}
	require.NoError(t, fillReport(context.Background(), report, backend, miner, reportOptions{profile: true, probeCode: true}))

	assert.Zero(t, report.FeePool.Sign())
	assert.Equal(t, authority.Address, report.FeeAuthority)
	assert.Equal(t, 0, rate.Cmp(report.TransferFeeRate))
	assert.InDelta(t, 0.003, report.ProfileSlope, 1e-4)
	assert.Zero(t, report.RoundingErrors)

	// no code at the address
	tests := []struct {
		name          string
		opts          reportOptions
		wantOperation string
	}{
		{name: "probed", opts: reportOptions{probeCode: true}, wantOperation: "getCode"},
		{name: "not probed", opts: reportOptions{}, wantOperation: "feePool"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			missing := &types.TokenReport{Token: common.HexToAddress("0x01"), Name: "Nothing"}
			err := fillReport(context.Background(), missing, backend, miner, tt.opts)
			var callErr *feetoken.ContractCallError
			require.ErrorAs(t, err, &callErr)
			assert.Equal(t, tt.wantOperation, callErr.Operation)
			assert.ErrorIs(t, err, bind.ErrNoCode)
		})
	}
}
