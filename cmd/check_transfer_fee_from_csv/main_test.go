package main

import (
	"context"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/KyberNetwork/fee-token-harness/pkg/feecheck"
	"github.com/KyberNetwork/fee-token-harness/pkg/feetoken/feetokentest"
	"github.com/KyberNetwork/fee-token-harness/pkg/types"
)

func TestScenarioFromCall(t *testing.T) {
	call := &types.TransferCall{
		MsgSender:            common.HexToAddress("0x2FD45E9c69D50cD08a03792253daC3CA37a81cBf"),
		Token:                common.HexToAddress("0x0c7361B70e8F8530B7c0CcB17EeA89278E670C93"),
		Receiver:             common.HexToAddress("0x49003cc3b1d8835c3b4aa5a581a6be0b0843e91d"),
		Amount:               big.NewInt(30000),
		GasPrice:             "0x3b9aca00",
		MaxFeePerGas:         "",
		MaxPriorityFeePerGas: "1000",
	}

	tests := []struct {
		name            string
		blockNumber     string
		gasPrice        string
		maxFeePerGas    string
		wantBlockNumber string
		wantErr         assert.ErrorAssertionFunc
	}{
		{name: "decimal block", blockNumber: "18000000", wantBlockNumber: "0x112a87f", wantErr: assert.NoError},
		{name: "hex block", blockNumber: "0x10", wantBlockNumber: "0xf", wantErr: assert.NoError},
		{name: "latest", blockNumber: "", wantBlockNumber: "", wantErr: assert.NoError},
		{name: "garbage", blockNumber: "soon", wantErr: assert.Error},
		{name: "genesis", blockNumber: "0", wantErr: assert.Error},
		{
			name:     "malformed gas price",
			gasPrice: "1.5gwei",
			wantErr: func(t assert.TestingT, err error, msgAndArgs ...interface{}) bool {
				return assert.ErrorContains(t, err, `invalid gas_price "1.5gwei"`, msgAndArgs...)
			},
		},
		{
			name:         "malformed max fee",
			maxFeePerGas: "0xzz",
			wantErr: func(t assert.TestingT, err error, msgAndArgs ...interface{}) bool {
				return assert.ErrorContains(t, err, `invalid max_fee_per_gas "0xzz"`, msgAndArgs...)
			},
		},
		{name: "negative gas price", gasPrice: "-1", wantErr: assert.Error},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := *call
			c.BlockNumber = tt.blockNumber
			if tt.gasPrice != "" {
				c.GasPrice = tt.gasPrice
			}
			c.MaxFeePerGas = tt.maxFeePerGas
			s, err := scenarioFromCall(&c)
			if !tt.wantErr(t, err, fmt.Sprintf("scenarioFromCall(%q)", tt.name)) || err != nil {
				return
			}
			assert.Equal(t, tt.wantBlockNumber, s.BlockNumber)
			assert.Equal(t, call.MsgSender, s.Payer())
			assert.Equal(t, int64(1_000_000_000), s.GasPrice.Int64())
			assert.Nil(t, s.GasFeeCap)
			assert.Equal(t, int64(1000), s.GasTipCap.Int64())
		})
	}
}

func TestCheckAll(t *testing.T) {
	logger = zap.NewNop().Sugar()

	// a node without the eth and debug namespaces fails every check
	server := rpc.NewServer()
	client := rpc.DialInProc(server)
	t.Cleanup(func() {
		client.Close()
		server.Stop()
	})

	owner := feetokentest.NewAccount()
	backend := feetokentest.NewBackend(feetokentest.Config{Owner: owner.Address, InitialSupply: big.NewInt(1)})
	tokens := newTokenCache(backend)

	var (
		tokenA   = common.HexToAddress("0x0c7361B70e8F8530B7c0CcB17EeA89278E670C93")
		tokenB   = common.HexToAddress("0x36e6309aa7a923fb111ae50b56bfb3cfb2256f89")
		receiver = common.HexToAddress("0x49003cc3b1d8835c3b4aa5a581a6be0b0843e91d")
	)
	scenarios := []*feecheck.Scenario{
		{MsgSender: owner.Address, Token: tokenA, To: receiver, Amount: big.NewInt(1)},
		{MsgSender: owner.Address, Token: tokenB, To: receiver, Amount: big.NewInt(2)},
		{MsgSender: owner.Address, Token: tokenA, To: receiver, Amount: big.NewInt(3), BlockNumber: "0x10"},
	}

	records := checkAll(context.Background(), feecheck.NewChecker(client), tokens, scenarios)
	require.Len(t, records, len(scenarios))
	for i, record := range records {
		assert.Equal(t, scenarios[i].Token, record.Token)
		assert.Equal(t, owner.Address, record.Payer)
		assert.Equal(t, scenarios[i].BlockNumber, record.BlockNumber)
		assert.NotEmpty(t, record.Error)
		assert.False(t, record.Match)
	}

	assert.Len(t, tokens.tokens, 2)
	first, err := tokens.get(tokenA)
	require.NoError(t, err)
	again, err := tokens.get(tokenA)
	require.NoError(t, err)
	assert.Same(t, first, again)
	assert.Equal(t, tokenA.Hex(), first.ContractName())
}
