package types

import (
	"bytes"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gocarina/gocsv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransferCallFromCSV(t *testing.T) {
	const in = `msg_sender,token,is_transfer_from,sender,receiver,amount,block_number,gas_price,max_fee_per_gas,max_priority_fee_per_gas
0x2FD45E9c69D50cD08a03792253daC3CA37a81cBf,0x0c7361B70e8F8530B7c0CcB17EeA89278E670C93,false,0x0000000000000000000000000000000000000000,0x49003cc3b1d8835c3b4aa5a581a6be0b0843e91d,30000000000000000000000,18000000,0x3b9aca00,,
`
	var calls []*TransferCall
	require.NoError(t, gocsv.UnmarshalString(in, &calls))
	require.Len(t, calls, 1)

	c := calls[0]
	assert.Equal(t, common.HexToAddress("0x0c7361B70e8F8530B7c0CcB17EeA89278E670C93"), c.Token)
	assert.False(t, c.IsTransferFrom)
	assert.Equal(t, "30000000000000000000000", c.Amount.String())
	assert.Equal(t, "18000000", c.BlockNumber)
	assert.Equal(t, "0x3b9aca00", c.GasPrice)
	assert.Empty(t, c.MaxFeePerGas)
}

func TestTokenReportToCSV(t *testing.T) {
	reports := []*TokenReport{{
		Token:           common.HexToAddress("0x36e6309aa7a923fb111ae50b56bfb3cfb2256f89"),
		Name:            "FeeToken",
		FeePool:         big.NewInt(3),
		FeeAuthority:    common.HexToAddress("0x01"),
		TransferFeeRate: big.NewInt(3_000_000_000_000_000),
		ProfileSlope:    0.003,
		ProfileR2:       1,
	}}

	var buf bytes.Buffer
	require.NoError(t, gocsv.Marshal(reports, &buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "token,name,fee_pool,fee_authority,transfer_fee_rate,profile_slope,profile_r2,rounding_mismatches,error", lines[0])
	assert.True(t, strings.HasPrefix(strings.ToLower(lines[1]), "0x36e6309aa7a923fb111ae50b56bfb3cfb2256f89,feetoken,3,"), lines[1])
	assert.Contains(t, lines[1], ",3000000000000000,0.003,1,0,")
}
