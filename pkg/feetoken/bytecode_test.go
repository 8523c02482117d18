package feetoken_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KyberNetwork/fee-token-harness/pkg/feetoken"
	"github.com/KyberNetwork/fee-token-harness/pkg/feetoken/abis"
	"github.com/KyberNetwork/fee-token-harness/pkg/feetoken/feetokentest"
)

func TestSelectors(t *testing.T) {
	tests := []struct {
		name string
		code []byte
		want [][4]byte
	}{
		{
			name: "push4",
			// DUP1 PUSH4 a9059cbb EQ
			code: []byte{0x80, 0x63, 0xa9, 0x05, 0x9c, 0xbb, 0x14},
			want: [][4]byte{{0xa9, 0x05, 0x9c, 0xbb}},
		},
		{
			name: "leading zero selector",
			// PUSH3 313ce5
			code: []byte{0x62, 0x31, 0x3c, 0xe5},
			want: [][4]byte{{0x00, 0x31, 0x3c, 0xe5}},
		},
		{
			name: "wider pushes are skipped",
			// PUSH5 0102030405
			code: []byte{0x64, 0x01, 0x02, 0x03, 0x04, 0x05},
		},
		{
			name: "truncated push",
			code: []byte{0x63, 0xa9, 0x05},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := feetoken.Selectors(tt.code)
			assert.Len(t, got, len(tt.want))
			for _, sel := range tt.want {
				assert.True(t, got[sel], "missing %x", sel)
			}
		})
	}
}

func TestProbeCode(t *testing.T) {
	owner := feetokentest.NewAccount()
	backend := feetokentest.NewBackend(feetokentest.Config{
		Owner:           owner.Address,
		FeeAuthority:    owner.Address,
		TransferFeeRate: big.NewInt(0),
		InitialSupply:   big.NewInt(1),
	})
	ctx := context.Background()

	assert.NoError(t, feetoken.ProbeCode(ctx, backend, backend.Address(), "FeeToken", abis.FeeToken))
	assert.NoError(t, feetoken.ProbeCode(ctx, backend, backend.Address(), "PublicFeeToken", abis.PublicFeeToken))

	err := feetoken.ProbeCode(ctx, backend, common.HexToAddress("0x01"), "Nothing", abis.FeeToken)
	var callErr *feetoken.ContractCallError
	require.ErrorAs(t, err, &callErr)
	assert.Equal(t, "getCode", callErr.Operation)
	assert.ErrorIs(t, err, bind.ErrNoCode)

	code, err := backend.CodeAt(ctx, backend.Address(), nil)
	require.NoError(t, err)
	assert.Empty(t, feetoken.MissingSelectors(code, abis.ExternStateToken))

	// a plain token dispatcher
	var plain []byte
	for _, method := range abis.ExternStateToken.Methods {
		plain = append(append(plain, 0x80, 0x63), method.ID...)
	}
	assert.Equal(t, []string{
		"donateToFeePool", "feeAuthority", "feePool", "priceToSpend", "setFeeAuthority",
		"setTransferFeeRate", "transferFeeIncurred", "transferFeeRate", "transferPlusFee", "withdrawFees",
	}, feetoken.MissingSelectors(plain, abis.FeeToken))
}
