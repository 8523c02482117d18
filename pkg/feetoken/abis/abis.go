package abis

import (
	"bytes"
	_ "embed"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

var (
	//go:embed extern_state_token.json
	externStateToken []byte
	//go:embed fee_token.json
	feeToken []byte
	//go:embed public_fee_token.json
	publicFeeToken []byte
)

var (
	ExternStateToken abi.ABI
	FeeToken         abi.ABI
	// PublicFeeToken is FeeToken plus the privileged clearTokens/giveTokens
	// helpers that test deployments expose.
	PublicFeeToken abi.ABI
)

func init() {
	builder := []struct {
		ABI  *abi.ABI
		data []byte
	}{
		{&ExternStateToken, externStateToken},
		{&FeeToken, feeToken},
		{&PublicFeeToken, publicFeeToken},
	}

	for _, b := range builder {
		var err error
		*b.ABI, err = abi.JSON(bytes.NewReader(b.data))
		if err != nil {
			panic(err)
		}
	}
}
