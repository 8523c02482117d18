package jsonrpc

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/KyberNetwork/fee-token-harness/pkg/utils"
)

type PrestateTracerConfig struct {
	DiffMode bool `json:"diffMode"`
}

type PrestateAccount struct {
	Balance *hexutil.Big                `json:"balance,omitempty"`
	Code    hexutil.Bytes               `json:"code,omitempty"`
	Nonce   uint64                      `json:"nonce,omitempty"`
	Storage map[common.Hash]common.Hash `json:"storage,omitempty"`
}

// PrestateTracerResult is the diffMode output. Post omits storage slots that
// were cleared, they only show up in Pre.
type PrestateTracerResult struct {
	Pre  map[common.Address]PrestateAccount `json:"pre"`
	Post map[common.Address]PrestateAccount `json:"post"`
}

var (
	TransferTracerConfig = PrestateTracerConfig{
		DiffMode: true, // set diffMode to true to get the post state
	}
	TransferTracerConfigEncoded, _ = json.Marshal(
		TransferTracerConfig,
	)
)

// PostStateOverride turns the post state of a diffMode prestateTracer result
// into eth_call state overrides, so calls observe the traced call's effects.
// Slots present in Pre but missing from Post were zeroed and are overridden
// with 0x0.
func PostStateOverride(result *PrestateTracerResult) StateOverride {
	override := make(StateOverride, len(result.Post))
	for addr, account := range result.Post {
		storage := make(map[common.Hash]string, len(account.Storage))
		for slot, val := range account.Storage {
			storage[slot] = utils.RemoveLeadingZerosFromHash(val)
		}
		o := OverrideAccount{
			Balance:   account.Balance,
			Code:      account.Code,
			StateDiff: storage,
		}
		// unchanged nonces are left out of post
		if account.Nonce != 0 {
			nonce := hexutil.Uint64(account.Nonce)
			o.Nonce = &nonce
		}
		override[addr] = o
	}
	for addr, account := range result.Pre {
		for slot := range account.Storage {
			if _, ok := result.Post[addr].Storage[slot]; ok {
				continue
			}
			o := override[addr]
			if o.StateDiff == nil {
				o.StateDiff = make(map[common.Hash]string)
			}
			o.StateDiff[slot] = "0x0"
			override[addr] = o
		}
	}
	return override
}
