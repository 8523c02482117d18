package utils

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// RemoveLeadingZerosFromHash remove the leading 0 in hash
// fix "invalid argument 2: hex number with leading zero digits" error
func RemoveLeadingZerosFromHash(h common.Hash) string {
	trimmed := strings.TrimLeft(strings.TrimPrefix(h.Hex(), "0x"), "0")
	if trimmed == "" {
		return "0x0"
	}
	return "0x" + trimmed
}

// BigIntMustFromString parses a base 10 integer and panics on bad input.
func BigIntMustFromString(s string) *big.Int {
	bn, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("big.Int must from string")
	}
	return bn
}
