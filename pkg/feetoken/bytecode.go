package feetoken

import (
	"context"
	"sort"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/asm"
	"github.com/ethereum/go-ethereum/core/vm"
)

// Selectors returns every 4-byte value pushed by code. A solidity dispatcher
// pushes the selector of each external function before comparing it with the
// calldata, so the set contains the functions the contract exposes. Selectors
// with leading zero bytes are pushed with a shorter PUSH and are padded back.
func Selectors(code []byte) map[[4]byte]bool {
	selectors := make(map[[4]byte]bool)
	it := asm.NewInstructionIterator(code)
	for it.Next() {
		op := it.Op()
		if op < vm.PUSH1 || op > vm.PUSH4 {
			continue
		}
		arg := it.Arg()
		if len(arg) == 0 || len(arg) > 4 {
			continue
		}
		var sel [4]byte
		copy(sel[4-len(arg):], arg)
		selectors[sel] = true
	}
	// it.Error() is ignored: the metadata appended by solc does not disassemble.
	return selectors
}

// MissingSelectors returns, sorted, the ABI methods whose selector never
// appears in code.
func MissingSelectors(code []byte, contractABI abi.ABI) []string {
	var (
		selectors = Selectors(code)
		missing   []string
	)
	for name, method := range contractABI.Methods {
		var sel [4]byte
		copy(sel[:], method.ID)
		if !selectors[sel] {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}

// ProbeCode fetches the code deployed at address and checks that it dispatches
// every method of contractABI. Contracts behind a proxy fail this check since
// their dispatcher lives in the implementation.
func ProbeCode(ctx context.Context, caller bind.ContractCaller, address common.Address, name string, contractABI abi.ABI) error {
	code, err := caller.CodeAt(ctx, address, nil)
	if err != nil {
		return newContractCallError(name, "getCode", err)
	}
	if len(code) == 0 {
		return &ContractCallError{Contract: name, Operation: "getCode", Err: bind.ErrNoCode}
	}
	missing := MissingSelectors(code, contractABI)
	logger.Debugw("probed contract code", "contract", name, "address", address, "size", len(code), "missing", len(missing))
	if len(missing) > 0 {
		return &InterfaceMismatchError{Contract: name, Missing: missing}
	}
	return nil
}
