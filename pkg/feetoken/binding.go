package feetoken

import (
	"context"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// binding forwards named calls and transactions to a contract handle, labeling
// every failure and every mined transaction with the adapter's name.
type binding struct {
	contract ContractHandle
	name     string
	miner    Miner
	// blockNumber pins queries to a block, nil reads the latest state.
	blockNumber *big.Int
}

func newBinding(contract ContractHandle, name string, miner Miner, methods ...[]string) (binding, error) {
	if miner == nil {
		return binding{}, ErrNilMiner
	}
	if err := checkMethods(contract.ABI(), name, methods...); err != nil {
		return binding{}, err
	}
	return binding{
		contract: contract,
		name:     name,
		miner:    miner,
	}, nil
}

func checkMethods(contractABI abi.ABI, name string, methods ...[]string) error {
	var missing []string
	for _, group := range methods {
		for _, m := range group {
			if _, ok := contractABI.Methods[m]; !ok {
				missing = append(missing, m)
			}
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return &InterfaceMismatchError{Contract: name, Missing: missing}
}

func (b *binding) call(ctx context.Context, method string, params ...interface{}) ([]interface{}, error) {
	var out []interface{}
	if err := b.contract.Call(&bind.CallOpts{Context: ctx, BlockNumber: b.blockNumber}, &out, method, params...); err != nil {
		return nil, newContractCallError(b.name, method, err)
	}
	return out, nil
}

func (b *binding) callBig(ctx context.Context, method string, params ...interface{}) (*big.Int, error) {
	out, err := b.call(ctx, method, params...)
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

func (b *binding) callAddress(ctx context.Context, method string, params ...interface{}) (common.Address, error) {
	out, err := b.call(ctx, method, params...)
	if err != nil {
		return common.Address{}, err
	}
	return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), nil
}

func (b *binding) transact(ctx context.Context, sender *bind.TransactOpts, method string, params ...interface{}) (*MinedTx, error) {
	if sender == nil {
		return nil, newContractCallError(b.name, method, ErrNoSender)
	}
	opts := *sender
	opts.Context = ctx
	tx, err := b.contract.Transact(&opts, method, params...)
	if err != nil {
		return nil, newContractCallError(b.name, method, err)
	}
	return b.miner.MineTx(ctx, tx, method, b.name)
}

// ContractName is the display name used to label transactions and errors.
func (b *binding) ContractName() string { return b.name }

func (b *binding) Address() common.Address { return b.contract.Address() }
