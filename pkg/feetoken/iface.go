package feetoken

import (
	"context"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ContractHandle is the callable surface of a deployed contract. *Contract is the
// go-ethereum backed implementation.
type ContractHandle interface {
	ABI() abi.ABI
	Address() common.Address
	Call(opts *bind.CallOpts, results *[]interface{}, method string, params ...interface{}) error
	Transact(opts *bind.TransactOpts, method string, params ...interface{}) (*types.Transaction, error)
}

// Miner waits for a submitted transaction to be mined and labels the result.
type Miner interface {
	MineTx(ctx context.Context, tx *types.Transaction, operation, contractName string) (*MinedTx, error)
}

// Backend is what a Contract and a TxMiner need from a node. *ethclient.Client
// satisfies it.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
}
