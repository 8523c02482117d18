package feetoken

import (
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// Contract binds an ABI to a deployed address.
type Contract struct {
	*bind.BoundContract
	address common.Address
	abi     abi.ABI
}

func NewContract(address common.Address, contractABI abi.ABI, backend bind.ContractBackend) *Contract {
	return &Contract{
		BoundContract: bind.NewBoundContract(address, contractABI, backend, backend, backend),
		address:       address,
		abi:           contractABI,
	}
}

func (c *Contract) ABI() abi.ABI { return c.abi }

func (c *Contract) Address() common.Address { return c.address }
