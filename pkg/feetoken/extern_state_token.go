package feetoken

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

var externStateTokenMethods = []string{
	"name", "symbol", "decimals", "totalSupply", "owner", "balanceOf", "allowance",
	"transfer", "approve", "transferFrom",
}

// ExternStateToken exposes the plain token functions of a contract that keeps
// balances in an external state contract.
type ExternStateToken struct {
	binding
}

func NewExternStateToken(contract ContractHandle, name string, miner Miner) (*ExternStateToken, error) {
	b, err := newBinding(contract, name, miner, externStateTokenMethods)
	if err != nil {
		return nil, err
	}
	return &ExternStateToken{binding: b}, nil
}

func (t *ExternStateToken) Name(ctx context.Context) (string, error) {
	out, err := t.call(ctx, "name")
	if err != nil {
		return "", err
	}
	return *abi.ConvertType(out[0], new(string)).(*string), nil
}

func (t *ExternStateToken) Symbol(ctx context.Context) (string, error) {
	out, err := t.call(ctx, "symbol")
	if err != nil {
		return "", err
	}
	return *abi.ConvertType(out[0], new(string)).(*string), nil
}

func (t *ExternStateToken) Decimals(ctx context.Context) (uint8, error) {
	out, err := t.call(ctx, "decimals")
	if err != nil {
		return 0, err
	}
	return *abi.ConvertType(out[0], new(uint8)).(*uint8), nil
}

func (t *ExternStateToken) TotalSupply(ctx context.Context) (*big.Int, error) {
	return t.callBig(ctx, "totalSupply")
}

func (t *ExternStateToken) Owner(ctx context.Context) (common.Address, error) {
	return t.callAddress(ctx, "owner")
}

func (t *ExternStateToken) BalanceOf(ctx context.Context, account common.Address) (*big.Int, error) {
	return t.callBig(ctx, "balanceOf", account)
}

func (t *ExternStateToken) Allowance(ctx context.Context, account, spender common.Address) (*big.Int, error) {
	return t.callBig(ctx, "allowance", account, spender)
}

func (t *ExternStateToken) Transfer(ctx context.Context, sender *bind.TransactOpts, to common.Address, value *big.Int) (*MinedTx, error) {
	return t.transact(ctx, sender, "transfer", to, value)
}

func (t *ExternStateToken) Approve(ctx context.Context, sender *bind.TransactOpts, spender common.Address, value *big.Int) (*MinedTx, error) {
	return t.transact(ctx, sender, "approve", spender, value)
}

func (t *ExternStateToken) TransferFrom(ctx context.Context, sender *bind.TransactOpts, from, to common.Address, value *big.Int) (*MinedTx, error) {
	return t.transact(ctx, sender, "transferFrom", from, to, value)
}
