package feetoken

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

var feeTokenMethods = []string{
	"feePool", "feeAuthority", "transferFeeRate",
	"transferFeeIncurred", "transferPlusFee", "priceToSpend",
	"setTransferFeeRate", "setFeeAuthority", "withdrawFees", "donateToFeePool",
}

// FeeToken is a token that charges a fee on every transfer and collects it into
// a fee pool. Every method is forwarded to the contract; nothing is cached.
type FeeToken struct {
	*ExternStateToken
}

func NewFeeToken(contract ContractHandle, name string, miner Miner) (*FeeToken, error) {
	b, err := newBinding(contract, name, miner, externStateTokenMethods, feeTokenMethods)
	if err != nil {
		return nil, err
	}
	return &FeeToken{ExternStateToken: &ExternStateToken{binding: b}}, nil
}

// At returns a view of the token whose queries read the state as of
// blockNumber. Transactions sent through the view are unaffected.
func (t *FeeToken) At(blockNumber *big.Int) *FeeToken {
	b := t.binding
	if blockNumber != nil {
		b.blockNumber = new(big.Int).Set(blockNumber)
	} else {
		b.blockNumber = nil
	}
	return &FeeToken{ExternStateToken: &ExternStateToken{binding: b}}
}

// FeePool returns the fees collected and not yet withdrawn.
func (t *FeeToken) FeePool(ctx context.Context) (*big.Int, error) {
	return t.callBig(ctx, "feePool")
}

// FeeAuthority returns the address allowed to withdraw fees.
func (t *FeeToken) FeeAuthority(ctx context.Context) (common.Address, error) {
	return t.callAddress(ctx, "feeAuthority")
}

// TransferFeeRate returns the fee rate as an 18 decimal fixed point number.
func (t *FeeToken) TransferFeeRate(ctx context.Context) (*big.Int, error) {
	return t.callBig(ctx, "transferFeeRate")
}

// TransferFeeIncurred returns the fee charged on a transfer of value.
func (t *FeeToken) TransferFeeIncurred(ctx context.Context, value *big.Int) (*big.Int, error) {
	return t.callBig(ctx, "transferFeeIncurred", value)
}

// TransferPlusFee returns value plus the fee charged on transferring it.
func (t *FeeToken) TransferPlusFee(ctx context.Context, value *big.Int) (*big.Int, error) {
	return t.callBig(ctx, "transferPlusFee", value)
}

// PriceToSpend returns the largest amount that can be transferred when value
// must also cover the fee.
func (t *FeeToken) PriceToSpend(ctx context.Context, value *big.Int) (*big.Int, error) {
	return t.callBig(ctx, "priceToSpend", value)
}

func (t *FeeToken) SetTransferFeeRate(ctx context.Context, sender *bind.TransactOpts, newFeeRate *big.Int) (*MinedTx, error) {
	return t.transact(ctx, sender, "setTransferFeeRate", newFeeRate)
}

func (t *FeeToken) SetFeeAuthority(ctx context.Context, sender *bind.TransactOpts, newFeeAuthority common.Address) (*MinedTx, error) {
	return t.transact(ctx, sender, "setFeeAuthority", newFeeAuthority)
}

func (t *FeeToken) WithdrawFees(ctx context.Context, sender *bind.TransactOpts, account common.Address, value *big.Int) (*MinedTx, error) {
	return t.transact(ctx, sender, "withdrawFees", account, value)
}

func (t *FeeToken) DonateToFeePool(ctx context.Context, sender *bind.TransactOpts, value *big.Int) (*MinedTx, error) {
	return t.transact(ctx, sender, "donateToFeePool", value)
}
