package feetoken

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

var publicFeeTokenMethods = []string{"clearTokens", "giveTokens"}

// PublicFeeToken adds the privileged balance helpers of test deployments to
// FeeToken.
type PublicFeeToken struct {
	*FeeToken
}

func NewPublicFeeToken(contract ContractHandle, name string, miner Miner) (*PublicFeeToken, error) {
	b, err := newBinding(contract, name, miner, externStateTokenMethods, feeTokenMethods, publicFeeTokenMethods)
	if err != nil {
		return nil, err
	}
	return &PublicFeeToken{
		FeeToken: &FeeToken{ExternStateToken: &ExternStateToken{binding: b}},
	}, nil
}

// ClearTokens sets the balance of account to zero.
func (t *PublicFeeToken) ClearTokens(ctx context.Context, sender *bind.TransactOpts, account common.Address) (*MinedTx, error) {
	return t.transact(ctx, sender, "clearTokens", account)
}

// GiveTokens credits value new tokens to account.
func (t *PublicFeeToken) GiveTokens(ctx context.Context, sender *bind.TransactOpts, account common.Address, value *big.Int) (*MinedTx, error) {
	return t.transact(ctx, sender, "giveTokens", account, value)
}
