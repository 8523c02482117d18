package feetokentest

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// Unit is the fixed point base of the fee rate.
	Unit = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	// MaxTransferFeeRate is the largest rate setTransferFeeRate accepts (10%).
	MaxTransferFeeRate = new(big.Int).Div(Unit, big.NewInt(10))
)

var (
	errOnlyOwner        = errors.New("Only the contract owner may perform this action")
	errOnlyFeeAuthority = errors.New("Only the fee authority may perform this action")
	errFeeRateTooHigh   = errors.New("Exceeds maximum fee rate")
	errZeroAccount      = errors.New("Must supply an account address")
	errInsufficientFees = errors.New("Insufficient fees")
	errInsufficientBal  = errors.New("Insufficient balance")
	errInsufficientAlw  = errors.New("Insufficient allowance")
)

// tokenState is the storage of a PublicFeeToken. The fee pool is the balance
// held by the token contract itself.
type tokenState struct {
	self            common.Address
	name            string
	symbol          string
	decimals        uint8
	owner           common.Address
	feeAuthority    common.Address
	transferFeeRate *big.Int
	totalSupply     *big.Int
	balances        map[common.Address]*big.Int
	allowances      map[common.Address]map[common.Address]*big.Int
}

func (s *tokenState) clone() *tokenState {
	c := *s
	c.transferFeeRate = new(big.Int).Set(s.transferFeeRate)
	c.totalSupply = new(big.Int).Set(s.totalSupply)
	c.balances = make(map[common.Address]*big.Int, len(s.balances))
	for a, v := range s.balances {
		c.balances[a] = new(big.Int).Set(v)
	}
	c.allowances = make(map[common.Address]map[common.Address]*big.Int, len(s.allowances))
	for a, m := range s.allowances {
		c.allowances[a] = make(map[common.Address]*big.Int, len(m))
		for sp, v := range m {
			c.allowances[a][sp] = new(big.Int).Set(v)
		}
	}
	return &c
}

func (s *tokenState) balanceOf(a common.Address) *big.Int {
	if v, ok := s.balances[a]; ok {
		return new(big.Int).Set(v)
	}
	return new(big.Int)
}

func (s *tokenState) allowance(owner, spender common.Address) *big.Int {
	if v, ok := s.allowances[owner][spender]; ok {
		return new(big.Int).Set(v)
	}
	return new(big.Int)
}

func (s *tokenState) feePool() *big.Int {
	return s.balanceOf(s.self)
}

// transferFeeIncurred rounds down, as safeMul_dec does on chain.
func (s *tokenState) transferFeeIncurred(value *big.Int) *big.Int {
	fee := new(big.Int).Mul(value, s.transferFeeRate)
	return fee.Div(fee, Unit)
}

func (s *tokenState) transferPlusFee(value *big.Int) *big.Int {
	return new(big.Int).Add(value, s.transferFeeIncurred(value))
}

func (s *tokenState) priceToSpend(value *big.Int) *big.Int {
	n := new(big.Int).Mul(value, Unit)
	return n.Div(n, new(big.Int).Add(Unit, s.transferFeeRate))
}

func (s *tokenState) move(from, to common.Address, value *big.Int) error {
	bal := s.balanceOf(from)
	if bal.Cmp(value) < 0 {
		return errInsufficientBal
	}
	s.balances[from] = bal.Sub(bal, value)
	s.balances[to] = new(big.Int).Add(s.balanceOf(to), value)
	return nil
}

func (s *tokenState) transfer(sender, from, to common.Address, value *big.Int) error {
	fee := s.transferFeeIncurred(value)
	total := new(big.Int).Add(value, fee)
	if sender != from {
		alw := s.allowance(from, sender)
		if alw.Cmp(total) < 0 {
			return errInsufficientAlw
		}
		s.setAllowance(from, sender, alw.Sub(alw, total))
	}
	if s.balanceOf(from).Cmp(total) < 0 {
		return errInsufficientBal
	}
	if err := s.move(from, to, value); err != nil {
		return err
	}
	return s.move(from, s.self, fee)
}

func (s *tokenState) setAllowance(owner, spender common.Address, value *big.Int) {
	if s.allowances[owner] == nil {
		s.allowances[owner] = make(map[common.Address]*big.Int)
	}
	s.allowances[owner][spender] = value
}

func (s *tokenState) onlyOwner(sender common.Address) error {
	if sender != s.owner {
		return errOnlyOwner
	}
	return nil
}

func (s *tokenState) setTransferFeeRate(sender common.Address, rate *big.Int) error {
	if err := s.onlyOwner(sender); err != nil {
		return err
	}
	if rate.Cmp(MaxTransferFeeRate) > 0 {
		return errFeeRateTooHigh
	}
	s.transferFeeRate = new(big.Int).Set(rate)
	return nil
}

func (s *tokenState) setFeeAuthority(sender, authority common.Address) error {
	if err := s.onlyOwner(sender); err != nil {
		return err
	}
	s.feeAuthority = authority
	return nil
}

func (s *tokenState) withdrawFees(sender, account common.Address, value *big.Int) error {
	if sender != s.feeAuthority {
		return errOnlyFeeAuthority
	}
	if account == (common.Address{}) {
		return errZeroAccount
	}
	if s.feePool().Cmp(value) < 0 {
		return errInsufficientFees
	}
	return s.move(s.self, account, value)
}

func (s *tokenState) donateToFeePool(sender common.Address, value *big.Int) error {
	return s.move(sender, s.self, value)
}

func (s *tokenState) clearTokens(sender, account common.Address) error {
	if err := s.onlyOwner(sender); err != nil {
		return err
	}
	s.totalSupply.Sub(s.totalSupply, s.balanceOf(account))
	delete(s.balances, account)
	return nil
}

func (s *tokenState) giveTokens(sender, account common.Address, value *big.Int) error {
	if err := s.onlyOwner(sender); err != nil {
		return err
	}
	s.balances[account] = new(big.Int).Add(s.balanceOf(account), value)
	s.totalSupply.Add(s.totalSupply, value)
	return nil
}
