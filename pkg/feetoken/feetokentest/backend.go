// Package feetokentest provides an in-memory chain running a single
// PublicFeeToken, for tests of code built on the feetoken adapters.
package feetokentest

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/KyberNetwork/fee-token-harness/pkg/feetoken/abis"
)

const (
	callGas = 50_000
	txGas   = 21_000
)

var (
	ChainID = big.NewInt(1337)

	errMethodNotFound = errors.New("function selector was not recognized")
	revertSelector    = crypto.Keccak256([]byte("Error(string)"))[:4]
	stringArgs        = abi.Arguments{{Type: mustType("string")}}
)

func mustType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(err)
	}
	return typ
}

// revertError mimics the error a node returns for a reverted call, carrying
// the Error(string) payload as rpc error data.
type revertError struct {
	reason string
}

func (e *revertError) Error() string { return "execution reverted: " + e.reason }

func (e *revertError) ErrorData() interface{} {
	packed, _ := stringArgs.Pack(e.reason)
	return hexutil.Encode(append(append([]byte{}, revertSelector...), packed...))
}

// Config describes the token deployed on a new Backend.
type Config struct {
	Name            string
	Symbol          string
	Owner           common.Address
	FeeAuthority    common.Address
	TransferFeeRate *big.Int
	// InitialSupply is credited to Owner.
	InitialSupply *big.Int
}

// Account is a funded key usable as a transaction sender.
type Account struct {
	Key     *ecdsa.PrivateKey
	Address common.Address
}

func NewAccount() *Account {
	key, err := crypto.GenerateKey()
	if err != nil {
		panic(err)
	}
	return &Account{Key: key, Address: crypto.PubkeyToAddress(key.PublicKey)}
}

// TransactOpts returns signing options for the account on the simulated chain.
func (a *Account) TransactOpts() *bind.TransactOpts {
	opts, err := bind.NewKeyedTransactorWithChainID(a.Key, ChainID)
	if err != nil {
		panic(err)
	}
	return opts
}

// Backend implements feetoken.Backend. Transactions are mined as soon as they
// are sent unless auto mining is switched off.
type Backend struct {
	mu          sync.Mutex
	address     common.Address
	state       *tokenState
	history     map[uint64]*tokenState
	nonces      map[common.Address]uint64
	pending     []*types.Transaction
	sent        []*types.Transaction
	receipts    map[common.Hash]*types.Receipt
	blockNumber uint64
	autoMine    bool
	calls       int
}

func NewBackend(cfg Config) *Backend {
	address := crypto.CreateAddress(cfg.Owner, 0)
	rate := new(big.Int)
	if cfg.TransferFeeRate != nil {
		rate.Set(cfg.TransferFeeRate)
	}
	supply := new(big.Int)
	if cfg.InitialSupply != nil {
		supply.Set(cfg.InitialSupply)
	}
	state := &tokenState{
		self:            address,
		name:            cfg.Name,
		symbol:          cfg.Symbol,
		decimals:        18,
		owner:           cfg.Owner,
		feeAuthority:    cfg.FeeAuthority,
		transferFeeRate: rate,
		totalSupply:     supply,
		balances:        map[common.Address]*big.Int{cfg.Owner: new(big.Int).Set(supply)},
		allowances:      make(map[common.Address]map[common.Address]*big.Int),
	}
	return &Backend{
		address:     address,
		state:       state,
		history:     map[uint64]*tokenState{1: state},
		nonces:      make(map[common.Address]uint64),
		receipts:    make(map[common.Hash]*types.Receipt),
		blockNumber: 1,
		autoMine:    true,
	}
}

// Address is where the token is deployed.
func (b *Backend) Address() common.Address { return b.address }

// SetAutoMine switches between mining on send and mining on Commit.
func (b *Backend) SetAutoMine(on bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.autoMine = on
}

// Commit mines every pending transaction into a new block.
func (b *Backend) Commit() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.mine()
}

// SentTransactions returns every transaction accepted by SendTransaction.
func (b *Backend) SentTransactions() []*types.Transaction {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*types.Transaction(nil), b.sent...)
}

// BlockNumber returns the head of the simulated chain.
func (b *Backend) BlockNumber() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.blockNumber
}

// CallCount returns how many eth_calls reached the backend.
func (b *Backend) CallCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

func (b *Backend) CodeAt(ctx context.Context, contract common.Address, blockNumber *big.Int) ([]byte, error) {
	return b.code(contract), nil
}

func (b *Backend) PendingCodeAt(ctx context.Context, account common.Address) ([]byte, error) {
	return b.code(account), nil
}

func (b *Backend) code(account common.Address) []byte {
	if account == b.address {
		return dispatcherCode(abis.PublicFeeToken)
	}
	return nil
}

// dispatcherCode builds a solidity style function dispatcher for contractABI:
// DUP1 PUSH4 <selector> EQ PUSH2 <dest> JUMPI for each method.
func dispatcherCode(contractABI abi.ABI) []byte {
	names := make([]string, 0, len(contractABI.Methods))
	for name := range contractABI.Methods {
		names = append(names, name)
	}
	sort.Strings(names)

	code := []byte{0x60, 0x80, 0x60, 0x40, 0x52, 0x60, 0x00, 0x35, 0x60, 0xe0, 0x1c}
	for i, name := range names {
		code = append(code, 0x80, 0x63)
		code = append(code, contractABI.Methods[name].ID...)
		code = append(code, 0x14, 0x61, 0x01, byte(i), 0x57)
	}
	return append(code, 0x00)
}

func (b *Backend) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	if call.To == nil || *call.To != b.address {
		return nil, nil
	}
	return execute(b.stateAt(blockNumber).clone(), call.From, call.Data)
}

// stateAt must be called with b.mu held. A nil number or one at or past the
// head reads the latest state.
func (b *Backend) stateAt(number *big.Int) *tokenState {
	if number == nil || !number.IsUint64() || number.Uint64() >= b.blockNumber {
		return b.state
	}
	for n := number.Uint64(); n > 1; n-- {
		if s, ok := b.history[n]; ok {
			return s
		}
	}
	return b.history[1]
}

func (b *Backend) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return &types.Header{Number: new(big.Int).SetUint64(b.blockNumber)}, nil
}

func (b *Backend) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.nonces[account], nil
}

func (b *Backend) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000_000), nil
}

func (b *Backend) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000_000), nil
}

func (b *Backend) EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if call.To == nil || *call.To != b.address {
		return txGas, nil
	}
	if _, err := execute(b.state.clone(), call.From, call.Data); err != nil {
		return 0, err
	}
	return txGas + callGas, nil
}

func (b *Backend) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	sender, err := types.Sender(types.LatestSignerForChainID(ChainID), tx)
	if err != nil {
		return fmt.Errorf("invalid transaction signature: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if want := b.nonces[sender]; tx.Nonce() != want {
		return fmt.Errorf("invalid nonce for %s: have %d, want %d", sender.Hex(), tx.Nonce(), want)
	}
	b.nonces[sender]++
	b.sent = append(b.sent, tx)
	b.pending = append(b.pending, tx)
	if b.autoMine {
		b.mine()
	}
	return nil
}

func (b *Backend) FilterLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error) {
	return nil, nil
}

func (b *Backend) SubscribeFilterLogs(ctx context.Context, query ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error) {
	return nil, errors.New("log subscriptions are not supported")
}

func (b *Backend) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if r, ok := b.receipts[txHash]; ok {
		return r, nil
	}
	return nil, ethereum.NotFound
}

// mine must be called with b.mu held.
func (b *Backend) mine() {
	if len(b.pending) == 0 {
		return
	}
	b.blockNumber++
	var (
		signer     = types.LatestSignerForChainID(ChainID)
		blockHash  = crypto.Keccak256Hash(new(big.Int).SetUint64(b.blockNumber).Bytes())
		cumulative uint64
	)
	for i, tx := range b.pending {
		status := types.ReceiptStatusSuccessful
		gasUsed := uint64(txGas)
		sender, _ := types.Sender(signer, tx)
		if tx.To() != nil && *tx.To() == b.address {
			gasUsed += callGas
			next := b.state.clone()
			if _, err := execute(next, sender, tx.Data()); err != nil {
				status = types.ReceiptStatusFailed
			} else {
				b.state = next
			}
		}
		cumulative += gasUsed
		b.receipts[tx.Hash()] = &types.Receipt{
			Type:              tx.Type(),
			Status:            status,
			CumulativeGasUsed: cumulative,
			Logs:              []*types.Log{},
			TxHash:            tx.Hash(),
			GasUsed:           gasUsed,
			BlockHash:         blockHash,
			BlockNumber:       new(big.Int).SetUint64(b.blockNumber),
			TransactionIndex:  uint(i),
		}
	}
	b.pending = nil
	b.history[b.blockNumber] = b.state
}

// execute runs one PublicFeeToken call against state.
func execute(state *tokenState, sender common.Address, data []byte) ([]byte, error) {
	if len(data) < 4 {
		return nil, &revertError{reason: errMethodNotFound.Error()}
	}
	method, err := abis.PublicFeeToken.MethodById(data[:4])
	if err != nil {
		return nil, &revertError{reason: errMethodNotFound.Error()}
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, &revertError{reason: err.Error()}
	}

	var (
		results []interface{}
		txErr   error
	)
	switch method.Name {
	case "name":
		results = []interface{}{state.name}
	case "symbol":
		results = []interface{}{state.symbol}
	case "decimals":
		results = []interface{}{state.decimals}
	case "totalSupply":
		results = []interface{}{new(big.Int).Set(state.totalSupply)}
	case "owner":
		results = []interface{}{state.owner}
	case "balanceOf":
		results = []interface{}{state.balanceOf(args[0].(common.Address))}
	case "allowance":
		results = []interface{}{state.allowance(args[0].(common.Address), args[1].(common.Address))}
	case "transfer":
		txErr = state.transfer(sender, sender, args[0].(common.Address), args[1].(*big.Int))
		results = []interface{}{true}
	case "approve":
		state.setAllowance(sender, args[0].(common.Address), new(big.Int).Set(args[1].(*big.Int)))
		results = []interface{}{true}
	case "transferFrom":
		txErr = state.transfer(sender, args[0].(common.Address), args[1].(common.Address), args[2].(*big.Int))
		results = []interface{}{true}
	case "feePool":
		results = []interface{}{state.feePool()}
	case "feeAuthority":
		results = []interface{}{state.feeAuthority}
	case "transferFeeRate":
		results = []interface{}{new(big.Int).Set(state.transferFeeRate)}
	case "transferFeeIncurred":
		results = []interface{}{state.transferFeeIncurred(args[0].(*big.Int))}
	case "transferPlusFee":
		results = []interface{}{state.transferPlusFee(args[0].(*big.Int))}
	case "priceToSpend":
		results = []interface{}{state.priceToSpend(args[0].(*big.Int))}
	case "setTransferFeeRate":
		txErr = state.setTransferFeeRate(sender, args[0].(*big.Int))
	case "setFeeAuthority":
		txErr = state.setFeeAuthority(sender, args[0].(common.Address))
	case "withdrawFees":
		txErr = state.withdrawFees(sender, args[0].(common.Address), args[1].(*big.Int))
		results = []interface{}{true}
	case "donateToFeePool":
		txErr = state.donateToFeePool(sender, args[0].(*big.Int))
		results = []interface{}{true}
	case "clearTokens":
		txErr = state.clearTokens(sender, args[0].(common.Address))
	case "giveTokens":
		txErr = state.giveTokens(sender, args[0].(common.Address), args[1].(*big.Int))
	default:
		return nil, &revertError{reason: errMethodNotFound.Error()}
	}
	if txErr != nil {
		return nil, &revertError{reason: txErr.Error()}
	}
	return method.Outputs.Pack(results...)
}
