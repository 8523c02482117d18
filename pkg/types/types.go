package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// TokenRecord is one fee token to inspect.
type TokenRecord struct {
	Token common.Address `csv:"token"`
	Name  string         `csv:"name"`
}

// TokenReport is the fee state of a token at the time it was read.
type TokenReport struct {
	Token           common.Address `csv:"token"`
	Name            string         `csv:"name"`
	FeePool         *big.Int       `csv:"fee_pool"`
	FeeAuthority    common.Address `csv:"fee_authority"`
	TransferFeeRate *big.Int       `csv:"transfer_fee_rate"`
	ProfileSlope    float64        `csv:"profile_slope"`
	ProfileR2       float64        `csv:"profile_r2"`
	RoundingErrors  int            `csv:"rounding_mismatches"`
	Error           string         `csv:"error"`
}

// TransferCall is a transfer()/transferFrom() to replay.
// msg_sender,token,is_transfer_from,sender,receiver,amount,block_number,gas_price,max_fee_per_gas,max_priority_fee_per_gas
type TransferCall struct {
	MsgSender            common.Address `csv:"msg_sender"`
	Token                common.Address `csv:"token"`
	IsTransferFrom       bool           `csv:"is_transfer_from"`
	Sender               common.Address `csv:"sender"`
	Receiver             common.Address `csv:"receiver"`
	Amount               *big.Int       `csv:"amount"`
	BlockNumber          string         `csv:"block_number"`
	GasPrice             string         `csv:"gas_price"`
	MaxFeePerGas         string         `csv:"max_fee_per_gas"`
	MaxPriorityFeePerGas string         `csv:"max_priority_fee_per_gas"`
}

// TransferTx is a mined transaction whose transfers should be replayed.
type TransferTx struct {
	TxHash common.Hash `csv:"tx_hash"`
}

// TransferCheckRecord is the outcome of replaying one transfer.
type TransferCheckRecord struct {
	Token          common.Address `csv:"token"`
	Payer          common.Address `csv:"payer"`
	Receiver       common.Address `csv:"receiver"`
	Amount         *big.Int       `csv:"amount"`
	BlockNumber    string         `csv:"block_number"`
	SenderDebit    *big.Int       `csv:"sender_debit"`
	ExpectedDebit  *big.Int       `csv:"expected_debit"`
	ReceiverCredit *big.Int       `csv:"receiver_credit"`
	FeePoolCredit  *big.Int       `csv:"fee_pool_credit"`
	ExpectedFee    *big.Int       `csv:"expected_fee"`
	Match          bool           `csv:"match"`
	Error          string         `csv:"error"`
}
