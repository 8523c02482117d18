package feetoken

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

const revertPrefix = "execution reverted: "

var (
	// ErrTransactionReverted is wrapped by a ContractCallError when a transaction
	// was mined with a failed status.
	ErrTransactionReverted = errors.New("transaction reverted")
	ErrNoSender            = errors.New("no sender to transact with")
	ErrNilMiner            = errors.New("nil miner")
)

// ContractCallError is returned when a query or a transaction is rejected by
// the contract or the node.
type ContractCallError struct {
	Contract  string
	Operation string
	// Reason is the decoded Error(string) revert reason, empty when the node
	// did not return one.
	Reason string
	Err    error
}

func newContractCallError(contract, operation string, err error) *ContractCallError {
	e := &ContractCallError{
		Contract:  contract,
		Operation: operation,
		Err:       err,
	}
	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		e.Reason = revertReason(dataErr.ErrorData())
	}
	if e.Reason == "" {
		// some call paths flatten the rpc error into its message
		if i := strings.Index(err.Error(), revertPrefix); i >= 0 {
			e.Reason = err.Error()[i+len(revertPrefix):]
		}
	}
	return e
}

func (e *ContractCallError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s.%s reverted: %s", e.Contract, e.Operation, e.Reason)
	}
	return fmt.Sprintf("%s.%s failed: %v", e.Contract, e.Operation, e.Err)
}

func (e *ContractCallError) Unwrap() error { return e.Err }

// TransactionTimeoutError is returned when a receipt did not show up before the
// miner's deadline.
type TransactionTimeoutError struct {
	Contract  string
	Operation string
	TxHash    common.Hash
	// Timeout is the bound that applied: the miner's timeout or, when earlier,
	// the caller's deadline.
	Timeout time.Duration
	Err       error
}

func (e *TransactionTimeoutError) Error() string {
	return fmt.Sprintf("%s.%s: transaction %s not mined within %s", e.Contract, e.Operation, e.TxHash.Hex(), e.Timeout)
}

func (e *TransactionTimeoutError) Unwrap() error { return e.Err }

// InterfaceMismatchError is returned by the adapter constructors when the
// contract ABI lacks functions the adapter binds to.
type InterfaceMismatchError struct {
	Contract string
	Missing  []string
}

func (e *InterfaceMismatchError) Error() string {
	return fmt.Sprintf("%s: contract does not expose %s", e.Contract, strings.Join(e.Missing, ", "))
}

func revertReason(data interface{}) string {
	s, ok := data.(string)
	if !ok {
		return ""
	}
	raw, err := hexutil.Decode(s)
	if err != nil {
		return ""
	}
	reason, err := abi.UnpackRevert(raw)
	if err != nil {
		return ""
	}
	return reason
}
