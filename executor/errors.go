package executor

import (
	"fmt"
	"strings"

	"github.com/dz0nda/quartz-tezos-contracts/micheline"
	"github.com/dz0nda/quartz-tezos-contracts/rpc"
	"github.com/dz0nda/quartz-tezos-contracts/tezos"
	"github.com/pkg/errors"
)

var (
	// ErrNoAccount is returned when Parameters.As is not set for an operation
	// that needs a signer.
	ErrNoAccount = errors.New("no account to sign the operation with")
	// ErrNotIncluded is returned when an injected operation does not show up
	// within the configured number of blocks.
	ErrNotIncluded = errors.New("operation not included")
	// ErrExpectedFailure is returned by ExpectFailure when the call succeeded.
	ErrExpectedFailure = errors.New("expected the call to fail")
)

// InclusionError is returned when an injected operation is not seen within
// MaxWaitBlocks. The wait can be resumed with WaitInclusion(Hash, Level).
type InclusionError struct {
	Hash tezos.OperationHash
	// Level is the last level searched.
	Level  int64
	Blocks int64
}

func (e *InclusionError) Error() string {
	return fmt.Sprintf("%s: %s after %d blocks", ErrNotIncluded, e.Hash, e.Blocks)
}

func (e *InclusionError) Unwrap() error { return ErrNotIncluded }

// ContractError is returned when a contract aborts with FAILWITH. With holds
// the failure value, e.g. "FA2_INSUFFICIENT_BALANCE" or
// (Pair "MISSIGNED" 0x05...).
type ContractError struct {
	With   micheline.Prim
	Errors []rpc.NodeError
}

func (e *ContractError) Error() string {
	return "contract failed with " + e.With.Text()
}

// OperationError is a failed operation which is not a contract FAILWITH,
// e.g. a balance too low to pay the fees.
type OperationError struct {
	Kind   string
	Errors []rpc.NodeError
}

func (e *OperationError) Error() string {
	ids := make([]string, len(e.Errors))
	for i, ne := range e.Errors {
		ids[i] = ne.String()
	}
	return fmt.Sprintf("%s failed: %s", e.Kind, strings.Join(ids, ", "))
}

func resultError(kind string, errs []rpc.NodeError) error {
	for _, ne := range errs {
		if !ne.IsScriptRejected() {
			continue
		}
		if with, ok := ne.WithValue(); ok {
			return &ContractError{With: with, Errors: errs}
		}
	}
	return &OperationError{Kind: kind, Errors: errs}
}

// FailedWith returns the FAILWITH value carried by err, if any.
func FailedWith(err error) (micheline.Prim, bool) {
	var cerr *ContractError
	if errors.As(err, &cerr) {
		return cerr.With, true
	}
	var rpcErr *rpc.Error
	if errors.As(err, &rpcErr) {
		return rpcErr.Rejected()
	}
	return micheline.InvalidPrim, false
}

// ExpectFailure checks that err is a contract failure with the value want.
// It returns nil when it is and a descriptive error otherwise.
func ExpectFailure(err error, want micheline.Prim) error {
	if err == nil {
		return errors.Wrapf(ErrExpectedFailure, "with %s", want.Text())
	}
	got, ok := FailedWith(err)
	if !ok {
		return errors.Wrapf(err, "expected failure with %s", want.Text())
	}
	if !micheline.Equal(got, want) {
		return errors.Errorf("expected failure with %s, got %s", want.Text(), got.Text())
	}
	return nil
}
