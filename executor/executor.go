// Package executor turns contract deployments and calls into signed manager
// operations and reads contract state back from a node.
package executor

import (
	"context"
	"sync"
	"time"

	"github.com/dz0nda/quartz-tezos-contracts/micheline"
	"github.com/dz0nda/quartz-tezos-contracts/rpc"
	"github.com/dz0nda/quartz-tezos-contracts/tezos"
	"github.com/pkg/errors"
)

// Parameters are the per call options, the account to sign with and the
// amount to send. Zero limits are estimated by simulation.
type Parameters struct {
	As           *tezos.Account
	Amount       tezos.Tez
	Fee          tezos.Tez
	GasLimit     int64
	StorageLimit int64
}

// As is a shorthand for Parameters{As: acc}.
func As(acc *tezos.Account) Parameters { return Parameters{As: acc} }

// Event is a contract event emitted by an operation.
type Event struct {
	Source  tezos.Address
	Tag     string
	Type    micheline.Prim
	Payload micheline.Prim
}

// Receipt describes an included operation.
type Receipt struct {
	Hash         tezos.OperationHash
	Block        tezos.BlockHash
	Level        int64
	Fee          tezos.Tez
	GasLimit     int64
	StorageLimit int64
	ConsumedGas  int64
	Originated   []tezos.Address
	Events       []Event
}

// CallParameter is a contract call that has been built but not sent.
type CallParameter struct {
	Source      tezos.Address
	Destination tezos.Address
	Entrypoint  string
	Value       micheline.Prim
	Amount      tezos.Tez
}

// Backend is what the contract bindings need from a chain.
type Backend interface {
	Deploy(ctx context.Context, code, storage micheline.Prim, params Parameters) (tezos.Address, *Receipt, error)
	Call(ctx context.Context, dest tezos.Address, entrypoint string, arg micheline.Prim, params Parameters) (*Receipt, error)
	CallParameter(ctx context.Context, dest tezos.Address, entrypoint string, arg micheline.Prim, params Parameters) (*CallParameter, error)
	Storage(ctx context.Context, addr tezos.Address) (micheline.Prim, error)
	// BigMapValue returns ok == false when key is not in the big map.
	BigMapValue(ctx context.Context, id int64, key, keyType micheline.Prim) (value micheline.Prim, ok bool, err error)
	Balance(ctx context.Context, addr tezos.Address) (tezos.Tez, error)
	View(ctx context.Context, addr tezos.Address, entrypoint string, arg micheline.Prim, params Parameters) (micheline.Prim, error)
	ChainID(ctx context.Context) (tezos.ChainID, error)
}

// Executor is a Backend talking to a node.
type Executor struct {
	client *rpc.Client

	// MaxWaitBlocks bounds the number of blocks to wait for inclusion,
	// DefaultMaxWaitBlocks when not positive.
	MaxWaitBlocks int64
	// PollInterval overrides the head polling interval, half the block time
	// when not positive.
	PollInterval time.Duration
	// FeeMargin is added to the minimal fee of every operation.
	FeeMargin tezos.Tez

	mu        sync.Mutex
	locks     map[tezos.Address]*sync.Mutex
	chainID   *tezos.ChainID
	constants *rpc.Constants
}

var _ Backend = (*Executor)(nil)

// DefaultMaxWaitBlocks is used when MaxWaitBlocks is not positive.
const DefaultMaxWaitBlocks = 10

func New(client *rpc.Client) *Executor {
	return &Executor{
		client:        client,
		MaxWaitBlocks: DefaultMaxWaitBlocks,
		FeeMargin:     10,
		locks:         make(map[tezos.Address]*sync.Mutex),
	}
}

func (e *Executor) Client() *rpc.Client { return e.client }

// accountLock serialises operations of one source so counters are consumed
// in order.
func (e *Executor) accountLock(addr tezos.Address) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.locks[addr]
	if !ok {
		l = &sync.Mutex{}
		e.locks[addr] = l
	}
	return l
}

func (e *Executor) ChainID(ctx context.Context) (tezos.ChainID, error) {
	e.mu.Lock()
	cached := e.chainID
	e.mu.Unlock()
	if cached != nil {
		return *cached, nil
	}
	id, err := e.client.GetChainID(ctx)
	if err != nil {
		return id, errors.Wrap(err, "could not get chain id")
	}
	e.mu.Lock()
	e.chainID = &id
	e.mu.Unlock()
	return id, nil
}

func (e *Executor) Constants(ctx context.Context) (*rpc.Constants, error) {
	e.mu.Lock()
	cached := e.constants
	e.mu.Unlock()
	if cached != nil {
		return cached, nil
	}
	c, err := e.client.GetConstants(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "could not get protocol constants")
	}
	e.mu.Lock()
	e.constants = c
	e.mu.Unlock()
	return c, nil
}

// Deploy originates a contract with the given code and initial storage.
func (e *Executor) Deploy(ctx context.Context, code, storage micheline.Prim, params Parameters) (tezos.Address, *Receipt, error) {
	op := rpc.Content{
		Kind:    rpc.KindOrigination,
		Balance: rpc.NewInt64(params.Amount.Mutez()),
		Script:  &rpc.Script{Code: code, Storage: storage},
	}
	receipt, err := e.send(ctx, params, op)
	if err != nil {
		return tezos.ZeroAddress, nil, errors.Wrap(err, "origination failed")
	}
	if len(receipt.Originated) == 0 {
		return tezos.ZeroAddress, receipt, errors.New("origination did not create a contract")
	}
	return receipt.Originated[0], receipt, nil
}

// Call sends arg to the entrypoint of dest.
func (e *Executor) Call(ctx context.Context, dest tezos.Address, entrypoint string, arg micheline.Prim, params Parameters) (*Receipt, error) {
	op := rpc.Content{
		Kind:        rpc.KindTransaction,
		Amount:      rpc.NewInt64(params.Amount.Mutez()),
		Destination: dest.String(),
		Parameters:  &rpc.Parameters{Entrypoint: entrypoint, Value: arg},
	}
	return e.send(ctx, params, op)
}

// Transfer sends tez to an account without parameters.
func (e *Executor) Transfer(ctx context.Context, to tezos.Address, params Parameters) (*Receipt, error) {
	op := rpc.Content{
		Kind:        rpc.KindTransaction,
		Amount:      rpc.NewInt64(params.Amount.Mutez()),
		Destination: to.String(),
	}
	return e.send(ctx, params, op)
}

func (e *Executor) CallParameter(_ context.Context, dest tezos.Address, entrypoint string, arg micheline.Prim, params Parameters) (*CallParameter, error) {
	cp := &CallParameter{
		Destination: dest,
		Entrypoint:  entrypoint,
		Value:       arg,
		Amount:      params.Amount,
	}
	if params.As != nil {
		cp.Source = params.As.Address
	}
	return cp, nil
}

func (e *Executor) Storage(ctx context.Context, addr tezos.Address) (micheline.Prim, error) {
	p, err := e.client.GetStorage(ctx, addr)
	if err != nil {
		return p, errors.Wrapf(err, "could not get storage of %s", addr)
	}
	return p, nil
}

func (e *Executor) BigMapValue(ctx context.Context, id int64, key, keyType micheline.Prim) (micheline.Prim, bool, error) {
	hash, err := tezos.KeyHash(key, keyType)
	if err != nil {
		return micheline.InvalidPrim, false, errors.Wrap(err, "could not hash big map key")
	}
	v, err := e.client.GetBigMapValue(ctx, id, hash)
	if errors.Is(err, rpc.ErrNotFound) {
		return micheline.InvalidPrim, false, nil
	}
	if err != nil {
		return micheline.InvalidPrim, false, errors.Wrapf(err, "could not get big map %d value", id)
	}
	return v, true, nil
}

func (e *Executor) Balance(ctx context.Context, addr tezos.Address) (tezos.Tez, error) {
	return e.client.GetBalance(ctx, addr)
}

// View runs a callback view, such as FA2 balance_of, and returns the value
// the contract passes to its callback. A FAILWITH becomes a *ContractError.
func (e *Executor) View(ctx context.Context, addr tezos.Address, entrypoint string, arg micheline.Prim, params Parameters) (micheline.Prim, error) {
	chainID, err := e.ChainID(ctx)
	if err != nil {
		return micheline.InvalidPrim, err
	}
	req := rpc.RunViewRequest{
		Contract:   addr.String(),
		Entrypoint: entrypoint,
		Input:      arg,
		ChainID:    chainID.String(),
	}
	if params.As != nil {
		req.Source = params.As.Address.String()
		req.Payer = req.Source
	}
	v, err := e.client.RunView(ctx, req)
	if err != nil {
		var rpcErr *rpc.Error
		if errors.As(err, &rpcErr) {
			if with, ok := rpcErr.Rejected(); ok {
				return micheline.InvalidPrim, &ContractError{With: with, Errors: rpcErr.Errors}
			}
		}
		return micheline.InvalidPrim, errors.Wrapf(err, "view %s of %s failed", entrypoint, addr)
	}
	return v, nil
}
