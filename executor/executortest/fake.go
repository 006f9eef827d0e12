// Package executortest provides an in-memory executor.Backend for binding
// tests.
package executortest

import (
	"context"
	"fmt"
	"sync"

	"github.com/dz0nda/quartz-tezos-contracts/executor"
	"github.com/dz0nda/quartz-tezos-contracts/micheline"
	"github.com/dz0nda/quartz-tezos-contracts/tezos"
	"github.com/pkg/errors"
)

// Call is a recorded contract call.
type Call struct {
	Destination tezos.Address
	Entrypoint  string
	Arg         micheline.Prim
	Params      executor.Parameters
}

// Deployment is a recorded origination.
type Deployment struct {
	Address tezos.Address
	Code    micheline.Prim
	Storage micheline.Prim
	Params  executor.Parameters
}

// Backend records deployments and calls and serves storage, big map values
// and views set by the test. It does not run any contract code.
type Backend struct {
	mu sync.Mutex

	Deployments []Deployment
	Calls       []Call

	// OnCall, when set, is run for every call and can fill in the receipt,
	// e.g. with events.
	OnCall func(call Call, receipt *executor.Receipt) error

	chainID  tezos.ChainID
	storages map[tezos.Address]micheline.Prim
	bigMaps  map[int64]map[tezos.ExprHash]micheline.Prim
	views    map[string]micheline.Prim
	failures map[string]micheline.Prim
	balances map[tezos.Address]tezos.Tez
}

var _ executor.Backend = (*Backend)(nil)

func New() *Backend {
	return &Backend{
		chainID:  tezos.ChainID{0x7a, 0x06, 0xa7, 0x70},
		storages: make(map[tezos.Address]micheline.Prim),
		bigMaps:  make(map[int64]map[tezos.ExprHash]micheline.Prim),
		views:    make(map[string]micheline.Prim),
		failures: make(map[string]micheline.Prim),
		balances: make(map[tezos.Address]tezos.Tez),
	}
}

func key(addr tezos.Address, entrypoint string) string {
	return addr.String() + "%" + entrypoint
}

// SetChainID changes the chain id returned by ChainID.
func (b *Backend) SetChainID(id tezos.ChainID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.chainID = id
}

func (b *Backend) SetStorage(addr tezos.Address, storage micheline.Prim) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.storages[addr] = storage
}

// SetBigMapValue stores value under key in the big map id.
func (b *Backend) SetBigMapValue(id int64, k, keyType, value micheline.Prim) error {
	hash, err := tezos.KeyHash(k, keyType)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.bigMaps[id] == nil {
		b.bigMaps[id] = make(map[tezos.ExprHash]micheline.Prim)
	}
	b.bigMaps[id][hash] = value
	return nil
}

// DeleteBigMapValue removes key from the big map id.
func (b *Backend) DeleteBigMapValue(id int64, k, keyType micheline.Prim) error {
	hash, err := tezos.KeyHash(k, keyType)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.bigMaps[id], hash)
	return nil
}

// SetView sets the value returned by the callback view entrypoint of addr.
func (b *Backend) SetView(addr tezos.Address, entrypoint string, value micheline.Prim) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.views[key(addr, entrypoint)] = value
}

// FailWith makes calls and views of entrypoint on addr fail with the given
// value until ClearFailure is called.
func (b *Backend) FailWith(addr tezos.Address, entrypoint string, with micheline.Prim) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[key(addr, entrypoint)] = with
}

func (b *Backend) ClearFailure(addr tezos.Address, entrypoint string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.failures, key(addr, entrypoint))
}

func (b *Backend) SetBalance(addr tezos.Address, balance tezos.Tez) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.balances[addr] = balance
}

// LastCall returns the most recent call, or false when nothing was called.
func (b *Backend) LastCall() (Call, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.Calls) == 0 {
		return Call{}, false
	}
	return b.Calls[len(b.Calls)-1], true
}

func (b *Backend) failure(addr tezos.Address, entrypoint string) error {
	if with, ok := b.failures[key(addr, entrypoint)]; ok {
		return &executor.ContractError{With: with}
	}
	return nil
}

// Deploy records the origination and gives the contract a deterministic
// address. The initial storage is served back by Storage.
func (b *Backend) Deploy(_ context.Context, code, storage micheline.Prim, params executor.Parameters) (tezos.Address, *executor.Receipt, error) {
	if params.As == nil {
		return tezos.ZeroAddress, nil, executor.ErrNoAccount
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	seed := fmt.Sprintf("%s/%d", params.As.Address, len(b.Deployments))
	addr := tezos.NewAddress(tezos.AddressTypeContract, tezos.Blake2b160([]byte(seed)))
	b.Deployments = append(b.Deployments, Deployment{Address: addr, Code: code, Storage: storage, Params: params})
	b.storages[addr] = storage
	b.balances[addr] = params.Amount
	return addr, &executor.Receipt{Originated: []tezos.Address{addr}}, nil
}

func (b *Backend) Call(_ context.Context, dest tezos.Address, entrypoint string, arg micheline.Prim, params executor.Parameters) (*executor.Receipt, error) {
	if params.As == nil {
		return nil, executor.ErrNoAccount
	}
	b.mu.Lock()
	call := Call{Destination: dest, Entrypoint: entrypoint, Arg: arg, Params: params}
	b.Calls = append(b.Calls, call)
	err := b.failure(dest, entrypoint)
	onCall := b.OnCall
	b.mu.Unlock()
	if err != nil {
		return nil, err
	}
	receipt := &executor.Receipt{}
	if onCall != nil {
		if err := onCall(call, receipt); err != nil {
			return nil, err
		}
	}
	return receipt, nil
}

func (b *Backend) CallParameter(_ context.Context, dest tezos.Address, entrypoint string, arg micheline.Prim, params executor.Parameters) (*executor.CallParameter, error) {
	cp := &executor.CallParameter{Destination: dest, Entrypoint: entrypoint, Value: arg, Amount: params.Amount}
	if params.As != nil {
		cp.Source = params.As.Address
	}
	return cp, nil
}

func (b *Backend) Storage(_ context.Context, addr tezos.Address) (micheline.Prim, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.storages[addr]
	if !ok {
		return micheline.InvalidPrim, errors.Errorf("no contract %s", addr)
	}
	return s, nil
}

func (b *Backend) BigMapValue(_ context.Context, id int64, k, keyType micheline.Prim) (micheline.Prim, bool, error) {
	hash, err := tezos.KeyHash(k, keyType)
	if err != nil {
		return micheline.InvalidPrim, false, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.bigMaps[id][hash]
	if !ok {
		return micheline.InvalidPrim, false, nil
	}
	return v, true, nil
}

func (b *Backend) Balance(_ context.Context, addr tezos.Address) (tezos.Tez, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balances[addr], nil
}

func (b *Backend) View(_ context.Context, addr tezos.Address, entrypoint string, _ micheline.Prim, _ executor.Parameters) (micheline.Prim, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.failure(addr, entrypoint); err != nil {
		return micheline.InvalidPrim, err
	}
	v, ok := b.views[key(addr, entrypoint)]
	if !ok {
		return micheline.InvalidPrim, errors.Errorf("no view %s on %s", entrypoint, addr)
	}
	return v, nil
}

func (b *Backend) ChainID(context.Context) (tezos.ChainID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.chainID, nil
}

// Scripts serves contract code by name. Missing names load an empty script.
type Scripts map[string]micheline.Prim

func (s Scripts) Load(name string) (micheline.Prim, error) {
	if code, ok := s[name]; ok {
		return code, nil
	}
	return micheline.NewSeq(), nil
}

// Account derives a deterministic test account from name.
func Account(name string) *tezos.Account {
	return tezos.NewAccount(name, tezos.NewPrivateKeyFromSeed(tezos.Blake2b([]byte(name))))
}
