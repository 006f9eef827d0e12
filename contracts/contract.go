// Package contracts holds what the contract bindings share: the link between
// a binding and its deployed contract, and storage access helpers.
package contracts

import (
	"context"

	"github.com/dz0nda/quartz-tezos-contracts/executor"
	"github.com/dz0nda/quartz-tezos-contracts/micheline"
	"github.com/dz0nda/quartz-tezos-contracts/tezos"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// ErrNotInitialised is returned by a binding used before Deploy or Attach.
var ErrNotInitialised = errors.New("Contract not initialised")

// Contract binds a contract name to a deployed instance on a backend.
type Contract struct {
	name    string
	backend executor.Backend
	scripts executor.ScriptLoader
	address tezos.Address
}

// NewContract creates an unbound contract. scripts may be nil when the
// contract is only attached to an existing address.
func NewContract(name string, backend executor.Backend, scripts executor.ScriptLoader) Contract {
	return Contract{name: name, backend: backend, scripts: scripts}
}

func (c *Contract) Name() string { return c.name }

func (c *Contract) Backend() executor.Backend { return c.backend }

// Attach binds the contract to an already deployed instance.
func (c *Contract) Attach(addr tezos.Address) { c.address = addr }

func (c *Contract) Address() (tezos.Address, error) {
	if !c.address.IsValid() {
		return tezos.ZeroAddress, ErrNotInitialised
	}
	return c.address, nil
}

func (c *Contract) Balance(ctx context.Context) (tezos.Tez, error) {
	addr, err := c.Address()
	if err != nil {
		return 0, err
	}
	return c.backend.Balance(ctx, addr)
}

// Originate loads the contract code, originates it with storage and binds
// the contract to the new address.
func (c *Contract) Originate(ctx context.Context, storage micheline.Prim, params executor.Parameters) (*executor.Receipt, error) {
	if c.scripts == nil {
		return nil, errors.Errorf("no script loader for %s", c.name)
	}
	code, err := c.scripts.Load(c.name)
	if err != nil {
		return nil, err
	}
	addr, receipt, err := c.backend.Deploy(ctx, code, storage, params)
	if err != nil {
		return nil, errors.Wrapf(err, "could not deploy %s", c.name)
	}
	c.address = addr
	log.Info().Str("contract", c.name).Str("address", addr.String()).Msg("contract deployed")
	return receipt, nil
}

func (c *Contract) Invoke(ctx context.Context, entrypoint string, arg micheline.Prim, params executor.Parameters) (*executor.Receipt, error) {
	addr, err := c.Address()
	if err != nil {
		return nil, err
	}
	return c.backend.Call(ctx, addr, entrypoint, arg, params)
}

func (c *Contract) InvokeParameter(ctx context.Context, entrypoint string, arg micheline.Prim, params executor.Parameters) (*executor.CallParameter, error) {
	addr, err := c.Address()
	if err != nil {
		return nil, err
	}
	return c.backend.CallParameter(ctx, addr, entrypoint, arg, params)
}

func (c *Contract) View(ctx context.Context, entrypoint string, arg micheline.Prim, params executor.Parameters) (micheline.Prim, error) {
	addr, err := c.Address()
	if err != nil {
		return micheline.InvalidPrim, err
	}
	return c.backend.View(ctx, addr, entrypoint, arg, params)
}

// Storage returns the raw storage value.
func (c *Contract) Storage(ctx context.Context) (micheline.Prim, error) {
	addr, err := c.Address()
	if err != nil {
		return micheline.InvalidPrim, err
	}
	return c.backend.Storage(ctx, addr)
}

// StorageField returns field i of a storage made of n combed fields.
func (c *Contract) StorageField(ctx context.Context, i, n int) (micheline.Prim, error) {
	storage, err := c.Storage(ctx)
	if err != nil {
		return micheline.InvalidPrim, err
	}
	if n == 1 {
		return storage, nil
	}
	fields, err := storage.Flatten(n)
	if err != nil {
		return micheline.InvalidPrim, errors.Wrapf(err, "invalid %s storage", c.name)
	}
	return fields[i], nil
}

// BigMapValue looks key up in the big map held by storage field i of n.
func (c *Contract) BigMapValue(ctx context.Context, i, n int, key, keyType micheline.Prim) (micheline.Prim, bool, error) {
	field, err := c.StorageField(ctx, i, n)
	if err != nil {
		return micheline.InvalidPrim, false, err
	}
	id, err := field.GetInt()
	if err != nil {
		return micheline.InvalidPrim, false, errors.Wrapf(err, "%s storage field %d is not a big map", c.name, i)
	}
	return c.backend.BigMapValue(ctx, id.Int64(), key, keyType)
}

// MetadataValue reads key from a TZIP-16 metadata big_map(string, bytes)
// held by storage field i of n.
func MetadataValue(ctx context.Context, c *Contract, i, n int, key string) (tezos.Bytes, bool, error) {
	v, ok, err := c.BigMapValue(ctx, i, n, micheline.NewString(key), micheline.TypeString())
	if err != nil || !ok {
		return nil, false, err
	}
	b, err := tezos.BytesFromMich(v)
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}
