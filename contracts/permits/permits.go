// Package permits binds the permits contract, which records off-chain
// signed authorisations (TZIP-17) that token contracts consume.
package permits

import (
	"context"

	"github.com/dz0nda/quartz-tezos-contracts/contracts"
	"github.com/dz0nda/quartz-tezos-contracts/executor"
	"github.com/dz0nda/quartz-tezos-contracts/micheline"
	"github.com/dz0nda/quartz-tezos-contracts/tezos"
)

// DefaultExpiry is the permit lifetime, in seconds, of a new deployment.
const DefaultExpiry = 31556952

// storage fields
const (
	fieldOwner = iota
	fieldOwnerCandidate
	fieldPaused
	fieldConsumer
	fieldPermits
	fieldDefaultExpiry
	fieldMetadata
	numFields
)

type Permits struct {
	contracts.Contract
}

func New(backend executor.Backend, scripts executor.ScriptLoader) *Permits {
	return &Permits{Contract: contracts.NewContract("permits", backend, scripts)}
}

// Deploy originates a permits contract owned by owner.
func (p *Permits) Deploy(ctx context.Context, owner tezos.Address, params executor.Parameters) (*executor.Receipt, error) {
	storage := micheline.NewPair(
		owner.ToMich(),
		micheline.None(),
		micheline.False(),
		micheline.NewSeq(),
		micheline.NewSeq(),
		micheline.NewNat(DefaultExpiry),
		micheline.NewSeq(),
	)
	return p.Originate(ctx, storage, params)
}

func (p *Permits) DeclareOwnership(ctx context.Context, candidate tezos.Address, params executor.Parameters) (*executor.Receipt, error) {
	return p.Invoke(ctx, "declare_ownership", candidate.ToMich(), params)
}

func (p *Permits) ClaimOwnership(ctx context.Context, params executor.Parameters) (*executor.Receipt, error) {
	return p.Invoke(ctx, "claim_ownership", micheline.Unit(), params)
}

func (p *Permits) Pause(ctx context.Context, params executor.Parameters) (*executor.Receipt, error) {
	return p.Invoke(ctx, "pause", micheline.Unit(), params)
}

func (p *Permits) Unpause(ctx context.Context, params executor.Parameters) (*executor.Receipt, error) {
	return p.Invoke(ctx, "unpause", micheline.Unit(), params)
}

// SetMetadata sets, or removes when value is None, a metadata entry.
func (p *Permits) SetMetadata(ctx context.Context, key string, value tezos.Option[tezos.Bytes], params executor.Parameters) (*executor.Receipt, error) {
	arg := micheline.NewPair(micheline.NewString(key), tezos.OptionToMich(value, tezos.Bytes.ToMich))
	return p.Invoke(ctx, "set_metadata", arg, params)
}

func (p *Permits) ManageConsumer(ctx context.Context, update ConsumerUpdate, params executor.Parameters) (*executor.Receipt, error) {
	arg := tezos.OrToMich(update, tezos.Address.ToMich, tezos.Address.ToMich)
	return p.Invoke(ctx, "manage_consumer", arg, params)
}

// SetExpiry sets the expiry of the caller's permits, or of the single permit
// hash when given. An expiry of 0 deletes the permit.
func (p *Permits) SetExpiry(ctx context.Context, expiry tezos.Option[tezos.Nat], hash tezos.Option[tezos.Bytes], params executor.Parameters) (*executor.Receipt, error) {
	arg := micheline.NewPair(tezos.OptionToMich(expiry, tezos.Nat.ToMich), tezos.OptionToMich(hash, tezos.Bytes.ToMich))
	return p.Invoke(ctx, "set_expiry", arg, params)
}

func (p *Permits) SetDefaultExpiry(ctx context.Context, expiry tezos.Nat, params executor.Parameters) (*executor.Receipt, error) {
	return p.Invoke(ctx, "set_default_expiry", expiry.ToMich(), params)
}

func permitArg(key tezos.Key, sig tezos.Signature, data tezos.Bytes) micheline.Prim {
	return micheline.NewPair(key.ToMich(), sig.ToMich(), data.ToMich())
}

// Permit registers the permit for data, the hash of packed parameters,
// signed by the owner of key. Anyone can send it.
func (p *Permits) Permit(ctx context.Context, key tezos.Key, sig tezos.Signature, data tezos.Bytes, params executor.Parameters) (*executor.Receipt, error) {
	return p.Invoke(ctx, "permit", permitArg(key, sig, data), params)
}

func (p *Permits) PermitParam(ctx context.Context, key tezos.Key, sig tezos.Signature, data tezos.Bytes, params executor.Parameters) (*executor.CallParameter, error) {
	return p.InvokeParameter(ctx, "permit", permitArg(key, sig, data), params)
}

// Consume uses the permit of user for data. Only consumers may call it.
func (p *Permits) Consume(ctx context.Context, user tezos.Address, data tezos.Bytes, errMsg string, params executor.Parameters) (*executor.Receipt, error) {
	arg := micheline.NewPair(user.ToMich(), data.ToMich(), micheline.NewString(errMsg))
	return p.Invoke(ctx, "consume", arg, params)
}

// Check verifies and consumes a permit in one step.
func (p *Permits) Check(ctx context.Context, key tezos.Key, sig tezos.Signature, data tezos.Bytes, params executor.Parameters) (*executor.Receipt, error) {
	return p.Invoke(ctx, "check", permitArg(key, sig, data), params)
}

func (p *Permits) GetOwner(ctx context.Context) (tezos.Address, error) {
	f, err := p.StorageField(ctx, fieldOwner, numFields)
	if err != nil {
		return tezos.ZeroAddress, err
	}
	return tezos.AddressFromMich(f)
}

func (p *Permits) GetOwnerCandidate(ctx context.Context) (tezos.Option[tezos.Address], error) {
	f, err := p.StorageField(ctx, fieldOwnerCandidate, numFields)
	if err != nil {
		return tezos.None[tezos.Address](), err
	}
	return tezos.OptionFromMich(f, tezos.AddressFromMich)
}

func (p *Permits) GetPaused(ctx context.Context) (bool, error) {
	f, err := p.StorageField(ctx, fieldPaused, numFields)
	if err != nil {
		return false, err
	}
	return f.GetBool()
}

func (p *Permits) GetConsumer(ctx context.Context) ([]tezos.Address, error) {
	f, err := p.StorageField(ctx, fieldConsumer, numFields)
	if err != nil {
		return nil, err
	}
	return tezos.ListFromMich(f, tezos.AddressFromMich)
}

func (p *Permits) GetDefaultExpiry(ctx context.Context) (tezos.Nat, error) {
	f, err := p.StorageField(ctx, fieldDefaultExpiry, numFields)
	if err != nil {
		return tezos.Nat{}, err
	}
	return tezos.NatFromMich(f)
}

// GetPermitsValue returns the permits of user, ok == false when the user
// never registered one.
func (p *Permits) GetPermitsValue(ctx context.Context, user tezos.Address) (v PermitsValue, ok bool, err error) {
	raw, ok, err := p.BigMapValue(ctx, fieldPermits, numFields, user.ToMich(), micheline.TypeAddress())
	if err != nil || !ok {
		return v, false, err
	}
	v, err = PermitsValueFromMich(raw)
	return v, err == nil, err
}

func (p *Permits) HasPermitsValue(ctx context.Context, user tezos.Address) (bool, error) {
	_, ok, err := p.BigMapValue(ctx, fieldPermits, numFields, user.ToMich(), micheline.TypeAddress())
	return ok, err
}

// Counter returns the permit counter of user, 0 when the user has none yet.
func (p *Permits) Counter(ctx context.Context, user tezos.Address) (tezos.Nat, error) {
	v, _, err := p.GetPermitsValue(ctx, user)
	return v.Counter, err
}

func (p *Permits) GetMetadataValue(ctx context.Context, key string) (tezos.Bytes, bool, error) {
	return contracts.MetadataValue(ctx, &p.Contract, fieldMetadata, numFields, key)
}

func (p *Permits) HasMetadataValue(ctx context.Context, key string) (bool, error) {
	_, ok, err := p.GetMetadataValue(ctx, key)
	return ok, err
}
