package permits

import (
	"github.com/dz0nda/quartz-tezos-contracts/micheline"
	"github.com/dz0nda/quartz-tezos-contracts/tezos"
)

// UserPermit is a registered permit: its own expiry, if any, and when it was
// created.
type UserPermit struct {
	Expiry    tezos.Option[tezos.Nat]
	CreatedAt tezos.Timestamp
}

func (u UserPermit) ToMich() micheline.Prim {
	return micheline.NewPair(tezos.OptionToMich(u.Expiry, tezos.Nat.ToMich), u.CreatedAt.ToMich())
}

func (u UserPermit) Equal(o UserPermit) bool {
	return micheline.Equal(u.ToMich(), o.ToMich())
}

func UserPermitFromMich(p micheline.Prim) (UserPermit, error) {
	var u UserPermit
	fields, err := p.Flatten(2)
	if err != nil {
		return u, err
	}
	if u.Expiry, err = tezos.OptionFromMich(fields[0], tezos.NatFromMich); err != nil {
		return u, err
	}
	u.CreatedAt, err = tezos.TimestampFromMich(fields[1])
	return u, err
}

// PermitsValue holds the permits of one user, keyed by the BLAKE2b hash of
// the permitted parameters.
type PermitsValue struct {
	Counter     tezos.Nat
	UserExpiry  tezos.Option[tezos.Nat]
	UserPermits []tezos.MapEntry[tezos.Bytes, UserPermit]
}

func (v PermitsValue) ToMich() micheline.Prim {
	return micheline.NewPair(
		v.Counter.ToMich(),
		tezos.OptionToMich(v.UserExpiry, tezos.Nat.ToMich),
		tezos.MapToMich(v.UserPermits, tezos.Bytes.ToMich, UserPermit.ToMich),
	)
}

func (v PermitsValue) Equal(o PermitsValue) bool {
	return micheline.Equal(v.ToMich(), o.ToMich())
}

// Permit returns the user permit registered for hash.
func (v PermitsValue) Permit(hash tezos.Bytes) (UserPermit, bool) {
	for _, e := range v.UserPermits {
		if e.Key.Equal(hash) {
			return e.Value, true
		}
	}
	return UserPermit{}, false
}

func PermitsValueFromMich(p micheline.Prim) (PermitsValue, error) {
	var v PermitsValue
	fields, err := p.Flatten(3)
	if err != nil {
		return v, err
	}
	if v.Counter, err = tezos.NatFromMich(fields[0]); err != nil {
		return v, err
	}
	if v.UserExpiry, err = tezos.OptionFromMich(fields[1], tezos.NatFromMich); err != nil {
		return v, err
	}
	v.UserPermits, err = tezos.MapFromMich(fields[2], tezos.BytesFromMich, UserPermitFromMich)
	return v, err
}

// ConsumerUpdate adds (Left) or removes (Right) a permit consumer.
type ConsumerUpdate = tezos.Or[tezos.Address, tezos.Address]

// Add allows the contract addr to consume permits.
func Add(addr tezos.Address) ConsumerUpdate { return tezos.OrLeft[tezos.Address, tezos.Address](addr) }

func Remove(addr tezos.Address) ConsumerUpdate {
	return tezos.OrRight[tezos.Address, tezos.Address](addr)
}
