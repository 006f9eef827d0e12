package tezos

import (
	"math/big"

	"github.com/dz0nda/quartz-tezos-contracts/micheline"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Nat is a non negative arbitrary precision integer. The zero value is 0.
type Nat struct {
	i *big.Int
}

func NewNat(v uint64) Nat { return Nat{i: new(big.Int).SetUint64(v)} }

// NatFromBig copies v. It panics on negative values.
func NatFromBig(v *big.Int) Nat {
	if v.Sign() < 0 {
		panic("tezos: negative nat")
	}
	return Nat{i: new(big.Int).Set(v)}
}

func ParseNat(s string) (Nat, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return Nat{}, errors.Errorf("invalid nat %q", s)
	}
	return Nat{i: v}, nil
}

func MustParseNat(s string) Nat {
	n, err := ParseNat(s)
	if err != nil {
		panic(err)
	}
	return n
}

func (n Nat) Big() *big.Int {
	if n.i == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(n.i)
}

func (n Nat) Cmp(o Nat) int    { return n.Big().Cmp(o.Big()) }
func (n Nat) Equal(o Nat) bool { return n.Cmp(o) == 0 }
func (n Nat) IsZero() bool     { return n.Big().Sign() == 0 }
func (n Nat) Plus(o Nat) Nat   { return Nat{i: new(big.Int).Add(n.Big(), o.Big())} }
func (n Nat) Minus(o Nat) Int  { return Int{i: new(big.Int).Sub(n.Big(), o.Big())} }
func (n Nat) Uint64() uint64   { return n.Big().Uint64() }
func (n Nat) String() string   { return n.Big().String() }

func (n Nat) ToMich() micheline.Prim { return micheline.NewBigInt(n.Big()) }

func (n Nat) MarshalText() ([]byte, error) { return []byte(n.String()), nil }

func (n *Nat) UnmarshalText(data []byte) error {
	v, err := ParseNat(string(data))
	if err != nil {
		return err
	}
	*n = v
	return nil
}

func NatFromMich(p micheline.Prim) (Nat, error) {
	v, err := p.GetInt()
	if err != nil {
		return Nat{}, err
	}
	if v.Sign() < 0 {
		return Nat{}, errors.Errorf("negative nat %s", v)
	}
	return Nat{i: v}, nil
}

// Int is a signed arbitrary precision integer. The zero value is 0.
type Int struct {
	i *big.Int
}

func NewInt(v int64) Int { return Int{i: big.NewInt(v)} }

func IntFromBig(v *big.Int) Int { return Int{i: new(big.Int).Set(v)} }

func ParseInt(s string) (Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Int{}, errors.Errorf("invalid int %q", s)
	}
	return Int{i: v}, nil
}

func (n Int) Big() *big.Int {
	if n.i == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(n.i)
}

func (n Int) Cmp(o Int) int          { return n.Big().Cmp(o.Big()) }
func (n Int) Equal(o Int) bool       { return n.Cmp(o) == 0 }
func (n Int) Plus(o Int) Int         { return Int{i: new(big.Int).Add(n.Big(), o.Big())} }
func (n Int) Int64() int64           { return n.Big().Int64() }
func (n Int) String() string         { return n.Big().String() }
func (n Int) ToMich() micheline.Prim { return micheline.NewBigInt(n.Big()) }

func (n Int) MarshalText() ([]byte, error) { return []byte(n.String()), nil }

func (n *Int) UnmarshalText(data []byte) error {
	v, err := ParseInt(string(data))
	if err != nil {
		return err
	}
	*n = v
	return nil
}

func IntFromMich(p micheline.Prim) (Int, error) {
	v, err := p.GetInt()
	if err != nil {
		return Int{}, err
	}
	return Int{i: v}, nil
}

// Tez is an amount in mutez.
type Tez int64

const (
	Mutez  Tez = 1
	OneTez Tez = 1000000
)

// ParseTez parses a decimal amount of tez such as "1.5".
func ParseTez(s string) (Tez, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid tez amount %q", s)
	}
	m := d.Shift(6)
	if !m.IsInteger() || m.IsNegative() {
		return 0, errors.Errorf("invalid tez amount %q", s)
	}
	return Tez(m.IntPart()), nil
}

func (t Tez) Mutez() int64 { return int64(t) }

// Decimal returns the amount in tez.
func (t Tez) Decimal() decimal.Decimal { return decimal.New(int64(t), -6) }

func (t Tez) String() string { return t.Decimal().String() }

func (t Tez) ToMich() micheline.Prim { return micheline.NewInt(int64(t)) }

func TezFromMich(p micheline.Prim) (Tez, error) {
	v, err := p.GetInt()
	if err != nil {
		return 0, err
	}
	if !v.IsInt64() || v.Sign() < 0 {
		return 0, errors.Errorf("invalid mutez %s", v)
	}
	return Tez(v.Int64()), nil
}
