package tezos

import (
	"bytes"
	"encoding/hex"

	"github.com/dz0nda/quartz-tezos-contracts/micheline"
	"github.com/pkg/errors"
)

// Option is a Michelson option value.
type Option[T any] struct {
	Value T
	Valid bool
}

func Some[T any](v T) Option[T] { return Option[T]{Value: v, Valid: true} }

func None[T any]() Option[T] { return Option[T]{} }

func (o Option[T]) Get() (T, bool) { return o.Value, o.Valid }

func (o Option[T]) IsNone() bool { return !o.Valid }

func OptionToMich[T any](o Option[T], conv func(T) micheline.Prim) micheline.Prim {
	if !o.Valid {
		return micheline.None()
	}
	return micheline.Some(conv(o.Value))
}

func OptionFromMich[T any](p micheline.Prim, conv func(micheline.Prim) (T, error)) (Option[T], error) {
	inner, ok, err := p.GetOption()
	if err != nil || !ok {
		return None[T](), err
	}
	v, err := conv(inner)
	if err != nil {
		return None[T](), err
	}
	return Some(v), nil
}

// Or is a Michelson or value, holding Left when IsLeft is set.
type Or[L, R any] struct {
	Left   L
	Right  R
	IsLeft bool
}

func OrLeft[L, R any](v L) Or[L, R] { return Or[L, R]{Left: v, IsLeft: true} }

func OrRight[L, R any](v R) Or[L, R] { return Or[L, R]{Right: v} }

func OrToMich[L, R any](o Or[L, R], left func(L) micheline.Prim, right func(R) micheline.Prim) micheline.Prim {
	if o.IsLeft {
		return micheline.Left(left(o.Left))
	}
	return micheline.Right(right(o.Right))
}

func OrFromMich[L, R any](p micheline.Prim, left func(micheline.Prim) (L, error), right func(micheline.Prim) (R, error)) (Or[L, R], error) {
	var o Or[L, R]
	inner, isLeft, err := p.GetOr()
	if err != nil {
		return o, err
	}
	o.IsLeft = isLeft
	if isLeft {
		o.Left, err = left(inner)
	} else {
		o.Right, err = right(inner)
	}
	return o, err
}

func ListToMich[T any](items []T, conv func(T) micheline.Prim) micheline.Prim {
	out := make([]micheline.Prim, len(items))
	for i, it := range items {
		out[i] = conv(it)
	}
	return micheline.NewSeq(out...)
}

func ListFromMich[T any](p micheline.Prim, conv func(micheline.Prim) (T, error)) ([]T, error) {
	items, err := p.GetSeq()
	if err != nil {
		return nil, err
	}
	out := make([]T, len(items))
	for i, it := range items {
		if out[i], err = conv(it); err != nil {
			return nil, errors.Wrapf(err, "item %d", i)
		}
	}
	return out, nil
}

// MapEntry is one key/value of a Michelson map, kept in chain order.
type MapEntry[K, V any] struct {
	Key   K
	Value V
}

func MapToMich[K, V any](entries []MapEntry[K, V], key func(K) micheline.Prim, value func(V) micheline.Prim) micheline.Prim {
	out := make([]micheline.Prim, len(entries))
	for i, e := range entries {
		out[i] = micheline.Elt(key(e.Key), value(e.Value))
	}
	return micheline.NewSeq(out...)
}

func MapFromMich[K, V any](p micheline.Prim, key func(micheline.Prim) (K, error), value func(micheline.Prim) (V, error)) ([]MapEntry[K, V], error) {
	elts, err := p.GetElts()
	if err != nil {
		return nil, err
	}
	out := make([]MapEntry[K, V], len(elts))
	for i, kv := range elts {
		if out[i].Key, err = key(kv[0]); err != nil {
			return nil, errors.Wrapf(err, "map key %d", i)
		}
		if out[i].Value, err = value(kv[1]); err != nil {
			return nil, errors.Wrapf(err, "map value %d", i)
		}
	}
	return out, nil
}

// Bytes is a Michelson bytes value, hex encoded in text form.
type Bytes []byte

func ParseBytes(s string) (Bytes, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid hex bytes %q", s)
	}
	return b, nil
}

func MustParseBytes(s string) Bytes {
	b, err := ParseBytes(s)
	if err != nil {
		panic(err)
	}
	return b
}

func (b Bytes) String() string               { return hex.EncodeToString(b) }
func (b Bytes) Equal(o Bytes) bool           { return bytes.Equal(b, o) }
func (b Bytes) Blake2b() Bytes               { return Blake2b(b) }
func (b Bytes) ToMich() micheline.Prim       { return micheline.NewBytes(b) }
func (b Bytes) MarshalText() ([]byte, error) { return []byte(b.String()), nil }

func (b *Bytes) UnmarshalText(data []byte) error {
	v, err := ParseBytes(string(data))
	if err != nil {
		return err
	}
	*b = v
	return nil
}

func BytesFromMich(p micheline.Prim) (Bytes, error) {
	b, err := p.GetBytes()
	return Bytes(b), err
}

func StringToMich(s string) micheline.Prim { return micheline.NewString(s) }

func StringFromMich(p micheline.Prim) (string, error) { return p.GetString() }

func BoolFromMich(p micheline.Prim) (bool, error) { return p.GetBool() }

func UnitFromMich(p micheline.Prim) (struct{}, error) {
	if !p.IsUnit() {
		return struct{}{}, errors.Errorf("expected Unit, got %s", p.Text())
	}
	return struct{}{}, nil
}
