package tezos

import (
	"strings"

	"github.com/dz0nda/quartz-tezos-contracts/micheline"
	"github.com/pkg/errors"
)

type AddressType byte

const (
	AddressTypeInvalid AddressType = iota
	AddressTypeEd25519
	AddressTypeSecp256k1
	AddressTypeP256
	AddressTypeBls12_381
	AddressTypeContract
)

var ErrInvalidAddress = errors.New("invalid address")

func (t AddressType) prefix() []byte {
	switch t {
	case AddressTypeEd25519:
		return PrefixTz1
	case AddressTypeSecp256k1:
		return PrefixTz2
	case AddressTypeP256:
		return PrefixTz3
	case AddressTypeBls12_381:
		return PrefixTz4
	case AddressTypeContract:
		return PrefixKT1
	}
	return nil
}

// Address is an implicit (tz1..tz4) or originated (KT1) account.
type Address struct {
	Type AddressType
	Hash [20]byte
}

// ZeroAddress is the invalid, unset address.
var ZeroAddress = Address{}

func NewAddress(typ AddressType, hash []byte) Address {
	a := Address{Type: typ}
	copy(a.Hash[:], hash)
	return a
}

// ParseAddress decodes a base58 address. An entrypoint suffix such as
// `KT1...%transfer` is ignored.
func ParseAddress(s string) (Address, error) {
	if i := strings.IndexByte(s, '%'); i >= 0 {
		s = s[:i]
	}
	if len(s) != 36 {
		return ZeroAddress, errors.Wrapf(ErrInvalidAddress, "%q", s)
	}
	var typ AddressType
	switch s[:3] {
	case "tz1":
		typ = AddressTypeEd25519
	case "tz2":
		typ = AddressTypeSecp256k1
	case "tz3":
		typ = AddressTypeP256
	case "tz4":
		typ = AddressTypeBls12_381
	case "KT1":
		typ = AddressTypeContract
	default:
		return ZeroAddress, errors.Wrapf(ErrInvalidAddress, "%q", s)
	}
	hash, err := DecodeBase58(s, typ.prefix(), 20)
	if err != nil {
		return ZeroAddress, errors.Wrapf(ErrInvalidAddress, "%q: %s", s, err)
	}
	return NewAddress(typ, hash), nil
}

// MustParseAddress is like ParseAddress but panics on error.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Address) IsValid() bool {
	return a.Type != AddressTypeInvalid && a.Type <= AddressTypeContract
}

func (a Address) IsContract() bool { return a.Type == AddressTypeContract }

func (a Address) Equal(b Address) bool { return a == b }

func (a Address) String() string {
	if !a.IsValid() {
		return ""
	}
	return EncodeBase58(a.Type.prefix(), a.Hash[:])
}

// MarshalBinary returns the 22 byte optimized form used by PACK.
func (a Address) MarshalBinary() ([]byte, error) {
	if !a.IsValid() {
		return nil, ErrInvalidAddress
	}
	buf := make([]byte, 22)
	if a.IsContract() {
		buf[0] = 0x01
		copy(buf[1:], a.Hash[:])
		return buf, nil
	}
	buf[1] = byte(a.Type - AddressTypeEd25519)
	copy(buf[2:], a.Hash[:])
	return buf, nil
}

// DecodeAddress parses the optimized binary form. Trailing entrypoint bytes
// are ignored.
func DecodeAddress(b []byte) (Address, error) {
	if len(b) < 22 {
		return ZeroAddress, errors.Wrapf(ErrInvalidAddress, "short binary address of %d bytes", len(b))
	}
	switch b[0] {
	case 0x00:
		if b[1] > 3 {
			return ZeroAddress, errors.Wrapf(ErrInvalidAddress, "unknown implicit tag %d", b[1])
		}
		return NewAddress(AddressTypeEd25519+AddressType(b[1]), b[2:22]), nil
	case 0x01:
		return NewAddress(AddressTypeContract, b[1:21]), nil
	}
	return ZeroAddress, errors.Wrapf(ErrInvalidAddress, "unknown address tag %d", b[0])
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*a = ZeroAddress
		return nil
	}
	v, err := ParseAddress(string(data))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

func (a Address) ToMich() micheline.Prim {
	return micheline.NewString(a.String())
}

// AddressFromMich accepts both the readable string and the optimized bytes form.
func AddressFromMich(p micheline.Prim) (Address, error) {
	switch p.Type {
	case micheline.PrimString:
		return ParseAddress(p.String)
	case micheline.PrimBytes:
		return DecodeAddress(p.Bytes)
	}
	return ZeroAddress, errors.Wrapf(ErrInvalidAddress, "unexpected micheline %s", p.Text())
}
