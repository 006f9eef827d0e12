package tezos

import (
	"bytes"
	"strings"
	"testing"

	"github.com/dz0nda/quartz-tezos-contracts/micheline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(b byte) PrivateKey {
	return NewPrivateKeyFromSeed(bytes.Repeat([]byte{b}, 32))
}

func TestAddressRoundTrip(t *testing.T) {
	implicit := testKey(1).Address()
	contract := NewAddress(AddressTypeContract, bytes.Repeat([]byte{0xab}, 20))

	for _, tc := range []struct {
		addr   Address
		prefix string
	}{
		{implicit, "tz1"},
		{NewAddress(AddressTypeSecp256k1, implicit.Hash[:]), "tz2"},
		{NewAddress(AddressTypeP256, implicit.Hash[:]), "tz3"},
		{NewAddress(AddressTypeBls12_381, implicit.Hash[:]), "tz4"},
		{contract, "KT1"},
	} {
		s := tc.addr.String()
		assert.Len(t, s, 36)
		assert.True(t, strings.HasPrefix(s, tc.prefix), s)

		parsed, err := ParseAddress(s)
		require.NoError(t, err)
		assert.Equal(t, tc.addr, parsed)

		withEntrypoint, err := ParseAddress(s + "%transfer")
		require.NoError(t, err)
		assert.Equal(t, tc.addr, withEntrypoint)
	}
}

func TestAddressBinary(t *testing.T) {
	implicit := testKey(2).Address()
	b, err := implicit.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, b, 22)
	assert.Equal(t, []byte{0x00, 0x00}, b[:2])
	assert.Equal(t, implicit.Hash[:], b[2:])

	contract := NewAddress(AddressTypeContract, bytes.Repeat([]byte{0x11}, 20))
	b, err = contract.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, byte(0x01), b[0])
	assert.Equal(t, byte(0x00), b[21])

	decoded, err := DecodeAddress(b)
	require.NoError(t, err)
	assert.Equal(t, contract, decoded)

	_, err = DecodeAddress(b[:10])
	assert.Error(t, err)
}

func TestAddressErrors(t *testing.T) {
	s := testKey(3).Address().String()
	// flip the last character so the checksum no longer matches
	last := s[len(s)-1]
	repl := byte('a')
	if last == 'a' {
		repl = 'b'
	}
	_, err := ParseAddress(s[:len(s)-1] + string(repl))
	assert.Error(t, err)

	_, err = ParseAddress("tz9" + s[3:])
	assert.ErrorIs(t, err, ErrInvalidAddress)

	_, err = ParseAddress("")
	assert.Error(t, err)
	assert.Panics(t, func() { MustParseAddress("nope") })
}

func TestAddressMich(t *testing.T) {
	a := testKey(4).Address()
	fromString, err := AddressFromMich(a.ToMich())
	require.NoError(t, err)
	assert.Equal(t, a, fromString)

	b, _ := a.MarshalBinary()
	fromBytes, err := AddressFromMich(micheline.NewBytes(b))
	require.NoError(t, err)
	assert.Equal(t, a, fromBytes)

	_, err = AddressFromMich(micheline.NewInt(1))
	assert.Error(t, err)
}

func TestAddressText(t *testing.T) {
	a := testKey(5).Address()
	txt, err := a.MarshalText()
	require.NoError(t, err)
	var back Address
	require.NoError(t, back.UnmarshalText(txt))
	assert.True(t, a.Equal(back))
}
