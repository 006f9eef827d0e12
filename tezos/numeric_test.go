package tezos

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/dz0nda/quartz-tezos-contracts/micheline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNat(t *testing.T) {
	initial := MustParseNat("123000000000000")
	minted := initial.Plus(NewNat(1000))
	assert.Equal(t, "123000000001000", minted.String())
	assert.True(t, minted.Equal(MustParseNat("123000000001000")))
	assert.Equal(t, int64(-1000), initial.Minus(minted).Int64())

	var zero Nat
	assert.True(t, zero.IsZero())
	assert.True(t, zero.Equal(NewNat(0)))

	huge := MustParseNat("999999999999999999999999999999999999999")
	back, err := NatFromMich(huge.ToMich())
	require.NoError(t, err)
	assert.True(t, huge.Equal(back))

	_, err = ParseNat("-1")
	assert.Error(t, err)
	_, err = NatFromMich(micheline.NewInt(-1))
	assert.Error(t, err)

	out, err := json.Marshal(struct{ N Nat }{minted})
	require.NoError(t, err)
	assert.JSONEq(t, `{"N":"123000000001000"}`, string(out))
}

func TestTez(t *testing.T) {
	v, err := ParseTez("1.5")
	require.NoError(t, err)
	assert.Equal(t, Tez(1500000), v)
	assert.Equal(t, "1.5", v.String())
	assert.Equal(t, "0.000001", Mutez.String())

	_, err = ParseTez("0.0000001")
	assert.Error(t, err)
	_, err = ParseTez("-1")
	assert.Error(t, err)

	back, err := TezFromMich(OneTez.ToMich())
	require.NoError(t, err)
	assert.Equal(t, OneTez, back)
}

func TestTimestamp(t *testing.T) {
	ts, err := ParseTimestamp("2023-01-01T00:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, int64(1672531200), ts.Unix())

	fromInt, err := TimestampFromMich(micheline.NewInt(1672531200))
	require.NoError(t, err)
	assert.True(t, ts.Equal(fromInt))

	fromString, err := TimestampFromMich(micheline.NewString("2023-01-01T00:00:00Z"))
	require.NoError(t, err)
	assert.True(t, ts.Equal(fromString))

	now := time.Date(2023, 1, 1, 0, 0, 0, 250*int(time.Millisecond), time.UTC)
	assert.Equal(t, int64(1672531201), Ceil(now).Unix())
	assert.Equal(t, int64(1672531200), NewTimestamp(now).Unix())
	assert.Equal(t, int64(1672531200), Ceil(now.Truncate(time.Second)).Unix())
}

func TestOptionOrList(t *testing.T) {
	some := Some(NewNat(3))
	p := OptionToMich(some, Nat.ToMich)
	back, err := OptionFromMich(p, NatFromMich)
	require.NoError(t, err)
	v, ok := back.Get()
	assert.True(t, ok)
	assert.True(t, v.Equal(NewNat(3)))

	none, err := OptionFromMich(OptionToMich(None[Nat](), Nat.ToMich), NatFromMich)
	require.NoError(t, err)
	assert.True(t, none.IsNone())

	or := OrRight[Nat, string]("x")
	orBack, err := OrFromMich(OrToMich(or, Nat.ToMich, StringToMich), NatFromMich, StringFromMich)
	require.NoError(t, err)
	assert.False(t, orBack.IsLeft)
	assert.Equal(t, "x", orBack.Right)

	list := []string{"a", "b"}
	listBack, err := ListFromMich(ListToMich(list, StringToMich), StringFromMich)
	require.NoError(t, err)
	assert.Equal(t, list, listBack)

	entries := []MapEntry[string, Bytes]{{Key: "k", Value: Bytes{1}}}
	mapBack, err := MapFromMich(MapToMich(entries, StringToMich, Bytes.ToMich), StringFromMich, BytesFromMich)
	require.NoError(t, err)
	assert.Equal(t, entries, mapBack)
}

func TestHashes(t *testing.T) {
	var bh BlockHash
	copy(bh[:], Blake2b([]byte("block")))
	assert.True(t, strings.HasPrefix(bh.String(), "B"))
	assert.Len(t, bh.String(), 51)
	parsed, err := ParseBlockHash(bh.String())
	require.NoError(t, err)
	assert.Equal(t, bh, parsed)

	oh := OperationHashOf([]byte("op"))
	assert.True(t, strings.HasPrefix(oh.String(), "o"))
	parsedOp, err := ParseOperationHash(oh.String())
	require.NoError(t, err)
	assert.Equal(t, oh, parsedOp)

	chain := ChainID{1, 2, 3, 4}
	assert.True(t, strings.HasPrefix(chain.String(), "Net"))
	parsedChain, err := ParseChainID(chain.String())
	require.NoError(t, err)
	assert.Equal(t, chain, parsedChain)

	assert.Len(t, Blake2b160([]byte("x")), 20)
	_, err = ParseBlockHash(oh.String())
	assert.Error(t, err)
}
