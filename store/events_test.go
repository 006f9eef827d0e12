package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/dz0nda/quartz-tezos-contracts/micheline"
	"github.com/dz0nda/quartz-tezos-contracts/tezos"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	syncAddr  = tezos.NewAddress(tezos.AddressTypeContract, tezos.Blake2b160([]byte("sync")))
	otherAddr = tezos.NewAddress(tezos.AddressTypeContract, tezos.Blake2b160([]byte("other")))
)

func record(level int64, op byte, index uint16, source tezos.Address, tag string) Record {
	return Record{
		Level:         level,
		OperationHash: tezos.OperationHash{op},
		Index:         index,
		Timestamp:     time.Unix(1700000000+level, 0).UTC(),
		Source:        source,
		Tag:           tag,
		Payload:       micheline.NewPair(micheline.NewInt(level), micheline.NewString(tag)),
	}
}

func open(t *testing.T) *EventStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "events.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutList(t *testing.T) {
	s := open(t)
	require.NoError(t, s.Put(record(12, 1, 0, syncAddr, "MessageEvent")))
	require.NoError(t, s.Put(record(10, 2, 1, syncAddr, "SyncEvent")))
	require.NoError(t, s.Put(record(10, 2, 0, otherAddr, "SyncEvent")))

	all, err := s.List(Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, int64(10), all[0].Level)
	assert.Equal(t, uint16(0), all[0].Index)
	assert.Equal(t, uint16(1), all[1].Index)
	assert.Equal(t, int64(12), all[2].Level)
	assert.True(t, micheline.Equal(record(12, 1, 0, syncAddr, "MessageEvent").Payload, all[2].Payload))
	assert.Equal(t, syncAddr, all[2].Source)

	sync, err := s.List(Filter{Source: syncAddr, Tag: "SyncEvent"})
	require.NoError(t, err)
	require.Len(t, sync, 1)
	assert.Equal(t, uint16(1), sync[0].Index)

	later, err := s.List(Filter{FromLevel: 11})
	require.NoError(t, err)
	require.Len(t, later, 1)
	assert.Equal(t, "MessageEvent", later[0].Tag)

	first, err := s.List(Filter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, first, 2)
}

func TestPutIsIdempotent(t *testing.T) {
	s := open(t)
	r := record(10, 1, 0, syncAddr, "SyncEvent")
	require.NoError(t, s.Put(r))
	require.NoError(t, s.Put(r))
	n, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
