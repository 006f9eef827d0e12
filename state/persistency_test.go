package state

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dz0nda/quartz-tezos-contracts/tezos"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevel(t *testing.T) {
	p := NewChainPersistency(filepath.Join(t.TempDir(), "state.json"))

	level, err := p.GetLevel()
	require.NoError(t, err)
	assert.Equal(t, int64(0), level)

	require.NoError(t, p.SaveLevel(1234))
	level, err = p.GetLevel()
	require.NoError(t, err)
	assert.Equal(t, int64(1234), level)
}

func TestContractsSurviveLevelUpdates(t *testing.T) {
	p := NewChainPersistency(filepath.Join(t.TempDir(), "state.json"))
	addr := tezos.NewAddress(tezos.AddressTypeContract, tezos.Blake2b160([]byte("sync")))

	_, ok, err := p.GetContract("sync")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, p.SaveContract("sync", addr))
	require.NoError(t, p.SaveLevel(7))

	got, ok, err := p.GetContract("sync")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, addr, got)

	all, err := p.Contracts()
	require.NoError(t, err)
	assert.Len(t, all, 1)
	level, err := p.GetLevel()
	require.NoError(t, err)
	assert.Equal(t, int64(7), level)
}

func TestInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0644))
	_, err := NewChainPersistency(path).GetLevel()
	assert.Error(t, err)
}
