package tezos

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountsFile(t *testing.T) {
	accounts := Accounts{}
	accounts.Add(NewAccount("alice", testKey(30)))
	accounts.Add(NewAccount("bob", testKey(31)))

	data, err := accounts.Marshal()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "accounts.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	loaded, err := LoadAccounts(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, loaded.Names())

	alice, err := loaded.Get("alice")
	require.NoError(t, err)
	assert.Equal(t, testKey(30).Address(), alice.Address)
	assert.True(t, alice.Public.Equal(testKey(30).Public()))

	_, err = loaded.Get("carl")
	assert.ErrorIs(t, err, ErrUnknownAccount)
}

func TestParseAccountsErrors(t *testing.T) {
	secret := testKey(32).String()
	other := testKey(33).Address().String()

	_, err := ParseAccounts([]byte("accounts:\n  - name: alice\n    secret: " + secret + "\n    address: " + other + "\n"))
	assert.Error(t, err, "address mismatch")

	_, err = ParseAccounts([]byte("accounts:\n  - name: alice\n    secret: " + secret + "\n  - name: alice\n    secret: " + secret + "\n"))
	assert.Error(t, err, "duplicate")

	_, err = ParseAccounts([]byte("accounts:\n  - secret: " + secret + "\n"))
	assert.Error(t, err, "missing name")

	_, err = ParseAccounts([]byte("accounts:\n  - name: alice\n    secret: nope\n"))
	assert.Error(t, err)
}

func TestAccountSign(t *testing.T) {
	acc := NewAccount("alice", testKey(34))
	sig := acc.Sign([]byte("data"))
	require.NoError(t, acc.Public.Verify([]byte("data"), sig))
	assert.Contains(t, acc.String(), acc.Address.String())
}
