package main

import (
	"testing"

	"github.com/dz0nda/quartz-tezos-contracts/tezos"
	"github.com/stretchr/testify/assert"
)

func TestConfigValidate(t *testing.T) {
	c := Config{}
	assert.Error(t, c.Validate())
	c.NodeURL = "http://localhost:20000"
	assert.Error(t, c.Validate(), "db path missing")
	c.DBPath = "./events.db"
	assert.NoError(t, c.Validate())

	c.SyncContract = tezos.NewAddress(tezos.AddressTypeEd25519, make([]byte, 20)).String()
	assert.Error(t, c.Validate(), "implicit account")
	c.SyncContract = tezos.NewAddress(tezos.AddressTypeContract, make([]byte, 20)).String()
	assert.NoError(t, c.Validate())

	c.RescanFromLevel = -1
	assert.Error(t, c.Validate())
	c.RescanFromLevel = 0
	c.NodeURL = "ws://localhost:20000"
	assert.Error(t, c.Validate())
}
