// Package state keeps the progress of the event watcher and the addresses
// of deployed contracts in a JSON file.
package state

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/dz0nda/quartz-tezos-contracts/tezos"
	"github.com/pkg/errors"
)

type Chain struct {
	LastLevel int64                    `json:"lastLevel"`
	Contracts map[string]tezos.Address `json:"contracts,omitempty"`
}

type ChainPersistency struct {
	location string
	mu       sync.Mutex
}

// NewChainPersistency creates new ChainPersistency object and returns a reference to it.
func NewChainPersistency(location string) *ChainPersistency {
	return &ChainPersistency{
		location: location,
	}
}

func (b *ChainPersistency) load() (chain Chain, err error) {
	file, err := os.ReadFile(b.location)
	if os.IsNotExist(err) {
		return chain, nil
	}
	if err != nil {
		return
	}
	if err = json.Unmarshal(file, &chain); err != nil {
		return chain, errors.Wrapf(err, "invalid state file %s", b.location)
	}
	return
}

func (b *ChainPersistency) save(chain Chain) error {
	updatedPersistency, err := json.MarshalIndent(chain, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(b.location, updatedPersistency, 0644)
}

func (b *ChainPersistency) update(f func(*Chain)) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	chain, err := b.load()
	if err != nil {
		return err
	}
	f(&chain)
	return b.save(chain)
}

func (b *ChainPersistency) SaveLevel(level int64) error {
	return b.update(func(c *Chain) { c.LastLevel = level })
}

// GetLevel returns the last processed level, 0 when nothing was processed.
func (b *ChainPersistency) GetLevel() (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	chain, err := b.load()
	return chain.LastLevel, err
}

func (b *ChainPersistency) SaveContract(name string, addr tezos.Address) error {
	return b.update(func(c *Chain) {
		if c.Contracts == nil {
			c.Contracts = make(map[string]tezos.Address)
		}
		c.Contracts[name] = addr
	})
}

// GetContract returns the address recorded for name.
func (b *ChainPersistency) GetContract(name string) (addr tezos.Address, ok bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	chain, err := b.load()
	if err != nil {
		return
	}
	addr, ok = chain.Contracts[name]
	return
}

func (b *ChainPersistency) Contracts() (map[string]tezos.Address, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	chain, err := b.load()
	return chain.Contracts, err
}
