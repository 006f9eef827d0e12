// Package scenario deploys the whole contract set and drives the behavioral
// suites of the contracts against a node.
package scenario

import (
	"context"

	"github.com/dz0nda/quartz-tezos-contracts/contracts/alephtoken"
	"github.com/dz0nda/quartz-tezos-contracts/contracts/nft"
	"github.com/dz0nda/quartz-tezos-contracts/contracts/permits"
	"github.com/dz0nda/quartz-tezos-contracts/contracts/sync"
	"github.com/dz0nda/quartz-tezos-contracts/executor"
	"github.com/dz0nda/quartz-tezos-contracts/micheline"
	"github.com/dz0nda/quartz-tezos-contracts/state"
	"github.com/dz0nda/quartz-tezos-contracts/tezos"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Names under which the deployed contracts are recorded.
const (
	NameAlephTokenPermits = "permits_aleph_token"
	NameAlephToken        = "aleph_token"
	NameSync              = "sync"
	NameNFTPermits        = "permits"
	NameNFT               = "nft"
)

// Names lists the contracts in deployment order.
var Names = []string{NameAlephTokenPermits, NameAlephToken, NameSync, NameNFTPermits, NameNFT}

// Deployment is the full contract set: the token and its permits, the sync
// contract and the NFT collection with its own permits.
type Deployment struct {
	AlephTokenPermits *permits.Permits
	AlephToken        *alephtoken.AlephToken
	Sync              *sync.Sync
	NFTPermits        *permits.Permits
	NFT               *nft.NFT
}

func NewDeployment(backend executor.Backend, scripts executor.ScriptLoader) *Deployment {
	return &Deployment{
		AlephTokenPermits: permits.New(backend, scripts),
		AlephToken:        alephtoken.New(backend, scripts),
		Sync:              sync.New(backend, scripts),
		NFTPermits:        permits.New(backend, scripts),
		NFT:               nft.New(backend, scripts),
	}
}

type addressed interface {
	Address() (tezos.Address, error)
	Attach(tezos.Address)
	Storage(ctx context.Context) (micheline.Prim, error)
}

func (d *Deployment) contracts() map[string]addressed {
	return map[string]addressed{
		NameAlephTokenPermits: d.AlephTokenPermits,
		NameAlephToken:        d.AlephToken,
		NameSync:              d.Sync,
		NameNFTPermits:        d.NFTPermits,
		NameNFT:               d.NFT,
	}
}

// DeployAll originates the contracts as originator, in dependency order, and
// registers both token contracts as consumers of their permits. The
// originator owns the contracts while they are set up; when owner is another
// address it is then declared owner candidate of every owned contract and
// becomes owner once it calls ClaimOwnership on each of them.
func (d *Deployment) DeployAll(ctx context.Context, owner tezos.Address, originator *tezos.Account) error {
	as := executor.As(originator)
	admin := originator.Address
	if _, err := d.AlephTokenPermits.Deploy(ctx, admin, as); err != nil {
		return err
	}
	tokenPermits, _ := d.AlephTokenPermits.Address()
	if _, err := d.AlephToken.Deploy(ctx, admin, tokenPermits, as); err != nil {
		return err
	}
	token, _ := d.AlephToken.Address()
	if _, err := d.Sync.Deploy(ctx, as); err != nil {
		return err
	}
	syncAddr, _ := d.Sync.Address()
	if _, err := d.NFTPermits.Deploy(ctx, admin, as); err != nil {
		return err
	}
	nftPermits, _ := d.NFTPermits.Address()
	if _, err := d.NFT.Deploy(ctx, admin, nftPermits, token, syncAddr, as); err != nil {
		return err
	}
	collection, _ := d.NFT.Address()

	if _, err := d.AlephTokenPermits.ManageConsumer(ctx, permits.Add(token), as); err != nil {
		return errors.Wrap(err, "could not add aleph_token as permit consumer")
	}
	if _, err := d.NFTPermits.ManageConsumer(ctx, permits.Add(collection), as); err != nil {
		return errors.Wrap(err, "could not add nft as permit consumer")
	}
	log.Info().Str("aleph_token", token.String()).Str("nft", collection.String()).Str("sync", syncAddr.String()).Msg("contracts deployed")

	if owner == admin {
		return nil
	}
	return d.DeclareOwnership(ctx, owner, as)
}

// DeclareOwnership makes candidate the owner candidate of every contract
// that has an owner.
func (d *Deployment) DeclareOwnership(ctx context.Context, candidate tezos.Address, params executor.Parameters) error {
	for _, c := range d.owned() {
		if _, err := c.declare(ctx, candidate, params); err != nil {
			return errors.Wrapf(err, "could not declare %s owner of %s", candidate, c.name)
		}
	}
	log.Info().Str("candidate", candidate.String()).Msg("ownership declared, to be claimed by the candidate")
	return nil
}

// ClaimOwnership claims every contract that has an owner, as the declared
// candidate.
func (d *Deployment) ClaimOwnership(ctx context.Context, params executor.Parameters) error {
	for _, c := range d.owned() {
		if _, err := c.claim(ctx, params); err != nil {
			return errors.Wrapf(err, "could not claim ownership of %s", c.name)
		}
	}
	return nil
}

type ownedContract struct {
	name    string
	declare func(context.Context, tezos.Address, executor.Parameters) (*executor.Receipt, error)
	claim   func(context.Context, executor.Parameters) (*executor.Receipt, error)
}

// owned lists the contracts with an owner in deployment order. The sync
// contract has none.
func (d *Deployment) owned() []ownedContract {
	return []ownedContract{
		{NameAlephTokenPermits, d.AlephTokenPermits.DeclareOwnership, d.AlephTokenPermits.ClaimOwnership},
		{NameAlephToken, d.AlephToken.DeclareOwnership, d.AlephToken.ClaimOwnership},
		{NameNFTPermits, d.NFTPermits.DeclareOwnership, d.NFTPermits.ClaimOwnership},
		{NameNFT, d.NFT.DeclareOwnership, d.NFT.ClaimOwnership},
	}
}

// Addresses returns the address of every contract by name.
func (d *Deployment) Addresses() (map[string]tezos.Address, error) {
	addrs := make(map[string]tezos.Address)
	for name, c := range d.contracts() {
		addr, err := c.Address()
		if err != nil {
			return nil, errors.Wrap(err, name)
		}
		addrs[name] = addr
	}
	return addrs, nil
}

// Storage reads the storage of the named contract.
func (d *Deployment) Storage(ctx context.Context, name string) (micheline.Prim, error) {
	c, ok := d.contracts()[name]
	if !ok {
		return micheline.InvalidPrim, errors.Errorf("unknown contract %s", name)
	}
	return c.Storage(ctx)
}

// Save records the deployed addresses.
func (d *Deployment) Save(p *state.ChainPersistency) error {
	for name, c := range d.contracts() {
		addr, err := c.Address()
		if err != nil {
			continue
		}
		if err := p.SaveContract(name, addr); err != nil {
			return err
		}
	}
	return nil
}

// Load attaches the contracts recorded in p. Contracts missing from p stay
// unbound.
func (d *Deployment) Load(p *state.ChainPersistency) error {
	for name, c := range d.contracts() {
		addr, ok, err := p.GetContract(name)
		if err != nil {
			return err
		}
		if ok {
			c.Attach(addr)
		}
	}
	return nil
}

// DeployAll deploys a new contract set on backend.
func DeployAll(ctx context.Context, backend executor.Backend, scripts executor.ScriptLoader, owner tezos.Address, originator *tezos.Account) (*Deployment, error) {
	d := NewDeployment(backend, scripts)
	if err := d.DeployAll(ctx, owner, originator); err != nil {
		return nil, err
	}
	return d, nil
}
