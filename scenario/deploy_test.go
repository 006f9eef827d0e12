package scenario

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/dz0nda/quartz-tezos-contracts/executor"
	"github.com/dz0nda/quartz-tezos-contracts/executor/executortest"
	"github.com/dz0nda/quartz-tezos-contracts/micheline"
	"github.com/dz0nda/quartz-tezos-contracts/state"
	"github.com/dz0nda/quartz-tezos-contracts/tezos"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeployAll(t *testing.T) {
	backend := executortest.New()
	scripts := executortest.Scripts{}
	for _, name := range []string{"permits", "aleph_token", "sync", "nft"} {
		scripts[name] = micheline.NewSeq(micheline.NewString(name))
	}
	alice := executortest.Account("alice")
	originator := executortest.Account("originator")
	ctx := context.Background()

	d, err := DeployAll(ctx, backend, scripts, alice.Address, originator)
	require.NoError(t, err)

	var order []string
	for _, dep := range backend.Deployments {
		name, err := dep.Code.Args[0].GetString()
		require.NoError(t, err)
		order = append(order, name)
		assert.Equal(t, originator.Address, dep.Params.As.Address)
	}
	assert.Equal(t, []string{"permits", "aleph_token", "sync", "permits", "nft"}, order)

	tokenPermits, _ := d.AlephTokenPermits.Address()
	token, _ := d.AlephToken.Address()
	syncAddr, _ := d.Sync.Address()
	nftPermits, _ := d.NFTPermits.Address()
	collection, _ := d.NFT.Address()

	got, err := d.AlephToken.GetPermits(ctx)
	require.NoError(t, err)
	assert.Equal(t, tokenPermits, got)
	for _, check := range []struct {
		get  func(context.Context) (interface{}, error)
		want interface{}
	}{
		{func(ctx context.Context) (interface{}, error) { return d.NFT.GetPermits(ctx) }, nftPermits},
		{func(ctx context.Context) (interface{}, error) { return d.NFT.GetAlephToken(ctx) }, token},
		{func(ctx context.Context) (interface{}, error) { return d.NFT.GetSync(ctx) }, syncAddr},
		{func(ctx context.Context) (interface{}, error) { return d.NFT.GetOwner(ctx) }, originator.Address},
		{func(ctx context.Context) (interface{}, error) { return d.AlephToken.GetOwner(ctx) }, originator.Address},
	} {
		v, err := check.get(ctx)
		require.NoError(t, err)
		assert.Equal(t, check.want, v)
	}

	// consumers are registered by the originator, which then hands the
	// contracts over to alice
	require.Len(t, backend.Calls, 6)
	assert.Equal(t, tokenPermits, backend.Calls[0].Destination)
	assert.Equal(t, "manage_consumer", backend.Calls[0].Entrypoint)
	assert.True(t, micheline.Equal(micheline.Left(token.ToMich()), backend.Calls[0].Arg))
	assert.Equal(t, nftPermits, backend.Calls[1].Destination)
	assert.True(t, micheline.Equal(micheline.Left(collection.ToMich()), backend.Calls[1].Arg))
	var declared []tezos.Address
	for _, call := range backend.Calls[2:] {
		assert.Equal(t, "declare_ownership", call.Entrypoint)
		assert.True(t, micheline.Equal(alice.Address.ToMich(), call.Arg))
		declared = append(declared, call.Destination)
	}
	for _, call := range backend.Calls {
		assert.Equal(t, originator.Address, call.Params.As.Address)
	}
	assert.Equal(t, []tezos.Address{tokenPermits, token, nftPermits, collection}, declared)

	require.NoError(t, d.ClaimOwnership(ctx, executor.As(alice)))
	require.Len(t, backend.Calls, 10)
	for i, call := range backend.Calls[6:] {
		assert.Equal(t, "claim_ownership", call.Entrypoint)
		assert.Equal(t, declared[i], call.Destination)
		assert.Equal(t, alice.Address, call.Params.As.Address)
	}
}

func TestDeployAllAsOwner(t *testing.T) {
	backend := executortest.New()
	alice := executortest.Account("alice")
	d, err := DeployAll(context.Background(), backend, executortest.Scripts{}, alice.Address, alice)
	require.NoError(t, err)

	owner, err := d.NFT.GetOwner(context.Background())
	require.NoError(t, err)
	assert.Equal(t, alice.Address, owner)
	require.Len(t, backend.Calls, 2)
	for _, call := range backend.Calls {
		assert.Equal(t, "manage_consumer", call.Entrypoint)
	}
}

func TestDeployAllReportsDeclareFailure(t *testing.T) {
	alice := executortest.Account("alice")
	originator := executortest.Account("originator")

	first := NewDeployment(executortest.New(), executortest.Scripts{})
	require.NoError(t, first.DeployAll(context.Background(), alice.Address, originator))
	collection, err := first.NFT.Address()
	require.NoError(t, err)

	backend := executortest.New()
	backend.FailWith(collection, "declare_ownership", micheline.NewString("INVALID_CALLER"))
	err = NewDeployment(backend, executortest.Scripts{}).DeployAll(context.Background(), alice.Address, originator)
	assert.ErrorContains(t, err, "owner of nft")
	assert.NoError(t, executor.ExpectFailure(err, micheline.NewString("INVALID_CALLER")))
}

func TestDeployAllReportsConsumerFailure(t *testing.T) {
	alice := executortest.Account("alice")

	// addresses only depend on the originator and the deployment order
	first := NewDeployment(executortest.New(), executortest.Scripts{})
	require.NoError(t, first.DeployAll(context.Background(), alice.Address, alice))
	tokenPermits, err := first.AlephTokenPermits.Address()
	require.NoError(t, err)

	backend := executortest.New()
	backend.FailWith(tokenPermits, "manage_consumer", micheline.NewString("INVALID_CALLER"))
	err = NewDeployment(backend, executortest.Scripts{}).DeployAll(context.Background(), alice.Address, alice)
	assert.ErrorContains(t, err, "permit consumer")
	assert.Len(t, backend.Deployments, 5)
}

func TestSaveLoad(t *testing.T) {
	backend := executortest.New()
	alice := executortest.Account("alice")
	d, err := DeployAll(context.Background(), backend, executortest.Scripts{}, alice.Address, alice)
	require.NoError(t, err)

	p := state.NewChainPersistency(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, d.Save(p))

	loaded := NewDeployment(backend, nil)
	require.NoError(t, loaded.Load(p))
	for name, c := range d.contracts() {
		want, err := c.Address()
		require.NoError(t, err)
		got, err := loaded.contracts()[name].Address()
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
}

func TestAddressesAndStorage(t *testing.T) {
	backend := executortest.New()
	alice := executortest.Account("alice")
	d := NewDeployment(backend, executortest.Scripts{})
	_, err := d.Addresses()
	assert.Error(t, err, "nothing deployed")

	require.NoError(t, d.DeployAll(context.Background(), alice.Address, alice))
	addrs, err := d.Addresses()
	require.NoError(t, err)
	require.Len(t, addrs, len(Names))
	for i, dep := range backend.Deployments {
		assert.Equal(t, dep.Address, addrs[Names[i]], Names[i])
	}

	storage, err := d.Storage(context.Background(), NameSync)
	require.NoError(t, err)
	assert.True(t, micheline.Equal(micheline.NewSeq(), storage))
	_, err = d.Storage(context.Background(), "unknown")
	assert.Error(t, err)
}
