package permits

import (
	"context"
	"testing"
	"time"

	"github.com/dz0nda/quartz-tezos-contracts/contracts"
	"github.com/dz0nda/quartz-tezos-contracts/contracts/fa2"
	"github.com/dz0nda/quartz-tezos-contracts/executor"
	"github.com/dz0nda/quartz-tezos-contracts/executor/executortest"
	"github.com/dz0nda/quartz-tezos-contracts/micheline"
	"github.com/dz0nda/quartz-tezos-contracts/tezos"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const permitsBigMap = 11

func deployed(t *testing.T) (*executortest.Backend, *Permits, *tezos.Account) {
	t.Helper()
	backend := executortest.New()
	p := New(backend, executortest.Scripts{})
	owner := executortest.Account("alice")
	_, err := p.Deploy(context.Background(), owner.Address, executor.As(owner))
	require.NoError(t, err)
	return backend, p, owner
}

// withBigMaps replaces the storage big maps by ids, as the node returns them.
func withBigMaps(t *testing.T, backend *executortest.Backend, p *Permits) {
	t.Helper()
	addr, err := p.Address()
	require.NoError(t, err)
	storage, err := p.Storage(context.Background())
	require.NoError(t, err)
	fields, err := storage.Flatten(numFields)
	require.NoError(t, err)
	fields[fieldPermits] = micheline.NewInt(permitsBigMap)
	fields[fieldMetadata] = micheline.NewInt(permitsBigMap + 1)
	backend.SetStorage(addr, micheline.NewPair(fields...))
}

func TestDeploy(t *testing.T) {
	backend, p, owner := deployed(t)
	ctx := context.Background()

	require.Len(t, backend.Deployments, 1)
	assert.Equal(t, owner.Address, backend.Deployments[0].Params.As.Address)

	got, err := p.GetOwner(ctx)
	require.NoError(t, err)
	assert.Equal(t, owner.Address, got)

	candidate, err := p.GetOwnerCandidate(ctx)
	require.NoError(t, err)
	assert.True(t, candidate.IsNone())

	paused, err := p.GetPaused(ctx)
	require.NoError(t, err)
	assert.False(t, paused)

	consumers, err := p.GetConsumer(ctx)
	require.NoError(t, err)
	assert.Empty(t, consumers)

	expiry, err := p.GetDefaultExpiry(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(DefaultExpiry), expiry.Uint64())
}

func TestNotInitialised(t *testing.T) {
	p := New(executortest.New(), nil)
	_, err := p.Pause(context.Background(), executor.As(executortest.Account("alice")))
	assert.ErrorIs(t, err, contracts.ErrNotInitialised)
	_, err = p.GetOwner(context.Background())
	assert.ErrorIs(t, err, contracts.ErrNotInitialised)
}

func TestEntrypointArguments(t *testing.T) {
	backend, p, owner := deployed(t)
	ctx := context.Background()
	as := executor.As(owner)
	token := executortest.Account("token").Address
	hash := tezos.MustParseBytes("0102")
	sig := owner.Sign(hash)

	tests := []struct {
		name       string
		call       func() error
		entrypoint string
		arg        micheline.Prim
	}{
		{
			name: "add consumer",
			call: func() error { _, err := p.ManageConsumer(ctx, Add(token), as); return err },
			entrypoint: "manage_consumer",
			arg:        micheline.Left(token.ToMich()),
		},
		{
			name: "remove consumer",
			call: func() error { _, err := p.ManageConsumer(ctx, Remove(token), as); return err },
			entrypoint: "manage_consumer",
			arg:        micheline.Right(token.ToMich()),
		},
		{
			name: "set expiry",
			call: func() error {
				_, err := p.SetExpiry(ctx, tezos.Some(tezos.NewNat(0)), tezos.Some(hash), as)
				return err
			},
			entrypoint: "set_expiry",
			arg:        micheline.NewPair(micheline.Some(micheline.NewNat(0)), micheline.Some(micheline.NewBytes(hash))),
		},
		{
			name:       "permit",
			call:       func() error { _, err := p.Permit(ctx, owner.Public, sig, hash, as); return err },
			entrypoint: "permit",
			arg:        micheline.NewPair(owner.Public.ToMich(), sig.ToMich(), micheline.NewBytes(hash)),
		},
		{
			name:       "remove metadata",
			call:       func() error { _, err := p.SetMetadata(ctx, "", tezos.None[tezos.Bytes](), as); return err },
			entrypoint: "set_metadata",
			arg:        micheline.NewPair(micheline.NewString(""), micheline.None()),
		},
		{
			name:       "claim ownership",
			call:       func() error { _, err := p.ClaimOwnership(ctx, as); return err },
			entrypoint: "claim_ownership",
			arg:        micheline.Unit(),
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.NoError(t, tc.call())
			call, ok := backend.LastCall()
			require.True(t, ok)
			assert.Equal(t, tc.entrypoint, call.Entrypoint)
			assert.True(t, micheline.Equal(tc.arg, call.Arg), "got %s", call.Arg.Text())
		})
	}
}

func TestFailure(t *testing.T) {
	backend, p, _ := deployed(t)
	addr, err := p.Address()
	require.NoError(t, err)
	backend.FailWith(addr, "set_expiry", ErrExpiryTooBig)

	_, err = p.SetExpiry(context.Background(), tezos.Some(tezos.NewNat(31556953)), tezos.None[tezos.Bytes](), executor.As(executortest.Account("bob")))
	assert.NoError(t, executor.ExpectFailure(err, ErrExpiryTooBig))
}

func TestPermitsValue(t *testing.T) {
	backend, p, owner := deployed(t)
	withBigMaps(t, backend, p)
	ctx := context.Background()

	counter, err := p.Counter(ctx, owner.Address)
	require.NoError(t, err)
	assert.True(t, counter.IsZero())
	ok, err := p.HasPermitsValue(ctx, owner.Address)
	require.NoError(t, err)
	assert.False(t, ok)

	hash := tezos.Blake2b([]byte("params"))
	createdAt := tezos.Ceil(time.Unix(1700000000, 500))
	want := PermitsValue{
		Counter:    tezos.NewNat(1),
		UserExpiry: tezos.None[tezos.Nat](),
		UserPermits: []tezos.MapEntry[tezos.Bytes, UserPermit]{{
			Key:   hash,
			Value: UserPermit{Expiry: tezos.None[tezos.Nat](), CreatedAt: createdAt},
		}},
	}
	require.NoError(t, backend.SetBigMapValue(permitsBigMap, owner.Address.ToMich(), micheline.TypeAddress(), want.ToMich()))

	got, ok, err := p.GetPermitsValue(ctx, owner.Address)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, want.Equal(got))
	assert.Equal(t, int64(1700000001), got.UserPermits[0].Value.CreatedAt.Unix())

	permit, ok := got.Permit(hash)
	require.True(t, ok)
	assert.True(t, permit.Expiry.IsNone())
	_, ok = got.Permit(tezos.Bytes("other"))
	assert.False(t, ok)

	counter, err = p.Counter(ctx, owner.Address)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), counter.Uint64())
}

func TestMetadataValue(t *testing.T) {
	backend, p, _ := deployed(t)
	withBigMaps(t, backend, p)
	ctx := context.Background()

	ok, err := p.HasMetadataValue(ctx, "")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, backend.SetBigMapValue(permitsBigMap+1, micheline.NewString(""), micheline.TypeString(), micheline.NewBytes([]byte("tezos-storage:data"))))
	v, ok, err := p.GetMetadataValue(ctx, "")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "tezos-storage:data", string(v))
}

func TestSignTransfer(t *testing.T) {
	alice := executortest.Account("alice")
	bob := executortest.Account("bob")
	permitsAddr := executortest.Account("permits").Address
	chainID := tezos.ChainID{1, 2, 3, 4}
	tps := []fa2.TransferParam{fa2.Transfer(alice.Address, bob.Address, tezos.NewNat(0), tezos.NewNat(1000))}

	packed, sig, err := SignTransfer(alice, tps, permitsAddr, chainID, tezos.NewNat(0))
	require.NoError(t, err)
	assert.Equal(t, byte(tezos.PackPrefix), packed[0])

	data, err := TransferPermitData(packed, permitsAddr, chainID, tezos.NewNat(0))
	require.NoError(t, err)
	assert.NoError(t, alice.Public.Verify(data, sig))
	assert.Error(t, bob.Public.Verify(data, sig))

	// a later counter gives different data
	next, err := TransferPermitData(packed, permitsAddr, chainID, tezos.NewNat(1))
	require.NoError(t, err)
	assert.False(t, data.Equal(next))

	assert.True(t, micheline.Equal(
		micheline.NewPair(micheline.NewString("DUP_PERMIT"), micheline.NewBytes(tezos.Blake2b(packed))),
		DupPermitError(packed),
	))
	assert.True(t, micheline.Equal(
		micheline.NewPair(micheline.NewString("MISSIGNED"), micheline.NewBytes(data)),
		MissignedError(data),
	))
}
