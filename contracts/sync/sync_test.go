package sync

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/dz0nda/quartz-tezos-contracts/contracts"
	"github.com/dz0nda/quartz-tezos-contracts/executor"
	"github.com/dz0nda/quartz-tezos-contracts/executor/executortest"
	"github.com/dz0nda/quartz-tezos-contracts/micheline"
	"github.com/dz0nda/quartz-tezos-contracts/rpc"
	"github.com/dz0nda/quartz-tezos-contracts/tezos"
	"github.com/dz0nda/quartz-tezos-contracts/watcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var bob = executortest.Account("bob")

func deployed(t *testing.T) (*executortest.Backend, *Sync) {
	t.Helper()
	backend := executortest.New()
	s := New(backend, executortest.Scripts{})
	_, err := s.Deploy(context.Background(), executor.As(bob))
	require.NoError(t, err)
	return backend, s
}

func eventBlock(source tezos.Address, level int64, tag string, payload micheline.Prim) *rpc.Block {
	hash := tezos.OperationHash{9}
	return &rpc.Block{
		Header: rpc.Header{Level: level},
		Operations: [][]rpc.Operation{{}, {}, {}, {{
			Hash: &hash,
			Contents: []rpc.Content{{
				Kind: rpc.KindTransaction,
				Metadata: &rpc.Metadata{InternalOperationResults: []rpc.InternalResult{{
					Kind:    rpc.KindEvent,
					Source:  source.String(),
					Tag:     tag,
					Payload: &payload,
				}}},
			}},
		}}},
	}
}

func TestEvents(t *testing.T) {
	sync := SyncEvent{Timestamp: tezos.Unix(1700000000), Addr: bob.Address, Message: "imessage"}
	decoded, err := SyncEventFromMich(sync.ToMich())
	require.NoError(t, err)
	assert.True(t, sync.Equal(decoded))
	assert.Contains(t, sync.String(), `"message": "imessage"`)

	msg := MessageEvent{Timestamp: tezos.Unix(1700000000), Addr: bob.Address, MsgType: "imsgtype", MsgContent: "imsgcontent"}
	decodedMsg, err := MessageEventFromMich(msg.ToMich())
	require.NoError(t, err)
	assert.True(t, msg.Equal(decodedMsg))
	assert.False(t, msg.Equal(MessageEvent{Timestamp: tezos.Unix(1700000001), Addr: bob.Address, MsgType: "imsgtype", MsgContent: "imsgcontent"}))
	assert.True(t, strings.Contains(msg.String(), bob.Address.String()))

	_, err = SyncEventFromMich(micheline.NewString("nope"))
	assert.Error(t, err)
}

func TestCalls(t *testing.T) {
	backend, s := deployed(t)
	ctx := context.Background()

	assert.True(t, micheline.Equal(micheline.NewSeq(), backend.Deployments[0].Storage))

	_, err := s.DoEmit(ctx, "imessage", executor.As(bob))
	require.NoError(t, err)
	call, _ := backend.LastCall()
	assert.Equal(t, "doEmit", call.Entrypoint)
	assert.True(t, micheline.Equal(micheline.NewString("imessage"), call.Arg))

	_, err = s.DoMessage(ctx, "imsgtype", "imsgcontent", executor.As(bob))
	require.NoError(t, err)
	call, _ = backend.LastCall()
	assert.Equal(t, "doMessage", call.Entrypoint)
	assert.True(t, micheline.Equal(micheline.NewPair(micheline.NewString("imsgtype"), micheline.NewString("imsgcontent")), call.Arg))

	cp, err := s.DoMessageParam(ctx, "t", "c", executor.As(bob))
	require.NoError(t, err)
	assert.Equal(t, "doMessage", cp.Entrypoint)
	assert.Equal(t, bob.Address, cp.Source)
	assert.Len(t, backend.Calls, 2)
}

func TestMetadata(t *testing.T) {
	backend, s := deployed(t)
	addr, err := s.Address()
	require.NoError(t, err)
	backend.SetStorage(addr, micheline.NewInt(4))
	require.NoError(t, backend.SetBigMapValue(4, micheline.NewString(""), micheline.TypeString(), micheline.NewBytes([]byte("ipfs://sync"))))

	v, ok, err := s.GetMetadataValue(context.Background(), "")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "ipfs://sync", string(v))

	ok, err = s.HasMetadataValue(context.Background(), "name")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNotInitialised(t *testing.T) {
	s := New(executortest.New(), nil)
	w := watcher.New(nil, nil)
	ctx := context.Background()

	_, err := s.DoEmit(ctx, "m", executor.As(bob))
	assert.ErrorIs(t, err, contracts.ErrNotInitialised)
	assert.EqualError(t, err, "Contract not initialised")
	_, err = s.Balance(ctx)
	assert.ErrorIs(t, err, contracts.ErrNotInitialised)
	assert.ErrorIs(t, s.RegisterSyncEvent(w, nil), contracts.ErrNotInitialised)
	_, err = s.WatchMessageEvent(ctx, make(chan *MessageEventLog))
	assert.ErrorIs(t, err, contracts.ErrNotInitialised)
}

func TestRegisterEvents(t *testing.T) {
	_, s := deployed(t)
	addr, err := s.Address()
	require.NoError(t, err)
	w := watcher.New(nil, nil)

	var syncs []SyncEvent
	var messages []MessageEvent
	require.NoError(t, s.RegisterSyncEvent(w, func(ev SyncEvent, _ watcher.EventData) error {
		syncs = append(syncs, ev)
		return nil
	}))
	require.NoError(t, s.RegisterMessageEvent(w, func(ev MessageEvent, data watcher.EventData) error {
		messages = append(messages, ev)
		assert.Equal(t, int64(3), data.Level)
		return nil
	}))

	msg := MessageEvent{Timestamp: tezos.Unix(1700000000), Addr: bob.Address, MsgType: "imsgtype", MsgContent: "imsgcontent"}
	require.NoError(t, w.ProcessBlock(eventBlock(addr, 3, MessageEventTag, msg.ToMich())))
	assert.Empty(t, syncs)
	require.Len(t, messages, 1)
	assert.True(t, msg.Equal(messages[0]))

	// a payload that does not decode is an error
	assert.Error(t, w.ProcessBlock(eventBlock(addr, 4, SyncEventTag, micheline.Unit())))
}

func TestWatchSyncEvent(t *testing.T) {
	_, s := deployed(t)
	addr, err := s.Address()
	require.NoError(t, err)
	w := watcher.New(nil, nil)
	require.NoError(t, s.Feed(w))

	ctx, cancel := context.WithCancel(context.Background())
	sink := make(chan *SyncEventLog, 1)
	sub, err := s.WatchSyncEvent(ctx, sink)
	require.NoError(t, err)

	ev := SyncEvent{Timestamp: tezos.Unix(1700000000), Addr: bob.Address, Message: "imessage"}
	require.NoError(t, w.ProcessBlock(eventBlock(addr, 8, SyncEventTag, ev.ToMich())))

	select {
	case got := <-sink:
		assert.True(t, ev.Equal(got.SyncEvent))
		assert.Equal(t, int64(8), got.Raw.Level)
	case <-time.After(5 * time.Second):
		t.Fatal("no event")
	}

	cancel()
	select {
	case err := <-sub.Err():
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("subscription not closed")
	}
}
