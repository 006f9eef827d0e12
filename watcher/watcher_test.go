package watcher

import (
	"context"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/dz0nda/quartz-tezos-contracts/micheline"
	"github.com/dz0nda/quartz-tezos-contracts/rpc"
	"github.com/dz0nda/quartz-tezos-contracts/state"
	"github.com/dz0nda/quartz-tezos-contracts/tezos"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	syncAddr  = tezos.NewAddress(tezos.AddressTypeContract, tezos.Blake2b160([]byte("sync")))
	otherAddr = tezos.NewAddress(tezos.AddressTypeContract, tezos.Blake2b160([]byte("other")))
)

type fakeNode struct {
	mu      sync.Mutex
	head    int64
	blocks  map[int64]*rpc.Block
	fetched []int64
}

func newFakeNode(head int64) *fakeNode {
	return &fakeNode{head: head, blocks: make(map[int64]*rpc.Block)}
}

func (n *fakeNode) GetHead(context.Context) (*rpc.BlockHeader, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return &rpc.BlockHeader{Header: rpc.Header{Level: n.head}}, nil
}

func (n *fakeNode) GetBlock(_ context.Context, id rpc.BlockID) (*rpc.Block, error) {
	level, err := strconv.ParseInt(string(id), 10, 64)
	if err != nil {
		return nil, err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.fetched = append(n.fetched, level)
	if b, ok := n.blocks[level]; ok {
		return b, nil
	}
	return &rpc.Block{Header: rpc.Header{Level: level}}, nil
}

func event(source tezos.Address, tag string, payload micheline.Prim) rpc.InternalResult {
	return rpc.InternalResult{
		Kind:    rpc.KindEvent,
		Source:  source.String(),
		Tag:     tag,
		Payload: &payload,
		Result:  &rpc.OperationResult{Status: rpc.StatusApplied},
	}
}

func blockWith(level int64, events ...rpc.InternalResult) *rpc.Block {
	hash := tezos.OperationHash{byte(level)}
	return &rpc.Block{
		Hash:   tezos.BlockHash{byte(level)},
		Header: rpc.Header{Level: level, Timestamp: time.Unix(1700000000+level, 0).UTC()},
		Operations: [][]rpc.Operation{{}, {}, {}, {{
			Hash: &hash,
			Contents: []rpc.Content{{
				Kind:     rpc.KindTransaction,
				Metadata: &rpc.Metadata{InternalOperationResults: events},
			}},
		}}},
	}
}

type collected struct {
	payload micheline.Prim
	data    EventData
}

func collector() (*[]collected, Processor) {
	var got []collected
	return &got, func(payload micheline.Prim, data EventData) error {
		got = append(got, collected{payload, data})
		return nil
	}
}

func TestProcessBlockFiltersBySourceAndTag(t *testing.T) {
	w := New(newFakeNode(0), nil)
	syncEvents, process := collector()
	w.Register(Registration{Source: syncAddr, Filter: TagFilter("SyncEvent"), Process: process})
	allEvents, processAll := collector()
	w.Register(Registration{Source: syncAddr, Process: processAll})

	failed := event(syncAddr, "SyncEvent", micheline.NewString("failed"))
	failed.Result = &rpc.OperationResult{Status: rpc.StatusBacktracked}
	block := blockWith(5,
		event(syncAddr, "SyncEvent", micheline.NewString("a")),
		event(otherAddr, "SyncEvent", micheline.NewString("b")),
		event(syncAddr, "MessageEvent", micheline.NewString("c")),
		failed,
	)

	require.NoError(t, w.ProcessBlock(block))

	require.Len(t, *syncEvents, 1)
	got := (*syncEvents)[0]
	assert.True(t, micheline.Equal(micheline.NewString("a"), got.payload))
	assert.Equal(t, int64(5), got.data.Level)
	assert.Equal(t, tezos.BlockHash{5}, got.data.BlockHash)
	assert.Equal(t, tezos.OperationHash{5}, got.data.OperationHash)
	assert.Equal(t, int64(1700000005), got.data.Timestamp.Unix())

	require.Len(t, *allEvents, 2)
	assert.Equal(t, 0, (*allEvents)[0].data.Index)
	assert.Equal(t, 2, (*allEvents)[1].data.Index)
}

func TestProcessorError(t *testing.T) {
	w := New(newFakeNode(0), nil)
	w.Register(Registration{Source: syncAddr, Process: func(micheline.Prim, EventData) error {
		return errors.New("boom")
	}})
	err := w.ProcessBlock(blockWith(3, event(syncAddr, "SyncEvent", micheline.Unit())))
	assert.ErrorContains(t, err, "boom")
}

func TestStartResumesAfterPersistedLevel(t *testing.T) {
	node := newFakeNode(8)
	node.blocks[7] = blockWith(7, event(syncAddr, "SyncEvent", micheline.NewString("seven")))
	persistency := state.NewChainPersistency(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, persistency.SaveLevel(5))

	w := New(node, persistency)
	w.PollInterval = time.Millisecond
	received := make(chan micheline.Prim, 1)
	w.Register(Registration{Source: syncAddr, Process: func(p micheline.Prim, _ EventData) error {
		received <- p
		return nil
	}})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx, 0) }()

	select {
	case p := <-received:
		assert.True(t, micheline.Equal(micheline.NewString("seven"), p))
	case <-time.After(5 * time.Second):
		t.Fatal("no event")
	}
	require.Eventually(t, func() bool {
		level, err := persistency.GetLevel()
		return err == nil && level == 8
	}, 5*time.Second, time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	node.mu.Lock()
	defer node.mu.Unlock()
	assert.Equal(t, []int64{6, 7, 8}, node.fetched)
}

func TestStartFromHeadOrFlag(t *testing.T) {
	for _, tc := range []struct {
		name      string
		fromLevel int64
		first     int64
	}{
		{"head", 0, 20},
		{"flag", 18, 18},
	} {
		t.Run(tc.name, func(t *testing.T) {
			node := newFakeNode(20)
			w := New(node, nil)
			w.PollInterval = time.Millisecond
			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error, 1)
			go func() { done <- w.Start(ctx, tc.fromLevel) }()
			require.Eventually(t, func() bool {
				node.mu.Lock()
				defer node.mu.Unlock()
				return len(node.fetched) > 0 && node.fetched[len(node.fetched)-1] == 20
			}, 5*time.Second, time.Millisecond)
			cancel()
			<-done
			node.mu.Lock()
			defer node.mu.Unlock()
			assert.Equal(t, tc.first, node.fetched[0])
		})
	}
}

func TestStartWithoutPollInterval(t *testing.T) {
	for _, interval := range []time.Duration{0, -time.Second} {
		node := newFakeNode(3)
		w := New(node, nil)
		w.PollInterval = interval
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- w.Start(ctx, 2) }()
		require.Eventually(t, func() bool {
			node.mu.Lock()
			defer node.mu.Unlock()
			return len(node.fetched) == 2
		}, 5*time.Second, time.Millisecond)
		cancel()
		assert.ErrorIs(t, <-done, context.Canceled)
	}
}

func TestStartStopsBeforeSavingFailedLevel(t *testing.T) {
	node := newFakeNode(7)
	node.blocks[7] = blockWith(7, event(syncAddr, "SyncEvent", micheline.Unit()))
	persistency := state.NewChainPersistency(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, persistency.SaveLevel(5))

	w := New(node, persistency)
	w.PollInterval = time.Millisecond
	w.Register(Registration{Source: syncAddr, Process: func(micheline.Prim, EventData) error {
		return errors.New("store unavailable")
	}})

	err := w.Start(context.Background(), 0)
	assert.ErrorContains(t, err, "store unavailable")
	level, err := persistency.GetLevel()
	require.NoError(t, err)
	assert.Equal(t, int64(6), level)
}
