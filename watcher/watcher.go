// Package watcher follows the chain block by block and hands the events
// emitted by contracts to the processors registered for them.
package watcher

import (
	"context"
	"sync"
	"time"

	"github.com/dz0nda/quartz-tezos-contracts/executor"
	"github.com/dz0nda/quartz-tezos-contracts/micheline"
	"github.com/dz0nda/quartz-tezos-contracts/rpc"
	"github.com/dz0nda/quartz-tezos-contracts/state"
	"github.com/dz0nda/quartz-tezos-contracts/tezos"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

// defines prometheus metrics
var (
	promLevel = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tzcontracts_watcher_level",
		Help: "last block level processed by the watcher",
	})

	promEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tzcontracts_watcher_events_total",
		Help: "number of contract events dispatched, by tag",
	}, []string{"tag"})

	// PromCollectors lists the watcher metrics, to be registered by the
	// program exposing them.
	PromCollectors = []prometheus.Collector{promLevel, promEvents}
)

// EventData locates an event on chain.
type EventData struct {
	BlockHash     tezos.BlockHash
	Level         int64
	Timestamp     time.Time
	OperationHash tezos.OperationHash
	// Index is the position of the event in its operation.
	Index int
}

// Processor handles the payload of an event.
type Processor func(payload micheline.Prim, data EventData) error

// Registration selects the events of Source whose tag passes Filter.
type Registration struct {
	Source  tezos.Address
	Filter  func(tag string) bool
	Process Processor
}

// Node is the part of the node RPC the watcher reads blocks from.
type Node interface {
	GetHead(ctx context.Context) (*rpc.BlockHeader, error)
	GetBlock(ctx context.Context, id rpc.BlockID) (*rpc.Block, error)
}

// DefaultPollInterval is the head polling interval of a new watcher.
const DefaultPollInterval = 5 * time.Second

type Watcher struct {
	node             Node
	blockPersistency *state.ChainPersistency

	// PollInterval is how often the head is polled once the watcher caught
	// up with the chain, DefaultPollInterval when not positive.
	PollInterval time.Duration

	mu            sync.RWMutex
	registrations []Registration
}

// New creates a watcher. blockPersistency may be nil, the progress is then
// not saved.
func New(node Node, blockPersistency *state.ChainPersistency) *Watcher {
	return &Watcher{
		node:             node,
		blockPersistency: blockPersistency,
		PollInterval:     DefaultPollInterval,
	}
}

func (w *Watcher) Register(r Registration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.registrations = append(w.registrations, r)
}

// TagFilter matches a single tag.
func TagFilter(tag string) func(string) bool {
	return func(t string) bool { return t == tag }
}

func (w *Watcher) matching(ev executor.Event) []Registration {
	w.mu.RLock()
	defer w.mu.RUnlock()
	var regs []Registration
	for _, r := range w.registrations {
		if r.Source != ev.Source {
			continue
		}
		if r.Filter != nil && !r.Filter(ev.Tag) {
			continue
		}
		regs = append(regs, r)
	}
	return regs
}

// ProcessBlock dispatches the events of block to the registered processors.
// A processor error stops the block.
func (w *Watcher) ProcessBlock(block *rpc.Block) error {
	for _, op := range block.ManagerOperations() {
		var hash tezos.OperationHash
		if op.Hash != nil {
			hash = *op.Hash
		}
		index := 0
		for _, c := range op.Contents {
			events, err := executor.ExtractEvents(c)
			if err != nil {
				return errors.Wrapf(err, "block %d", block.Header.Level)
			}
			for _, ev := range events {
				data := EventData{
					BlockHash:     block.Hash,
					Level:         block.Header.Level,
					Timestamp:     block.Header.Timestamp,
					OperationHash: hash,
					Index:         index,
				}
				index++
				for _, r := range w.matching(ev) {
					log.Debug().Str("source", ev.Source.String()).Str("tag", ev.Tag).Int64("level", data.Level).Msg("event")
					if err := r.Process(ev.Payload, data); err != nil {
						return errors.Wrapf(err, "could not process %s event of %s", ev.Tag, hash)
					}
					promEvents.WithLabelValues(ev.Tag).Inc()
				}
			}
		}
	}
	return nil
}

// Start follows the chain from fromLevel until ctx is done. Without a level
// it resumes after the persisted level, or starts at the head.
func (w *Watcher) Start(ctx context.Context, fromLevel int64) error {
	// If the user provides a level to rescan from, use that
	// Otherwise use the saved level in the persistency file
	if fromLevel == 0 && w.blockPersistency != nil {
		saved, err := w.blockPersistency.GetLevel()
		if err != nil {
			return err
		}
		if saved > 0 {
			fromLevel = saved + 1
		}
	}
	// If there is no explicit starting block, just use the current block
	if fromLevel == 0 {
		head, err := w.node.GetHead(ctx)
		if err != nil {
			return errors.Wrap(err, "could not get head")
		}
		fromLevel = head.Level
	}
	log.Info().Int64("start", fromLevel).Msg("Watching for contract events")

	interval := w.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	next := fromLevel
	for {
		head, err := w.node.GetHead(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("could not get head")
		}
		for ; head != nil && next <= head.Level; next++ {
			block, err := w.node.GetBlock(ctx, rpc.BlockLevel(next))
			if err != nil {
				return errors.Wrapf(err, "could not get block %d", next)
			}
			if err := w.ProcessBlock(block); err != nil {
				return err
			}
			promLevel.Set(float64(next))
			if w.blockPersistency != nil {
				if err := w.blockPersistency.SaveLevel(next); err != nil {
					return errors.Wrap(err, "could not save level")
				}
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
