package main

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/dz0nda/quartz-tezos-contracts/contracts/sync"
	"github.com/dz0nda/quartz-tezos-contracts/micheline"
	"github.com/dz0nda/quartz-tezos-contracts/store"
	"github.com/dz0nda/quartz-tezos-contracts/tezos"
	"github.com/dz0nda/quartz-tezos-contracts/watcher"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

func record(source tezos.Address, tag string, ev interface{ ToMich() micheline.Prim }, raw watcher.EventData) store.Record {
	return store.Record{
		Level:         raw.Level,
		BlockHash:     raw.BlockHash,
		OperationHash: raw.OperationHash,
		Index:         uint16(raw.Index),
		Timestamp:     raw.Timestamp,
		Source:        source,
		Tag:           tag,
		Payload:       ev.ToMich(),
	}
}

// eventStorer stores the events of the sync contract from within the watcher
// loop. An event that cannot be stored fails its block, so the watcher does
// not record the level and picks the block up again on restart.
type eventStorer struct {
	ctx     context.Context
	source  tezos.Address
	events  *store.EventStore
	backoff func() backoff.BackOff
}

func newEventStorer(ctx context.Context, source tezos.Address, events *store.EventStore) *eventStorer {
	return &eventStorer{
		ctx:    ctx,
		source: source,
		events: events,
		backoff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.MaxElapsedTime = time.Minute
			return b
		},
	}
}

// register has w hand the events of s to the storer.
func (es *eventStorer) register(s *sync.Sync, w *watcher.Watcher) error {
	if err := s.RegisterSyncEvent(w, es.storeSyncEvent); err != nil {
		return err
	}
	return s.RegisterMessageEvent(w, es.storeMessageEvent)
}

func (es *eventStorer) storeSyncEvent(ev sync.SyncEvent, raw watcher.EventData) error {
	log.Info().Str("addr", ev.Addr.String()).Str("message", ev.Message).Int64("level", raw.Level).Msg("sync event")
	return es.put(record(es.source, sync.SyncEventTag, ev, raw))
}

func (es *eventStorer) storeMessageEvent(ev sync.MessageEvent, raw watcher.EventData) error {
	log.Info().Str("addr", ev.Addr.String()).Str("type", ev.MsgType).Int64("level", raw.Level).Msg("message event")
	return es.put(record(es.source, sync.MessageEventTag, ev, raw))
}

func (es *eventStorer) put(r store.Record) error {
	err := backoff.RetryNotify(func() error {
		return es.events.Put(r)
	}, backoff.WithContext(es.backoff(), es.ctx), func(err error, next time.Duration) {
		log.Warn().Err(err).Dur("retry", next).Msg("storing event failed")
	})
	return errors.Wrapf(err, "could not store %s event of level %d", r.Tag, r.Level)
}
