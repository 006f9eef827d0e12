// Package sync binds the sync contract, which only emits events: SyncEvent
// for broadcast messages and MessageEvent for typed messages.
package sync

import (
	"context"
	"encoding/json"

	"github.com/dz0nda/quartz-tezos-contracts/contracts"
	"github.com/dz0nda/quartz-tezos-contracts/executor"
	"github.com/dz0nda/quartz-tezos-contracts/micheline"
	"github.com/dz0nda/quartz-tezos-contracts/tezos"
	"github.com/dz0nda/quartz-tezos-contracts/watcher"
	"github.com/ethereum/go-ethereum/event"
	"github.com/pkg/errors"
)

// Event tags.
const (
	SyncEventTag    = "SyncEvent"
	MessageEventTag = "MessageEvent"
)

type SyncEvent struct {
	Timestamp tezos.Timestamp `json:"timestamp"`
	Addr      tezos.Address   `json:"addr"`
	Message   string          `json:"message"`
}

func (e SyncEvent) ToMich() micheline.Prim {
	return micheline.NewPair(e.Timestamp.ToMich(), e.Addr.ToMich(), micheline.NewString(e.Message))
}

func (e SyncEvent) Equal(o SyncEvent) bool { return micheline.Equal(e.ToMich(), o.ToMich()) }

func (e SyncEvent) String() string {
	b, _ := json.MarshalIndent(e, "", "  ")
	return string(b)
}

func SyncEventFromMich(p micheline.Prim) (SyncEvent, error) {
	var e SyncEvent
	fields, err := p.Flatten(3)
	if err != nil {
		return e, errors.Wrap(err, "invalid SyncEvent")
	}
	if e.Timestamp, err = tezos.TimestampFromMich(fields[0]); err != nil {
		return e, err
	}
	if e.Addr, err = tezos.AddressFromMich(fields[1]); err != nil {
		return e, err
	}
	e.Message, err = fields[2].GetString()
	return e, err
}

type MessageEvent struct {
	Timestamp  tezos.Timestamp `json:"timestamp"`
	Addr       tezos.Address   `json:"addr"`
	MsgType    string          `json:"msgtype"`
	MsgContent string          `json:"msgcontent"`
}

func (e MessageEvent) ToMich() micheline.Prim {
	return micheline.NewPair(e.Timestamp.ToMich(), e.Addr.ToMich(), micheline.NewString(e.MsgType), micheline.NewString(e.MsgContent))
}

func (e MessageEvent) Equal(o MessageEvent) bool { return micheline.Equal(e.ToMich(), o.ToMich()) }

func (e MessageEvent) String() string {
	b, _ := json.MarshalIndent(e, "", "  ")
	return string(b)
}

func MessageEventFromMich(p micheline.Prim) (MessageEvent, error) {
	var e MessageEvent
	fields, err := p.Flatten(4)
	if err != nil {
		return e, errors.Wrap(err, "invalid MessageEvent")
	}
	if e.Timestamp, err = tezos.TimestampFromMich(fields[0]); err != nil {
		return e, err
	}
	if e.Addr, err = tezos.AddressFromMich(fields[1]); err != nil {
		return e, err
	}
	if e.MsgType, err = fields[2].GetString(); err != nil {
		return e, err
	}
	e.MsgContent, err = fields[3].GetString()
	return e, err
}

// Sync is the binding of a sync contract. Its storage is only the metadata
// big map.
type Sync struct {
	contracts.Contract

	syncFeed    event.Feed
	messageFeed event.Feed
}

func New(backend executor.Backend, scripts executor.ScriptLoader) *Sync {
	return &Sync{Contract: contracts.NewContract("sync", backend, scripts)}
}

func (s *Sync) Deploy(ctx context.Context, params executor.Parameters) (*executor.Receipt, error) {
	return s.Originate(ctx, micheline.NewSeq(), params)
}

func doMessageArg(msgType, msgContent string) micheline.Prim {
	return micheline.NewPair(micheline.NewString(msgType), micheline.NewString(msgContent))
}

// DoEmit emits a SyncEvent carrying message.
func (s *Sync) DoEmit(ctx context.Context, message string, params executor.Parameters) (*executor.Receipt, error) {
	return s.Invoke(ctx, "doEmit", micheline.NewString(message), params)
}

// DoMessage emits a MessageEvent.
func (s *Sync) DoMessage(ctx context.Context, msgType, msgContent string, params executor.Parameters) (*executor.Receipt, error) {
	return s.Invoke(ctx, "doMessage", doMessageArg(msgType, msgContent), params)
}

func (s *Sync) DoEmitParam(ctx context.Context, message string, params executor.Parameters) (*executor.CallParameter, error) {
	return s.InvokeParameter(ctx, "doEmit", micheline.NewString(message), params)
}

func (s *Sync) DoMessageParam(ctx context.Context, msgType, msgContent string, params executor.Parameters) (*executor.CallParameter, error) {
	return s.InvokeParameter(ctx, "doMessage", doMessageArg(msgType, msgContent), params)
}

func (s *Sync) GetMetadataValue(ctx context.Context, key string) (tezos.Bytes, bool, error) {
	return contracts.MetadataValue(ctx, &s.Contract, 0, 1, key)
}

func (s *Sync) HasMetadataValue(ctx context.Context, key string) (bool, error) {
	_, ok, err := s.GetMetadataValue(ctx, key)
	return ok, err
}

// SyncEventProcessor handles a decoded SyncEvent.
type SyncEventProcessor func(SyncEvent, watcher.EventData) error

// MessageEventProcessor handles a decoded MessageEvent.
type MessageEventProcessor func(MessageEvent, watcher.EventData) error

// RegisterSyncEvent has w decode the SyncEvents of the contract for ep.
func (s *Sync) RegisterSyncEvent(w *watcher.Watcher, ep SyncEventProcessor) error {
	addr, err := s.Address()
	if err != nil {
		return err
	}
	w.Register(watcher.Registration{
		Source: addr,
		Filter: watcher.TagFilter(SyncEventTag),
		Process: func(raw micheline.Prim, data watcher.EventData) error {
			ev, err := SyncEventFromMich(raw)
			if err != nil {
				return err
			}
			return ep(ev, data)
		},
	})
	return nil
}

func (s *Sync) RegisterMessageEvent(w *watcher.Watcher, ep MessageEventProcessor) error {
	addr, err := s.Address()
	if err != nil {
		return err
	}
	w.Register(watcher.Registration{
		Source: addr,
		Filter: watcher.TagFilter(MessageEventTag),
		Process: func(raw micheline.Prim, data watcher.EventData) error {
			ev, err := MessageEventFromMich(raw)
			if err != nil {
				return err
			}
			return ep(ev, data)
		},
	})
	return nil
}

// SyncEventLog is a SyncEvent delivered to a subscription.
type SyncEventLog struct {
	SyncEvent
	Raw watcher.EventData
}

type MessageEventLog struct {
	MessageEvent
	Raw watcher.EventData
}

// WatchSyncEvent subscribes sink to the SyncEvents published by Feed. The
// subscription ends with ctx.
func (s *Sync) WatchSyncEvent(ctx context.Context, sink chan<- *SyncEventLog) (event.Subscription, error) {
	if _, err := s.Address(); err != nil {
		return nil, err
	}
	return watch(ctx, s.syncFeed.Subscribe(sink)), nil
}

func (s *Sync) WatchMessageEvent(ctx context.Context, sink chan<- *MessageEventLog) (event.Subscription, error) {
	if _, err := s.Address(); err != nil {
		return nil, err
	}
	return watch(ctx, s.messageFeed.Subscribe(sink)), nil
}

func watch(ctx context.Context, sub event.Subscription) event.Subscription {
	return event.NewSubscription(func(quit <-chan struct{}) error {
		defer sub.Unsubscribe()
		select {
		case err := <-sub.Err():
			return err
		case <-quit:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
}

// Feed registers processors on w that publish every event of the contract
// to the WatchSyncEvent and WatchMessageEvent subscribers. Events published
// while nobody is subscribed are dropped; consumers that must not miss an
// event register with RegisterSyncEvent and RegisterMessageEvent instead.
func (s *Sync) Feed(w *watcher.Watcher) error {
	err := s.RegisterSyncEvent(w, func(ev SyncEvent, data watcher.EventData) error {
		s.syncFeed.Send(&SyncEventLog{SyncEvent: ev, Raw: data})
		return nil
	})
	if err != nil {
		return err
	}
	return s.RegisterMessageEvent(w, func(ev MessageEvent, data watcher.EventData) error {
		s.messageFeed.Send(&MessageEventLog{MessageEvent: ev, Raw: data})
		return nil
	})
}
