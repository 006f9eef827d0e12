// Package store persists the contract events received by the watcher in a
// bbolt database.
package store

import (
	"encoding/binary"
	"encoding/json"
	"time"

	"github.com/dz0nda/quartz-tezos-contracts/micheline"
	"github.com/dz0nda/quartz-tezos-contracts/tezos"
	"github.com/pkg/errors"
	"go.etcd.io/bbolt"
)

var eventsBucket = []byte("events")

// Record is a stored event. Records are ordered by level, then operation
// and position in the operation.
type Record struct {
	Level         int64               `json:"level"`
	BlockHash     tezos.BlockHash     `json:"block"`
	OperationHash tezos.OperationHash `json:"operation"`
	Index         uint16              `json:"index"`
	Timestamp     time.Time           `json:"timestamp"`
	Source        tezos.Address       `json:"source"`
	Tag           string              `json:"tag"`
	Payload       micheline.Prim      `json:"payload"`
}

func (r Record) key() []byte {
	k := make([]byte, 8+len(r.OperationHash)+2)
	binary.BigEndian.PutUint64(k, uint64(r.Level))
	copy(k[8:], r.OperationHash[:])
	binary.BigEndian.PutUint16(k[8+len(r.OperationHash):], r.Index)
	return k
}

type EventStore struct {
	db *bbolt.DB
}

// Open opens, or creates, the event database at path.
func Open(path string) (*EventStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open event store")
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(eventsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to create bucket")
	}
	return &EventStore{db: db}, nil
}

func (s *EventStore) Close() error {
	return s.db.Close()
}

// Put stores r. Storing the same event twice keeps a single record, so
// blocks can be processed again after a restart.
func (s *EventStore) Put(r Record) error {
	value, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(eventsBucket).Put(r.key(), value)
	})
}

// Filter selects records. Zero fields match everything.
type Filter struct {
	Source    tezos.Address
	Tag       string
	FromLevel int64
	Limit     int
}

func (f Filter) match(r Record) bool {
	if f.Source.IsValid() && r.Source != f.Source {
		return false
	}
	return f.Tag == "" || r.Tag == f.Tag
}

// List returns the matching records in chain order.
func (s *EventStore) List(f Filter) ([]Record, error) {
	var records []Record
	start := make([]byte, 8)
	if f.FromLevel > 0 {
		binary.BigEndian.PutUint64(start, uint64(f.FromLevel))
	}
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(eventsBucket).Cursor()
		for k, v := c.Seek(start); k != nil; k, v = c.Next() {
			var r Record
			if err := json.Unmarshal(v, &r); err != nil {
				return errors.Wrapf(err, "invalid record %x", k)
			}
			if !f.match(r) {
				continue
			}
			records = append(records, r)
			if f.Limit > 0 && len(records) == f.Limit {
				return nil
			}
		}
		return nil
	})
	return records, err
}

func (s *EventStore) Count() (n int, err error) {
	err = s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(eventsBucket).ForEach(func(_, _ []byte) error {
			n++
			return nil
		})
	})
	return
}
