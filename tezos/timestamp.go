package tezos

import (
	"strconv"
	"time"

	"github.com/dz0nda/quartz-tezos-contracts/micheline"
	"github.com/pkg/errors"
)

// Timestamp is a point in time with second precision, as stored on chain.
type Timestamp struct {
	t time.Time
}

func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{t: t.Truncate(time.Second).UTC()}
}

func Unix(sec int64) Timestamp { return Timestamp{t: time.Unix(sec, 0).UTC()} }

// Ceil rounds t up to the next second, which is what the chain records for
// a timestamp taken mid-second.
func Ceil(t time.Time) Timestamp {
	if t.Truncate(time.Second).Equal(t) {
		return NewTimestamp(t)
	}
	return NewTimestamp(t.Add(time.Second))
}

// ParseTimestamp accepts RFC3339 strings and unix seconds.
func ParseTimestamp(s string) (Timestamp, error) {
	if sec, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Unix(sec), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Timestamp{}, errors.Wrapf(err, "invalid timestamp %q", s)
	}
	return NewTimestamp(t), nil
}

func (ts Timestamp) Time() time.Time         { return ts.t }
func (ts Timestamp) Unix() int64             { return ts.t.Unix() }
func (ts Timestamp) IsZero() bool            { return ts.t.IsZero() }
func (ts Timestamp) Equal(o Timestamp) bool  { return ts.t.Unix() == o.t.Unix() }
func (ts Timestamp) Before(o Timestamp) bool { return ts.t.Unix() < o.t.Unix() }
func (ts Timestamp) String() string          { return ts.t.Format(time.RFC3339) }

func (ts Timestamp) MarshalText() ([]byte, error) { return []byte(ts.String()), nil }

func (ts *Timestamp) UnmarshalText(data []byte) error {
	v, err := ParseTimestamp(string(data))
	if err != nil {
		return err
	}
	*ts = v
	return nil
}

// ToMich returns the optimized (seconds) form.
func (ts Timestamp) ToMich() micheline.Prim { return micheline.NewInt(ts.Unix()) }

func TimestampFromMich(p micheline.Prim) (Timestamp, error) {
	switch p.Type {
	case micheline.PrimInt:
		if !p.Int.IsInt64() {
			return Timestamp{}, errors.Errorf("timestamp %s out of range", p.Int)
		}
		return Unix(p.Int.Int64()), nil
	case micheline.PrimString:
		return ParseTimestamp(p.String)
	}
	return Timestamp{}, errors.Errorf("unexpected micheline timestamp %s", p.Text())
}
