package rpc

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/dz0nda/quartz-tezos-contracts/micheline"
	"github.com/pkg/errors"
)

// ErrNotFound is matched by node answers with status 404, e.g. a missing big
// map key.
var ErrNotFound = errors.New("not found")

// NodeError is one entry of the error list returned by the node.
type NodeError struct {
	Kind     string          `json:"kind"`
	ID       string          `json:"id"`
	Location *int64          `json:"location,omitempty"`
	Contract string          `json:"contract,omitempty"`
	Msg      string          `json:"msg,omitempty"`
	With     json.RawMessage `json:"with,omitempty"`
}

// WithValue returns the FAILWITH value of a script_rejected error.
func (e NodeError) WithValue() (micheline.Prim, bool) {
	if len(e.With) == 0 {
		return micheline.InvalidPrim, false
	}
	p, err := micheline.ParseJSON(e.With)
	if err != nil {
		return micheline.InvalidPrim, false
	}
	return p, true
}

// IsScriptRejected reports whether the error is a FAILWITH of a contract.
func (e NodeError) IsScriptRejected() bool {
	return strings.HasSuffix(e.ID, "script_rejected")
}

func (e NodeError) String() string {
	s := e.ID
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if p, ok := e.WithValue(); ok {
		s += " with " + p.Text()
	}
	return s
}

// Error is a failed request to the node.
type Error struct {
	StatusCode int
	Path       string
	Errors     []NodeError
	Body       string
}

func newError(status int, path string, body []byte) *Error {
	e := &Error{StatusCode: status, Path: path}
	if err := json.Unmarshal(body, &e.Errors); err != nil {
		e.Body = strings.TrimSpace(string(body))
	}
	return e
}

func (e *Error) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("node answered %d on %s: %s", e.StatusCode, e.Path, e.Body)
	}
	msgs := make([]string, len(e.Errors))
	for i, ne := range e.Errors {
		msgs[i] = ne.String()
	}
	return fmt.Sprintf("node answered %d on %s: %s", e.StatusCode, e.Path, strings.Join(msgs, ", "))
}

func (e *Error) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// Rejected returns the FAILWITH value when one of the errors is a rejected
// script.
func (e *Error) Rejected() (micheline.Prim, bool) {
	return rejected(e.Errors)
}

func rejected(errs []NodeError) (micheline.Prim, bool) {
	for _, ne := range errs {
		if !ne.IsScriptRejected() {
			continue
		}
		if p, ok := ne.WithValue(); ok {
			return p, true
		}
	}
	return micheline.InvalidPrim, false
}
