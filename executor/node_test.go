package executor

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dz0nda/quartz-tezos-contracts/rpc"
	"github.com/dz0nda/quartz-tezos-contracts/tezos"
	"github.com/stretchr/testify/require"
)

// fakeNode answers the RPCs used by the executor. Operations are simulated
// with the simulate hook and the injected one lands in the next block.
type fakeNode struct {
	t *testing.T

	mu        sync.Mutex
	counter   int64
	revealed  bool
	level     int64
	skipBlock bool // when set the injected operation never shows up
	// levelsPerInjection is how far the head moves after an injection.
	levelsPerInjection int64

	simulate  func(c rpc.Content) rpc.Metadata
	simulated [][]rpc.Content
	forged    []rpc.Content
	injected  [][]byte
	hash      tezos.OperationHash
	bigMaps   map[string]string
	viewError string
}

func newFakeNode(t *testing.T) (*fakeNode, *Executor) {
	n := &fakeNode{
		t:                  t,
		counter:            7,
		revealed:           true,
		level:              10,
		levelsPerInjection: 1,
		simulate:           applied(1500500, 100),
		bigMaps:            map[string]string{},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/chains/main/chain_id", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `"`+tezos.ChainID{1, 2, 3, 4}.String()+`"`)
	})
	mux.HandleFunc("/chains/main/blocks/head/context/constants", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"hard_gas_limit_per_operation":"1040000","hard_gas_limit_per_block":"2600000","hard_storage_limit_per_operation":"60000","cost_per_byte":"250","origination_size":257,"minimal_block_delay":"1"}`)
	})
	mux.HandleFunc("/chains/main/blocks/head/header", n.header)
	mux.HandleFunc("/chains/main/blocks/head/context/contracts/", n.contract)
	mux.HandleFunc("/chains/main/blocks/head/context/big_maps/", n.bigMap)
	mux.HandleFunc("/chains/main/blocks/head/helpers/scripts/run_operation", n.runOperation)
	mux.HandleFunc("/chains/main/blocks/head/helpers/scripts/run_view", n.runView)
	mux.HandleFunc("/chains/main/blocks/head/helpers/forge/operations", n.forge)
	mux.HandleFunc("/injection/operation", n.inject)
	mux.HandleFunc("/chains/main/blocks/", n.block)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	client, err := rpc.NewClient(srv.URL, srv.Client())
	require.NoError(t, err)
	client.SetRateLimit(1000, 1000)

	e := New(client)
	e.PollInterval = 5 * time.Millisecond
	return n, e
}

// applied simulates a successful operation consuming the given milligas and
// paying for storage bytes.
func applied(milligas, storage int64) func(rpc.Content) rpc.Metadata {
	return func(c rpc.Content) rpc.Metadata {
		return rpc.Metadata{OperationResult: &rpc.OperationResult{
			Status:              rpc.StatusApplied,
			ConsumedMilligas:    rpc.Int64(milligas),
			PaidStorageSizeDiff: rpc.Int64(storage),
		}}
	}
}

func (n *fakeNode) header(w http.ResponseWriter, r *http.Request) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintf(w, `{"protocol":"PtNairob","hash":"%s","level":%d}`, blockHash(n.level), n.level)
}

func (n *fakeNode) contract(w http.ResponseWriter, r *http.Request) {
	n.mu.Lock()
	defer n.mu.Unlock()
	switch {
	case strings.HasSuffix(r.URL.Path, "/counter"):
		fmt.Fprintf(w, `"%d"`, n.counter)
	case strings.HasSuffix(r.URL.Path, "/manager_key"):
		if n.revealed {
			io.WriteString(w, `"`+testAccount("any").Public.String()+`"`)
			return
		}
		io.WriteString(w, `null`)
	case strings.HasSuffix(r.URL.Path, "/balance"):
		io.WriteString(w, `"2500000"`)
	case strings.HasSuffix(r.URL.Path, "/storage"):
		io.WriteString(w, `{"int":"42"}`)
	default:
		http.NotFound(w, r)
	}
}

func (n *fakeNode) bigMap(w http.ResponseWriter, r *http.Request) {
	n.mu.Lock()
	defer n.mu.Unlock()
	v, ok := n.bigMaps[strings.TrimPrefix(r.URL.Path, "/chains/main/blocks/head/context/big_maps/")]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `[]`)
		return
	}
	io.WriteString(w, v)
}

func (n *fakeNode) runOperation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Operation rpc.Operation `json:"operation"`
		ChainID   string        `json:"chain_id"`
	}
	require.NoError(n.t, json.NewDecoder(r.Body).Decode(&req))
	n.mu.Lock()
	defer n.mu.Unlock()
	n.simulated = append(n.simulated, req.Operation.Contents)
	contents := n.withMetadata(req.Operation.Contents)
	json.NewEncoder(w).Encode(map[string]interface{}{"contents": contents})
}

func (n *fakeNode) runView(w http.ResponseWriter, r *http.Request) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.viewError != "" {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintf(w, `[{"kind":"temporary","id":"proto.alpha.michelson_v1.script_rejected","with":{"string":"%s"}}]`, n.viewError)
		return
	}
	io.WriteString(w, `{"data":[{"prim":"Pair","args":[{"prim":"Pair","args":[{"string":"tz1"},{"int":"0"}]},{"int":"7"}]}]}`)
}

func (n *fakeNode) withMetadata(contents []rpc.Content) []rpc.Content {
	out := make([]rpc.Content, len(contents))
	for i, c := range contents {
		md := n.simulate(c)
		c.Metadata = &md
		out[i] = c
	}
	return out
}

func (n *fakeNode) forge(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Contents []rpc.Content `json:"contents"`
	}
	require.NoError(n.t, json.NewDecoder(r.Body).Decode(&req))
	n.mu.Lock()
	defer n.mu.Unlock()
	n.forged = req.Contents
	fmt.Fprintf(w, `"%s"`, hex.EncodeToString(forgedBytes(req.Contents)))
}

func forgedBytes(contents []rpc.Content) []byte {
	var buf bytes.Buffer
	for _, c := range contents {
		fmt.Fprintf(&buf, "%s:%d:%d;", c.Kind, c.Counter, c.Fee)
	}
	return buf.Bytes()
}

func (n *fakeNode) inject(w http.ResponseWriter, r *http.Request) {
	var body string
	require.NoError(n.t, json.NewDecoder(r.Body).Decode(&body))
	signed, err := hex.DecodeString(body)
	require.NoError(n.t, err)
	n.mu.Lock()
	defer n.mu.Unlock()
	n.injected = append(n.injected, signed)
	n.hash = tezos.OperationHashOf(signed)
	n.level += n.levelsPerInjection
	fmt.Fprintf(w, `"%s"`, n.hash)
}

func (n *fakeNode) block(w http.ResponseWriter, r *http.Request) {
	var level int64
	if _, err := fmt.Sscanf(strings.TrimPrefix(r.URL.Path, "/chains/main/blocks/"), "%d", &level); err != nil {
		http.NotFound(w, r)
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	block := rpc.Block{
		Protocol:   "PtNairob",
		Hash:       blockHash(level),
		Header:     rpc.Header{Level: level},
		Operations: [][]rpc.Operation{{}, {}, {}, {}},
	}
	if level == n.level && !n.skipBlock && len(n.injected) > 0 {
		hash := n.hash
		block.Operations[3] = append(block.Operations[3], rpc.Operation{
			Hash:     &hash,
			Contents: n.withMetadata(n.forged),
		})
	}
	json.NewEncoder(w).Encode(block)
}

func blockHash(level int64) tezos.BlockHash {
	var h tezos.BlockHash
	copy(h[:], tezos.Blake2b([]byte(fmt.Sprint(level))))
	return h
}

func testAccount(name string) *tezos.Account {
	return tezos.NewAccount(name, tezos.NewPrivateKeyFromSeed(tezos.Blake2b([]byte(name))))
}
