package rpc

import (
	"strconv"
	"time"

	"github.com/dz0nda/quartz-tezos-contracts/micheline"
	"github.com/dz0nda/quartz-tezos-contracts/tezos"
	"github.com/pkg/errors"
)

// BlockID selects a block by alias ("head"), level or hash.
type BlockID string

const Head BlockID = "head"

func BlockLevel(level int64) BlockID { return BlockID(strconv.FormatInt(level, 10)) }

func BlockHashID(h tezos.BlockHash) BlockID { return BlockID(h.String()) }

// Int64 is a number the node encodes as a JSON string, like fees and counters.
type Int64 int64

func (i Int64) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(strconv.FormatInt(int64(i), 10))), nil
}

func (i *Int64) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	if u, err := strconv.Unquote(s); err == nil {
		s = u
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return errors.Wrapf(err, "invalid number %s", data)
	}
	*i = Int64(v)
	return nil
}

func NewInt64(v int64) *Int64 {
	i := Int64(v)
	return &i
}

type Header struct {
	Level       int64           `json:"level"`
	Proto       int             `json:"proto"`
	Predecessor tezos.BlockHash `json:"predecessor"`
	Timestamp   time.Time       `json:"timestamp"`
}

// BlockHeader is the answer of /blocks/<id>/header.
type BlockHeader struct {
	Protocol string          `json:"protocol"`
	ChainID  tezos.ChainID   `json:"chain_id"`
	Hash     tezos.BlockHash `json:"hash"`
	Header
}

type Block struct {
	Protocol   string          `json:"protocol"`
	ChainID    tezos.ChainID   `json:"chain_id"`
	Hash       tezos.BlockHash `json:"hash"`
	Header     Header          `json:"header"`
	Operations [][]Operation   `json:"operations"`
}

// ManagerOperations returns the operations of the manager validation pass,
// where contract calls and originations live.
func (b *Block) ManagerOperations() []Operation {
	if len(b.Operations) < 4 {
		return nil
	}
	return b.Operations[3]
}

// Operation is a group of contents signed together.
type Operation struct {
	Protocol  string               `json:"protocol,omitempty"`
	ChainID   string               `json:"chain_id,omitempty"`
	Hash      *tezos.OperationHash `json:"hash,omitempty"`
	Branch    tezos.BlockHash      `json:"branch"`
	Contents  []Content            `json:"contents"`
	Signature string               `json:"signature,omitempty"`
}

// Operation kinds.
const (
	KindReveal      = "reveal"
	KindTransaction = "transaction"
	KindOrigination = "origination"
	KindEvent       = "event"
)

// Content is a single manager operation. Amount and Balance are only set
// for transactions and originations respectively.
type Content struct {
	Kind         string      `json:"kind"`
	Source       string      `json:"source,omitempty"`
	Fee          Int64       `json:"fee"`
	Counter      Int64       `json:"counter"`
	GasLimit     Int64       `json:"gas_limit"`
	StorageLimit Int64       `json:"storage_limit"`
	Amount       *Int64      `json:"amount,omitempty"`
	Destination  string      `json:"destination,omitempty"`
	Parameters   *Parameters `json:"parameters,omitempty"`
	PublicKey    string      `json:"public_key,omitempty"`
	Balance      *Int64      `json:"balance,omitempty"`
	Script       *Script     `json:"script,omitempty"`
	Metadata     *Metadata   `json:"metadata,omitempty"`
}

type Parameters struct {
	Entrypoint string         `json:"entrypoint"`
	Value      micheline.Prim `json:"value"`
}

type Script struct {
	Code    micheline.Prim `json:"code"`
	Storage micheline.Prim `json:"storage"`
}

type Metadata struct {
	OperationResult          *OperationResult `json:"operation_result,omitempty"`
	InternalOperationResults []InternalResult `json:"internal_operation_results,omitempty"`
}

// Operation result statuses.
const (
	StatusApplied     = "applied"
	StatusFailed      = "failed"
	StatusBacktracked = "backtracked"
	StatusSkipped     = "skipped"
)

type OperationResult struct {
	Status              string          `json:"status"`
	Storage             *micheline.Prim `json:"storage,omitempty"`
	ConsumedMilligas    Int64           `json:"consumed_milligas"`
	StorageSize         Int64           `json:"storage_size"`
	PaidStorageSizeDiff Int64           `json:"paid_storage_size_diff"`
	OriginatedContracts []string        `json:"originated_contracts,omitempty"`
	AllocatedContract   bool            `json:"allocated_destination_contract,omitempty"`
	Errors              []NodeError     `json:"errors,omitempty"`
}

// InternalResult is an operation emitted by a contract. Events carry Tag,
// Type and Payload.
type InternalResult struct {
	Kind        string           `json:"kind"`
	Source      string           `json:"source"`
	Nonce       int64            `json:"nonce"`
	Amount      *Int64           `json:"amount,omitempty"`
	Destination string           `json:"destination,omitempty"`
	Parameters  *Parameters      `json:"parameters,omitempty"`
	Type        *micheline.Prim  `json:"type,omitempty"`
	Tag         string           `json:"tag,omitempty"`
	Payload     *micheline.Prim  `json:"payload,omitempty"`
	Result      *OperationResult `json:"result,omitempty"`
}

// Constants holds the protocol constants used to bound operations.
type Constants struct {
	HardGasLimitPerOperation     Int64 `json:"hard_gas_limit_per_operation"`
	HardGasLimitPerBlock         Int64 `json:"hard_gas_limit_per_block"`
	HardStorageLimitPerOperation Int64 `json:"hard_storage_limit_per_operation"`
	CostPerByte                  Int64 `json:"cost_per_byte"`
	OriginationSize              Int64 `json:"origination_size"`
	MinimalBlockDelay            Int64 `json:"minimal_block_delay"`
}

// BlockTime returns the minimal delay between blocks.
func (c *Constants) BlockTime() time.Duration {
	if c.MinimalBlockDelay <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.MinimalBlockDelay) * time.Second
}

type runOperationRequest struct {
	Operation Operation `json:"operation"`
	ChainID   string    `json:"chain_id"`
}

type forgeRequest struct {
	Branch   tezos.BlockHash `json:"branch"`
	Contents []Content       `json:"contents"`
}

// RunViewRequest calls a callback view (TZIP-4) of a contract.
type RunViewRequest struct {
	Contract      string         `json:"contract"`
	Entrypoint    string         `json:"entrypoint"`
	Input         micheline.Prim `json:"input"`
	ChainID       string         `json:"chain_id"`
	Source        string         `json:"source,omitempty"`
	Payer         string         `json:"payer,omitempty"`
	UnparsingMode string         `json:"unparsing_mode"`
}

type runViewResponse struct {
	Data micheline.Prim `json:"data"`
}
