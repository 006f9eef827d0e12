package tezos

import (
	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"
)

// Blake2b returns the 32 byte BLAKE2b digest of data.
func Blake2b(data []byte) []byte {
	h := blake2b.Sum256(data)
	return h[:]
}

// Blake2b160 returns the 20 byte BLAKE2b digest of data, used for key hashes.
func Blake2b160(data []byte) []byte {
	h, err := blake2b.New(20, nil)
	if err != nil {
		// only fails on invalid size or key
		panic(err)
	}
	h.Write(data)
	return h.Sum(nil)
}

type BlockHash [32]byte

func ParseBlockHash(s string) (BlockHash, error) {
	var h BlockHash
	b, err := DecodeBase58(s, PrefixBlock, len(h))
	if err != nil {
		return h, errors.Wrap(err, "invalid block hash")
	}
	copy(h[:], b)
	return h, nil
}

func (h BlockHash) String() string { return EncodeBase58(PrefixBlock, h[:]) }

func (h BlockHash) IsZero() bool { return h == BlockHash{} }

func (h BlockHash) MarshalText() ([]byte, error) { return []byte(h.String()), nil }

func (h *BlockHash) UnmarshalText(data []byte) (err error) {
	*h, err = ParseBlockHash(string(data))
	return
}

type OperationHash [32]byte

func ParseOperationHash(s string) (OperationHash, error) {
	var h OperationHash
	b, err := DecodeBase58(s, PrefixOperation, len(h))
	if err != nil {
		return h, errors.Wrap(err, "invalid operation hash")
	}
	copy(h[:], b)
	return h, nil
}

// OperationHashOf computes the hash of a signed, forged operation.
func OperationHashOf(signed []byte) OperationHash {
	var h OperationHash
	copy(h[:], Blake2b(signed))
	return h
}

func (h OperationHash) String() string { return EncodeBase58(PrefixOperation, h[:]) }

func (h OperationHash) MarshalText() ([]byte, error) { return []byte(h.String()), nil }

func (h *OperationHash) UnmarshalText(data []byte) (err error) {
	*h, err = ParseOperationHash(string(data))
	return
}

// ExprHash is the script expression hash used to address big map keys.
type ExprHash [32]byte

// ScriptExprHash hashes a packed value, as done by the node for big map keys.
func ScriptExprHash(packed []byte) ExprHash {
	var h ExprHash
	copy(h[:], Blake2b(packed))
	return h
}

func ParseExprHash(s string) (ExprHash, error) {
	var h ExprHash
	b, err := DecodeBase58(s, PrefixExpr, len(h))
	if err != nil {
		return h, errors.Wrap(err, "invalid expression hash")
	}
	copy(h[:], b)
	return h, nil
}

func (h ExprHash) String() string { return EncodeBase58(PrefixExpr, h[:]) }

func (h ExprHash) MarshalText() ([]byte, error) { return []byte(h.String()), nil }

func (h *ExprHash) UnmarshalText(data []byte) (err error) {
	*h, err = ParseExprHash(string(data))
	return
}

// ChainID identifies a network, e.g. NetXdQprcVkpaWU for mainnet.
type ChainID [4]byte

func ParseChainID(s string) (ChainID, error) {
	var c ChainID
	b, err := DecodeBase58(s, PrefixChainID, len(c))
	if err != nil {
		return c, errors.Wrap(err, "invalid chain id")
	}
	copy(c[:], b)
	return c, nil
}

func (c ChainID) String() string { return EncodeBase58(PrefixChainID, c[:]) }

func (c ChainID) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *ChainID) UnmarshalText(data []byte) (err error) {
	*c, err = ParseChainID(string(data))
	return
}
