// Package micheline implements the Micheline data model used by Tezos for
// Michelson values and types, along with its JSON and binary encodings.
package micheline

import (
	"encoding/hex"
	"math/big"
	"strconv"
	"strings"
)

// PrimType is the node kind of a Micheline expression.
type PrimType byte

const (
	PrimInt PrimType = iota
	PrimString
	PrimBytes
	PrimSequence
	PrimNode
)

func (t PrimType) String() string {
	switch t {
	case PrimInt:
		return "int"
	case PrimString:
		return "string"
	case PrimBytes:
		return "bytes"
	case PrimSequence:
		return "sequence"
	case PrimNode:
		return "prim"
	default:
		return "invalid"
	}
}

// Prim is a single Micheline node. Depending on Type only one of Int, String,
// Bytes or OpCode/Args/Anno is meaningful.
type Prim struct {
	Type   PrimType
	OpCode OpCode
	Args   []Prim
	Anno   []string
	Int    *big.Int
	String string
	Bytes  []byte
}

// InvalidPrim is returned by accessors that fail.
var InvalidPrim = Prim{Type: PrimNode, OpCode: 0xff}

func NewInt(i int64) Prim {
	return Prim{Type: PrimInt, Int: big.NewInt(i)}
}

func NewBigInt(i *big.Int) Prim {
	if i == nil {
		i = new(big.Int)
	}
	return Prim{Type: PrimInt, Int: new(big.Int).Set(i)}
}

func NewNat(n uint64) Prim {
	return Prim{Type: PrimInt, Int: new(big.Int).SetUint64(n)}
}

func NewString(s string) Prim {
	return Prim{Type: PrimString, String: s}
}

func NewBytes(b []byte) Prim {
	return Prim{Type: PrimBytes, Bytes: append([]byte{}, b...)}
}

func NewSeq(args ...Prim) Prim {
	if args == nil {
		args = []Prim{}
	}
	return Prim{Type: PrimSequence, Args: args}
}

func NewPrim(op OpCode, args ...Prim) Prim {
	return Prim{Type: PrimNode, OpCode: op, Args: args}
}

// NewPrimAnno creates a primitive carrying annotations, e.g. a field
// annotated type `nat %amount`.
func NewPrimAnno(op OpCode, anno []string, args ...Prim) Prim {
	p := NewPrim(op, args...)
	p.Anno = anno
	return p
}

// NewPair builds a pair. More than two values produce a right comb.
func NewPair(args ...Prim) Prim {
	switch len(args) {
	case 0, 1:
		panic("micheline: pair needs at least two values")
	case 2:
		return NewPrim(D_PAIR, args[0], args[1])
	default:
		return NewPrim(D_PAIR, args[0], NewPair(args[1:]...))
	}
}

func Unit() Prim { return NewPrim(D_UNIT) }

func True() Prim { return NewPrim(D_TRUE) }

func False() Prim { return NewPrim(D_FALSE) }

func NewBool(b bool) Prim {
	if b {
		return True()
	}
	return False()
}

func Some(v Prim) Prim { return NewPrim(D_SOME, v) }

func None() Prim { return NewPrim(D_NONE) }

func Left(v Prim) Prim { return NewPrim(D_LEFT, v) }

func Right(v Prim) Prim { return NewPrim(D_RIGHT, v) }

func Elt(k, v Prim) Prim { return NewPrim(D_ELT, k, v) }

// IsValid reports whether p holds a node of a known kind.
func (p Prim) IsValid() bool {
	switch p.Type {
	case PrimInt:
		return p.Int != nil
	case PrimString, PrimBytes, PrimSequence:
		return true
	case PrimNode:
		return p.OpCode.IsValid()
	}
	return false
}

func (p Prim) IsPair() bool {
	return p.Type == PrimNode && (p.OpCode == D_PAIR || p.OpCode == T_PAIR) && len(p.Args) >= 2
}

func (p Prim) IsSeq() bool { return p.Type == PrimSequence }

// IsPrim reports whether p is the primitive op.
func (p Prim) IsPrim(op OpCode) bool {
	return p.Type == PrimNode && p.OpCode == op
}

// Clone returns a deep copy of p.
func (p Prim) Clone() Prim {
	c := p
	if p.Int != nil {
		c.Int = new(big.Int).Set(p.Int)
	}
	if p.Bytes != nil {
		c.Bytes = append([]byte{}, p.Bytes...)
	}
	if p.Anno != nil {
		c.Anno = append([]string{}, p.Anno...)
	}
	if p.Args != nil {
		c.Args = make([]Prim, len(p.Args))
		for i, a := range p.Args {
			c.Args[i] = a.Clone()
		}
	}
	return c
}

// Text renders p in Michelson concrete syntax, e.g. `Pair "a" 1`.
func (p Prim) Text() string {
	var sb strings.Builder
	p.writeText(&sb, true)
	return sb.String()
}

func (p Prim) writeText(sb *strings.Builder, top bool) {
	switch p.Type {
	case PrimInt:
		if p.Int == nil {
			sb.WriteString("0")
			return
		}
		sb.WriteString(p.Int.String())
	case PrimString:
		sb.WriteString(strconv.Quote(p.String))
	case PrimBytes:
		sb.WriteString("0x")
		sb.WriteString(hex.EncodeToString(p.Bytes))
	case PrimSequence:
		sb.WriteString("{")
		for i, a := range p.Args {
			if i > 0 {
				sb.WriteString(" ;")
			}
			sb.WriteString(" ")
			a.writeText(sb, true)
		}
		if len(p.Args) > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString("}")
	case PrimNode:
		wrap := !top && (len(p.Args) > 0 || len(p.Anno) > 0)
		if wrap {
			sb.WriteString("(")
		}
		sb.WriteString(p.OpCode.String())
		for _, a := range p.Anno {
			sb.WriteString(" ")
			sb.WriteString(a)
		}
		for _, a := range p.Args {
			sb.WriteString(" ")
			a.writeText(sb, false)
		}
		if wrap {
			sb.WriteString(")")
		}
	}
}
