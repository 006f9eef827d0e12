package micheline

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// binary node tags
const (
	tagInt         byte = 0x00
	tagString      byte = 0x01
	tagSequence    byte = 0x02
	tagPrim0       byte = 0x03
	tagPrim0Anno   byte = 0x04
	tagPrim1       byte = 0x05
	tagPrim1Anno   byte = 0x06
	tagPrim2       byte = 0x07
	tagPrim2Anno   byte = 0x08
	tagPrimGeneric byte = 0x09
	tagBytes       byte = 0x0a
)

var ErrShortBuffer = errors.New("micheline: short buffer")

// MarshalBinary encodes p in the binary Micheline format (without the 0x05
// PACK prefix).
func (p Prim) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if err := p.encodeBinary(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (p Prim) encodeBinary(buf *bytes.Buffer) error {
	switch p.Type {
	case PrimInt:
		buf.WriteByte(tagInt)
		i := p.Int
		if i == nil {
			i = new(big.Int)
		}
		writeZarith(buf, i)
	case PrimString:
		buf.WriteByte(tagString)
		writeLenPrefixed(buf, []byte(p.String))
	case PrimBytes:
		buf.WriteByte(tagBytes)
		writeLenPrefixed(buf, p.Bytes)
	case PrimSequence:
		buf.WriteByte(tagSequence)
		var inner bytes.Buffer
		for _, a := range p.Args {
			if err := a.encodeBinary(&inner); err != nil {
				return err
			}
		}
		writeLenPrefixed(buf, inner.Bytes())
	case PrimNode:
		if !p.OpCode.IsValid() {
			return fmt.Errorf("micheline: cannot encode invalid primitive 0x%02x", byte(p.OpCode))
		}
		hasAnno := len(p.Anno) > 0
		switch {
		case len(p.Args) <= 2:
			tag := tagPrim0 + byte(2*len(p.Args))
			if hasAnno {
				tag++
			}
			buf.WriteByte(tag)
			buf.WriteByte(byte(p.OpCode))
			for _, a := range p.Args {
				if err := a.encodeBinary(buf); err != nil {
					return err
				}
			}
			if hasAnno {
				writeLenPrefixed(buf, []byte(strings.Join(p.Anno, " ")))
			}
		default:
			buf.WriteByte(tagPrimGeneric)
			buf.WriteByte(byte(p.OpCode))
			var inner bytes.Buffer
			for _, a := range p.Args {
				if err := a.encodeBinary(&inner); err != nil {
					return err
				}
			}
			writeLenPrefixed(buf, inner.Bytes())
			writeLenPrefixed(buf, []byte(strings.Join(p.Anno, " ")))
		}
	default:
		return fmt.Errorf("micheline: cannot encode node type %d", p.Type)
	}
	return nil
}

// UnmarshalBinary decodes a single binary Micheline expression. Trailing
// data is an error.
func (p *Prim) UnmarshalBinary(data []byte) error {
	buf := bytes.NewBuffer(data)
	if err := p.decodeBinary(buf); err != nil {
		return err
	}
	if buf.Len() > 0 {
		return fmt.Errorf("micheline: %d trailing bytes", buf.Len())
	}
	return nil
}

func (p *Prim) decodeBinary(buf *bytes.Buffer) error {
	tag, err := buf.ReadByte()
	if err != nil {
		return ErrShortBuffer
	}
	switch tag {
	case tagInt:
		i, err := readZarith(buf)
		if err != nil {
			return err
		}
		*p = Prim{Type: PrimInt, Int: i}
	case tagString:
		b, err := readLenPrefixed(buf)
		if err != nil {
			return err
		}
		*p = NewString(string(b))
	case tagBytes:
		b, err := readLenPrefixed(buf)
		if err != nil {
			return err
		}
		*p = Prim{Type: PrimBytes, Bytes: b}
	case tagSequence:
		b, err := readLenPrefixed(buf)
		if err != nil {
			return err
		}
		args, err := decodeAll(b)
		if err != nil {
			return err
		}
		*p = NewSeq(args...)
	case tagPrim0, tagPrim0Anno, tagPrim1, tagPrim1Anno, tagPrim2, tagPrim2Anno:
		op, err := readOpCode(buf)
		if err != nil {
			return err
		}
		node := Prim{Type: PrimNode, OpCode: op}
		n := int(tag-tagPrim0) / 2
		for i := 0; i < n; i++ {
			var a Prim
			if err := a.decodeBinary(buf); err != nil {
				return err
			}
			node.Args = append(node.Args, a)
		}
		if (tag-tagPrim0)%2 == 1 {
			anno, err := readLenPrefixed(buf)
			if err != nil {
				return err
			}
			node.Anno = splitAnno(anno)
		}
		*p = node
	case tagPrimGeneric:
		op, err := readOpCode(buf)
		if err != nil {
			return err
		}
		b, err := readLenPrefixed(buf)
		if err != nil {
			return err
		}
		args, err := decodeAll(b)
		if err != nil {
			return err
		}
		anno, err := readLenPrefixed(buf)
		if err != nil {
			return err
		}
		*p = Prim{Type: PrimNode, OpCode: op, Args: args, Anno: splitAnno(anno)}
	default:
		return fmt.Errorf("micheline: unknown binary tag 0x%02x", tag)
	}
	return nil
}

func decodeAll(b []byte) ([]Prim, error) {
	inner := bytes.NewBuffer(b)
	args := make([]Prim, 0)
	for inner.Len() > 0 {
		var a Prim
		if err := a.decodeBinary(inner); err != nil {
			return nil, err
		}
		args = append(args, a)
	}
	return args, nil
}

func readOpCode(buf *bytes.Buffer) (OpCode, error) {
	b, err := buf.ReadByte()
	if err != nil {
		return 0, ErrShortBuffer
	}
	op := OpCode(b)
	if !op.IsValid() {
		return 0, fmt.Errorf("micheline: unknown primitive 0x%02x", b)
	}
	return op, nil
}

func splitAnno(b []byte) []string {
	if len(b) == 0 {
		return nil
	}
	return strings.Split(string(b), " ")
}

func writeLenPrefixed(buf *bytes.Buffer, b []byte) {
	var l [4]byte
	binary.BigEndian.PutUint32(l[:], uint32(len(b)))
	buf.Write(l[:])
	buf.Write(b)
}

func readLenPrefixed(buf *bytes.Buffer) ([]byte, error) {
	if buf.Len() < 4 {
		return nil, ErrShortBuffer
	}
	n := int(binary.BigEndian.Uint32(buf.Next(4)))
	if buf.Len() < n {
		return nil, ErrShortBuffer
	}
	return append([]byte{}, buf.Next(n)...), nil
}

// writeZarith writes a signed arbitrary precision integer: the first byte
// carries a sign bit and 6 bits of magnitude, following bytes 7 bits each.
func writeZarith(buf *bytes.Buffer, i *big.Int) {
	mag := new(big.Int).Abs(i)
	first := byte(new(big.Int).And(mag, big.NewInt(0x3f)).Uint64())
	if i.Sign() < 0 {
		first |= 0x40
	}
	mag.Rsh(mag, 6)
	if mag.Sign() > 0 {
		first |= 0x80
	}
	buf.WriteByte(first)
	for mag.Sign() > 0 {
		b := byte(new(big.Int).And(mag, big.NewInt(0x7f)).Uint64())
		mag.Rsh(mag, 7)
		if mag.Sign() > 0 {
			b |= 0x80
		}
		buf.WriteByte(b)
	}
}

func readZarith(buf *bytes.Buffer) (*big.Int, error) {
	first, err := buf.ReadByte()
	if err != nil {
		return nil, ErrShortBuffer
	}
	neg := first&0x40 != 0
	mag := big.NewInt(int64(first & 0x3f))
	shift := uint(6)
	more := first&0x80 != 0
	for more {
		b, err := buf.ReadByte()
		if err != nil {
			return nil, ErrShortBuffer
		}
		part := new(big.Int).Lsh(big.NewInt(int64(b&0x7f)), shift)
		mag.Or(mag, part)
		shift += 7
		more = b&0x80 != 0
	}
	if neg {
		mag.Neg(mag)
	}
	return mag, nil
}
