package micheline

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
)

type jsonPrim struct {
	Prim   string            `json:"prim,omitempty"`
	Args   []json.RawMessage `json:"args,omitempty"`
	Annots []string          `json:"annots,omitempty"`
	Int    *string           `json:"int,omitempty"`
	String *string           `json:"string,omitempty"`
	Bytes  *string           `json:"bytes,omitempty"`
}

// MarshalJSON encodes p the way the node RPC does.
func (p Prim) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := p.encodeJSON(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (p Prim) encodeJSON(buf *bytes.Buffer) error {
	switch p.Type {
	case PrimInt:
		i := "0"
		if p.Int != nil {
			i = p.Int.String()
		}
		buf.WriteString(`{"int":"`)
		buf.WriteString(i)
		buf.WriteString(`"}`)
	case PrimString:
		s, err := json.Marshal(p.String)
		if err != nil {
			return err
		}
		buf.WriteString(`{"string":`)
		buf.Write(s)
		buf.WriteString(`}`)
	case PrimBytes:
		buf.WriteString(`{"bytes":"`)
		buf.WriteString(hex.EncodeToString(p.Bytes))
		buf.WriteString(`"}`)
	case PrimSequence:
		buf.WriteByte('[')
		for i, a := range p.Args {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := a.encodeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case PrimNode:
		if !p.OpCode.IsValid() {
			return fmt.Errorf("micheline: cannot encode invalid primitive 0x%02x", byte(p.OpCode))
		}
		buf.WriteString(`{"prim":"`)
		buf.WriteString(p.OpCode.String())
		buf.WriteByte('"')
		if len(p.Args) > 0 {
			buf.WriteString(`,"args":[`)
			for i, a := range p.Args {
				if i > 0 {
					buf.WriteByte(',')
				}
				if err := a.encodeJSON(buf); err != nil {
					return err
				}
			}
			buf.WriteByte(']')
		}
		if len(p.Anno) > 0 {
			annots, err := json.Marshal(p.Anno)
			if err != nil {
				return err
			}
			buf.WriteString(`,"annots":`)
			buf.Write(annots)
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("micheline: cannot encode node type %d", p.Type)
	}
	return nil
}

// UnmarshalJSON decodes the node RPC representation.
func (p *Prim) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '[' {
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		args := make([]Prim, len(raw))
		for i, r := range raw {
			if err := args[i].UnmarshalJSON(r); err != nil {
				return err
			}
		}
		*p = NewSeq(args...)
		return nil
	}

	var jp jsonPrim
	if err := json.Unmarshal(data, &jp); err != nil {
		return err
	}
	switch {
	case jp.Int != nil:
		i, ok := new(big.Int).SetString(*jp.Int, 10)
		if !ok {
			return fmt.Errorf("micheline: invalid int %q", *jp.Int)
		}
		*p = Prim{Type: PrimInt, Int: i}
	case jp.String != nil:
		*p = NewString(*jp.String)
	case jp.Bytes != nil:
		b, err := hex.DecodeString(*jp.Bytes)
		if err != nil {
			return fmt.Errorf("micheline: invalid bytes: %v", err)
		}
		*p = Prim{Type: PrimBytes, Bytes: b}
	case jp.Prim != "":
		op, err := ParseOpCode(jp.Prim)
		if err != nil {
			return err
		}
		node := Prim{Type: PrimNode, OpCode: op, Anno: jp.Annots}
		if len(jp.Args) > 0 {
			node.Args = make([]Prim, len(jp.Args))
			for i, r := range jp.Args {
				if err := node.Args[i].UnmarshalJSON(r); err != nil {
					return err
				}
			}
		}
		*p = node
	default:
		return fmt.Errorf("micheline: unrecognized expression %s", string(data))
	}
	return nil
}

// ParseJSON decodes a Micheline expression from its JSON form.
func ParseJSON(data []byte) (Prim, error) {
	var p Prim
	if err := p.UnmarshalJSON(data); err != nil {
		return InvalidPrim, err
	}
	return p, nil
}
