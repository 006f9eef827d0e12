package micheline

import (
	"bytes"
	"fmt"
	"math/big"
)

// TypeError is returned when a value does not have the expected shape.
type TypeError struct {
	Want string
	Got  Prim
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("micheline: expected %s, got %s", e.Want, e.Got.Text())
}

func typeError(want string, got Prim) error {
	return &TypeError{Want: want, Got: got}
}

// Flatten splits a right comb into n fields. Both `Pair a b c` and
// `Pair a (Pair b c)` yield [a b c] for n = 3. A sequence of n elements is
// accepted as well since it is a valid comb notation.
func (p Prim) Flatten(n int) ([]Prim, error) {
	if n < 1 {
		return nil, fmt.Errorf("micheline: cannot flatten into %d fields", n)
	}
	if p.IsSeq() && len(p.Args) == n && n > 1 {
		return append([]Prim{}, p.Args...), nil
	}
	out := make([]Prim, 0, n)
	cur := p
	for len(out) < n-1 {
		if !cur.IsPair() {
			return nil, typeError(fmt.Sprintf("comb of %d fields", n), p)
		}
		out = append(out, cur.Args[0])
		if len(cur.Args) == 2 {
			cur = cur.Args[1]
		} else {
			cur = Prim{Type: PrimNode, OpCode: cur.OpCode, Args: cur.Args[1:]}
		}
	}
	return append(out, cur), nil
}

// Comb returns p with every flat pair rewritten as nested binary pairs.
func (p Prim) Comb() Prim {
	switch p.Type {
	case PrimSequence:
		args := make([]Prim, len(p.Args))
		for i, a := range p.Args {
			args[i] = a.Comb()
		}
		return Prim{Type: PrimSequence, Args: args}
	case PrimNode:
		args := make([]Prim, len(p.Args))
		for i, a := range p.Args {
			args[i] = a.Comb()
		}
		if (p.OpCode == D_PAIR || p.OpCode == T_PAIR) && len(args) > 2 {
			for i := len(args) - 2; i >= 1; i-- {
				args[i] = Prim{Type: PrimNode, OpCode: p.OpCode, Args: []Prim{args[i], args[i+1]}}
				args = args[:i+1]
			}
		}
		return Prim{Type: PrimNode, OpCode: p.OpCode, Args: args, Anno: p.Anno}
	default:
		return p
	}
}

// Get follows path, a list of argument indexes, from p. Flat pairs are
// combed first, so Get(1, 0) of `Pair a b c` is b.
func (p Prim) Get(path ...int) (Prim, error) {
	cur := p.Comb()
	for _, i := range path {
		if i < 0 || i >= len(cur.Args) {
			return InvalidPrim, fmt.Errorf("micheline: no argument %d in %s", i, cur.Text())
		}
		cur = cur.Args[i]
	}
	return cur, nil
}

// Equal compares two expressions structurally. Pair combs compare equal
// regardless of notation. Annotations are ignored.
func Equal(a, b Prim) bool {
	return equal(a.Comb(), b.Comb())
}

func equal(a, b Prim) bool {
	if a.Type != b.Type {
		return false
	}
	switch a.Type {
	case PrimInt:
		ai, bi := a.Int, b.Int
		if ai == nil {
			ai = new(big.Int)
		}
		if bi == nil {
			bi = new(big.Int)
		}
		return ai.Cmp(bi) == 0
	case PrimString:
		return a.String == b.String
	case PrimBytes:
		return bytes.Equal(a.Bytes, b.Bytes)
	case PrimSequence, PrimNode:
		if a.Type == PrimNode && a.OpCode != b.OpCode {
			return false
		}
		if len(a.Args) != len(b.Args) {
			return false
		}
		for i := range a.Args {
			if !equal(a.Args[i], b.Args[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// GetInt returns the integer held by p.
func (p Prim) GetInt() (*big.Int, error) {
	if p.Type != PrimInt || p.Int == nil {
		return nil, typeError("int", p)
	}
	return new(big.Int).Set(p.Int), nil
}

// GetString returns the string held by p.
func (p Prim) GetString() (string, error) {
	if p.Type != PrimString {
		return "", typeError("string", p)
	}
	return p.String, nil
}

// GetBytes returns the bytes held by p.
func (p Prim) GetBytes() ([]byte, error) {
	if p.Type != PrimBytes {
		return nil, typeError("bytes", p)
	}
	return append([]byte{}, p.Bytes...), nil
}

// GetBool returns the boolean held by p.
func (p Prim) GetBool() (bool, error) {
	switch {
	case p.IsPrim(D_TRUE):
		return true, nil
	case p.IsPrim(D_FALSE):
		return false, nil
	}
	return false, typeError("bool", p)
}

// GetOption returns the inner value of Some, or ok == false for None.
func (p Prim) GetOption() (v Prim, ok bool, err error) {
	switch {
	case p.IsPrim(D_SOME) && len(p.Args) == 1:
		return p.Args[0], true, nil
	case p.IsPrim(D_NONE):
		return InvalidPrim, false, nil
	}
	return InvalidPrim, false, typeError("option", p)
}

// GetOr returns the inner value and whether p is Left.
func (p Prim) GetOr() (v Prim, left bool, err error) {
	switch {
	case p.IsPrim(D_LEFT) && len(p.Args) == 1:
		return p.Args[0], true, nil
	case p.IsPrim(D_RIGHT) && len(p.Args) == 1:
		return p.Args[0], false, nil
	}
	return InvalidPrim, false, typeError("or", p)
}

// GetSeq returns the elements of a sequence.
func (p Prim) GetSeq() ([]Prim, error) {
	if !p.IsSeq() {
		return nil, typeError("sequence", p)
	}
	return p.Args, nil
}

// GetElts returns the key/value pairs of a map literal.
func (p Prim) GetElts() ([][2]Prim, error) {
	items, err := p.GetSeq()
	if err != nil {
		return nil, err
	}
	out := make([][2]Prim, 0, len(items))
	for _, it := range items {
		if !it.IsPrim(D_ELT) || len(it.Args) != 2 {
			return nil, typeError("Elt", it)
		}
		out = append(out, [2]Prim{it.Args[0], it.Args[1]})
	}
	return out, nil
}

// IsUnit reports whether p is the Unit value.
func (p Prim) IsUnit() bool {
	return p.IsPrim(D_UNIT)
}
