package micheline

// LeafFunc converts a value of a non-composite type, e.g. an address string
// into its optimized bytes form.
type LeafFunc func(value, typ Prim) (Prim, error)

// Normalize walks value along its type and applies leaf to every value of a
// non-composite type. Pairs come out as nested binary pairs.
func Normalize(value, typ Prim, leaf LeafFunc) (Prim, error) {
	if typ.Type != PrimNode {
		return InvalidPrim, typeError("type expression", typ)
	}
	switch typ.OpCode {
	case T_PAIR:
		if len(typ.Args) < 2 {
			return InvalidPrim, typeError("pair type", typ)
		}
		rightType := typ.Args[1]
		if len(typ.Args) > 2 {
			rightType = Prim{Type: PrimNode, OpCode: T_PAIR, Args: typ.Args[1:]}
		}
		fields, err := value.Flatten(2)
		if err != nil {
			return InvalidPrim, err
		}
		l, err := Normalize(fields[0], typ.Args[0], leaf)
		if err != nil {
			return InvalidPrim, err
		}
		r, err := Normalize(fields[1], rightType, leaf)
		if err != nil {
			return InvalidPrim, err
		}
		return NewPrim(D_PAIR, l, r), nil

	case T_OPTION:
		inner, ok, err := value.GetOption()
		if err != nil {
			return InvalidPrim, err
		}
		if !ok {
			return None(), nil
		}
		v, err := Normalize(inner, typ.Args[0], leaf)
		if err != nil {
			return InvalidPrim, err
		}
		return Some(v), nil

	case T_OR:
		inner, left, err := value.GetOr()
		if err != nil {
			return InvalidPrim, err
		}
		if left {
			v, err := Normalize(inner, typ.Args[0], leaf)
			if err != nil {
				return InvalidPrim, err
			}
			return Left(v), nil
		}
		v, err := Normalize(inner, typ.Args[1], leaf)
		if err != nil {
			return InvalidPrim, err
		}
		return Right(v), nil

	case T_LIST, T_SET:
		items, err := value.GetSeq()
		if err != nil {
			return InvalidPrim, err
		}
		out := make([]Prim, len(items))
		for i, it := range items {
			if out[i], err = Normalize(it, typ.Args[0], leaf); err != nil {
				return InvalidPrim, err
			}
		}
		return NewSeq(out...), nil

	case T_MAP, T_BIG_MAP:
		if value.Type == PrimInt {
			// big map referenced by id
			return value, nil
		}
		elts, err := value.GetElts()
		if err != nil {
			return InvalidPrim, err
		}
		out := make([]Prim, len(elts))
		for i, kv := range elts {
			k, err := Normalize(kv[0], typ.Args[0], leaf)
			if err != nil {
				return InvalidPrim, err
			}
			v, err := Normalize(kv[1], typ.Args[1], leaf)
			if err != nil {
				return InvalidPrim, err
			}
			out[i] = Elt(k, v)
		}
		return NewSeq(out...), nil

	case T_LAMBDA, T_TICKET, T_OPERATION, T_SAPLING_STATE:
		return value, nil

	default:
		return leaf(value, typ)
	}
}
