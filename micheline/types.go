package micheline

// Type expressions. Field annotations are passed through as given, e.g.
// TypeAnno(T_NAT, "%amount").

func TypeAnno(op OpCode, anno string, args ...Prim) Prim {
	if anno == "" {
		return NewPrim(op, args...)
	}
	return NewPrimAnno(op, []string{anno}, args...)
}

func TypeUnit() Prim      { return NewPrim(T_UNIT) }
func TypeBool() Prim      { return NewPrim(T_BOOL) }
func TypeNat() Prim       { return NewPrim(T_NAT) }
func TypeInt() Prim       { return NewPrim(T_INT) }
func TypeString() Prim    { return NewPrim(T_STRING) }
func TypeBytes() Prim     { return NewPrim(T_BYTES) }
func TypeMutez() Prim     { return NewPrim(T_MUTEZ) }
func TypeAddress() Prim   { return NewPrim(T_ADDRESS) }
func TypeKey() Prim       { return NewPrim(T_KEY) }
func TypeKeyHash() Prim   { return NewPrim(T_KEY_HASH) }
func TypeSignature() Prim { return NewPrim(T_SIGNATURE) }
func TypeTimestamp() Prim { return NewPrim(T_TIMESTAMP) }
func TypeChainID() Prim   { return NewPrim(T_CHAIN_ID) }

func TypeOption(t Prim) Prim { return NewPrim(T_OPTION, t) }
func TypeList(t Prim) Prim   { return NewPrim(T_LIST, t) }
func TypeSet(t Prim) Prim    { return NewPrim(T_SET, t) }
func TypeOr(l, r Prim) Prim  { return NewPrim(T_OR, l, r) }
func TypeMap(k, v Prim) Prim { return NewPrim(T_MAP, k, v) }

func TypeContract(t Prim) Prim { return NewPrim(T_CONTRACT, t) }

func TypeBigMap(k, v Prim) Prim { return NewPrim(T_BIG_MAP, k, v) }

// TypePair builds a pair type, right combed when given more than two fields.
func TypePair(args ...Prim) Prim {
	switch len(args) {
	case 0, 1:
		panic("micheline: pair type needs at least two fields")
	case 2:
		return NewPrim(T_PAIR, args[0], args[1])
	default:
		return NewPrim(T_PAIR, args[0], TypePair(args[1:]...))
	}
}
