package tezos

import (
	"strings"

	"github.com/dz0nda/quartz-tezos-contracts/micheline"
	"github.com/pkg/errors"
)

// PackPrefix marks packed Micheline data.
const PackPrefix = 0x05

// Pack serializes value like the PACK instruction: typed leaves such as
// addresses, keys and timestamps are converted to their optimized form first.
func Pack(value, typ micheline.Prim) ([]byte, error) {
	norm, err := micheline.Normalize(value, typ, optimize)
	if err != nil {
		return nil, errors.Wrap(err, "could not normalize value")
	}
	b, err := norm.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return append([]byte{PackPrefix}, b...), nil
}

// KeyHash returns the expression hash under which the node stores a big map
// key of the given type.
func KeyHash(key, typ micheline.Prim) (ExprHash, error) {
	packed, err := Pack(key, typ)
	if err != nil {
		return ExprHash{}, err
	}
	return ScriptExprHash(packed), nil
}

func optimize(v, typ micheline.Prim) (micheline.Prim, error) {
	if v.Type != micheline.PrimString {
		return v, nil
	}
	switch typ.OpCode {
	case micheline.T_ADDRESS, micheline.T_CONTRACT:
		addr, entrypoint, _ := strings.Cut(v.String, "%")
		a, err := ParseAddress(addr)
		if err != nil {
			return v, err
		}
		b, _ := a.MarshalBinary()
		if entrypoint != "" {
			b = append(b, entrypoint...)
		}
		return micheline.NewBytes(b), nil

	case micheline.T_KEY:
		k, err := ParseKey(v.String)
		if err != nil {
			return v, err
		}
		b, _ := k.MarshalBinary()
		return micheline.NewBytes(b), nil

	case micheline.T_KEY_HASH:
		a, err := ParseAddress(v.String)
		if err != nil {
			return v, err
		}
		if a.IsContract() {
			return v, errors.Errorf("%s is not a key hash", v.String)
		}
		b, _ := a.MarshalBinary()
		return micheline.NewBytes(b[1:]), nil

	case micheline.T_SIGNATURE:
		s, err := ParseSignature(v.String)
		if err != nil {
			return v, err
		}
		return micheline.NewBytes(s.Data), nil

	case micheline.T_CHAIN_ID:
		c, err := ParseChainID(v.String)
		if err != nil {
			return v, err
		}
		return micheline.NewBytes(c[:]), nil

	case micheline.T_TIMESTAMP:
		ts, err := ParseTimestamp(v.String)
		if err != nil {
			return v, err
		}
		return ts.ToMich(), nil
	}
	return v, nil
}
