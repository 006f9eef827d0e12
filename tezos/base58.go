// Package tezos holds the primitive types of the Tezos protocol used by the
// contract bindings: addresses, keys, signatures, hashes, numbers and
// timestamps, together with their base58check and Micheline forms.
package tezos

import (
	"bytes"
	"crypto/sha256"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

// ErrChecksum is returned when a base58check string does not verify.
var ErrChecksum = errors.New("invalid base58 checksum")

// ErrUnknownPrefix is returned when a base58 string carries an unexpected prefix.
var ErrUnknownPrefix = errors.New("unknown base58 prefix")

// Base58 prefixes as defined by the protocol.
var (
	PrefixTz1           = []byte{6, 161, 159}
	PrefixTz2           = []byte{6, 161, 161}
	PrefixTz3           = []byte{6, 161, 164}
	PrefixTz4           = []byte{6, 161, 166}
	PrefixKT1           = []byte{2, 90, 121}
	PrefixEd25519Key    = []byte{13, 15, 37, 217}
	PrefixSecp256k1Key  = []byte{3, 254, 226, 86}
	PrefixP256Key       = []byte{3, 178, 139, 127}
	PrefixEd25519Seed   = []byte{13, 15, 58, 7}
	PrefixEd25519Secret = []byte{43, 246, 78, 7}
	PrefixEd25519Sig    = []byte{9, 245, 205, 134, 18}
	PrefixGenericSig    = []byte{4, 130, 43}
	PrefixChainID       = []byte{87, 82, 0}
	PrefixBlock         = []byte{1, 52}
	PrefixOperation     = []byte{5, 116}
	PrefixExpr          = []byte{13, 44, 64, 27}
	PrefixProtocol      = []byte{2, 170}
)

func checksum(b []byte) []byte {
	h := sha256.Sum256(b)
	h = sha256.Sum256(h[:])
	return h[:4]
}

// EncodeBase58 encodes payload with the given prefix and a 4 byte checksum.
func EncodeBase58(prefix, payload []byte) string {
	buf := make([]byte, 0, len(prefix)+len(payload)+4)
	buf = append(buf, prefix...)
	buf = append(buf, payload...)
	buf = append(buf, checksum(buf)...)
	return base58.Encode(buf)
}

// DecodeBase58 decodes s and returns the payload after stripping prefix. The
// payload must be size bytes long unless size is negative.
func DecodeBase58(s string, prefix []byte, size int) ([]byte, error) {
	raw, err := base58.Decode(s)
	if err != nil {
		return nil, errors.Wrapf(err, "could not decode %q", s)
	}
	if len(raw) < len(prefix)+4 {
		return nil, errors.Errorf("base58 string %q is too short", s)
	}
	data, sum := raw[:len(raw)-4], raw[len(raw)-4:]
	if !bytes.Equal(checksum(data), sum) {
		return nil, ErrChecksum
	}
	if !bytes.HasPrefix(data, prefix) {
		return nil, errors.Wrapf(ErrUnknownPrefix, "%q", s)
	}
	payload := data[len(prefix):]
	if size >= 0 && len(payload) != size {
		return nil, errors.Errorf("invalid payload length %d for %q, expected %d", len(payload), s, size)
	}
	return payload, nil
}
