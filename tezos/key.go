package tezos

import (
	"crypto/ed25519"
	"crypto/rand"
	"strings"

	"github.com/dz0nda/quartz-tezos-contracts/micheline"
	"github.com/pkg/errors"
)

type KeyType byte

const (
	KeyTypeEd25519 KeyType = iota
	KeyTypeSecp256k1
	KeyTypeP256
	KeyTypeInvalid
)

var (
	ErrInvalidKey       = errors.New("invalid key")
	ErrInvalidSignature = errors.New("invalid signature")
	// ErrUnsupportedKey is returned for operations only implemented for Ed25519.
	ErrUnsupportedKey = errors.New("unsupported key type")
)

// OperationWatermark prefixes forged manager operations before signing.
const OperationWatermark = 0x03

func (t KeyType) prefix() []byte {
	switch t {
	case KeyTypeEd25519:
		return PrefixEd25519Key
	case KeyTypeSecp256k1:
		return PrefixSecp256k1Key
	case KeyTypeP256:
		return PrefixP256Key
	}
	return nil
}

func (t KeyType) size() int {
	if t == KeyTypeEd25519 {
		return 32
	}
	return 33
}

func (t KeyType) addressType() AddressType {
	switch t {
	case KeyTypeEd25519:
		return AddressTypeEd25519
	case KeyTypeSecp256k1:
		return AddressTypeSecp256k1
	case KeyTypeP256:
		return AddressTypeP256
	}
	return AddressTypeInvalid
}

// Key is a public key.
type Key struct {
	Type KeyType
	Data []byte
}

var InvalidKey = Key{Type: KeyTypeInvalid}

func ParseKey(s string) (Key, error) {
	var typ KeyType
	switch {
	case strings.HasPrefix(s, "edpk"):
		typ = KeyTypeEd25519
	case strings.HasPrefix(s, "sppk"):
		typ = KeyTypeSecp256k1
	case strings.HasPrefix(s, "p2pk"):
		typ = KeyTypeP256
	default:
		return InvalidKey, errors.Wrapf(ErrInvalidKey, "%q", s)
	}
	data, err := DecodeBase58(s, typ.prefix(), typ.size())
	if err != nil {
		return InvalidKey, errors.Wrapf(ErrInvalidKey, "%q: %s", s, err)
	}
	return Key{Type: typ, Data: data}, nil
}

func MustParseKey(s string) Key {
	k, err := ParseKey(s)
	if err != nil {
		panic(err)
	}
	return k
}

func (k Key) IsValid() bool {
	return k.Type < KeyTypeInvalid && len(k.Data) == k.Type.size()
}

func (k Key) String() string {
	if !k.IsValid() {
		return ""
	}
	return EncodeBase58(k.Type.prefix(), k.Data)
}

func (k Key) Equal(o Key) bool {
	return k.Type == o.Type && string(k.Data) == string(o.Data)
}

// Address returns the implicit account controlled by k.
func (k Key) Address() Address {
	return NewAddress(k.Type.addressType(), Blake2b160(k.Data))
}

// MarshalBinary returns the tagged binary form used by PACK.
func (k Key) MarshalBinary() ([]byte, error) {
	if !k.IsValid() {
		return nil, ErrInvalidKey
	}
	return append([]byte{byte(k.Type)}, k.Data...), nil
}

func DecodeKey(b []byte) (Key, error) {
	if len(b) == 0 || KeyType(b[0]) >= KeyTypeInvalid {
		return InvalidKey, ErrInvalidKey
	}
	k := Key{Type: KeyType(b[0]), Data: append([]byte{}, b[1:]...)}
	if !k.IsValid() {
		return InvalidKey, errors.Wrapf(ErrInvalidKey, "binary key of %d bytes", len(b))
	}
	return k, nil
}

// Verify checks sig over message. Like CHECK_SIGNATURE the message is
// hashed with BLAKE2b before verification.
func (k Key) Verify(message []byte, sig Signature) error {
	if k.Type != KeyTypeEd25519 {
		return ErrUnsupportedKey
	}
	if !ed25519.Verify(ed25519.PublicKey(k.Data), Blake2b(message), sig.Data) {
		return ErrInvalidSignature
	}
	return nil
}

func (k Key) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *Key) UnmarshalText(data []byte) error {
	v, err := ParseKey(string(data))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

func (k Key) ToMich() micheline.Prim { return micheline.NewString(k.String()) }

func KeyFromMich(p micheline.Prim) (Key, error) {
	switch p.Type {
	case micheline.PrimString:
		return ParseKey(p.String)
	case micheline.PrimBytes:
		return DecodeKey(p.Bytes)
	}
	return InvalidKey, errors.Wrapf(ErrInvalidKey, "unexpected micheline %s", p.Text())
}

// Signature is a 64 byte signature. Type is KeyTypeInvalid for generic
// `sig...` encoded values.
type Signature struct {
	Type KeyType
	Data []byte
}

func ParseSignature(s string) (Signature, error) {
	prefix, typ := PrefixGenericSig, KeyTypeInvalid
	if strings.HasPrefix(s, "edsig") {
		prefix, typ = PrefixEd25519Sig, KeyTypeEd25519
	} else if !strings.HasPrefix(s, "sig") {
		return Signature{}, errors.Wrapf(ErrInvalidSignature, "%q", s)
	}
	data, err := DecodeBase58(s, prefix, 64)
	if err != nil {
		return Signature{}, errors.Wrapf(ErrInvalidSignature, "%q: %s", s, err)
	}
	return Signature{Type: typ, Data: data}, nil
}

func MustParseSignature(s string) Signature {
	sig, err := ParseSignature(s)
	if err != nil {
		panic(err)
	}
	return sig
}

func (s Signature) String() string {
	if len(s.Data) != 64 {
		return ""
	}
	if s.Type == KeyTypeEd25519 {
		return EncodeBase58(PrefixEd25519Sig, s.Data)
	}
	return EncodeBase58(PrefixGenericSig, s.Data)
}

func (s Signature) Equal(o Signature) bool { return string(s.Data) == string(o.Data) }

func (s Signature) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Signature) UnmarshalText(data []byte) error {
	v, err := ParseSignature(string(data))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

func (s Signature) ToMich() micheline.Prim { return micheline.NewString(s.String()) }

func SignatureFromMich(p micheline.Prim) (Signature, error) {
	switch p.Type {
	case micheline.PrimString:
		return ParseSignature(p.String)
	case micheline.PrimBytes:
		if len(p.Bytes) != 64 {
			return Signature{}, ErrInvalidSignature
		}
		return Signature{Type: KeyTypeInvalid, Data: append([]byte{}, p.Bytes...)}, nil
	}
	return Signature{}, errors.Wrapf(ErrInvalidSignature, "unexpected micheline %s", p.Text())
}

// PrivateKey is an Ed25519 secret key.
type PrivateKey struct {
	key ed25519.PrivateKey
}

// ParsePrivateKey accepts `edsk` encoded 32 byte seeds and 64 byte secrets,
// with or without the `unencrypted:` prefix of octez-client wallets.
func ParsePrivateKey(s string) (PrivateKey, error) {
	s = strings.TrimPrefix(s, "unencrypted:")
	if !strings.HasPrefix(s, "edsk") {
		return PrivateKey{}, errors.Wrap(ErrUnsupportedKey, "only edsk secret keys are supported")
	}
	if b, err := DecodeBase58(s, PrefixEd25519Seed, ed25519.SeedSize); err == nil {
		return NewPrivateKeyFromSeed(b), nil
	}
	b, err := DecodeBase58(s, PrefixEd25519Secret, ed25519.PrivateKeySize)
	if err != nil {
		return PrivateKey{}, errors.Wrap(err, "invalid secret key")
	}
	return PrivateKey{key: ed25519.PrivateKey(b)}, nil
}

func NewPrivateKeyFromSeed(seed []byte) PrivateKey {
	return PrivateKey{key: ed25519.NewKeyFromSeed(seed)}
}

// GenerateKey creates a fresh random key.
func GenerateKey() (PrivateKey, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return PrivateKey{}, err
	}
	return PrivateKey{key: priv}, nil
}

func (k PrivateKey) IsValid() bool { return len(k.key) == ed25519.PrivateKeySize }

// String returns the seed form of the key.
func (k PrivateKey) String() string {
	if !k.IsValid() {
		return ""
	}
	return EncodeBase58(PrefixEd25519Seed, k.key.Seed())
}

func (k PrivateKey) Public() Key {
	pub := k.key.Public().(ed25519.PublicKey)
	return Key{Type: KeyTypeEd25519, Data: append([]byte{}, pub...)}
}

func (k PrivateKey) Address() Address { return k.Public().Address() }

// Sign signs the BLAKE2b digest of message, which is what CHECK_SIGNATURE
// verifies.
func (k PrivateKey) Sign(message []byte) Signature {
	return k.SignDigest(Blake2b(message))
}

func (k PrivateKey) SignDigest(digest []byte) Signature {
	return Signature{Type: KeyTypeEd25519, Data: ed25519.Sign(k.key, digest)}
}

// SignOperation signs forged operation bytes with the manager watermark.
func (k PrivateKey) SignOperation(forged []byte) Signature {
	return k.Sign(append([]byte{OperationWatermark}, forged...))
}
