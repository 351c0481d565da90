package jwt

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// KeyFamily is the kind of key material an algorithm requires.
type KeyFamily int

const (
	FamilyRSA KeyFamily = iota + 1
	FamilyP256
	FamilyP384
	FamilyP521
	FamilySecp256k1
	FamilyEd25519
	FamilySymmetric
)

func (f KeyFamily) String() string {
	switch f {
	case FamilyRSA:
		return "RSA"
	case FamilyP256:
		return "EC-P256"
	case FamilyP384:
		return "EC-P384"
	case FamilyP521:
		return "EC-P521"
	case FamilySecp256k1:
		return "EC-secp256k1"
	case FamilyEd25519:
		return "Ed25519"
	case FamilySymmetric:
		return "symmetric"
	default:
		return fmt.Sprintf("KeyFamily(%d)", int(f))
	}
}

// EncodingKey holds the material used to sign tokens. It is immutable after
// construction and safe for concurrent use.
type EncodingKey struct {
	family KeyFamily
	secret []byte
	rsa    *rsa.PrivateKey
	ec     *ecdsa.PrivateKey
	k1     *secp256k1.PrivateKey
	ed     ed25519.PrivateKey
}

// DecodingKey holds the material used to verify tokens. It is immutable after
// construction and safe for concurrent use.
type DecodingKey struct {
	family KeyFamily
	secret []byte
	rsa    *rsa.PublicKey
	ec     *ecdsa.PublicKey
	k1     *secp256k1.PublicKey
	ed     ed25519.PublicKey
}

func (k *EncodingKey) Family() KeyFamily { return k.family }

func (k *DecodingKey) Family() KeyFamily { return k.family }

// NewEncodingKeyFromSecret returns an HMAC key. The secret is copied.
func NewEncodingKeyFromSecret(secret []byte) (*EncodingKey, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("%w: empty secret", ErrKeyParse)
	}
	return &EncodingKey{family: FamilySymmetric, secret: clone(secret)}, nil
}

// NewEncodingKeyFromBase64Secret decodes a standard base64 secret.
func NewEncodingKeyFromBase64Secret(secret string) (*EncodingKey, error) {
	raw, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeyParse, err)
	}
	return NewEncodingKeyFromSecret(raw)
}

// NewEncodingKeyFromCrypto wraps an in-memory private key. Supported types
// are *rsa.PrivateKey, *ecdsa.PrivateKey on a NIST curve,
// *secp256k1.PrivateKey and ed25519.PrivateKey.
func NewEncodingKeyFromCrypto(key crypto.PrivateKey) (*EncodingKey, error) {
	switch key := key.(type) {
	case *rsa.PrivateKey:
		if key == nil {
			return nil, fmt.Errorf("%w: nil RSA private key", ErrKeyParse)
		}
		if err := key.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrKeyParse, err)
		}
		return &EncodingKey{family: FamilyRSA, rsa: key}, nil
	case *ecdsa.PrivateKey:
		if key == nil {
			return nil, fmt.Errorf("%w: nil EC private key", ErrKeyParse)
		}
		family, err := curveFamily(key.Curve)
		if err != nil {
			return nil, err
		}
		if key.D == nil || key.X == nil || key.Y == nil {
			return nil, fmt.Errorf("%w: incomplete EC private key", ErrKeyParse)
		}
		if _, err := key.ECDH(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrKeyParse, err)
		}
		return &EncodingKey{family: family, ec: key}, nil
	case *secp256k1.PrivateKey:
		if key == nil || key.Key.IsZero() {
			return nil, fmt.Errorf("%w: invalid secp256k1 private key", ErrKeyParse)
		}
		return &EncodingKey{family: FamilySecp256k1, k1: key}, nil
	case ed25519.PrivateKey:
		if len(key) != ed25519.PrivateKeySize {
			return nil, fmt.Errorf("%w: ed25519 private key has %d bytes", ErrKeyParse, len(key))
		}
		return &EncodingKey{family: FamilyEd25519, ed: ed25519.PrivateKey(clone(key))}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported private key type %T", ErrKeyParse, key)
	}
}

// DecodingKey derives the verification counterpart of k.
func (k *EncodingKey) DecodingKey() *DecodingKey {
	switch k.family {
	case FamilySymmetric:
		return &DecodingKey{family: k.family, secret: clone(k.secret)}
	case FamilyRSA:
		return &DecodingKey{family: k.family, rsa: &k.rsa.PublicKey}
	case FamilySecp256k1:
		return &DecodingKey{family: k.family, k1: k.k1.PubKey()}
	case FamilyEd25519:
		return &DecodingKey{family: k.family, ed: k.ed.Public().(ed25519.PublicKey)}
	default:
		return &DecodingKey{family: k.family, ec: &k.ec.PublicKey}
	}
}

// NewDecodingKeyFromSecret returns an HMAC verification key. The secret is
// copied.
func NewDecodingKeyFromSecret(secret []byte) (*DecodingKey, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("%w: empty secret", ErrKeyParse)
	}
	return &DecodingKey{family: FamilySymmetric, secret: clone(secret)}, nil
}

// NewDecodingKeyFromBase64Secret decodes a standard base64 secret.
func NewDecodingKeyFromBase64Secret(secret string) (*DecodingKey, error) {
	raw, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeyParse, err)
	}
	return NewDecodingKeyFromSecret(raw)
}

// NewDecodingKeyFromCrypto wraps an in-memory public key. Supported types
// are *rsa.PublicKey, *ecdsa.PublicKey on a NIST curve,
// *secp256k1.PublicKey and ed25519.PublicKey.
func NewDecodingKeyFromCrypto(key crypto.PublicKey) (*DecodingKey, error) {
	switch key := key.(type) {
	case *rsa.PublicKey:
		if key == nil || key.N == nil || key.N.Sign() <= 0 || key.E < 2 {
			return nil, fmt.Errorf("%w: invalid RSA public key", ErrKeyParse)
		}
		return &DecodingKey{family: FamilyRSA, rsa: key}, nil
	case *ecdsa.PublicKey:
		if key == nil {
			return nil, fmt.Errorf("%w: nil EC public key", ErrKeyParse)
		}
		family, err := curveFamily(key.Curve)
		if err != nil {
			return nil, err
		}
		if key.X == nil || key.Y == nil {
			return nil, fmt.Errorf("%w: incomplete EC public key", ErrKeyParse)
		}
		if _, err := key.ECDH(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrKeyParse, err)
		}
		return &DecodingKey{family: family, ec: key}, nil
	case *secp256k1.PublicKey:
		if key == nil || !key.IsOnCurve() {
			return nil, fmt.Errorf("%w: invalid secp256k1 public key", ErrKeyParse)
		}
		return &DecodingKey{family: FamilySecp256k1, k1: key}, nil
	case ed25519.PublicKey:
		if len(key) != ed25519.PublicKeySize {
			return nil, fmt.Errorf("%w: ed25519 public key has %d bytes", ErrKeyParse, len(key))
		}
		return &DecodingKey{family: FamilyEd25519, ed: ed25519.PublicKey(clone(key))}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported public key type %T", ErrKeyParse, key)
	}
}

// MarshalPKIX returns the DER SubjectPublicKeyInfo of k.
func (k *DecodingKey) MarshalPKIX() ([]byte, error) {
	switch k.family {
	case FamilySymmetric:
		return nil, errors.New("symmetric keys have no public encoding")
	case FamilyRSA:
		return x509.MarshalPKIXPublicKey(k.rsa)
	case FamilySecp256k1:
		return marshalSecp256k1PKIX(k.k1)
	case FamilyEd25519:
		return x509.MarshalPKIXPublicKey(k.ed)
	case FamilyP256, FamilyP384, FamilyP521:
		return x509.MarshalPKIXPublicKey(k.ec)
	default:
		return nil, fmt.Errorf("%w: key has no material", ErrKeyParse)
	}
}

func curveFamily(curve elliptic.Curve) (KeyFamily, error) {
	if curve == nil {
		return 0, fmt.Errorf("%w: missing curve", ErrKeyParse)
	}
	switch curve {
	case elliptic.P256():
		return FamilyP256, nil
	case elliptic.P384():
		return FamilyP384, nil
	case elliptic.P521():
		return FamilyP521, nil
	default:
		return 0, fmt.Errorf("%w: unsupported curve %s", ErrKeyParse, curve.Params().Name)
	}
}

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}
