package jwt

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// JWK is the subset of RFC 7517 members needed to build a verification key.
type JWK struct {
	KeyType   string `json:"kty"`
	KeyID     string `json:"kid,omitempty"`
	Algorithm string `json:"alg,omitempty"`
	Use       string `json:"use,omitempty"`
	Curve     string `json:"crv,omitempty"`
	N         string `json:"n,omitempty"`
	E         string `json:"e,omitempty"`
	X         string `json:"x,omitempty"`
	Y         string `json:"y,omitempty"`
	K         string `json:"k,omitempty"`
}

// NewDecodingKeyFromJWK parses a single JSON Web Key.
func NewDecodingKeyFromJWK(data []byte) (*DecodingKey, error) {
	var jwk JWK
	if err := json.Unmarshal(data, &jwk); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeyParse, err)
	}
	return jwk.DecodingKey()
}

// DecodingKey builds the verification key described by j.
func (j JWK) DecodingKey() (*DecodingKey, error) {
	switch j.KeyType {
	case "RSA":
		return NewDecodingKeyFromRSAComponents(j.N, j.E)
	case "EC":
		return NewDecodingKeyFromECComponents(j.Curve, j.X, j.Y)
	case "OKP":
		if j.Curve != "Ed25519" {
			return nil, fmt.Errorf("%w: unsupported OKP curve %q", ErrKeyParse, j.Curve)
		}
		return NewDecodingKeyFromEdComponents(j.X)
	case "oct":
		secret, err := decodeComponent("k", j.K)
		if err != nil {
			return nil, err
		}
		return NewDecodingKeyFromSecret(secret)
	default:
		return nil, fmt.Errorf("%w: unsupported key type %q", ErrKeyParse, j.KeyType)
	}
}

// NewDecodingKeyFromRSAComponents builds an RSA key from the base64url
// big-endian modulus and exponent.
func NewDecodingKeyFromRSAComponents(n, e string) (*DecodingKey, error) {
	nb, err := decodeComponent("n", n)
	if err != nil {
		return nil, err
	}
	eb, err := decodeComponent("e", e)
	if err != nil {
		return nil, err
	}
	exp := new(big.Int).SetBytes(eb)
	if !exp.IsInt64() || exp.Int64() > 1<<31-1 {
		return nil, fmt.Errorf("%w: RSA exponent too large", ErrKeyParse)
	}
	return NewDecodingKeyFromCrypto(&rsa.PublicKey{N: new(big.Int).SetBytes(nb), E: int(exp.Int64())})
}

// NewDecodingKeyFromECComponents builds an EC key from a JWK curve name
// (P-256, P-384, P-521 or secp256k1) and base64url coordinates.
func NewDecodingKeyFromECComponents(crv, x, y string) (*DecodingKey, error) {
	xb, err := decodeComponent("x", x)
	if err != nil {
		return nil, err
	}
	yb, err := decodeComponent("y", y)
	if err != nil {
		return nil, err
	}

	var curve elliptic.Curve
	switch crv {
	case "P-256":
		curve = elliptic.P256()
	case "P-384":
		curve = elliptic.P384()
	case "P-521":
		curve = elliptic.P521()
	case "secp256k1":
		if len(xb) != secp256k1ScalarSize || len(yb) != secp256k1ScalarSize {
			return nil, fmt.Errorf("%w: secp256k1 coordinates must be %d bytes", ErrKeyParse, secp256k1ScalarSize)
		}
		point := append(append([]byte{0x04}, xb...), yb...)
		pub, err := secp256k1.ParsePubKey(point)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrKeyParse, err)
		}
		return NewDecodingKeyFromCrypto(pub)
	default:
		return nil, fmt.Errorf("%w: unsupported curve %q", ErrKeyParse, crv)
	}

	size := (curve.Params().BitSize + 7) / 8
	if len(xb) != size || len(yb) != size {
		return nil, fmt.Errorf("%w: %s coordinates must be %d bytes", ErrKeyParse, crv, size)
	}
	return NewDecodingKeyFromCrypto(&ecdsa.PublicKey{
		Curve: curve,
		X:     new(big.Int).SetBytes(xb),
		Y:     new(big.Int).SetBytes(yb),
	})
}

// NewDecodingKeyFromEdComponents builds an Ed25519 key from the base64url
// public key bytes.
func NewDecodingKeyFromEdComponents(x string) (*DecodingKey, error) {
	xb, err := decodeComponent("x", x)
	if err != nil {
		return nil, err
	}
	return NewDecodingKeyFromCrypto(ed25519.PublicKey(xb))
}

func decodeComponent(name, value string) ([]byte, error) {
	if value == "" {
		return nil, fmt.Errorf("%w: missing %q", ErrKeyParse, name)
	}
	b, err := segmentEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrKeyParse, name, err)
	}
	return b, nil
}
