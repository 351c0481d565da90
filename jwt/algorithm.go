package jwt

import (
	"crypto"
	_ "crypto/sha256"
	_ "crypto/sha512"
	"fmt"
)

// Algorithm identifies a JWS signature algorithm. The set is closed: adding
// an algorithm means adding a case to every switch in this package.
type Algorithm int

const (
	HS256 Algorithm = iota + 1
	HS384
	HS512
	RS256
	RS384
	RS512
	PS256
	PS384
	PS512
	ES256
	ES384
	ES512
	ES256K
	EdDSA
)

var algorithmNames = [...]string{
	HS256:  "HS256",
	HS384:  "HS384",
	HS512:  "HS512",
	RS256:  "RS256",
	RS384:  "RS384",
	RS512:  "RS512",
	PS256:  "PS256",
	PS384:  "PS384",
	PS512:  "PS512",
	ES256:  "ES256",
	ES384:  "ES384",
	ES512:  "ES512",
	ES256K: "ES256K",
	EdDSA:  "EdDSA",
}

// Algorithms returns every supported algorithm in declaration order.
func Algorithms() []Algorithm {
	algs := make([]Algorithm, 0, len(algorithmNames)-1)
	for alg := HS256; alg <= EdDSA; alg++ {
		algs = append(algs, alg)
	}
	return algs
}

// ParseAlgorithm resolves a JWS "alg" name. Names are case sensitive and
// "none" is never accepted.
func ParseAlgorithm(name string) (Algorithm, error) {
	for alg := HS256; alg <= EdDSA; alg++ {
		if algorithmNames[alg] == name {
			return alg, nil
		}
	}
	return 0, fmt.Errorf("%w: unsupported algorithm %q", ErrInvalidAlgorithm, name)
}

func (a Algorithm) valid() bool {
	return a >= HS256 && a <= EdDSA
}

func (a Algorithm) String() string {
	if !a.valid() {
		return fmt.Sprintf("Algorithm(%d)", int(a))
	}
	return algorithmNames[a]
}

// Family returns the key family an algorithm signs and verifies with.
func (a Algorithm) Family() KeyFamily {
	switch a {
	case HS256, HS384, HS512:
		return FamilySymmetric
	case RS256, RS384, RS512, PS256, PS384, PS512:
		return FamilyRSA
	case ES256:
		return FamilyP256
	case ES384:
		return FamilyP384
	case ES512:
		return FamilyP521
	case ES256K:
		return FamilySecp256k1
	case EdDSA:
		return FamilyEd25519
	default:
		return 0
	}
}

// Hash returns the digest applied to the signing input. EdDSA signs the
// message directly and reports 0.
func (a Algorithm) Hash() crypto.Hash {
	switch a {
	case HS256, RS256, PS256, ES256, ES256K:
		return crypto.SHA256
	case HS384, RS384, PS384, ES384:
		return crypto.SHA384
	case HS512, RS512, PS512, ES512:
		return crypto.SHA512
	default:
		return 0
	}
}

func (a Algorithm) MarshalText() ([]byte, error) {
	if !a.valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAlgorithm, a)
	}
	return []byte(algorithmNames[a]), nil
}

func (a *Algorithm) UnmarshalText(text []byte) error {
	alg, err := ParseAlgorithm(string(text))
	if err != nil {
		return err
	}
	*a = alg
	return nil
}
