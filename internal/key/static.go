package key

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/zarvd/jwtsigner/jwt"
)

// StaticKey is a signing key loaded once at startup.
type StaticKey struct {
	Algorithm  jwt.Algorithm
	KeyID      string
	SigningKey *jwt.EncodingKey
}

// VerificationKey is a public key, or shared secret, tokens may be checked
// against.
type VerificationKey struct {
	Algorithm jwt.Algorithm
	KeyID     string
	Key       *jwt.DecodingKey
}

// DecodeSigningKey parses PEM key material for alg. HMAC algorithms take the
// content as the raw secret. An empty keyID is replaced by one derived from
// the public key.
func DecodeSigningKey(alg jwt.Algorithm, keyID string, content []byte) (*StaticKey, error) {
	var (
		signingKey *jwt.EncodingKey
		err        error
	)
	switch alg.Family() {
	case jwt.FamilySymmetric:
		signingKey, err = jwt.NewEncodingKeyFromSecret(content)
	case jwt.FamilyRSA:
		signingKey, err = jwt.NewEncodingKeyFromRSAPEM(content)
	case jwt.FamilyEd25519:
		signingKey, err = jwt.NewEncodingKeyFromEdPEM(content)
	default:
		signingKey, err = jwt.NewEncodingKeyFromECPEM(content)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s signing key: %w", alg, err)
	}
	if signingKey.Family() != alg.Family() {
		return nil, fmt.Errorf("%w: %s cannot sign with a %s key", jwt.ErrKeyAlgorithmMismatch, alg, signingKey.Family())
	}

	if keyID == "" {
		keyID, err = deriveKeyID(signingKey.DecodingKey())
		if err != nil {
			return nil, err
		}
	}
	return &StaticKey{Algorithm: alg, KeyID: keyID, SigningKey: signingKey}, nil
}

// DecodeVerificationKey parses a PEM public key, or a secret for HMAC
// algorithms.
func DecodeVerificationKey(alg jwt.Algorithm, keyID string, content []byte) (*VerificationKey, error) {
	var (
		verificationKey *jwt.DecodingKey
		err             error
	)
	switch alg.Family() {
	case jwt.FamilySymmetric:
		verificationKey, err = jwt.NewDecodingKeyFromSecret(content)
	case jwt.FamilyRSA:
		verificationKey, err = jwt.NewDecodingKeyFromRSAPEM(content)
	case jwt.FamilyEd25519:
		verificationKey, err = jwt.NewDecodingKeyFromEdPEM(content)
	default:
		verificationKey, err = jwt.NewDecodingKeyFromECPEM(content)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s verification key: %w", alg, err)
	}
	if verificationKey.Family() != alg.Family() {
		return nil, fmt.Errorf("%w: %s cannot verify with a %s key", jwt.ErrKeyAlgorithmMismatch, alg, verificationKey.Family())
	}

	if keyID == "" {
		keyID, err = deriveKeyID(verificationKey)
		if err != nil {
			return nil, err
		}
	}
	return &VerificationKey{Algorithm: alg, KeyID: keyID, Key: verificationKey}, nil
}

// deriveKeyID names an asymmetric key after its SubjectPublicKeyInfo so the
// id survives restarts. Secrets get a random id.
func deriveKeyID(key *jwt.DecodingKey) (string, error) {
	if key.Family() == jwt.FamilySymmetric {
		return uuid.NewString(), nil
	}
	der, err := key.MarshalPKIX()
	if err != nil {
		return "", fmt.Errorf("failed to marshal public key: %w", err)
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, der).String(), nil
}
