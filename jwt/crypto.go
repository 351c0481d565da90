package jwt

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/hmac"
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"math/big"
)

// Sign computes the signature of msg with alg. The key family must match
// the family alg requires.
func Sign(alg Algorithm, key *EncodingKey, msg []byte) ([]byte, error) {
	if !alg.valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAlgorithm, alg)
	}
	if key == nil {
		return nil, mismatch(alg, 0)
	}
	if key.family != alg.Family() {
		return nil, mismatch(alg, key.family)
	}

	switch alg {
	case HS256, HS384, HS512:
		return hmacSum(alg.Hash(), key.secret, msg), nil
	case RS256, RS384, RS512:
		sig, err := rsa.SignPKCS1v15(rand.Reader, key.rsa, alg.Hash(), digest(alg.Hash(), msg))
		if err != nil {
			return nil, fmt.Errorf("sign %s: %w", alg, err)
		}
		return sig, nil
	case PS256, PS384, PS512:
		opts := &rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthEqualsHash, Hash: alg.Hash()}
		sig, err := rsa.SignPSS(rand.Reader, key.rsa, alg.Hash(), digest(alg.Hash(), msg), opts)
		if err != nil {
			return nil, fmt.Errorf("sign %s: %w", alg, err)
		}
		return sig, nil
	case ES256, ES384, ES512:
		r, s, err := ecdsa.Sign(rand.Reader, key.ec, digest(alg.Hash(), msg))
		if err != nil {
			return nil, fmt.Errorf("sign %s: %w", alg, err)
		}
		size := ecScalarSize(alg)
		sig := make([]byte, 2*size)
		r.FillBytes(sig[:size])
		s.FillBytes(sig[size:])
		return sig, nil
	case ES256K:
		return signSecp256k1(key.k1, digest(alg.Hash(), msg)), nil
	case EdDSA:
		return ed25519.Sign(key.ed, msg), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidAlgorithm, alg)
	}
}

// Verify reports whether sig is a valid signature of msg under alg. A forged
// or malformed signature yields false with a nil error; an error is returned
// only when alg or the key family is unusable.
func Verify(alg Algorithm, key *DecodingKey, msg, sig []byte) (bool, error) {
	if !alg.valid() {
		return false, fmt.Errorf("%w: %s", ErrInvalidAlgorithm, alg)
	}
	if key == nil {
		return false, mismatch(alg, 0)
	}
	if key.family != alg.Family() {
		return false, mismatch(alg, key.family)
	}

	switch alg {
	case HS256, HS384, HS512:
		if len(sig) != alg.Hash().Size() {
			return false, nil
		}
		return hmac.Equal(sig, hmacSum(alg.Hash(), key.secret, msg)), nil
	case RS256, RS384, RS512:
		if len(sig) != key.rsa.Size() {
			return false, nil
		}
		return rsa.VerifyPKCS1v15(key.rsa, alg.Hash(), digest(alg.Hash(), msg), sig) == nil, nil
	case PS256, PS384, PS512:
		if len(sig) != key.rsa.Size() {
			return false, nil
		}
		opts := &rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthAuto, Hash: alg.Hash()}
		return rsa.VerifyPSS(key.rsa, alg.Hash(), digest(alg.Hash(), msg), sig, opts) == nil, nil
	case ES256, ES384, ES512:
		size := ecScalarSize(alg)
		if len(sig) != 2*size {
			return false, nil
		}
		r := new(big.Int).SetBytes(sig[:size])
		s := new(big.Int).SetBytes(sig[size:])
		return ecdsa.Verify(key.ec, digest(alg.Hash(), msg), r, s), nil
	case ES256K:
		return verifySecp256k1(key.k1, digest(alg.Hash(), msg), sig), nil
	case EdDSA:
		if len(sig) != ed25519.SignatureSize {
			return false, nil
		}
		return ed25519.Verify(key.ed, msg, sig), nil
	default:
		return false, fmt.Errorf("%w: %s", ErrInvalidAlgorithm, alg)
	}
}

func mismatch(alg Algorithm, got KeyFamily) error {
	if got == 0 {
		return fmt.Errorf("%w: %s requires a %s key, got none", ErrKeyAlgorithmMismatch, alg, alg.Family())
	}
	return fmt.Errorf("%w: %s requires a %s key, got %s", ErrKeyAlgorithmMismatch, alg, alg.Family(), got)
}

// ecScalarSize is the byte width of r and s for alg's curve.
func ecScalarSize(alg Algorithm) int {
	switch alg {
	case ES384:
		return 48
	case ES512:
		return 66
	default:
		return 32
	}
}

func digest(h crypto.Hash, msg []byte) []byte {
	hasher := h.New()
	hasher.Write(msg)
	return hasher.Sum(nil)
}

func hmacSum(h crypto.Hash, secret, msg []byte) []byte {
	mac := hmac.New(h.New, secret)
	mac.Write(msg)
	return mac.Sum(nil)
}
