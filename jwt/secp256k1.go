package jwt

import (
	"encoding/asn1"
	"errors"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	k1ecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"
)

const secp256k1ScalarSize = 32

var (
	oidPublicKeyECDSA = asn1.ObjectIdentifier{1, 2, 840, 10045, 2, 1}
	oidSecp256k1      = asn1.ObjectIdentifier{1, 3, 132, 0, 10}

	errNotSecp256k1 = errors.New("not a secp256k1 key")
)

// parseSecp256k1PrivateKey accepts SEC1 (RFC 5915) and PKCS#8 (RFC 5208)
// encodings whose named curve is secp256k1.
func parseSecp256k1PrivateKey(der []byte) (*secp256k1.PrivateKey, error) {
	input := cryptobyte.String(der)
	var seq cryptobyte.String
	var version int
	if !input.ReadASN1(&seq, cbasn1.SEQUENCE) || !input.Empty() || !seq.ReadASN1Integer(&version) {
		return nil, fmt.Errorf("%w: malformed EC private key", ErrKeyParse)
	}

	switch version {
	case 0:
		var algID, inner cryptobyte.String
		var alg, curve asn1.ObjectIdentifier
		if !seq.ReadASN1(&algID, cbasn1.SEQUENCE) ||
			!algID.ReadASN1ObjectIdentifier(&alg) ||
			!seq.ReadASN1(&inner, cbasn1.OCTET_STRING) {
			return nil, fmt.Errorf("%w: malformed PKCS#8 private key", ErrKeyParse)
		}
		if !alg.Equal(oidPublicKeyECDSA) || !algID.ReadASN1ObjectIdentifier(&curve) || !curve.Equal(oidSecp256k1) {
			return nil, fmt.Errorf("%w: %w", ErrKeyParse, errNotSecp256k1)
		}
		return parseSecp256k1SEC1(inner, true)
	case 1:
		return parseSecp256k1SEC1(der, false)
	default:
		return nil, fmt.Errorf("%w: unknown EC private key version %d", ErrKeyParse, version)
	}
}

func parseSecp256k1SEC1(der []byte, curveKnown bool) (*secp256k1.PrivateKey, error) {
	input := cryptobyte.String(der)
	var seq, priv, params cryptobyte.String
	var version int
	var hasParams bool
	if !input.ReadASN1(&seq, cbasn1.SEQUENCE) ||
		!seq.ReadASN1Integer(&version) || version != 1 ||
		!seq.ReadASN1(&priv, cbasn1.OCTET_STRING) ||
		!seq.ReadOptionalASN1(&params, &hasParams, cbasn1.Tag(0).Constructed().ContextSpecific()) {
		return nil, fmt.Errorf("%w: malformed SEC1 private key", ErrKeyParse)
	}
	if hasParams {
		var curve asn1.ObjectIdentifier
		if !params.ReadASN1ObjectIdentifier(&curve) || !curve.Equal(oidSecp256k1) {
			return nil, fmt.Errorf("%w: %w", ErrKeyParse, errNotSecp256k1)
		}
	} else if !curveKnown {
		return nil, fmt.Errorf("%w: %w", ErrKeyParse, errNotSecp256k1)
	}

	if len(priv) == 0 || len(priv) > secp256k1ScalarSize {
		return nil, fmt.Errorf("%w: secp256k1 private scalar has %d bytes", ErrKeyParse, len(priv))
	}
	var scalar secp256k1.ModNScalar
	if overflow := scalar.SetByteSlice(priv); overflow || scalar.IsZero() {
		return nil, fmt.Errorf("%w: secp256k1 private scalar out of range", ErrKeyParse)
	}
	return secp256k1.NewPrivateKey(&scalar), nil
}

// parseSecp256k1PKIX parses a SubjectPublicKeyInfo whose named curve is
// secp256k1. Other curves report errNotSecp256k1.
func parseSecp256k1PKIX(der []byte) (*secp256k1.PublicKey, error) {
	input := cryptobyte.String(der)
	var spki, algID cryptobyte.String
	var alg, curve asn1.ObjectIdentifier
	var bits asn1.BitString
	if !input.ReadASN1(&spki, cbasn1.SEQUENCE) || !input.Empty() ||
		!spki.ReadASN1(&algID, cbasn1.SEQUENCE) ||
		!algID.ReadASN1ObjectIdentifier(&alg) {
		return nil, fmt.Errorf("%w: malformed public key", ErrKeyParse)
	}
	if !alg.Equal(oidPublicKeyECDSA) || !algID.ReadASN1ObjectIdentifier(&curve) || !curve.Equal(oidSecp256k1) {
		return nil, fmt.Errorf("%w: %w", ErrKeyParse, errNotSecp256k1)
	}
	if !spki.ReadASN1BitString(&bits) || bits.BitLength%8 != 0 {
		return nil, fmt.Errorf("%w: malformed secp256k1 public key", ErrKeyParse)
	}
	pub, err := secp256k1.ParsePubKey(bits.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeyParse, err)
	}
	return pub, nil
}

func marshalSecp256k1PKIX(pub *secp256k1.PublicKey) ([]byte, error) {
	b := cryptobyte.NewBuilder(nil)
	b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
			b.AddASN1ObjectIdentifier(oidPublicKeyECDSA)
			b.AddASN1ObjectIdentifier(oidSecp256k1)
		})
		b.AddASN1BitString(pub.SerializeUncompressed())
	})
	return b.Bytes()
}

// signSecp256k1 returns the fixed-width r||s signature. Nonces follow
// RFC 6979, so the output is deterministic for a given key and digest.
func signSecp256k1(key *secp256k1.PrivateKey, digest []byte) []byte {
	sig := k1ecdsa.Sign(key, digest)
	r, s := sig.R(), sig.S()
	out := make([]byte, 2*secp256k1ScalarSize)
	r.PutBytesUnchecked(out[:secp256k1ScalarSize])
	s.PutBytesUnchecked(out[secp256k1ScalarSize:])
	return out
}

func verifySecp256k1(pub *secp256k1.PublicKey, digest, sig []byte) bool {
	if len(sig) != 2*secp256k1ScalarSize {
		return false
	}
	var r, s secp256k1.ModNScalar
	if r.SetByteSlice(sig[:secp256k1ScalarSize]) || s.SetByteSlice(sig[secp256k1ScalarSize:]) {
		return false
	}
	if r.IsZero() || s.IsZero() {
		return false
	}
	return k1ecdsa.NewSignature(&r, &s).Verify(digest, pub)
}
