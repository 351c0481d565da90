package jwt

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func readTestdata(t testing.TB, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return data
}

type keyPair struct {
	enc *EncodingKey
	dec *DecodingKey
}

// testKeyPair returns a matching key pair able to sign alg.
func testKeyPair(t testing.TB, alg Algorithm) keyPair {
	t.Helper()

	var (
		enc *EncodingKey
		dec *DecodingKey
		err error
	)
	switch alg.Family() {
	case FamilySymmetric:
		enc, err = NewEncodingKeyFromSecret([]byte("0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"))
		require.NoError(t, err)
		dec, err = NewDecodingKeyFromSecret([]byte("0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"))
	case FamilyRSA:
		enc, err = NewEncodingKeyFromRSAPEM(readTestdata(t, "rsa-private.pem"))
		require.NoError(t, err)
		dec, err = NewDecodingKeyFromRSAPEM(readTestdata(t, "rsa-public.pem"))
	case FamilyP256:
		enc, err = NewEncodingKeyFromECPEM(readTestdata(t, "ec-p256-private.pem"))
		require.NoError(t, err)
		dec, err = NewDecodingKeyFromECPEM(readTestdata(t, "ec-p256-public.pem"))
	case FamilyP384:
		enc, err = NewEncodingKeyFromECPEM(readTestdata(t, "ec-p384-private.pem"))
		require.NoError(t, err)
		dec, err = NewDecodingKeyFromECPEM(readTestdata(t, "ec-p384-public.pem"))
	case FamilyP521:
		enc, err = NewEncodingKeyFromECPEM(readTestdata(t, "ec-p521-private.pem"))
		require.NoError(t, err)
		dec, err = NewDecodingKeyFromECPEM(readTestdata(t, "ec-p521-public.pem"))
	case FamilySecp256k1:
		enc, err = NewEncodingKeyFromECPEM(readTestdata(t, "ec-secp256k1-private.pem"))
		require.NoError(t, err)
		dec, err = NewDecodingKeyFromECPEM(readTestdata(t, "ec-secp256k1-public.pem"))
	case FamilyEd25519:
		enc, err = NewEncodingKeyFromEdPEM(readTestdata(t, "ed25519-private.pem"))
		require.NoError(t, err)
		dec, err = NewDecodingKeyFromEdPEM(readTestdata(t, "ed25519-public.pem"))
	default:
		t.Fatalf("no test key for %s", alg)
	}
	require.NoError(t, err)
	return keyPair{enc: enc, dec: dec}
}

// testClaims mirrors the claim set of the encode/decode benchmarks.
type testClaims struct {
	IssuedAt  int64 `json:"iat"`
	NotBefore int64 `json:"nbf"`
	ExpiresAt int64 `json:"exp"`
}
