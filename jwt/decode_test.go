package jwt

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Unix(1_700_000_000, 0)

func encodeTestToken(t testing.TB, alg Algorithm, claims any) string {
	t.Helper()
	token, err := Encode(NewHeader(alg), claims, testKeyPair(t, alg).enc)
	require.NoError(t, err)
	return token
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	type appClaims struct {
		RegisteredClaims
		Scope []string `json:"scope"`
		Admin bool     `json:"admin"`
	}
	claims := appClaims{
		RegisteredClaims: RegisteredClaims{
			Issuer:    "issuer",
			Subject:   "alice",
			Audience:  Audience{"api"},
			ExpiresAt: NewNumericDate(epoch.Add(time.Hour)),
			IssuedAt:  NewNumericDate(epoch),
			ID:        "abc",
		},
		Scope: []string{"read", "write"},
		Admin: true,
	}

	for _, alg := range Algorithms() {
		t.Run(alg.String(), func(t *testing.T) {
			t.Parallel()

			keys := testKeyPair(t, alg)
			header := NewHeader(alg)
			header.KeyID = "key-1"
			token, err := Encode(header, claims, keys.enc)
			require.NoError(t, err)
			assert.Equal(t, 2, strings.Count(token, "."))

			data, err := Decode[appClaims](token, keys.dec, NewValidation(alg), epoch)
			require.NoError(t, err)
			assert.Equal(t, claims, data.Claims)
			assert.Equal(t, header, data.Header)
		})
	}
}

func TestRS256Scenario(t *testing.T) {
	t.Parallel()

	in := testClaims{
		IssuedAt:  epoch.Unix(),
		NotBefore: epoch.Unix(),
		ExpiresAt: epoch.Add(time.Hour).Unix(),
	}
	token := encodeTestToken(t, RS256, in)

	dec, err := NewDecodingKeyFromRSAPEM(readTestdata(t, "rsa-public.pem"))
	require.NoError(t, err)
	data, err := Decode[testClaims](token, dec, &Validation{Algorithms: []Algorithm{RS256}, ValidateExp: true, ValidateNbf: true}, epoch.Add(30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, in, data.Claims)
	assert.Equal(t, RS256, data.Header.Algorithm)
	assert.Equal(t, TypeJWT, data.Header.Type)
}

func TestTamperedToken(t *testing.T) {
	t.Parallel()

	for _, alg := range []Algorithm{HS256, RS256, ES256K, EdDSA} {
		t.Run(alg.String(), func(t *testing.T) {
			t.Parallel()

			keys := testKeyPair(t, alg)
			token := encodeTestToken(t, alg, testClaims{IssuedAt: epoch.Unix(), ExpiresAt: epoch.Add(time.Hour).Unix()})
			v := NewValidation(alg)

			_, err := Decode[testClaims](token, keys.dec, v, epoch)
			require.NoError(t, err)

			raw := []byte(token)
			for i := range raw {
				if raw[i] == '.' {
					continue
				}
				for bit := 0; bit < 8; bit++ {
					raw[i] ^= 1 << bit
					_, err := Decode[testClaims](string(raw), keys.dec, v, epoch)
					raw[i] ^= 1 << bit

					require.Error(t, err, "byte %d bit %d", i, bit)
					assert.True(t,
						errorIsAny(err, ErrMalformedToken, ErrInvalidSignature, ErrInvalidAlgorithm),
						"byte %d bit %d: %v", i, bit, err)
				}
			}
		})
	}
}

func errorIsAny(err error, targets ...error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func TestAlgorithmConfusion(t *testing.T) {
	t.Parallel()

	rsaKeys := testKeyPair(t, RS256)
	claims := testClaims{ExpiresAt: epoch.Add(time.Hour).Unix()}

	// The RSA public key PEM used as an HMAC secret.
	secret, err := NewEncodingKeyFromSecret(readTestdata(t, "rsa-public.pem"))
	require.NoError(t, err)
	forged, err := Encode(NewHeader(HS256), claims, secret)
	require.NoError(t, err)

	_, err = Decode[testClaims](forged, rsaKeys.dec, NewValidation(RS256), epoch)
	assert.ErrorIs(t, err, ErrInvalidAlgorithm)

	token := encodeTestToken(t, RS256, claims)
	_, err = Decode[testClaims](token, rsaKeys.dec, NewValidation(PS256), epoch)
	assert.ErrorIs(t, err, ErrInvalidAlgorithm)

	// Accepted algorithm, wrong key family.
	ecKeys := testKeyPair(t, ES256)
	_, err = Decode[testClaims](token, ecKeys.dec, &Validation{Algorithms: []Algorithm{RS256, ES256}}, epoch)
	assert.ErrorIs(t, err, ErrKeyAlgorithmMismatch)
}

func TestUnsignedToken(t *testing.T) {
	t.Parallel()

	keys := testKeyPair(t, RS256)
	payload, err := EncodeSegment(testClaims{ExpiresAt: epoch.Add(time.Hour).Unix()})
	require.NoError(t, err)

	for _, header := range []string{`{"alg":"none"}`, `{"alg":"None","typ":"JWT"}`, `{"alg":""}`} {
		head := segmentEncoding.EncodeToString([]byte(header))
		for _, sig := range []string{"", "AAAA"} {
			_, err := Decode[testClaims](head+"."+payload+"."+sig, keys.dec, NewValidation(RS256), epoch)
			require.Error(t, err, header)
			assert.True(t, errorIsAny(err, ErrMalformedToken, ErrInvalidAlgorithm), "%s: %v", header, err)
		}
	}

	_, err = DecodeHeader(segmentEncoding.EncodeToString([]byte(`{"alg":"none"}`)) + "." + payload + ".AAAA")
	assert.ErrorIs(t, err, ErrInvalidAlgorithm)
	_, err = DecodeHeader(segmentEncoding.EncodeToString([]byte(`{"typ":"JWT"}`)) + "." + payload + ".AAAA")
	assert.ErrorIs(t, err, ErrMalformedToken)
}

func TestCrossKeyRejection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		alg   Algorithm
		other string
		load  func([]byte) (*DecodingKey, error)
	}{
		{RS256, "rsa2-public.pem", NewDecodingKeyFromRSAPEM},
		{PS512, "rsa2-public.pem", NewDecodingKeyFromRSAPEM},
		{ES256, "ec-p256b-public.pem", NewDecodingKeyFromECPEM},
	}

	for _, tt := range tests {
		t.Run(tt.alg.String(), func(t *testing.T) {
			t.Parallel()

			other, err := tt.load(readTestdata(t, tt.other))
			require.NoError(t, err)
			token := encodeTestToken(t, tt.alg, testClaims{ExpiresAt: epoch.Add(time.Hour).Unix()})

			_, err = Decode[testClaims](token, other, NewValidation(tt.alg), epoch)
			assert.ErrorIs(t, err, ErrInvalidSignature)
		})
	}

	hsOther, err := NewDecodingKeyFromSecret([]byte("another secret"))
	require.NoError(t, err)
	token := encodeTestToken(t, HS384, testClaims{ExpiresAt: epoch.Add(time.Hour).Unix()})
	_, err = Decode[testClaims](token, hsOther, NewValidation(HS384), epoch)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestTimeClaimBoundaries(t *testing.T) {
	t.Parallel()

	now := epoch.Unix()
	tests := []struct {
		name   string
		claims MapClaims
		v      Validation
		want   error
	}{
		{"exp in the past", MapClaims{"exp": now - 1}, Validation{ValidateExp: true}, ErrExpiredToken},
		{"exp now", MapClaims{"exp": now}, Validation{ValidateExp: true}, nil},
		{"exp within leeway", MapClaims{"exp": now - 60}, Validation{ValidateExp: true, Leeway: time.Minute}, nil},
		{"exp beyond leeway", MapClaims{"exp": now - 61}, Validation{ValidateExp: true, Leeway: time.Minute}, ErrExpiredToken},
		{"exp not checked", MapClaims{"exp": now - 1000}, Validation{}, nil},
		{"exp required", MapClaims{}, Validation{RequireExp: true}, ErrMissingRequiredClaim},
		{"exp float", MapClaims{"exp": float64(now) + 1e3}, Validation{ValidateExp: true}, nil},
		{"exp fractional", MapClaims{"exp": float64(now) + 0.5}, Validation{ValidateExp: true}, ErrInvalidClaims},
		{"exp negative", MapClaims{"exp": -1}, Validation{ValidateExp: true}, ErrInvalidClaims},
		{"exp string", MapClaims{"exp": "1700000000"}, Validation{ValidateExp: true}, ErrInvalidClaims},
		{"nbf in the future", MapClaims{"nbf": now + 1}, Validation{ValidateNbf: true}, ErrTokenNotYetValid},
		{"nbf now", MapClaims{"nbf": now}, Validation{ValidateNbf: true}, nil},
		{"nbf within leeway", MapClaims{"nbf": now + 5}, Validation{ValidateNbf: true, Leeway: 5 * time.Second}, nil},
		{"nbf beyond leeway", MapClaims{"nbf": now + 6}, Validation{ValidateNbf: true, Leeway: 5 * time.Second}, ErrTokenNotYetValid},
		{"nbf required", MapClaims{}, Validation{RequireNbf: true}, ErrMissingRequiredClaim},
		{"iat in the future", MapClaims{"iat": now + 10}, Validation{ValidateIat: true}, ErrInvalidIssuedAt},
		{"iat within leeway", MapClaims{"iat": now + 10}, Validation{ValidateIat: true, Leeway: 10 * time.Second}, nil},
		{"iat not checked", MapClaims{"iat": now + 10}, Validation{}, nil},
		{"iat required", MapClaims{"exp": now}, Validation{RequireIat: true}, ErrMissingRequiredClaim},
		{"null exp is absent", MapClaims{"exp": nil}, Validation{RequireExp: true}, ErrMissingRequiredClaim},
	}

	keys := testKeyPair(t, ES256)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			token, err := Encode(NewHeader(ES256), tt.claims, keys.enc)
			require.NoError(t, err)

			v := tt.v
			v.Algorithms = []Algorithm{ES256}
			_, err = Decode[MapClaims](token, keys.dec, &v, epoch)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)

			// The same policy applied directly to the claims agrees with Decode.
			direct := v.ValidateTimeClaims(tt.claims, epoch)
			assert.ErrorIs(t, direct, tt.want)
		})
	}
}

func TestRegisteredClaimChecks(t *testing.T) {
	t.Parallel()

	exp := epoch.Add(time.Hour).Unix()
	tests := []struct {
		name   string
		claims MapClaims
		v      Validation
		want   error
	}{
		{"required present", MapClaims{"exp": exp, "tenant": "a"}, Validation{RequiredClaims: []string{"tenant"}}, nil},
		{"required missing", MapClaims{"exp": exp}, Validation{RequiredClaims: []string{"tenant"}}, ErrMissingRequiredClaim},
		{"issuer ok", MapClaims{"exp": exp, "iss": "b"}, Validation{Issuers: []string{"a", "b"}}, nil},
		{"issuer wrong", MapClaims{"exp": exp, "iss": "c"}, Validation{Issuers: []string{"a", "b"}}, ErrInvalidIssuer},
		{"issuer missing", MapClaims{"exp": exp}, Validation{Issuers: []string{"a"}}, ErrInvalidIssuer},
		{"issuer not string", MapClaims{"exp": exp, "iss": 1}, Validation{Issuers: []string{"a"}}, ErrInvalidClaims},
		{"audience string", MapClaims{"exp": exp, "aud": "api"}, Validation{Audiences: []string{"api"}}, nil},
		{"audience array", MapClaims{"exp": exp, "aud": []string{"web", "api"}}, Validation{Audiences: []string{"api", "cli"}}, nil},
		{"audience disjoint", MapClaims{"exp": exp, "aud": []string{"web"}}, Validation{Audiences: []string{"api"}}, ErrInvalidAudience},
		{"audience missing", MapClaims{"exp": exp}, Validation{Audiences: []string{"api"}}, ErrInvalidAudience},
		{"audience wrong type", MapClaims{"exp": exp, "aud": 7}, Validation{Audiences: []string{"api"}}, ErrInvalidClaims},
		{"subject ok", MapClaims{"exp": exp, "sub": "alice"}, Validation{Subject: "alice"}, nil},
		{"subject wrong", MapClaims{"exp": exp, "sub": "bob"}, Validation{Subject: "alice"}, ErrInvalidSubject},
		{"subject missing", MapClaims{"exp": exp}, Validation{Subject: "alice"}, ErrInvalidSubject},
	}

	keys := testKeyPair(t, EdDSA)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			token, err := Encode(NewHeader(EdDSA), tt.claims, keys.enc)
			require.NoError(t, err)

			v := tt.v
			v.Algorithms = []Algorithm{EdDSA}
			v.ValidateExp = true
			_, err = Decode[MapClaims](token, keys.dec, &v, epoch)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestStructuralErrors(t *testing.T) {
	t.Parallel()

	keys := testKeyPair(t, HS256)
	token := encodeTestToken(t, HS256, testClaims{ExpiresAt: epoch.Add(time.Hour).Unix()})
	parts := strings.Split(token, ".")

	for name, bad := range map[string]string{
		"empty":             "",
		"one segment":       parts[0],
		"two segments":      parts[0] + "." + parts[1],
		"four segments":     token + "." + parts[2],
		"empty header":      "." + parts[1] + "." + parts[2],
		"empty claims":      parts[0] + ".." + parts[2],
		"empty signature":   parts[0] + "." + parts[1] + ".",
		"padded signature":  token + "=",
		"whitespace":        " " + token,
		"header not json":   "bm90IGpzb24." + parts[1] + "." + parts[2],
		"header is array":   "W10." + parts[1] + "." + parts[2],
		"signature newline": parts[0] + "." + parts[1] + "." + parts[2][:4] + "\n" + parts[2][4:],
	} {
		_, err := Decode[testClaims](bad, keys.dec, NewValidation(HS256), epoch)
		assert.ErrorIs(t, err, ErrMalformedToken, name)
	}
}

func TestClaimsMustBeObject(t *testing.T) {
	t.Parallel()

	keys := testKeyPair(t, HS256)
	for _, payload := range []string{`[]`, `"claims"`, `null`, `{"exp":1}{}`} {
		head, err := EncodeSegment(NewHeader(HS256))
		require.NoError(t, err)
		input := head + "." + segmentEncoding.EncodeToString([]byte(payload))
		sig, err := Sign(HS256, keys.enc, []byte(input))
		require.NoError(t, err)

		_, err = Decode[MapClaims](input+"."+segmentEncoding.EncodeToString(sig), keys.dec, &Validation{Algorithms: []Algorithm{HS256}}, epoch)
		assert.ErrorIs(t, err, ErrInvalidClaims, payload)
	}

	_, err := Encode(NewHeader(HS256), []string{"a"}, keys.enc)
	assert.ErrorIs(t, err, ErrInvalidClaims)
	_, err = Encode(NewHeader(HS256), nil, keys.enc)
	assert.ErrorIs(t, err, ErrInvalidClaims)
}

func TestClaimsTypeMismatch(t *testing.T) {
	t.Parallel()

	keys := testKeyPair(t, HS256)
	token := encodeTestToken(t, HS256, MapClaims{"exp": epoch.Add(time.Hour).Unix(), "admin": "yes"})

	type strict struct {
		Admin bool `json:"admin"`
	}
	_, err := Decode[strict](token, keys.dec, NewValidation(HS256), epoch)
	assert.ErrorIs(t, err, ErrInvalidClaims)
}

func TestMapClaimsNumbers(t *testing.T) {
	t.Parallel()

	keys := testKeyPair(t, ES384)
	token := encodeTestToken(t, ES384, MapClaims{
		"exp":   epoch.Add(time.Hour).Unix(),
		"big":   json.Number("123456789012345678901234567890"),
		"ratio": 0.25,
	})

	data, err := Decode[MapClaims](token, keys.dec, NewValidation(ES384), epoch)
	require.NoError(t, err)
	assert.Equal(t, json.Number("123456789012345678901234567890"), data.Claims["big"])
	assert.Equal(t, json.Number("0.25"), data.Claims["ratio"])

	exp, ok, err := data.Claims.ExpirationTime()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, NumericDate(epoch.Unix()+3600), exp)
}

func TestReservedClaimsReadFromSignedSegment(t *testing.T) {
	t.Parallel()

	// The target type drops exp entirely; the expired token must still fail.
	type subjectOnly struct {
		Subject string `json:"sub"`
	}
	keys := testKeyPair(t, PS256)
	token := encodeTestToken(t, PS256, MapClaims{"sub": "alice", "exp": epoch.Unix() - 1})

	_, err := Decode[subjectOnly](token, keys.dec, NewValidation(PS256), epoch)
	assert.ErrorIs(t, err, ErrExpiredToken)

	_, err = Decode[subjectOnly](token, keys.dec, NewValidation(PS256), epoch.Add(-time.Second))
	assert.NoError(t, err)
}

func TestCaseFoldedClaimNames(t *testing.T) {
	t.Parallel()

	keys := testKeyPair(t, HS256)
	header := NewHeader(HS256)

	for name, payload := range map[string]string{
		"shadowed exp":      `{"exp":9999999999,"Exp":1}`,
		"shadow only":       `{"EXP":1}`,
		"shadowed audience": `{"exp":9999999999,"aud":"api","Aud":"other"}`,
		"custom collision":  `{"exp":9999999999,"role":"user","Role":"admin"}`,
	} {
		token, err := EncodeWithPayload(header, segmentEncoding.EncodeToString([]byte(payload)), keys.enc)
		require.NoError(t, err, name)

		_, err = Decode[RegisteredClaims](token, keys.dec, NewValidation(HS256), epoch)
		assert.ErrorIs(t, err, ErrInvalidClaims, name)
	}

	token, err := EncodeWithPayload(header, segmentEncoding.EncodeToString([]byte(`{"exp":9999999999,"Expiry":1}`)), keys.enc)
	require.NoError(t, err)
	data, err := Decode[RegisteredClaims](token, keys.dec, NewValidation(HS256), epoch)
	require.NoError(t, err)
	assert.Equal(t, NewNumericDate(time.Unix(9999999999, 0)), data.Claims.ExpiresAt)
}

func TestEncodeWithPayload(t *testing.T) {
	t.Parallel()

	keys := testKeyPair(t, ES512)
	payload := segmentEncoding.EncodeToString([]byte(`{"sub":"svc","exp":1700003600,"x":[1,2]}`))

	header := NewHeader(ES512)
	header.KeyID = "k1"
	token, err := EncodeWithPayload(header, payload, keys.enc)
	require.NoError(t, err)
	assert.Equal(t, payload, strings.Split(token, ".")[1], "payload is signed as given")

	data, err := Decode[MapClaims](token, keys.dec, NewValidation(ES512), epoch)
	require.NoError(t, err)
	assert.Equal(t, "svc", data.Claims["sub"])
	assert.Equal(t, "k1", data.Header.KeyID)

	for name, bad := range map[string]string{
		"empty":      "",
		"not base64": "e30=",
		"not json":   "bm90IGpzb24",
		"array":      "W10",
		"null":       "bnVsbA",
	} {
		_, err := EncodeWithPayload(header, bad, keys.enc)
		assert.ErrorIs(t, err, ErrMalformedToken, name)
	}

	_, err = EncodeWithPayload(NewHeader(ES256), payload, keys.enc)
	assert.ErrorIs(t, err, ErrKeyAlgorithmMismatch)
	_, err = EncodeWithPayload(Header{}, payload, keys.enc)
	assert.ErrorIs(t, err, ErrInvalidAlgorithm)
}

func TestDecodeHeader(t *testing.T) {
	t.Parallel()

	keys := testKeyPair(t, ES256K)
	header := Header{
		Algorithm:     ES256K,
		Type:          TypeJWT,
		ContentType:   "JWT",
		KeyID:         "kid-7",
		X509CertChain: []string{"MIIB"},
		X509URL:       "https://example.com/cert",
	}
	token, err := Encode(header, MapClaims{"sub": "x"}, keys.enc)
	require.NoError(t, err)

	got, err := DecodeHeader(token)
	require.NoError(t, err)
	assert.Equal(t, header, *got)
}

func TestOpenSSLSecp256k1Token(t *testing.T) {
	t.Parallel()

	token := strings.TrimSpace(string(readTestdata(t, "es256k-openssl.jwt")))
	keys := testKeyPair(t, ES256K)

	data, err := Decode[MapClaims](token, keys.dec, NewValidation(ES256K), epoch.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "openssl", data.Claims["sub"])
	assert.Equal(t, json.Number("1700003600"), data.Claims["exp"])

	_, err = Decode[MapClaims](token, keys.dec, NewValidation(ES256K), epoch.Add(2*time.Hour))
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidationPolicy(t *testing.T) {
	t.Parallel()

	keys := testKeyPair(t, HS256)
	token := encodeTestToken(t, HS256, testClaims{ExpiresAt: epoch.Add(time.Hour).Unix()})

	for name, v := range map[string]*Validation{
		"nil":             nil,
		"no algorithms":   {},
		"invalid alg":     {Algorithms: []Algorithm{HS256, Algorithm(99)}},
		"negative leeway": {Algorithms: []Algorithm{HS256}, Leeway: -time.Second},
	} {
		assert.ErrorIs(t, v.Validate(), ErrInvalidValidation, name)
		_, err := Decode[testClaims](token, keys.dec, v, epoch)
		assert.ErrorIs(t, err, ErrInvalidValidation, name)
	}

	v := NewValidation(RS256)
	assert.Equal(t, []Algorithm{RS256}, v.Algorithms)
	assert.True(t, v.RequireExp)
	assert.True(t, v.ValidateNbf)
	assert.False(t, v.ValidateIat)
	assert.NoError(t, v.Validate())
}

func TestRegisteredClaimsJSON(t *testing.T) {
	t.Parallel()

	var c RegisteredClaims
	require.NoError(t, json.Unmarshal([]byte(`{"aud":"one","exp":1.7e9,"nbf":null}`), &c))
	assert.Equal(t, Audience{"one"}, c.Audience)
	require.NotNil(t, c.ExpiresAt)
	assert.Equal(t, NumericDate(1_700_000_000), *c.ExpiresAt)
	assert.Nil(t, c.NotBefore)

	raw, err := json.Marshal(RegisteredClaims{Audience: Audience{"one"}, IssuedAt: NewNumericDate(epoch)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"aud":"one","iat":1700000000}`, string(raw))

	raw, err = json.Marshal(Audience{"a", "b"})
	require.NoError(t, err)
	assert.JSONEq(t, `["a","b"]`, string(raw))

	assert.ErrorIs(t, json.Unmarshal([]byte(`{"exp":"soon"}`), &c), ErrInvalidClaims)
	assert.ErrorIs(t, json.Unmarshal([]byte(`{"aud":{}}`), &c), ErrInvalidClaims)
}
