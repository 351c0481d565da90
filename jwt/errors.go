package jwt

import "errors"

var (
	// ErrMalformedToken indicates the token is structurally invalid: wrong
	// segment count, an empty segment, invalid base64url or invalid JSON.
	ErrMalformedToken = errors.New("malformed token")
	// ErrInvalidBase64 indicates a segment is not unpadded base64url.
	ErrInvalidBase64 = errors.New("invalid base64url segment")
	// ErrInvalidJSON indicates a segment does not hold valid JSON.
	ErrInvalidJSON = errors.New("invalid JSON segment")

	// ErrInvalidAlgorithm indicates the header algorithm is unknown or not
	// accepted by the validation policy.
	ErrInvalidAlgorithm = errors.New("invalid algorithm")
	// ErrKeyAlgorithmMismatch indicates the key family cannot be used with the
	// requested algorithm.
	ErrKeyAlgorithmMismatch = errors.New("key does not match algorithm")
	// ErrInvalidSignature indicates the signature does not verify.
	ErrInvalidSignature = errors.New("invalid signature")

	// ErrInvalidClaims indicates the claims segment could not be parsed.
	ErrInvalidClaims = errors.New("invalid claims")
	// ErrExpiredToken indicates the exp claim is in the past.
	ErrExpiredToken = errors.New("token has expired")
	// ErrTokenNotYetValid indicates the nbf claim is in the future.
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	// ErrInvalidIssuedAt indicates the iat claim is in the future.
	ErrInvalidIssuedAt = errors.New("token issued in the future")
	// ErrMissingRequiredClaim indicates a claim required by the policy is absent.
	ErrMissingRequiredClaim = errors.New("missing required claim")
	// ErrInvalidIssuer indicates the iss claim is not in the accepted set.
	ErrInvalidIssuer = errors.New("invalid issuer")
	// ErrInvalidAudience indicates no aud value is in the accepted set.
	ErrInvalidAudience = errors.New("invalid audience")
	// ErrInvalidSubject indicates the sub claim does not match.
	ErrInvalidSubject = errors.New("invalid subject")

	// ErrKeyParse indicates key material could not be parsed.
	ErrKeyParse = errors.New("failed to parse key")
	// ErrInvalidValidation indicates the validation policy itself is unusable.
	ErrInvalidValidation = errors.New("invalid validation policy")
)
