package jwt

import (
	"fmt"
	"strings"
	"time"
)

const tokenSegments = 3

// TokenData is a verified token: its header and the decoded claims.
type TokenData[T any] struct {
	Header Header
	Claims T
}

// Decode verifies token with key under policy v and returns its claims
// decoded into T. now is the instant time claims are checked against.
//
// The steps run in a fixed order: structure, header, algorithm allow-list,
// signature, claims, time and registered-claim checks. The key is never used
// for an algorithm the policy does not accept, and claims are never parsed
// before the signature verifies.
func Decode[T any](token string, key *DecodingKey, v *Validation, now time.Time) (*TokenData[T], error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}

	segments, err := splitToken(token)
	if err != nil {
		return nil, err
	}

	header, err := decodeHeader(segments[0])
	if err != nil {
		return nil, err
	}
	if !v.accepts(header.Algorithm) {
		return nil, fmt.Errorf("%w: %s is not accepted", ErrInvalidAlgorithm, header.Algorithm)
	}

	sig, err := decodeBase64(segments[2])
	if err != nil {
		return nil, fmt.Errorf("decode signature: %w", err)
	}
	signingInput := token[:len(segments[0])+1+len(segments[1])]
	ok, err := Verify(header.Algorithm, key, []byte(signingInput), sig)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidSignature
	}

	payload, err := decodeBase64(segments[1])
	if err != nil {
		return nil, fmt.Errorf("decode claims: %w", err)
	}
	var members claimSet
	if err := decodeJSON(payload, &members); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidClaims, err)
	}
	if members == nil {
		return nil, fmt.Errorf("%w: claims must be a JSON object", ErrInvalidClaims)
	}
	if err := checkClaimNames(members); err != nil {
		return nil, err
	}
	var claims T
	if err := decodeJSON(payload, &claims); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidClaims, err)
	}

	if err := v.validateClaims(members, now); err != nil {
		return nil, err
	}

	return &TokenData[T]{Header: *header, Claims: claims}, nil
}

// registeredClaimNames are the members checked against the policy.
var registeredClaimNames = []string{"exp", "nbf", "iat", "iss", "sub", "aud"}

// checkClaimNames rejects member names that encoding/json would fold onto
// another member or onto a registered claim, so T never holds a value other
// than the one that was validated.
func checkClaimNames(members claimSet) error {
	folded := make(map[string]string, len(members))
	for name := range members {
		for _, registered := range registeredClaimNames {
			if name != registered && strings.EqualFold(name, registered) {
				return fmt.Errorf("%w: member %q shadows %q", ErrInvalidClaims, name, registered)
			}
		}
		key := strings.ToLower(strings.ToUpper(name))
		if other, ok := folded[key]; ok {
			return fmt.Errorf("%w: members %q and %q differ only in case", ErrInvalidClaims, other, name)
		}
		folded[key] = name
	}
	return nil
}

// DecodeHeader returns the header of token without verifying it. Use it to
// select a key by "kid"; nothing in the result is authenticated.
func DecodeHeader(token string) (*Header, error) {
	segments, err := splitToken(token)
	if err != nil {
		return nil, err
	}
	return decodeHeader(segments[0])
}

// splitToken requires exactly three non-empty base64url segments.
func splitToken(token string) ([tokenSegments]string, error) {
	var segments [tokenSegments]string
	parts := strings.Split(token, ".")
	if len(parts) != tokenSegments {
		return segments, fmt.Errorf("%w: expected %d segments, got %d", ErrMalformedToken, tokenSegments, len(parts))
	}
	for i, part := range parts {
		if part == "" {
			return segments, fmt.Errorf("%w: segment %d is empty", ErrMalformedToken, i)
		}
		if err := checkBase64URL(part); err != nil {
			return segments, fmt.Errorf("segment %d: %w", i, err)
		}
		segments[i] = part
	}
	return segments, nil
}
