package jwt

import (
	"encoding/json"
	"fmt"
)

// Encode signs claims with key under header.Algorithm and returns the compact
// token header.claims.signature.
func Encode(header Header, claims any, key *EncodingKey) (string, error) {
	raw, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("encode claims: %w", err)
	}
	if len(raw) == 0 || raw[0] != '{' {
		return "", fmt.Errorf("%w: claims must encode to a JSON object", ErrInvalidClaims)
	}
	return sign(header, segmentEncoding.EncodeToString(raw), key)
}

// EncodeWithPayload signs an already encoded claims segment. payload must be
// unpadded base64url of a JSON object; it is signed exactly as given.
func EncodeWithPayload(header Header, payload string, key *EncodingKey) (string, error) {
	if payload == "" {
		return "", fmt.Errorf("%w: empty claims segment", ErrMalformedToken)
	}
	var members map[string]json.RawMessage
	if err := DecodeSegment(payload, &members); err != nil {
		return "", fmt.Errorf("decode claims: %w", err)
	}
	if members == nil {
		return "", fmt.Errorf("%w: claims must be a JSON object", ErrMalformedToken)
	}
	return sign(header, payload, key)
}

func sign(header Header, payload string, key *EncodingKey) (string, error) {
	if !header.Algorithm.valid() {
		return "", fmt.Errorf("%w: header has no usable alg", ErrInvalidAlgorithm)
	}
	if key == nil {
		return "", mismatch(header.Algorithm, 0)
	}
	if key.family != header.Algorithm.Family() {
		return "", mismatch(header.Algorithm, key.family)
	}

	head, err := EncodeSegment(header)
	if err != nil {
		return "", fmt.Errorf("encode header: %w", err)
	}
	signingInput := head + "." + payload

	sig, err := Sign(header.Algorithm, key, []byte(signingInput))
	if err != nil {
		return "", err
	}
	return signingInput + "." + segmentEncoding.EncodeToString(sig), nil
}
