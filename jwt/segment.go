package jwt

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
)

// segmentEncoding is unpadded base64url that rejects non-zero trailing bits,
// so every segment has exactly one accepted spelling.
var segmentEncoding = base64.RawURLEncoding.Strict()

// EncodeSegment serializes v to compact JSON and encodes it as unpadded
// base64url.
func EncodeSegment(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal segment: %w", err)
	}
	return segmentEncoding.EncodeToString(raw), nil
}

// DecodeSegment reverses EncodeSegment into v. Failures wrap ErrInvalidBase64
// or ErrInvalidJSON, both of which also match ErrMalformedToken.
func DecodeSegment(seg string, v any) error {
	raw, err := decodeBase64(seg)
	if err != nil {
		return err
	}
	if err := decodeJSON(raw, v); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedToken, err)
	}
	return nil
}

func decodeBase64(seg string) ([]byte, error) {
	// encoding/base64 silently skips CR and LF, which would let two distinct
	// strings decode to the same bytes.
	if err := checkBase64URL(seg); err != nil {
		return nil, err
	}
	raw, err := segmentEncoding.DecodeString(seg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w: %w", ErrMalformedToken, ErrInvalidBase64, err)
	}
	return raw, nil
}

func checkBase64URL(seg string) error {
	for i := 0; i < len(seg); i++ {
		if !isBase64URL(seg[i]) {
			return fmt.Errorf("%w: %w: illegal byte %#x at offset %d", ErrMalformedToken, ErrInvalidBase64, seg[i], i)
		}
	}
	return nil
}

// decodeJSON unmarshals exactly one JSON value. Numbers are kept as
// json.Number so opaque claims survive a round trip unchanged.
func decodeJSON(raw []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidJSON, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return fmt.Errorf("%w: trailing data after JSON value", ErrInvalidJSON)
	}
	return nil
}

func isBase64URL(c byte) bool {
	return 'A' <= c && c <= 'Z' || 'a' <= c && c <= 'z' || '0' <= c && c <= '9' || c == '-' || c == '_'
}
