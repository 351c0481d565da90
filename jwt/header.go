package jwt

import "fmt"

// TypeJWT is the default "typ" header value.
const TypeJWT = "JWT"

// Header is the JOSE header of a signed token.
type Header struct {
	Algorithm            Algorithm `json:"alg"`
	Type                 string    `json:"typ,omitempty"`
	ContentType          string    `json:"cty,omitempty"`
	KeyID                string    `json:"kid,omitempty"`
	JWKSetURL            string    `json:"jku,omitempty"`
	X509URL              string    `json:"x5u,omitempty"`
	X509CertChain        []string  `json:"x5c,omitempty"`
	X509Thumbprint       string    `json:"x5t,omitempty"`
	X509SHA256Thumbprint string    `json:"x5t#S256,omitempty"`
}

// NewHeader returns a header for alg with typ set to JWT.
func NewHeader(alg Algorithm) Header {
	return Header{Algorithm: alg, Type: TypeJWT}
}

// wireHeader mirrors Header with a raw "alg" so that an unknown or missing
// algorithm can be told apart from malformed JSON.
type wireHeader struct {
	Algorithm            *string  `json:"alg"`
	Type                 string   `json:"typ,omitempty"`
	ContentType          string   `json:"cty,omitempty"`
	KeyID                string   `json:"kid,omitempty"`
	JWKSetURL            string   `json:"jku,omitempty"`
	X509URL              string   `json:"x5u,omitempty"`
	X509CertChain        []string `json:"x5c,omitempty"`
	X509Thumbprint       string   `json:"x5t,omitempty"`
	X509SHA256Thumbprint string   `json:"x5t#S256,omitempty"`
}

func decodeHeader(seg string) (*Header, error) {
	var wire wireHeader
	if err := DecodeSegment(seg, &wire); err != nil {
		return nil, fmt.Errorf("decode header: %w", err)
	}
	if wire.Algorithm == nil {
		return nil, fmt.Errorf("%w: missing alg in header", ErrMalformedToken)
	}
	alg, err := ParseAlgorithm(*wire.Algorithm)
	if err != nil {
		return nil, err
	}
	return &Header{
		Algorithm:            alg,
		Type:                 wire.Type,
		ContentType:          wire.ContentType,
		KeyID:                wire.KeyID,
		JWKSetURL:            wire.JWKSetURL,
		X509URL:              wire.X509URL,
		X509CertChain:        wire.X509CertChain,
		X509Thumbprint:       wire.X509Thumbprint,
		X509SHA256Thumbprint: wire.X509SHA256Thumbprint,
	}, nil
}
