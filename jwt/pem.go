package jwt

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
)

// PEM block types accepted by the key constructors.
const (
	pemRSAPrivateKey = "RSA PRIVATE KEY"
	pemRSAPublicKey  = "RSA PUBLIC KEY"
	pemECPrivateKey  = "EC PRIVATE KEY"
	pemPrivateKey    = "PRIVATE KEY"
	pemPublicKey     = "PUBLIC KEY"
	pemCertificate   = "CERTIFICATE"
)

func decodePEM(data []byte) (*pem.Block, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%w: failed to decode PEM block", ErrKeyParse)
	}
	return block, nil
}

// NewEncodingKeyFromRSAPEM parses a PKCS#1 or PKCS#8 RSA private key.
func NewEncodingKeyFromRSAPEM(data []byte) (*EncodingKey, error) {
	block, err := decodePEM(data)
	if err != nil {
		return nil, err
	}
	switch block.Type {
	case pemRSAPrivateKey, pemPrivateKey:
		return NewEncodingKeyFromRSADER(block.Bytes)
	default:
		return nil, fmt.Errorf("%w: unexpected PEM block %q for RSA private key", ErrKeyParse, block.Type)
	}
}

// NewEncodingKeyFromRSADER parses a PKCS#1 or PKCS#8 RSA private key.
func NewEncodingKeyFromRSADER(der []byte) (*EncodingKey, error) {
	if key, err := x509.ParsePKCS1PrivateKey(der); err == nil {
		return NewEncodingKeyFromCrypto(key)
	}
	key, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeyParse, err)
	}
	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: expected RSA private key, got %T", ErrKeyParse, key)
	}
	return NewEncodingKeyFromCrypto(rsaKey)
}

// NewEncodingKeyFromECPEM parses a SEC1 or PKCS#8 EC private key on P-256,
// P-384, P-521 or secp256k1.
func NewEncodingKeyFromECPEM(data []byte) (*EncodingKey, error) {
	block, err := decodePEM(data)
	if err != nil {
		return nil, err
	}
	switch block.Type {
	case pemECPrivateKey, pemPrivateKey:
		return NewEncodingKeyFromECDER(block.Bytes)
	default:
		return nil, fmt.Errorf("%w: unexpected PEM block %q for EC private key", ErrKeyParse, block.Type)
	}
}

// NewEncodingKeyFromECDER parses a SEC1 or PKCS#8 EC private key.
func NewEncodingKeyFromECDER(der []byte) (*EncodingKey, error) {
	if key, err := x509.ParseECPrivateKey(der); err == nil {
		return NewEncodingKeyFromCrypto(key)
	}
	if key, err := x509.ParsePKCS8PrivateKey(der); err == nil {
		ecKey, ok := key.(*ecdsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%w: expected EC private key, got %T", ErrKeyParse, key)
		}
		return NewEncodingKeyFromCrypto(ecKey)
	}
	// crypto/x509 only knows the NIST curves.
	k1, err := parseSecp256k1PrivateKey(der)
	if err != nil {
		return nil, err
	}
	return NewEncodingKeyFromCrypto(k1)
}

// NewEncodingKeyFromEdPEM parses a PKCS#8 Ed25519 private key.
func NewEncodingKeyFromEdPEM(data []byte) (*EncodingKey, error) {
	block, err := decodePEM(data)
	if err != nil {
		return nil, err
	}
	if block.Type != pemPrivateKey {
		return nil, fmt.Errorf("%w: unexpected PEM block %q for Ed25519 private key", ErrKeyParse, block.Type)
	}
	return NewEncodingKeyFromEdDER(block.Bytes)
}

// NewEncodingKeyFromEdDER parses a PKCS#8 Ed25519 private key.
func NewEncodingKeyFromEdDER(der []byte) (*EncodingKey, error) {
	key, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeyParse, err)
	}
	edKey, ok := key.(ed25519.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: expected Ed25519 private key, got %T", ErrKeyParse, key)
	}
	return NewEncodingKeyFromCrypto(edKey)
}

// NewDecodingKeyFromRSAPEM parses a PKIX or PKCS#1 RSA public key, or the
// public key of an X.509 certificate.
func NewDecodingKeyFromRSAPEM(data []byte) (*DecodingKey, error) {
	block, err := decodePEM(data)
	if err != nil {
		return nil, err
	}
	switch block.Type {
	case pemRSAPublicKey:
		key, err := x509.ParsePKCS1PublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrKeyParse, err)
		}
		return NewDecodingKeyFromCrypto(key)
	case pemPublicKey:
		return NewDecodingKeyFromRSADER(block.Bytes)
	case pemCertificate:
		return decodingKeyFromCertificate(block.Bytes, FamilyRSA)
	default:
		return nil, fmt.Errorf("%w: unexpected PEM block %q for RSA public key", ErrKeyParse, block.Type)
	}
}

// NewDecodingKeyFromRSADER parses a PKIX or PKCS#1 RSA public key.
func NewDecodingKeyFromRSADER(der []byte) (*DecodingKey, error) {
	if key, err := x509.ParsePKCS1PublicKey(der); err == nil {
		return NewDecodingKeyFromCrypto(key)
	}
	key, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeyParse, err)
	}
	rsaKey, ok := key.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: expected RSA public key, got %T", ErrKeyParse, key)
	}
	return NewDecodingKeyFromCrypto(rsaKey)
}

// NewDecodingKeyFromECPEM parses a PKIX EC public key or the public key of an
// X.509 certificate.
func NewDecodingKeyFromECPEM(data []byte) (*DecodingKey, error) {
	block, err := decodePEM(data)
	if err != nil {
		return nil, err
	}
	switch block.Type {
	case pemPublicKey:
		return NewDecodingKeyFromECDER(block.Bytes)
	case pemCertificate:
		return decodingKeyFromCertificate(block.Bytes, 0)
	default:
		return nil, fmt.Errorf("%w: unexpected PEM block %q for EC public key", ErrKeyParse, block.Type)
	}
}

// NewDecodingKeyFromECDER parses a PKIX EC public key.
func NewDecodingKeyFromECDER(der []byte) (*DecodingKey, error) {
	key, err := x509.ParsePKIXPublicKey(der)
	if err == nil {
		ecKey, ok := key.(*ecdsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("%w: expected EC public key, got %T", ErrKeyParse, key)
		}
		return NewDecodingKeyFromCrypto(ecKey)
	}
	k1, k1Err := parseSecp256k1PKIX(der)
	if k1Err != nil {
		if errors.Is(k1Err, errNotSecp256k1) {
			return nil, fmt.Errorf("%w: %w", ErrKeyParse, err)
		}
		return nil, k1Err
	}
	return NewDecodingKeyFromCrypto(k1)
}

// NewDecodingKeyFromEdPEM parses a PKIX Ed25519 public key.
func NewDecodingKeyFromEdPEM(data []byte) (*DecodingKey, error) {
	block, err := decodePEM(data)
	if err != nil {
		return nil, err
	}
	switch block.Type {
	case pemPublicKey:
		return NewDecodingKeyFromEdDER(block.Bytes)
	case pemCertificate:
		return decodingKeyFromCertificate(block.Bytes, FamilyEd25519)
	default:
		return nil, fmt.Errorf("%w: unexpected PEM block %q for Ed25519 public key", ErrKeyParse, block.Type)
	}
}

// NewDecodingKeyFromEdDER parses a PKIX Ed25519 public key.
func NewDecodingKeyFromEdDER(der []byte) (*DecodingKey, error) {
	key, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeyParse, err)
	}
	edKey, ok := key.(ed25519.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: expected Ed25519 public key, got %T", ErrKeyParse, key)
	}
	return NewDecodingKeyFromCrypto(edKey)
}

// decodingKeyFromCertificate extracts the certificate public key. A zero
// family accepts any NIST EC key.
func decodingKeyFromCertificate(der []byte, family KeyFamily) (*DecodingKey, error) {
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeyParse, err)
	}
	key, err := NewDecodingKeyFromCrypto(cert.PublicKey)
	if err != nil {
		return nil, err
	}
	switch {
	case family == 0 && key.ec == nil:
		return nil, fmt.Errorf("%w: certificate holds a %s key, expected EC", ErrKeyParse, key.family)
	case family != 0 && key.family != family:
		return nil, fmt.Errorf("%w: certificate holds a %s key, expected %s", ErrKeyParse, key.family, family)
	}
	return key, nil
}
