// Package jwt encodes and verifies compact JSON Web Tokens signed with JWS.
//
// Encode serializes a Header and any JSON-serializable claims value into
// header.claims.signature. Decode reverses it under a Validation policy:
// the header algorithm must be in the policy's allow-list before the key is
// touched, the signature must verify before the claims are parsed, and the
// exp, nbf and iat claims are checked against a caller-supplied time.
//
// Keys are built from PEM, DER, JWK or in-memory crypto keys. They are
// immutable and may be shared between goroutines. The package performs no
// I/O and never reads the system clock.
package jwt
