package jwt

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// NumericDate is a JWT time value: whole seconds since the Unix epoch.
type NumericDate int64

// NewNumericDate truncates t to whole seconds.
func NewNumericDate(t time.Time) *NumericDate {
	d := NumericDate(t.Unix())
	return &d
}

func (d NumericDate) Time() time.Time {
	return time.Unix(int64(d), 0).UTC()
}

func (d NumericDate) MarshalJSON() ([]byte, error) {
	return strconv.AppendInt(nil, int64(d), 10), nil
}

func (d *NumericDate) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	v, err := parseNumericDate(json.Number(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// parseNumericDate accepts non-negative integers, including integral values
// written in float notation such as 1.7e9.
func parseNumericDate(n json.Number) (NumericDate, error) {
	s := n.String()
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		if i < 0 {
			return 0, fmt.Errorf("%w: negative numeric date %s", ErrInvalidClaims, s)
		}
		return NumericDate(i), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || f != math.Trunc(f) || f >= math.MaxInt64 {
		return 0, fmt.Errorf("%w: invalid numeric date %q", ErrInvalidClaims, s)
	}
	return NumericDate(f), nil
}

// Audience is the "aud" claim. It decodes from either a single string or an
// array of strings.
type Audience []string

func (a Audience) MarshalJSON() ([]byte, error) {
	if len(a) == 1 {
		return json.Marshal(a[0])
	}
	return json.Marshal([]string(a))
}

func (a *Audience) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var single string
	if err := json.Unmarshal(b, &single); err == nil {
		*a = Audience{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(b, &many); err != nil {
		return fmt.Errorf("%w: aud must be a string or an array of strings", ErrInvalidClaims)
	}
	*a = many
	return nil
}

// TimeClaims exposes the reserved time claims of a claim set. Each accessor
// reports whether the claim is present; an error means it is present but not
// a valid NumericDate.
type TimeClaims interface {
	ExpirationTime() (NumericDate, bool, error)
	NotBeforeTime() (NumericDate, bool, error)
	IssuedAtTime() (NumericDate, bool, error)
}

// RegisteredClaims holds the claim names registered by RFC 7519. Embed it in
// a custom claims struct to get typed access to them.
type RegisteredClaims struct {
	Issuer    string       `json:"iss,omitempty"`
	Subject   string       `json:"sub,omitempty"`
	Audience  Audience     `json:"aud,omitempty"`
	ExpiresAt *NumericDate `json:"exp,omitempty"`
	NotBefore *NumericDate `json:"nbf,omitempty"`
	IssuedAt  *NumericDate `json:"iat,omitempty"`
	ID        string       `json:"jti,omitempty"`
}

func (c RegisteredClaims) ExpirationTime() (NumericDate, bool, error) { return optional(c.ExpiresAt) }
func (c RegisteredClaims) NotBeforeTime() (NumericDate, bool, error)  { return optional(c.NotBefore) }
func (c RegisteredClaims) IssuedAtTime() (NumericDate, bool, error)   { return optional(c.IssuedAt) }

func optional(d *NumericDate) (NumericDate, bool, error) {
	if d == nil {
		return 0, false, nil
	}
	return *d, true, nil
}

// MapClaims is an unstructured claim set. Decoded numbers are json.Number.
type MapClaims map[string]any

func (m MapClaims) ExpirationTime() (NumericDate, bool, error) { return m.numericDate("exp") }
func (m MapClaims) NotBeforeTime() (NumericDate, bool, error)  { return m.numericDate("nbf") }
func (m MapClaims) IssuedAtTime() (NumericDate, bool, error)   { return m.numericDate("iat") }

func (m MapClaims) numericDate(name string) (NumericDate, bool, error) {
	raw, ok := m[name]
	if !ok || raw == nil {
		return 0, false, nil
	}
	var n json.Number
	switch v := raw.(type) {
	case json.Number:
		n = v
	case float64:
		n = json.Number(strconv.FormatFloat(v, 'f', -1, 64))
	case int:
		n = json.Number(strconv.FormatInt(int64(v), 10))
	case int64:
		n = json.Number(strconv.FormatInt(v, 10))
	case uint64:
		n = json.Number(strconv.FormatUint(v, 10))
	case NumericDate:
		n = json.Number(strconv.FormatInt(int64(v), 10))
	default:
		return 0, true, fmt.Errorf("%w: %s must be a number, got %T", ErrInvalidClaims, name, raw)
	}
	d, err := parseNumericDate(n)
	if err != nil {
		return 0, true, fmt.Errorf("%s: %w", name, err)
	}
	return d, true, nil
}

// claimSet is the signed claims segment viewed as raw members. Validation
// always reads reserved claims from here, whatever type the caller decodes
// into.
type claimSet map[string]json.RawMessage

func (c claimSet) ExpirationTime() (NumericDate, bool, error) { return c.numericDate("exp") }
func (c claimSet) NotBeforeTime() (NumericDate, bool, error)  { return c.numericDate("nbf") }
func (c claimSet) IssuedAtTime() (NumericDate, bool, error)   { return c.numericDate("iat") }

func (c claimSet) present(name string) bool {
	raw, ok := c[name]
	return ok && string(raw) != "null"
}

func (c claimSet) numericDate(name string) (NumericDate, bool, error) {
	if !c.present(name) {
		return 0, false, nil
	}
	var n json.Number
	// json.Number would also accept a quoted number.
	if c[name][0] == '"' || decodeJSON(c[name], &n) != nil {
		return 0, true, fmt.Errorf("%w: %s must be a number", ErrInvalidClaims, name)
	}
	d, err := parseNumericDate(n)
	if err != nil {
		return 0, true, fmt.Errorf("%s: %w", name, err)
	}
	return d, true, nil
}

func (c claimSet) str(name string) (string, bool, error) {
	if !c.present(name) {
		return "", false, nil
	}
	var s string
	if err := json.Unmarshal(c[name], &s); err != nil {
		return "", true, fmt.Errorf("%w: %s must be a string", ErrInvalidClaims, name)
	}
	return s, true, nil
}

func (c claimSet) audience() (Audience, bool, error) {
	if !c.present("aud") {
		return nil, false, nil
	}
	var aud Audience
	if err := json.Unmarshal(c["aud"], &aud); err != nil {
		return nil, true, err
	}
	return aud, true, nil
}
