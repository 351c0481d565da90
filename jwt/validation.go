package jwt

import (
	"fmt"
	"slices"
	"time"
)

// Validation is the policy a token must satisfy to be accepted by Decode. It
// is a plain value; there are no package-level defaults.
type Validation struct {
	// Algorithms lists the accepted header algorithms. It must not be empty.
	Algorithms []Algorithm
	// Leeway is the clock skew tolerated by time checks, in whole seconds.
	Leeway time.Duration

	// RequireExp, RequireNbf and RequireIat make the claim mandatory. A
	// required claim is always checked.
	RequireExp bool
	RequireNbf bool
	RequireIat bool

	// ValidateExp, ValidateNbf and ValidateIat check the claim when present.
	ValidateExp bool
	ValidateNbf bool
	ValidateIat bool

	// RequiredClaims lists further claim names that must be present.
	RequiredClaims []string
	// Issuers, when set, must contain the iss claim.
	Issuers []string
	// Audiences, when set, must share at least one value with the aud claim.
	Audiences []string
	// Subject, when set, must equal the sub claim.
	Subject string
}

// NewValidation returns a policy accepting only alg that requires exp and
// checks nbf when present.
func NewValidation(alg Algorithm) *Validation {
	return &Validation{
		Algorithms:  []Algorithm{alg},
		RequireExp:  true,
		ValidateExp: true,
		ValidateNbf: true,
	}
}

// Validate reports whether the policy is usable.
func (v *Validation) Validate() error {
	if v == nil {
		return fmt.Errorf("%w: nil policy", ErrInvalidValidation)
	}
	if len(v.Algorithms) == 0 {
		return fmt.Errorf("%w: no accepted algorithms", ErrInvalidValidation)
	}
	for _, alg := range v.Algorithms {
		if !alg.valid() {
			return fmt.Errorf("%w: %s", ErrInvalidValidation, alg)
		}
	}
	if v.Leeway < 0 {
		return fmt.Errorf("%w: negative leeway %s", ErrInvalidValidation, v.Leeway)
	}
	return nil
}

func (v *Validation) accepts(alg Algorithm) bool {
	return slices.Contains(v.Algorithms, alg)
}

// ValidateTimeClaims checks exp, nbf and iat of claims against now. It is the
// check Decode runs after the signature verifies.
func (v *Validation) ValidateTimeClaims(claims TimeClaims, now time.Time) error {
	ts := now.Unix()
	leeway := int64(v.Leeway / time.Second)

	exp, ok, err := claims.ExpirationTime()
	switch {
	case err != nil:
		return err
	case !ok && v.RequireExp:
		return fmt.Errorf("%w: %w: exp", ErrExpiredToken, ErrMissingRequiredClaim)
	case ok && (v.RequireExp || v.ValidateExp) && ts-leeway > int64(exp):
		return fmt.Errorf("%w: expired at %s", ErrExpiredToken, exp.Time().Format(time.RFC3339))
	}

	nbf, ok, err := claims.NotBeforeTime()
	switch {
	case err != nil:
		return err
	case !ok && v.RequireNbf:
		return fmt.Errorf("%w: %w: nbf", ErrTokenNotYetValid, ErrMissingRequiredClaim)
	case ok && (v.RequireNbf || v.ValidateNbf) && ts+leeway < int64(nbf):
		return fmt.Errorf("%w: valid from %s", ErrTokenNotYetValid, nbf.Time().Format(time.RFC3339))
	}

	iat, ok, err := claims.IssuedAtTime()
	switch {
	case err != nil:
		return err
	case !ok && v.RequireIat:
		return fmt.Errorf("%w: %w: iat", ErrInvalidIssuedAt, ErrMissingRequiredClaim)
	case ok && (v.RequireIat || v.ValidateIat) && int64(iat) > ts+leeway:
		return fmt.Errorf("%w: issued at %s", ErrInvalidIssuedAt, iat.Time().Format(time.RFC3339))
	}

	return nil
}

func (v *Validation) validateClaims(claims claimSet, now time.Time) error {
	for _, name := range v.RequiredClaims {
		if !claims.present(name) {
			return fmt.Errorf("%w: %s", ErrMissingRequiredClaim, name)
		}
	}

	if err := v.ValidateTimeClaims(claims, now); err != nil {
		return err
	}

	if len(v.Issuers) > 0 {
		iss, ok, err := claims.str("iss")
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %w: iss", ErrInvalidIssuer, ErrMissingRequiredClaim)
		}
		if !slices.Contains(v.Issuers, iss) {
			return fmt.Errorf("%w: %q", ErrInvalidIssuer, iss)
		}
	}

	if len(v.Audiences) > 0 {
		aud, ok, err := claims.audience()
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %w: aud", ErrInvalidAudience, ErrMissingRequiredClaim)
		}
		if !slices.ContainsFunc(aud, func(a string) bool { return slices.Contains(v.Audiences, a) }) {
			return fmt.Errorf("%w: %q", ErrInvalidAudience, []string(aud))
		}
	}

	if v.Subject != "" {
		sub, ok, err := claims.str("sub")
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %w: sub", ErrInvalidSubject, ErrMissingRequiredClaim)
		}
		if sub != v.Subject {
			return fmt.Errorf("%w: %q", ErrInvalidSubject, sub)
		}
	}

	return nil
}
