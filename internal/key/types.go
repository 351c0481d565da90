package key

import (
	"context"
	"errors"
	"time"

	"github.com/zarvd/jwtsigner/jwt"
)

var ErrUnknownKeyID = errors.New("unknown key id")

// SignedToken is a compact token split into its three segments.
type SignedToken struct {
	KeyID     string
	Header    string
	Payload   string
	Signature string
}

func (t *SignedToken) String() string {
	return t.Header + "." + t.Payload + "." + t.Signature
}

// PublicKey is a verification key in PKIX DER form.
type PublicKey struct {
	KeyID     string
	Algorithm jwt.Algorithm
	Key       []byte
}

type KeyManager interface {
	Close() error
	// Sign signs an unpadded base64url JSON claims segment with the active key.
	Sign(ctx context.Context, encodedClaims string) (*SignedToken, error)
	// Verify checks token against the key named by its kid header.
	Verify(ctx context.Context, token string, v *jwt.Validation) (*jwt.TokenData[jwt.MapClaims], error)
	PublicKeys() []*PublicKey
	Expiration() time.Duration
	LoadedAt() time.Time
}
