package server

import (
	"errors"
	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/zarvd/jwtsigner/internal/key"
	"github.com/zarvd/jwtsigner/jwt"
)

// signError maps a key manager failure to a gRPC status. Claims the caller
// sent that cannot be signed are its fault; anything else is ours.
func signError(logger *slog.Logger, err error) error {
	logger.Error("Failed to sign JWT", slog.Any("error", err))
	switch {
	case errors.Is(err, jwt.ErrMalformedToken), errors.Is(err, jwt.ErrInvalidClaims):
		return status.Errorf(codes.InvalidArgument, "not a valid base64url encoded JWT claims object")
	default:
		return status.Errorf(codes.Internal, "not able to sign JWT")
	}
}

// refreshHintSeconds asks callers to refetch keys twice per token lifetime.
func refreshHintSeconds(km key.KeyManager) int64 {
	return int64(km.Expiration().Seconds() / 2)
}

func keyIDs(publicKeys []*key.PublicKey) []string {
	rv := make([]string, 0, len(publicKeys))
	for _, publicKey := range publicKeys {
		rv = append(rv, publicKey.KeyID)
	}
	return rv
}
