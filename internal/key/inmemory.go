package key

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/zarvd/jwtsigner/jwt"
)

var _ KeyManager = (*inMemoryKeyManager)(nil)

type keyEntry struct {
	keyID     string
	algorithm jwt.Algorithm
	key       *jwt.DecodingKey

	publicKeyDER []byte
}

type inMemoryKeyManager struct {
	logger *slog.Logger
	now    func() time.Time

	mu       sync.RWMutex
	active   *StaticKey
	keys     map[string]*keyEntry
	order    []string
	expiry   time.Duration
	loadedAt time.Time
}

// NewInMemoryKeyManager holds staticKey as the active signing key and
// verifies with its public half plus any extra keys. now supplies the instant
// time claims are checked against.
func NewInMemoryKeyManager(
	logger *slog.Logger,
	now func() time.Time,
	staticKey *StaticKey,
	expiry time.Duration,
	extra ...*VerificationKey,
) (KeyManager, error) {
	if staticKey == nil || staticKey.SigningKey == nil {
		return nil, errors.New("no signing key")
	}
	if staticKey.SigningKey.Family() != staticKey.Algorithm.Family() {
		return nil, fmt.Errorf("%w: %s cannot sign with a %s key",
			jwt.ErrKeyAlgorithmMismatch, staticKey.Algorithm, staticKey.SigningKey.Family())
	}

	k := &inMemoryKeyManager{
		logger:   logger,
		now:      now,
		active:   staticKey,
		keys:     make(map[string]*keyEntry, len(extra)+1),
		expiry:   expiry,
		loadedAt: now(),
	}
	if err := k.add(staticKey.KeyID, staticKey.Algorithm, staticKey.SigningKey.DecodingKey()); err != nil {
		return nil, err
	}
	for _, v := range extra {
		if err := k.add(v.KeyID, v.Algorithm, v.Key); err != nil {
			return nil, err
		}
	}

	logger.Info("Loaded keys",
		slog.String("active-key-id", staticKey.KeyID),
		slog.String("algorithm", staticKey.Algorithm.String()),
		slog.Int("num-keys", len(k.order)),
	)
	return k, nil
}

func (s *inMemoryKeyManager) add(keyID string, alg jwt.Algorithm, key *jwt.DecodingKey) error {
	if keyID == "" {
		return errors.New("key id is required")
	}
	if _, ok := s.keys[keyID]; ok {
		return fmt.Errorf("duplicate key id %q", keyID)
	}
	if key == nil || key.Family() != alg.Family() {
		return fmt.Errorf("%w: key %q cannot verify %s", jwt.ErrKeyAlgorithmMismatch, keyID, alg)
	}

	entry := &keyEntry{keyID: keyID, algorithm: alg, key: key}
	if key.Family() != jwt.FamilySymmetric {
		der, err := key.MarshalPKIX()
		if err != nil {
			return fmt.Errorf("failed to marshal public key %q: %w", keyID, err)
		}
		entry.publicKeyDER = der
	}
	s.keys[keyID] = entry
	s.order = append(s.order, keyID)
	return nil
}

func (s *inMemoryKeyManager) Close() error {
	s.logger.Info("key manager closed")
	return nil
}

func (s *inMemoryKeyManager) Sign(ctx context.Context, encodedClaims string) (*SignedToken, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	active := s.active
	s.mu.RUnlock()

	header := jwt.Header{
		Algorithm: active.Algorithm,
		Type:      jwt.TypeJWT,
		KeyID:     active.KeyID,
	}
	token, err := jwt.EncodeWithPayload(header, encodedClaims, active.SigningKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign claims: %w", err)
	}

	segments := strings.Split(token, ".")
	return &SignedToken{
		KeyID:     active.KeyID,
		Header:    segments[0],
		Payload:   segments[1],
		Signature: segments[2],
	}, nil
}

func (s *inMemoryKeyManager) Verify(ctx context.Context, token string, v *jwt.Validation) (*jwt.TokenData[jwt.MapClaims], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	header, err := jwt.DecodeHeader(token)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	keyID := header.KeyID
	if keyID == "" {
		keyID = s.active.KeyID
	}
	entry, ok := s.keys[keyID]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKeyID, header.KeyID)
	}

	if v == nil {
		v = jwt.NewValidation(entry.algorithm)
	}
	data, err := jwt.Decode[jwt.MapClaims](token, entry.key, v, s.now())
	if err != nil {
		s.logger.Debug("token rejected", slog.String("key-id", keyID), slog.Any("error", err))
		return nil, err
	}
	return data, nil
}

func (s *inMemoryKeyManager) PublicKeys() []*PublicKey {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rv = make([]*PublicKey, 0, len(s.order))
	for _, keyID := range s.order {
		entry := s.keys[keyID]
		if entry.publicKeyDER == nil {
			continue
		}
		rv = append(rv, &PublicKey{
			KeyID:     entry.keyID,
			Algorithm: entry.algorithm,
			Key:       entry.publicKeyDER,
		})
	}
	return rv
}

func (s *inMemoryKeyManager) Expiration() time.Duration {
	return s.expiry
}

func (s *inMemoryKeyManager) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}
