package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zarvd/jwtsigner/internal/key"
	"github.com/zarvd/jwtsigner/jwt"
)

type EncodeCmd struct {
	Algorithm jwt.Algorithm     `name:"alg" default:"RS256" help:"Signing algorithm"`
	Key       []byte            `type:"filecontent" required:"" help:"Path to the PEM signing key, or to the HMAC secret"`
	KeyID     string            `name:"kid" help:"Key ID header; derived from the public key when empty"`
	Issuer    string            `name:"iss" help:"Issuer claim"`
	Subject   string            `name:"sub" help:"Subject claim"`
	Audience  []string          `name:"aud" help:"Audience claim"`
	TTL       time.Duration     `default:"1h" help:"Token lifetime"`
	ID        string            `name:"jti" help:"Token ID; a random UUID when empty"`
	Claims    map[string]string `name:"claim" help:"Extra string claim as key=value"`
}

func (cmd *EncodeCmd) Run(ctx context.Context, logger *slog.Logger, out io.Writer) error {
	staticKey, err := key.DecodeSigningKey(cmd.Algorithm, cmd.KeyID, cmd.Key)
	if err != nil {
		return err
	}

	now := time.Now()
	claims := make(jwt.MapClaims, len(cmd.Claims)+8)
	for name, value := range cmd.Claims {
		claims[name] = value
	}
	claims["iat"] = now.Unix()
	claims["nbf"] = now.Unix()
	claims["exp"] = now.Add(cmd.TTL).Unix()
	claims["jti"] = cmd.ID
	if cmd.ID == "" {
		claims["jti"] = uuid.NewString()
	}
	if cmd.Issuer != "" {
		claims["iss"] = cmd.Issuer
	}
	if cmd.Subject != "" {
		claims["sub"] = cmd.Subject
	}
	if len(cmd.Audience) > 0 {
		claims["aud"] = jwt.Audience(cmd.Audience)
	}

	header := jwt.NewHeader(cmd.Algorithm)
	header.KeyID = staticKey.KeyID
	token, err := jwt.Encode(header, claims, staticKey.SigningKey)
	if err != nil {
		return fmt.Errorf("failed to sign token: %w", err)
	}

	logger.Debug("Signed token", slog.String("key-id", staticKey.KeyID), slog.Any("jti", claims["jti"]))
	_, err = fmt.Fprintln(out, token)
	return err
}

type DecodeCmd struct {
	Token      string          `arg:"" help:"Compact token to verify"`
	Algorithms []jwt.Algorithm `name:"alg" required:"" help:"Accepted algorithms; the first one decides how --key is read"`
	Key        []byte          `type:"filecontent" required:"" help:"Path to a PEM public key, a JWK, or the HMAC secret"`
	Leeway     time.Duration   `help:"Tolerated clock skew"`
	Issuers    []string        `name:"iss" help:"Accepted issuers"`
	Audiences  []string        `name:"aud" help:"Accepted audiences"`
	Subject    string          `name:"sub" help:"Required subject"`
	RequireExp bool            `default:"true" negatable:"" help:"Reject tokens without exp"`
}

func (cmd *DecodeCmd) Run(ctx context.Context, logger *slog.Logger, out io.Writer) error {
	decodingKey, err := cmd.decodingKey()
	if err != nil {
		return err
	}

	v := &jwt.Validation{
		Algorithms:  cmd.Algorithms,
		Leeway:      cmd.Leeway,
		RequireExp:  cmd.RequireExp,
		ValidateExp: true,
		ValidateNbf: true,
		Issuers:     cmd.Issuers,
		Audiences:   cmd.Audiences,
		Subject:     cmd.Subject,
	}
	data, err := jwt.Decode[jwt.MapClaims](strings.TrimSpace(cmd.Token), decodingKey, v, time.Now())
	if err != nil {
		return fmt.Errorf("token rejected: %w", err)
	}

	logger.Debug("Verified token", slog.String("algorithm", data.Header.Algorithm.String()))
	return printToken(out, data.Header, data.Claims, true)
}

func (cmd *DecodeCmd) decodingKey() (*jwt.DecodingKey, error) {
	if bytes.HasPrefix(bytes.TrimSpace(cmd.Key), []byte("{")) {
		return jwt.NewDecodingKeyFromJWK(cmd.Key)
	}
	verificationKey, err := key.DecodeVerificationKey(cmd.Algorithms[0], "cli", cmd.Key)
	if err != nil {
		return nil, err
	}
	return verificationKey.Key, nil
}

type InspectCmd struct {
	Token string `arg:"" help:"Compact token to print"`
}

func (cmd *InspectCmd) Run(ctx context.Context, out io.Writer) error {
	token := strings.TrimSpace(cmd.Token)
	header, err := jwt.DecodeHeader(token)
	if err != nil {
		return err
	}

	var claims jwt.MapClaims
	if err := jwt.DecodeSegment(strings.Split(token, ".")[1], &claims); err != nil {
		return fmt.Errorf("failed to decode claims: %w", err)
	}
	return printToken(out, *header, claims, false)
}

func printToken(out io.Writer, header jwt.Header, claims jwt.MapClaims, verified bool) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Verified bool          `json:"verified"`
		Header   jwt.Header    `json:"header"`
		Claims   jwt.MapClaims `json:"claims"`
	}{verified, header, claims})
}
