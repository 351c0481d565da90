package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"time"

	"google.golang.org/grpc"
	v1 "k8s.io/externaljwt/apis/v1"
	"k8s.io/externaljwt/apis/v1alpha1"

	"github.com/zarvd/jwtsigner/internal/key"
	"github.com/zarvd/jwtsigner/internal/server"
	"github.com/zarvd/jwtsigner/jwt"
)

type ServeCmd struct {
	UnixDomainSocket   string        `required:"" help:"Unix domain socket to listen on"`
	Algorithm          jwt.Algorithm `default:"RS256" help:"Signing algorithm"`
	StaticSigningKey   []byte        `type:"filecontent" required:"" help:"Path to the PEM signing key"`
	StaticKeyID        string        `help:"ID of the signing key; derived from the public key when empty"`
	VerificationKeys   []string      `type:"existingfile" help:"Extra PEM public keys to publish, signed with the same algorithm"`
	MaxTokenExpiration time.Duration `default:"1h" help:"Longest token lifetime the signer accepts"`
}

func (cmd *ServeCmd) Run(ctx context.Context, logger *slog.Logger) error {
	staticKey, err := key.DecodeSigningKey(cmd.Algorithm, cmd.StaticKeyID, cmd.StaticSigningKey)
	if err != nil {
		return fmt.Errorf("failed to decode static signing key: %w", err)
	}

	extra := make([]*key.VerificationKey, 0, len(cmd.VerificationKeys))
	for _, path := range cmd.VerificationKeys {
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read verification key: %w", err)
		}
		verificationKey, err := key.DecodeVerificationKey(cmd.Algorithm, "", content)
		if err != nil {
			return fmt.Errorf("failed to decode verification key %s: %w", path, err)
		}
		extra = append(extra, verificationKey)
	}

	km, err := key.NewInMemoryKeyManager(logger, time.Now, staticKey, cmd.MaxTokenExpiration, extra...)
	if err != nil {
		return fmt.Errorf("failed to create key manager: %w", err)
	}
	defer km.Close()

	v1Server := server.NewV1Server(logger, km)
	v1alpha1Server := server.NewV1Alpha1Server(logger, km)

	grpcServer := grpc.NewServer()
	v1.RegisterExternalJWTSignerServer(grpcServer, v1Server)
	v1alpha1.RegisterExternalJWTSignerServer(grpcServer, v1alpha1Server)

	listener, err := net.Listen("unix", cmd.UnixDomainSocket)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	defer listener.Close()

	go func() {
		logger.Info("serving on", slog.String("address", listener.Addr().String()))
		if err := grpcServer.Serve(listener); err != nil {
			logger.Error("failed to serve", slog.Any("error", err))
		}
	}()

	<-ctx.Done()
	grpcServer.GracefulStop()
	logger.Info("shutting down")
	return nil
}
