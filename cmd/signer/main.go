package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
)

type CLI struct {
	Serve   ServeCmd   `cmd:"" help:"Serve the Kubernetes ExternalJWTSigner API on a unix domain socket."`
	Encode  EncodeCmd  `cmd:"" help:"Sign a token and print it."`
	Decode  DecodeCmd  `cmd:"" help:"Verify a token and print its header and claims."`
	Inspect InspectCmd `cmd:"" help:"Print a token's header and claims without verifying it."`
}

func run(ctx context.Context, args []string, stdout io.Writer, logger *slog.Logger) error {
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("signer"),
		kong.Description("Sign and verify JSON Web Tokens."),
		kong.Writers(stdout, os.Stderr),
		kong.UsageOnError(),
	)
	if err != nil {
		return err
	}
	cliCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	cliCtx.BindTo(ctx, (*context.Context)(nil))
	cliCtx.BindTo(stdout, (*io.Writer)(nil))
	cliCtx.Bind(logger)

	return cliCtx.Run()
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if err := run(ctx, os.Args[1:], os.Stdout, logger); err != nil {
		logger.Error("failed to run CLI", slog.Any("error", err))
		os.Exit(1)
	}
}
