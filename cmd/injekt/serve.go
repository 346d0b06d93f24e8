package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"injekt/internal/config"
	"injekt/internal/server"
	"injekt/internal/trace"
)

func newServeCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve resolution over HTTP",
		Long:  `Serve POST /v1/resolve, which accepts a TOML or YAML world and answers with its plans and diagnostics, and GET /healthz.`,
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	cmd.Flags().String("addr", cfg.Addr, "listen address")
	cmd.Flags().Int64("max-body", server.DefaultMaxBody, "largest accepted world in bytes")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	addr, err := cmd.Flags().GetString("addr")
	if err != nil {
		return fmt.Errorf("failed to get addr flag: %w", err)
	}
	maxBody, err := cmd.Flags().GetInt64("max-body")
	if err != nil {
		return fmt.Errorf("failed to get max-body flag: %w", err)
	}
	opts, err := readRunOptions(cmd)
	if err != nil {
		return err
	}

	handler := server.New(server.Options{
		MaxBody:        maxBody,
		MaxDiagnostics: opts.maxDiagnostics,
		Tracer:         trace.FromContext(cmd.Context()),
		AccessLog:      !opts.quiet,
	})
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if !opts.quiet {
		fmt.Fprintf(cmd.ErrOrStderr(), "injekt: listening on %s\n", addr)
	}
	return server.ListenAndServe(ctx, addr, handler)
}
