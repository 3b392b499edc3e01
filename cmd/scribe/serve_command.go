package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"scribe/internal/logging"
	"scribe/internal/preflight"
	"scribe/internal/server"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP transcription service",
		RunE: func(cmd *cobra.Command, args []string) error {
			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if bind != "" {
				cfg.Paths.APIBind = bind
			}
			logger, err := ctx.newLogger()
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			if ctx.configPath != "" {
				logger.Info("configuration loaded", logging.String("path", ctx.configPath))
			}

			// The server reports bind failures itself.
			for _, result := range preflight.Failed(preflight.RunAll(cfg, true)) {
				logger.Warn("preflight check failed",
					logging.String("check", result.Name),
					logging.String("detail", result.Detail),
				)
			}

			srv, err := server.New(cfg, logger)
			if err != nil {
				return err
			}
			return srv.Run(signalCtx)
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "Override the listen address (host:port)")
	return cmd
}
