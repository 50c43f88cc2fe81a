package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"helix/internal/config"
	"helix/internal/logging"
)

type rootOptions struct {
	backend  string
	logLevel string
	cfg      *config.Config
	logger   *zap.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "helixctl",
		Short:         "Route, validate and upload financial batch files",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if opts.backend != "" {
				cfg.Backend.BaseURL = opts.backend
			}
			if opts.logLevel != "" {
				cfg.Log.Level = opts.logLevel
			}
			logger, err := logging.New(cfg.Log)
			if err != nil {
				return fmt.Errorf("initializing logger: %w", err)
			}
			opts.cfg = cfg
			opts.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.logger != nil {
				_ = opts.logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&opts.backend, "backend", "", "Processor base URL (default from HELIX_BACKEND_BASE_URL)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level: debug, info, warn, error")

	cmd.AddCommand(newRoutingCmd())
	cmd.AddCommand(newValidateCmd(opts))
	cmd.AddCommand(newUploadCmd(opts))
	cmd.AddCommand(newTokenCmd(opts))
	return cmd
}
