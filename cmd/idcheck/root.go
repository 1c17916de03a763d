package main

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"idcheck/internal/platform/config"
	"idcheck/internal/platform/logger"
)

type commandContext struct {
	configFlag   string
	rollFlag     string
	databaseFlag string
	logLevelFlag string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		path := strings.TrimSpace(c.configFlag)
		if path == "" {
			path = os.Getenv(config.EnvConfigPath)
		}
		cfg, err := config.Read(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.rollFlag != "" {
			cfg.Roll.Path = c.rollFlag
		}
		if c.databaseFlag != "" {
			cfg.Postgres.URL = c.databaseFlag
		}
		if c.logLevelFlag != "" {
			cfg.Logging.Level = c.logLevelFlag
		}
		if err := cfg.Validate(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// logger writes to stderr so stdout stays machine-readable.
func (c *commandContext) logger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	var w io.Writer = cmd.ErrOrStderr()
	level := cfg.Logging.Level
	if c.logLevelFlag == "" {
		level = "warn"
	}
	return logger.NewWithWriter(w, level, cfg.Logging.Format)
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "idcheck",
		Short:         "Verify identity claims against the electoral roll",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&ctx.configFlag, "config", "c", "", "Configuration file path (default $IDCHECK_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&ctx.rollFlag, "roll", "", "Electoral roll file; overrides roll.path")
	rootCmd.PersistentFlags().StringVar(&ctx.databaseFlag, "database-url", "", "Postgres URL; overrides postgres.url")
	rootCmd.PersistentFlags().StringVar(&ctx.logLevelFlag, "log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(newVerifyCommand(ctx))
	rootCmd.AddCommand(newDocumentCommand(ctx))
	rootCmd.AddCommand(newImportCommand(ctx))

	return rootCmd
}
