// Package cli provides the command-line interface for docsift.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"docsift/internal/cli/config"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

type configKey struct{}

type loggerKey struct{}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "docsift",
		Short: "docsift - search state server",
		Long: `docsift keeps the search state of document search sessions: criteria,
selections, shareable search links and persisted user preferences.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			logger := cfg.NewLogger(cmd.ErrOrStderr())
			if cfg.FileUsed != "" {
				logger.Debug("using config file", "path", cfg.FileUsed)
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx = context.WithValue(ctx, configKey{}, cfg)
			ctx = context.WithValue(ctx, loggerKey{}, logger)
			cmd.SetContext(ctx)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate("{{.Name}} {{.Version}}\n")

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: ./docsift.yaml)")
	flags.String("listen", "", "Address to listen on")
	flags.String("storage-dir", "", "Directory for persisted settings")
	flags.String("catalog", "", "Path to the catalog TOML file")
	flags.Bool("watch", true, "Reload the catalog when its file changes")
	flags.String("auth-token", "", "Static token handed to clients")
	flags.Bool("cookie-secure", false, "Mark the session cookie Secure (serve behind HTTPS)")
	flags.Duration("session-idle-timeout", 0, "Evict sessions idle for this long (default 24h)")
	flags.String("log-level", "", "Log level (debug|info|warn|error)")

	_ = rootCmd.RegisterFlagCompletionFunc("log-level", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"debug", "info", "warn", "error"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(newVersionCommand())
	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newURLCommand())
	rootCmd.AddCommand(newOptionsCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// getConfig retrieves the config from the command context.
func getConfig(ctx context.Context) *config.Config {
	if c, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return c
	}
	return &config.Config{
		Listen:     config.DefaultListen,
		StorageDir: config.DefaultStorageDir,
		Catalog:    config.DefaultCatalog,
		LogLevel:   config.DefaultLogLevel,
	}
}

// getLogger retrieves the logger from the command context.
func getLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}
