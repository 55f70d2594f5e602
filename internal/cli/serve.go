package cli

import (
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"docsift/internal/auth"
	"docsift/internal/catalog"
	"docsift/internal/eventbus"
	"docsift/internal/server"
	"docsift/internal/storage"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve search sessions over HTTP",
		Long: `Start the HTTP server. Each browser session gets its own search state;
preferences are persisted under the storage directory and the catalog is
reloaded whenever its file changes (unless --watch=false).`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := getConfig(cmd.Context())
			logger := getLogger(cmd.Context())

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			bus := eventbus.New(logger)
			defer bus.Close()

			settings, err := storage.NewDiskStore(cfg.StorageDir)
			if err != nil {
				return err
			}

			provider := catalog.NewProvider(cfg.Catalog, bus, logger)
			if _, err := provider.Reload(); err != nil {
				if !errors.Is(err, fs.ErrNotExist) {
					return err
				}
				logger.Warn("catalog file not found, starting with an empty catalog", "path", cfg.Catalog)
			}

			srv := server.New(server.Config{
				Addr:               cfg.Listen,
				SessionSecret:      cfg.SessionSecret,
				Watch:              cfg.Watch,
				CookieSecure:       cfg.CookieSecure,
				SessionIdleTimeout: cfg.SessionIdle,
				Settings:           settings,
				Catalog:            provider,
				Tokens:             auth.StaticTokenProvider(cfg.AuthToken),
				Bus:                bus,
				Logger:             logger,
			})
			return srv.Serve(ctx)
		},
	}
}
