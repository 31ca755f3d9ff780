package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"ayaocrm/internal/auth"
	"ayaocrm/internal/handlers"
	"ayaocrm/pkg/logger"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the JSON HTTP API.

Environment:
  CRM_PORT              listen port (8090)
  CRM_DATA_DIR          datastore directory (./data)
  CRM_SESSION_SECRET    cookie signing key
  CRM_GITHUB_TOKEN, CRM_GITHUB_REPO, CRM_GITHUB_USERNAME
                        backup credentials, read on every backup`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), rootOpts)
		},
	}
}

func runServer(ctx context.Context, opts *RootOptions) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx, opts)
	if err != nil {
		return err
	}
	defer a.Close()
	log := logger.Get()

	sessions := auth.NewSessionManager(a.cfg.SessionSecret, a.cfg.SessionMaxAge, a.cfg.SecureCookies)
	router := handlers.NewRouter(handlers.Deps{
		Sessions:  sessions,
		Users:     a.users,
		Customers: a.customers,
		Followups: a.followups,
		Export:    a.export,
		Backup:    a.backup,
		Archive:   a.archive,
		Audit:     a.audit,
		Resolver:  a.resolver,
		Logger:    log.With().Str("component", "http").Logger(),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("data_dir", a.cfg.DataDir).Msg("starting ayaocrm")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
