package cli

import (
	"context"
	"fmt"
	"os"

	"ayaocrm/internal/audit"
	"ayaocrm/internal/auth"
	"ayaocrm/internal/config"
	"ayaocrm/internal/database"
	"ayaocrm/internal/i18n"
	"ayaocrm/internal/services"
	"ayaocrm/pkg/logger"
)

// app is the fully wired core shared by every subcommand.
type app struct {
	cfg       *config.Config
	db        *database.DB
	audit     *audit.Log
	users     *auth.UserService
	customers *services.CustomerService
	followups *services.FollowupService
	export    *services.ExportService
	backup    *services.BackupService
	archive   *services.ArchiveService
	resolver  *i18n.Resolver
}

func openApp(ctx context.Context, opts *RootOptions) (*app, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}
	if opts.DataDir != "" {
		cfg.DataDir = opts.DataDir
	}
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	level := cfg.LogLevel
	if opts.Verbose {
		level = "debug"
	}

	log := logger.Init(logger.Options{Level: level, Pretty: cfg.LogPretty})

	db, err := database.New(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	log.Debug().Str("path", db.Path).Msg("datastore opened")

	auditLog := audit.NewLog(db, log.With().Str("component", "audit").Logger())
	users := auth.NewUserService(db, auditLog, log.With().Str("component", "users").Logger())
	customers := services.NewCustomerService(db, auditLog, log.With().Str("component", "customers").Logger())
	followups := services.NewFollowupService(db, customers, auditLog, log.With().Str("component", "followups").Logger(), cfg.RecentLimit)

	a := &app{
		cfg:       cfg,
		db:        db,
		audit:     auditLog,
		users:     users,
		customers: customers,
		followups: followups,
		export:    services.NewExportService(customers, followups, auditLog),
		backup: services.NewBackupService(db, auditLog, log.With().Str("component", "backup").Logger(), services.BackupOptions{
			BaseURL:    cfg.Backup.BaseURL,
			ScratchDir: cfg.Backup.ScratchDir,
			Timeout:    cfg.Backup.Timeout,
		}),
		archive:  services.NewArchiveService(db, cfg.TranslationFile(), auditLog),
		resolver: i18n.NewResolver(cfg.TranslationFile(), auditLog, log.With().Str("component", "i18n").Logger()),
	}

	if err := users.EnsureDefaultAdmin(ctx, cfg.DefaultAdmin, cfg.DefaultPassword); err != nil {
		log.Warn().Err(err).Msg("failed to create default admin")
	}

	return a, nil
}

func (a *app) Close() error {
	return a.db.Close()
}
