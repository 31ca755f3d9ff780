package handlers

import (
	"net/http"

	"ayaocrm/internal/audit"
	"ayaocrm/internal/auth"
	"ayaocrm/internal/i18n"
	"ayaocrm/internal/middleware"
	"ayaocrm/internal/services"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Deps carries the wired services the HTTP layer needs.
type Deps struct {
	Sessions    *auth.SessionManager
	Users       *auth.UserService
	Customers   *services.CustomerService
	Followups   *services.FollowupService
	Export      *services.ExportService
	Backup      *services.BackupService
	Archive     *services.ArchiveService
	Audit       *audit.Log
	Resolver    *i18n.Resolver
	Credentials CredentialSource
	Logger      zerolog.Logger
}

// NewRouter builds the chi router with every route registered.
func NewRouter(d Deps) http.Handler {
	if d.Credentials == nil {
		d.Credentials = EnvCredentials
	}

	authHandler := NewAuthHandler(d.Sessions, d.Users, d.Resolver, d.Logger)
	dashboardHandler := NewDashboardHandler(d.Customers, d.Followups, d.Logger)
	customersHandler := NewCustomersHandler(d.Customers, d.Followups, d.Logger)
	followupsHandler := NewFollowupsHandler(d.Followups, d.Logger)
	exportHandler := NewExportHandler(d.Export, d.Logger)
	i18nHandler := NewI18nHandler(d.Resolver, d.Logger)
	settingsHandler := NewSettingsHandler(d.Users, d.Audit, d.Archive, d.Logger)
	backupHandler := NewBackupHandler(d.Backup, d.Credentials, d.Logger)

	authMiddleware := middleware.NewAuthMiddleware(d.Sessions, d.Users, d.Logger)

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	r.Handle("/metrics", promhttp.Handler())

	// Public routes
	r.Post("/login", authHandler.Login)
	r.Post("/logout", authHandler.Logout)

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.RequireAuth)

		r.Get("/api/me", authHandler.Me)
		r.Put("/api/me/language", authHandler.SetLanguage)
		r.Put("/api/me/password", settingsHandler.ChangePassword)

		// Customers
		r.Get("/api/customers", customersHandler.List)
		r.Post("/api/customers", customersHandler.Create)
		r.Get("/api/customers/stats", dashboardHandler.Stats)
		r.Get("/api/customers/{id}", customersHandler.Get)
		r.Patch("/api/customers/{id}", customersHandler.Update)
		r.Delete("/api/customers/{id}", customersHandler.Delete)
		r.Get("/api/customers/{id}/followups", customersHandler.ListFollowups)
		r.Post("/api/customers/{id}/followups", customersHandler.AddFollowup)

		// Followups
		r.Get("/api/followups", followupsHandler.Recent)

		// Export
		r.Get("/api/export/customers", exportHandler.Customers)
		r.Get("/api/export/customers/{id}/followups", exportHandler.CustomerFollowups)
		r.Get("/api/export/followups", exportHandler.RecentFollowups)

		// Translations
		r.Get("/api/i18n", i18nHandler.Languages)
		r.Get("/api/i18n/{lang}", i18nHandler.Dictionary)

		// Admin-only routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.RequireAdmin)
			r.Put("/api/i18n", i18nHandler.Save)
			r.Get("/api/users", settingsHandler.ListUsers)
			r.Post("/api/users", settingsHandler.CreateUser)
			r.Put("/api/users/{username}/password", settingsHandler.ResetPassword)
			r.Delete("/api/users/{username}", settingsHandler.DeleteUser)
			r.Get("/api/logs", settingsHandler.Logs)
			r.Post("/api/backup", backupHandler.Run)
			r.Get("/api/backup/archive", settingsHandler.ExportArchive)
		})
	})

	return r
}
