package handlers

import (
	"context"
	"net/http"

	"ayaocrm/internal/config"
	"ayaocrm/internal/services"

	"github.com/rs/zerolog"
)

// CredentialSource supplies backup credentials at call time.
type CredentialSource func(ctx context.Context) (services.Credentials, error)

// EnvCredentials reads the credentials from the process environment.
func EnvCredentials(ctx context.Context) (services.Credentials, error) {
	creds, err := config.LoadBackupCredentials(ctx)
	if err != nil {
		return services.Credentials{}, err
	}
	return services.Credentials{Token: creds.Token, Repo: creds.Repo, Username: creds.Username}, nil
}

type BackupHandler struct {
	backup      *services.BackupService
	credentials CredentialSource
	logger      zerolog.Logger
}

func NewBackupHandler(backup *services.BackupService, credentials CredentialSource, logger zerolog.Logger) *BackupHandler {
	return &BackupHandler{
		backup:      backup,
		credentials: credentials,
		logger:      logger,
	}
}

func (h *BackupHandler) Run(w http.ResponseWriter, r *http.Request) {
	creds, err := h.credentials(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	result, err := h.backup.BackupToRemote(r.Context(), actorFrom(r), creds)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
