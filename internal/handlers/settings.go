package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"ayaocrm/internal/audit"
	"ayaocrm/internal/auth"
	"ayaocrm/internal/models"
	"ayaocrm/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// SettingsHandler serves user management, the action log and the
// datastore archive download.
type SettingsHandler struct {
	userService *auth.UserService
	auditLog    *audit.Log
	archive     *services.ArchiveService
	logger      zerolog.Logger
}

func NewSettingsHandler(userService *auth.UserService, auditLog *audit.Log, archive *services.ArchiveService, logger zerolog.Logger) *SettingsHandler {
	return &SettingsHandler{
		userService: userService,
		auditLog:    auditLog,
		archive:     archive,
		logger:      logger,
	}
}

type passwordRequest struct {
	Password string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (h *SettingsHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.List(r.Context(), actorFrom(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// CreateUser adds a user or replaces an existing one with the same name.
func (h *SettingsHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var in auth.NewUser
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	user, err := h.userService.Add(r.Context(), actorFrom(r), in)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *SettingsHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.userService.ResetPassword(r.Context(), actorFrom(r), chi.URLParam(r, "username"), req.Password); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SettingsHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.userService.Delete(r.Context(), actorFrom(r), chi.URLParam(r, "username")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ChangePassword lets any user rotate their own password after proving
// the current one.
func (h *SettingsHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if req.CurrentPassword == "" || req.NewPassword == "" {
		writeError(w, r, h.logger, models.Invalid("all fields are required"))
		return
	}
	if req.NewPassword != req.ConfirmPassword {
		writeError(w, r, h.logger, models.Invalid("new passwords do not match"))
		return
	}

	actor := actorFrom(r)
	if _, err := h.userService.Authenticate(r.Context(), actor.Username, req.CurrentPassword); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.userService.ResetPassword(r.Context(), actor, actor.Username, req.NewPassword); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SettingsHandler) Logs(w http.ResponseWriter, r *http.Request) {
	limit := audit.DefaultRecentLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			writeError(w, r, h.logger, models.Invalid("limit must be a positive integer"))
			return
		}
		limit = n
	}

	entries, err := h.auditLog.Recent(r.Context(), actorFrom(r), limit)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *SettingsHandler) ExportArchive(w http.ResponseWriter, r *http.Request) {
	archive, err := h.archive.Export(r.Context(), actorFrom(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	filename := fmt.Sprintf("ayaocrm_%s.tar.gz", time.Now().UTC().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/gzip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Write(archive)
}
