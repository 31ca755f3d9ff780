package handlers

import (
	"net/http"
	"slices"
	"strings"

	"ayaocrm/internal/auth"
	"ayaocrm/internal/i18n"
	"ayaocrm/internal/models"

	"github.com/rs/zerolog"
)

type AuthHandler struct {
	sessions    *auth.SessionManager
	userService *auth.UserService
	resolver    *i18n.Resolver
	logger      zerolog.Logger
}

func NewAuthHandler(sessions *auth.SessionManager, userService *auth.UserService, resolver *i18n.Resolver, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		sessions:    sessions,
		userService: userService,
		resolver:    resolver,
		logger:      logger,
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type languageRequest struct {
	Language string `json:"language"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		writeError(w, r, h.logger, models.Invalid("username and password are required"))
		return
	}

	user, err := h.userService.Authenticate(r.Context(), username, req.Password)
	if err != nil {
		h.logger.Info().Str("username", username).Str("remote", r.RemoteAddr).Msg("login failed")
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.sessions.SetUser(w, r, user.Username); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.logger.Info().Str("username", user.Username).Str("remote", r.RemoteAddr).Msg("login succeeded")
	writeJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Clear(w, r); err != nil {
		h.logger.Warn().Err(err).Msg("failed to clear session")
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, actorFrom(r))
}

func (h *AuthHandler) SetLanguage(w http.ResponseWriter, r *http.Request) {
	var req languageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	lang := strings.TrimSpace(req.Language)
	if lang == "" {
		lang = i18n.Match(r.Header.Get("Accept-Language"))
	}
	if !slices.Contains(h.resolver.Languages(), lang) {
		writeError(w, r, h.logger, models.Invalid("unknown language %q", lang))
		return
	}

	actor := actorFrom(r)
	if err := h.userService.SetLanguage(r.Context(), actor, lang); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	actor.Language = lang
	writeJSON(w, http.StatusOK, actor)
}
