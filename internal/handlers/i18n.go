package handlers

import (
	"io"
	"net/http"

	"ayaocrm/internal/i18n"
	"ayaocrm/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

type I18nHandler struct {
	resolver *i18n.Resolver
	logger   zerolog.Logger
}

func NewI18nHandler(resolver *i18n.Resolver, logger zerolog.Logger) *I18nHandler {
	return &I18nHandler{resolver: resolver, logger: logger}
}

type languagesResponse struct {
	Languages []string `json:"languages"`
	Current   string   `json:"current"`
}

// Languages reports the offered languages and the one to render with:
// the actor's stored preference, else the Accept-Language match.
func (h *I18nHandler) Languages(w http.ResponseWriter, r *http.Request) {
	current := actorFrom(r).Language
	if current == "" {
		current = i18n.Match(r.Header.Get("Accept-Language"))
	}
	writeJSON(w, http.StatusOK, languagesResponse{Languages: h.resolver.Languages(), Current: current})
}

func (h *I18nHandler) Dictionary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.resolver.Dictionary(chi.URLParam(r, "lang")))
}

// Save replaces the override document. The body may be JSON or YAML.
func (h *I18nHandler) Save(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, r, h.logger, models.Invalid("failed to read body: %v", err))
		return
	}

	set, err := i18n.ParseDocument(body)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.resolver.SaveOverrides(r.Context(), actorFrom(r), set); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, h.resolver.LoadOverrides())
}
