package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"ayaocrm/internal/models"
	"ayaocrm/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

type ExportHandler struct {
	export *services.ExportService
	logger zerolog.Logger
	now    func() time.Time
}

func NewExportHandler(export *services.ExportService, logger zerolog.Logger) *ExportHandler {
	return &ExportHandler{
		export: export,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (h *ExportHandler) Customers(w http.ResponseWriter, r *http.Request) {
	owner := strings.TrimSpace(r.URL.Query().Get("owner"))
	data, err := h.export.Customers(r.Context(), actorFrom(r), models.CustomerFilter{Owner: owner})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	name := "customers"
	if owner != "" {
		name += "_" + owner
	}
	h.sendWorkbook(w, name, data)
}

func (h *ExportHandler) CustomerFollowups(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	data, err := h.export.CustomerFollowups(r.Context(), actorFrom(r), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.sendWorkbook(w, "followups_"+id, data)
}

func (h *ExportHandler) RecentFollowups(w http.ResponseWriter, r *http.Request) {
	since, err := parseWindow(r, h.now())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	data, err := h.export.RecentFollowups(r.Context(), actorFrom(r), since)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.sendWorkbook(w, "followups", data)
}

func (h *ExportHandler) sendWorkbook(w http.ResponseWriter, name string, data []byte) {
	filename := fmt.Sprintf("%s_%s.xlsx", sanitizeFilename(name), h.now().Format("20060102_150405"))
	w.Header().Set("Content-Type", services.XLSXContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", fmt.Sprint(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func sanitizeFilename(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, name)
}
