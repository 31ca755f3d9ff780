package handlers

import (
	"net/http"

	"ayaocrm/internal/models"
	"ayaocrm/internal/services"

	"github.com/rs/zerolog"
)

type DashboardHandler struct {
	customers *services.CustomerService
	followups *services.FollowupService
	logger    zerolog.Logger
}

func NewDashboardHandler(customers *services.CustomerService, followups *services.FollowupService, logger zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{
		customers: customers,
		followups: followups,
		logger:    logger,
	}
}

type DashboardData struct {
	Customers      *models.CustomerStats `json:"customers"`
	TodayFollowups int                   `json:"today_followups"`
}

func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)

	stats, err := h.customers.Stats(r.Context(), actor)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	today, err := h.followups.Today(r.Context(), actor)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, DashboardData{Customers: stats, TodayFollowups: len(today)})
}
