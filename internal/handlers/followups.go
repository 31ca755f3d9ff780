package handlers

import (
	"net/http"
	"strconv"
	"time"

	"ayaocrm/internal/models"
	"ayaocrm/internal/services"

	"github.com/rs/zerolog"
)

type FollowupsHandler struct {
	followups *services.FollowupService
	logger    zerolog.Logger
	now       func() time.Time
}

func NewFollowupsHandler(followups *services.FollowupService, logger zerolog.Logger) *FollowupsHandler {
	return &FollowupsHandler{
		followups: followups,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Recent serves ?since=<RFC3339>, ?days=<N> or ?today=true. Without a
// window every visible note is returned, up to the service limit.
func (h *FollowupsHandler) Recent(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)

	var (
		followups []models.Followup
		err       error
	)
	if r.URL.Query().Get("today") == "true" {
		followups, err = h.followups.Today(r.Context(), actor)
	} else {
		var since time.Time
		if since, err = parseWindow(r, h.now()); err == nil {
			followups, err = h.followups.ListRecent(r.Context(), actor, since)
		}
	}
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, followups)
}

func parseWindow(r *http.Request, now time.Time) (time.Time, error) {
	q := r.URL.Query()
	if s := q.Get("since"); s != "" {
		since, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return time.Time{}, models.Invalid("since must be an RFC3339 timestamp")
		}
		return since.UTC(), nil
	}
	if d := q.Get("days"); d != "" {
		days, err := strconv.Atoi(d)
		if err != nil || days < 0 {
			return time.Time{}, models.Invalid("days must be a non-negative integer")
		}
		return now.AddDate(0, 0, -days), nil
	}
	return time.Time{}, nil
}
