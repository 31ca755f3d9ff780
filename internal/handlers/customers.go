package handlers

import (
	"net/http"
	"strings"

	"ayaocrm/internal/models"
	"ayaocrm/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

type CustomersHandler struct {
	customers *services.CustomerService
	followups *services.FollowupService
	logger    zerolog.Logger
}

func NewCustomersHandler(customers *services.CustomerService, followups *services.FollowupService, logger zerolog.Logger) *CustomersHandler {
	return &CustomersHandler{
		customers: customers,
		followups: followups,
		logger:    logger,
	}
}

type createdResponse struct {
	ID string `json:"id"`
}

type followupRequest struct {
	Note       string `json:"note"`
	NextAction string `json:"next_action"`
}

func (h *CustomersHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := models.CustomerFilter{Owner: strings.TrimSpace(r.URL.Query().Get("owner"))}

	customers, err := h.customers.List(r.Context(), actorFrom(r), filter)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, customers)
}

func (h *CustomersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in models.CustomerInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	id, err := h.customers.Insert(r.Context(), actorFrom(r), in)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, createdResponse{ID: id})
}

func (h *CustomersHandler) Get(w http.ResponseWriter, r *http.Request) {
	customer, err := h.customers.Get(r.Context(), actorFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, customer)
}

func (h *CustomersHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch models.CustomerPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	customer, err := h.customers.Update(r.Context(), actorFrom(r), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, customer)
}

func (h *CustomersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.customers.Delete(r.Context(), actorFrom(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CustomersHandler) ListFollowups(w http.ResponseWriter, r *http.Request) {
	followups, err := h.followups.ListForCustomer(r.Context(), actorFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, followups)
}

func (h *CustomersHandler) AddFollowup(w http.ResponseWriter, r *http.Request) {
	var req followupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	id, err := h.followups.Add(r.Context(), actorFrom(r), chi.URLParam(r, "id"), req.Note, req.NextAction)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, createdResponse{ID: id})
}
