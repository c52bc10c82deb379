package sale

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/georgemunganga/tindahan-pos/internal/platform/session"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Handler exposes the sale ledger read endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/sales", func(r chi.Router) {
		r.Get("/", h.listSales)   // GET /api/v1/sales?from=RFC3339&to=RFC3339
		r.Get("/{id}", h.getSale) // GET /api/v1/sales/{id}
	})
}

func (h *Handler) listSales(w http.ResponseWriter, r *http.Request) {
	from, err := parseTime(r.URL.Query().Get("from"))
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid from: " + err.Error()})
		return
	}
	to, err := parseTime(r.URL.Query().Get("to"))
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid to: " + err.Error()})
		return
	}
	sales, err := h.service.ListSales(r.Context(), from, to)
	if err != nil {
		respondError(w, err)
		return
	}
	views := make([]View, 0, len(sales))
	for _, s := range sales {
		views = append(views, NewView(s))
	}
	respond(w, http.StatusOK, views)
}

func (h *Handler) getSale(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid sale id"})
		return
	}
	s, err := h.service.GetSale(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, NewView(s))
}

func parseTime(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, v)
}

func respondError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, session.ErrNotAuthenticated):
		code = http.StatusUnauthorized
	case errors.Is(err, ErrNotFound):
		code = http.StatusNotFound
	}
	respond(w, code, map[string]string{"error": err.Error()})
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
