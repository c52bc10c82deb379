package report

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/georgemunganga/tindahan-pos/internal/modules/catalog"
	"github.com/georgemunganga/tindahan-pos/internal/platform/session"
	"github.com/go-chi/chi/v5"
)

type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/reports", func(r chi.Router) {
		r.Get("/summary", h.summary)               // ?period=daily|weekly|monthly|quarterly|yearly
		r.Get("/top-categories", h.topCategories) // ?period=&limit=
		r.Get("/trend", h.trend)                  // ?period=
		r.Get("/low-stock", h.lowStock)           // ?threshold=
	})
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	p, err := ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		respondError(w, err)
		return
	}
	sum, err := h.service.Summary(r.Context(), p)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, sum)
}

func (h *Handler) topCategories(w http.ResponseWriter, r *http.Request) {
	p, err := ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		respondError(w, err)
		return
	}
	limit, err := intParam(r, "limit", 0)
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "limit must be an integer"})
		return
	}
	totals, err := h.service.TopCategories(r.Context(), p, limit)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, totals)
}

func (h *Handler) trend(w http.ResponseWriter, r *http.Request) {
	p, err := ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		respondError(w, err)
		return
	}
	points, err := h.service.Trend(r.Context(), p)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, points)
}

func (h *Handler) lowStock(w http.ResponseWriter, r *http.Request) {
	threshold, err := intParam(r, "threshold", -1)
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "threshold must be an integer"})
		return
	}
	products, err := h.service.LowStock(r.Context(), threshold)
	if err != nil {
		respondError(w, err)
		return
	}
	if products == nil {
		products = []*catalog.Product{}
	}
	respond(w, http.StatusOK, products)
}

func intParam(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

func respondError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, session.ErrNotAuthenticated):
		code = http.StatusUnauthorized
	case errors.Is(err, ErrInvalidPeriod), errors.Is(err, catalog.ErrInvalidInput):
		code = http.StatusBadRequest
	}
	respond(w, code, map[string]string{"error": err.Error()})
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
