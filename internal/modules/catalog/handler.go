package catalog

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/georgemunganga/tindahan-pos/internal/platform/session"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Handler exposes catalog lookup and inventory edit endpoints.
type Handler struct {
	service          Service
	defaultThreshold int
}

func NewHandler(service Service, defaultLowStockThreshold int) *Handler {
	return &Handler{service: service, defaultThreshold: defaultLowStockThreshold}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", h.listProducts) // ?category= or ?q=
		r.Post("/", h.createProduct)
		r.Get("/categories", h.listCategories)
		r.Get("/low-stock", h.lowStock)
		r.Get("/barcode/{barcode}", h.getByBarcode)
		r.Get("/{id}", h.getProduct)
		r.Put("/{id}", h.updateProduct)
		r.Patch("/{id}/stock", h.setStock)
		r.Delete("/{id}", h.deleteProduct)
	})
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	var (
		products []*Product
		err      error
	)
	q := r.URL.Query()
	switch {
	case q.Get("category") != "":
		products, err = h.service.ListByCategory(r.Context(), Category(q.Get("category")))
	case q.Get("q") != "":
		products, err = h.service.Search(r.Context(), q.Get("q"))
	default:
		products, err = h.service.ListAll(r.Context())
	}
	if err != nil {
		respondError(w, err)
		return
	}
	respondList(w, products)
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, Categories)
}

func (h *Handler) lowStock(w http.ResponseWriter, r *http.Request) {
	threshold := h.defaultThreshold
	if v := r.URL.Query().Get("threshold"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			respond(w, http.StatusBadRequest, map[string]string{"error": "threshold must be an integer"})
			return
		}
		threshold = n
	}
	products, err := h.service.LowStock(r.Context(), threshold)
	if err != nil {
		respondError(w, err)
		return
	}
	respondList(w, products)
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	p, err := h.service.AddProduct(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, p)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}
	p, err := h.service.FindByID(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, p)
}

func (h *Handler) getByBarcode(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.FindByBarcode(r.Context(), chi.URLParam(r, "barcode"))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, p)
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}
	var req ProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	p, err := h.service.UpdateProduct(r.Context(), id, req)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, p)
}

func (h *Handler) setStock(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}
	var req struct {
		StockQuantity *int `json:"stock_quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.StockQuantity == nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "stock_quantity is required"})
		return
	}
	if err := h.service.SetStock(r.Context(), id, *req.StockQuantity); err != nil {
		respondError(w, err)
		return
	}
	p, err := h.service.FindByID(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, p)
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteProduct(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func productID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid product id"})
		return uuid.Nil, false
	}
	return id, true
}

func respondList(w http.ResponseWriter, products []*Product) {
	if products == nil {
		products = []*Product{}
	}
	respond(w, http.StatusOK, products)
}

func respondError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, session.ErrNotAuthenticated):
		code = http.StatusUnauthorized
	case errors.Is(err, ErrInvalidInput):
		code = http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, ErrDuplicateBarcode):
		code = http.StatusConflict
	}
	respond(w, code, map[string]string{"error": err.Error()})
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
