package cart

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/georgemunganga/tindahan-pos/internal/modules/catalog"
	"github.com/georgemunganga/tindahan-pos/internal/platform/session"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Handler exposes the session cart endpoints. Checkout is mounted by the checkout package.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/carts/{session_id}", func(r chi.Router) {
		r.Get("/", h.getCart)
		r.Delete("/", h.discardCart)
		r.Post("/lines", h.addLine)
		r.Post("/lines/{product_id}/increment", h.increment)
		r.Post("/lines/{product_id}/decrement", h.decrement)
		r.Delete("/lines/{product_id}", h.removeLine)
	})
}

type addLineRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	Barcode   string    `json:"barcode"`
	Quantity  int       `json:"quantity"`
}

type lineView struct {
	Line
	Subtotal decimal.Decimal `json:"subtotal"`
}

// View is the cart as returned to clients.
type View struct {
	SessionID    string          `json:"session_id"`
	Lines        []lineView      `json:"lines"`
	Total        decimal.Decimal `json:"total"`
	TotalDisplay string          `json:"total_display"`
}

func NewView(c *Cart) View {
	lines := make([]lineView, 0, c.Len())
	for _, l := range c.Lines() {
		lines = append(lines, lineView{Line: l, Subtotal: l.Subtotal()})
	}
	total := c.Total()
	return View{SessionID: c.SessionID, Lines: lines, Total: total, TotalDisplay: total.StringFixed(2)}
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.Get(r.Context(), chi.URLParam(r, "session_id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, NewView(c))
}

func (h *Handler) discardCart(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Discard(r.Context(), chi.URLParam(r, "session_id")); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) addLine(w http.ResponseWriter, r *http.Request) {
	var req addLineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	ref := ProductRef{ProductID: req.ProductID, Barcode: req.Barcode}
	c, err := h.service.AddProduct(r.Context(), chi.URLParam(r, "session_id"), ref, req.Quantity)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, NewView(c))
}

func (h *Handler) increment(w http.ResponseWriter, r *http.Request) {
	h.lineOp(w, r, h.service.Increment)
}

func (h *Handler) decrement(w http.ResponseWriter, r *http.Request) {
	h.lineOp(w, r, h.service.Decrement)
}

func (h *Handler) removeLine(w http.ResponseWriter, r *http.Request) {
	h.lineOp(w, r, h.service.Remove)
}

type lineFunc func(ctx context.Context, sessionID string, productID uuid.UUID) (*Cart, error)

func (h *Handler) lineOp(w http.ResponseWriter, r *http.Request, op lineFunc) {
	productID, err := uuid.Parse(chi.URLParam(r, "product_id"))
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid product id"})
		return
	}
	c, err := op(r.Context(), chi.URLParam(r, "session_id"), productID)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, NewView(c))
}

func respondError(w http.ResponseWriter, err error) {
	var hint *StockHintError
	if errors.As(err, &hint) {
		respond(w, http.StatusConflict, map[string]interface{}{
			"error":      err.Error(),
			"product_id": hint.ProductID,
			"available":  hint.Snapshot,
			"requested":  hint.Requested,
		})
		return
	}
	if errors.Is(err, ErrDraftUnavailable) {
		respond(w, http.StatusServiceUnavailable, map[string]interface{}{
			"error":     "cart storage unavailable, please try again",
			"retryable": true,
		})
		return
	}

	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, session.ErrNotAuthenticated):
		code = http.StatusUnauthorized
	case errors.Is(err, ErrInvalidSession), errors.Is(err, ErrInvalidQuantity), errors.Is(err, catalog.ErrInvalidInput):
		code = http.StatusBadRequest
	case errors.Is(err, ErrLineNotFound), errors.Is(err, catalog.ErrNotFound):
		code = http.StatusNotFound
	}
	respond(w, code, map[string]string{"error": err.Error()})
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
