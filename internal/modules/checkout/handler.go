package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/georgemunganga/tindahan-pos/internal/modules/cart"
	"github.com/georgemunganga/tindahan-pos/internal/modules/sale"
	"github.com/go-chi/chi/v5"
)

// Handler finalizes a session cart into a sale.
type Handler struct {
	carts     cart.Service
	committer *Committer
}

func NewHandler(carts cart.Service, committer *Committer) *Handler {
	return &Handler{carts: carts, committer: committer}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/v1/carts/{session_id}/checkout", h.checkout)
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	key := r.Header.Get("Idempotency-Key")

	var res Result
	err := h.carts.Finalize(r.Context(), chi.URLParam(r, "session_id"), func(ctx context.Context, c *cart.Cart) error {
		var err error
		res, err = h.committer.Checkout(ctx, Request{Cart: c, IdempotencyKey: key})
		return err
	})
	if errors.Is(err, ErrEmptyCart) && key != "" {
		if s, replayErr := h.committer.Replay(r.Context(), key); replayErr == nil {
			res, err = Result{Sale: s, Replayed: true}, nil
		}
	}
	if err != nil {
		respondError(w, err)
		return
	}

	view := sale.NewView(res.Sale)
	view.Replayed = res.Replayed
	status := http.StatusCreated
	if res.Replayed {
		status = http.StatusOK
	}
	respond(w, status, view)
}

func respondError(w http.ResponseWriter, err error) {
	var stockErr *InsufficientStockError
	if errors.As(err, &stockErr) {
		respond(w, http.StatusConflict, map[string]interface{}{
			"error": err.Error(),
			"lines": stockErr.Lines,
		})
		return
	}
	var unavailableErr *UnavailableError
	if errors.As(err, &unavailableErr) {
		respond(w, http.StatusServiceUnavailable, map[string]interface{}{
			"error":     "store unavailable, please try again",
			"retryable": true,
			"outcome":   unavailableErr.Outcome,
		})
		return
	}
	if errors.Is(err, cart.ErrDraftUnavailable) {
		respond(w, http.StatusServiceUnavailable, map[string]interface{}{
			"error":     "cart storage unavailable, please try again",
			"retryable": true,
			"outcome":   OutcomeRolledBack,
		})
		return
	}

	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrNotAuthenticated):
		code = http.StatusUnauthorized
	case errors.Is(err, ErrEmptyCart), errors.Is(err, ErrInvalidCart), errors.Is(err, cart.ErrInvalidSession):
		code = http.StatusBadRequest
	case errors.Is(err, ErrKeyReused):
		code = http.StatusUnprocessableEntity
	}
	respond(w, code, map[string]string{"error": err.Error()})
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
