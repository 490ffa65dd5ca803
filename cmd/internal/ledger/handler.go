package ledger

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"budgetly/cmd/internal/auth/session"
)

// Handler exposes the authenticated ledger endpoints.
type Handler struct {
	log      *slog.Logger
	store    Store
	sessions *session.Service

	maxBodyBytes int64
}

// NewHandler constructs a ledger Handler.
func NewHandler(log *slog.Logger, store Store, sessions *session.Service) (*Handler, error) {
	if log == nil {
		log = slog.Default()
	}
	if store == nil {
		return nil, errors.New("ledger: nil store")
	}
	if sessions == nil {
		return nil, errors.New("ledger: nil session service")
	}
	return &Handler{
		log:          log,
		store:        store,
		sessions:     sessions,
		maxBodyBytes: 1 << 20,
	}, nil
}

// Register wires ledger routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("GET /api/categories", h.handleListCategories)
	mux.HandleFunc("POST /api/categories", h.handleCreateCategory)
	mux.HandleFunc("DELETE /api/categories/{id}", h.handleDeleteCategory)
	mux.HandleFunc("GET /api/transactions", h.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", h.handleCreateTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", h.handleDeleteTransaction)
}

type createCategoryRequest struct {
	Name string `json:"name"`
}

type createTransactionRequest struct {
	Title       string  `json:"title"`
	AmountCents int64   `json:"amountCents"`
	CategoryID  *string `json:"categoryId"`
	OccurredAt  string  `json:"occurredAt"`
}

func (h *Handler) handleListCategories(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	cats, err := h.store.ListCategories(r.Context(), userID)
	if err != nil {
		h.log.Error("ledger.categories.list.fail", "err", err)
		h.writeMessage(w, http.StatusInternalServerError, "Something went wrong")
		return
	}
	h.writeJSON(w, http.StatusOK, cats)
}

func (h *Handler) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req createCategoryRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		h.writeMessage(w, http.StatusBadRequest, "Name is required")
		return
	}

	cat, err := h.store.CreateCategory(r.Context(), time.Now().UTC(), userID, name)
	if err != nil {
		h.log.Error("ledger.categories.create.fail", "err", err)
		h.writeMessage(w, http.StatusInternalServerError, "Something went wrong")
		return
	}
	h.writeJSON(w, http.StatusOK, cat)
}

func (h *Handler) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	err := h.store.DeleteCategory(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			h.writeMessage(w, http.StatusNotFound, "Category not found")
			return
		}
		h.log.Error("ledger.categories.delete.fail", "err", err)
		h.writeMessage(w, http.StatusInternalServerError, "Something went wrong")
		return
	}
	h.writeMessage(w, http.StatusOK, "Deleted")
}

func (h *Handler) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	txs, err := h.store.ListTransactions(r.Context(), userID)
	if err != nil {
		h.log.Error("ledger.transactions.list.fail", "err", err)
		h.writeMessage(w, http.StatusInternalServerError, "Something went wrong")
		return
	}
	h.writeJSON(w, http.StatusOK, txs)
}

func (h *Handler) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req createTransactionRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		h.writeMessage(w, http.StatusBadRequest, "Title is required")
		return
	}
	if req.AmountCents == 0 {
		h.writeMessage(w, http.StatusBadRequest, "Amount is required")
		return
	}

	occurredAt := time.Time{}
	if req.OccurredAt != "" {
		parsed, err := time.Parse(time.RFC3339, req.OccurredAt)
		if err != nil {
			h.writeMessage(w, http.StatusBadRequest, "occurredAt must be RFC 3339")
			return
		}
		occurredAt = parsed
	}

	tx, err := h.store.CreateTransaction(r.Context(), CreateTransactionInput{
		UserID:      userID,
		CategoryID:  req.CategoryID,
		Title:       title,
		AmountCents: req.AmountCents,
		OccurredAt:  occurredAt,
		Now:         time.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, ErrInvalidRef) {
			h.writeMessage(w, http.StatusBadRequest, "Unknown category")
			return
		}
		h.log.Error("ledger.transactions.create.fail", "err", err)
		h.writeMessage(w, http.StatusInternalServerError, "Something went wrong")
		return
	}
	h.writeJSON(w, http.StatusOK, tx)
}

func (h *Handler) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	err := h.store.DeleteTransaction(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			h.writeMessage(w, http.StatusNotFound, "Transaction not found")
			return
		}
		h.log.Error("ledger.transactions.delete.fail", "err", err)
		h.writeMessage(w, http.StatusInternalServerError, "Something went wrong")
		return
	}
	h.writeMessage(w, http.StatusOK, "Deleted")
}

// ---- helpers ----

func (h *Handler) requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	c, err := r.Cookie(h.sessions.Config().CookieName)
	if err != nil || c.Value == "" {
		h.writeMessage(w, http.StatusUnauthorized, "User Not Found")
		return "", false
	}

	userID, err := h.sessions.Resolve(r.Context(), c.Value)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			h.writeMessage(w, http.StatusUnauthorized, "User Not Found")
			return "", false
		}
		h.log.Error("ledger.session.resolve.fail", "err", err)
		h.writeMessage(w, http.StatusInternalServerError, "Something went wrong")
		return "", false
	}
	return userID, true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeMessage(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"message": msg})
}

func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	defer func() { _ = r.Body.Close() }()

	body := http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("extra data after JSON object")
	}
	return nil
}
