package rates

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// Handler serves the exchange-rate proxy endpoint.
type Handler struct {
	log    *slog.Logger
	cfg    Config
	client *http.Client
}

// NewHandler constructs a rates Handler. A nil client gets a default one with
// the configured timeout.
func NewHandler(log *slog.Logger, cfg Config, client *http.Client) *Handler {
	if log == nil {
		log = slog.Default()
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &Handler{log: log, cfg: cfg, client: client}
}

// Register wires the rates route onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("GET /api/exchange-rates", h.handleLatest)
}

func (h *Handler) handleLatest(w http.ResponseWriter, r *http.Request) {
	base := strings.TrimSpace(r.URL.Query().Get("base"))
	if base == "" {
		h.writeMessage(w, http.StatusBadRequest, "Base currency is required")
		return
	}

	if h.cfg.APIKey == "" {
		h.log.Error("rates.latest.fail", "err", "missing API key")
		h.writeMessage(w, http.StatusInternalServerError, "Something went wrong")
		return
	}

	upstream := fmt.Sprintf("%s/%s/latest/%s",
		strings.TrimRight(h.cfg.BaseURL, "/"), h.cfg.APIKey, url.PathEscape(base))

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, upstream, nil)
	if err != nil {
		h.log.Error("rates.latest.fail", "err", err)
		h.writeMessage(w, http.StatusInternalServerError, "Something went wrong")
		return
	}

	resp, err := h.client.Do(req)
	if err != nil {
		h.log.Error("rates.latest.unreachable", "base", base, "err", err)
		h.writeMessage(w, http.StatusInternalServerError, "No response received from the API")
		return
	}
	defer func() { _ = resp.Body.Close() }()

	// Relay the provider's answer as-is, error payloads included.
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		h.log.Error("rates.latest.relay.fail", "base", base, "err", err)
	}
}

func (h *Handler) writeMessage(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": msg})
}
