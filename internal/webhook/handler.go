package webhook

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/eddie-kay0462/iris/internal/platform/httpx"
)

// Event is the envelope shared by provider callbacks.
type Event struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Handler acknowledges verified provider callbacks.
type Handler struct {
	logger   *slog.Logger
	paystack Verifier
	sms      Verifier
	rate     int
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, paystackSecret, smsSecret string) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:   logger,
		paystack: Paystack(paystackSecret),
		sms:      SMS(smsSecret),
		rate:     120,
	}
}

// MountRoutes registers webhook routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(httprate.LimitByIP(h.rate, time.Minute))
	r.With(h.paystack.Middleware(h.logger)).Post("/paystack", h.receive("paystack"))
	r.With(h.sms.Middleware(h.logger)).Post("/sms", h.receive("sms"))
}

func (h *Handler) receive(provider string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var evt Event
		if err := json.NewDecoder(io.LimitReader(r.Body, httpx.MaxBodyBytes)).Decode(&evt); err != nil {
			httpx.Error(w, http.StatusBadRequest, "Invalid request")
			return
		}
		h.logger.Info("webhook received",
			slog.String("provider", provider),
			slog.String("event", evt.Event))
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "received"})
	}
}
