package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"certflow/internal/payment"
	"certflow/internal/workflow/models"
	"certflow/internal/workflow/service"
	id "certflow/pkg/domain"
	dErrors "certflow/pkg/domain-errors"
	"certflow/pkg/platform/httputil"
	"certflow/pkg/requestcontext"
)

const signatureHeader = "X-Gateway-Signature"

// maxWebhookBody caps the gateway callback body at 64 KiB.
const maxWebhookBody = 64 << 10

// WebhookHandler receives the payment gateway's confirmation callbacks. It
// lives outside the bearer-token chain; the HMAC signature over the raw body
// is the authentication.
type WebhookHandler struct {
	svc      *service.Service
	verifier payment.SignatureVerifier
	logger   *slog.Logger
}

func NewWebhookHandler(svc *service.Service, verifier payment.SignatureVerifier, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{svc: svc, verifier: verifier, logger: logger}
}

// ConfirmPayment handles POST /webhooks/payment. A duplicate order id is
// answered with 200 and applied=false so the gateway stops retrying a
// confirmation that has already been applied.
func (h *WebhookHandler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "unreadable request body"))
		return
	}
	if err := h.verifier.Verify(body, r.Header.Get(signatureHeader)); err != nil {
		h.logger.WarnContext(r.Context(), "rejected payment webhook",
			"error", err,
			"client_ip", requestcontext.ClientIP(r.Context()),
		)
		httputil.WriteJSON(w, http.StatusUnauthorized, httputil.ErrorResponse{
			Error: string(dErrors.CodeUnauthorized), Message: "invalid webhook signature",
		})
		return
	}

	var req paymentWebhookRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid webhook payload"))
		return
	}
	appID, err := id.ParseApplicationID(req.ApplicationID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	ctx := requestcontext.WithActorID(r.Context(), "payment-gateway")
	ctx = requestcontext.WithActorRole(ctx, string(models.RoleSystem))

	_, applied, err := h.svc.ConfirmPayment(ctx, appID, req.OrderID, req.Phase)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, webhookResponse{Received: true, Applied: applied})
}
