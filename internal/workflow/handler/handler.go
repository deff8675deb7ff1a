// Package handler exposes the certification workflow over HTTP. Handlers
// decode and validate the wire shapes and delegate every decision to the
// workflow service.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"certflow/internal/workflow/service"
	id "certflow/pkg/domain"
	dErrors "certflow/pkg/domain-errors"
	"certflow/pkg/platform/httputil"
)

type Handler struct {
	svc    *service.Service
	logger *slog.Logger
}

func New(svc *service.Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// RegisterRoutes mounts the authenticated application routes. The payment
// webhook is mounted separately because it authenticates by signature, not
// bearer token.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/applications", func(r chi.Router) {
		r.Post("/", h.createDraft)
		r.Get("/", h.listMine)
		r.Route("/{applicationID}", func(r chi.Router) {
			r.Get("/", h.get)
			r.Delete("/", h.deleteDraft)
			r.Post("/submit", h.submit)
			r.Post("/review", h.review)
			r.Post("/assign-auditor", h.assignAuditor)
			r.Post("/audit-result", h.auditResult)
			r.Post("/approve", h.approve)
			r.Post("/certificate", h.issueCertificate)
			r.Post("/revoke", h.revoke)
			r.Get("/audit-trail", h.auditTrail)
		})
	})
}

func (h *Handler) createDraft(w http.ResponseWriter, r *http.Request) {
	var req createDraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	app, err := h.svc.CreateDraft(r.Context(), req.PlantType, req.FarmProvince)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toApplicationResponse(app))
}

func (h *Handler) listMine(w http.ResponseWriter, r *http.Request) {
	apps, err := h.svc.ListMine(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]applicationResponse, 0, len(apps))
	for _, app := range apps {
		out = append(out, toApplicationResponse(app))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	appID, err := pathApplicationID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	app, err := h.svc.Get(r.Context(), appID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toApplicationResponse(app))
}

func (h *Handler) deleteDraft(w http.ResponseWriter, r *http.Request) {
	appID, err := pathApplicationID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	app, err := h.svc.DeleteDraft(r.Context(), appID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toApplicationResponse(app))
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	appID, err := pathApplicationID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	app, err := h.svc.SubmitForReview(r.Context(), appID, req.Documents)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toApplicationResponse(app))
}

func (h *Handler) review(w http.ResponseWriter, r *http.Request) {
	appID, err := pathApplicationID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	app, err := h.svc.ReviewDocument(r.Context(), appID, service.ReviewDecision(req.Decision), req.Notes)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toApplicationResponse(app))
}

func (h *Handler) assignAuditor(w http.ResponseWriter, r *http.Request) {
	appID, err := pathApplicationID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	app, err := h.svc.AssignAuditor(r.Context(), appID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toApplicationResponse(app))
}

func (h *Handler) auditResult(w http.ResponseWriter, r *http.Request) {
	appID, err := pathApplicationID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req auditResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	app, err := h.svc.SubmitAuditResult(r.Context(), appID, service.AuditResult(req.Result), req.Notes)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toApplicationResponse(app))
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	appID, err := pathApplicationID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	app, err := h.svc.Approve(r.Context(), appID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toApplicationResponse(app))
}

func (h *Handler) issueCertificate(w http.ResponseWriter, r *http.Request) {
	appID, err := pathApplicationID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	app, err := h.svc.IssueCertificate(r.Context(), appID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toApplicationResponse(app))
}

func (h *Handler) revoke(w http.ResponseWriter, r *http.Request) {
	appID, err := pathApplicationID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req revokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	app, err := h.svc.RevokeCertificate(r.Context(), appID, req.Reason)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toApplicationResponse(app))
}

func (h *Handler) auditTrail(w http.ResponseWriter, r *http.Request) {
	appID, err := pathApplicationID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	entries, err := h.svc.AuditTrail(r.Context(), appID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toAuditTrailResponse(entries))
}

func pathApplicationID(r *http.Request) (id.ApplicationID, error) {
	return id.ParseApplicationID(chi.URLParam(r, "applicationID"))
}
