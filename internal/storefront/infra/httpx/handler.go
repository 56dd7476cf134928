package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jcmexdev/braider-storefront/internal/pkg/requestmeta"
	"github.com/jcmexdev/braider-storefront/internal/storefront/core/domain/entity"
	"github.com/jcmexdev/braider-storefront/internal/storefront/core/ports"
	"github.com/jcmexdev/braider-storefront/internal/submission/submissionlog"
)

// Handler serves both the storefront pages and the JSON API on top of the
// checkout service.
type Handler struct {
	checkout  ports.CheckoutService
	audit     submissionlog.Reader // nil-safe
	templates *template.Template
}

// NewHandler parses the embedded templates once. audit may be nil when the
// submission audit log is disabled.
func NewHandler(checkout ports.CheckoutService, audit submissionlog.Reader) (*Handler, error) {
	tmpl, err := parseTemplates()
	if err != nil {
		return nil, err
	}
	return &Handler{
		checkout:  checkout,
		audit:     audit,
		templates: tmpl,
	}, nil
}

func (h *Handler) ListBundles(w http.ResponseWriter, r *http.Request) {
	bundles := entity.Bundles()
	out := make([]BundleResponse, len(bundles))
	for i, b := range bundles {
		out[i] = mapBundleToResponse(b)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) ListStates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, entity.States())
}

// GetDraft returns the session draft together with the submit gate.
func (h *Handler) GetDraft(w http.ResponseWriter, r *http.Request) {
	d, err := h.checkout.Draft(r.Context(), requestmeta.SessionID(r.Context()))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "draft_unavailable", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, mapDraftToResponse(d))
}

// PatchDraft applies a partial update. The order page calls it on every input
// change to keep the submit control in sync.
func (h *Handler) PatchDraft(w http.ResponseWriter, r *http.Request) {
	var req DraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	d, status, err := h.applyDraft(r.Context(), req)
	if err != nil {
		writeError(w, status, errorCode(status), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, mapDraftToResponse(d))
}

func (h *Handler) SelectBundle(w http.ResponseWriter, r *http.Request) {
	var req SelectBundleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if req.Bundle == nil || !entity.ValidBundle(*req.Bundle) {
		writeError(w, http.StatusBadRequest, "invalid_bundle", "bundle must be 0, 1 or 2")
		return
	}

	d, err := h.checkout.SelectBundle(r.Context(), requestmeta.SessionID(r.Context()), *req.Bundle)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "draft_unavailable", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, mapDraftToResponse(d))
}

// CreateOrder submits the session draft. An optional body is applied first,
// so a client can send the whole order in one request.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req DraftRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	switch {
	case errors.Is(err, io.EOF):
	case err != nil:
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	default:
		if _, status, err := h.applyDraft(r.Context(), req); err != nil {
			writeError(w, status, errorCode(status), err.Error())
			return
		}
	}

	snap, err := h.checkout.Submit(r.Context(), requestmeta.SessionID(r.Context()))
	if err != nil {
		var verr *entity.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
				Error:   "order_incomplete",
				Message: verr.Error(),
				Missing: verr.Fields,
			})
			return
		}
		writeError(w, http.StatusInternalServerError, "submit_failed", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, mapSnapshotToResponse(snap))
}

// GetOrder returns a confirmation while it is still held in the transient store.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	if orderID == "" {
		writeError(w, http.StatusBadRequest, "order_id_required", "")
		return
	}

	snap, err := h.checkout.Confirmation(r.Context(), orderID)
	if errors.Is(err, ports.ErrNotFound) {
		writeError(w, http.StatusNotFound, "order_not_found", err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "confirmation_unavailable", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, mapSnapshotToResponse(snap))
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok"}
	if h.audit != nil {
		counts, err := h.audit.CountByStatus(r.Context())
		if err != nil {
			slog.WarnContext(r.Context(), "submission stats unavailable", "error", err)
		} else {
			resp.Submissions = make(map[string]int, len(counts))
			for status, n := range counts {
				resp.Submissions[string(status)] = n
			}
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// SubmissionStatus reports the last background delivery outcome for an order.
// It outlives the confirmation, since the audit log is never expired.
func (h *Handler) SubmissionStatus(w http.ResponseWriter, r *http.Request) {
	if h.audit == nil {
		writeError(w, http.StatusNotFound, "audit_disabled", "submission log is not configured")
		return
	}
	orderID := chi.URLParam(r, "id")

	entry, err := h.audit.Latest(r.Context(), orderID)
	if errors.Is(err, submissionlog.ErrNotFound) {
		writeError(w, http.StatusNotFound, "submission_not_found", err.Error())
		return
	}
	if err != nil {
		slog.WarnContext(r.Context(), "submission status unavailable", "order_id", orderID, "error", err)
		writeError(w, http.StatusInternalServerError, "submission_log_unavailable", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, mapEntryToResponse(entry))
}

// applyDraft runs req against the session draft and picks the status code
// for a failure: 400 when the request itself is wrong, 500 when the store is.
func (h *Handler) applyDraft(ctx context.Context, req DraftRequest) (entity.Draft, int, error) {
	var applyErr error
	d, err := h.checkout.UpdateDraft(ctx, requestmeta.SessionID(ctx), func(d *entity.Draft) error {
		applyErr = req.Apply(d)
		return applyErr
	})
	if applyErr != nil {
		return entity.Draft{}, http.StatusBadRequest, applyErr
	}
	if err != nil {
		return entity.Draft{}, http.StatusInternalServerError, err
	}
	return d, http.StatusOK, nil
}

func errorCode(status int) string {
	if status == http.StatusBadRequest {
		return "invalid_field"
	}
	return "draft_unavailable"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{
		Error:   code,
		Message: msg,
	})
}
