package httpx

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/jcmexdev/braider-storefront/internal/pkg/requestmeta"
	"github.com/jcmexdev/braider-storefront/internal/storefront/core/domain/entity"
	"github.com/jcmexdev/braider-storefront/internal/storefront/core/ports"
)

//go:embed templates/*.gohtml
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

func parseTemplates() (*template.Template, error) {
	return template.New("").Funcs(template.FuncMap{
		"naira": entity.FormatNaira,
	}).ParseFS(templateFS, "templates/*.gohtml")
}

type indexPage struct {
	Bundles   []entity.Bundle
	States    []string
	Draft     entity.Draft
	Selected  entity.Bundle
	Missing   []string
	CanSubmit bool
	// Attempted is set when a submit was refused, so the form can point at
	// what is still missing.
	Attempted bool
}

func (p indexPage) IsMissing(field string) bool {
	return slices.Contains(p.Missing, field)
}

func (p indexPage) DeliveryYes() bool {
	return p.Draft.DeliveryWindow == entity.DeliveryWithinWindow
}

func (p indexPage) DeliveryNo() bool {
	return p.Draft.DeliveryWindow == entity.DeliveryCustomDate
}

func newIndexPage(d entity.Draft) indexPage {
	selected, _ := entity.BundleAt(d.Bundle)
	missing := d.Missing()
	return indexPage{
		Bundles:   entity.Bundles(),
		States:    entity.States(),
		Draft:     d,
		Selected:  selected,
		Missing:   missing,
		CanSubmit: len(missing) == 0,
	}
}

type thankYouPage struct {
	Snapshot entity.Snapshot
	Bundle   entity.Bundle
}

// Index renders the landing page with the session's draft in the order form.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	d, err := h.checkout.Draft(r.Context(), requestmeta.SessionID(r.Context()))
	if err != nil {
		slog.ErrorContext(r.Context(), "load draft", "error", err)
		http.Error(w, "could not load your order", http.StatusInternalServerError)
		return
	}
	h.render(w, r, http.StatusOK, "index.gohtml", newIndexPage(d))
}

// SelectBundleForm handles the "Order now" buttons on the bundle cards.
func (h *Handler) SelectBundleForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	index, err := strconv.Atoi(r.PostForm.Get(entity.FieldBundle))
	if err != nil || !entity.ValidBundle(index) {
		http.Error(w, "unknown bundle", http.StatusBadRequest)
		return
	}

	if _, err := h.checkout.SelectBundle(r.Context(), requestmeta.SessionID(r.Context()), index); err != nil {
		slog.ErrorContext(r.Context(), "select bundle", "bundle", index, "error", err)
		http.Error(w, "could not update your order", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/#order", http.StatusSeeOther)
}

// SubmitOrderForm stores the posted fields and submits. An incomplete order
// comes back as the form with the submit control disabled and nothing sent.
func (h *Handler) SubmitOrderForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	req, err := draftRequestFromForm(r.PostForm)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	d, status, err := h.applyDraft(r.Context(), req)
	if err != nil {
		if status == http.StatusInternalServerError {
			slog.ErrorContext(r.Context(), "update draft", "error", err)
		}
		http.Error(w, err.Error(), status)
		return
	}

	snap, err := h.checkout.Submit(r.Context(), requestmeta.SessionID(r.Context()))
	if entity.IsValidation(err) {
		page := newIndexPage(d)
		page.Attempted = true
		h.render(w, r, http.StatusUnprocessableEntity, "index.gohtml", page)
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "submit order", "error", err)
		http.Error(w, "could not place your order", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/order/"+url.PathEscape(snap.OrderID)+"/thank-you", http.StatusSeeOther)
}

// ThankYou renders the confirmation for a submitted order.
func (h *Handler) ThankYou(w http.ResponseWriter, r *http.Request) {
	snap, err := h.checkout.Confirmation(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, ports.ErrNotFound) {
		http.Error(w, "order not found", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "load confirmation", "error", err)
		http.Error(w, "could not load your order", http.StatusInternalServerError)
		return
	}
	h.render(w, r, http.StatusOK, "thankyou.gohtml", thankYouPage{
		Snapshot: snap,
		Bundle:   snap.BundleDetails(),
	})
}

// render executes into a buffer first so a template error still yields a clean 500.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	var buf bytes.Buffer
	if err := h.templates.ExecuteTemplate(&buf, name, data); err != nil {
		slog.ErrorContext(r.Context(), "render template", "template", name, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func staticHandler() http.Handler {
	return http.FileServer(http.FS(staticFS))
}
