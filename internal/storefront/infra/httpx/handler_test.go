package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/braider-storefront/internal/pkg/cache"
	"github.com/jcmexdev/braider-storefront/internal/pkg/requestmeta"
	"github.com/jcmexdev/braider-storefront/internal/storefront/core/domain/entity"
	"github.com/jcmexdev/braider-storefront/internal/storefront/core/ports"
	"github.com/jcmexdev/braider-storefront/internal/storefront/core/service"
	"github.com/jcmexdev/braider-storefront/internal/storefront/infra/adapters/session"
	"github.com/jcmexdev/braider-storefront/internal/submission"
	"github.com/jcmexdev/braider-storefront/internal/submission/submissionlog"
	"github.com/jcmexdev/braider-storefront/internal/submission/submissionlog/sqlite"
)

const testSession = "6f1c2b3a-4d5e-4f60-8a7b-9c0d1e2f3a4b"

// --- fakes ---

type recordingDispatcher struct {
	mu        sync.Mutex
	snapshots []entity.Snapshot
}

func (r *recordingDispatcher) Dispatch(_ context.Context, snap entity.Snapshot) {
	r.mu.Lock()
	r.snapshots = append(r.snapshots, snap)
	r.mu.Unlock()
}

func (r *recordingDispatcher) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snapshots)
}

type failingCollector struct{}

func (failingCollector) Submit(context.Context, entity.Snapshot) error {
	return errors.New("formspree unreachable")
}

// blockingCollector holds every submission until release is closed.
type blockingCollector struct {
	release chan struct{}
}

func (b blockingCollector) Submit(ctx context.Context, _ entity.Snapshot) error {
	<-b.release
	return nil
}

type stubAudit struct {
	counts map[submissionlog.Status]int
	latest map[string]*submissionlog.Entry
}

func (s stubAudit) CountByStatus(context.Context) (map[submissionlog.Status]int, error) {
	return s.counts, nil
}

func (s stubAudit) Latest(_ context.Context, orderID string) (*submissionlog.Entry, error) {
	e, ok := s.latest[orderID]
	if !ok {
		return nil, submissionlog.ErrNotFound
	}
	return e, nil
}

// --- helpers ---

func newTestRouter(t *testing.T, dispatcher ports.Dispatcher, audit submissionlog.Reader) http.Handler {
	t.Helper()
	c := cache.NewMemoryCache("storefront-test")
	checkout := service.NewCheckout(
		session.NewDraftStore(c, time.Hour),
		session.NewConfirmationStore(c, time.Hour),
		dispatcher,
	)
	h, err := NewHandler(checkout, audit)
	require.NoError(t, err)
	return NewRouter(h, time.Hour)
}

func serve(router http.Handler, method, target, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.AddCookie(&http.Cookie{Name: requestmeta.SessionCookieName, Value: testSession})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func serveJSON(router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	return serve(router, method, target, "application/json", body)
}

func serveForm(router http.Handler, target string, form url.Values) *httptest.ResponseRecorder {
	return serve(router, http.MethodPost, target, "application/x-www-form-urlencoded", form.Encode())
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), rec.Body.String())
	return v
}

const graceDraft = `{
	"fullName": "Grace",
	"phoneNumber": "08012345678",
	"whatsappNumber": "08012345678",
	"state": "Lagos",
	"deliveryAddress": "12 X St",
	"bundle": 1,
	"deliveryAvailable1to3Days": true
}`

func graceForm() url.Values {
	return url.Values{
		"fullName":                  {"Grace"},
		"phoneNumber":               {"08012345678"},
		"whatsappNumber":            {"08012345678"},
		"state":                     {"Lagos"},
		"deliveryAddress":           {"12 X St"},
		"bundle":                    {"1"},
		"deliveryAvailable1to3Days": {"yes"},
		"customDeliveryDate":        {""},
	}
}

// --- JSON API ---

func TestAPI_ExampleOrder(t *testing.T) {
	dispatcher := &recordingDispatcher{}
	router := newTestRouter(t, dispatcher, nil)

	rec := serveJSON(router, http.MethodPatch, "/api/draft", graceDraft)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	draft := decode[DraftResponse](t, rec)
	assert.True(t, draft.CanSubmit)
	assert.Empty(t, draft.Missing)
	assert.Equal(t, "2 Braiders", draft.BundleLabel)

	rec = serveJSON(router, http.MethodPost, "/api/orders", "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	conf := decode[ConfirmationResponse](t, rec)
	assert.NotEmpty(t, conf.OrderID)
	assert.Len(t, conf.Receipt, 8)
	assert.Equal(t, "Grace", conf.FullName)
	assert.Equal(t, "2 Braiders", conf.Bundle)
	assert.Equal(t, 2, conf.Quantity)
	assert.True(t, conf.Price.Equal(decimal.NewFromInt(49998)))
	require.NotNil(t, conf.DeliveryAvailable1to3Days)
	assert.True(t, *conf.DeliveryAvailable1to3Days)
	assert.Equal(t, "pay_on_delivery", conf.Payment)
	assert.Equal(t, 1, dispatcher.count())

	rec = serveJSON(router, http.MethodGet, "/api/orders/"+conf.OrderID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, conf.Receipt, decode[ConfirmationResponse](t, rec).Receipt)

	// the draft starts over once the order is confirmed
	rec = serveJSON(router, http.MethodGet, "/api/draft", "")
	require.Equal(t, http.StatusOK, rec.Code)
	draft = decode[DraftResponse](t, rec)
	assert.False(t, draft.CanSubmit)
	assert.Empty(t, draft.FullName)
	assert.Equal(t, 1, draft.Bundle)
	assert.Nil(t, draft.DeliveryAvailable1to3Days)
}

func TestAPI_CreateOrderWithBody(t *testing.T) {
	dispatcher := &recordingDispatcher{}
	router := newTestRouter(t, dispatcher, nil)

	rec := serveJSON(router, http.MethodPost, "/api/orders", graceDraft)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "2 Braiders", decode[ConfirmationResponse](t, rec).Bundle)
	assert.Equal(t, 1, dispatcher.count())
}

func TestAPI_IncompleteOrderIsRejected(t *testing.T) {
	dispatcher := &recordingDispatcher{}
	router := newTestRouter(t, dispatcher, nil)

	rec := serveJSON(router, http.MethodPost, "/api/orders", `{"fullName": "Grace"}`)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	resp := decode[ErrorResponse](t, rec)
	assert.Equal(t, "order_incomplete", resp.Error)
	assert.Contains(t, resp.Missing, entity.FieldPhoneNumber)
	assert.Contains(t, resp.Missing, entity.FieldDeliveryWindow)
	assert.NotContains(t, resp.Missing, entity.FieldFullName)
	assert.Zero(t, dispatcher.count(), "nothing is sent for an incomplete order")
}

func TestAPI_CustomDateRule(t *testing.T) {
	router := newTestRouter(t, &recordingDispatcher{}, nil)

	rec := serveJSON(router, http.MethodPatch, "/api/draft", graceDraft)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = serveJSON(router, http.MethodPatch, "/api/draft", `{"deliveryAvailable1to3Days": false}`)
	require.Equal(t, http.StatusOK, rec.Code)
	draft := decode[DraftResponse](t, rec)
	assert.False(t, draft.CanSubmit)
	assert.Equal(t, []string{entity.FieldCustomDate}, draft.Missing)

	rec = serveJSON(router, http.MethodPatch, "/api/draft", `{"customDeliveryDate": "Next Tuesday"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	draft = decode[DraftResponse](t, rec)
	assert.True(t, draft.CanSubmit)
	assert.Equal(t, "Next Tuesday", draft.CustomDeliveryDate)
	require.NotNil(t, draft.DeliveryAvailable1to3Days)
	assert.False(t, *draft.DeliveryAvailable1to3Days)
}

func TestAPI_NullAcknowledgmentBlocksSubmit(t *testing.T) {
	router := newTestRouter(t, &recordingDispatcher{}, nil)
	require.Equal(t, http.StatusOK, serveJSON(router, http.MethodPatch, "/api/draft", graceDraft).Code)

	rec := serveJSON(router, http.MethodPatch, "/api/draft", `{"deliveryAvailable1to3Days": null}`)

	require.Equal(t, http.StatusOK, rec.Code)
	draft := decode[DraftResponse](t, rec)
	assert.Nil(t, draft.DeliveryAvailable1to3Days)
	assert.Equal(t, []string{entity.FieldDeliveryWindow}, draft.Missing)
}

func TestAPI_SelectBundle(t *testing.T) {
	router := newTestRouter(t, &recordingDispatcher{}, nil)

	cases := []struct {
		bundle int
		qty    int
		label  string
	}{
		{0, 1, "1 Braider"},
		{1, 2, "2 Braiders"},
		{2, 4, "3 Braiders"},
	}
	for _, tc := range cases {
		rec := serveJSON(router, http.MethodPost, "/api/draft/bundle", fmt.Sprintf(`{"bundle": %d}`, tc.bundle))
		require.Equal(t, http.StatusOK, rec.Code)
		draft := decode[DraftResponse](t, rec)
		assert.Equal(t, tc.bundle, draft.Bundle)
		assert.Equal(t, tc.qty, draft.Quantity)
		assert.Equal(t, tc.label, draft.BundleLabel)
	}
}

func TestAPI_SelectBundle_Invalid(t *testing.T) {
	router := newTestRouter(t, &recordingDispatcher{}, nil)

	for _, body := range []string{`{"bundle": 3}`, `{"bundle": -1}`, `{}`, `not json`} {
		rec := serveJSON(router, http.MethodPost, "/api/draft/bundle", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestAPI_QuantityOverride(t *testing.T) {
	router := newTestRouter(t, &recordingDispatcher{}, nil)

	rec := serveJSON(router, http.MethodPatch, "/api/draft", `{"bundle": 0, "quantity": 3}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, decode[DraftResponse](t, rec).Quantity)

	rec = serveJSON(router, http.MethodPatch, "/api/draft", `{"quantity": 0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_GetOrder_Unknown(t *testing.T) {
	router := newTestRouter(t, &recordingDispatcher{}, nil)

	rec := serveJSON(router, http.MethodGet, "/api/orders/does-not-exist", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "order_not_found", decode[ErrorResponse](t, rec).Error)
}

func TestAPI_ListBundles(t *testing.T) {
	router := newTestRouter(t, &recordingDispatcher{}, nil)

	rec := serveJSON(router, http.MethodGet, "/api/bundles", "")

	require.Equal(t, http.StatusOK, rec.Code)
	bundles := decode[[]BundleResponse](t, rec)
	require.Len(t, bundles, 3)
	assert.True(t, bundles[1].Popular)
	assert.True(t, bundles[1].Price.Equal(decimal.NewFromInt(49998)))
	assert.True(t, bundles[1].Savings.Equal(decimal.NewFromInt(40002)))
	assert.Equal(t, "₦49,998", bundles[1].Display)
}

func TestAPI_ListStates(t *testing.T) {
	router := newTestRouter(t, &recordingDispatcher{}, nil)

	rec := serveJSON(router, http.MethodGet, "/api/states", "")

	require.Equal(t, http.StatusOK, rec.Code)
	states := decode[[]string](t, rec)
	assert.Len(t, states, 37)
	assert.Contains(t, states, "FCT Abuja")
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t, &recordingDispatcher{}, stubAudit{
		counts: map[submissionlog.Status]int{submissionlog.StatusDelivered: 3},
	})

	rec := serveJSON(router, http.MethodGet, "/health", "")

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[HealthResponse](t, rec)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 3, resp.Submissions["DELIVERED"])
}

func TestSubmissionStatus(t *testing.T) {
	recorded := time.Date(2025, 3, 1, 9, 30, 0, 123000000, time.UTC)
	router := newTestRouter(t, &recordingDispatcher{}, stubAudit{
		latest: map[string]*submissionlog.Entry{
			"order-1": {
				OrderID:    "order-1",
				Status:     submissionlog.StatusFailed,
				Bundle:     "2 Braiders",
				Error:      "status 502",
				RecordedAt: recorded,
			},
		},
	})

	rec := serveJSON(router, http.MethodGet, "/health/submissions/order-1", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, SubmissionResponse{
		OrderID:    "order-1",
		Status:     "FAILED",
		Bundle:     "2 Braiders",
		Error:      "status 502",
		RecordedAt: "2025-03-01T09:30:00.123Z",
	}, decode[SubmissionResponse](t, rec))

	rec = serveJSON(router, http.MethodGet, "/health/submissions/order-2", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "submission_not_found", decode[ErrorResponse](t, rec).Error)
}

func TestSubmissionStatus_AuditDisabled(t *testing.T) {
	router := newTestRouter(t, &recordingDispatcher{}, nil)

	rec := serveJSON(router, http.MethodGet, "/health/submissions/order-1", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "audit_disabled", decode[ErrorResponse](t, rec).Error)
}

// --- background submission ---

func TestCollectorFailureKeepsConfirmation(t *testing.T) {
	dispatcher := submission.NewDispatcher(failingCollector{}, nil)
	router := newTestRouter(t, dispatcher, nil)

	rec := serveJSON(router, http.MethodPost, "/api/orders", graceDraft)
	require.Equal(t, http.StatusCreated, rec.Code)
	conf := decode[ConfirmationResponse](t, rec)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, dispatcher.Drain(ctx))

	rec = serveJSON(router, http.MethodGet, "/api/orders/"+conf.OrderID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, conf, decode[ConfirmationResponse](t, rec))
}

func TestCollectorFailureIsAuditedNotShown(t *testing.T) {
	repo, err := sqlite.Open(filepath.Join(t.TempDir(), "submissions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	dispatcher := submission.NewDispatcher(failingCollector{}, repo)
	router := newTestRouter(t, dispatcher, repo)

	rec := serveJSON(router, http.MethodPost, "/api/orders", graceDraft)
	require.Equal(t, http.StatusCreated, rec.Code)
	conf := decode[ConfirmationResponse](t, rec)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, dispatcher.Drain(ctx))

	// DISPATCHED and FAILED land within the same second; the later row wins
	rec = serveJSON(router, http.MethodGet, "/health/submissions/"+conf.OrderID, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	status := decode[SubmissionResponse](t, rec)
	assert.Equal(t, "FAILED", status.Status)
	assert.Equal(t, "2 Braiders", status.Bundle)
	assert.Contains(t, status.Error, "formspree unreachable")

	rec = serveJSON(router, http.MethodGet, "/api/orders/"+conf.OrderID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, conf, decode[ConfirmationResponse](t, rec))
}

func TestSubmitDoesNotWaitForCollector(t *testing.T) {
	collector := blockingCollector{release: make(chan struct{})}
	dispatcher := submission.NewDispatcher(collector, nil)
	router := newTestRouter(t, dispatcher, nil)

	rec := serveJSON(router, http.MethodPost, "/api/orders", graceDraft)
	assert.Equal(t, http.StatusCreated, rec.Code)

	close(collector.release)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	assert.NoError(t, dispatcher.Drain(ctx))
}

// --- pages ---

func TestPages_IndexDisablesSubmitForNewDraft(t *testing.T) {
	router := newTestRouter(t, &recordingDispatcher{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	body := rec.Body.String()
	assert.Contains(t, body, `id="submit-order" type="submit" disabled>`)
	assert.Contains(t, body, "Buy 2 (Best Value)")
	assert.Contains(t, body, "₦49,998")
	assert.Contains(t, body, `<option value="FCT Abuja">`)

	var sessionCookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == requestmeta.SessionCookieName {
			sessionCookie = c
		}
	}
	require.NotNil(t, sessionCookie, "a session cookie is issued on first visit")
}

func TestPages_IndexEnablesSubmitForCompleteDraft(t *testing.T) {
	router := newTestRouter(t, &recordingDispatcher{}, nil)
	require.Equal(t, http.StatusOK, serveJSON(router, http.MethodPatch, "/api/draft", graceDraft).Code)

	rec := serve(router, http.MethodGet, "/", "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `id="submit-order" type="submit">`)
	assert.Contains(t, body, `value="Grace"`)
	assert.Contains(t, body, `<option value="Lagos" selected>`)
}

func TestPages_SubmitFormRedirectsToThankYou(t *testing.T) {
	dispatcher := &recordingDispatcher{}
	router := newTestRouter(t, dispatcher, nil)

	rec := serveForm(router, "/order", graceForm())

	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	location := rec.Header().Get("Location")
	assert.True(t, strings.HasPrefix(location, "/order/"))
	assert.True(t, strings.HasSuffix(location, "/thank-you"))
	assert.Equal(t, 1, dispatcher.count())

	rec = serve(router, http.MethodGet, location, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Thank You, Grace!")
	assert.Contains(t, body, "2 Braiders")
	assert.Contains(t, body, "Qty: 2")
	assert.Contains(t, body, "FREE")
	assert.Contains(t, body, "Pay on Delivery")
}

func TestPages_SubmitIncompleteFormRerendersDisabled(t *testing.T) {
	dispatcher := &recordingDispatcher{}
	router := newTestRouter(t, dispatcher, nil)

	form := graceForm()
	form.Set("deliveryAvailable1to3Days", "no")

	rec := serveForm(router, "/order", form)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `id="submit-order" type="submit" disabled>`)
	assert.Contains(t, body, `role="alert"`)
	assert.Zero(t, dispatcher.count())
}

func TestPages_SelectBundleForm(t *testing.T) {
	router := newTestRouter(t, &recordingDispatcher{}, nil)

	rec := serveForm(router, "/order/bundle", url.Values{"bundle": {"2"}})

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/#order", rec.Header().Get("Location"))

	draft := decode[DraftResponse](t, serveJSON(router, http.MethodGet, "/api/draft", ""))
	assert.Equal(t, 2, draft.Bundle)
	assert.Equal(t, 4, draft.Quantity)

	rec = serveForm(router, "/order/bundle", url.Values{"bundle": {"7"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPages_ThankYouUnknownOrder(t *testing.T) {
	router := newTestRouter(t, &recordingDispatcher{}, nil)

	rec := serve(router, http.MethodGet, "/order/nope/thank-you", "", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStaticAssets(t *testing.T) {
	router := newTestRouter(t, &recordingDispatcher{}, nil)

	rec := serve(router, http.MethodGet, "/static/site.css", "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "--brand")
}
