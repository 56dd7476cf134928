package httpx

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/braider-storefront/internal/storefront/core/domain/entity"
	"github.com/jcmexdev/braider-storefront/internal/submission/submissionlog"
)

// NullableBool tells an absent key apart from an explicit null.
type NullableBool struct {
	Set   bool
	Value *bool
}

func (n *NullableBool) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Value = nil
		return nil
	}
	var v bool
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

// DraftRequest is a partial update; nil fields are left untouched.
type DraftRequest struct {
	FullName                  *string      `json:"fullName"`
	PhoneNumber               *string      `json:"phoneNumber"`
	WhatsappNumber            *string      `json:"whatsappNumber"`
	DeliveryAddress           *string      `json:"deliveryAddress"`
	State                     *string      `json:"state"`
	Bundle                    *int         `json:"bundle"`
	Quantity                  *int         `json:"quantity"`
	DeliveryAvailable1to3Days NullableBool `json:"deliveryAvailable1to3Days"`
	CustomDeliveryDate        *string      `json:"customDeliveryDate"`
}

// Apply writes the request onto d. Bundle goes before quantity so an explicit
// quantity overrides the bundle default, and the acknowledgment goes before the
// custom date so "yes" plus a date in one request keeps the date cleared.
func (req DraftRequest) Apply(d *entity.Draft) error {
	setString(&d.FullName, req.FullName)
	setString(&d.PhoneNumber, req.PhoneNumber)
	setString(&d.WhatsappNumber, req.WhatsappNumber)
	setString(&d.DeliveryAddress, req.DeliveryAddress)
	setString(&d.State, req.State)

	if req.Bundle != nil {
		if err := d.SelectBundle(*req.Bundle); err != nil {
			return err
		}
	}
	if req.Quantity != nil {
		if err := d.OverrideQuantity(*req.Quantity); err != nil {
			return err
		}
	}

	if req.DeliveryAvailable1to3Days.Set {
		if v := req.DeliveryAvailable1to3Days.Value; v != nil {
			d.AcknowledgeDelivery(*v)
		} else {
			d.ClearDelivery()
		}
	}
	if req.CustomDeliveryDate != nil {
		d.SetCustomDeliveryDate(*req.CustomDeliveryDate)
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// draftRequestFromForm maps the HTML order form onto a DraftRequest. Keys the
// browser did not send stay nil.
func draftRequestFromForm(form url.Values) (DraftRequest, error) {
	var req DraftRequest

	text := map[string]**string{
		entity.FieldFullName:       &req.FullName,
		entity.FieldPhoneNumber:    &req.PhoneNumber,
		entity.FieldWhatsappNumber: &req.WhatsappNumber,
		entity.FieldDeliveryAddr:   &req.DeliveryAddress,
		entity.FieldState:          &req.State,
		entity.FieldCustomDate:     &req.CustomDeliveryDate,
	}
	for key, dst := range text {
		if _, ok := form[key]; ok {
			v := form.Get(key)
			*dst = &v
		}
	}

	ints := map[string]**int{
		entity.FieldBundle:   &req.Bundle,
		entity.FieldQuantity: &req.Quantity,
	}
	for key, dst := range ints {
		if _, ok := form[key]; !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(form.Get(key)))
		if err != nil {
			return DraftRequest{}, fmt.Errorf("%s: %w", key, err)
		}
		*dst = &n
	}

	if _, ok := form[entity.FieldDeliveryWindow]; ok {
		req.DeliveryAvailable1to3Days.Set = true
		switch form.Get(entity.FieldDeliveryWindow) {
		case "yes", "true":
			v := true
			req.DeliveryAvailable1to3Days.Value = &v
		case "no", "false":
			v := false
			req.DeliveryAvailable1to3Days.Value = &v
		}
	}
	return req, nil
}

type SelectBundleRequest struct {
	Bundle *int `json:"bundle"`
}

type BundleResponse struct {
	Index         int             `json:"index"`
	Label         string          `json:"label"`
	Name          string          `json:"name"`
	Subtitle      string          `json:"subtitle"`
	Quantity      int             `json:"quantity"`
	Price         decimal.Decimal `json:"price"`
	OriginalPrice decimal.Decimal `json:"originalPrice"`
	Savings       decimal.Decimal `json:"savings"`
	Display       string          `json:"display"`
	Items         string          `json:"items"`
	Features      []string        `json:"features"`
	Popular       bool            `json:"popular"`
}

type DraftResponse struct {
	FullName                  string   `json:"fullName"`
	PhoneNumber               string   `json:"phoneNumber"`
	WhatsappNumber            string   `json:"whatsappNumber"`
	DeliveryAddress           string   `json:"deliveryAddress"`
	State                     string   `json:"state"`
	Quantity                  int      `json:"quantity"`
	Bundle                    int      `json:"bundle"`
	BundleLabel               string   `json:"bundleLabel"`
	DeliveryAvailable1to3Days *bool    `json:"deliveryAvailable1to3Days"`
	CustomDeliveryDate        string   `json:"customDeliveryDate"`
	CanSubmit                 bool     `json:"canSubmit"`
	Missing                   []string `json:"missing"`
}

type ConfirmationResponse struct {
	OrderID                   string          `json:"orderId"`
	Receipt                   string          `json:"receipt"`
	FullName                  string          `json:"fullName"`
	PhoneNumber               string          `json:"phoneNumber"`
	WhatsappNumber            string          `json:"whatsappNumber"`
	DeliveryAddress           string          `json:"deliveryAddress"`
	State                     string          `json:"state"`
	Quantity                  int             `json:"quantity"`
	Bundle                    string          `json:"bundle"`
	BundleName                string          `json:"bundleName"`
	Items                     string          `json:"items"`
	Price                     decimal.Decimal `json:"price"`
	DeliveryAvailable1to3Days *bool           `json:"deliveryAvailable1to3Days"`
	CustomDeliveryDate        string          `json:"customDeliveryDate"`
	Payment                   string          `json:"payment"`
	Shipping                  string          `json:"shipping"`
	CreatedAt                 string          `json:"createdAt"`
}

type HealthResponse struct {
	Status      string         `json:"status"`
	Submissions map[string]int `json:"submissions,omitempty"`
}

// SubmissionResponse is the last audit row for an order. It is served on the
// operator surface only; the buyer's confirmation never shows delivery state.
type SubmissionResponse struct {
	OrderID    string `json:"orderId"`
	Status     string `json:"status"`
	Bundle     string `json:"bundle"`
	Error      string `json:"error,omitempty"`
	TraceID    string `json:"traceId,omitempty"`
	RecordedAt string `json:"recordedAt"`
}

type ErrorResponse struct {
	Error   string   `json:"error"`
	Message string   `json:"message,omitempty"`
	Missing []string `json:"missing,omitempty"`
}

func mapBundleToResponse(b entity.Bundle) BundleResponse {
	return BundleResponse{
		Index:         b.Index,
		Label:         b.Label,
		Name:          b.Name,
		Subtitle:      b.Subtitle,
		Quantity:      b.Quantity,
		Price:         b.Price,
		OriginalPrice: b.OriginalPrice,
		Savings:       b.Savings(),
		Display:       entity.FormatNaira(b.Price),
		Items:         b.Items,
		Features:      b.Features,
		Popular:       b.Popular,
	}
}

func mapDraftToResponse(d entity.Draft) DraftResponse {
	missing := d.Missing()
	if missing == nil {
		missing = []string{}
	}
	return DraftResponse{
		FullName:                  d.FullName,
		PhoneNumber:               d.PhoneNumber,
		WhatsappNumber:            d.WhatsappNumber,
		DeliveryAddress:           d.DeliveryAddress,
		State:                     d.State,
		Quantity:                  d.Quantity,
		Bundle:                    d.Bundle,
		BundleLabel:               entity.BundleLabel(d.Bundle),
		DeliveryAvailable1to3Days: d.DeliveryWindow.Available(),
		CustomDeliveryDate:        d.CustomDeliveryDate,
		CanSubmit:                 len(missing) == 0,
		Missing:                   missing,
	}
}

func mapEntryToResponse(e *submissionlog.Entry) SubmissionResponse {
	return SubmissionResponse{
		OrderID:    e.OrderID,
		Status:     string(e.Status),
		Bundle:     e.Bundle,
		Error:      e.Error,
		TraceID:    e.TraceID,
		RecordedAt: e.RecordedAt.Format(time.RFC3339Nano),
	}
}

func mapSnapshotToResponse(s entity.Snapshot) ConfirmationResponse {
	b := s.BundleDetails()
	o := s.Order
	return ConfirmationResponse{
		OrderID:                   s.OrderID,
		Receipt:                   s.Receipt,
		FullName:                  o.FullName,
		PhoneNumber:               o.PhoneNumber,
		WhatsappNumber:            o.WhatsappNumber,
		DeliveryAddress:           o.DeliveryAddress,
		State:                     o.State,
		Quantity:                  o.Quantity,
		Bundle:                    b.Label,
		BundleName:                b.Name,
		Items:                     b.Items,
		Price:                     b.Price,
		DeliveryAvailable1to3Days: o.DeliveryWindow.Available(),
		CustomDeliveryDate:        o.CustomDeliveryDate,
		Payment:                   "pay_on_delivery",
		Shipping:                  "free",
		CreatedAt:                 s.CreatedAt.Format(time.RFC3339),
	}
}
