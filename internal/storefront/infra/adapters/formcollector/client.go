package formcollector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/jcmexdev/braider-storefront/internal/storefront/core/domain/entity"
	"github.com/jcmexdev/braider-storefront/internal/storefront/core/ports"
)

// DefaultEndpoint is the hosted form that receives braider orders.
const DefaultEndpoint = "https://formspree.io/f/mgolvkoa"

var _ ports.FormCollector = (*Client)(nil)

// Payload is the JSON object the form collector receives.
type Payload struct {
	FullName                  string `json:"fullName"`
	PhoneNumber               string `json:"phoneNumber"`
	WhatsappNumber            string `json:"whatsappNumber"`
	DeliveryAddress           string `json:"deliveryAddress"`
	State                     string `json:"state"`
	Quantity                  int    `json:"quantity"`
	Bundle                    string `json:"bundle"`
	DeliveryAvailable1to3Days *bool  `json:"deliveryAvailable1to3Days"`
	CustomDeliveryDate        string `json:"customDeliveryDate"`
}

func NewPayload(snap entity.Snapshot) Payload {
	o := snap.Order
	return Payload{
		FullName:                  o.FullName,
		PhoneNumber:               o.PhoneNumber,
		WhatsappNumber:            o.WhatsappNumber,
		DeliveryAddress:           o.DeliveryAddress,
		State:                     o.State,
		Quantity:                  o.Quantity,
		Bundle:                    snap.BundleLabel(),
		DeliveryAvailable1to3Days: o.DeliveryWindow.Available(),
		CustomDeliveryDate:        o.CustomDeliveryDate,
	}
}

// StatusError reports a non-2xx answer from the collector.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("form collector returned %d", e.Code)
}

type Client struct {
	endpoint string
	http     *http.Client
}

// NewClient builds a client for endpoint. A zero timeout means the request is
// bounded only by its context.
func NewClient(endpoint string, timeout time.Duration) *Client {
	return &Client{
		endpoint: endpoint,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// Submit POSTs the snapshot. Only the status code is inspected.
func (c *Client) Submit(ctx context.Context, snap entity.Snapshot) error {
	body, err := json.Marshal(NewPayload(snap))
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("post to form collector: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Code: resp.StatusCode}
	}
	return nil
}
