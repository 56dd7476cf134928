package entity

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DeliveryWindow is the buyer's answer to "can you receive within 1-3 working days".
type DeliveryWindow int

const (
	DeliveryUnset DeliveryWindow = iota
	DeliveryWithinWindow
	DeliveryCustomDate
)

// Available reports the acknowledgment as the tri-state the form collector expects.
func (w DeliveryWindow) Available() *bool {
	var v bool
	switch w {
	case DeliveryWithinWindow:
		v = true
	case DeliveryCustomDate:
		v = false
	default:
		return nil
	}
	return &v
}

const (
	FieldFullName       = "fullName"
	FieldPhoneNumber    = "phoneNumber"
	FieldWhatsappNumber = "whatsappNumber"
	FieldDeliveryAddr   = "deliveryAddress"
	FieldState          = "state"
	FieldQuantity       = "quantity"
	FieldBundle         = "bundle"
	FieldDeliveryWindow = "deliveryAvailable1to3Days"
	FieldCustomDate     = "customDeliveryDate"
)

// ValidationError lists the draft fields that block submission.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("order draft incomplete: %s", strings.Join(e.Fields, ", "))
}

// IsValidation helps callers distinguish incomplete drafts from infrastructure failures.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// Draft is the in-progress order a single session is filling in.
type Draft struct {
	FullName           string         `json:"fullName"`
	PhoneNumber        string         `json:"phoneNumber"`
	WhatsappNumber     string         `json:"whatsappNumber"`
	DeliveryAddress    string         `json:"deliveryAddress"`
	State              string         `json:"state"`
	Quantity           int            `json:"quantity"`
	Bundle             int            `json:"bundle"`
	DeliveryWindow     DeliveryWindow `json:"deliveryWindow"`
	CustomDeliveryDate string         `json:"customDeliveryDate"`
}

func NewDraft() Draft {
	return Draft{
		Bundle:   DefaultBundle,
		Quantity: bundles[DefaultBundle].Quantity,
	}
}

// Reset discards every field and returns the draft to its initial state.
func (d *Draft) Reset() {
	*d = NewDraft()
}

// SelectBundle sets the tier and its quantity together, overwriting any prior choice.
func (d *Draft) SelectBundle(index int) error {
	b, err := BundleAt(index)
	if err != nil {
		return err
	}
	d.Bundle = b.Index
	d.Quantity = b.Quantity
	return nil
}

// OverrideQuantity replaces the bundle-derived quantity.
func (d *Draft) OverrideQuantity(q int) error {
	if q <= 0 {
		return fmt.Errorf("quantity must be positive, got %d", q)
	}
	d.Quantity = q
	return nil
}

// AcknowledgeDelivery records the buyer's answer. Accepting the window drops any custom date.
func (d *Draft) AcknowledgeDelivery(available bool) {
	if available {
		d.DeliveryWindow = DeliveryWithinWindow
		d.CustomDeliveryDate = ""
		return
	}
	d.DeliveryWindow = DeliveryCustomDate
}

// SetCustomDeliveryDate stores the buyer's preferred date. It only sticks
// while the acknowledgment is "no".
func (d *Draft) SetCustomDeliveryDate(date string) {
	if d.DeliveryWindow != DeliveryCustomDate {
		return
	}
	d.CustomDeliveryDate = date
}

// ClearDelivery returns the acknowledgment to unset, as when the date prompt is cancelled.
func (d *Draft) ClearDelivery() {
	d.DeliveryWindow = DeliveryUnset
	d.CustomDeliveryDate = ""
}

// Missing returns the fields that currently block submission, in form order.
func (d Draft) Missing() []string {
	var missing []string
	if blank(d.FullName) {
		missing = append(missing, FieldFullName)
	}
	if blank(d.PhoneNumber) {
		missing = append(missing, FieldPhoneNumber)
	}
	if blank(d.WhatsappNumber) {
		missing = append(missing, FieldWhatsappNumber)
	}
	if !IsKnownState(d.State) {
		missing = append(missing, FieldState)
	}
	if blank(d.DeliveryAddress) {
		missing = append(missing, FieldDeliveryAddr)
	}
	if !ValidBundle(d.Bundle) {
		missing = append(missing, FieldBundle)
	}
	if d.Quantity <= 0 {
		missing = append(missing, FieldQuantity)
	}
	switch d.DeliveryWindow {
	case DeliveryWithinWindow:
	case DeliveryCustomDate:
		if blank(d.CustomDeliveryDate) {
			missing = append(missing, FieldCustomDate)
		}
	default:
		missing = append(missing, FieldDeliveryWindow)
	}
	return missing
}

// CanSubmit drives the enabled state of the submit control.
func (d Draft) CanSubmit() bool {
	return len(d.Missing()) == 0
}

func (d Draft) Validate() error {
	if missing := d.Missing(); len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// Snapshot is the immutable copy of a submitted draft. It feeds both the
// confirmation view and the background submission.
type Snapshot struct {
	OrderID   string    `json:"orderId"`
	Receipt   string    `json:"receipt"`
	Order     Draft     `json:"order"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewSnapshot freezes a valid draft. Contact fields are trimmed on the way in.
func NewSnapshot(d Draft, orderID string, now time.Time) (Snapshot, error) {
	if err := d.Validate(); err != nil {
		return Snapshot{}, err
	}
	d.FullName = strings.TrimSpace(d.FullName)
	d.PhoneNumber = strings.TrimSpace(d.PhoneNumber)
	d.WhatsappNumber = strings.TrimSpace(d.WhatsappNumber)
	d.DeliveryAddress = strings.TrimSpace(d.DeliveryAddress)
	d.CustomDeliveryDate = strings.TrimSpace(d.CustomDeliveryDate)
	return Snapshot{
		OrderID:   orderID,
		Receipt:   fmt.Sprintf("%08d", now.UnixMilli()%100000000),
		Order:     d,
		CreatedAt: now.UTC(),
	}, nil
}

func (s Snapshot) BundleLabel() string {
	return BundleLabel(s.Order.Bundle)
}

// BundleDetails returns the tier shown on the receipt.
func (s Snapshot) BundleDetails() Bundle {
	b, _ := BundleAt(s.Order.Bundle)
	return b
}
