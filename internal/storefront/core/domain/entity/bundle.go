package entity

import (
	"fmt"
	"slices"

	"github.com/shopspring/decimal"
)

// DefaultBundle is the tier preselected when a draft is created.
const DefaultBundle = 1

type Bundle struct {
	Index         int
	Label         string
	Name          string
	Subtitle      string
	Quantity      int
	Price         decimal.Decimal
	OriginalPrice decimal.Decimal
	Items         string
	Features      []string
	Popular       bool
}

// Savings is the discount against the original price.
func (b Bundle) Savings() decimal.Decimal {
	return b.OriginalPrice.Sub(b.Price)
}

var bundles = []Bundle{
	{
		Index:         0,
		Label:         "1 Braider",
		Name:          "Buy 1",
		Subtitle:      "Single Unit",
		Quantity:      1,
		Price:         decimal.NewFromInt(24999),
		OriginalPrice: decimal.NewFromInt(45000),
		Items:         "1x 360° Auto Braider",
		Features:      []string{"1x 360° Auto Braider", "USB-C Cable", "User Manual", "1-Year Warranty"},
	},
	{
		Index:         1,
		Label:         "2 Braiders",
		Name:          "Buy 2 (Best Value)",
		Subtitle:      "Best Value",
		Quantity:      2,
		Price:         decimal.NewFromInt(49998),
		OriginalPrice: decimal.NewFromInt(90000),
		Items:         "2x 360° Auto Braiders + Free Carrying Case",
		Features:      []string{"2x 360° Auto Braiders", "2x USB-C Cables", "User Manual", "1-Year Warranty", "Free Carrying Case"},
		Popular:       true,
	},
	{
		Index:         2,
		Label:         "3 Braiders",
		Name:          "Buy 3 Get 1 Free",
		Subtitle:      "Ultimate Bundle",
		Quantity:      4,
		Price:         decimal.NewFromInt(74997),
		OriginalPrice: decimal.NewFromInt(180000),
		Items:         "4x 360° Auto Braiders + Free Premium Carrying Case",
		Features:      []string{"4x 360° Auto Braiders", "4x USB-C Cables", "User Manual", "1-Year Warranty", "Free Premium Carrying Case"},
	},
}

// Bundles returns a copy of the fixed pricing tiers in index order. Callers
// may modify the result, Features included.
func Bundles() []Bundle {
	out := make([]Bundle, len(bundles))
	for i, b := range bundles {
		out[i] = b.clone()
	}
	return out
}

func (b Bundle) clone() Bundle {
	b.Features = slices.Clone(b.Features)
	return b
}

func ValidBundle(index int) bool {
	return index >= 0 && index < len(bundles)
}

// BundleAt looks up a tier by index.
func BundleAt(index int) (Bundle, error) {
	if !ValidBundle(index) {
		return Bundle{}, fmt.Errorf("bundle %d out of range", index)
	}
	return bundles[index].clone(), nil
}

// BundleLabel maps the numeric index to the label sent to the form collector.
// Unknown indexes map to an empty label.
func BundleLabel(index int) string {
	b, err := BundleAt(index)
	if err != nil {
		return ""
	}
	return b.Label
}

// FormatNaira renders whole-naira amounts with thousands separators, e.g. ₦24,999.
func FormatNaira(amount decimal.Decimal) string {
	digits := amount.Round(0).Abs().String()
	out := make([]byte, 0, len(digits)+len(digits)/3)
	for i := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, digits[i])
	}
	sign := ""
	if amount.IsNegative() {
		sign = "-"
	}
	return sign + "₦" + string(out)
}
