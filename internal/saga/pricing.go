package saga

import (
	"github.com/angelmondragon/fulfillz-backend/pkg/config"
	"github.com/shopspring/decimal"
)

// ShippingQuote is the calculate_shipping step result.
type ShippingQuote struct {
	AmountCents int64 `json:"amountCents"`
}

// TaxQuote is the calculate_tax step result.
type TaxQuote struct {
	SubtotalCents int64 `json:"subtotalCents"`
	AmountCents   int64 `json:"amountCents"`
}

// Pricing holds the configured shipping and tax parameters and performs the
// pure money math for the order_creation saga.
type Pricing struct {
	flatRateCents decimal.Decimal
	perItemCents  decimal.Decimal
	taxRate       decimal.Decimal
}

// NewPricing derives the calculators from config.
func NewPricing(cfg config.SagaConfig) *Pricing {
	return &Pricing{
		flatRateCents: decimal.NewFromInt(int64(cfg.ShippingFlatRateCents)),
		perItemCents:  decimal.NewFromInt(int64(cfg.ShippingPerItemCents)),
		taxRate:       decimal.New(int64(cfg.TaxRateBasisPoints), -4),
	}
}

// Shipping quotes flat rate plus a per-unit charge across all line items.
func (p *Pricing) Shipping(items []OrderItem) ShippingQuote {
	units := 0
	for _, item := range items {
		units += item.Qty
	}
	amount := p.flatRateCents.Add(p.perItemCents.Mul(decimal.NewFromInt(int64(units))))
	return ShippingQuote{AmountCents: amount.Round(0).IntPart()}
}

// Tax quotes the configured rate over the goods subtotal, rounded half-up to
// whole cents.
func (p *Pricing) Tax(items []OrderItem) TaxQuote {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(
			decimal.NewFromInt(item.UnitPriceCents).Mul(decimal.NewFromInt(int64(item.Qty))))
	}
	tax := subtotal.Mul(p.taxRate).Round(0)
	return TaxQuote{
		SubtotalCents: subtotal.IntPart(),
		AmountCents:   tax.IntPart(),
	}
}
