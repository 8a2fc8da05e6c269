package saga

import (
	"testing"

	"github.com/angelmondragon/fulfillz-backend/pkg/config"
)

func TestShippingQuote(t *testing.T) {
	t.Parallel()

	pricing := NewPricing(config.SagaConfig{ShippingFlatRateCents: 899, ShippingPerItemCents: 120})
	quote := pricing.Shipping([]OrderItem{
		{Qty: 2, UnitPriceCents: 1000},
		{Qty: 1, UnitPriceCents: 2500},
	})
	if quote.AmountCents != 899+3*120 {
		t.Fatalf("unexpected shipping amount %d", quote.AmountCents)
	}

	empty := pricing.Shipping(nil)
	if empty.AmountCents != 899 {
		t.Fatalf("empty order must quote the flat rate, got %d", empty.AmountCents)
	}
}

func TestTaxQuoteRoundsToWholeCents(t *testing.T) {
	t.Parallel()

	pricing := NewPricing(config.SagaConfig{TaxRateBasisPoints: 875})
	quote := pricing.Tax([]OrderItem{{Qty: 3, UnitPriceCents: 333}})
	if quote.SubtotalCents != 999 {
		t.Fatalf("unexpected subtotal %d", quote.SubtotalCents)
	}
	// 999 * 0.0875 = 87.4125, rounds to 87.
	if quote.AmountCents != 87 {
		t.Fatalf("unexpected tax %d", quote.AmountCents)
	}
}
