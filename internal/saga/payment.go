package saga

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/fulfillz-backend/pkg/logger"
	"github.com/google/uuid"
)

// PaymentProvider is the abstract payment collaborator invoked by saga steps.
// Real gateways (Square, Stripe) plug in behind this interface.
type PaymentProvider interface {
	CreateIntent(ctx context.Context, orderID uuid.UUID, amountCents int64) (string, error)
	VoidIntent(ctx context.Context, intentID string) error
	RefundPayment(ctx context.Context, orderID uuid.UUID) error
}

// withPaymentTimeout bounds a provider call. A non-positive timeout leaves the
// caller's context untouched.
func withPaymentTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

type logProvider struct {
	logg *logger.Logger
}

// NewLogProvider returns a dev/test payment provider that records intents in
// the log without charging anything.
func NewLogProvider(logg *logger.Logger) PaymentProvider {
	return &logProvider{logg: logg}
}

func (p *logProvider) CreateIntent(ctx context.Context, orderID uuid.UUID, amountCents int64) (string, error) {
	intentID := fmt.Sprintf("pi_%s", uuid.NewString())
	if p.logg != nil {
		logCtx := p.logg.WithFields(ctx, map[string]any{
			"order_id":     orderID.String(),
			"intent_id":    intentID,
			"amount_cents": amountCents,
		})
		p.logg.Info(logCtx, "payment intent created (log provider)")
	}
	return intentID, nil
}

func (p *logProvider) VoidIntent(ctx context.Context, intentID string) error {
	if p.logg != nil {
		p.logg.Info(p.logg.WithField(ctx, "intent_id", intentID), "payment intent voided (log provider)")
	}
	return nil
}

func (p *logProvider) RefundPayment(ctx context.Context, orderID uuid.UUID) error {
	if p.logg != nil {
		p.logg.Info(p.logg.WithField(ctx, "order_id", orderID.String()), "payment refunded (log provider)")
	}
	return nil
}
