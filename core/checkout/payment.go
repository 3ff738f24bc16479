package checkout

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type (
	// Charge is a single payment request.
	Charge struct {
		Amount     decimal.Decimal
		Currency   string
		CardNumber string
		CardHolder string
		Expiry     string
		CVV        string
	}

	PaymentResult struct {
		Reference   string
		ProcessedAt time.Time // UTC
	}

	// PaymentProcessor is any service that can charge a card.
	PaymentProcessor interface {
		Charge(ctx context.Context, charge Charge) (PaymentResult, error)
	}
)

// SimulatedProcessor accepts every charge after Delay.
type SimulatedProcessor struct {
	Delay time.Duration
}

var _ PaymentProcessor = (*SimulatedProcessor)(nil)

func NewSimulatedProcessor(delay time.Duration) *SimulatedProcessor {
	return &SimulatedProcessor{Delay: delay}
}

func (p *SimulatedProcessor) Charge(ctx context.Context, _ Charge) (PaymentResult, error) {
	if p.Delay > 0 {
		timer := time.NewTimer(p.Delay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return PaymentResult{}, ctx.Err()
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return PaymentResult{}, err
	}
	return PaymentResult{Reference: uuid.NewString(), ProcessedAt: time.Now().UTC()}, nil
}
