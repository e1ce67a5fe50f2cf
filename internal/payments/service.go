package payments

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/Efi-kline/my-phone-shop/pkg/config"
	pkgerrors "github.com/Efi-kline/my-phone-shop/pkg/errors"
	"github.com/Efi-kline/my-phone-shop/pkg/metrics"
)

const gatewayName = "mock"

// ChargeInput carries everything the gateway needs to attempt a charge.
type ChargeInput struct {
	CardNumber  string `json:"card_number"`
	FullName    string `json:"full_name"`
	AmountCents int64  `json:"amount_cents"`
}

// ChargeResult is returned for approved charges only.
type ChargeResult struct {
	TransactionID string `json:"transaction_id"`
	AmountCents   int64  `json:"amount_cents"`
}

// Service simulates a card processor. Charges are validated locally,
// delayed to mimic network latency, then approved or declined by a
// configurable percentage roll.
type Service interface {
	Charge(ctx context.Context, input ChargeInput) (*ChargeResult, error)
}

type service struct {
	delay           time.Duration
	approvalPercent int
	roll            func(n int) int
	metrics         *metrics.PaymentMetrics
}

// NewService builds the mock gateway from config. roll may be nil, in
// which case a seeded math/rand source is used; tests inject a
// deterministic roll instead.
func NewService(cfg config.PaymentsConfig, pm *metrics.PaymentMetrics, roll func(n int) int) (Service, error) {
	if cfg.ApprovalPercent < 0 || cfg.ApprovalPercent > 100 {
		return nil, fmt.Errorf("payments: approval percent must be between 0 and 100, got %d", cfg.ApprovalPercent)
	}
	if roll == nil {
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))
		roll = rng.Intn
	}
	return &service{
		delay:           cfg.ProcessingDelay,
		approvalPercent: cfg.ApprovalPercent,
		roll:            roll,
		metrics:         pm,
	}, nil
}

func (s *service) Charge(ctx context.Context, input ChargeInput) (*ChargeResult, error) {
	if err := validateCharge(input); err != nil {
		s.metrics.IncFailed(gatewayName)
		return nil, err
	}

	start := time.Now()
	if err := s.simulateProcessing(ctx); err != nil {
		s.metrics.IncFailed(gatewayName)
		return nil, err
	}
	s.metrics.ObserveDuration(gatewayName, time.Since(start))

	if s.roll(100) >= s.approvalPercent {
		s.metrics.IncDeclined(gatewayName)
		return nil, pkgerrors.New(pkgerrors.CodePaymentDeclined, "payment was declined by the card issuer")
	}

	s.metrics.IncApproved(gatewayName)
	return &ChargeResult{
		TransactionID: fmt.Sprintf("PAY-%05d", s.roll(100000)),
		AmountCents:   input.AmountCents,
	}, nil
}

// simulateProcessing blocks for the configured delay but gives up as
// soon as the caller's context is cancelled.
func (s *service) simulateProcessing(ctx context.Context) error {
	if s.delay <= 0 {
		return nil
	}
	timer := time.NewTimer(s.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return pkgerrors.Wrap(pkgerrors.CodeDependency, ctx.Err(), "payment processing interrupted")
	case <-timer.C:
		return nil
	}
}

func validateCharge(input ChargeInput) error {
	digits := normalizeCardNumber(input.CardNumber)
	if len(digits) < 16 {
		return pkgerrors.New(pkgerrors.CodeValidation, "card number must be at least 16 digits")
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return pkgerrors.New(pkgerrors.CodeValidation, "card number must contain only digits")
		}
	}
	if strings.TrimSpace(input.FullName) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "cardholder name is required")
	}
	if input.AmountCents <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "charge amount must be positive")
	}
	return nil
}

// normalizeCardNumber strips the separators people type into card
// fields before the digit checks run.
func normalizeCardNumber(raw string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return -1
		}
		return r
	}, strings.TrimSpace(raw))
}
