package coupons

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Efi-kline/my-phone-shop/pkg/enums"
	pkgerrors "github.com/Efi-kline/my-phone-shop/pkg/errors"
)

// Service resolves coupon codes and computes discounts against a subtotal.
type Service interface {
	Evaluate(ctx context.Context, code string, subtotalCents int64) (*Evaluation, error)
}

// Evaluation is the outcome of applying a coupon to a subtotal.
type Evaluation struct {
	Code          string           `json:"code"`
	Kind          enums.CouponKind `json:"kind"`
	DiscountCents int64            `json:"discount_cents"`
	TotalCents    int64            `json:"total_cents"`
}

type service struct {
	repo CouponRepository
}

// NewService constructs a coupon service instance.
func NewService(repo CouponRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("coupon repository required")
	}
	return &service{repo: repo}, nil
}

// NormalizeCode trims surrounding whitespace and uppercases the code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Evaluate resolves the code and returns the discount and floored total.
// Percent discounts round half-up at the cent. The total never drops
// below zero, so a fixed coupon larger than the subtotal zeroes it out.
func (s *service) Evaluate(ctx context.Context, code string, subtotalCents int64) (*Evaluation, error) {
	normalized := NormalizeCode(code)
	if normalized == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon code is required")
	}
	if subtotalCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subtotal cannot be negative")
	}

	coupon, err := s.repo.FindByCode(ctx, normalized)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid coupon code")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
	}
	if !coupon.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid coupon code")
	}

	var discount int64
	switch coupon.Kind {
	case enums.CouponKindPercent:
		discount = percentOf(subtotalCents, coupon.Percent)
	case enums.CouponKindFixed:
		discount = coupon.AmountCents
	default:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("unsupported coupon kind %q", coupon.Kind))
	}

	if discount > subtotalCents {
		discount = subtotalCents
	}

	return &Evaluation{
		Code:          coupon.Code,
		Kind:          coupon.Kind,
		DiscountCents: discount,
		TotalCents:    subtotalCents - discount,
	}, nil
}

func percentOf(subtotalCents int64, percent int) int64 {
	amount := decimal.NewFromInt(subtotalCents).
		Mul(decimal.NewFromInt(int64(percent))).
		Div(decimal.NewFromInt(100))
	return amount.Round(0).IntPart()
}
