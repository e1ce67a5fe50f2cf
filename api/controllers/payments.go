package controllers

import (
	"net/http"

	"github.com/Efi-kline/my-phone-shop/api/responses"
	"github.com/Efi-kline/my-phone-shop/api/validators"
	paymentsvc "github.com/Efi-kline/my-phone-shop/internal/payments"
	pkgerrors "github.com/Efi-kline/my-phone-shop/pkg/errors"
	"github.com/Efi-kline/my-phone-shop/pkg/logger"
)

type mockChargeRequest struct {
	CardNumber  string `json:"card_number" validate:"required"`
	FullName    string `json:"full_name" validate:"required,min=2,max=128"`
	AmountCents int64  `json:"amount_cents" validate:"required,min=1"`
}

// MockCharge exposes the simulated card processor directly so the
// storefront can exercise the payment flow without going through
// checkout.
func MockCharge(svc paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment gateway unavailable"))
			return
		}

		var payload mockChargeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Charge(r.Context(), paymentsvc.ChargeInput{
			CardNumber:  payload.CardNumber,
			FullName:    payload.FullName,
			AmountCents: payload.AmountCents,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
