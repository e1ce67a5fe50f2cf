package controllers

import (
	"net/http"

	"github.com/Efi-kline/my-phone-shop/api/responses"
	"github.com/Efi-kline/my-phone-shop/api/validators"
	checkoutsvc "github.com/Efi-kline/my-phone-shop/internal/checkout"
	pkgerrors "github.com/Efi-kline/my-phone-shop/pkg/errors"
	"github.com/Efi-kline/my-phone-shop/pkg/logger"
)

type checkoutRequest struct {
	CardNumber      string  `json:"card_number" validate:"required,min=16"`
	FullName        string  `json:"full_name" validate:"required,min=2,max=128"`
	DeliveryAddress *string `json:"delivery_address,omitempty" validate:"omitempty,max=512"`
}

// Checkout places an order from the caller's cart.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		profileID, err := actorIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Checkout(r.Context(), profileID, checkoutsvc.CheckoutInput{
			CardNumber:      payload.CardNumber,
			FullName:        payload.FullName,
			DeliveryAddress: payload.DeliveryAddress,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}
