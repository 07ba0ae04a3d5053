package controllers

import (
	"fmt"
	"net/http"

	"github.com/dmercado-dev/shopforge-backend/api/middleware"
	"github.com/dmercado-dev/shopforge-backend/api/responses"
	"github.com/dmercado-dev/shopforge-backend/api/validators"
	"github.com/dmercado-dev/shopforge-backend/internal/checkout"
	pkgerrors "github.com/dmercado-dev/shopforge-backend/pkg/errors"
	"github.com/dmercado-dev/shopforge-backend/pkg/logger"
	"github.com/google/uuid"
)

// CheckoutController exposes order creation.
type CheckoutController struct {
	service checkout.Service
	logg    *logger.Logger
}

// NewCheckoutController wires the checkout controller.
func NewCheckoutController(service checkout.Service, logg *logger.Logger) (*CheckoutController, error) {
	if service == nil {
		return nil, fmt.Errorf("checkout service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &CheckoutController{service: service, logg: logg}, nil
}

type checkoutRequest struct {
	CustomerID        *uuid.UUID `json:"customer_id"`
	ShippingAddressID uuid.UUID  `json:"shipping_address_id" validate:"required"`
	BillingAddressID  uuid.UUID  `json:"billing_address_id" validate:"required"`
	ShippingMethodID  uuid.UUID  `json:"shipping_method_id" validate:"required"`
	DiscountCode      *string    `json:"discount_code"`
	Notes             *string    `json:"notes"`
}

// Execute converts the session's active cart into an order.
func (c *CheckoutController) Execute(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req checkoutRequest
	if err := validators.DecodeAndValidate(r, &req); err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}

	// the token's customer wins; the body field covers guest sessions that
	// resolved a customer at checkout
	customerID := middleware.CustomerID(ctx)
	if customerID == nil {
		customerID = req.CustomerID
	}
	if customerID == nil {
		responses.WriteError(ctx, c.logg, w,
			pkgerrors.New(pkgerrors.CodeValidation, "customer id is required"))
		return
	}

	order, err := c.service.Execute(ctx, checkout.Input{
		TenantID:          middleware.TenantID(ctx),
		SessionID:         middleware.SessionID(ctx),
		CustomerID:        *customerID,
		ShippingAddressID: req.ShippingAddressID,
		BillingAddressID:  req.BillingAddressID,
		ShippingMethodID:  req.ShippingMethodID,
		DiscountCode:      req.DiscountCode,
		Notes:             req.Notes,
	})
	if err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, http.StatusCreated, order)
}
