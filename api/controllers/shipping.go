package controllers

import (
	"fmt"
	"net/http"

	"github.com/dmercado-dev/shopforge-backend/api/middleware"
	"github.com/dmercado-dev/shopforge-backend/api/responses"
	"github.com/dmercado-dev/shopforge-backend/internal/cart"
	"github.com/dmercado-dev/shopforge-backend/internal/shipping"
	"github.com/dmercado-dev/shopforge-backend/pkg/logger"
)

// ShippingController previews shipping options for the session's cart.
type ShippingController struct {
	calculator *shipping.Calculator
	carts      cart.Service
	logg       *logger.Logger
}

// NewShippingController wires the shipping controller.
func NewShippingController(calculator *shipping.Calculator, carts cart.Service, logg *logger.Logger) (*ShippingController, error) {
	if calculator == nil {
		return nil, fmt.Errorf("shipping calculator required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &ShippingController{calculator: calculator, carts: carts, logg: logg}, nil
}

// Options prices every active method against the current cart contents so a
// storefront can render choices before the address step.
func (c *ShippingController) Options(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := middleware.TenantID(ctx)

	result, err := c.carts.CalculateTotals(ctx, tenantID, middleware.SessionID(ctx), cart.TotalsInput{})
	if err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}

	options, err := c.calculator.Options(ctx, tenantID, result.Totals.Subtotal.Sub(result.Totals.Discount), nil)
	if err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, http.StatusOK, options)
}
