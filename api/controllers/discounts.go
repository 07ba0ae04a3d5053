package controllers

import (
	"fmt"
	"net/http"

	"github.com/dmercado-dev/shopforge-backend/api/middleware"
	"github.com/dmercado-dev/shopforge-backend/api/responses"
	"github.com/dmercado-dev/shopforge-backend/internal/discount"
	"github.com/dmercado-dev/shopforge-backend/pkg/db/models"
	pkgerrors "github.com/dmercado-dev/shopforge-backend/pkg/errors"
	"github.com/dmercado-dev/shopforge-backend/pkg/logger"
	"github.com/dmercado-dev/shopforge-backend/pkg/money"
	"github.com/google/uuid"
)

// DiscountsController exposes the non-code discount lookup.
type DiscountsController struct {
	engine *discount.Engine
	logg   *logger.Logger
}

// NewDiscountsController wires the discounts controller.
func NewDiscountsController(engine *discount.Engine, logg *logger.Logger) (*DiscountsController, error) {
	if engine == nil {
		return nil, fmt.Errorf("discount engine required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &DiscountsController{engine: engine, logg: logg}, nil
}

type bestDiscountResponse struct {
	Discount *models.Discount `json:"discount"`
	Amount   money.Amount     `json:"amount"`
}

// Best returns the highest-amount automatic discount for a product at a
// price, null when none applies.
func (c *DiscountsController) Best(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	productID, err := uuid.Parse(query.Get("product_id"))
	if err != nil {
		responses.WriteError(ctx, c.logg, w,
			pkgerrors.New(pkgerrors.CodeValidation, "invalid product_id"))
		return
	}
	price, err := money.FromString(query.Get("price"))
	if err != nil {
		responses.WriteError(ctx, c.logg, w,
			pkgerrors.New(pkgerrors.CodeValidation, "invalid price"))
		return
	}

	ref := discount.ScopeRef{ProductID: productID}
	if raw := query.Get("collection_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			responses.WriteError(ctx, c.logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "invalid collection_id"))
			return
		}
		ref.CollectionID = &id
	}
	if raw := query.Get("variant_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			responses.WriteError(ctx, c.logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "invalid variant_id"))
			return
		}
		ref.VariantID = &id
	}

	best, amount, err := c.engine.Best(ctx, middleware.TenantID(ctx), ref, price)
	if err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, http.StatusOK, bestDiscountResponse{Discount: best, Amount: amount})
}
