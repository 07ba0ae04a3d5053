package controllers

import (
	"fmt"
	"net/http"

	"github.com/dmercado-dev/shopforge-backend/api/middleware"
	"github.com/dmercado-dev/shopforge-backend/api/responses"
	"github.com/dmercado-dev/shopforge-backend/api/validators"
	"github.com/dmercado-dev/shopforge-backend/internal/cart"
	pkgerrors "github.com/dmercado-dev/shopforge-backend/pkg/errors"
	"github.com/dmercado-dev/shopforge-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// CartController exposes the session cart surface.
type CartController struct {
	service cart.Service
	logg    *logger.Logger
}

// NewCartController wires the cart controller.
func NewCartController(service cart.Service, logg *logger.Logger) (*CartController, error) {
	if service == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &CartController{service: service, logg: logg}, nil
}

type addItemRequest struct {
	VariantID uuid.UUID `json:"variant_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
}

type updateItemRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

type applyDiscountRequest struct {
	Code string `json:"code" validate:"required"`
}

type totalsRequest struct {
	ShippingAddressID *uuid.UUID `json:"shipping_address_id"`
	ShippingMethodID  *uuid.UUID `json:"shipping_method_id"`
}

// Get returns the session's active cart, creating one on first touch.
func (c *CartController) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	result, err := c.service.GetOrCreate(ctx, middleware.TenantID(ctx), middleware.SessionID(ctx), middleware.CustomerID(ctx))
	if err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, http.StatusOK, result)
}

// AddItem stages a variant in the cart.
func (c *CartController) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req addItemRequest
	if err := validators.DecodeAndValidate(r, &req); err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}
	result, err := c.service.AddItem(ctx, middleware.TenantID(ctx), middleware.SessionID(ctx), req.VariantID, req.Quantity)
	if err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, http.StatusOK, result)
}

// UpdateItem changes a line's quantity.
func (c *CartController) UpdateItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	itemID, err := pathUUID(r, "itemID")
	if err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}
	var req updateItemRequest
	if err := validators.DecodeAndValidate(r, &req); err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}
	result, err := c.service.UpdateItemQuantity(ctx, middleware.TenantID(ctx), middleware.SessionID(ctx), itemID, req.Quantity)
	if err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, http.StatusOK, result)
}

// RemoveItem deletes one line.
func (c *CartController) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	itemID, err := pathUUID(r, "itemID")
	if err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}
	result, err := c.service.RemoveItem(ctx, middleware.TenantID(ctx), middleware.SessionID(ctx), itemID)
	if err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, http.StatusOK, result)
}

// Clear empties the cart.
func (c *CartController) Clear(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	result, err := c.service.Clear(ctx, middleware.TenantID(ctx), middleware.SessionID(ctx))
	if err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, http.StatusOK, result)
}

// ApplyDiscount validates and attaches a code.
func (c *CartController) ApplyDiscount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req applyDiscountRequest
	if err := validators.DecodeAndValidate(r, &req); err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}
	result, err := c.service.ApplyDiscountCode(ctx, middleware.TenantID(ctx), middleware.SessionID(ctx), req.Code)
	if err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, http.StatusOK, result)
}

// RemoveDiscount detaches the attached code.
func (c *CartController) RemoveDiscount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	result, err := c.service.RemoveDiscountCode(ctx, middleware.TenantID(ctx), middleware.SessionID(ctx))
	if err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, http.StatusOK, result)
}

// Totals prices the cart; supplying an address or method switches to the
// breakdown response shape.
func (c *CartController) Totals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req totalsRequest
	if err := validators.DecodeAndValidate(r, &req); err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}
	result, err := c.service.CalculateTotals(ctx, middleware.TenantID(ctx), middleware.SessionID(ctx), cart.TotalsInput{
		ShippingAddressID: req.ShippingAddressID,
		ShippingMethodID:  req.ShippingMethodID,
	})
	if err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, http.StatusOK, result)
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid %s", name))
	}
	return id, nil
}
