package controllers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dmercado-dev/shopforge-backend/api/middleware"
	"github.com/dmercado-dev/shopforge-backend/api/responses"
	"github.com/dmercado-dev/shopforge-backend/api/validators"
	"github.com/dmercado-dev/shopforge-backend/internal/orders"
	"github.com/dmercado-dev/shopforge-backend/pkg/db/models"
	"github.com/dmercado-dev/shopforge-backend/pkg/enums"
	pkgerrors "github.com/dmercado-dev/shopforge-backend/pkg/errors"
	"github.com/dmercado-dev/shopforge-backend/pkg/logger"
	"github.com/google/uuid"
)

// OrdersController exposes the post-creation order lifecycle.
type OrdersController struct {
	service orders.Service
	logg    *logger.Logger
}

// NewOrdersController wires the orders controller.
func NewOrdersController(service orders.Service, logg *logger.Logger) (*OrdersController, error) {
	if service == nil {
		return nil, fmt.Errorf("orders service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &OrdersController{service: service, logg: logg}, nil
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type reasonRequest struct {
	Reason *string `json:"reason"`
}

type noteRequest struct {
	Note string `json:"note" validate:"required"`
}

// Get returns one order.
func (c *OrdersController) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID, err := pathUUID(r, "orderID")
	if err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}
	order, err := c.service.Get(ctx, middleware.TenantID(ctx), orderID)
	if err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, http.StatusOK, order)
}

// List returns the authenticated customer's orders.
func (c *OrdersController) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	customerID := middleware.CustomerID(ctx)
	if customerID == nil {
		responses.WriteError(ctx, c.logg, w,
			pkgerrors.New(pkgerrors.CodeUnauthorized, "customer identity required"))
		return
	}
	rows, err := c.service.ListByCustomer(ctx, middleware.TenantID(ctx), *customerID)
	if err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, http.StatusOK, rows)
}

// UpdateStatus moves an order along its lifecycle.
func (c *OrdersController) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID, err := pathUUID(r, "orderID")
	if err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}
	var req updateStatusRequest
	if err := validators.DecodeAndValidate(r, &req); err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}
	target, err := enums.ParseOrderStatus(req.Status)
	if err != nil {
		responses.WriteError(ctx, c.logg, w,
			pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown order status %q", req.Status)))
		return
	}
	order, err := c.service.UpdateStatus(ctx, middleware.TenantID(ctx), orderID, target)
	if err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, http.StatusOK, order)
}

// Cancel cancels an unshipped order, restoring its stock.
func (c *OrdersController) Cancel(w http.ResponseWriter, r *http.Request) {
	c.terminal(w, r, c.service.Cancel)
}

// Refund refunds a delivered or cancelled order.
func (c *OrdersController) Refund(w http.ResponseWriter, r *http.Request) {
	c.terminal(w, r, c.service.Refund)
}

// AppendNote adds to the order's running notes.
func (c *OrdersController) AppendNote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID, err := pathUUID(r, "orderID")
	if err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}
	var req noteRequest
	if err := validators.DecodeAndValidate(r, &req); err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}
	order, err := c.service.AppendNote(ctx, middleware.TenantID(ctx), orderID, req.Note)
	if err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, http.StatusOK, order)
}

func (c *OrdersController) terminal(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, tenantID, orderID uuid.UUID, reason *string) (*models.Order, error)) {
	ctx := r.Context()
	orderID, err := pathUUID(r, "orderID")
	if err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}
	var req reasonRequest
	if r.ContentLength > 0 {
		if err := validators.DecodeAndValidate(r, &req); err != nil {
			responses.WriteError(ctx, c.logg, w, err)
			return
		}
	}
	order, err := op(ctx, middleware.TenantID(ctx), orderID, req.Reason)
	if err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, http.StatusOK, order)
}
