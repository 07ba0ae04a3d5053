package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmercado-dev/shopforge-backend/internal/catalog"
	"github.com/dmercado-dev/shopforge-backend/pkg/db/models"
	"github.com/dmercado-dev/shopforge-backend/pkg/enums"
	pkgerrors "github.com/dmercado-dev/shopforge-backend/pkg/errors"
	"github.com/dmercado-dev/shopforge-backend/pkg/logger"
	"github.com/dmercado-dev/shopforge-backend/pkg/metrics"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service owns the order lifecycle after creation: reads, status transitions,
// cancel/refund with stock restoration, and note appends.
type Service interface {
	Get(ctx context.Context, tenantID, orderID uuid.UUID) (*models.Order, error)
	ListByCustomer(ctx context.Context, tenantID, customerID uuid.UUID) ([]models.Order, error)
	UpdateStatus(ctx context.Context, tenantID, orderID uuid.UUID, target enums.OrderStatus) (*models.Order, error)
	Cancel(ctx context.Context, tenantID, orderID uuid.UUID, reason *string) (*models.Order, error)
	Refund(ctx context.Context, tenantID, orderID uuid.UUID, reason *string) (*models.Order, error)
	AppendNote(ctx context.Context, tenantID, orderID uuid.UUID, note string) (*models.Order, error)
}

type service struct {
	tx      txRunner
	repo    *Repository
	catalog *catalog.Repository
	metrics *metrics.CheckoutMetrics
	logg    *logger.Logger
	now     func() time.Time
}

// NewService wires the orders service.
func NewService(tx txRunner, repo *Repository, catalogRepo *catalog.Repository, checkoutMetrics *metrics.CheckoutMetrics, logg *logger.Logger) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if catalogRepo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		tx:      tx,
		repo:    repo,
		catalog: catalogRepo,
		metrics: checkoutMetrics,
		logg:    logg,
		now:     time.Now,
	}, nil
}

func (s *service) Get(ctx context.Context, tenantID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByIDAndTenant(ctx, tenantID, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) ListByCustomer(ctx context.Context, tenantID, customerID uuid.UUID) ([]models.Order, error) {
	rows, err := s.repo.ListByCustomer(ctx, tenantID, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return rows, nil
}

func (s *service) UpdateStatus(ctx context.Context, tenantID, orderID uuid.UUID, target enums.OrderStatus) (*models.Order, error) {
	return s.transition(ctx, tenantID, orderID, target, nil)
}

func (s *service) Cancel(ctx context.Context, tenantID, orderID uuid.UUID, reason *string) (*models.Order, error) {
	return s.transition(ctx, tenantID, orderID, enums.OrderStatusCancelled, reason)
}

func (s *service) Refund(ctx context.Context, tenantID, orderID uuid.UUID, reason *string) (*models.Order, error) {
	return s.transition(ctx, tenantID, orderID, enums.OrderStatusRefunded, reason)
}

func (s *service) transition(ctx context.Context, tenantID, orderID uuid.UUID, target enums.OrderStatus, reason *string) (*models.Order, error) {
	if !target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown order status %q", target))
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByIDAndTenant(ctx, tenantID, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		if !canTransition(order.Status, target) {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot transition order from %s to %s", order.Status, target))
		}

		extra := map[string]any{}
		now := s.now()
		switch target {
		case enums.OrderStatusCancelled:
			extra["cancelled_at"] = now
		case enums.OrderStatusRefunded:
			extra["refunded_at"] = now
		}
		if reason != nil && *reason != "" {
			extra["notes"] = appendNote(order.Notes, fmt.Sprintf("%s: %s", noteLabel(target), *reason))
		}

		ok, err := repo.UpdateStatusFrom(ctx, tenantID, orderID, order.Status, target, extra)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order status changed concurrently")
		}

		if restoresStock(order.Status, target) {
			catalogRepo := s.catalog.WithTx(tx)
			for _, item := range order.Items {
				if err := catalogRepo.RestoreStock(ctx, tenantID, item.VariantID, item.Quantity); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore stock")
				}
			}
		}

		updated, err = repo.FindByIDAndTenant(ctx, tenantID, orderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncTransition(string(target))
	ctx = s.logg.WithOrderID(ctx, orderID.String())
	s.logg.Info(ctx, fmt.Sprintf("order moved to %s", target))
	return updated, nil
}

func (s *service) AppendNote(ctx context.Context, tenantID, orderID uuid.UUID, note string) (*models.Order, error) {
	trimmed := strings.TrimSpace(note)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "note must not be empty")
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByIDAndTenant(ctx, tenantID, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		combined := appendNote(order.Notes, trimmed)
		if err := repo.Update(ctx, tenantID, orderID, map[string]any{"notes": combined}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append note")
		}

		updated, err = repo.FindByIDAndTenant(ctx, tenantID, orderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// appendNote joins notes with a blank line; existing content is never
// rewritten.
func appendNote(existing *string, note string) string {
	if existing == nil || strings.TrimSpace(*existing) == "" {
		return note
	}
	return *existing + "\n\n" + note
}

func noteLabel(target enums.OrderStatus) string {
	if target == enums.OrderStatusRefunded {
		return "Refund reason"
	}
	return "Cancellation reason"
}
