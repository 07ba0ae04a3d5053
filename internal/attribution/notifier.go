package attribution

import (
	"context"
	"fmt"

	"github.com/dmercado-dev/shopforge-backend/pkg/logger"
	"github.com/dmercado-dev/shopforge-backend/pkg/money"
	"github.com/google/uuid"
)

// OrderAttribution links a completed order back to the session that produced
// it, for campaign reporting.
type OrderAttribution struct {
	TenantID   uuid.UUID
	OrderID    uuid.UUID
	CustomerID uuid.UUID
	SessionID  string
	OrderTotal money.Amount
}

// Notifier delivers order attributions to the analytics collaborator. Callers
// invoke it only after the order transaction has committed; a delivery failure
// never unwinds the order.
type Notifier interface {
	AttributeOrder(ctx context.Context, attribution OrderAttribution) error
}

type logNotifier struct {
	logg *logger.Logger
}

// NewLogNotifier returns a Notifier that records attributions in the
// structured log. Stands in until the analytics pipeline consumes them
// directly.
func NewLogNotifier(logg *logger.Logger) (Notifier, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &logNotifier{logg: logg}, nil
}

func (n *logNotifier) AttributeOrder(ctx context.Context, attribution OrderAttribution) error {
	ctx = n.logg.WithFields(ctx, map[string]any{
		"tenant_id":   attribution.TenantID.String(),
		"order_id":    attribution.OrderID.String(),
		"customer_id": attribution.CustomerID.String(),
		"session_id":  attribution.SessionID,
		"order_total": attribution.OrderTotal.String(),
	})
	n.logg.Info(ctx, "order attributed to session")
	return nil
}
