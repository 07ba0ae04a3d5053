package orders

import "github.com/dmercado-dev/shopforge-backend/pkg/enums"

// canTransition encodes the order lifecycle: the fulfilment chain moves one
// step at a time, cancellation is open until shipment, and refunds require a
// delivered or cancelled order.
func canTransition(from, to enums.OrderStatus) bool {
	switch from {
	case enums.OrderStatusPending:
		return to == enums.OrderStatusProcessing || to == enums.OrderStatusCancelled
	case enums.OrderStatusProcessing:
		return to == enums.OrderStatusShipped || to == enums.OrderStatusCancelled
	case enums.OrderStatusShipped:
		return to == enums.OrderStatusDelivered
	case enums.OrderStatusDelivered:
		return to == enums.OrderStatusRefunded
	case enums.OrderStatusCancelled:
		return to == enums.OrderStatusRefunded
	case enums.OrderStatusRefunded:
		return false
	}
	return false
}

// restoresStock reports whether a transition puts the order's units back into
// inventory. A refund after cancellation must not restore twice.
func restoresStock(from, to enums.OrderStatus) bool {
	if to == enums.OrderStatusCancelled {
		return true
	}
	return to == enums.OrderStatusRefunded && from == enums.OrderStatusDelivered
}
