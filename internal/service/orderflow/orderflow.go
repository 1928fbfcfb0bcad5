// Package orderflow validates order status transitions. Vendors write
// statuses freely; courier moves are checked against the delivery state
// machine.
package orderflow

import (
	"fmt"

	"github.com/wakiullah/Torit-multivandor/internal/models"
)

var statuses = map[string]bool{
	models.OrderStatusPending:        true,
	models.OrderStatusProcessing:     true,
	models.OrderStatusShipped:        true,
	models.OrderStatusConfirmed:      true,
	models.OrderStatusOutForDelivery: true,
	models.OrderStatusDelivered:      true,
	models.OrderStatusCancelled:      true,
}

func Valid(status string) bool {
	return statuses[status]
}

func IsTerminal(status string) bool {
	return status == models.OrderStatusDelivered
}

// VendorCanSet mirrors the vendor panel: any known status may be written
// directly, except off a delivered order.
func VendorCanSet(current, target string) error {
	if !Valid(target) {
		return fmt.Errorf("unknown order status %q", target)
	}
	if IsTerminal(current) {
		return fmt.Errorf("order already %s", current)
	}
	return nil
}

// Pickable reports whether a courier may claim the order: a pending,
// unassigned sub-order. Parent umbrella orders are never assignable.
func Pickable(o *models.Order) bool {
	return o.OrderStatus == models.OrderStatusPending &&
		o.DeliveryManID == nil &&
		!o.IsParent
}

// courierMoves lists the transitions a courier may perform on an order
// already assigned to them.
var courierMoves = map[string][]string{
	models.OrderStatusConfirmed: {
		models.OrderStatusOutForDelivery,
		models.OrderStatusDelivered,
		models.OrderStatusCancelled,
		models.OrderStatusPending,
	},
	models.OrderStatusOutForDelivery: {
		models.OrderStatusDelivered,
		models.OrderStatusCancelled,
		models.OrderStatusPending,
	},
}

// CourierCanSet checks a courier-driven transition. Moving to cancelled or
// back to pending hands the order back: the caller must clear the
// assignment and pickup stamp.
func CourierCanSet(current, target string) error {
	if !Valid(target) {
		return fmt.Errorf("unknown order status %q", target)
	}
	for _, allowed := range courierMoves[current] {
		if allowed == target {
			return nil
		}
	}
	return fmt.Errorf("cannot move order from %s to %s", current, target)
}

// HandsBack reports whether the transition releases the order for another
// courier to pick.
func HandsBack(target string) bool {
	return target == models.OrderStatusCancelled || target == models.OrderStatusPending
}
