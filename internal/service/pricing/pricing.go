// Package pricing holds the checkout math: coupon evaluation, coupon
// application to cart lines, and the decomposition of a mixed-store cart
// into per-store totals.
package pricing

import (
	"errors"

	"github.com/wakiullah/Torit-multivandor/internal/models"
)

var ErrNoValidItems = errors.New("no valid items")

// LineItem is one cart line as submitted at checkout. Prices are the ones
// captured when the line was added to the cart, not re-read from the
// catalog.
type LineItem struct {
	ProductID       uint                     `json:"product_id"`
	StoreID         uint                     `json:"store_id"`
	Name            string                   `json:"name"`
	Image           string                   `json:"image"`
	Quantity        uint                     `json:"quantity"`
	Price           float64                  `json:"price"`
	MRP             float64                  `json:"mrp"`
	Variation       models.VariationSnapshot `json:"variation,omitempty"`
	DiscountedPrice *float64                 `json:"discounted_price,omitempty"`
	CouponApplied   bool                     `json:"coupon_applied"`
}

func (it LineItem) lineTotal() float64 {
	return it.Price * float64(it.Quantity)
}

// lineDiscount is what the coupon shaved off this line, zero unless the
// coupon was applied to it.
func (it LineItem) lineDiscount() float64 {
	if !it.CouponApplied || it.DiscountedPrice == nil {
		return 0
	}
	return (it.Price - *it.DiscountedPrice) * float64(it.Quantity)
}

type CouponResult struct {
	Discount         float64       `json:"discount"`
	DiscountedAmount float64       `json:"discountedAmount"`
	Coupon           models.Coupon `json:"coupon"`
}

// EvaluateCoupon computes the discount a coupon yields against the given
// cart. Only lines belonging to the coupon's store count; no matching line
// means zero discount, not an error. Pure: the coupon is never consumed and
// can be evaluated repeatedly. Expiry is the caller's to check.
func EvaluateCoupon(coupon models.Coupon, items []LineItem) CouponResult {
	var applicable float64
	for _, it := range items {
		if it.StoreID == coupon.StoreID {
			applicable += it.lineTotal()
		}
	}

	discount := applicable * coupon.Discount / 100
	return CouponResult{
		Discount:         discount,
		DiscountedAmount: applicable - discount,
		Coupon:           coupon,
	}
}

// ApplyStrategy distributes a coupon's discount over the qualifying cart
// lines, mutating DiscountedPrice/CouponApplied in the returned copy.
type ApplyStrategy func(coupon models.Coupon, items []LineItem) []LineItem

// ApplyToPriciestLine is the legacy behavior: the entire computed discount
// lands on the single most expensive qualifying line.
func ApplyToPriciestLine(coupon models.Coupon, items []LineItem) []LineItem {
	out := make([]LineItem, len(items))
	copy(out, items)

	res := EvaluateCoupon(coupon, items)
	if res.Discount == 0 {
		return out
	}

	target := -1
	for i, it := range out {
		if it.StoreID != coupon.StoreID {
			continue
		}
		if target == -1 || it.Price > out[target].Price {
			target = i
		}
	}
	if target == -1 {
		return out
	}

	dp := out[target].Price - res.Discount/float64(out[target].Quantity)
	out[target].DiscountedPrice = &dp
	out[target].CouponApplied = true
	return out
}

// ApplyProportional spreads the percentage over every qualifying line.
func ApplyProportional(coupon models.Coupon, items []LineItem) []LineItem {
	out := make([]LineItem, len(items))
	copy(out, items)

	for i, it := range out {
		if it.StoreID != coupon.StoreID {
			continue
		}
		dp := it.Price * (1 - coupon.Discount/100)
		out[i].DiscountedPrice = &dp
		out[i].CouponApplied = true
	}
	return out
}

// StoreGroup is one store's slice of the cart with its computed totals.
type StoreGroup struct {
	StoreID        uint
	Items          []LineItem
	Subtotal       float64
	Discount       float64
	DeliveryCharge float64
	FinalAmount    float64
}

// AllocationPolicy splits the single cart-level delivery charge across the
// store groups.
type AllocationPolicy func(groups []StoreGroup, charge float64) []float64

// AllocateToFirstStore assigns the full charge to the first group created
// and zero to the rest. Matches how existing orders were priced.
func AllocateToFirstStore(groups []StoreGroup, charge float64) []float64 {
	out := make([]float64, len(groups))
	if len(out) > 0 {
		out[0] = charge
	}
	return out
}

// AllocateProportional splits the charge by subtotal share. The last group
// absorbs the rounding remainder so the parts always sum to the charge.
func AllocateProportional(groups []StoreGroup, charge float64) []float64 {
	out := make([]float64, len(groups))
	if len(groups) == 0 {
		return out
	}

	var total float64
	for _, g := range groups {
		total += g.Subtotal
	}
	if total == 0 {
		out[0] = charge
		return out
	}

	var assigned float64
	for i := range groups[:len(groups)-1] {
		out[i] = charge * groups[i].Subtotal / total
		assigned += out[i]
	}
	out[len(groups)-1] = charge - assigned
	return out
}

// Breakdown is the result of decomposing a cart: per-store groups in
// first-encounter order plus the grand totals a parent order carries.
type Breakdown struct {
	Groups         []StoreGroup
	Skipped        int
	TotalPrice     float64
	TotalDiscount  float64
	DeliveryCharge float64
}

func (b Breakdown) FinalAmount() float64 {
	return b.TotalPrice - b.TotalDiscount + b.DeliveryCharge
}

// Decompose partitions the cart by store, computes each group's subtotal,
// discount and allocated delivery charge, and tallies the grand totals.
// Items without a store id are skipped and counted. An empty result is
// ErrNoValidItems: nothing should be persisted.
func Decompose(items []LineItem, deliveryCharge float64, allocate AllocationPolicy) (Breakdown, error) {
	if allocate == nil {
		allocate = AllocateToFirstStore
	}

	b := Breakdown{DeliveryCharge: deliveryCharge}
	index := map[uint]int{}
	for _, it := range items {
		if it.StoreID == 0 {
			b.Skipped++
			continue
		}
		i, ok := index[it.StoreID]
		if !ok {
			i = len(b.Groups)
			index[it.StoreID] = i
			b.Groups = append(b.Groups, StoreGroup{StoreID: it.StoreID})
		}
		g := &b.Groups[i]
		g.Items = append(g.Items, it)
		g.Subtotal += it.lineTotal()
		g.Discount += it.lineDiscount()
	}

	if len(b.Groups) == 0 {
		return Breakdown{}, ErrNoValidItems
	}

	charges := allocate(b.Groups, deliveryCharge)
	for i := range b.Groups {
		g := &b.Groups[i]
		g.DeliveryCharge = charges[i]
		g.FinalAmount = g.Subtotal - g.Discount + g.DeliveryCharge
		b.TotalPrice += g.Subtotal
		b.TotalDiscount += g.Discount
	}

	return b, nil
}
