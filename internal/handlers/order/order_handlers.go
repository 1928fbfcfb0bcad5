package order

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/wakiullah/Torit-multivandor/internal/models"
	"github.com/wakiullah/Torit-multivandor/internal/mykafka"
	"github.com/wakiullah/Torit-multivandor/internal/service/orderflow"
	"github.com/wakiullah/Torit-multivandor/internal/service/pricing"
	"github.com/wakiullah/Torit-multivandor/internal/service/token"
)

type OrderHandler struct {
	DB        *gorm.DB
	Producer  *mykafka.Producer
	JWTSecret []byte

	// Allocate splits the cart-level delivery charge across sub-orders;
	// nil falls back to the legacy first-store allocation. Apply is the
	// coupon distribution used when checkout carries a coupon code; nil
	// falls back to concentrating the discount on the priciest line.
	Allocate pricing.AllocationPolicy
	Apply    pricing.ApplyStrategy
}

type deliveryAddress struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Street   string `json:"street"`
	Location string `json:"location"`
}

func (h *OrderHandler) publish(c echo.Context, key any, event map[string]any) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "order_events", fmt.Sprint(key), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

// CreateOrder converts a cart, possibly spanning multiple stores, into one
// sub-order per store plus an umbrella parent when more than one store is
// involved. Everything commits in a single transaction: all orders and the
// parent linkage, or nothing.
func (h *OrderHandler) CreateOrder(c echo.Context) error {
	userID := OptionalUserID(c, h.JWTSecret)

	var req struct {
		Items           []pricing.LineItem `json:"items"`
		DeliveryAddress deliveryAddress    `json:"deliveryAddress"`
		PaymentMethod   string             `json:"paymentMethod"`
		CouponCode      string             `json:"couponCode"`
		TotalPrice      float64            `json:"totalPrice"`
		TotalDiscount   float64            `json:"totalDiscount"`
		DeliveryCharge  float64            `json:"deliveryCharge"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if len(req.Items) == 0 || req.DeliveryAddress.Name == "" || req.DeliveryAddress.Street == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing required fields: items and delivery address")
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = models.PaymentMethodCOD
	}
	if req.DeliveryAddress.Location == "" {
		req.DeliveryAddress.Location = req.DeliveryAddress.Street
	}

	items := req.Items
	if req.CouponCode != "" {
		var coupon models.Coupon
		err := h.DB.Where("code = ? AND expires_at > ?", req.CouponCode, time.Now()).
			First(&coupon).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "invalid or expired coupon")
		}
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		apply := h.Apply
		if apply == nil {
			apply = pricing.ApplyToPriciestLine
		}
		items = apply(coupon, items)
	}

	breakdown, err := pricing.Decompose(items, req.DeliveryCharge, h.Allocate)
	if errors.Is(err, pricing.ErrNoValidItems) {
		return echo.NewHTTPError(http.StatusBadRequest, "could not create any orders, check item store information")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var (
		parent  *models.Order
		created []models.Order
	)
	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		if len(breakdown.Groups) > 1 {
			parent = &models.Order{
				Number:          uuid.NewString(),
				UserID:          userID,
				IsParent:        true,
				AddressName:     req.DeliveryAddress.Name,
				AddressPhone:    req.DeliveryAddress.Phone,
				AddressStreet:   req.DeliveryAddress.Street,
				AddressLocation: req.DeliveryAddress.Location,
				TotalPrice:      breakdown.TotalPrice,
				TotalDiscount:   breakdown.TotalDiscount,
				DeliveryCharge:  breakdown.DeliveryCharge,
				FinalAmount:     breakdown.FinalAmount(),
				PaymentMethod:   req.PaymentMethod,
				PaymentStatus:   models.PaymentStatusPending,
				OrderStatus:     models.OrderStatusPending,
			}
			if err := tx.Create(parent).Error; err != nil {
				return err
			}
		}

		for _, g := range breakdown.Groups {
			storeID := g.StoreID
			sub := models.Order{
				Number:          uuid.NewString(),
				UserID:          userID,
				StoreID:         &storeID,
				AddressName:     req.DeliveryAddress.Name,
				AddressPhone:    req.DeliveryAddress.Phone,
				AddressStreet:   req.DeliveryAddress.Street,
				AddressLocation: req.DeliveryAddress.Location,
				TotalPrice:      g.Subtotal,
				TotalDiscount:   g.Discount,
				DeliveryCharge:  g.DeliveryCharge,
				FinalAmount:     g.FinalAmount,
				PaymentMethod:   req.PaymentMethod,
				PaymentStatus:   models.PaymentStatusPending,
				OrderStatus:     models.OrderStatusPending,
			}
			if parent != nil {
				sub.ParentOrderID = &parent.ID
			}
			for _, it := range g.Items {
				sub.Items = append(sub.Items, models.OrderItem{
					ProductID:       it.ProductID,
					Name:            it.Name,
					Image:           it.Image,
					Quantity:        it.Quantity,
					Price:           it.Price,
					Variation:       it.Variation,
					DiscountedPrice: it.DiscountedPrice,
					CouponApplied:   it.CouponApplied,
				})
			}
			if err := tx.Create(&sub).Error; err != nil {
				return err
			}
			created = append(created, sub)
		}
		return nil
	})
	if txErr != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, txErr.Error())
	}

	var key any = "guest"
	if userID != nil {
		key = *userID
	}
	h.publish(c, key, map[string]any{
		"type":    "order_created",
		"orders":  len(created),
		"skipped": breakdown.Skipped,
		"parent":  parent != nil,
	})

	msg := fmt.Sprintf("%d order(s) created successfully.", len(created))
	if breakdown.Skipped > 0 {
		msg = fmt.Sprintf("%s %d item(s) skipped: missing store information.", msg, breakdown.Skipped)
	}
	resp := echo.Map{
		"success": true,
		"message": msg,
		"orders":  created,
	}
	if parent != nil {
		resp["parentOrder"] = parent
	}
	return c.JSON(http.StatusCreated, resp)
}

// ListOrders returns the caller's own sub-orders, newest first. Parent
// umbrella orders are folded out of the listing.
func (h *OrderHandler) ListOrders(c echo.Context) error {
	id := token.IdentityFromContext(c)

	var orders []models.Order
	if err := h.DB.Preload("Items").Preload("Store").
		Where("user_id = ? AND is_parent = ?", id.ID, false).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"orders": orders})
}

// GetOrder loads one order with its items and, for parents, nested
// sub-orders.
func (h *OrderHandler) GetOrder(c echo.Context) error {
	var order models.Order
	err := h.DB.Preload("Items").Preload("Store").
		Preload("SubOrders.Items").Preload("SubOrders.Store").
		First(&order, c.Param("id")).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "order": order})
}

// StoreOrders lists the authenticated vendor's store orders, newest first.
func (h *OrderHandler) StoreOrders(c echo.Context) error {
	storeID, err := h.vendorStoreID(c)
	if err != nil {
		return err
	}

	var orders []models.Order
	if err := h.DB.Preload("Items").
		Where("store_id = ?", storeID).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"orders": orders})
}

// UpdateStatus is the vendor panel's status write. Ownership is checked
// against the vendor's store; the value itself is free-form within the
// known statuses.
func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	storeID, err := h.vendorStoreID(c)
	if err != nil {
		return err
	}

	var req struct {
		OrderStatus string `json:"orderStatus"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var order models.Order
	if err := h.DB.First(&order, c.Param("id")).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	}
	if order.StoreID == nil || *order.StoreID != storeID {
		return echo.NewHTTPError(http.StatusForbidden, "order belongs to another store")
	}
	if err := orderflow.VendorCanSet(order.OrderStatus, req.OrderStatus); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	order.OrderStatus = req.OrderStatus
	if req.OrderStatus == models.OrderStatusDelivered && order.DeliveredAt == nil {
		now := time.Now()
		order.DeliveredAt = &now
	}
	if err := h.DB.Save(&order).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.publish(c, order.ID, map[string]any{
		"type":    "order_status_changed",
		"orderID": order.ID,
		"status":  order.OrderStatus,
		"by":      "vendor",
	})

	return c.JSON(http.StatusOK, echo.Map{"success": true, "order": order})
}

func (h *OrderHandler) vendorStoreID(c echo.Context) (uint, error) {
	id := token.IdentityFromContext(c)

	var store models.Store
	if err := h.DB.Where("owner_id = ?", id.ID).First(&store).Error; err != nil {
		return 0, echo.NewHTTPError(http.StatusForbidden, "only vendors can perform this action")
	}
	return store.ID, nil
}
