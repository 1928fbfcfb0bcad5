// Package delivery is the courier side of the order lifecycle: login,
// claiming pending orders, driving them through the delivery state machine
// and the admin's delivery man management.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/wakiullah/Torit-multivandor/internal/hash"
	"github.com/wakiullah/Torit-multivandor/internal/models"
	"github.com/wakiullah/Torit-multivandor/internal/mykafka"
	"github.com/wakiullah/Torit-multivandor/internal/service/orderflow"
	"github.com/wakiullah/Torit-multivandor/internal/service/token"
)

type DeliveryHandler struct {
	DB       *gorm.DB
	Tokens   *token.TokenService
	Producer *mykafka.Producer
}

func (h *DeliveryHandler) publish(c echo.Context, key uint, event map[string]any) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "delivery_events", fmt.Sprint(key), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

// Login authenticates against the delivery_men table and issues the usual
// cookie pair with the delivery role.
func (h *DeliveryHandler) Login(c echo.Context) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var dm models.DeliveryMan
	if err := h.DB.Where("email = ?", req.Email).First(&dm).Error; err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid email or password")
	}
	if !hash.CheckPassword(dm.PasswordHash, req.Password) {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid email or password")
	}
	if !dm.IsActive {
		return echo.NewHTTPError(http.StatusForbidden, "account deactivated")
	}

	access, refresh, err := h.Tokens.Issue(c, token.Identity{ID: dm.ID, Role: models.RoleDelivery})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{
		"accessToken":  access,
		"refreshToken": refresh,
		"deliveryMan":  dm,
	})
}

// AvailableOrders lists unassigned pending sub-orders, oldest first, so the
// longest-waiting order is offered first.
func (h *DeliveryHandler) AvailableOrders(c echo.Context) error {
	var orders []models.Order
	if err := h.DB.Preload("Items").Preload("Store").
		Where("order_status = ? AND delivery_man_id IS NULL AND is_parent = ?",
			models.OrderStatusPending, false).
		Order("created_at ASC").
		Find(&orders).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"orders": orders})
}

// MyOrders lists the courier's assigned, not yet delivered orders.
func (h *DeliveryHandler) MyOrders(c echo.Context) error {
	id := token.IdentityFromContext(c)

	var orders []models.Order
	if err := h.DB.Preload("Items").Preload("Store").
		Where("delivery_man_id = ? AND order_status <> ?", id.ID, models.OrderStatusDelivered).
		Order("delivery_picked ASC").
		Find(&orders).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"orders": orders})
}

// PickOrder claims an order for the courier. The guarded UPDATE makes the
// claim atomic: two couriers racing on the same order leaves exactly one
// winner, the other sees zero rows touched.
func (h *DeliveryHandler) PickOrder(c echo.Context) error {
	id := token.IdentityFromContext(c)

	var req struct {
		OrderID uint `json:"orderId"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.OrderID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "orderId is required")
	}

	now := time.Now()
	res := h.DB.Model(&models.Order{}).
		Where("id = ? AND order_status = ? AND delivery_man_id IS NULL AND is_parent = ?",
			req.OrderID, models.OrderStatusPending, false).
		Updates(map[string]any{
			"delivery_man_id": id.ID,
			"delivery_picked": now,
			"order_status":    models.OrderStatusConfirmed,
		})
	if res.Error != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, res.Error.Error())
	}
	if res.RowsAffected == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "order not available")
	}

	var order models.Order
	if err := h.DB.Preload("Items").Preload("Store").First(&order, req.OrderID).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.publish(c, order.ID, map[string]any{
		"type":          "order_picked",
		"orderID":       order.ID,
		"deliveryManID": id.ID,
	})
	return c.JSON(http.StatusOK, echo.Map{"success": true, "order": order})
}

// UpdateStatus drives an assigned order through the courier state machine.
// Delivered stamps the timestamp and bumps the courier's completed counter;
// cancelled or pending hands the order back to the pool.
func (h *DeliveryHandler) UpdateStatus(c echo.Context) error {
	var req struct {
		OrderID uint   `json:"orderId"`
		Status  string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.OrderID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "orderId is required")
	}
	return h.transition(c, req.OrderID, req.Status)
}

// Complete is the one-tap "handed over" shortcut: it marks the order
// delivered without the caller having to spell the status out.
func (h *DeliveryHandler) Complete(c echo.Context) error {
	var req struct {
		OrderID uint `json:"orderId"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.OrderID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "orderId is required")
	}
	return h.transition(c, req.OrderID, models.OrderStatusDelivered)
}

func (h *DeliveryHandler) transition(c echo.Context, orderID uint, status string) error {
	id := token.IdentityFromContext(c)

	var order models.Order
	if err := h.DB.First(&order, orderID).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	}
	if order.DeliveryManID == nil || *order.DeliveryManID != id.ID {
		return echo.NewHTTPError(http.StatusForbidden, "order is not assigned to you")
	}
	if err := orderflow.CourierCanSet(order.OrderStatus, status); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		order.OrderStatus = status
		switch {
		case status == models.OrderStatusDelivered:
			now := time.Now()
			order.DeliveredAt = &now
			if err := tx.Model(&models.DeliveryMan{}).
				Where("id = ?", id.ID).
				Update("completed_orders", gorm.Expr("completed_orders + 1")).Error; err != nil {
				return err
			}
		case orderflow.HandsBack(status):
			order.DeliveryManID = nil
			order.DeliveryPicked = nil
		}
		return tx.Save(&order).Error
	})
	if txErr != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, txErr.Error())
	}

	h.publish(c, order.ID, map[string]any{
		"type":    "order_status_changed",
		"orderID": order.ID,
		"status":  order.OrderStatus,
		"by":      "delivery",
	})
	return c.JSON(http.StatusOK, echo.Map{"success": true, "order": order})
}

// Stats is the courier dashboard: lifetime and per-day delivery counts,
// earnings from delivery charges, and what is waiting to be picked.
func (h *DeliveryHandler) Stats(c echo.Context) error {
	id := token.IdentityFromContext(c)

	var dm models.DeliveryMan
	if err := h.DB.First(&dm, id.ID).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "delivery man not found")
	}

	dayStart := time.Now().Truncate(24 * time.Hour)
	yesterdayStart := dayStart.Add(-24 * time.Hour)

	delivered := h.DB.Model(&models.Order{}).
		Where("delivery_man_id = ? AND order_status = ?", id.ID, models.OrderStatusDelivered)

	var today, yesterday, inFlight, available int64
	delivered.Session(&gorm.Session{}).
		Where("delivered_at >= ?", dayStart).Count(&today)
	delivered.Session(&gorm.Session{}).
		Where("delivered_at >= ? AND delivered_at < ?", yesterdayStart, dayStart).Count(&yesterday)
	h.DB.Model(&models.Order{}).
		Where("delivery_man_id = ? AND order_status <> ?", id.ID, models.OrderStatusDelivered).
		Count(&inFlight)
	h.DB.Model(&models.Order{}).
		Where("order_status = ? AND delivery_man_id IS NULL AND is_parent = ?",
			models.OrderStatusPending, false).
		Count(&available)

	type earning struct{ Total, Today, Yesterday float64 }
	var e earning
	h.DB.Model(&models.Order{}).
		Select(
			"COALESCE(SUM(delivery_charge), 0) AS total, "+
				"COALESCE(SUM(CASE WHEN delivered_at >= ? THEN delivery_charge ELSE 0 END), 0) AS today, "+
				"COALESCE(SUM(CASE WHEN delivered_at >= ? AND delivered_at < ? THEN delivery_charge ELSE 0 END), 0) AS yesterday",
			dayStart, yesterdayStart, dayStart).
		Where("delivery_man_id = ? AND order_status = ?", id.ID, models.OrderStatusDelivered).
		Scan(&e)

	return c.JSON(http.StatusOK, echo.Map{
		"completedOrders":    dm.CompletedOrders,
		"deliveredToday":     today,
		"deliveredYesterday": yesterday,
		"inFlight":           inFlight,
		"availableOrders":    available,
		"earnings": echo.Map{
			"total":     e.Total,
			"today":     e.Today,
			"yesterday": e.Yesterday,
		},
		"rating":      dm.Rating,
		"deliveryMan": dm,
	})
}

// --- admin management of delivery men ---

type AdminHandler struct {
	DB *gorm.DB
}

func (h *AdminHandler) CreateDeliveryMan(c echo.Context) error {
	var req struct {
		Name          string `json:"name"`
		Email         string `json:"email"`
		Phone         string `json:"phone"`
		Password      string `json:"password"`
		VehicleType   string `json:"vehicleType"`
		LicenseNumber string `json:"licenseNumber"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name, email and password are required")
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	dm := models.DeliveryMan{
		Name:          req.Name,
		Email:         req.Email,
		Phone:         req.Phone,
		PasswordHash:  pwHash,
		VehicleType:   req.VehicleType,
		LicenseNumber: req.LicenseNumber,
		IsActive:      true,
		Rating:        5,
	}
	if err := h.DB.Create(&dm).Error; err != nil {
		return echo.NewHTTPError(http.StatusConflict, "delivery man already exists")
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "deliveryMan": dm})
}

func (h *AdminHandler) ListDeliveryMen(c echo.Context) error {
	var dms []models.DeliveryMan
	if err := h.DB.Order("created_at DESC").Find(&dms).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"deliveryMen": dms})
}

// SetActive toggles a courier's account. Deactivated couriers can no
// longer log in; their already-assigned orders are untouched.
func (h *AdminHandler) SetActive(c echo.Context) error {
	var req struct {
		IsActive bool `json:"isActive"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	res := h.DB.Model(&models.DeliveryMan{}).
		Where("id = ?", c.Param("id")).
		Update("is_active", req.IsActive)
	if res.Error != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, res.Error.Error())
	}
	if res.RowsAffected == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "delivery man not found")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

func (h *AdminHandler) DeleteDeliveryMan(c echo.Context) error {
	var dm models.DeliveryMan
	err := h.DB.First(&dm, c.Param("id")).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "delivery man not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var assigned int64
	h.DB.Model(&models.Order{}).
		Where("delivery_man_id = ? AND order_status <> ?", dm.ID, models.OrderStatusDelivered).
		Count(&assigned)
	if assigned > 0 {
		return echo.NewHTTPError(http.StatusConflict, "delivery man has orders in flight")
	}

	if err := h.DB.Delete(&dm).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
