package handlers

import (
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/wakiullah/Torit-multivandor/internal/models"
	"github.com/wakiullah/Torit-multivandor/internal/mykafka"
	"github.com/wakiullah/Torit-multivandor/internal/service/token"
)

type StoreHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
}

// CreateStore is the vendor signup submission. The store starts pending;
// only an admin decision moves it to approved or rejected.
func (h *StoreHandler) CreateStore(c echo.Context) error {
	id := token.IdentityFromContext(c)

	var req struct {
		Name        string `json:"name"`
		Username    string `json:"username"`
		Description string `json:"description"`
		Email       string `json:"email"`
		Contact     string `json:"contact"`
		Address     string `json:"address"`
		Image       string `json:"image"`
		LocationID  *uint  `json:"location_id"`
	}
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}
	if req.Name == "" || req.Username == "" || req.Description == "" ||
		req.Email == "" || req.Contact == "" || req.Address == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "please fill all fields")
	}

	var user models.User
	if err := h.DB.First(&user, id.ID).Error; err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "user not found")
	}
	if user.StoreID != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "user already has a store")
	}

	store := models.Store{
		Name:        req.Name,
		Username:    req.Username,
		Description: req.Description,
		Email:       req.Email,
		Contact:     req.Contact,
		Address:     req.Address,
		Image:       req.Image,
		LocationID:  req.LocationID,
		OwnerID:     user.ID,
		Status:      models.StoreStatusPending,
	}

	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&store).Error; err != nil {
			return err
		}
		return tx.Model(&user).Updates(map[string]any{
			"store_id": store.ID,
			"role":     models.RoleVendor,
		}).Error
	})
	if txErr != nil {
		return echo.NewHTTPError(http.StatusBadRequest, txErr.Error())
	}

	publish(c, h.Producer, "store_events", store.ID, map[string]any{
		"type":    "store_submitted",
		"storeID": store.ID,
		"ownerID": user.ID,
	})

	return c.JSON(http.StatusCreated, echo.Map{"success": true, "store": store})
}

// MyStore returns the authenticated vendor's own store with its products.
func (h *StoreHandler) MyStore(c echo.Context) error {
	id := token.IdentityFromContext(c)

	var store models.Store
	if err := h.DB.Preload("Products.Variations").Preload("Products").
		Where("owner_id = ?", id.ID).First(&store).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "store not found")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "store": store})
}

// GetStoreByUsername is the public storefront: approved stores only.
func (h *StoreHandler) GetStoreByUsername(c echo.Context) error {
	username := c.Param("username")

	var store models.Store
	if err := h.DB.Preload("Products.Variations").Preload("Products").Preload("Reviews").
		Where("username = ? AND status = ?", username, models.StoreStatusApproved).
		First(&store).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "store not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "store": store})
}

// GetStore returns one store by id; checkout uses it to resolve the store's
// base location for the delivery charge lookup.
func (h *StoreHandler) GetStore(c echo.Context) error {
	var store models.Store
	if err := h.DB.First(&store, c.Param("id")).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "store not found")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "store": store})
}

// ListStores serves the admin panel: all stores, optionally filtered by
// status, newest first.
func (h *StoreHandler) ListStores(c echo.Context) error {
	q := h.DB.Model(&models.Store{}).Order("created_at DESC")
	if status := c.QueryParam("status"); status != "" {
		q = q.Where("status = ?", status)
	}

	var stores []models.Store
	if err := q.Find(&stores).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "stores": stores})
}

// SetStoreStatus is the admin approval action. Only approved and rejected
// are acceptable decisions.
func (h *StoreHandler) SetStoreStatus(c echo.Context) error {
	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}
	if req.Status != models.StoreStatusApproved && req.Status != models.StoreStatusRejected {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	var store models.Store
	if err := h.DB.First(&store, c.Param("id")).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "store not found")
	}

	store.Status = req.Status
	if err := h.DB.Save(&store).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	publish(c, h.Producer, "store_events", store.ID, map[string]any{
		"type":    "store_status_changed",
		"storeID": store.ID,
		"status":  store.Status,
	})

	return c.JSON(http.StatusOK, echo.Map{"success": true, "store": store})
}

// StoreStats aggregates the vendor dashboard numbers from delivered orders.
func (h *StoreHandler) StoreStats(c echo.Context) error {
	id := token.IdentityFromContext(c)
	if id.StoreID == 0 {
		return echo.NewHTTPError(http.StatusForbidden, "only vendors can view store stats")
	}

	var orders []models.Order
	if err := h.DB.Preload("Items").
		Where("store_id = ?", id.StoreID).Find(&orders).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	yesterday := today.AddDate(0, 0, -1)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	prevMonthStart := monthStart.AddDate(0, -1, 0)

	var (
		totalEarnings  float64
		todaysSales    float64
		yesterdaySales float64
		monthSales     float64
		prevMonthSales float64
	)
	type productAgg struct {
		Name     string  `json:"name"`
		Image    string  `json:"image"`
		Quantity uint    `json:"quantity"`
		Sales    float64 `json:"sales"`
	}
	productSales := map[uint]*productAgg{}

	for _, o := range orders {
		if o.OrderStatus != models.OrderStatusDelivered {
			continue
		}
		totalEarnings += o.FinalAmount
		switch {
		case !o.CreatedAt.Before(today):
			todaysSales += o.FinalAmount
		case !o.CreatedAt.Before(yesterday):
			yesterdaySales += o.FinalAmount
		}
		if !o.CreatedAt.Before(monthStart) {
			monthSales += o.FinalAmount
		} else if !o.CreatedAt.Before(prevMonthStart) {
			prevMonthSales += o.FinalAmount
		}
		for _, it := range o.Items {
			agg, ok := productSales[it.ProductID]
			if !ok {
				agg = &productAgg{Name: it.Name, Image: it.Image}
				productSales[it.ProductID] = agg
			}
			agg.Quantity += it.Quantity
			agg.Sales += it.Price * float64(it.Quantity)
		}
	}

	// Last 7 days of delivered sales, oldest day first.
	dailySales := make([]echo.Map, 0, 7)
	for i := 6; i >= 0; i-- {
		day := today.AddDate(0, 0, -i)
		next := day.AddDate(0, 0, 1)
		var sales float64
		for _, o := range orders {
			if o.OrderStatus == models.OrderStatusDelivered &&
				!o.CreatedAt.Before(day) && o.CreatedAt.Before(next) {
				sales += o.FinalAmount
			}
		}
		dailySales = append(dailySales, echo.Map{
			"date":  day.Format("Mon"),
			"sales": sales,
		})
	}

	top := make([]*productAgg, 0, len(productSales))
	for _, agg := range productSales {
		top = append(top, agg)
	}
	sort.Slice(top, func(i, j int) bool { return top[i].Quantity > top[j].Quantity })
	if len(top) > 5 {
		top = top[:5]
	}

	return c.JSON(http.StatusOK, echo.Map{
		"totalEarnings":   totalEarnings,
		"totalOrders":     len(orders),
		"todaysSales":     todaysSales,
		"yesterdaysSales": yesterdaySales,
		"thisMonthsSales": monthSales,
		"prevMonthsSales": prevMonthSales,
		"dailySales":      dailySales,
		"topProducts":     top,
	})
}
