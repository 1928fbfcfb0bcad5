package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/wakiullah/Torit-multivandor/internal/models"
	"github.com/wakiullah/Torit-multivandor/internal/service/pricing"
	"github.com/wakiullah/Torit-multivandor/internal/service/token"
)

type CouponHandler struct {
	DB *gorm.DB
}

func (h *CouponHandler) vendorStoreID(c echo.Context) (uint, error) {
	id := token.IdentityFromContext(c)

	var store models.Store
	if err := h.DB.Where("owner_id = ?", id.ID).First(&store).Error; err != nil {
		return 0, echo.NewHTTPError(http.StatusForbidden, "you do not have a store")
	}
	return store.ID, nil
}

func (h *CouponHandler) CreateCoupon(c echo.Context) error {
	storeID, err := h.vendorStoreID(c)
	if err != nil {
		return err
	}

	var req struct {
		Code        string    `json:"code"`
		Description string    `json:"description"`
		Discount    float64   `json:"discount"`
		ForNewUser  bool      `json:"for_new_user"`
		ForMember   bool      `json:"for_member"`
		IsPublic    bool      `json:"is_public"`
		ExpiresAt   time.Time `json:"expires_at"`
	}
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}
	if req.Code == "" || req.Description == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "code and description are required")
	}
	if req.Discount < 1 || req.Discount > 100 {
		return echo.NewHTTPError(http.StatusBadRequest, "discount must be between 1 and 100")
	}
	if req.ExpiresAt.Before(time.Now()) {
		return echo.NewHTTPError(http.StatusBadRequest, "expiry must be in the future")
	}

	coupon := models.Coupon{
		Code:        req.Code,
		Description: req.Description,
		Discount:    req.Discount,
		StoreID:     storeID,
		ForNewUser:  req.ForNewUser,
		ForMember:   req.ForMember,
		IsPublic:    req.IsPublic,
		ExpiresAt:   req.ExpiresAt,
	}
	if err := h.DB.Create(&coupon).Error; err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, coupon)
}

func (h *CouponHandler) ListCoupons(c echo.Context) error {
	storeID, err := h.vendorStoreID(c)
	if err != nil {
		return err
	}

	var coupons []models.Coupon
	if err := h.DB.Where("store_id = ?", storeID).
		Order("created_at DESC").Find(&coupons).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "coupons": coupons})
}

func (h *CouponHandler) DeleteCoupon(c echo.Context) error {
	storeID, err := h.vendorStoreID(c)
	if err != nil {
		return err
	}

	res := h.DB.Where("id = ? AND store_id = ?", c.Param("id"), storeID).
		Delete(&models.Coupon{})
	if res.Error != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, res.Error.Error())
	}
	if res.RowsAffected == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "coupon not found")
	}
	return c.NoContent(http.StatusNoContent)
}

// ValidateCoupon evaluates a code against the submitted cart. The discount
// covers only lines from the coupon's store; a cart with no such line gets
// a zero discount, not an error. The coupon is never consumed.
func (h *CouponHandler) ValidateCoupon(c echo.Context) error {
	var req struct {
		Code      string             `json:"code"`
		CartItems []pricing.LineItem `json:"cartItems"`
	}
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}
	if req.Code == "" || req.CartItems == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "coupon code and cart items are required")
	}

	var coupon models.Coupon
	err := h.DB.Where("code = ? AND expires_at > ?", req.Code, time.Now()).
		First(&coupon).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "invalid or expired coupon")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, pricing.EvaluateCoupon(coupon, req.CartItems))
}
