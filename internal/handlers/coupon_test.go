package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wakiullah/Torit-multivandor/internal/models"
)

func seedCoupon(t *testing.T, env *testEnv, storeID uint, code string, discount float64, expires time.Time) models.Coupon {
	t.Helper()
	coupon := models.Coupon{
		Code:        code,
		Description: "test coupon",
		Discount:    discount,
		StoreID:     storeID,
		ExpiresAt:   expires,
	}
	require.NoError(t, env.DB.Create(&coupon).Error)
	return coupon
}

func TestCreateCouponValidation(t *testing.T) {
	env := newTestEnv(t)
	h := &CouponHandler{DB: env.DB}
	vendor, _ := env.createVendor("vera")

	cases := []struct {
		name    string
		payload map[string]interface{}
	}{
		{"discount over 100", map[string]interface{}{
			"code": "BIG", "description": "x", "discount": 150,
			"expires_at": time.Now().Add(time.Hour),
		}},
		{"discount below 1", map[string]interface{}{
			"code": "TINY", "description": "x", "discount": 0.5,
			"expires_at": time.Now().Add(time.Hour),
		}},
		{"expiry in the past", map[string]interface{}{
			"code": "OLD", "description": "x", "discount": 10,
			"expires_at": time.Now().Add(-time.Hour),
		}},
		{"missing code", map[string]interface{}{
			"description": "x", "discount": 10,
			"expires_at": time.Now().Add(time.Hour),
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, c := env.doJSONRequest(http.MethodPost, "/vendor/coupons", tc.payload)
			asUser(c, vendor.ID, models.RoleVendor)
			he := httpError(t, h.CreateCoupon(c))
			require.Equal(t, http.StatusBadRequest, he.Code)
		})
	}

	rec, c := env.doJSONRequest(http.MethodPost, "/vendor/coupons", map[string]interface{}{
		"code": "TEN", "description": "ten percent", "discount": 10,
		"expires_at": time.Now().Add(24 * time.Hour),
	})
	asUser(c, vendor.ID, models.RoleVendor)
	require.NoError(t, h.CreateCoupon(c))
	require.Equal(t, http.StatusCreated, rec.Code)
}

func TestValidateCoupon(t *testing.T) {
	env := newTestEnv(t)
	h := &CouponHandler{DB: env.DB}
	_, store := env.createVendor("walt")
	seedCoupon(t, env, store.ID, "TEN", 10, time.Now().Add(time.Hour))

	cart := []map[string]interface{}{
		{"product_id": 1, "store_id": store.ID, "quantity": 2, "price": 50},
		{"product_id": 2, "store_id": store.ID + 1, "quantity": 1, "price": 100},
	}

	rec, c := env.doJSONRequest(http.MethodPost, "/coupons/validate", map[string]interface{}{
		"code": "TEN", "cartItems": cart,
	})
	require.NoError(t, h.ValidateCoupon(c))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	require.Equal(t, 10.0, body["discount"])
	require.Equal(t, 90.0, body["discountedAmount"])

	// validating twice: the coupon is never consumed
	rec2, c2 := env.doJSONRequest(http.MethodPost, "/coupons/validate", map[string]interface{}{
		"code": "TEN", "cartItems": cart,
	})
	require.NoError(t, h.ValidateCoupon(c2))
	require.Equal(t, http.StatusOK, rec2.Code)
}

func TestValidateCouponInvalidOrExpired(t *testing.T) {
	env := newTestEnv(t)
	h := &CouponHandler{DB: env.DB}
	_, store := env.createVendor("xena")
	seedCoupon(t, env, store.ID, "GONE", 10, time.Now().Add(-time.Minute))

	cart := []map[string]interface{}{
		{"product_id": 1, "store_id": store.ID, "quantity": 1, "price": 10},
	}

	for _, code := range []string{"GONE", "NEVER-EXISTED"} {
		_, c := env.doJSONRequest(http.MethodPost, "/coupons/validate", map[string]interface{}{
			"code": code, "cartItems": cart,
		})
		he := httpError(t, h.ValidateCoupon(c))
		require.Equal(t, http.StatusNotFound, he.Code)
	}
}

func TestValidateCouponNoMatchingLines(t *testing.T) {
	env := newTestEnv(t)
	h := &CouponHandler{DB: env.DB}
	_, store := env.createVendor("yuri")
	seedCoupon(t, env, store.ID, "TEN", 10, time.Now().Add(time.Hour))

	// cart holds only another store's items: zero discount, not an error
	rec, c := env.doJSONRequest(http.MethodPost, "/coupons/validate", map[string]interface{}{
		"code": "TEN",
		"cartItems": []map[string]interface{}{
			{"product_id": 1, "store_id": store.ID + 1, "quantity": 1, "price": 100},
		},
	})
	require.NoError(t, h.ValidateCoupon(c))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	require.Equal(t, 0.0, body["discount"])
}

func TestDeleteCouponScopedToOwnStore(t *testing.T) {
	env := newTestEnv(t)
	h := &CouponHandler{DB: env.DB}
	_, store := env.createVendor("zoe")
	other, _ := env.createVendor("ned")
	coupon := seedCoupon(t, env, store.ID, "MINE", 10, time.Now().Add(time.Hour))

	_, c := env.doJSONRequest(http.MethodDelete, "/vendor/coupons/1", nil)
	c.SetParamNames("id")
	c.SetParamValues("1")
	asUser(c, other.ID, models.RoleVendor)
	he := httpError(t, h.DeleteCoupon(c))
	require.Equal(t, http.StatusNotFound, he.Code)

	var still models.Coupon
	require.NoError(t, env.DB.First(&still, coupon.ID).Error)
}
