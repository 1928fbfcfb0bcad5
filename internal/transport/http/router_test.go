package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	nethttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/wakiullah/Torit-multivandor/internal/config"
	"github.com/wakiullah/Torit-multivandor/internal/models"
	"github.com/wakiullah/Torit-multivandor/internal/service/token"
)

// The full stack: Register onto a real echo instance and drive requests
// through ServeHTTP, so routes, path params and middleware are the ones
// production uses.
func newRouter(t *testing.T) (*echo.Echo, *gorm.DB, *token.TokenService) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))

	tokens := &token.TokenService{
		DB:            db,
		JWTSecret:     []byte("test-jwt-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
	}
	e := echo.New()
	Register(e, &Deps{DB: db, Tokens: tokens})
	return e, db, tokens
}

func accessCookie(t *testing.T, tokens *token.TokenService, id token.Identity) *nethttp.Cookie {
	t.Helper()
	access, err := token.SignAccessToken(id, tokens.JWTSecret)
	require.NoError(t, err)
	return token.CreateCookie("accessToken", access, "/", time.Now().Add(token.AccessTTL))
}

func serveJSON(e *echo.Echo, method, path string, body interface{}, cookies ...*nethttp.Cookie) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAdminApprovesStoreThroughRouter(t *testing.T) {
	e, db, tokens := newRouter(t)

	owner := models.User{Name: "hana", Email: "hana@example.com", PasswordHash: "x", Role: models.RoleVendor}
	require.NoError(t, db.Create(&owner).Error)
	store := models.Store{
		Name: "Hana Shop", Username: "hanashop", Description: "d",
		Email: "hana@shop.example.com", Contact: "1", Address: "a",
		OwnerID: owner.ID, Status: models.StoreStatusPending,
	}
	require.NoError(t, db.Create(&store).Error)

	admin := accessCookie(t, tokens, token.Identity{ID: 99, Role: models.RoleAdmin})
	rec := serveJSON(e, nethttp.MethodPut,
		fmt.Sprintf("/api/v1/admin/stores/%d/status", store.ID),
		map[string]string{"status": models.StoreStatusApproved}, admin)
	require.Equal(t, nethttp.StatusOK, rec.Code)

	var fresh models.Store
	require.NoError(t, db.First(&fresh, store.ID).Error)
	require.Equal(t, models.StoreStatusApproved, fresh.Status)

	// the decision lands on the addressed store, not some other row
	other := models.Store{
		Name: "Iris Shop", Username: "irisshop", Description: "d",
		Email: "iris@shop.example.com", Contact: "1", Address: "a",
		OwnerID: owner.ID, Status: models.StoreStatusPending,
	}
	require.NoError(t, db.Create(&other).Error)

	rec = serveJSON(e, nethttp.MethodPut,
		fmt.Sprintf("/api/v1/admin/stores/%d/status", other.ID),
		map[string]string{"status": models.StoreStatusRejected}, admin)
	require.Equal(t, nethttp.StatusOK, rec.Code)

	require.NoError(t, db.First(&fresh, store.ID).Error)
	require.Equal(t, models.StoreStatusApproved, fresh.Status)
	fresh = models.Store{}
	require.NoError(t, db.First(&fresh, other.ID).Error)
	require.Equal(t, models.StoreStatusRejected, fresh.Status)

	// non-admins are turned away before the handler runs
	vendor := accessCookie(t, tokens, token.Identity{ID: owner.ID, Role: models.RoleVendor})
	rec = serveJSON(e, nethttp.MethodPut,
		fmt.Sprintf("/api/v1/admin/stores/%d/status", store.ID),
		map[string]string{"status": models.StoreStatusRejected}, vendor)
	require.Equal(t, nethttp.StatusForbidden, rec.Code)
}

func TestCourierPickThroughRouter(t *testing.T) {
	e, db, tokens := newRouter(t)

	dm := models.DeliveryMan{
		Name: "jo", Email: "jo@courier.example.com", Phone: "555",
		PasswordHash: "x", VehicleType: "bike", LicenseNumber: "L-1",
		IsActive: true, Rating: 5,
	}
	require.NoError(t, db.Create(&dm).Error)

	storeID := uint(1)
	order := models.Order{
		Number: "n-1", StoreID: &storeID,
		AddressName: "A", AddressPhone: "1", AddressStreet: "s", AddressLocation: "l",
		TotalPrice: 10, FinalAmount: 10, PaymentMethod: models.PaymentMethodCOD,
		PaymentStatus: models.PaymentStatusPending, OrderStatus: models.OrderStatusPending,
	}
	require.NoError(t, db.Create(&order).Error)

	courier := accessCookie(t, tokens, token.Identity{ID: dm.ID, Role: models.RoleDelivery})
	rec := serveJSON(e, nethttp.MethodPost, "/api/v1/delivery/orders/pick",
		map[string]uint{"orderId": order.ID}, courier)
	require.Equal(t, nethttp.StatusOK, rec.Code)

	var fresh models.Order
	require.NoError(t, db.First(&fresh, order.ID).Error)
	require.Equal(t, models.OrderStatusConfirmed, fresh.OrderStatus)
	require.NotNil(t, fresh.DeliveryManID)
	require.Equal(t, dm.ID, *fresh.DeliveryManID)
}
