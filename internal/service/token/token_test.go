package token

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/wakiullah/Torit-multivandor/internal/models"
)

func newService(t *testing.T) *TokenService {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.RefreshToken{}))

	return &TokenService{
		DB:            db,
		JWTSecret:     []byte("jwt-secret"),
		RefreshSecret: []byte("refresh-secret"),
	}
}

func newContext(cookies ...*http.Cookie) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestIssueSetsCookiesAndPersistsRefresh(t *testing.T) {
	svc := newService(t)
	c, rec := newContext()

	access, refresh, err := svc.Issue(c, Identity{ID: 1, Role: models.RoleUser})
	require.NoError(t, err)
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)

	names := map[string]bool{}
	for _, ck := range rec.Result().Cookies() {
		names[ck.Name] = true
	}
	require.True(t, names["accessToken"])
	require.True(t, names["refreshToken"])

	var stored models.RefreshToken
	require.NoError(t, svc.DB.Where("token = ?", refresh).First(&stored).Error)
	require.Equal(t, uint(1), stored.UserID)
	require.False(t, stored.Revoked)
}

func TestRotateToken(t *testing.T) {
	svc := newService(t)
	c, _ := newContext()

	_, refresh, err := svc.Issue(c, Identity{ID: 4, Role: models.RoleVendor, StoreID: 2, StoreStatus: models.StoreStatusApproved})
	require.NoError(t, err)

	access2, refresh2, id, err := svc.RotateToken(refresh)
	require.NoError(t, err)
	require.NotEmpty(t, access2)
	require.NotEqual(t, refresh, refresh2)

	// store claims survive rotation
	require.Equal(t, uint(4), id.ID)
	require.Equal(t, models.RoleVendor, id.Role)
	require.Equal(t, uint(2), id.StoreID)
	require.Equal(t, models.StoreStatusApproved, id.StoreStatus)
}

func TestRevokedTokenCannotRotate(t *testing.T) {
	svc := newService(t)
	c, _ := newContext()

	_, refresh, err := svc.Issue(c, Identity{ID: 1, Role: models.RoleUser})
	require.NoError(t, err)
	require.NoError(t, svc.Revoke(refresh))

	_, _, _, err = svc.RotateToken(refresh)
	require.Error(t, err)
}

func TestAccessTokenIsNotARefreshToken(t *testing.T) {
	svc := newService(t)
	c, _ := newContext()

	access, _, err := svc.Issue(c, Identity{ID: 1, Role: models.RoleUser})
	require.NoError(t, err)

	_, _, _, err = svc.RotateToken(access)
	require.Error(t, err)
}

func TestAutoRefreshMiddlewareSetsIdentity(t *testing.T) {
	svc := newService(t)
	seed, _ := newContext()
	access, _, err := svc.Issue(seed, Identity{ID: 9, Role: models.RoleAdmin})
	require.NoError(t, err)

	c, _ := newContext(&http.Cookie{Name: "accessToken", Value: access})
	handler := svc.AutoRefreshMiddleware(func(c echo.Context) error {
		id := IdentityFromContext(c)
		require.Equal(t, uint(9), id.ID)
		require.Equal(t, models.RoleAdmin, id.Role)
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, handler(c))
}

func TestAutoRefreshMiddlewareRejectsForeignAlg(t *testing.T) {
	svc := newService(t)

	claims := jwt.MapClaims{
		"sub":  float64(9),
		"role": models.RoleAdmin,
		"exp":  time.Now().Add(AccessTTL).Unix(),
	}
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
	access, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	c, _ := newContext(&http.Cookie{Name: "accessToken", Value: access})
	handler := svc.AutoRefreshMiddleware(func(c echo.Context) error {
		t.Fatal("handler must not run for an unsigned token")
		return nil
	})
	err = handler(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusUnauthorized, he.Code)
}

func TestRequireRole(t *testing.T) {
	svc := newService(t)
	seed, _ := newContext()
	access, _, err := svc.Issue(seed, Identity{ID: 2, Role: models.RoleUser})
	require.NoError(t, err)

	c, _ := newContext(&http.Cookie{Name: "accessToken", Value: access})
	handler := svc.RequireRole(models.RoleAdmin)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	err = handler(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusForbidden, he.Code)

	// no cookies at all is unauthorized
	c2, _ := newContext()
	err = handler(c2)
	he, ok = err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusUnauthorized, he.Code)
}
