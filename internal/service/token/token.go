package token

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/wakiullah/Torit-multivandor/internal/models"
)

const (
	AccessTTL  = 15 * time.Minute
	RefreshTTL = 7 * 24 * time.Hour
)

// Identity is what the access token carries. Store fields are stamped at
// login time for vendors and can go stale until re-login.
type Identity struct {
	ID          uint
	Role        string
	StoreID     uint
	StoreStatus string
}

type TokenService struct {
	DB            *gorm.DB
	JWTSecret     []byte
	RefreshSecret []byte
}

func CreateCookie(name, value, path string, exp time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Expires:  exp,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}

func SignAccessToken(id Identity, secret []byte) (string, error) {
	claims := jwt.MapClaims{
		"sub":  id.ID,
		"role": id.Role,
		"exp":  time.Now().Add(AccessTTL).Unix(),
	}
	if id.StoreID != 0 {
		claims["storeId"] = id.StoreID
		claims["storeStatus"] = id.StoreStatus
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(secret)
}

func SignRefreshToken(id Identity, secret []byte) (string, error) {
	claims := jwt.MapClaims{
		"sub":  id.ID,
		"role": id.Role,
		"exp":  time.Now().Add(RefreshTTL).Unix(),
		"typ":  "refresh",
	}
	if id.StoreID != 0 {
		claims["storeId"] = id.StoreID
		claims["storeStatus"] = id.StoreStatus
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(secret)
}

func SaveRefreshToken(db *gorm.DB, token string, id Identity) error {
	row := models.RefreshToken{
		Token:     token,
		UserID:    id.ID,
		Role:      id.Role,
		ExpiresAt: time.Now().Add(RefreshTTL).Unix(),
		Revoked:   false,
	}
	if err := db.Create(&row).Error; err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Issue signs both tokens, persists the refresh token and sets the cookies.
func (t *TokenService) Issue(c echo.Context, id Identity) (string, string, error) {
	access, err := SignAccessToken(id, t.JWTSecret)
	if err != nil {
		return "", "", err
	}
	refresh, err := SignRefreshToken(id, t.RefreshSecret)
	if err != nil {
		return "", "", err
	}
	if err := SaveRefreshToken(t.DB, refresh, id); err != nil {
		return "", "", err
	}

	c.SetCookie(CreateCookie("accessToken", access, "/", time.Now().Add(AccessTTL)))
	c.SetCookie(CreateCookie("refreshToken", refresh, "/", time.Now().Add(RefreshTTL)))
	return access, refresh, nil
}

// Revoke marks a refresh token unusable. Logout calls this before clearing
// cookies.
func (t *TokenService) Revoke(token string) error {
	if err := t.DB.Model(&models.RefreshToken{}).
		Where("token = ?", token).
		Update("revoked", true).Error; err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func ValidateRefresh(rawToken string, refreshSecret []byte, db *gorm.DB) (jwt.MapClaims, error) {
	t, err := jwt.Parse(rawToken, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signature method: %v", t.Header["alg"])
		}
		return refreshSecret, nil
	})
	if err != nil || !t.Valid {
		return nil, fmt.Errorf("invalid refresh token: %w", err)
	}

	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("cannot parse claims")
	}
	if typ, ok := claims["typ"]; !ok || typ != "refresh" {
		return nil, errors.New("not a refresh token")
	}

	var stored models.RefreshToken
	if err := db.Where("token = ?", rawToken).First(&stored).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("refresh token not found")
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if stored.Revoked {
		return nil, errors.New("refresh token revoked")
	}
	if time.Now().Unix() > stored.ExpiresAt {
		return nil, errors.New("refresh token expired")
	}

	return claims, nil
}

func identityFromClaims(claims jwt.MapClaims) Identity {
	id := Identity{}
	if sub, ok := claims["sub"].(float64); ok {
		id.ID = uint(sub)
	}
	if role, ok := claims["role"].(string); ok {
		id.Role = role
	}
	if sid, ok := claims["storeId"].(float64); ok {
		id.StoreID = uint(sid)
	}
	if st, ok := claims["storeStatus"].(string); ok {
		id.StoreStatus = st
	}
	return id
}

func setUserContext(c echo.Context, id Identity) {
	c.Set("userID", id.ID)
	c.Set("role", id.Role)
	if id.StoreID != 0 {
		c.Set("storeID", id.StoreID)
		c.Set("storeStatus", id.StoreStatus)
	}
}

// IdentityFromContext reads what the middleware stashed. Zero identity
// means no authenticated caller.
func IdentityFromContext(c echo.Context) Identity {
	id := Identity{}
	if v, ok := c.Get("userID").(uint); ok {
		id.ID = v
	}
	if v, ok := c.Get("role").(string); ok {
		id.Role = v
	}
	if v, ok := c.Get("storeID").(uint); ok {
		id.StoreID = v
	}
	if v, ok := c.Get("storeStatus").(string); ok {
		id.StoreStatus = v
	}
	return id
}

func (t *TokenService) RotateToken(rawToken string) (string, string, Identity, error) {
	claims, err := ValidateRefresh(rawToken, t.RefreshSecret, t.DB)
	if err != nil {
		return "", "", Identity{}, err
	}

	id := identityFromClaims(claims)

	newAccess, err := SignAccessToken(id, t.JWTSecret)
	if err != nil {
		return "", "", Identity{}, err
	}
	newRefresh, err := SignRefreshToken(id, t.RefreshSecret)
	if err != nil {
		return "", "", Identity{}, err
	}
	if err := SaveRefreshToken(t.DB, newRefresh, id); err != nil {
		return "", "", Identity{}, err
	}

	return newAccess, newRefresh, id, nil
}

// checkCookie resolves the caller: a valid access cookie as-is, an expired
// one through refresh rotation. Returns the refreshed pair when rotation
// happened.
func (t *TokenService) checkCookie(c echo.Context) (string, string, Identity, error) {
	asCookie, err := c.Cookie("accessToken")
	if err == nil {
		tok, err := jwt.Parse(asCookie.Value, func(j *jwt.Token) (interface{}, error) {
			if _, ok := j.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signature method: %v", j.Header["alg"])
			}
			return t.JWTSecret, nil
		})
		if err == nil && tok.Valid {
			id := identityFromClaims(tok.Claims.(jwt.MapClaims))
			return asCookie.Value, "", id, nil
		}
		if !errors.Is(err, jwt.ErrTokenExpired) {
			return "", "", Identity{}, echo.NewHTTPError(http.StatusUnauthorized, "invalid access token")
		}
	}

	rfCookie, err := c.Cookie("refreshToken")
	if err != nil {
		return "", "", Identity{}, echo.NewHTTPError(http.StatusUnauthorized, "refresh token missing")
	}
	newAccess, newRefresh, id, err := t.RotateToken(rfCookie.Value)
	if err != nil {
		return "", "", Identity{}, echo.NewHTTPError(http.StatusUnauthorized, "cannot rotate token: "+err.Error())
	}
	return newAccess, newRefresh, id, nil
}

// AutoRefreshMiddleware authenticates any logged-in caller, silently
// rotating an expired access token through the refresh token.
func (t *TokenService) AutoRefreshMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		newAccess, newRefresh, id, err := t.checkCookie(c)
		if err != nil {
			return err
		}

		if newRefresh != "" {
			c.SetCookie(CreateCookie("accessToken", newAccess, "/", time.Now().Add(AccessTTL)))
			c.SetCookie(CreateCookie("refreshToken", newRefresh, "/", time.Now().Add(RefreshTTL)))
		}
		setUserContext(c, id)
		return next(c)
	}
}

// RequireRole layers a role check on top of AutoRefreshMiddleware.
func (t *TokenService) RequireRole(role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return t.AutoRefreshMiddleware(func(c echo.Context) error {
			if got, _ := c.Get("role").(string); got != role {
				return echo.NewHTTPError(http.StatusForbidden, "not enough rights")
			}
			return next(c)
		})
	}
}
