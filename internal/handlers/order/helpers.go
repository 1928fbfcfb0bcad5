package order

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// OptionalUserID resolves the caller from the access cookie when present.
// Checkout allows guests, so a missing or invalid token is simply nil.
func OptionalUserID(c echo.Context, jwtSecret []byte) *uint {
	cookie, err := c.Cookie("accessToken")
	if err != nil || cookie.Value == "" {
		return nil
	}

	tok, err := jwt.Parse(cookie.Value, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return jwtSecret, nil
	})
	if err != nil || !tok.Valid {
		return nil
	}

	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil
	}
	sub, ok := claims["sub"].(float64)
	if !ok {
		return nil
	}

	id := uint(sub)
	return &id
}
