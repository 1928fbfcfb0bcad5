package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/wakiullah/Torit-multivandor/internal/hash"
	"github.com/wakiullah/Torit-multivandor/internal/models"
	"github.com/wakiullah/Torit-multivandor/internal/mykafka"
	"github.com/wakiullah/Torit-multivandor/internal/service/token"
)

type AuthHandler struct {
	DB       *gorm.DB
	Tokens   *token.TokenService
	Producer *mykafka.Producer
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "please add all fields")
	}

	var existing models.User
	if err := h.DB.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "user already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	user := models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: pwHash,
		Role:         models.RoleUser,
	}
	if err := h.DB.Create(&user).Error; err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if _, _, err := h.Tokens.Issue(c, token.Identity{ID: user.ID, Role: user.Role}); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	publish(c, h.Producer, "user_events", user.ID, map[string]any{
		"type":   "user_registered",
		"userID": user.ID,
		"email":  user.Email,
	})

	return c.JSON(http.StatusCreated, user)
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}

	var user models.User
	if err := h.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}
	if !hash.CheckPassword(user.PasswordHash, req.Password) {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}

	// Vendor logins carry the store id and approval status in the token.
	// Both go stale until the next login.
	id := token.Identity{ID: user.ID, Role: user.Role}
	var store *models.Store
	if user.Role == models.RoleVendor && user.StoreID != nil {
		var s models.Store
		if err := h.DB.First(&s, *user.StoreID).Error; err == nil {
			store = &s
			id.StoreID = s.ID
			id.StoreStatus = s.Status
		}
	}

	access, refresh, err := h.Tokens.Issue(c, id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	publish(c, h.Producer, "user_events", user.ID, map[string]any{
		"type":   "user_logged_in",
		"userID": user.ID,
		"role":   user.Role,
	})

	resp := echo.Map{
		"access_token":  access,
		"refresh_token": refresh,
		"user":          user,
	}
	if store != nil {
		resp["store"] = echo.Map{"id": store.ID, "status": store.Status}
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) Logout(c echo.Context) error {
	if refreshCookie, err := c.Cookie("refreshToken"); err == nil {
		if err := h.Tokens.Revoke(refreshCookie.Value); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	expired := time.Now().Add(-1 * time.Hour)
	c.SetCookie(token.CreateCookie("accessToken", "", "/", expired))
	c.SetCookie(token.CreateCookie("refreshToken", "", "/", expired))

	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

// Me returns the authenticated user, with store state read fresh for
// vendors so the UI sees approval changes before re-login.
func (h *AuthHandler) Me(c echo.Context) error {
	id := token.IdentityFromContext(c)

	var user models.User
	if err := h.DB.First(&user, id.ID).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	}

	resp := echo.Map{"user": user}
	if user.StoreID != nil {
		var store models.Store
		if err := h.DB.First(&store, *user.StoreID).Error; err == nil {
			resp["store"] = echo.Map{"id": store.ID, "status": store.Status}
		}
	}
	return c.JSON(http.StatusOK, resp)
}
