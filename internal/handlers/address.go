package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wakiullah/Torit-multivandor/internal/models"
	"github.com/wakiullah/Torit-multivandor/internal/service/token"
)

type AddressHandler struct {
	DB *gorm.DB
}

// GetAddress returns the caller's saved address, 404 when none was saved.
func (h *AddressHandler) GetAddress(c echo.Context) error {
	id := token.IdentityFromContext(c)

	var addr models.Address
	err := h.DB.Where("user_id = ?", id.ID).First(&addr).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "no saved address")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"address": addr})
}

// SaveAddress upserts the caller's single saved address.
func (h *AddressHandler) SaveAddress(c echo.Context) error {
	id := token.IdentityFromContext(c)

	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Street   string `json:"street"`
		Location string `json:"location"`
		Phone    string `json:"phone"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Name == "" || req.Street == "" || req.Phone == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name, street and phone are required")
	}

	addr := models.Address{
		UserID:   id.ID,
		Name:     req.Name,
		Email:    req.Email,
		Street:   req.Street,
		Location: req.Location,
		Phone:    req.Phone,
	}
	err := h.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "email", "street", "location", "phone"}),
	}).Create(&addr).Error
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "address": addr})
}
