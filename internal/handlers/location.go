package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/wakiullah/Torit-multivandor/internal/models"
)

type LocationHandler struct {
	DB *gorm.DB
}

func (h *LocationHandler) ListLocations(c echo.Context) error {
	var locations []models.Location
	if err := h.DB.Order("name ASC").Find(&locations).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "locations": locations})
}

func (h *LocationHandler) CreateLocation(c echo.Context) error {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}
	if req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}

	location := models.Location{Name: req.Name}
	if err := h.DB.Create(&location).Error; err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "location": location})
}

// GetLocationByName matches a customer address's zone name against the
// known locations, for the delivery charge lookup.
func (h *LocationHandler) GetLocationByName(c echo.Context) error {
	name := c.QueryParam("name")
	if name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}

	var location models.Location
	if err := h.DB.Where("name = ?", name).First(&location).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "location not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "location": location})
}
