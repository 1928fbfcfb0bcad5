package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/wakiullah/Torit-multivandor/internal/models"
)

type DeliveryChargeHandler struct {
	DB *gorm.DB
}

func (h *DeliveryChargeHandler) ListCharges(c echo.Context) error {
	var charges []models.DeliveryCharge
	if err := h.DB.Find(&charges).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "charges": charges})
}

func (h *DeliveryChargeHandler) CreateCharge(c echo.Context) error {
	var req struct {
		FromLocationID uint    `json:"from_location_id"`
		ToLocationID   uint    `json:"to_location_id"`
		Charge         float64 `json:"charge"`
	}
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}
	if req.FromLocationID == 0 || req.ToLocationID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "both locations are required")
	}
	if req.Charge < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "charge must not be negative")
	}

	charge := models.DeliveryCharge{
		FromLocationID: req.FromLocationID,
		ToLocationID:   req.ToLocationID,
		Charge:         req.Charge,
	}
	if err := h.DB.Create(&charge).Error; err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "charge": charge})
}

// LookupCharge resolves the symmetric (from,to) pair. Pairs without a row
// resolve to zero rather than an error; existing clients rely on that.
func LookupCharge(db *gorm.DB, from, to uint) (float64, error) {
	var row models.DeliveryCharge
	err := db.Where(
		"(from_location_id = ? AND to_location_id = ?) OR (from_location_id = ? AND to_location_id = ?)",
		from, to, to, from,
	).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return row.Charge, nil
}

func (h *DeliveryChargeHandler) Calculate(c echo.Context) error {
	from := parseIntDefault(c.QueryParam("from"), 0)
	to := parseIntDefault(c.QueryParam("to"), 0)
	if from == 0 || to == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"success": false,
			"message": "from and to locations are required",
		})
	}

	charge, err := LookupCharge(h.DB, uint(from), uint(to))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "charge": charge})
}

func (h *DeliveryChargeHandler) DeleteCharge(c echo.Context) error {
	if err := h.DB.Delete(&models.DeliveryCharge{}, c.Param("id")).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
