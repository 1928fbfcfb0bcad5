package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/wakiullah/Torit-multivandor/internal/models"
	"github.com/wakiullah/Torit-multivandor/internal/service/token"
)

type ReviewHandler struct {
	DB *gorm.DB
}

func (h *ReviewHandler) ListStoreReviews(c echo.Context) error {
	var reviews []models.Review
	if err := h.DB.Where("store_id = ?", c.Param("id")).
		Order("created_at DESC").
		Find(&reviews).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"reviews": reviews})
}

// CreateReview records a rating for a store. One review per user per store;
// a second submission overwrites the first.
func (h *ReviewHandler) CreateReview(c echo.Context) error {
	id := token.IdentityFromContext(c)

	var req struct {
		StoreID uint   `json:"storeId"`
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Rating < 1 || req.Rating > 5 {
		return echo.NewHTTPError(http.StatusBadRequest, "rating must be between 1 and 5")
	}

	var store models.Store
	if err := h.DB.First(&store, req.StoreID).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "store not found")
	}

	var review models.Review
	err := h.DB.Where("user_id = ? AND store_id = ?", id.ID, req.StoreID).First(&review).Error
	if err == nil {
		review.Rating = req.Rating
		review.Comment = req.Comment
		if err := h.DB.Save(&review).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, echo.Map{"success": true, "review": review})
	}

	review = models.Review{
		UserID:  id.ID,
		StoreID: req.StoreID,
		Rating:  req.Rating,
		Comment: req.Comment,
	}
	if err := h.DB.Create(&review).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "review": review})
}
