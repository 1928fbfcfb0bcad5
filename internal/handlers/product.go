package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/wakiullah/Torit-multivandor/internal/es"
	"github.com/wakiullah/Torit-multivandor/internal/models"
	"github.com/wakiullah/Torit-multivandor/internal/mykafka"
	"github.com/wakiullah/Torit-multivandor/internal/service/search"
	"github.com/wakiullah/Torit-multivandor/internal/service/token"
	"github.com/wakiullah/Torit-multivandor/internal/util"
)

type ProductHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
	ES       *elasticsearch.Client
}

type productRequest struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Category    string             `json:"category"`
	MRP         float64            `json:"mrp"`
	Price       float64            `json:"price"`
	Images      models.StringList  `json:"images"`
	InStock     *bool              `json:"in_stock"`
	Variations  []models.Variation `json:"variations"`
}

// validate enforces the pricing invariant: price never exceeds mrp, checked
// per variation when variations exist, otherwise at product level.
func (r *productRequest) validate() error {
	if r.Name == "" || r.Description == "" || r.Category == "" {
		return errors.New("name, description and category are required")
	}
	if len(r.Variations) == 0 {
		if r.Price < 0 || r.MRP < 0 {
			return errors.New("price and mrp must not be negative")
		}
		if r.Price > r.MRP {
			return errors.New("price cannot exceed mrp")
		}
		return nil
	}
	for _, v := range r.Variations {
		if v.Price < 0 {
			return errors.New("variation price must not be negative")
		}
		if v.MRP > 0 && v.Price > v.MRP {
			return errors.New("variation price cannot exceed mrp")
		}
		if len(v.Attributes) == 0 {
			return errors.New("variation attributes are required")
		}
	}
	return nil
}

// vendorStore resolves the calling vendor's approved store. Selling is
// gated on approval.
func (h *ProductHandler) vendorStore(c echo.Context) (*models.Store, error) {
	id := token.IdentityFromContext(c)

	var store models.Store
	if err := h.DB.Where("owner_id = ?", id.ID).First(&store).Error; err != nil {
		return nil, echo.NewHTTPError(http.StatusForbidden, "only vendors can manage products")
	}
	if store.Status != models.StoreStatusApproved {
		return nil, echo.NewHTTPError(http.StatusForbidden, "store is not approved yet")
	}
	return &store, nil
}

func (h *ProductHandler) index(c echo.Context, p *models.Product) {
	if h.ES == nil {
		return
	}
	if err := search.IndexProduct(c.Request().Context(), h.ES, es.ProductIndex, p); err != nil {
		c.Logger().Errorf("ES index error: %v", err)
	}
}

func (h *ProductHandler) GetProduct(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	var product models.Product
	if err := h.DB.Preload("Variations").First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) GetProducts(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	q := h.DB.Model(&models.Product{})
	if category := c.QueryParam("category"); category != "" {
		q = q.Where("category = ?", category)
	}
	if storeID := c.QueryParam("store"); storeID != "" {
		q = q.Where("store_id = ?", storeID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var items []models.Product
	if err := q.Preload("Variations").Order("id DESC").
		Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": items,
		"meta": map[string]any{
			"page":        page,
			"size":        limit,
			"total":       total,
			"total_pages": (total + int64(limit) - 1) / int64(limit),
			"has_prev":    page > 1,
			"has_next":    int64(offset+limit) < total,
		},
	})
}

func (h *ProductHandler) CreateProduct(c echo.Context) error {
	store, err := h.vendorStore(c)
	if err != nil {
		return err
	}

	var req productRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}
	if err := req.validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	prod := models.Product{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		MRP:         req.MRP,
		Price:       req.Price,
		Images:      req.Images,
		InStock:     true,
		StoreID:     store.ID,
		Variations:  req.Variations,
	}
	if req.InStock != nil {
		prod.InStock = *req.InStock
	}

	if err := h.DB.Create(&prod).Error; err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	h.index(c, &prod)
	publish(c, h.Producer, "product_events", prod.ID, map[string]any{
		"type":      "product_created",
		"productID": prod.ID,
		"storeID":   store.ID,
		"name":      prod.Name,
	})

	return c.JSON(http.StatusCreated, prod)
}

func (h *ProductHandler) PatchProduct(c echo.Context) error {
	store, err := h.vendorStore(c)
	if err != nil {
		return err
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	var prod models.Product
	if err := h.DB.Preload("Variations").First(&prod, id).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "product not found")
	}
	if prod.StoreID != store.ID {
		return echo.NewHTTPError(http.StatusForbidden, "product belongs to another store")
	}

	var req productRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}
	if err := req.validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	prod.Name = req.Name
	prod.Description = req.Description
	prod.Category = req.Category
	prod.MRP = req.MRP
	prod.Price = req.Price
	prod.Images = req.Images
	if req.InStock != nil {
		prod.InStock = *req.InStock
	}

	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		if req.Variations != nil {
			if err := tx.Where("product_id = ?", prod.ID).Delete(&models.Variation{}).Error; err != nil {
				return err
			}
			for i := range req.Variations {
				req.Variations[i].ID = 0
				req.Variations[i].ProductID = prod.ID
			}
			prod.Variations = req.Variations
		}
		return tx.Session(&gorm.Session{FullSaveAssociations: true}).Save(&prod).Error
	})
	if txErr != nil {
		return echo.NewHTTPError(http.StatusBadRequest, txErr.Error())
	}

	h.index(c, &prod)
	publish(c, h.Producer, "product_events", prod.ID, map[string]any{
		"type":      "product_updated",
		"productID": prod.ID,
		"storeID":   store.ID,
		"name":      prod.Name,
	})

	return c.JSON(http.StatusOK, prod)
}

func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	store, err := h.vendorStore(c)
	if err != nil {
		return err
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	var prod models.Product
	if err := h.DB.First(&prod, id).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "product not found")
	}
	if prod.StoreID != store.ID {
		return echo.NewHTTPError(http.StatusForbidden, "product belongs to another store")
	}

	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", prod.ID).Delete(&models.Variation{}).Error; err != nil {
			return err
		}
		return tx.Delete(&prod).Error
	})
	if txErr != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, txErr.Error())
	}

	if h.ES != nil {
		if err := search.DeleteProduct(c.Request().Context(), h.ES, es.ProductIndex, prod.ID); err != nil {
			c.Logger().Errorf("ES delete error: %v", err)
		}
	}
	publish(c, h.Producer, "product_events", prod.ID, map[string]any{
		"type":      "product_deleted",
		"productID": prod.ID,
		"storeID":   store.ID,
	})

	return c.NoContent(http.StatusNoContent)
}
