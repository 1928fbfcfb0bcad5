// Package http wires the handlers onto the echo router. Route groups map
// to roles: public browsing, authenticated customers, vendors, admins and
// couriers.
package http

import (
	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/wakiullah/Torit-multivandor/internal/es"
	"github.com/wakiullah/Torit-multivandor/internal/handlers"
	"github.com/wakiullah/Torit-multivandor/internal/handlers/delivery"
	"github.com/wakiullah/Torit-multivandor/internal/handlers/order"
	"github.com/wakiullah/Torit-multivandor/internal/models"
	"github.com/wakiullah/Torit-multivandor/internal/mykafka"
	"github.com/wakiullah/Torit-multivandor/internal/service/pricing"
	"github.com/wakiullah/Torit-multivandor/internal/service/token"
)

type Deps struct {
	DB       *gorm.DB
	Tokens   *token.TokenService
	Producer *mykafka.Producer
	ES       *elasticsearch.Client

	// Checkout policies. Nil means the legacy defaults: whole delivery
	// charge on the first store, whole coupon discount on the priciest
	// line.
	Allocate pricing.AllocationPolicy
	Apply    pricing.ApplyStrategy
}

func Register(e *echo.Echo, d *Deps) {
	auth := &handlers.AuthHandler{DB: d.DB, Tokens: d.Tokens, Producer: d.Producer}
	stores := &handlers.StoreHandler{DB: d.DB, Producer: d.Producer}
	products := &handlers.ProductHandler{DB: d.DB, Producer: d.Producer, ES: d.ES}
	search := &handlers.SearchHandler{ES: d.ES, Index: es.ProductIndex}
	locations := &handlers.LocationHandler{DB: d.DB}
	charges := &handlers.DeliveryChargeHandler{DB: d.DB}
	coupons := &handlers.CouponHandler{DB: d.DB}
	addresses := &handlers.AddressHandler{DB: d.DB}
	reviews := &handlers.ReviewHandler{DB: d.DB}
	orders := &order.OrderHandler{
		DB:        d.DB,
		Producer:  d.Producer,
		JWTSecret: d.Tokens.JWTSecret,
		Allocate:  d.Allocate,
		Apply:     d.Apply,
	}
	couriers := &delivery.DeliveryHandler{DB: d.DB, Tokens: d.Tokens, Producer: d.Producer}
	deliveryAdmin := &delivery.AdminHandler{DB: d.DB}

	api := e.Group("/api/v1")

	// public
	api.POST("/auth/register", auth.Register)
	api.POST("/auth/login", auth.Login)
	api.POST("/auth/logout", auth.Logout)
	api.GET("/products", products.GetProducts)
	api.GET("/products/:id", products.GetProduct)
	api.GET("/search", search.Search)
	api.GET("/stores/username/:username", stores.GetStoreByUsername)
	api.GET("/stores/:id", stores.GetStore)
	api.GET("/stores/:id/reviews", reviews.ListStoreReviews)
	api.GET("/locations", locations.ListLocations)
	api.GET("/locations/by-name", locations.GetLocationByName)
	api.GET("/delivery-charges/calculate", charges.Calculate)
	api.POST("/coupons/validate", coupons.ValidateCoupon)

	// checkout tolerates guests: an order may be placed without a login,
	// the user link is attached when a valid token is present.
	api.POST("/orders", orders.CreateOrder)
	api.GET("/orders/:id", orders.GetOrder)
	api.PUT("/orders/:id", orders.UpdateStatus, d.Tokens.RequireRole(models.RoleVendor))

	// authenticated customers
	user := api.Group("", d.Tokens.AutoRefreshMiddleware)
	user.GET("/auth/me", auth.Me)
	user.GET("/orders", orders.ListOrders)
	user.GET("/address", addresses.GetAddress)
	user.POST("/address", addresses.SaveAddress)
	user.POST("/reviews", reviews.CreateReview)
	user.POST("/stores", stores.CreateStore)

	// vendors
	vendor := api.Group("/vendor", d.Tokens.RequireRole(models.RoleVendor))
	vendor.GET("/store", stores.MyStore)
	vendor.GET("/store/stats", stores.StoreStats)
	vendor.POST("/products", products.CreateProduct)
	vendor.PATCH("/products/:id", products.PatchProduct)
	vendor.DELETE("/products/:id", products.DeleteProduct)
	vendor.GET("/coupons", coupons.ListCoupons)
	vendor.POST("/coupons", coupons.CreateCoupon)
	vendor.DELETE("/coupons/:id", coupons.DeleteCoupon)
	vendor.GET("/orders", orders.StoreOrders)

	// admins
	admin := api.Group("/admin", d.Tokens.RequireRole(models.RoleAdmin))
	admin.GET("/stores", stores.ListStores)
	admin.PUT("/stores/:id/status", stores.SetStoreStatus)
	admin.POST("/locations", locations.CreateLocation)
	admin.GET("/delivery-charges", charges.ListCharges)
	admin.POST("/delivery-charges", charges.CreateCharge)
	admin.DELETE("/delivery-charges/:id", charges.DeleteCharge)
	admin.POST("/delivery-men", deliveryAdmin.CreateDeliveryMan)
	admin.GET("/delivery-men", deliveryAdmin.ListDeliveryMen)
	admin.PUT("/delivery-men/:id/active", deliveryAdmin.SetActive)
	admin.DELETE("/delivery-men/:id", deliveryAdmin.DeleteDeliveryMan)

	// couriers
	api.POST("/delivery/login", couriers.Login)
	courier := api.Group("/delivery", d.Tokens.RequireRole(models.RoleDelivery))
	courier.GET("/orders/available", couriers.AvailableOrders)
	courier.GET("/orders", couriers.MyOrders)
	courier.POST("/orders/pick", couriers.PickOrder)
	courier.POST("/orders/status", couriers.UpdateStatus)
	courier.POST("/orders/complete", couriers.Complete)
	courier.GET("/stats", couriers.Stats)
}
