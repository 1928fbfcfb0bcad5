package orderflow

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wakiullah/Torit-multivandor/internal/models"
)

func TestVendorCanSet(t *testing.T) {
	require.NoError(t, VendorCanSet(models.OrderStatusPending, models.OrderStatusShipped))
	require.NoError(t, VendorCanSet(models.OrderStatusShipped, models.OrderStatusPending))
	require.NoError(t, VendorCanSet(models.OrderStatusCancelled, models.OrderStatusProcessing))

	require.Error(t, VendorCanSet(models.OrderStatusPending, "teleported"))
	require.Error(t, VendorCanSet(models.OrderStatusDelivered, models.OrderStatusPending))
}

func TestPickable(t *testing.T) {
	courier := uint(7)

	require.True(t, Pickable(&models.Order{OrderStatus: models.OrderStatusPending}))
	require.False(t, Pickable(&models.Order{OrderStatus: models.OrderStatusConfirmed}))
	require.False(t, Pickable(&models.Order{OrderStatus: models.OrderStatusPending, DeliveryManID: &courier}))
	require.False(t, Pickable(&models.Order{OrderStatus: models.OrderStatusPending, IsParent: true}))
}

func TestCourierCanSet(t *testing.T) {
	require.NoError(t, CourierCanSet(models.OrderStatusConfirmed, models.OrderStatusOutForDelivery))
	require.NoError(t, CourierCanSet(models.OrderStatusConfirmed, models.OrderStatusDelivered))
	require.NoError(t, CourierCanSet(models.OrderStatusOutForDelivery, models.OrderStatusDelivered))
	require.NoError(t, CourierCanSet(models.OrderStatusOutForDelivery, models.OrderStatusCancelled))
	require.NoError(t, CourierCanSet(models.OrderStatusConfirmed, models.OrderStatusPending))

	// no skipping pickup, no reviving delivered orders
	require.Error(t, CourierCanSet(models.OrderStatusPending, models.OrderStatusOutForDelivery))
	require.Error(t, CourierCanSet(models.OrderStatusDelivered, models.OrderStatusPending))
	require.Error(t, CourierCanSet(models.OrderStatusOutForDelivery, models.OrderStatusConfirmed))
	require.Error(t, CourierCanSet(models.OrderStatusConfirmed, "nonsense"))
}

func TestHandsBack(t *testing.T) {
	require.True(t, HandsBack(models.OrderStatusCancelled))
	require.True(t, HandsBack(models.OrderStatusPending))
	require.False(t, HandsBack(models.OrderStatusDelivered))
	require.False(t, HandsBack(models.OrderStatusOutForDelivery))
}
