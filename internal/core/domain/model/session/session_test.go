package session_test

import (
	"testing"

	"pizzeria/internal/core/domain/model/kernel"
	"pizzeria/internal/core/domain/model/pizzeria"
	"pizzeria/internal/core/domain/model/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDeliveryRequest(t *testing.T) session.DeliveryRequest {
	t.Helper()

	point, err := kernel.NewGeoPoint(55.75, 37.61)
	require.NoError(t, err)
	origin, err := kernel.NewGeoPoint(55.76, 37.62)
	require.NoError(t, err)
	location, err := pizzeria.NewFulfillmentLocation("1 Main St", origin, "courier-42")
	require.NoError(t, err)

	return session.DeliveryRequest{
		Address:    "2 Side St",
		Point:      point,
		Location:   location,
		DistanceKm: 1.3,
		Tier:       pizzeria.TierStandard,
		Fee:        100,
	}
}

func TestNewSession(t *testing.T) {
	t.Run("starts in Start with empty slots", func(t *testing.T) {
		sess, err := session.NewSession("chat-1")
		require.NoError(t, err)

		assert.Equal(t, session.Identity("chat-1"), sess.Identity())
		assert.Equal(t, session.StateStart, sess.State())
		assert.Nil(t, sess.Selection())
		assert.Nil(t, sess.Delivery())
		assert.Empty(t, sess.CartSummary())
		assert.Nil(t, sess.ConfirmedOrder())
		require.NoError(t, sess.Validate())
	})

	t.Run("empty identity rejected", func(t *testing.T) {
		_, err := session.NewSession("")
		require.Error(t, err)
	})
}

func TestSession_ZeroValueFailsValidation(t *testing.T) {
	var sess session.Session
	require.Error(t, sess.Validate())

	var nilSess *session.Session
	require.Error(t, nilSess.Validate())
}

func TestSession_MoveTo(t *testing.T) {
	sess, _ := session.NewSession("chat-1")

	require.NoError(t, sess.MoveTo(session.StateBrowsingMenu))
	assert.Equal(t, session.StateBrowsingMenu, sess.State())

	require.Error(t, sess.MoveTo(session.StateUnknown))
	assert.Equal(t, session.StateBrowsingMenu, sess.State(), "failed move must not change state")
}

func TestSession_SelectProduct_OverwritesPrevious(t *testing.T) {
	sess, _ := session.NewSession("chat-1")

	require.NoError(t, sess.SelectProduct(session.ProductSelection{
		ProductID: "p-1", Description: "Pepperoni", UnitPrice: 55000,
	}))
	require.NoError(t, sess.SelectProduct(session.ProductSelection{
		ProductID: "p-2", Description: "Margherita", UnitPrice: 49000,
	}))

	require.NotNil(t, sess.Selection())
	assert.Equal(t, "p-2", sess.Selection().ProductID)

	sess.ClearSelection()
	assert.Nil(t, sess.Selection())
}

func TestSession_SelectProduct_Invalid(t *testing.T) {
	sess, _ := session.NewSession("chat-1")

	require.Error(t, sess.SelectProduct(session.ProductSelection{ProductID: ""}))
	require.Error(t, sess.SelectProduct(session.ProductSelection{ProductID: "p-1", UnitPrice: -1}))
	assert.Nil(t, sess.Selection())
}

func TestSession_SetDelivery(t *testing.T) {
	sess, _ := session.NewSession("chat-1")
	request := testDeliveryRequest(t)

	require.NoError(t, sess.SetDelivery(request))
	require.NotNil(t, sess.Delivery())
	assert.Equal(t, pizzeria.TierStandard, sess.Delivery().Tier)
	assert.Equal(t, 100, sess.Delivery().Fee)

	sess.ClearDelivery()
	assert.Nil(t, sess.Delivery())
}

func TestSession_SetDelivery_InvalidRequest(t *testing.T) {
	sess, _ := session.NewSession("chat-1")

	require.Error(t, sess.SetDelivery(session.DeliveryRequest{}))

	bad := testDeliveryRequest(t)
	bad.Fee = -1
	require.Error(t, sess.SetDelivery(bad))
	assert.Nil(t, sess.Delivery())
}

func TestSession_AttachPaymentOrder(t *testing.T) {
	sess, _ := session.NewSession("chat-1")
	orderID := kernel.NewUUID()

	t.Run("requires delivery request", func(t *testing.T) {
		require.Error(t, sess.AttachPaymentOrder(orderID))
	})

	t.Run("stamps the pending request", func(t *testing.T) {
		require.NoError(t, sess.SetDelivery(testDeliveryRequest(t)))
		require.NoError(t, sess.AttachPaymentOrder(orderID))
		assert.True(t, sess.Delivery().OrderID.IsEqual(orderID))
	})

	t.Run("zero order id rejected", func(t *testing.T) {
		require.Error(t, sess.AttachPaymentOrder(kernel.UUID{}))
	})
}

func TestSession_ConfirmationDedup(t *testing.T) {
	sess, _ := session.NewSession("chat-1")
	orderID := kernel.NewUUID()

	assert.False(t, sess.AlreadyConfirmed(orderID))

	require.NoError(t, sess.MarkConfirmed(orderID))
	assert.True(t, sess.AlreadyConfirmed(orderID))
	assert.False(t, sess.AlreadyConfirmed(kernel.NewUUID()))
}

func TestRestoreSession(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		orderID := kernel.NewUUID()
		delivery := testDeliveryRequest(t)

		sess, err := session.RestoreSession(
			"chat-9",
			session.StateAwaitingFeedback,
			&session.ProductSelection{ProductID: "p-1", UnitPrice: 100},
			&delivery,
			"1. Pepperoni x2",
			&orderID,
		)
		require.NoError(t, err)
		assert.Equal(t, session.StateAwaitingFeedback, sess.State())
		assert.Equal(t, "1. Pepperoni x2", sess.CartSummary())
		assert.True(t, sess.AlreadyConfirmed(orderID))
	})

	t.Run("invalid state rejected", func(t *testing.T) {
		_, err := session.RestoreSession("chat-9", session.StateUnknown, nil, nil, "", nil)
		require.Error(t, err)
	})

	t.Run("invalid slot rejected", func(t *testing.T) {
		_, err := session.RestoreSession("chat-9", session.StateStart,
			&session.ProductSelection{}, nil, "", nil)
		require.Error(t, err)
	})
}
