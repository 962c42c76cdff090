package order_test

import (
	"testing"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testQuote(t *testing.T) order.Quote {
	t.Helper()

	earnings, err := kernel.NewMoneyFromFloat(23)
	require.NoError(t, err)
	fee, err := kernel.NewMoneyFromFloat(23)
	require.NoError(t, err)

	return order.Quote{
		DistanceKm:      10,
		EtaMinutes:      20,
		CourierEarnings: earnings,
		CustomerFee:     fee,
	}
}

func testDropoff(t *testing.T) kernel.GeoPoint {
	t.Helper()

	dropoff, err := kernel.NewGeoPoint(52.5205, 13.4095)
	require.NoError(t, err)
	return dropoff
}

func newPendingOrder(t *testing.T) *order.Order {
	t.Helper()

	ord, err := order.NewOrder(kernel.NewUUID(), kernel.NewUUID(),
		testDropoff(t), testQuote(t), "ring twice", "card")
	require.NoError(t, err)
	return ord
}

func newSearchingOrder(t *testing.T) *order.Order {
	t.Helper()

	ord := newPendingOrder(t)
	require.NoError(t, ord.Confirm())
	require.NoError(t, ord.StartSearch())
	return ord
}

func TestNewOrder(t *testing.T) {
	t.Run("creates a pending order", func(t *testing.T) {
		ord := newPendingOrder(t)

		assert.NoError(t, ord.Validate())
		assert.Equal(t, order.Pending, ord.Status())
		assert.Equal(t, 0, ord.AttemptCount())
		assert.Nil(t, ord.Courier())
		assert.Empty(t, ord.ExcludedCouriers())
		assert.InDelta(t, 10.0, ord.DistanceKm(), 0.001)
		assert.Equal(t, 20, ord.EtaMinutes())
		assert.Equal(t, "ring twice", ord.Notes())
		assert.Equal(t, "card", ord.PaymentMethod())
	})

	t.Run("rejects zero-value ids", func(t *testing.T) {
		_, err := order.NewOrder(kernel.UUID{}, kernel.NewUUID(),
			testDropoff(t), testQuote(t), "", "card")
		assert.Error(t, err)

		_, err = order.NewOrder(kernel.NewUUID(), kernel.UUID{},
			testDropoff(t), testQuote(t), "", "card")
		assert.Error(t, err)
	})

	t.Run("rejects zero-value dropoff", func(t *testing.T) {
		_, err := order.NewOrder(kernel.NewUUID(), kernel.NewUUID(),
			kernel.GeoPoint{}, testQuote(t), "", "card")
		assert.Error(t, err)
	})

	t.Run("rejects negative quote values", func(t *testing.T) {
		quote := testQuote(t)
		quote.DistanceKm = -1
		_, err := order.NewOrder(kernel.NewUUID(), kernel.NewUUID(),
			testDropoff(t), quote, "", "card")
		assert.Error(t, err)

		quote = testQuote(t)
		quote.EtaMinutes = -1
		_, err = order.NewOrder(kernel.NewUUID(), kernel.NewUUID(),
			testDropoff(t), quote, "", "card")
		assert.Error(t, err)
	})
}

func TestOrder_Validate_NotConstructed(t *testing.T) {
	var ord order.Order

	err := ord.Validate()

	require.Error(t, err)
	assert.ErrorIs(t, err, order.ErrOrderIsNotConstructed)
}

func TestOrder_Assign(t *testing.T) {
	t.Run("assigns and increments the attempt counter", func(t *testing.T) {
		ord := newSearchingOrder(t)
		courierID := kernel.NewUUID()

		require.NoError(t, ord.Assign(courierID))

		assert.Equal(t, order.Assigned, ord.Status())
		require.NotNil(t, ord.Courier())
		assert.True(t, ord.Courier().IsEqual(courierID))
		assert.Equal(t, 1, ord.AttemptCount())
		assert.NotNil(t, ord.AssignedAt())
	})

	t.Run("attempt counter never decreases across release cycles", func(t *testing.T) {
		ord := newSearchingOrder(t)

		for attempt := 1; attempt <= 3; attempt++ {
			courierID := kernel.NewUUID()
			require.NoError(t, ord.Assign(courierID))
			assert.Equal(t, attempt, ord.AttemptCount())
			require.NoError(t, ord.Release(courierID))
			assert.Equal(t, attempt, ord.AttemptCount())
		}
	})

	t.Run("rejects excluded couriers", func(t *testing.T) {
		ord := newSearchingOrder(t)
		courierID := kernel.NewUUID()

		require.NoError(t, ord.Assign(courierID))
		require.NoError(t, ord.Release(courierID))

		err := ord.Assign(courierID)
		assert.ErrorIs(t, err, order.ErrCourierIsExcluded)
	})

	t.Run("rejects assignment outside Searching", func(t *testing.T) {
		ord := newPendingOrder(t)
		assert.Error(t, ord.Assign(kernel.NewUUID()))
	})
}

func TestOrder_Accept(t *testing.T) {
	t.Run("holder accepts", func(t *testing.T) {
		ord := newSearchingOrder(t)
		courierID := kernel.NewUUID()
		require.NoError(t, ord.Assign(courierID))

		require.NoError(t, ord.Accept(courierID))

		assert.Equal(t, order.Accepted, ord.Status())
		assert.NotNil(t, ord.AcceptedAt())
		require.NotNil(t, ord.Courier())
		assert.True(t, ord.Courier().IsEqual(courierID))
	})

	t.Run("non-holder cannot accept", func(t *testing.T) {
		ord := newSearchingOrder(t)
		require.NoError(t, ord.Assign(kernel.NewUUID()))

		err := ord.Accept(kernel.NewUUID())
		assert.ErrorIs(t, err, order.ErrCourierIsNotHolder)
	})

	t.Run("cannot accept without assignment", func(t *testing.T) {
		ord := newSearchingOrder(t)
		assert.Error(t, ord.Accept(kernel.NewUUID()))
	})
}

func TestOrder_Release(t *testing.T) {
	t.Run("returns to Searching and grows the exclusion set", func(t *testing.T) {
		ord := newSearchingOrder(t)
		first := kernel.NewUUID()
		second := kernel.NewUUID()

		require.NoError(t, ord.Assign(first))
		require.NoError(t, ord.Release(first))

		assert.Equal(t, order.Searching, ord.Status())
		assert.Nil(t, ord.Courier())
		assert.True(t, ord.IsExcluded(first))

		require.NoError(t, ord.Assign(second))
		require.NoError(t, ord.Release(second))

		assert.Len(t, ord.ExcludedCouriers(), 2)
		assert.True(t, ord.IsExcluded(first))
		assert.True(t, ord.IsExcluded(second))
	})

	t.Run("non-holder cannot release", func(t *testing.T) {
		ord := newSearchingOrder(t)
		require.NoError(t, ord.Assign(kernel.NewUUID()))

		err := ord.Release(kernel.NewUUID())
		assert.ErrorIs(t, err, order.ErrCourierIsNotHolder)
	})

	t.Run("cannot release an accepted order", func(t *testing.T) {
		ord := newSearchingOrder(t)
		courierID := kernel.NewUUID()
		require.NoError(t, ord.Assign(courierID))
		require.NoError(t, ord.Accept(courierID))

		assert.Error(t, ord.Release(courierID))
	})

	t.Run("ExcludedCouriers returns a copy", func(t *testing.T) {
		ord := newSearchingOrder(t)
		courierID := kernel.NewUUID()
		require.NoError(t, ord.Assign(courierID))
		require.NoError(t, ord.Release(courierID))

		excluded := ord.ExcludedCouriers()
		excluded[0] = kernel.NewUUID()

		assert.True(t, ord.IsExcluded(courierID))
	})
}

func TestOrder_Progress(t *testing.T) {
	chain, err := order.NewProgressChain()
	require.NoError(t, err)

	acceptedOrder := func(t *testing.T) (*order.Order, kernel.UUID) {
		t.Helper()
		ord := newSearchingOrder(t)
		courierID := kernel.NewUUID()
		require.NoError(t, ord.Assign(courierID))
		require.NoError(t, ord.Accept(courierID))
		return ord, courierID
	}

	t.Run("walks the delivery progression to Delivered", func(t *testing.T) {
		ord, courierID := acceptedOrder(t)

		steps := []order.Status{
			order.PickingUp, order.PickedUp, order.InTransit, order.AtDoor, order.Delivered,
		}
		for _, target := range steps {
			require.NoError(t, ord.Progress(courierID, target, chain))
			assert.Equal(t, target, ord.Status())
		}

		assert.NotNil(t, ord.PickedUpAt())
		assert.NotNil(t, ord.DeliveredAt())
		assert.Nil(t, ord.Courier(), "delivery clears the holder")
	})

	t.Run("rejects skipping a step", func(t *testing.T) {
		ord, courierID := acceptedOrder(t)

		err := ord.Progress(courierID, order.Delivered, chain)
		assert.Error(t, err)
		assert.Equal(t, order.Accepted, ord.Status())
	})

	t.Run("non-holder cannot progress", func(t *testing.T) {
		ord, _ := acceptedOrder(t)

		err := ord.Progress(kernel.NewUUID(), order.PickingUp, chain)
		assert.ErrorIs(t, err, order.ErrCourierIsNotHolder)
	})

	t.Run("collapsed chain jumps over disabled statuses", func(t *testing.T) {
		shortChain, err := order.NewProgressChain(order.PickingUp, order.InTransit, order.AtDoor)
		require.NoError(t, err)

		ord, courierID := acceptedOrder(t)

		require.NoError(t, ord.Progress(courierID, order.PickedUp, shortChain))
		require.NoError(t, ord.Progress(courierID, order.Delivered, shortChain))

		assert.Equal(t, order.Delivered, ord.Status())
	})
}

func TestOrder_MarkRejected(t *testing.T) {
	t.Run("terminates a searching order", func(t *testing.T) {
		ord := newSearchingOrder(t)

		require.NoError(t, ord.MarkRejected())

		assert.Equal(t, order.Rejected, ord.Status())
		assert.True(t, ord.Status().IsTerminal())
	})

	t.Run("cannot reject an assigned order", func(t *testing.T) {
		ord := newSearchingOrder(t)
		require.NoError(t, ord.Assign(kernel.NewUUID()))

		assert.Error(t, ord.MarkRejected())
	})
}

func TestOrder_Cancel(t *testing.T) {
	t.Run("cancels an unassigned order", func(t *testing.T) {
		ord := newPendingOrder(t)

		require.NoError(t, ord.Cancel())

		assert.Equal(t, order.Cancelled, ord.Status())
	})

	t.Run("cancelling an assigned order clears the holder", func(t *testing.T) {
		ord := newSearchingOrder(t)
		require.NoError(t, ord.Assign(kernel.NewUUID()))

		require.NoError(t, ord.Cancel())

		assert.Equal(t, order.Cancelled, ord.Status())
		assert.Nil(t, ord.Courier())
	})

	t.Run("cannot cancel a terminal order", func(t *testing.T) {
		ord := newSearchingOrder(t)
		require.NoError(t, ord.MarkRejected())

		assert.Error(t, ord.Cancel())
	})
}

func TestRestoreOrder(t *testing.T) {
	t.Run("restores an assigned order", func(t *testing.T) {
		courierID := kernel.NewUUID()
		excluded := []kernel.UUID{kernel.NewUUID()}
		assignedAt := time.Now().UTC()

		ord, err := order.RestoreOrder(
			kernel.NewUUID(), kernel.NewUUID(), testDropoff(t), testQuote(t),
			order.Assigned, &courierID, excluded, 2,
			&assignedAt, nil, nil, nil,
			"", "cash",
		)
		require.NoError(t, err)

		assert.Equal(t, order.Assigned, ord.Status())
		require.NotNil(t, ord.Courier())
		assert.True(t, ord.Courier().IsEqual(courierID))
		assert.Equal(t, 2, ord.AttemptCount())
		assert.True(t, ord.IsExcluded(excluded[0]))
	})

	t.Run("enforces the holder invariant", func(t *testing.T) {
		courierID := kernel.NewUUID()

		// Searching with a holder.
		_, err := order.RestoreOrder(
			kernel.NewUUID(), kernel.NewUUID(), testDropoff(t), testQuote(t),
			order.Searching, &courierID, nil, 1,
			nil, nil, nil, nil,
			"", "card",
		)
		assert.Error(t, err)

		// Assigned without a holder.
		_, err = order.RestoreOrder(
			kernel.NewUUID(), kernel.NewUUID(), testDropoff(t), testQuote(t),
			order.Assigned, nil, nil, 1,
			nil, nil, nil, nil,
			"", "card",
		)
		assert.Error(t, err)
	})

	t.Run("rejects invalid status and attempt count", func(t *testing.T) {
		_, err := order.RestoreOrder(
			kernel.NewUUID(), kernel.NewUUID(), testDropoff(t), testQuote(t),
			order.Unknown, nil, nil, 0,
			nil, nil, nil, nil,
			"", "card",
		)
		assert.Error(t, err)

		_, err = order.RestoreOrder(
			kernel.NewUUID(), kernel.NewUUID(), testDropoff(t), testQuote(t),
			order.Searching, nil, nil, -1,
			nil, nil, nil, nil,
			"", "card",
		)
		assert.Error(t, err)
	})
}
