package order_test

import (
	"fmt"
	"testing"

	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_Validate(t *testing.T) {
	t.Run("should validate all lifecycle statuses", func(t *testing.T) {
		validStatuses := []order.Status{
			order.Pending,
			order.Confirmed,
			order.Searching,
			order.Assigned,
			order.Accepted,
			order.PickingUp,
			order.PickedUp,
			order.InTransit,
			order.AtDoor,
			order.Delivered,
			order.Rejected,
			order.Cancelled,
		}

		for _, status := range validStatuses {
			t.Run(status.String(), func(t *testing.T) {
				require.NoError(t, status.Validate())
			})
		}
	})

	t.Run("should reject Unknown and out-of-range values", func(t *testing.T) {
		invalidStatuses := []order.Status{
			order.Unknown,
			order.Status(-1),
			order.Status(100),
		}

		for _, status := range invalidStatuses {
			t.Run(fmt.Sprintf("value %d", int(status)), func(t *testing.T) {
				err := status.Validate()

				require.Error(t, err)
				assert.IsType(t, &errs.ValueIsInvalidError{}, err)
				assert.Contains(t, err.Error(), "status is invalid")
			})
		}
	})
}

func TestStatus_String(t *testing.T) {
	testCases := []struct {
		status   order.Status
		expected string
	}{
		{order.Pending, "Pending"},
		{order.Confirmed, "Confirmed"},
		{order.Searching, "Searching"},
		{order.Assigned, "Assigned"},
		{order.Accepted, "Accepted"},
		{order.PickingUp, "PickingUp"},
		{order.PickedUp, "PickedUp"},
		{order.InTransit, "InTransit"},
		{order.AtDoor, "AtDoor"},
		{order.Delivered, "Delivered"},
		{order.Rejected, "Rejected"},
		{order.Cancelled, "Cancelled"},
		{order.Unknown, "Unknown"},
		{order.Status(100), "Unknown"},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, tc.status.String())
	}
}

func TestStatusFromString(t *testing.T) {
	t.Run("round trips every lifecycle status", func(t *testing.T) {
		statuses := []order.Status{
			order.Pending, order.Confirmed, order.Searching, order.Assigned,
			order.Accepted, order.PickingUp, order.PickedUp, order.InTransit,
			order.AtDoor, order.Delivered, order.Rejected, order.Cancelled,
		}

		for _, status := range statuses {
			parsed, err := order.StatusFromString(status.String())
			require.NoError(t, err)
			assert.Equal(t, status, parsed)
		}
	})

	t.Run("rejects Unknown", func(t *testing.T) {
		_, err := order.StatusFromString("Unknown")
		assert.Error(t, err)
	})

	t.Run("rejects unrecognized names", func(t *testing.T) {
		_, err := order.StatusFromString("Exploded")
		assert.Error(t, err)
	})
}

func TestStatus_IsTerminal(t *testing.T) {
	terminal := []order.Status{order.Delivered, order.Rejected, order.Cancelled}
	for _, status := range terminal {
		assert.True(t, status.IsTerminal(), "%s should be terminal", status)
	}

	nonTerminal := []order.Status{
		order.Pending, order.Confirmed, order.Searching, order.Assigned,
		order.Accepted, order.PickingUp, order.PickedUp, order.InTransit, order.AtDoor,
	}
	for _, status := range nonTerminal {
		assert.False(t, status.IsTerminal(), "%s should not be terminal", status)
	}
}

func TestStatus_IsAssignedPhase(t *testing.T) {
	assigned := []order.Status{
		order.Assigned, order.Accepted, order.PickingUp,
		order.PickedUp, order.InTransit, order.AtDoor,
	}
	for _, status := range assigned {
		assert.True(t, status.IsAssignedPhase(), "%s should require a holder", status)
	}

	unassigned := []order.Status{
		order.Pending, order.Confirmed, order.Searching,
		order.Delivered, order.Rejected, order.Cancelled,
	}
	for _, status := range unassigned {
		assert.False(t, status.IsAssignedPhase(), "%s should not have a holder", status)
	}
}

func TestStatus_ValidateCanHaveCourier(t *testing.T) {
	t.Run("assigned phase requires a courier", func(t *testing.T) {
		require.NoError(t, order.Assigned.ValidateCanHaveCourier(true))
		assert.Error(t, order.Assigned.ValidateCanHaveCourier(false))
	})

	t.Run("search phase forbids a courier", func(t *testing.T) {
		require.NoError(t, order.Searching.ValidateCanHaveCourier(false))
		assert.Error(t, order.Searching.ValidateCanHaveCourier(true))
	})

	t.Run("terminal statuses forbid a courier", func(t *testing.T) {
		require.NoError(t, order.Delivered.ValidateCanHaveCourier(false))
		assert.Error(t, order.Delivered.ValidateCanHaveCourier(true))
	})
}

func TestStatus_Transitions(t *testing.T) {
	t.Run("Confirm", func(t *testing.T) {
		next, err := order.Pending.Confirm()
		require.NoError(t, err)
		assert.Equal(t, order.Confirmed, next)

		_, err = order.Searching.Confirm()
		assert.Error(t, err)
	})

	t.Run("StartSearch", func(t *testing.T) {
		next, err := order.Confirmed.StartSearch()
		require.NoError(t, err)
		assert.Equal(t, order.Searching, next)

		// Searching stays Searching so a retry can re-enter dispatch.
		next, err = order.Searching.StartSearch()
		require.NoError(t, err)
		assert.Equal(t, order.Searching, next)

		_, err = order.Pending.StartSearch()
		assert.Error(t, err)
	})

	t.Run("Assign", func(t *testing.T) {
		next, err := order.Searching.Assign()
		require.NoError(t, err)
		assert.Equal(t, order.Assigned, next)

		_, err = order.Confirmed.Assign()
		assert.Error(t, err)
		_, err = order.Assigned.Assign()
		assert.Error(t, err)
	})

	t.Run("Accept", func(t *testing.T) {
		next, err := order.Assigned.Accept()
		require.NoError(t, err)
		assert.Equal(t, order.Accepted, next)

		_, err = order.Searching.Accept()
		assert.Error(t, err)
	})

	t.Run("Release", func(t *testing.T) {
		next, err := order.Assigned.Release()
		require.NoError(t, err)
		assert.Equal(t, order.Searching, next)

		_, err = order.Accepted.Release()
		assert.Error(t, err)
	})

	t.Run("MarkRejected", func(t *testing.T) {
		next, err := order.Searching.MarkRejected()
		require.NoError(t, err)
		assert.Equal(t, order.Rejected, next)

		_, err = order.Assigned.MarkRejected()
		assert.Error(t, err)
	})

	t.Run("Cancel", func(t *testing.T) {
		cancellable := []order.Status{
			order.Pending, order.Confirmed, order.Searching, order.Assigned,
			order.Accepted, order.PickingUp, order.PickedUp, order.InTransit, order.AtDoor,
		}
		for _, status := range cancellable {
			next, err := status.Cancel()
			require.NoError(t, err, "%s should be cancellable", status)
			assert.Equal(t, order.Cancelled, next)
		}

		for _, status := range []order.Status{order.Delivered, order.Rejected, order.Cancelled} {
			_, err := status.Cancel()
			assert.Error(t, err, "%s should not be cancellable", status)
		}

		_, err := order.Unknown.Cancel()
		assert.Error(t, err)
	})
}

func TestNewProgressChain(t *testing.T) {
	t.Run("full chain", func(t *testing.T) {
		chain, err := order.NewProgressChain()
		require.NoError(t, err)

		next, err := chain.Next(order.Accepted)
		require.NoError(t, err)
		assert.Equal(t, order.PickingUp, next)
	})

	t.Run("cannot skip Accepted or Delivered", func(t *testing.T) {
		_, err := order.NewProgressChain(order.Accepted)
		assert.Error(t, err)

		_, err = order.NewProgressChain(order.Delivered)
		assert.Error(t, err)
	})

	t.Run("rejects statuses outside the progression", func(t *testing.T) {
		_, err := order.NewProgressChain(order.Searching)
		assert.Error(t, err)
	})
}

func TestProgressChain_Next(t *testing.T) {
	t.Run("walks the full progression", func(t *testing.T) {
		chain, err := order.NewProgressChain()
		require.NoError(t, err)

		expected := []order.Status{
			order.PickingUp, order.PickedUp, order.InTransit, order.AtDoor, order.Delivered,
		}

		current := order.Accepted
		for _, want := range expected {
			next, err := chain.Next(current)
			require.NoError(t, err)
			assert.Equal(t, want, next)
			current = next
		}
	})

	t.Run("skips disabled statuses", func(t *testing.T) {
		chain, err := order.NewProgressChain(order.PickingUp, order.AtDoor)
		require.NoError(t, err)

		next, err := chain.Next(order.Accepted)
		require.NoError(t, err)
		assert.Equal(t, order.PickedUp, next)

		next, err = chain.Next(order.InTransit)
		require.NoError(t, err)
		assert.Equal(t, order.Delivered, next)
	})

	t.Run("Delivered has no successor", func(t *testing.T) {
		chain, err := order.NewProgressChain()
		require.NoError(t, err)

		_, err = chain.Next(order.Delivered)
		assert.Error(t, err)
	})

	t.Run("statuses outside the progression have no successor", func(t *testing.T) {
		chain, err := order.NewProgressChain()
		require.NoError(t, err)

		_, err = chain.Next(order.Searching)
		assert.Error(t, err)
	})
}

func TestProgressChain_Progress(t *testing.T) {
	chain, err := order.NewProgressChain()
	require.NoError(t, err)

	t.Run("accepts the next enabled status", func(t *testing.T) {
		next, err := chain.Progress(order.Accepted, order.PickingUp)
		require.NoError(t, err)
		assert.Equal(t, order.PickingUp, next)
	})

	t.Run("rejects skipping ahead", func(t *testing.T) {
		_, err := chain.Progress(order.Accepted, order.Delivered)
		assert.Error(t, err)
	})

	t.Run("rejects moving backwards", func(t *testing.T) {
		_, err := chain.Progress(order.InTransit, order.PickedUp)
		assert.Error(t, err)
	})
}
