package commands_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryDispatchStore is a serialized in-memory stand-in for the order and
// courier stores. Begin takes a store-wide lock that Commit or Rollback
// release, so every transaction sees committed state only and the guarded
// saves behave like the SQL conditional updates: the compare and the write
// are atomic with respect to every other writer.
//
// resolutions counts guarded order saves whose expectation was the offered
// attempt (status Assigned); it is how the tests observe that concurrent
// Accept, Reject and TimerFire events produce exactly one effective
// transition.
type memoryDispatchStore struct {
	mu          sync.Mutex
	ord         *order.Order
	couriers    map[kernel.UUID]*courier.Courier
	resolutions int
}

type memoryUoWFactory struct {
	store *memoryDispatchStore
}

func (f memoryUoWFactory) Create() commands.UoW {
	return &memoryUoW{store: f.store}
}

type memoryUoW struct {
	store  *memoryDispatchStore
	active bool
	staged []func()
}

func (u *memoryUoW) Begin(_ context.Context) error {
	u.store.mu.Lock()
	u.active = true
	return nil
}

func (u *memoryUoW) Commit(_ context.Context) error {
	if !u.active {
		return nil
	}
	for _, apply := range u.staged {
		apply()
	}
	u.staged = nil
	u.active = false
	u.store.mu.Unlock()
	return nil
}

func (u *memoryUoW) Rollback(_ context.Context) error {
	if !u.active {
		return nil
	}
	u.staged = nil
	u.active = false
	u.store.mu.Unlock()
	return nil
}

func (u *memoryUoW) OrderRepository() ports.OrderRepository {
	return &memoryOrderRepository{uow: u}
}

func (u *memoryUoW) CourierRepository() ports.CourierRepository {
	return &memoryCourierRepository{uow: u}
}

type memoryOrderRepository struct {
	uow *memoryUoW
}

func (r *memoryOrderRepository) Add(_ context.Context, o *order.Order) error {
	clone, err := cloneOrder(o)
	if err != nil {
		return err
	}
	r.uow.staged = append(r.uow.staged, func() { r.uow.store.ord = clone })
	return nil
}

func (r *memoryOrderRepository) Update(ctx context.Context, o *order.Order) error {
	return r.Add(ctx, o)
}

func (r *memoryOrderRepository) UpdateGuarded(
	_ context.Context,
	o *order.Order,
	expected ports.OrderGuard,
) (bool, error) {
	store := r.uow.store
	live := store.ord
	if live == nil || !live.ID().IsEqual(o.ID()) {
		return false, nil
	}
	if live.Status() != expected.Status || live.AttemptCount() != expected.Attempt {
		return false, nil
	}
	switch {
	case expected.CourierID == nil:
		if live.Courier() != nil {
			return false, nil
		}
	case live.Courier() == nil || !live.Courier().IsEqual(*expected.CourierID):
		return false, nil
	}

	clone, err := cloneOrder(o)
	if err != nil {
		return false, err
	}
	r.uow.staged = append(r.uow.staged, func() {
		store.ord = clone
		if expected.Status == order.Assigned {
			store.resolutions++
		}
	})
	return true, nil
}

func (r *memoryOrderRepository) Get(_ context.Context, id kernel.UUID) (*order.Order, error) {
	live := r.uow.store.ord
	if live == nil || !live.ID().IsEqual(id) {
		return nil, errs.NewObjectNotFoundError("order", id.String())
	}
	return cloneOrder(live)
}

func (r *memoryOrderRepository) GetFirstInStatus(_ context.Context, statuses ...order.Status) (*order.Order, error) {
	live := r.uow.store.ord
	for _, status := range statuses {
		if live != nil && live.Status() == status {
			return cloneOrder(live)
		}
	}
	return nil, errs.NewObjectNotFoundError("order", "first in requested statuses")
}

func (r *memoryOrderRepository) GetAssignedBefore(context.Context, time.Time) ([]*order.Order, error) {
	return nil, nil
}

type memoryCourierRepository struct {
	uow *memoryUoW
}

func (r *memoryCourierRepository) Add(_ context.Context, c *courier.Courier) error {
	clone, err := cloneCourier(c)
	if err != nil {
		return err
	}
	r.uow.staged = append(r.uow.staged, func() { r.uow.store.couriers[c.ID()] = clone })
	return nil
}

func (r *memoryCourierRepository) UpdateGuarded(
	_ context.Context,
	c *courier.Courier,
	expected courier.Availability,
) (bool, error) {
	store := r.uow.store
	live, ok := store.couriers[c.ID()]
	if !ok || live.Availability() != expected {
		return false, nil
	}

	clone, err := cloneCourier(c)
	if err != nil {
		return false, err
	}
	r.uow.staged = append(r.uow.staged, func() { store.couriers[c.ID()] = clone })
	return true, nil
}

func (r *memoryCourierRepository) UpdatePosition(_ context.Context, c *courier.Courier) error {
	store := r.uow.store
	live, ok := store.couriers[c.ID()]
	if !ok {
		return errs.NewObjectNotFoundError("courier", c.ID().String())
	}

	clone, err := cloneCourier(live)
	if err != nil {
		return err
	}
	if position := c.LastPosition(); position != nil {
		if err = clone.ReportPosition(*position); err != nil {
			return err
		}
	}
	r.uow.staged = append(r.uow.staged, func() { store.couriers[c.ID()] = clone })
	return nil
}

func (r *memoryCourierRepository) Get(_ context.Context, id kernel.UUID) (*courier.Courier, error) {
	live, ok := r.uow.store.couriers[id]
	if !ok {
		return nil, errs.NewObjectNotFoundError("courier", id.String())
	}
	return cloneCourier(live)
}

func (r *memoryCourierRepository) GetAllAvailable(
	_ context.Context,
	excluding []kernel.UUID,
) ([]*courier.Courier, error) {
	var matchable []*courier.Courier
	for _, live := range r.uow.store.couriers {
		if !live.IsMatchable() || isExcluded(live.ID(), excluding) {
			continue
		}
		clone, err := cloneCourier(live)
		if err != nil {
			return nil, err
		}
		matchable = append(matchable, clone)
	}
	return matchable, nil
}

func isExcluded(id kernel.UUID, excluding []kernel.UUID) bool {
	for _, excluded := range excluding {
		if id.IsEqual(excluded) {
			return true
		}
	}
	return false
}

func cloneOrder(src *order.Order) (*order.Order, error) {
	var courierID *kernel.UUID
	if src.Courier() != nil {
		id := *src.Courier()
		courierID = &id
	}
	excluded := append([]kernel.UUID(nil), src.ExcludedCouriers()...)

	return order.RestoreOrder(
		src.ID(), src.CustomerID(), src.Dropoff(),
		order.Quote{
			DistanceKm:      src.DistanceKm(),
			EtaMinutes:      src.EtaMinutes(),
			CourierEarnings: src.Earnings(),
			CustomerFee:     src.Fee(),
		},
		src.Status(), courierID, excluded, src.AttemptCount(),
		src.AssignedAt(), src.AcceptedAt(), src.PickedUpAt(), src.DeliveredAt(),
		src.Notes(), src.PaymentMethod(),
	)
}

func cloneCourier(src *courier.Courier) (*courier.Courier, error) {
	return courier.RestoreCourier(
		src.ID(), src.Name(), src.Phone(), src.Vehicle(),
		src.Availability(), src.LastPosition(), src.PositionAt(),
		src.PushToken(), src.IsActive(),
	)
}

type noopNotificationSender struct{}

func (noopNotificationSender) NotifyCourierOffer(context.Context, *courier.Courier, ports.OrderSummary) error {
	return nil
}

func (noopNotificationSender) NotifyCourierOfferExpired(context.Context, *courier.Courier, kernel.UUID) error {
	return nil
}

func (noopNotificationSender) NotifyCustomer(context.Context, kernel.UUID, ports.CustomerEvent) error {
	return nil
}

type noopOfferScheduler struct{}

func (noopOfferScheduler) Arm(kernel.UUID, kernel.UUID, int) {}
func (noopOfferScheduler) Cancel(kernel.UUID, int)           {}

// Accept, Reject and TimerFire racing for the same offered attempt must
// produce exactly one effective transition, whichever order the three land
// in: the losers resolve benignly and the final state depends only on the
// winner, never on the interleaving.
func TestAssignmentEvents_ConcurrentResolution_ExactlyOneWins(t *testing.T) {
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		testCourier := newBusyCourier(t)
		testOrder := newAssignedOrder(t, testCourier.ID())

		committedOrder, err := cloneOrder(testOrder)
		require.NoError(t, err)
		committedCourier, err := cloneCourier(testCourier)
		require.NoError(t, err)

		store := &memoryDispatchStore{
			ord:      committedOrder,
			couriers: map[kernel.UUID]*courier.Courier{testCourier.ID(): committedCourier},
		}
		factory := memoryUoWFactory{store: store}

		dispatcher := commands.NewDispatchOrderCommandHandler(
			factory, testSelector(), noopNotificationSender{}, noopOfferScheduler{},
			testPickup(t), testMaxAttempts, testLogger())
		acceptHandler := commands.NewAcceptOrderCommandHandler(
			factory, noopNotificationSender{}, noopOfferScheduler{}, testLogger())
		rejectHandler := commands.NewRejectOrderCommandHandler(
			factory, noopOfferScheduler{}, dispatcher, testLogger())
		timeoutHandler := commands.NewOfferTimeoutCommandHandler(
			factory, noopNotificationSender{}, dispatcher, testLogger())

		acceptCmd, err := commands.NewAcceptOrderCommand(testOrder.ID(), testCourier.ID())
		require.NoError(t, err)
		rejectCmd, err := commands.NewRejectOrderCommand(testOrder.ID(), testCourier.ID())
		require.NoError(t, err)
		timeoutCmd, err := commands.NewOfferTimeoutCommand(testOrder.ID(), testCourier.ID(), 1)
		require.NoError(t, err)

		var wg sync.WaitGroup
		results := make([]error, 3)
		wg.Add(3)
		go func() {
			defer wg.Done()
			results[0] = acceptHandler.Handle(ctx, acceptCmd)
		}()
		go func() {
			defer wg.Done()
			results[1] = rejectHandler.Handle(ctx, rejectCmd)
		}()
		go func() {
			defer wg.Done()
			results[2] = timeoutHandler.Handle(ctx, timeoutCmd)
		}()
		wg.Wait()

		for _, handleErr := range results {
			require.True(t, handleErr == nil || errors.Is(handleErr, commands.ErrAlreadyResolved),
				"unexpected outcome: %v", handleErr)
		}

		require.Equal(t, 1, store.resolutions, "offered attempt resolved more than once")

		final := store.ord
		finalCourier := store.couriers[testCourier.ID()]
		switch final.Status() {
		case order.Accepted:
			require.NotNil(t, final.Courier())
			assert.True(t, final.Courier().IsEqual(testCourier.ID()))
			assert.Equal(t, courier.Busy, finalCourier.Availability())
		case order.Rejected:
			// A release won; the immediate follow-up attempt had no
			// non-excluded candidate and terminated the order.
			assert.Nil(t, final.Courier())
			assert.True(t, final.IsExcluded(testCourier.ID()))
			assert.Equal(t, courier.Available, finalCourier.Availability())
		default:
			t.Fatalf("order finished in %s; want Accepted or Rejected", final.Status())
		}
	}
}
