package commands_test

import (
	"context"
	"testing"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestOfferTimeoutCommandHandler_Handle_ExpiresAndRedispatches(t *testing.T) {
	ctx := context.Background()

	courierID := kernel.NewUUID()
	testOrder := newAssignedOrder(t, courierID)
	testCourier := newBusyCourier(t)

	orderRepo := new(MockOrderRepository)
	courierRepo := new(MockCourierRepository)
	uow := new(MockUoW)
	uowFactory := new(MockUoWFactory)
	notifier := new(MockNotificationSender)

	uowFactory.On("Create").Return(uow).Once()
	uow.On("Begin", ctx).Return(nil).Once()
	uow.On("OrderRepository").Return(orderRepo).Once()
	uow.On("CourierRepository").Return(courierRepo).Once()
	orderRepo.On("Get", ctx, testOrder.ID()).Return(testOrder, nil).Once()
	orderRepo.On("UpdateGuarded", ctx, testOrder, ports.OrderGuard{
		Status:    order.Assigned,
		CourierID: &courierID,
		Attempt:   1,
	}).Return(true, nil).Once()
	courierRepo.On("Get", ctx, courierID).Return(testCourier, nil).Once()
	courierRepo.On("UpdateGuarded", ctx, testCourier, courier.Busy).Return(true, nil).Once()
	uow.On("Commit", ctx).Return(nil).Once()
	uow.On("Rollback", ctx).Return(nil).Once()
	notifier.On("NotifyCourierOfferExpired", ctx, testCourier, testOrder.ID()).Return(nil).Once()

	dispatcher, redispatch := newRedispatchMocks(t, ctx, testOrder)

	handler := commands.NewOfferTimeoutCommandHandler(uowFactory, notifier, dispatcher, testLogger())
	cmd, err := commands.NewOfferTimeoutCommand(testOrder.ID(), courierID, 1)
	require.NoError(t, err)

	err = handler.Handle(ctx, cmd)
	require.NoError(t, err)

	assert.True(t, testOrder.IsExcluded(courierID))
	assert.Equal(t, courier.Available, testCourier.Availability())
	assert.Equal(t, order.Rejected, testOrder.Status())

	mock.AssertExpectationsForObjects(t, orderRepo, courierRepo, uow, uowFactory, notifier,
		redispatch.orderRepo, redispatch.courierRepo, redispatch.uow, redispatch.notifier)
}

func TestOfferTimeoutCommandHandler_Handle_StaleAttempt_ResolvesBenignly(t *testing.T) {
	ctx := context.Background()

	// The order was re-offered already; a timer armed for attempt 1 fires
	// against an order that is on attempt 2.
	firstCourier := kernel.NewUUID()
	secondCourier := kernel.NewUUID()

	testOrder := newSearchingOrder(t)
	require.NoError(t, testOrder.Assign(firstCourier))
	require.NoError(t, testOrder.Release(firstCourier))
	require.NoError(t, testOrder.Assign(secondCourier))
	require.Equal(t, 2, testOrder.AttemptCount())

	orderRepo := new(MockOrderRepository)
	uow := new(MockUoW)
	uowFactory := new(MockUoWFactory)
	notifier := new(MockNotificationSender)
	dispatcherFactory := new(MockUoWFactory)

	uowFactory.On("Create").Return(uow).Once()
	uow.On("Begin", ctx).Return(nil).Once()
	uow.On("OrderRepository").Return(orderRepo).Once()
	orderRepo.On("Get", ctx, testOrder.ID()).Return(testOrder, nil).Once()
	uow.On("Rollback", ctx).Return(nil).Once()

	dispatcher := newDispatchHandler(t, dispatcherFactory, new(MockNotificationSender), new(MockOfferScheduler))
	handler := commands.NewOfferTimeoutCommandHandler(uowFactory, notifier, dispatcher, testLogger())

	cmd, err := commands.NewOfferTimeoutCommand(testOrder.ID(), firstCourier, 1)
	require.NoError(t, err)

	err = handler.Handle(ctx, cmd)
	assert.ErrorIs(t, err, commands.ErrAlreadyResolved)

	// The stale fire must leave the live attempt untouched.
	assert.Equal(t, order.Assigned, testOrder.Status())
	require.NotNil(t, testOrder.Courier())
	assert.True(t, testOrder.Courier().IsEqual(secondCourier))
	notifier.AssertNotCalled(t, "NotifyCourierOfferExpired", mock.Anything, mock.Anything, mock.Anything)
	dispatcherFactory.AssertNotCalled(t, "Create")
}

func TestOfferTimeoutCommandHandler_Handle_CourierAlreadyReleased(t *testing.T) {
	ctx := context.Background()

	// A crash-recovery sweep can release the courier before the in-process
	// timer fires. Winning the order guard with an already-Available courier
	// is tolerated without touching the courier row.
	courierID := kernel.NewUUID()
	testOrder := newAssignedOrder(t, courierID)
	testCourier := newMatchableCourier(t)

	orderRepo := new(MockOrderRepository)
	courierRepo := new(MockCourierRepository)
	uow := new(MockUoW)
	uowFactory := new(MockUoWFactory)
	notifier := new(MockNotificationSender)

	uowFactory.On("Create").Return(uow).Once()
	uow.On("Begin", ctx).Return(nil).Once()
	uow.On("OrderRepository").Return(orderRepo).Once()
	uow.On("CourierRepository").Return(courierRepo).Once()
	orderRepo.On("Get", ctx, testOrder.ID()).Return(testOrder, nil).Once()
	orderRepo.On("UpdateGuarded", ctx, testOrder, mock.AnythingOfType("ports.OrderGuard")).
		Return(true, nil).Once()
	courierRepo.On("Get", ctx, courierID).Return(testCourier, nil).Once()
	uow.On("Commit", ctx).Return(nil).Once()
	uow.On("Rollback", ctx).Return(nil).Once()
	notifier.On("NotifyCourierOfferExpired", ctx, testCourier, testOrder.ID()).Return(nil).Once()

	dispatcher, redispatch := newRedispatchMocks(t, ctx, testOrder)

	handler := commands.NewOfferTimeoutCommandHandler(uowFactory, notifier, dispatcher, testLogger())
	cmd, err := commands.NewOfferTimeoutCommand(testOrder.ID(), courierID, 1)
	require.NoError(t, err)

	err = handler.Handle(ctx, cmd)
	require.NoError(t, err)

	courierRepo.AssertNotCalled(t, "UpdateGuarded", mock.Anything, mock.Anything, mock.Anything)
	mock.AssertExpectationsForObjects(t, orderRepo, courierRepo, uow, notifier,
		redispatch.orderRepo, redispatch.uow)
}

func TestOfferTimeoutCommandHandler_Handle_GuardLost_ResolvesBenignly(t *testing.T) {
	ctx := context.Background()

	courierID := kernel.NewUUID()
	testOrder := newAssignedOrder(t, courierID)

	orderRepo := new(MockOrderRepository)
	uow := new(MockUoW)
	uowFactory := new(MockUoWFactory)
	notifier := new(MockNotificationSender)
	dispatcherFactory := new(MockUoWFactory)

	uowFactory.On("Create").Return(uow).Once()
	uow.On("Begin", ctx).Return(nil).Once()
	uow.On("OrderRepository").Return(orderRepo).Once()
	orderRepo.On("Get", ctx, testOrder.ID()).Return(testOrder, nil).Once()
	orderRepo.On("UpdateGuarded", ctx, testOrder, mock.AnythingOfType("ports.OrderGuard")).
		Return(false, nil).Once()
	uow.On("Rollback", ctx).Return(nil).Once()

	dispatcher := newDispatchHandler(t, dispatcherFactory, new(MockNotificationSender), new(MockOfferScheduler))
	handler := commands.NewOfferTimeoutCommandHandler(uowFactory, notifier, dispatcher, testLogger())

	cmd, err := commands.NewOfferTimeoutCommand(testOrder.ID(), courierID, 1)
	require.NoError(t, err)

	err = handler.Handle(ctx, cmd)
	assert.ErrorIs(t, err, commands.ErrAlreadyResolved)

	uow.AssertNotCalled(t, "Commit", mock.Anything)
	notifier.AssertNotCalled(t, "NotifyCourierOfferExpired", mock.Anything, mock.Anything, mock.Anything)
	dispatcherFactory.AssertNotCalled(t, "Create")
}

func TestOfferTimeoutCommand_RejectsInvalidAttempt(t *testing.T) {
	_, err := commands.NewOfferTimeoutCommand(kernel.NewUUID(), kernel.NewUUID(), 0)
	assert.Error(t, err)

	_, err = commands.NewOfferTimeoutCommand(kernel.NewUUID(), kernel.NewUUID(), -3)
	assert.Error(t, err)
}
