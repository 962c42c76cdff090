package commands_test

import (
	"context"
	"time"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/core/ports"

	"github.com/stretchr/testify/mock"
)

// Shared hand-written mocks for the handler tests in this package.

type MockOrderRepository struct{ mock.Mock }

func (m *MockOrderRepository) Add(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) Update(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) UpdateGuarded(
	ctx context.Context,
	o *order.Order,
	expected ports.OrderGuard,
) (bool, error) {
	args := m.Called(ctx, o, expected)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) GetFirstInStatus(ctx context.Context, statuses ...order.Status) (*order.Order, error) {
	args := m.Called(ctx, statuses)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) GetAssignedBefore(ctx context.Context, cutoff time.Time) ([]*order.Order, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Order), args.Error(1)
}

type MockCourierRepository struct{ mock.Mock }

func (m *MockCourierRepository) Add(ctx context.Context, c *courier.Courier) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCourierRepository) UpdateGuarded(
	ctx context.Context,
	c *courier.Courier,
	expected courier.Availability,
) (bool, error) {
	args := m.Called(ctx, c, expected)
	return args.Bool(0), args.Error(1)
}

func (m *MockCourierRepository) UpdatePosition(ctx context.Context, c *courier.Courier) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCourierRepository) Get(ctx context.Context, id kernel.UUID) (*courier.Courier, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*courier.Courier), args.Error(1)
}

func (m *MockCourierRepository) GetAllAvailable(
	ctx context.Context,
	excluding []kernel.UUID,
) ([]*courier.Courier, error) {
	args := m.Called(ctx, excluding)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*courier.Courier), args.Error(1)
}

type MockUoW struct{ mock.Mock }

func (m *MockUoW) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUoW) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUoW) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUoW) OrderRepository() ports.OrderRepository {
	args := m.Called()
	return args.Get(0).(ports.OrderRepository)
}

func (m *MockUoW) CourierRepository() ports.CourierRepository {
	args := m.Called()
	return args.Get(0).(ports.CourierRepository)
}

type MockUoWFactory struct{ mock.Mock }

func (m *MockUoWFactory) Create() commands.UoW {
	args := m.Called()
	return args.Get(0).(commands.UoW)
}

type MockOrderUoWFactory struct{ mock.Mock }

func (m *MockOrderUoWFactory) Create() commands.OrderUoW {
	args := m.Called()
	return args.Get(0).(commands.OrderUoW)
}

type MockCourierUoWFactory struct{ mock.Mock }

func (m *MockCourierUoWFactory) Create() commands.CourierUoW {
	args := m.Called()
	return args.Get(0).(commands.CourierUoW)
}

type MockNotificationSender struct{ mock.Mock }

func (m *MockNotificationSender) NotifyCourierOffer(
	ctx context.Context,
	c *courier.Courier,
	summary ports.OrderSummary,
) error {
	args := m.Called(ctx, c, summary)
	return args.Error(0)
}

func (m *MockNotificationSender) NotifyCourierOfferExpired(
	ctx context.Context,
	c *courier.Courier,
	orderID kernel.UUID,
) error {
	args := m.Called(ctx, c, orderID)
	return args.Error(0)
}

func (m *MockNotificationSender) NotifyCustomer(
	ctx context.Context,
	customerID kernel.UUID,
	event ports.CustomerEvent,
) error {
	args := m.Called(ctx, customerID, event)
	return args.Error(0)
}

type MockOfferScheduler struct{ mock.Mock }

func (m *MockOfferScheduler) Arm(orderID, courierID kernel.UUID, attempt int) {
	m.Called(orderID, courierID, attempt)
}

func (m *MockOfferScheduler) Cancel(orderID kernel.UUID, attempt int) {
	m.Called(orderID, attempt)
}

// constantEstimator returns the same route for every pair of points.
type constantEstimator struct {
	route services.Route
}

func (e constantEstimator) RouteTo(_ context.Context, _, _ kernel.GeoPoint) (services.Route, error) {
	return e.route, nil
}
