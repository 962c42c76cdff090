package commands

import (
	"context"
	"log/slog"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/services"
)

// CreateOrderCommandHandler registers a new order with its distance and
// pricing quote. The quote is computed once here, from the pickup point to
// the dropoff, and reused unchanged on every later dispatch attempt.
type CreateOrderCommandHandler struct {
	uowFactory OrderUoWFactory
	estimator  services.RouteEstimator
	fallback   services.RouteEstimator
	pricing    services.PricingCalculator
	pickup     kernel.GeoPoint
	logger     *slog.Logger
}

// NewCreateOrderCommandHandler creates a handler for order registration.
// estimator quotes the delivery route; fallback takes over when it fails
// and must not depend on the network.
func NewCreateOrderCommandHandler(
	uowFactory OrderUoWFactory,
	estimator services.RouteEstimator,
	fallback services.RouteEstimator,
	pricing services.PricingCalculator,
	pickup kernel.GeoPoint,
	logger *slog.Logger,
) CreateOrderCommandHandler {
	return CreateOrderCommandHandler{
		uowFactory: uowFactory,
		estimator:  estimator,
		fallback:   fallback,
		pricing:    pricing,
		pickup:     pickup,
		logger:     logger.With("component", "create_order_handler"),
	}
}

// Handle registers the order in Pending with its computed quote.
func (h CreateOrderCommandHandler) Handle(ctx context.Context, command CreateOrderCommand) error {
	if err := command.Validate(); err != nil {
		return err
	}

	quote, err := h.quote(ctx, command.Dropoff())
	if err != nil {
		return err
	}

	ord, err := order.NewOrder(
		command.OrderID(),
		command.CustomerID(),
		command.Dropoff(),
		quote,
		command.Notes(),
		command.PaymentMethod(),
	)
	if err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err = uow.OrderRepository().Add(ctx, ord); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	h.logger.InfoContext(ctx, "order created",
		"order_id", ord.ID().String(),
		"distance_km", quote.DistanceKm,
		"earnings", quote.CourierEarnings.String())

	return nil
}

func (h CreateOrderCommandHandler) quote(ctx context.Context, dropoff kernel.GeoPoint) (order.Quote, error) {
	route, err := h.estimator.RouteTo(ctx, h.pickup, dropoff)
	if err != nil && h.fallback != nil {
		h.logger.WarnContext(ctx, "route estimation failed, using fallback", "error", err)
		route, err = h.fallback.RouteTo(ctx, h.pickup, dropoff)
	}
	if err != nil {
		return order.Quote{}, err
	}

	earnings, err := h.pricing.CalculateEarnings(route.DistanceKm)
	if err != nil {
		return order.Quote{}, err
	}
	fee, err := h.pricing.CalculateFee(route.DistanceKm)
	if err != nil {
		return order.Quote{}, err
	}

	return order.Quote{
		DistanceKm:      route.DistanceKm,
		EtaMinutes:      route.Minutes,
		CourierEarnings: earnings,
		CustomerFee:     fee,
	}, nil
}
