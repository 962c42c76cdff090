package cmd

import (
	"context"
	"log/slog"

	"dispatch/internal/adapters/out/geo"
	"dispatch/internal/adapters/out/postgres"
	"dispatch/internal/adapters/out/push"
	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/jobs"
	"dispatch/internal/scheduler"

	"gorm.io/gorm"
)

// CompositionRoot wires the engine: repositories, domain services, command
// and query handlers, the offer scheduler and the background sweeps.
type CompositionRoot struct {
	gormDB     *gorm.DB
	uowFactory postgres.GormUnitOfWorkFactory
	logger     *slog.Logger

	offerScheduler *scheduler.OfferScheduler
	notifier       *push.Sender
	pickup         kernel.GeoPoint
	maxAttempts    int
	progressChain  order.ProgressChain
	selector       services.CourierSelector
	pricing        services.PricingCalculator
	estimator      services.RouteEstimator
	fallback       services.RouteEstimator

	jobManager *jobs.JobManager
}

// NewCompositionRoot builds the object graph from configuration. The offer
// scheduler is armed but idle until StartJobs.
func NewCompositionRoot(config Config, gormDB *gorm.DB, logger *slog.Logger) (*CompositionRoot, error) {
	pickup, err := kernel.NewGeoPoint(config.RestaurantLat, config.RestaurantLon)
	if err != nil {
		return nil, err
	}

	pricing, err := services.NewPricingCalculator(
		config.DeliveryBasePrice, config.DeliveryPricePerKm, config.CustomerFeeMarkup)
	if err != nil {
		return nil, err
	}

	fallback, err := geo.NewGreatCircleEstimator(config.AverageSpeedKmh)
	if err != nil {
		return nil, err
	}

	var estimator services.RouteEstimator = fallback
	if config.OSRMBaseURL != "" {
		estimator = geo.NewOSRMEstimator(config.OSRMBaseURL)
	}

	skip := make([]order.Status, 0, len(config.ProgressSkipStatuses))
	for _, name := range config.ProgressSkipStatuses {
		status, statusErr := order.StatusFromString(name)
		if statusErr != nil {
			return nil, statusErr
		}
		skip = append(skip, status)
	}
	progressChain, err := order.NewProgressChain(skip...)
	if err != nil {
		return nil, err
	}

	root := &CompositionRoot{
		gormDB:         gormDB,
		uowFactory:     *postgres.NewGormUnitOfWorkFactory(gormDB),
		logger:         logger,
		offerScheduler: scheduler.NewOfferScheduler(config.ResponseTimeout, logger),
		notifier:       push.NewSender(config.PushGatewayURL, config.PushAPIKey, logger),
		pickup:         pickup,
		maxAttempts:    config.MaxAssignmentAttempts,
		progressChain:  progressChain,
		selector:       services.NewCourierSelector(estimator, fallback),
		pricing:        pricing,
		estimator:      estimator,
		fallback:       fallback,
	}

	timeoutHandler := root.CreateOfferTimeoutCommandHandler()
	root.offerScheduler.SetFireFunc(func(ctx context.Context, orderID, courierID kernel.UUID, attempt int) {
		cmd, cmdErr := commands.NewOfferTimeoutCommand(orderID, courierID, attempt)
		if cmdErr != nil {
			logger.ErrorContext(ctx, "offer timeout command failed", "error", cmdErr)
			return
		}
		if fireErr := timeoutHandler.Handle(ctx, cmd); fireErr != nil &&
			!commands.IsBenignDispatchOutcome(fireErr) {
			logger.ErrorContext(ctx, "offer timeout handling failed",
				"order_id", orderID.String(), "error", fireErr)
		}
	})

	root.jobManager = jobs.NewJobManager(
		jobs.NewDispatchSweepJob(root.orderUoWFactory(), root.CreateDispatchOrderCommandHandler(),
			config.DispatchSweepSpec, logger),
		jobs.NewStaleOfferSweepJob(root.orderUoWFactory(), timeoutHandler,
			config.ResponseTimeout, config.StaleOfferSweepSpec, logger),
	)

	return root, nil
}

// StartJobs starts the background sweeps.
func (c *CompositionRoot) StartJobs() error {
	return c.jobManager.StartAll()
}

// Shutdown stops the sweeps and every pending offer timer.
func (c *CompositionRoot) Shutdown() {
	c.jobManager.StopAll()
	c.offerScheduler.Shutdown()
}

func (c *CompositionRoot) uowFactoryFor() commands.UoWFactory {
	return FuncUoWFactory(func() commands.UoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) orderUoWFactory() commands.OrderUoWFactory {
	return FuncOrderUoWFactory(func() commands.OrderUoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) courierUoWFactory() commands.CourierUoWFactory {
	return FuncCourierUoWFactory(func() commands.CourierUoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) CreateCreateOrderCommandHandler() commands.CreateOrderCommandHandler {
	return commands.NewCreateOrderCommandHandler(
		c.orderUoWFactory(), c.estimator, c.fallback, c.pricing, c.pickup, c.logger)
}

func (c *CompositionRoot) CreateConfirmOrderCommandHandler() commands.ConfirmOrderCommandHandler {
	return commands.NewConfirmOrderCommandHandler(c.orderUoWFactory(), c.logger)
}

func (c *CompositionRoot) CreateCancelOrderCommandHandler() commands.CancelOrderCommandHandler {
	return commands.NewCancelOrderCommandHandler(
		c.uowFactoryFor(), c.notifier, c.offerScheduler, c.logger)
}

func (c *CompositionRoot) CreateDispatchOrderCommandHandler() commands.DispatchOrderCommandHandler {
	return commands.NewDispatchOrderCommandHandler(
		c.uowFactoryFor(), c.selector, c.notifier, c.offerScheduler,
		c.pickup, c.maxAttempts, c.logger)
}

func (c *CompositionRoot) CreateAcceptOrderCommandHandler() commands.AcceptOrderCommandHandler {
	return commands.NewAcceptOrderCommandHandler(
		c.uowFactoryFor(), c.notifier, c.offerScheduler, c.logger)
}

func (c *CompositionRoot) CreateRejectOrderCommandHandler() commands.RejectOrderCommandHandler {
	return commands.NewRejectOrderCommandHandler(
		c.uowFactoryFor(), c.offerScheduler, c.CreateDispatchOrderCommandHandler(), c.logger)
}

func (c *CompositionRoot) CreateOfferTimeoutCommandHandler() commands.OfferTimeoutCommandHandler {
	return commands.NewOfferTimeoutCommandHandler(
		c.uowFactoryFor(), c.notifier, c.CreateDispatchOrderCommandHandler(), c.logger)
}

func (c *CompositionRoot) CreateProgressOrderCommandHandler() commands.ProgressOrderCommandHandler {
	return commands.NewProgressOrderCommandHandler(
		c.uowFactoryFor(), c.progressChain, c.notifier, c.logger)
}

func (c *CompositionRoot) CreateRegisterCourierCommandHandler() commands.RegisterCourierCommandHandler {
	return commands.NewRegisterCourierCommandHandler(c.courierUoWFactory(), c.logger)
}

func (c *CompositionRoot) CreateReportCourierLocationCommandHandler() commands.ReportCourierLocationCommandHandler {
	return commands.NewReportCourierLocationCommandHandler(c.courierUoWFactory(), c.logger)
}

func (c *CompositionRoot) CreateSetCourierAvailabilityCommandHandler() commands.SetCourierAvailabilityCommandHandler {
	return commands.NewSetCourierAvailabilityCommandHandler(c.courierUoWFactory(), c.logger)
}

func (c *CompositionRoot) CreateGetAllCouriersQueryHandler() queries.GetAllCouriersQueryHandler {
	return queries.NewGetAllCouriersQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateGetActiveOrdersQueryHandler() queries.GetActiveOrdersQueryHandler {
	return queries.NewGetActiveOrdersQueryHandler(c.gormDB)
}

type FuncCourierUoWFactory func() commands.CourierUoW

func (f FuncCourierUoWFactory) Create() commands.CourierUoW {
	return f()
}

type FuncOrderUoWFactory func() commands.OrderUoW

func (f FuncOrderUoWFactory) Create() commands.OrderUoW {
	return f()
}

type FuncUoWFactory func() commands.UoW

func (f FuncUoWFactory) Create() commands.UoW {
	return f()
}
