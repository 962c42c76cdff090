package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"dispatch/internal/core/application/usecases/commands"

	"github.com/robfig/cron/v3"
)

// staleOfferGrace is how far past the response window an offer must be
// before the sweep touches it. The in-process timer resolves live offers;
// the sweep only recovers offers whose timer died with the process.
const staleOfferGrace = 5 * time.Second

// StaleOfferSweepJob expires Assigned offers that outlived their response
// window. Defaults to running every ten seconds as a restart backstop for
// the in-process offer scheduler.
//
// Feeding a stale offer through the regular timeout handler keeps one
// resolution path: if the offer was already resolved (or the timer fires
// concurrently), the state guard discards the duplicate.
type StaleOfferSweepJob struct {
	uowFactory      commands.OrderUoWFactory
	handler         commands.OfferTimeoutCommandHandler
	responseTimeout time.Duration
	spec            string
	cron            *cron.Cron
	logger          *slog.Logger
}

// NewStaleOfferSweepJob creates the stale-offer sweep. responseTimeout is
// the same window the offer scheduler arms; spec is a cron-with-seconds
// expression for the sweep cadence.
func NewStaleOfferSweepJob(
	uowFactory commands.OrderUoWFactory,
	handler commands.OfferTimeoutCommandHandler,
	responseTimeout time.Duration,
	spec string,
	logger *slog.Logger,
) *StaleOfferSweepJob {
	return &StaleOfferSweepJob{
		uowFactory:      uowFactory,
		handler:         handler,
		responseTimeout: responseTimeout,
		spec:            spec,
		cron:            cron.New(cron.WithSeconds()),
		logger:          logger.With("component", "stale_offer_sweep_job"),
	}
}

// Start begins the stale-offer sweep on its configured cadence.
func (j *StaleOfferSweepJob) Start() error {
	_, err := j.cron.AddFunc(j.spec, func() {
		ctx := context.Background()
		if err := j.sweep(ctx); err != nil {
			j.logger.ErrorContext(ctx, "stale offer sweep failed", "error", err)
		}
	})

	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "stale offer sweep started", "spec", j.spec)
	return nil
}

// Stop stops the stale-offer sweep.
func (j *StaleOfferSweepJob) Stop() {
	j.cron.Stop()
	j.logger.InfoContext(context.Background(), "stale offer sweep stopped")
}

func (j *StaleOfferSweepJob) sweep(ctx context.Context) error {
	uow := j.uowFactory.Create()

	cutoff := time.Now().UTC().Add(-j.responseTimeout - staleOfferGrace)
	stale, err := uow.OrderRepository().GetAssignedBefore(ctx, cutoff)
	if err != nil {
		return err
	}

	for _, ord := range stale {
		holder := ord.Courier()
		if holder == nil {
			continue
		}

		cmd, cmdErr := commands.NewOfferTimeoutCommand(ord.ID(), *holder, ord.AttemptCount())
		if cmdErr != nil {
			j.logger.ErrorContext(ctx, "stale offer command failed",
				"order_id", ord.ID().String(), "error", cmdErr)
			continue
		}

		j.logger.WarnContext(ctx, "expiring stale offer",
			"order_id", ord.ID().String(), "attempt", ord.AttemptCount())

		if handleErr := j.handler.Handle(ctx, cmd); handleErr != nil &&
			!errors.Is(handleErr, commands.ErrAlreadyResolved) {
			j.logger.ErrorContext(ctx, "stale offer expiry failed",
				"order_id", ord.ID().String(), "error", handleErr)
		}
	}

	return nil
}
