package jobs

import (
	"context"
	"errors"
	"log/slog"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/errs"

	"github.com/robfig/cron/v3"
)

// DispatchSweepJob starts the courier search for orders that reached
// Confirmed. Defaults to running every second so a confirmed order never
// waits longer than one tick for its first attempt.
//
// The sweep takes the oldest Confirmed or Searching order per tick.
// Searching orders show up here when a release committed but the follow-up
// attempt never ran (a crash or error between commit and re-dispatch);
// without the sweep nothing would ever pick them up again. Racing a
// concurrent sweep or API call on the same order is harmless: the dispatch
// handler's guarded save lets exactly one writer through.
type DispatchSweepJob struct {
	uowFactory commands.OrderUoWFactory
	handler    commands.DispatchOrderCommandHandler
	spec       string
	cron       *cron.Cron
	logger     *slog.Logger
}

// NewDispatchSweepJob creates the dispatch sweep. spec is a cron-with-seconds
// expression for the sweep cadence.
func NewDispatchSweepJob(
	uowFactory commands.OrderUoWFactory,
	handler commands.DispatchOrderCommandHandler,
	spec string,
	logger *slog.Logger,
) *DispatchSweepJob {
	return &DispatchSweepJob{
		uowFactory: uowFactory,
		handler:    handler,
		spec:       spec,
		cron:       cron.New(cron.WithSeconds()),
		logger:     logger.With("component", "dispatch_sweep_job"),
	}
}

// Start begins the dispatch sweep on its configured cadence.
func (j *DispatchSweepJob) Start() error {
	_, err := j.cron.AddFunc(j.spec, func() {
		ctx := context.Background()
		if err := j.sweep(ctx); err != nil {
			j.logger.ErrorContext(ctx, "dispatch sweep failed", "error", err)
		}
	})

	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "dispatch sweep started", "spec", j.spec)
	return nil
}

// Stop stops the dispatch sweep.
func (j *DispatchSweepJob) Stop() {
	j.cron.Stop()
	j.logger.InfoContext(context.Background(), "dispatch sweep stopped")
}

func (j *DispatchSweepJob) sweep(ctx context.Context) error {
	uow := j.uowFactory.Create()

	ord, err := uow.OrderRepository().GetFirstInStatus(ctx, order.Confirmed, order.Searching)
	if errors.Is(err, errs.ErrObjectNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	cmd, err := commands.NewDispatchOrderCommand(ord.ID())
	if err != nil {
		return err
	}

	err = j.handler.Handle(ctx, cmd)
	if err == nil || commands.IsBenignDispatchOutcome(err) {
		return nil
	}

	return err
}
