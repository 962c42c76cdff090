// Package scheduler provides the in-process response timer for courier
// offers. One timer exists per (order, attempt) pair; a fired timer invokes
// the engine's timeout entry point on its own goroutine.
//
// Timers live in process memory. After a restart they are gone, which is
// why the jobs package runs a stale-offer sweep against the database as a
// backstop. Correctness never depends on a timer firing exactly once: the
// timeout handler's state guard neutralizes late and duplicate fires.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"dispatch/internal/core/domain/model/kernel"
)

// FireFunc is invoked when an offer's response window elapses.
type FireFunc func(ctx context.Context, orderID, courierID kernel.UUID, attempt int)

type timerKey struct {
	orderID string
	attempt int
}

// OfferScheduler arms and cancels response timers. Safe for concurrent use.
type OfferScheduler struct {
	timeout time.Duration
	logger  *slog.Logger

	mu     sync.Mutex
	fire   FireFunc
	timers map[timerKey]*time.Timer
}

// NewOfferScheduler creates a scheduler with the configured response
// window. SetFireFunc must be called before the first Arm.
func NewOfferScheduler(timeout time.Duration, logger *slog.Logger) *OfferScheduler {
	return &OfferScheduler{
		timeout: timeout,
		logger:  logger.With("component", "offer_scheduler"),
		timers:  make(map[timerKey]*time.Timer),
	}
}

// SetFireFunc wires the expiry callback. Separate from the constructor
// because the timeout handler and the scheduler reference each other.
func (s *OfferScheduler) SetFireFunc(fire FireFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fire = fire
}

// Arm schedules the response timer for an offer just made. Re-arming the
// same (order, attempt) pair replaces the previous timer.
func (s *OfferScheduler) Arm(orderID, courierID kernel.UUID, attempt int) {
	key := timerKey{orderID: orderID.String(), attempt: attempt}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fire == nil {
		s.logger.Error("offer scheduler armed without a fire func",
			"order_id", key.orderID, "attempt", attempt)
		return
	}

	if old, ok := s.timers[key]; ok {
		old.Stop()
	}

	s.timers[key] = time.AfterFunc(s.timeout, func() {
		s.expire(key, orderID, courierID, attempt)
	})
}

// Cancel stops the timer for an attempt that has resolved. Cancelling an
// unknown or already-fired timer is a no-op.
func (s *OfferScheduler) Cancel(orderID kernel.UUID, attempt int) {
	key := timerKey{orderID: orderID.String(), attempt: attempt}

	s.mu.Lock()
	defer s.mu.Unlock()

	if timer, ok := s.timers[key]; ok {
		timer.Stop()
		delete(s.timers, key)
	}
}

// Shutdown stops every pending timer. Orders left Assigned are recovered by
// the stale-offer sweep on the next start.
func (s *OfferScheduler) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, timer := range s.timers {
		timer.Stop()
		delete(s.timers, key)
	}
}

func (s *OfferScheduler) expire(key timerKey, orderID, courierID kernel.UUID, attempt int) {
	s.mu.Lock()
	delete(s.timers, key)
	fire := s.fire
	s.mu.Unlock()

	s.logger.Info("offer response window elapsed",
		"order_id", key.orderID, "attempt", attempt)

	fire(context.Background(), orderID, courierID, attempt)
}
