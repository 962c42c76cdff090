package jobs

import (
	"fmt"
)

// JobManager coordinates the scheduled jobs in the application.
// Provides a unified interface to start and stop all background jobs.
type JobManager struct {
	dispatchSweep   *DispatchSweepJob
	staleOfferSweep *StaleOfferSweepJob
}

// NewJobManager creates a job manager over the two sweeps.
func NewJobManager(dispatchSweep *DispatchSweepJob, staleOfferSweep *StaleOfferSweepJob) *JobManager {
	return &JobManager{
		dispatchSweep:   dispatchSweep,
		staleOfferSweep: staleOfferSweep,
	}
}

// StartAll starts all scheduled jobs.
// Returns an error if any job fails to start.
func (jm *JobManager) StartAll() error {
	if err := jm.dispatchSweep.Start(); err != nil {
		return fmt.Errorf("failed to start dispatch sweep: %w", err)
	}

	if err := jm.staleOfferSweep.Start(); err != nil {
		// Stop already started jobs if this one fails
		jm.dispatchSweep.Stop()
		return fmt.Errorf("failed to start stale offer sweep: %w", err)
	}

	return nil
}

// StopAll stops all scheduled jobs gracefully.
func (jm *JobManager) StopAll() {
	jm.staleOfferSweep.Stop()
	jm.dispatchSweep.Stop()
}
