// Package jobs provides scheduled background tasks for the dispatch engine.
//
// This package implements cron-based jobs using github.com/robfig/cron/v3
// to handle the periodic operations the engine needs.
//
// # Available Jobs
//
// 1. DispatchSweepJob - Runs every second to pick up Confirmed orders and
// start their courier search
// 2. StaleOfferSweepJob - Runs every ten seconds to expire Assigned offers
// whose in-process response timer was lost to a restart
//
// # Usage
//
// Jobs are managed through JobManager which provides a unified interface:
//
//	jobManager := jobs.NewJobManager(dispatchSweep, staleOfferSweep)
//
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//
//	defer jobManager.StopAll()
//
// # Error Handling
//
// Both sweeps treat the engine's benign outcomes (nothing to dispatch, no
// courier available, attempt already resolved) as normal ticks and only log
// unexpected failures.
package jobs
