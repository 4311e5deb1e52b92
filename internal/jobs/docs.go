// Package jobs provides scheduled background tasks for the ordering bot.
//
// This package implements cron-based jobs using github.com/robfig/cron/v3
// to handle the periodic operations the conversation engine relies on.
//
// # Available Jobs
//
// 1. FeedbackPromptJob - Runs every second to fire feedback prompts whose delay elapsed
// 2. LocationRefreshJob - Runs every ten minutes to reload the pizzeria location snapshot
//
// # Usage
//
// Jobs are managed through JobManager which provides a unified interface:
//
//	jobManager := jobs.NewJobManager(scheduler, engine, catalog, logger)
//
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//
//	defer jobManager.StopAll()
//
// # Error Handling
//
//   - A failed feedback prompt is logged and dropped; the conversation stays
//     in the feedback state and the begin command always recovers it
//   - A failed location refresh keeps the previous snapshot in use
//   - Failed job starts will stop any already running jobs
package jobs
