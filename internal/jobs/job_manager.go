package jobs

import (
	"fmt"
	"log/slog"
)

// JobManager coordinates all scheduled jobs in the application.
// Provides a unified interface to start and stop all background jobs.
type JobManager struct {
	feedbackPromptJob  *FeedbackPromptJob
	locationRefreshJob *LocationRefreshJob
}

// NewJobManager creates a new job manager with all required jobs.
func NewJobManager(
	scheduler *FeedbackScheduler,
	prompter FeedbackPrompter,
	refresher LocationRefresher,
	logger *slog.Logger,
) *JobManager {
	return &JobManager{
		feedbackPromptJob:  NewFeedbackPromptJob(scheduler, prompter, logger),
		locationRefreshJob: NewLocationRefreshJob(refresher, logger),
	}
}

// StartAll starts all scheduled jobs.
// Returns an error if any job fails to start.
func (jm *JobManager) StartAll() error {
	if err := jm.feedbackPromptJob.Start(); err != nil {
		return fmt.Errorf("failed to start feedback prompt job: %w", err)
	}

	if err := jm.locationRefreshJob.Start(); err != nil {
		// Stop already started jobs if this one fails
		jm.feedbackPromptJob.Stop()
		return fmt.Errorf("failed to start location refresh job: %w", err)
	}

	return nil
}

// StopAll stops all scheduled jobs gracefully.
func (jm *JobManager) StopAll() {
	jm.locationRefreshJob.Stop()
	jm.feedbackPromptJob.Stop()
}
