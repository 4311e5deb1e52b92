package jobs

import (
	"context"
	"log/slog"

	"pizzeria/internal/core/domain/model/session"

	"github.com/robfig/cron/v3"
)

// FeedbackPrompter sends the deferred feedback question for one identity.
// The conversation engine satisfies it.
type FeedbackPrompter interface {
	PromptFeedback(ctx context.Context, identity session.Identity) error
}

// FeedbackPromptJob sweeps the feedback scheduler every second and prompts
// every identity whose delay has elapsed.
type FeedbackPromptJob struct {
	scheduler *FeedbackScheduler
	prompter  FeedbackPrompter
	cron      *cron.Cron
	logger    *slog.Logger
}

// NewFeedbackPromptJob creates the sweep job over the scheduler.
func NewFeedbackPromptJob(
	scheduler *FeedbackScheduler, prompter FeedbackPrompter, logger *slog.Logger,
) *FeedbackPromptJob {
	return &FeedbackPromptJob{
		scheduler: scheduler,
		prompter:  prompter,
		cron:      cron.New(cron.WithSeconds()),
		logger:    logger.With("component", "feedback_prompt_job"),
	}
}

// Start begins the sweep, running every second.
func (j *FeedbackPromptJob) Start() error {
	_, err := j.cron.AddFunc("* * * * * *", func() {
		j.sweep(context.Background())
	})
	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Feedback prompt job started (running every second)")
	return nil
}

// Stop stops the sweep.
func (j *FeedbackPromptJob) Stop() {
	j.cron.Stop()
	j.logger.InfoContext(context.Background(), "Feedback prompt job stopped")
}

func (j *FeedbackPromptJob) sweep(ctx context.Context) {
	for _, task := range j.scheduler.popDue() {
		if err := j.prompter.PromptFeedback(ctx, task.identity); err != nil {
			j.logger.ErrorContext(ctx, "Feedback prompt failed",
				"identity", task.identity, "error", err)
		}
	}
}
