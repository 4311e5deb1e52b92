package jobs

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// LocationRefresher reloads the fulfillment location snapshot from the
// commerce backend. The engine's location catalog satisfies it.
type LocationRefresher interface {
	Refresh(ctx context.Context) error
}

// LocationRefreshJob periodically refreshes the fulfillment location
// snapshot so new or moved pizzerias show up without a restart.
type LocationRefreshJob struct {
	refresher LocationRefresher
	cron      *cron.Cron
	logger    *slog.Logger
}

// NewLocationRefreshJob creates the refresh job.
func NewLocationRefreshJob(refresher LocationRefresher, logger *slog.Logger) *LocationRefreshJob {
	return &LocationRefreshJob{
		refresher: refresher,
		cron:      cron.New(cron.WithSeconds()),
		logger:    logger.With("component", "location_refresh_job"),
	}
}

// Start begins the refresh, running every ten minutes.
func (j *LocationRefreshJob) Start() error {
	_, err := j.cron.AddFunc("0 */10 * * * *", func() {
		ctx := context.Background()
		if err := j.refresher.Refresh(ctx); err != nil {
			// The previous snapshot stays in use until a refresh succeeds.
			j.logger.ErrorContext(ctx, "Location refresh failed", "error", err)
		}
	})
	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Location refresh job started (running every ten minutes)")
	return nil
}

// Stop stops the refresh job.
func (j *LocationRefreshJob) Stop() {
	j.cron.Stop()
	j.logger.InfoContext(context.Background(), "Location refresh job stopped")
}
