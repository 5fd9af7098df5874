package jobs

import (
	"context"
	"time"

	"github.com/dvloznov/bank-portal-sync/internal/logger"
)

// Schedule publishes a scheduled sync immediately and then every interval
// until ctx is done. A non-positive interval publishes once.
func Schedule(ctx context.Context, publisher Publisher, interval time.Duration) {
	log := logger.FromContext(ctx)

	publish := func() {
		job := &SyncJob{Trigger: TriggerSchedule}
		if err := publisher.PublishSync(ctx, job); err != nil {
			if ctx.Err() == nil {
				log.Error().Err(err).Msg("Failed to schedule sync")
			}
			return
		}
		log.Info().Str("job_id", job.JobID).Msg("Scheduled sync")
	}

	publish()
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			publish()
		}
	}
}
