package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tailorly/tailor-server-go/internal/config"
	"github.com/tailorly/tailor-server-go/internal/repository"
)

// CleanupJob prunes aged usage events. Rate limiting counts in Redis and the
// free tier counts on the account row, so events older than the retention
// window serve no lookup and can go.
type CleanupJob struct {
	usageEventRepo repository.UsageEventRepository
	interval       time.Duration
	done           chan struct{}
}

func NewCleanupJob(usageEventRepo repository.UsageEventRepository, interval time.Duration) *CleanupJob {
	return &CleanupJob{
		usageEventRepo: usageEventRepo,
		interval:       interval,
		done:           make(chan struct{}),
	}
}

func (j *CleanupJob) Start() {
	go j.run()
	log.Info().Dur("interval", j.interval).Msg("cleanup job started")
}

func (j *CleanupJob) Stop() {
	close(j.done)
	log.Info().Msg("cleanup job stopped")
}

func (j *CleanupJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.cleanup()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.cleanup()
		}
	}
}

func (j *CleanupJob) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cutoff := time.Now().Add(-config.UsageEventRetention)
	count, err := j.usageEventRepo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		log.Error().Err(err).Msg("failed to cleanup usage events")
	} else if count > 0 {
		log.Info().Int64("count", count).Msg("cleaned up usage events")
	}
}
