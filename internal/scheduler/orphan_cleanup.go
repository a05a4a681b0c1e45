package scheduler

import (
	"context"

	"anoa.com/tutorhub/pkg/logger"
)

// OrphanCleaner removes stored files that no resource references.
type OrphanCleaner interface {
	CleanupOrphanFiles(ctx context.Context) (int, error)
}

type orphanCleanupJob struct {
	cleaner  OrphanCleaner
	schedule string
	log      *logger.Logger
}

func NewOrphanCleanupJob(cleaner OrphanCleaner, schedule string, log *logger.Logger) Job {
	return &orphanCleanupJob{cleaner: cleaner, schedule: schedule, log: log}
}

func (j *orphanCleanupJob) Name() string     { return "orphan-file-cleanup" }
func (j *orphanCleanupJob) Schedule() string { return j.schedule }

func (j *orphanCleanupJob) Run(ctx context.Context) error {
	removed, err := j.cleaner.CleanupOrphanFiles(ctx)
	if err != nil {
		return err
	}
	if removed > 0 {
		j.log.Info("orphan files removed", "count", removed)
	}
	return nil
}
