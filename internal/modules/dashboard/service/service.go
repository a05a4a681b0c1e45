package service

import (
	"context"
	"time"

	"anoa.com/tutorhub/internal/entity"
	activityRepo "anoa.com/tutorhub/internal/modules/activity/repository"
	"anoa.com/tutorhub/internal/modules/dashboard/dto"
	dashboardRepo "anoa.com/tutorhub/internal/modules/dashboard/repository"
	rewardRepo "anoa.com/tutorhub/internal/modules/reward/repository"
	"anoa.com/tutorhub/pkg/apperror"
	"anoa.com/tutorhub/pkg/database"
	"anoa.com/tutorhub/pkg/logger"
	"anoa.com/tutorhub/pkg/validator"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DashboardService interface {
	TutorDashboard(ctx context.Context, tutorID uuid.UUID, query dto.TutorQuery) (*dto.TutorDashboard, error)
	LearnerDashboard(ctx context.Context, learnerID uuid.UUID) (*dto.LearnerDashboard, error)
}

type dashboardService struct {
	db       *gorm.DB
	repo     dashboardRepo.DashboardRepository
	activity activityRepo.ActivityRepository
	rewards  rewardRepo.RewardRepository
	log      *logger.Logger
	now      func() time.Time
}

func NewDashboardService(
	db *gorm.DB,
	repo dashboardRepo.DashboardRepository,
	activity activityRepo.ActivityRepository,
	rewards rewardRepo.RewardRepository,
	log *logger.Logger,
) DashboardService {
	return &dashboardService{
		db:       db,
		repo:     repo,
		activity: activity,
		rewards:  rewards,
		log:      log,
		now:      time.Now,
	}
}

func clamp(v, def, max int) int {
	switch {
	case v <= 0:
		return def
	case v > max:
		return max
	}
	return v
}

// TutorDashboard reads every figure inside one snapshot so the counts agree
// with each other.
func (s *dashboardService) TutorDashboard(ctx context.Context, tutorID uuid.UUID, query dto.TutorQuery) (*dto.TutorDashboard, error) {
	if err := validator.Struct(query); err != nil {
		return nil, err
	}
	leaderboardSize := clamp(query.Leaderboard, dto.DefaultLeaderboardSize, dto.MaxLeaderboardSize)
	activitySize := clamp(query.Activity, dto.DefaultActivitySize, dto.MaxActivitySize)

	out := &dto.TutorDashboard{}
	err := database.ReadSnapshot(ctx, s.db, func(tx *gorm.DB) error {
		var err error
		if out.ActiveClasses, err = s.repo.CountClasses(ctx, tx, tutorID); err != nil {
			return err
		}
		if out.Students, err = s.repo.CountDistinctStudents(ctx, tx, tutorID); err != nil {
			return err
		}
		if out.Assignments, err = s.repo.CountAssignments(ctx, tx, tutorID); err != nil {
			return err
		}

		if out.SubmissionRatios, err = s.repo.SubmissionRatios(ctx, tx, tutorID); err != nil {
			return err
		}
		for i := range out.SubmissionRatios {
			r := &out.SubmissionRatios[i]
			if r.ClassSize > 0 {
				r.Ratio = float64(r.Submitted) / float64(r.ClassSize)
			}
		}

		if out.Leaderboard, err = s.repo.Leaderboard(ctx, tx, tutorID, leaderboardSize); err != nil {
			return err
		}
		for i := range out.Leaderboard {
			out.Leaderboard[i].Rank = i + 1
		}

		logs, err := s.activity.RecentForUsers(ctx, tx, s.repo.StudentIDs(tx, tutorID), activitySize)
		if err != nil {
			return err
		}
		out.RecentActivity = activityEntries(logs)
		return nil
	})
	if err != nil {
		return nil, apperror.Storage(err)
	}

	if out.SubmissionRatios == nil {
		out.SubmissionRatios = []dto.SubmissionRatio{}
	}
	if out.Leaderboard == nil {
		out.Leaderboard = []dto.LeaderboardEntry{}
	}
	return out, nil
}

func (s *dashboardService) LearnerDashboard(ctx context.Context, learnerID uuid.UUID) (*dto.LearnerDashboard, error) {
	now := s.now().UTC()
	weekAgo := now.AddDate(0, 0, -7)

	out := &dto.LearnerDashboard{}
	var weekly float64
	err := database.ReadSnapshot(ctx, s.db, func(tx *gorm.DB) error {
		var err error
		if out.Classes, err = s.repo.LearnerClasses(ctx, tx, learnerID); err != nil {
			return err
		}
		if out.OpenAssignments, err = s.repo.OpenAssignments(ctx, tx, learnerID, now); err != nil {
			return err
		}
		if out.Progress, err = s.repo.Progress(ctx, tx, learnerID); err != nil {
			return err
		}
		if out.Points, err = s.repo.GradedPoints(ctx, tx, learnerID, nil); err != nil {
			return err
		}
		if weekly, err = s.repo.GradedPoints(ctx, tx, learnerID, &weekAgo); err != nil {
			return err
		}
		if out.Rewards, err = s.rewards.EarnedBy(ctx, tx, learnerID); err != nil {
			return err
		}
		logs, err := s.activity.RecentForUser(ctx, tx, learnerID, dto.DefaultActivitySize)
		if err != nil {
			return err
		}
		out.RecentActivity = activityEntries(logs)
		return nil
	})
	if err != nil {
		return nil, apperror.Storage(err)
	}

	out.Level = LevelFor(out.Points, weekly)
	return out, nil
}

func activityEntries(logs []entity.ActivityLog) []dto.ActivityEntry {
	out := make([]dto.ActivityEntry, 0, len(logs))
	for _, l := range logs {
		entry := dto.ActivityEntry{UserID: l.UserID, Action: l.Action, CreatedAt: l.CreatedAt}
		if l.User != nil {
			entry.FullName = l.User.FullName
		}
		out = append(out, entry)
	}
	return out
}
