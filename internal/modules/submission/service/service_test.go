package service

import (
	"context"
	"testing"
	"time"

	"anoa.com/tutorhub/internal/entity"
	activityRepo "anoa.com/tutorhub/internal/modules/activity/repository"
	assignmentRepo "anoa.com/tutorhub/internal/modules/assignment/repository"
	classRepo "anoa.com/tutorhub/internal/modules/classroom/repository"
	notifRepo "anoa.com/tutorhub/internal/modules/notification/repository"
	notifService "anoa.com/tutorhub/internal/modules/notification/service"
	rewardRepo "anoa.com/tutorhub/internal/modules/reward/repository"
	"anoa.com/tutorhub/internal/modules/submission/dto"
	submissionRepo "anoa.com/tutorhub/internal/modules/submission/repository"
	"anoa.com/tutorhub/internal/testutil"
	"anoa.com/tutorhub/pkg/apperror"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	svc        *submissionService
	db         *gorm.DB
	tutor      *entity.User
	learner    *entity.User
	assignment *entity.Assignment
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	activity := activityRepo.NewActivityRepository(db)
	rewards := rewardRepo.NewRewardRepository(db, activity)
	svc := NewSubmissionService(
		submissionRepo.NewSubmissionRepository(db, activity, rewards),
		assignmentRepo.NewAssignmentRepository(db, activity),
		classRepo.NewClassRepository(db, activity),
		notifService.NewNotificationService(notifRepo.NewNotificationRepository(db), nil, log),
		log,
	).(*submissionService)
	svc.now = func() time.Time { return time.Date(2025, 5, 20, 10, 0, 0, 0, time.UTC) }

	ctx := context.Background()
	tutor := testutil.SeedUser(t, ctx, db, "tutor@example.com", entity.RoleTutor)
	learner := testutil.SeedUser(t, ctx, db, "learner@example.com", entity.RoleLearner)
	class := testutil.SeedClass(t, ctx, db, tutor.ID, "Algebra")
	res := testutil.SeedLink(t, ctx, db, tutor.ID, "Worksheet")
	a := testutil.SeedAssignment(t, ctx, db, class.ID, res.ID, "Week 1")
	testutil.SeedEnrollment(t, ctx, db, class.ID, learner.ID)

	return &fixture{svc: svc, db: db, tutor: tutor, learner: learner, assignment: a}
}

func score(v float64) dto.GradeInput {
	return dto.GradeInput{Score: &v, Feedback: "ok"}
}

func TestSubmitCountsAttempts(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	first, err := f.svc.Submit(ctx, f.learner.ID, f.assignment.ID, dto.SubmitInput{Note: "<script>x</script>done"})
	require.NoError(t, err)
	assert.Equal(t, entity.SubmissionSubmitted, first.Status)
	assert.Equal(t, "done", first.Note)

	_, err = f.svc.Submit(ctx, f.learner.ID, f.assignment.ID, dto.SubmitInput{})
	require.NoError(t, err)

	var progress entity.Progress
	require.NoError(t, f.db.Where("user_id = ?", f.learner.ID).First(&progress).Error)
	assert.Equal(t, 2, progress.Attempts)
	assert.Nil(t, progress.BestScore)

	mine, err := f.svc.ListMine(ctx, f.learner.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}

func TestSubmitRequiresEnrollment(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	outsider := testutil.SeedUser(t, ctx, f.db, "outsider@example.com", entity.RoleLearner)

	_, err := f.svc.Submit(ctx, outsider.ID, f.assignment.ID, dto.SubmitInput{})
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	_, err = f.svc.Submit(ctx, f.learner.ID, uuid.New(), dto.SubmitInput{})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestGradeGrantsRewardOnce(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	sub, err := f.svc.Submit(ctx, f.learner.ID, f.assignment.ID, dto.SubmitInput{})
	require.NoError(t, err)

	res, err := f.svc.Grade(ctx, f.tutor.ID, sub.ID, score(60))
	require.NoError(t, err)
	assert.Equal(t, entity.SubmissionGraded, res.Submission.Status)
	require.Len(t, res.RewardsEarned, 1)
	assert.Equal(t, "First Steps", res.RewardsEarned[0].Title)

	res, err = f.svc.Grade(ctx, f.tutor.ID, sub.ID, score(40))
	require.NoError(t, err)
	assert.Empty(t, res.RewardsEarned)

	var progress entity.Progress
	require.NoError(t, f.db.Where("user_id = ?", f.learner.ID).First(&progress).Error)
	require.NotNil(t, progress.BestScore)
	assert.Equal(t, 60.0, *progress.BestScore)

	var earned int64
	f.db.Model(&entity.UserReward{}).Where("user_id = ?", f.learner.ID).Count(&earned)
	assert.Equal(t, int64(1), earned)

	var graded, rewarded int64
	f.db.Model(&entity.Notification{}).Where("user_id = ? AND type = ?", f.learner.ID, entity.NotificationGraded).Count(&graded)
	f.db.Model(&entity.Notification{}).Where("user_id = ? AND type = ?", f.learner.ID, entity.NotificationRewardEarned).Count(&rewarded)
	assert.Equal(t, int64(2), graded)
	assert.Equal(t, int64(1), rewarded)
}

func TestGradeRules(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	other := testutil.SeedUser(t, ctx, f.db, "other@example.com", entity.RoleTutor)

	sub, err := f.svc.Submit(ctx, f.learner.ID, f.assignment.ID, dto.SubmitInput{})
	require.NoError(t, err)

	_, err = f.svc.Grade(ctx, other.ID, sub.ID, score(90))
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	for _, bad := range []float64{-1, 100.5} {
		_, err = f.svc.Grade(ctx, f.tutor.ID, sub.ID, score(bad))
		assert.ErrorIs(t, err, apperror.ErrValidation, "score %v", bad)
	}

	_, err = f.svc.Grade(ctx, f.tutor.ID, sub.ID, dto.GradeInput{})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	var stored entity.Submission
	require.NoError(t, f.db.First(&stored, "id = ?", sub.ID).Error)
	assert.Equal(t, entity.SubmissionSubmitted, stored.Status)
	assert.Nil(t, stored.Score)
}

func TestListForAssignmentOwnership(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	other := testutil.SeedUser(t, ctx, f.db, "other@example.com", entity.RoleTutor)

	_, err := f.svc.Submit(ctx, f.learner.ID, f.assignment.ID, dto.SubmitInput{})
	require.NoError(t, err)

	rows, err := f.svc.ListForAssignment(ctx, f.tutor.ID, f.assignment.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].User)
	assert.Equal(t, "learner@example.com", rows[0].User.Email)

	_, err = f.svc.ListForAssignment(ctx, other.ID, f.assignment.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}
