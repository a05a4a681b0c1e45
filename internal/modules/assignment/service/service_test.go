package service

import (
	"context"
	"testing"
	"time"

	"anoa.com/tutorhub/internal/entity"
	activityRepo "anoa.com/tutorhub/internal/modules/activity/repository"
	"anoa.com/tutorhub/internal/modules/assignment/dto"
	assignmentRepo "anoa.com/tutorhub/internal/modules/assignment/repository"
	classRepo "anoa.com/tutorhub/internal/modules/classroom/repository"
	resourceRepo "anoa.com/tutorhub/internal/modules/resource/repository"
	"anoa.com/tutorhub/internal/testutil"
	"anoa.com/tutorhub/pkg/apperror"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setup(t *testing.T) (AssignmentService, *gorm.DB) {
	t.Helper()
	db := testutil.DB(t)
	activity := activityRepo.NewActivityRepository(db)
	svc := NewAssignmentService(
		assignmentRepo.NewAssignmentRepository(db, activity),
		classRepo.NewClassRepository(db, activity),
		resourceRepo.NewResourceRepository(db, activity),
		testutil.Logger(t),
	)
	return svc, db
}

func TestParseDueDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2025-06-01", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)},
		{"2025-06-01T14:30", time.Date(2025, 6, 1, 14, 30, 0, 0, time.UTC)},
		{"2025-06-01T14:30:15", time.Date(2025, 6, 1, 14, 30, 15, 0, time.UTC)},
		{"2025-06-01T14:30:00+02:00", time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseDueDate(tc.in)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.True(t, tc.want.Equal(*got), "got %v", got)
			assert.Equal(t, time.UTC, got.Location())
		})
	}

	got, err := ParseDueDate("  ")
	assert.NoError(t, err)
	assert.Nil(t, got)

	for _, bad := range []string{"01/06/2025", "tomorrow", "2025-13-01"} {
		_, err := ParseDueDate(bad)
		assert.ErrorIs(t, err, apperror.ErrValidation, bad)
	}
}

func TestCreateAssignment(t *testing.T) {
	svc, db := setup(t)
	ctx := context.Background()
	tutor := testutil.SeedUser(t, ctx, db, "tutor@example.com", entity.RoleTutor)
	class := testutil.SeedClass(t, ctx, db, tutor.ID, "Algebra")
	res := testutil.SeedLink(t, ctx, db, tutor.ID, "Worksheet")

	a, err := svc.CreateAssignment(ctx, tutor.ID, dto.CreateAssignmentInput{
		Title:      "<b>Week 1</b>",
		ClassID:    class.ID.String(),
		ResourceID: res.ID.String(),
		DueDate:    "2030-01-15",
	})
	require.NoError(t, err)
	assert.Equal(t, "Week 1", a.Title)
	require.NotNil(t, a.DueDate)

	page, err := svc.ListAssignments(ctx, tutor.ID)
	require.NoError(t, err)
	require.Len(t, page.Assignments, 1)
	require.NotNil(t, page.Assignments[0].Class)
	assert.Equal(t, "Algebra", page.Assignments[0].Class.Title)
	assert.Len(t, page.Classes, 1)
	assert.Len(t, page.Resources, 1)
}

func TestCreateAssignmentOwnership(t *testing.T) {
	svc, db := setup(t)
	ctx := context.Background()
	tutor := testutil.SeedUser(t, ctx, db, "tutor@example.com", entity.RoleTutor)
	other := testutil.SeedUser(t, ctx, db, "other@example.com", entity.RoleTutor)
	class := testutil.SeedClass(t, ctx, db, tutor.ID, "Algebra")
	mine := testutil.SeedLink(t, ctx, db, tutor.ID, "Mine")
	theirs := testutil.SeedLink(t, ctx, db, other.ID, "Theirs")

	_, err := svc.CreateAssignment(ctx, tutor.ID, dto.CreateAssignmentInput{
		Title: "Week 1", ClassID: uuid.NewString(), ResourceID: mine.ID.String(),
	})
	assert.ErrorIs(t, err, apperror.ErrNotFound, "unknown class")

	_, err = svc.CreateAssignment(ctx, other.ID, dto.CreateAssignmentInput{
		Title: "Week 1", ClassID: class.ID.String(), ResourceID: theirs.ID.String(),
	})
	assert.ErrorIs(t, err, apperror.ErrNotFound, "class owned by someone else")

	_, err = svc.CreateAssignment(ctx, tutor.ID, dto.CreateAssignmentInput{
		Title: "Week 1", ClassID: class.ID.String(), ResourceID: theirs.ID.String(),
	})
	assert.ErrorIs(t, err, apperror.ErrNotFound, "resource owned by someone else")

	_, err = svc.CreateAssignment(ctx, tutor.ID, dto.CreateAssignmentInput{
		Title: "Week 1", ClassID: class.ID.String(), ResourceID: mine.ID.String(), DueDate: "soon",
	})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	var n int64
	db.Model(&entity.Assignment{}).Count(&n)
	assert.Zero(t, n)
}

func TestDeleteAssignmentRemovesSubmissions(t *testing.T) {
	svc, db := setup(t)
	ctx := context.Background()
	tutor := testutil.SeedUser(t, ctx, db, "tutor@example.com", entity.RoleTutor)
	other := testutil.SeedUser(t, ctx, db, "other@example.com", entity.RoleTutor)
	learner := testutil.SeedUser(t, ctx, db, "learner@example.com", entity.RoleLearner)
	class := testutil.SeedClass(t, ctx, db, tutor.ID, "Algebra")
	res := testutil.SeedLink(t, ctx, db, tutor.ID, "Worksheet")
	a := testutil.SeedAssignment(t, ctx, db, class.ID, res.ID, "Week 1")
	testutil.SeedSubmission(t, ctx, db, a.ID, learner.ID, nil)
	testutil.SeedSubmission(t, ctx, db, a.ID, learner.ID, testutil.PtrFloat(80))

	assert.ErrorIs(t, svc.DeleteAssignment(ctx, other.ID, a.ID), apperror.ErrNotFound)

	require.NoError(t, svc.DeleteAssignment(ctx, tutor.ID, a.ID))

	var subs, assignments int64
	db.Model(&entity.Submission{}).Count(&subs)
	db.Model(&entity.Assignment{}).Count(&assignments)
	assert.Zero(t, subs)
	assert.Zero(t, assignments)

	assert.ErrorIs(t, svc.DeleteAssignment(ctx, tutor.ID, a.ID), apperror.ErrNotFound)
}
