package profile

import (
	"context"
	"os"
	"strings"
	"testing"

	"anoa.com/tutorhub/internal/entity"
	activityRepo "anoa.com/tutorhub/internal/modules/activity/repository"
	profileDto "anoa.com/tutorhub/internal/modules/profile/dto"
	userRepo "anoa.com/tutorhub/internal/modules/user/repository"
	"anoa.com/tutorhub/internal/testutil"
	"anoa.com/tutorhub/pkg/apperror"
	"anoa.com/tutorhub/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func setup(t *testing.T) (*profileService, *gorm.DB, *storage.LocalStore) {
	t.Helper()
	db := testutil.DB(t)
	files, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	repo := userRepo.NewUserRepository(db, activityRepo.NewActivityRepository(db))
	svc := NewProfileService(repo, files, nil, testutil.Logger(t)).(*profileService)
	svc.hashCost = bcrypt.MinCost
	return svc, db, files
}

func seedFile(t *testing.T, ctx context.Context, db *gorm.DB, files *storage.LocalStore, ownerID entity.User) *entity.Resource {
	t.Helper()
	f, err := files.Save(ctx, strings.NewReader("lesson notes"), "notes.txt")
	require.NoError(t, err)
	r := &entity.Resource{
		OwnerID:    ownerID.ID,
		Title:      "Notes",
		Subject:    "Maths",
		Type:       entity.ResourceTypeFile,
		StoredName: &f.Name,
		Path:       &f.Location,
		Mime:       &f.Mime,
		Size:       &f.Size,
	}
	require.NoError(t, db.WithContext(ctx).Create(r).Error)
	return r
}

func count(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func TestDeleteTutorAccountRemovesEverything(t *testing.T) {
	svc, db, files := setup(t)
	ctx := context.Background()

	tutor := testutil.SeedUser(t, ctx, db, "tutor@example.com", entity.RoleTutor)
	learner := testutil.SeedUser(t, ctx, db, "learner@example.com", entity.RoleLearner)
	class := testutil.SeedClass(t, ctx, db, tutor.ID, "Algebra")
	testutil.SeedEnrollment(t, ctx, db, class.ID, learner.ID)
	file := seedFile(t, ctx, db, files, *tutor)
	link := testutil.SeedLink(t, ctx, db, tutor.ID, "Reading")
	a := testutil.SeedAssignment(t, ctx, db, class.ID, link.ID, "Week 1")
	testutil.SeedSubmission(t, ctx, db, a.ID, learner.ID, testutil.PtrFloat(70))
	require.NoError(t, db.Create(&entity.ActivityLog{UserID: tutor.ID, Action: activityRepo.ActionClassCreated}).Error)

	res, err := svc.DeleteAccount(ctx, tutor.ID, profileDto.DeleteAccountInput{Password: testutil.Password, ConfirmDeletion: true})
	require.NoError(t, err)
	assert.Equal(t, 2, res.RemovedResources)
	assert.Equal(t, 1, res.RemovedFiles)

	assert.Zero(t, count(t, db, &entity.Class{}))
	assert.Zero(t, count(t, db, &entity.ClassEnrollment{}))
	assert.Zero(t, count(t, db, &entity.Assignment{}))
	assert.Zero(t, count(t, db, &entity.Submission{}))
	assert.Zero(t, count(t, db, &entity.Resource{}))

	var logs int64
	db.Model(&entity.ActivityLog{}).Where("user_id = ?", tutor.ID).Count(&logs)
	assert.Zero(t, logs)

	var users int64
	db.Model(&entity.User{}).Count(&users)
	assert.Equal(t, int64(1), users, "the learner account stays")

	_, statErr := os.Stat(*file.Path)
	assert.True(t, os.IsNotExist(statErr), "stored file should be removed")
}

func TestDeleteAccountWrongPasswordKeepsData(t *testing.T) {
	svc, db, files := setup(t)
	ctx := context.Background()

	tutor := testutil.SeedUser(t, ctx, db, "tutor@example.com", entity.RoleTutor)
	testutil.SeedClass(t, ctx, db, tutor.ID, "Algebra")
	file := seedFile(t, ctx, db, files, *tutor)

	_, err := svc.DeleteAccount(ctx, tutor.ID, profileDto.DeleteAccountInput{Password: "Wrong-pass1!"})
	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)

	assert.Equal(t, int64(1), count(t, db, &entity.Class{}))
	assert.Equal(t, int64(1), count(t, db, &entity.Resource{}))
	_, statErr := os.Stat(*file.Path)
	assert.NoError(t, statErr)
}

func TestUpdateProfile(t *testing.T) {
	svc, db, _ := setup(t)
	ctx := context.Background()

	u := testutil.SeedUser(t, ctx, db, "first@example.com", entity.RoleLearner)
	testutil.SeedUser(t, ctx, db, "taken@example.com", entity.RoleLearner)

	got, err := svc.UpdateProfile(ctx, u.ID, profileDto.UpdateProfileInput{FullName: "grace hopper", Email: " Grace@Example.com"})
	require.NoError(t, err)
	assert.Equal(t, "Grace Hopper", got.User.FullName)
	assert.Equal(t, "grace@example.com", got.User.Email)

	_, err = svc.UpdateProfile(ctx, u.ID, profileDto.UpdateProfileInput{FullName: "Grace Hopper", Email: "taken@example.com"})
	assert.ErrorIs(t, err, apperror.ErrDuplicateEmail)
}

func TestChangePassword(t *testing.T) {
	svc, db, _ := setup(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, ctx, db, "pw@example.com", entity.RoleLearner)

	err := svc.ChangePassword(ctx, u.ID, profileDto.ChangePasswordInput{OldPassword: "nope", NewPassword: "Another1!pass"})
	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)

	err = svc.ChangePassword(ctx, u.ID, profileDto.ChangePasswordInput{OldPassword: testutil.Password, NewPassword: "weak"})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	require.NoError(t, svc.ChangePassword(ctx, u.ID, profileDto.ChangePasswordInput{OldPassword: testutil.Password, NewPassword: "Another1!pass"}))

	var stored entity.User
	require.NoError(t, db.First(&stored, "id = ?", u.ID).Error)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("Another1!pass")))
}

func TestDeleteAccountRequiresConfirmation(t *testing.T) {
	svc, db, _ := setup(t)
	ctx := context.Background()

	tutor := testutil.SeedUser(t, ctx, db, "tutor@example.com", entity.RoleTutor)
	testutil.SeedClass(t, ctx, db, tutor.ID, "Algebra")

	_, err := svc.DeleteAccount(ctx, tutor.ID, profileDto.DeleteAccountInput{Password: testutil.Password, ConfirmDeletion: false})
	require.ErrorIs(t, err, apperror.ErrValidation)
	var vErr *apperror.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Fields, "confirm_deletion")

	assert.Equal(t, int64(1), count(t, db, &entity.Class{}))
	assert.Equal(t, int64(1), count(t, db, &entity.User{}))
}

func TestDeleteLearnerAccountRemovesOwnedRows(t *testing.T) {
	svc, db, _ := setup(t)
	ctx := context.Background()

	tutor := testutil.SeedUser(t, ctx, db, "tutor@example.com", entity.RoleTutor)
	learner := testutil.SeedUser(t, ctx, db, "learner@example.com", entity.RoleLearner)
	class := testutil.SeedClass(t, ctx, db, tutor.ID, "Algebra")
	testutil.SeedEnrollment(t, ctx, db, class.ID, learner.ID)
	link := testutil.SeedLink(t, ctx, db, tutor.ID, "Reading")
	a := testutil.SeedAssignment(t, ctx, db, class.ID, link.ID, "Week 1")
	testutil.SeedSubmission(t, ctx, db, a.ID, learner.ID, testutil.PtrFloat(80))

	var reward entity.Reward
	require.NoError(t, db.Where("title = ?", "First Steps").First(&reward).Error)
	require.NoError(t, db.Create(&entity.Progress{UserID: learner.ID, BestScore: testutil.PtrFloat(80), Attempts: 1}).Error)
	require.NoError(t, db.Create(&entity.UserReward{UserID: learner.ID, RewardID: reward.ID}).Error)
	require.NoError(t, db.Create(&entity.ActivityLog{UserID: learner.ID, Action: activityRepo.ActionSubmitted}).Error)
	require.NoError(t, db.Create(&entity.Notification{UserID: learner.ID, Type: entity.NotificationGraded, Message: "Week 1 was graded"}).Error)

	_, err := svc.DeleteAccount(ctx, learner.ID, profileDto.DeleteAccountInput{Password: testutil.Password, ConfirmDeletion: true})
	require.NoError(t, err)

	for _, model := range []interface{}{
		&entity.ClassEnrollment{},
		&entity.Submission{},
		&entity.Progress{},
		&entity.UserReward{},
		&entity.ActivityLog{},
		&entity.Notification{},
	} {
		var n int64
		require.NoError(t, db.Model(model).Where("user_id = ?", learner.ID).Count(&n).Error)
		assert.Zero(t, n, "%T", model)
	}

	assert.Equal(t, int64(1), count(t, db, &entity.Class{}), "the tutor's class stays")
	assert.Equal(t, int64(1), count(t, db, &entity.Assignment{}))
	assert.NoError(t, db.First(&entity.Reward{}, "id = ?", reward.ID).Error, "the reward catalogue stays")
}
