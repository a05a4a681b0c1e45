package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"anoa.com/tutorhub/internal/entity"
	activityRepo "anoa.com/tutorhub/internal/modules/activity/repository"
	"anoa.com/tutorhub/internal/modules/user/dto"
	"anoa.com/tutorhub/internal/modules/user/repository"
	"anoa.com/tutorhub/internal/session"
	"anoa.com/tutorhub/internal/testutil"
	"anoa.com/tutorhub/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func setup(t *testing.T) (*authService, *gorm.DB) {
	t.Helper()
	db := testutil.DB(t)
	repo := repository.NewUserRepository(db, activityRepo.NewActivityRepository(db))
	sessions := session.NewManager(session.Options{Secret: "test-secret"})
	svc := NewAuthService(repo, sessions, testutil.Logger(t)).(*authService)
	svc.hashCost = bcrypt.MinCost
	return svc, db
}

func registerInput(email string) dto.RegisterInput {
	return dto.RegisterInput{
		Email:       email,
		Password:    testutil.Password,
		FullName:    "ada lovelace",
		DateOfBirth: "2008-04-12",
		Role:        entity.RoleLearner,
	}
}

func TestRegister(t *testing.T) {
	svc, db := setup(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, registerInput("  Ada@Example.COM "))
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.Equal(t, "Ada Lovelace", user.FullName)
	assert.Equal(t, entity.RoleLearner, user.RoleName())
	assert.NotEqual(t, testutil.Password, user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(testutil.Password)))

	var logs int64
	db.Model(&entity.ActivityLog{}).Where("user_id = ? AND action = ?", user.ID, activityRepo.ActionRegistered).Count(&logs)
	assert.Equal(t, int64(1), logs)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, db := setup(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, registerInput("dup@example.com"))
	require.NoError(t, err)

	_, err = svc.Register(ctx, registerInput("DUP@example.com"))
	assert.ErrorIs(t, err, apperror.ErrDuplicateEmail)

	var count int64
	db.Model(&entity.User{}).Where("email = ?", "dup@example.com").Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestRegisterConcurrentSameEmail(t *testing.T) {
	svc, db := setup(t)
	ctx := context.Background()

	const n = 6
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Register(ctx, registerInput("race@example.com"))
		}(i)
	}
	wg.Wait()

	ok, dup := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, apperror.ErrDuplicateEmail):
			dup++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, dup)

	var count int64
	db.Model(&entity.User{}).Where("email = ?", "race@example.com").Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		mutate  func(in *dto.RegisterInput)
		wantErr error
	}{
		{"short password", func(in *dto.RegisterInput) { in.Password = "Sh0rt!" }, apperror.ErrWeakPassword},
		{"no digit", func(in *dto.RegisterInput) { in.Password = "Password!!x" }, apperror.ErrWeakPassword},
		{"no symbol", func(in *dto.RegisterInput) { in.Password = "Password123" }, apperror.ErrWeakPassword},
		{"no upper", func(in *dto.RegisterInput) { in.Password = "password1!x" }, apperror.ErrWeakPassword},
		{"bad email", func(in *dto.RegisterInput) { in.Email = "not-an-email" }, apperror.ErrValidation},
		{"bad name", func(in *dto.RegisterInput) { in.FullName = "R2-D2" }, apperror.ErrValidation},
		{"future dob", func(in *dto.RegisterInput) { in.DateOfBirth = time.Now().AddDate(1, 0, 0).Format("2006-01-02") }, apperror.ErrValidation},
		{"bad dob", func(in *dto.RegisterInput) { in.DateOfBirth = "12/04/2008" }, apperror.ErrValidation},
		{"unknown role", func(in *dto.RegisterInput) { in.Role = "admin" }, apperror.ErrValidation},
		{"guardian", func(in *dto.RegisterInput) { in.Role = entity.RoleGuardian }, apperror.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := registerInput("v@example.com")
			tt.mutate(&in)
			_, err := svc.Register(ctx, in)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLogin(t *testing.T) {
	svc, db := setup(t)
	ctx := context.Background()
	user := testutil.SeedUser(t, ctx, db, "tutor@example.com", entity.RoleTutor)

	res, err := svc.Login(ctx, dto.LoginInput{Email: "TUTOR@example.com", Password: testutil.Password, Remember: true})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RememberToken)
	assert.Equal(t, "Bearer", res.TokenType)

	claims, err := svc.sessions.Parse(res.AccessToken, session.KindSession)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), claims.Subject)
	assert.Equal(t, entity.RoleTutor, claims.Role)

	var stored entity.User
	require.NoError(t, db.First(&stored, "id = ?", user.ID).Error)
	assert.NotNil(t, stored.LastLogin)

	resumed, err := svc.Resume(ctx, res.RememberToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, resumed.User.ID)

	_, err = svc.Resume(ctx, res.AccessToken)
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}

func TestLoginWrongPasswordDoesNotTouchLastLogin(t *testing.T) {
	svc, db := setup(t)
	ctx := context.Background()
	user := testutil.SeedUser(t, ctx, db, "learner@example.com", entity.RoleLearner)

	_, err := svc.Login(ctx, dto.LoginInput{Email: "learner@example.com", Password: "Wrong-pass1"})
	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)

	_, err = svc.Login(ctx, dto.LoginInput{Email: "nobody@example.com", Password: testutil.Password})
	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)

	var stored entity.User
	require.NoError(t, db.First(&stored, "id = ?", user.ID).Error)
	assert.Nil(t, stored.LastLogin)

	var logins int64
	db.Model(&entity.ActivityLog{}).Where("action = ?", activityRepo.ActionLogin).Count(&logins)
	assert.Zero(t, logins)
}

func TestCurrentUser(t *testing.T) {
	svc, db := setup(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, ctx, db, "tutor@example.com", entity.RoleTutor)

	got, err := svc.CurrentUser(ctx, u.ID.String())
	require.NoError(t, err)
	assert.Equal(t, entity.RoleTutor, got.RoleName())

	require.NoError(t, db.Delete(&entity.User{}, "id = ?", u.ID).Error)
	_, err = svc.CurrentUser(ctx, u.ID.String())
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	_, err = svc.CurrentUser(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}
