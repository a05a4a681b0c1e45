package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"anoa.com/tutorhub/internal/bootstrap"
	"anoa.com/tutorhub/internal/entity"
	"anoa.com/tutorhub/pkg/database"
	"anoa.com/tutorhub/pkg/logger"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Password satisfies the password policy and is used for every seeded user.
const Password = "Password1!"

var (
	dbSeq        atomic.Int64
	passwordHash string
)

func init() {
	h, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	passwordHash = string(h)
}

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	return logger.Nop()
}

// DB opens a fresh in-memory SQLite database with the schema migrated and
// reference data seeded. It is closed when the test ends.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	name := fmt.Sprintf("file:tutorhub_test_%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := database.Connect(database.Options{Driver: database.DriverSQLite, SQLitePath: name})
	if err != nil {
		tb.Fatalf("failed to open test db: %v", err)
	}
	if err := bootstrap.Run(db); err != nil {
		tb.Fatalf("failed to migrate test db: %v", err)
	}

	tb.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func Role(tb testing.TB, db *gorm.DB, name string) *entity.Role {
	tb.Helper()
	var role entity.Role
	if err := db.Where("name = ?", name).First(&role).Error; err != nil {
		tb.Fatalf("load role %s: %v", name, err)
	}
	return &role
}

// SeedUser creates a user whose password is Password.
func SeedUser(tb testing.TB, ctx context.Context, db *gorm.DB, email, role string) *entity.User {
	tb.Helper()
	r := Role(tb, db, role)
	u := &entity.User{
		Email:        email,
		PasswordHash: passwordHash,
		FullName:     "Test User",
		DateOfBirth:  time.Date(2005, 6, 1, 0, 0, 0, 0, time.UTC),
		RoleID:       r.ID,
	}
	if err := db.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	u.Role = r
	return u
}

func SeedClass(tb testing.TB, ctx context.Context, db *gorm.DB, tutorID uuid.UUID, title string) *entity.Class {
	tb.Helper()
	c := &entity.Class{Title: title, Subject: "Maths", YearGroup: 9, TutorID: tutorID}
	if err := db.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed class: %v", err)
	}
	return c
}

func SeedEnrollment(tb testing.TB, ctx context.Context, db *gorm.DB, classID, userID uuid.UUID) {
	tb.Helper()
	e := &entity.ClassEnrollment{ClassID: classID, UserID: userID}
	if err := db.WithContext(ctx).Create(e).Error; err != nil {
		tb.Fatalf("seed enrollment: %v", err)
	}
}

func SeedLink(tb testing.TB, ctx context.Context, db *gorm.DB, ownerID uuid.UUID, title string) *entity.Resource {
	tb.Helper()
	url := "https://example.com/" + uuid.NewString()
	r := &entity.Resource{OwnerID: ownerID, Title: title, Subject: "misc", Type: entity.ResourceTypeLink, URL: &url}
	if err := db.WithContext(ctx).Create(r).Error; err != nil {
		tb.Fatalf("seed resource: %v", err)
	}
	return r
}

func SeedAssignment(tb testing.TB, ctx context.Context, db *gorm.DB, classID, resourceID uuid.UUID, title string) *entity.Assignment {
	tb.Helper()
	a := &entity.Assignment{ClassID: classID, ResourceID: resourceID, Title: title}
	if err := db.WithContext(ctx).Create(a).Error; err != nil {
		tb.Fatalf("seed assignment: %v", err)
	}
	return a
}

func SeedSubmission(tb testing.TB, ctx context.Context, db *gorm.DB, assignmentID, userID uuid.UUID, score *float64) *entity.Submission {
	tb.Helper()
	s := &entity.Submission{AssignmentID: assignmentID, UserID: userID, Status: entity.SubmissionSubmitted}
	if score != nil {
		now := time.Now().UTC()
		s.Status = entity.SubmissionGraded
		s.Score = score
		s.GradedAt = &now
	}
	if err := db.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed submission: %v", err)
	}
	return s
}

func PtrFloat(v float64) *float64 { return &v }

func PtrTime(v time.Time) *time.Time { return &v }
