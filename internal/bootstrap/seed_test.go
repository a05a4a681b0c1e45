package bootstrap

import (
	"testing"

	"anoa.com/tutorhub/internal/entity"
	"anoa.com/tutorhub/pkg/database"
	"gorm.io/gorm"
)

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Connect(database.Options{Driver: database.DriverSQLite, SQLitePath: ":memory:"})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	return db
}

func TestRunIsIdempotent(t *testing.T) {
	db := openDB(t)
	for i := 0; i < 2; i++ {
		if err := Run(db); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}

	var roles int64
	if err := db.Model(&entity.Role{}).Count(&roles).Error; err != nil {
		t.Fatalf("count roles: %v", err)
	}
	if roles != 3 {
		t.Fatalf("expected 3 roles, got %d", roles)
	}

	var rewards int64
	if err := db.Model(&entity.Reward{}).Count(&rewards).Error; err != nil {
		t.Fatalf("count rewards: %v", err)
	}
	if rewards != int64(len(DefaultRewards)) {
		t.Fatalf("expected %d rewards, got %d", len(DefaultRewards), rewards)
	}
}
