package dto

import (
	"time"

	"anoa.com/tutorhub/internal/entity"
	"github.com/google/uuid"
)

const (
	DefaultLeaderboardSize = 10
	MaxLeaderboardSize     = 50
	DefaultActivitySize    = 10
	MaxActivitySize        = 100
)

// TutorQuery sizes the leaderboard and the activity feed. Zero means the
// default; values above the maximum are capped.
type TutorQuery struct {
	Leaderboard int `json:"leaderboard" form:"leaderboard" binding:"omitempty,min=0"`
	Activity    int `json:"activity" form:"activity" binding:"omitempty,min=0"`
}

type SubmissionRatio struct {
	AssignmentID uuid.UUID `json:"assignment_id"`
	Title        string    `json:"title"`
	ClassTitle   string    `json:"class_title"`
	Submitted    int64     `json:"submitted"`
	ClassSize    int64     `json:"class_size"`
	Ratio        float64   `json:"ratio"`
}

type LeaderboardEntry struct {
	Rank     int       `json:"rank"`
	UserID   uuid.UUID `json:"user_id"`
	FullName string    `json:"full_name"`
	Points   float64   `json:"points"`
	Graded   int64     `json:"graded"`
}

type ActivityEntry struct {
	UserID    uuid.UUID `json:"user_id"`
	FullName  string    `json:"full_name"`
	Action    string    `json:"action"`
	CreatedAt time.Time `json:"created_at"`
}

type TutorDashboard struct {
	ActiveClasses    int64              `json:"active_classes"`
	Students         int64              `json:"students"`
	Assignments      int64              `json:"assignments"`
	SubmissionRatios []SubmissionRatio  `json:"submission_ratios"`
	Leaderboard      []LeaderboardEntry `json:"leaderboard"`
	RecentActivity   []ActivityEntry    `json:"recent_activity"`
}

type LevelStatus struct {
	Level        string  `json:"level"`
	NextLevel    string  `json:"next_level"`
	Points       float64 `json:"points"`
	TargetPoints int     `json:"target_points"`
	Progress     float64 `json:"progress"`
	WeeklyPoints float64 `json:"weekly_points"`
	WeeklyLabel  string  `json:"weekly_label"`
}

type LearnerDashboard struct {
	Classes         []entity.Class      `json:"classes"`
	OpenAssignments []entity.Assignment `json:"open_assignments"`
	Progress        *entity.Progress    `json:"progress"`
	Points          float64             `json:"points"`
	Level           LevelStatus         `json:"level"`
	Rewards         []entity.UserReward `json:"rewards"`
	RecentActivity  []ActivityEntry     `json:"recent_activity"`
}
