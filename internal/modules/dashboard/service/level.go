package service

import (
	"math"

	"anoa.com/tutorhub/internal/modules/dashboard/dto"
)

// Level thresholds in total graded points. Levels never demote.
const (
	PointsLegend     = 10000
	PointsMaster     = 5000
	PointsExpert     = 2000
	PointsAchiever   = 500
	PointsApprentice = 100
	PointsNovice     = 0
)

// Weekly activity thresholds, in points graded over the last 7 days.
const (
	WeeklyOnFire   = 250
	WeeklyTrending = 150
	WeeklyActive   = 50
)

const maxLevel = "Max Level"

type level struct {
	name   string
	points int
}

// levels is ordered from highest to lowest.
var levels = []level{
	{"Legend", PointsLegend},
	{"Master", PointsMaster},
	{"Expert", PointsExpert},
	{"Achiever", PointsAchiever},
	{"Apprentice", PointsApprentice},
	{"Novice", PointsNovice},
}

// LevelFor derives the learner's level from all-time points, with a
// label for recent activity.
func LevelFor(points, weeklyPoints float64) dto.LevelStatus {
	status := dto.LevelStatus{
		Points:       points,
		WeeklyPoints: weeklyPoints,
	}

	for i, l := range levels {
		if points < float64(l.points) {
			continue
		}
		status.Level = l.name
		if i == 0 {
			status.NextLevel = maxLevel
			status.TargetPoints = l.points
			status.Progress = 100
		} else {
			next := levels[i-1]
			status.NextLevel = next.name
			status.TargetPoints = next.points
			status.Progress = points / float64(next.points) * 100
		}
		break
	}

	switch {
	case weeklyPoints >= WeeklyOnFire:
		status.WeeklyLabel = "On Fire"
	case weeklyPoints >= WeeklyTrending:
		status.WeeklyLabel = "Trending"
	case weeklyPoints >= WeeklyActive:
		status.WeeklyLabel = "Active"
	}

	status.Progress = math.Round(status.Progress*100) / 100
	return status
}
