package service

import (
	"math"
	"sort"
	"time"

	"github.com/yourname/studytracker/internal"
)

type StudyStats struct {
	TotalHoursThisWeek   float64        `json:"total_hours_this_week"`
	TotalSessions        int            `json:"total_sessions"`
	AverageSessionLength float64        `json:"average_session_length"`
	TopSubject           string         `json:"top_subject"`
	Streak               StreakSnapshot `json:"streak"`
}

// CalculateStudyStats summarizes the full session history plus the streak
// snapshot computed from sessions and completions together.
func CalculateStudyStats(sessions []internal.StudySession, completions []internal.QuestionCompletion, now time.Time) StudyStats {
	weekStart := now.AddDate(0, 0, -7)

	totalHours := 0.0
	totalMinutes := 0
	counted := 0
	subjectHours := make(map[string]float64)

	for _, s := range sessions {
		if s.DurationMinutes == nil {
			continue
		}
		if s.StartTime.After(weekStart) {
			totalHours += float64(*s.DurationMinutes) / 60
		}
		totalMinutes += *s.DurationMinutes
		counted++
		subjectHours[s.Subject] += float64(*s.DurationMinutes) / 60
	}

	avg := 0.0
	if counted > 0 {
		avg = float64(totalMinutes) / float64(counted)
	}

	topSubject := "None"
	topHours := 0.0
	for subject, hours := range subjectHours {
		if hours > topHours {
			topSubject = subject
			topHours = hours
		}
	}

	return StudyStats{
		TotalHoursThisWeek:   totalHours,
		TotalSessions:        len(sessions),
		AverageSessionLength: avg,
		TopSubject:           topSubject,
		Streak:               ComputeStreak(EventsFrom(sessions, completions), now),
	}
}

type SubjectShare struct {
	Subject    string  `json:"subject"`
	Hours      float64 `json:"hours"`
	Percentage int     `json:"percentage"`
}

// SubjectBreakdown returns per-subject hours with the share of total study
// time, largest first.
func SubjectBreakdown(sessions []internal.StudySession) []SubjectShare {
	subjectHours := make(map[string]float64)
	totalHours := 0.0

	for _, s := range sessions {
		if s.DurationMinutes == nil {
			continue
		}
		hours := float64(*s.DurationMinutes) / 60
		subjectHours[s.Subject] += hours
		totalHours += hours
	}

	breakdown := make([]SubjectShare, 0, len(subjectHours))
	for subject, hours := range subjectHours {
		pct := 0
		if totalHours > 0 {
			pct = int(math.Round(hours / totalHours * 100))
		}
		breakdown = append(breakdown, SubjectShare{Subject: subject, Hours: hours, Percentage: pct})
	}

	sort.Slice(breakdown, func(i, j int) bool { return breakdown[i].Hours > breakdown[j].Hours })
	return breakdown
}

type TodayProgress struct {
	CurrentStreak  int `json:"current_streak"`
	QuestionsToday int `json:"questions_today"`
	DailyGoal      int `json:"daily_goal"`
}

// CalculateTodayProgress reports today's question count against the user's
// daily goal, plus the current streak for the banner.
func CalculateTodayProgress(sessions []internal.StudySession, completions []internal.QuestionCompletion, profile *internal.UserProfile, now time.Time) TodayProgress {
	y, m, d := now.Date()
	startOfDay := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	endOfDay := startOfDay.AddDate(0, 0, 1)

	questionsToday := 0
	for _, c := range completions {
		if !c.CompletedAt.Before(startOfDay) && c.CompletedAt.Before(endOfDay) {
			questionsToday++
		}
	}

	snap := ComputeStreak(EventsFrom(sessions, completions), now)
	return TodayProgress{
		CurrentStreak:  snap.CurrentStreak,
		QuestionsToday: questionsToday,
		DailyGoal:      profile.DailyGoalQuestions,
	}
}
