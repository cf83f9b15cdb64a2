package service

import (
	"sort"
	"time"

	"github.com/yourname/studytracker/internal"
)

// StudyEvent is the unit the streak and metric calculations operate on. A
// session contributes its start time, a question completion its completion
// time; only the calendar date matters for streaks.
type StudyEvent struct {
	OccurredAt      time.Time
	Subject         string
	DurationMinutes *int
	Session         bool
}

// StreakSnapshot is derived on demand, never stored.
type StreakSnapshot struct {
	CurrentStreak  int        `json:"current_streak"`
	LongestStreak  int        `json:"longest_streak"`
	LastStudyDate  *time.Time `json:"last_study_date,omitempty"`
	WeeklyProgress [7]bool    `json:"weekly_progress"`
}

// EventsFrom merges session and completion histories into one event list.
func EventsFrom(sessions []internal.StudySession, completions []internal.QuestionCompletion) []StudyEvent {
	events := make([]StudyEvent, 0, len(sessions)+len(completions))
	for _, s := range sessions {
		events = append(events, StudyEvent{
			OccurredAt:      s.StartTime,
			Subject:         s.Subject,
			DurationMinutes: s.DurationMinutes,
			Session:         true,
		})
	}
	for _, c := range completions {
		events = append(events, StudyEvent{
			OccurredAt: c.CompletedAt,
			Subject:    c.Subject,
		})
	}
	return events
}

// dateOf truncates a timestamp to its calendar date.
func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ComputeStreak derives the streak snapshot from the full event history.
// The result depends only on the set of distinct event dates and on today:
// ordering, duplicates and intra-day timestamps do not affect it. Events
// with a zero timestamp are skipped.
func ComputeStreak(events []StudyEvent, today time.Time) StreakSnapshot {
	dates := make(map[time.Time]struct{})
	for _, e := range events {
		if e.OccurredAt.IsZero() {
			continue
		}
		dates[dateOf(e.OccurredAt)] = struct{}{}
	}

	var snap StreakSnapshot
	if len(dates) == 0 {
		return snap
	}

	sorted := make([]time.Time, 0, len(dates))
	for d := range dates {
		sorted = append(sorted, d)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	last := sorted[len(sorted)-1]
	snap.LastStudyDate = &last

	day := dateOf(today)
	yesterday := day.AddDate(0, 0, -1)

	// Current streak: anchor at today, or yesterday as the grace day for
	// sessions that ran past midnight or were logged late.
	_, hasToday := dates[day]
	_, hasYesterday := dates[yesterday]
	if hasToday || hasYesterday {
		check := day
		if !hasToday {
			check = yesterday
		}
		for {
			if _, ok := dates[check]; !ok {
				break
			}
			snap.CurrentStreak++
			check = check.AddDate(0, 0, -1)
		}
	}

	// Longest streak: scan adjacent sorted dates for consecutive runs.
	longest, run := 1, 1
	for i := 1; i < len(sorted); i++ {
		if sorted[i-1].AddDate(0, 0, 1).Equal(sorted[i]) {
			run++
		} else {
			if run > longest {
				longest = run
			}
			run = 1
		}
	}
	if run > longest {
		longest = run
	}
	snap.LongestStreak = longest

	// Weekly progress: slot 0 is six days ago, slot 6 is today.
	for i := 0; i < 7; i++ {
		if _, ok := dates[day.AddDate(0, 0, -(6 - i))]; ok {
			snap.WeeklyProgress[i] = true
		}
	}

	return snap
}
