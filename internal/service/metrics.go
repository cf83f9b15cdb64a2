package service

import (
	"strings"

	"github.com/yourname/studytracker/internal"
)

// Sessions starting before this hour count toward the early-bird metric.
const earlyHourCutoff = 7

// Aggregate derives the current value of a metric from the event history and
// the streak snapshot. Hours-based metrics keep sub-integer precision; the
// applier decides how to truncate for stored progress. Unknown metric kinds
// aggregate to 0.
func Aggregate(kind internal.MetricKind, events []StudyEvent, snap StreakSnapshot) float64 {
	switch kind {
	case internal.MetricSessions:
		n := 0
		for _, e := range events {
			if e.Session {
				n++
			}
		}
		return float64(n)

	case internal.MetricHours:
		return totalSessionMinutes(events) / 60

	case internal.MetricStreak:
		return float64(snap.CurrentStreak)

	case internal.MetricQuestionsMath:
		n := 0
		for _, e := range events {
			if !e.Session && strings.EqualFold(e.Subject, "Mathematics") {
				n++
			}
		}
		return float64(n)

	case internal.MetricQuestionsTotal:
		n := 0
		for _, e := range events {
			if !e.Session {
				n++
			}
		}
		return float64(n)

	case internal.MetricDailyHours:
		byDay := make(map[string]float64)
		maxMinutes := 0.0
		for _, e := range events {
			if !e.Session || e.DurationMinutes == nil || e.OccurredAt.IsZero() {
				continue
			}
			key := e.OccurredAt.Format("2006-01-02")
			byDay[key] += float64(*e.DurationMinutes)
			if byDay[key] > maxMinutes {
				maxMinutes = byDay[key]
			}
		}
		return maxMinutes / 60

	case internal.MetricEarlyBird:
		for _, e := range events {
			if e.Session && !e.OccurredAt.IsZero() && e.OccurredAt.Hour() < earlyHourCutoff {
				return 1
			}
		}
		return 0

	default:
		return 0
	}
}

func totalSessionMinutes(events []StudyEvent) float64 {
	total := 0.0
	for _, e := range events {
		if e.Session && e.DurationMinutes != nil {
			total += float64(*e.DurationMinutes)
		}
	}
	return total
}
