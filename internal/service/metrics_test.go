package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/yourname/studytracker/internal"
)

func sessionEvent(start time.Time, minutes int) StudyEvent {
	return StudyEvent{OccurredAt: start, Subject: "Mathematics", DurationMinutes: &minutes, Session: true}
}

func TestAggregate_SessionsAndQuestions(t *testing.T) {
	events := []StudyEvent{
		sessionEvent(day(2024, 1, 1), 30),
		sessionEvent(day(2024, 1, 2), 45),
		{OccurredAt: day(2024, 1, 2), Subject: "Mathematics"},
		{OccurredAt: day(2024, 1, 3), Subject: "mathematics"},
		{OccurredAt: day(2024, 1, 3), Subject: "Physics"},
	}
	snap := StreakSnapshot{}

	assert.Equal(t, 2.0, Aggregate(internal.MetricSessions, events, snap))
	assert.Equal(t, 3.0, Aggregate(internal.MetricQuestionsTotal, events, snap))
	assert.Equal(t, 2.0, Aggregate(internal.MetricQuestionsMath, events, snap), "subject match is case-insensitive")
}

func TestAggregate_HoursKeepsFraction(t *testing.T) {
	events := []StudyEvent{
		sessionEvent(day(2024, 1, 1), 300),
		sessionEvent(day(2024, 1, 2), 150),
	}
	assert.InDelta(t, 7.5, Aggregate(internal.MetricHours, events, StreakSnapshot{}), 0.001)
}

func TestAggregate_StreakComesFromSnapshot(t *testing.T) {
	assert.Equal(t, 4.0, Aggregate(internal.MetricStreak, nil, StreakSnapshot{CurrentStreak: 4}))
}

func TestAggregate_DailyHoursIsMaxSingleDay(t *testing.T) {
	events := []StudyEvent{
		sessionEvent(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC), 120),
		sessionEvent(time.Date(2024, 1, 1, 15, 0, 0, 0, time.UTC), 180),
		sessionEvent(time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC), 60),
	}
	assert.InDelta(t, 5.0, Aggregate(internal.MetricDailyHours, events, StreakSnapshot{}), 0.001)
}

func TestAggregate_EarlyBird(t *testing.T) {
	late := []StudyEvent{sessionEvent(time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC), 30)}
	assert.Equal(t, 0.0, Aggregate(internal.MetricEarlyBird, late, StreakSnapshot{}))

	early := append(late, sessionEvent(time.Date(2024, 1, 2, 6, 45, 0, 0, time.UTC), 30))
	assert.Equal(t, 1.0, Aggregate(internal.MetricEarlyBird, early, StreakSnapshot{}))

	// Early completions do not count, only sessions.
	completion := []StudyEvent{{OccurredAt: time.Date(2024, 1, 1, 6, 0, 0, 0, time.UTC), Subject: "Mathematics"}}
	assert.Equal(t, 0.0, Aggregate(internal.MetricEarlyBird, completion, StreakSnapshot{}))
}

func TestAggregate_UnknownMetricIsZero(t *testing.T) {
	events := []StudyEvent{sessionEvent(day(2024, 1, 1), 60)}
	assert.Equal(t, 0.0, Aggregate(internal.MetricKind("perfect_week"), events, StreakSnapshot{}))
}
