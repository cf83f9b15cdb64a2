package storage

import "github.com/yourname/studytracker/internal"

func target(v int) *int { return &v }

// DefaultAchievementDefinitions is the seeded catalog every backend serves.
func DefaultAchievementDefinitions() []internal.AchievementDefinition {
	return []internal.AchievementDefinition{
		{ID: "first_steps", Name: "First Steps", Description: "Complete your first study session", IconName: "flame", Metric: internal.MetricSessions, TargetValue: target(1)},
		{ID: "getting_started", Name: "Getting Started", Description: "Complete 5 study sessions", IconName: "book", Metric: internal.MetricSessions, TargetValue: target(5)},
		{ID: "study_streak", Name: "Study Streak", Description: "Study for 3 days in a row", IconName: "target", Metric: internal.MetricStreak, TargetValue: target(3)},
		{ID: "dedicated_learner", Name: "Dedicated Learner", Description: "Study for 10 hours total", IconName: "clock", Metric: internal.MetricHours, TargetValue: target(10)},
		{ID: "math_master", Name: "Math Master", Description: "Complete 20 math questions", IconName: "brain", Metric: internal.MetricQuestionsMath, TargetValue: target(20)},
		{ID: "question_solver", Name: "Question Solver", Description: "Answer 50 questions", IconName: "star", Metric: internal.MetricQuestionsTotal, TargetValue: target(50)},
		{ID: "marathon_runner", Name: "Marathon Runner", Description: "Study for 5 hours in one day", IconName: "zap", Metric: internal.MetricDailyHours, TargetValue: target(5)},
		{ID: "consistent_student", Name: "Consistent Student", Description: "Study for 7 days in a row", IconName: "award", Metric: internal.MetricStreak, TargetValue: target(7)},
		{ID: "early_bird", Name: "Early Bird", Description: "Start a study session before 7am", IconName: "sunrise", Metric: internal.MetricEarlyBird},
	}
}
