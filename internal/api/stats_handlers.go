package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yourname/studytracker/internal"
	"github.com/yourname/studytracker/internal/service"
)

func loadHistory(c *gin.Context, app App) ([]internal.StudySession, []internal.QuestionCompletion, bool) {
	user := currentUser(c)
	sessions, err := app.Repos().Sessions.ListSessions(c.Request.Context(), user.ID)
	if err != nil {
		HandleError(c, app.Logger(), err, 500, "Failed to fetch sessions")
		return nil, nil, false
	}
	completions, err := app.Repos().Completions.ListCompletions(c.Request.Context(), user.ID)
	if err != nil {
		HandleError(c, app.Logger(), err, 500, "Failed to fetch completions")
		return nil, nil, false
	}
	return sessions, completions, true
}

func GetStats(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessions, completions, ok := loadHistory(c, app)
		if !ok {
			return
		}
		HandleSuccess(c, app.Logger(), service.CalculateStudyStats(sessions, completions, time.Now()), nil)
	}
}

func GetSubjectBreakdown(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		sessions, err := app.Repos().Sessions.ListSessions(c.Request.Context(), user.ID)
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to fetch sessions")
			return
		}
		HandleSuccess(c, app.Logger(), service.SubjectBreakdown(sessions), nil)
	}
}

func GetStreak(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessions, completions, ok := loadHistory(c, app)
		if !ok {
			return
		}
		snap := service.ComputeStreak(service.EventsFrom(sessions, completions), time.Now())
		HandleSuccess(c, app.Logger(), snap, nil)
	}
}

func GetWeeklyProgress(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessions, completions, ok := loadHistory(c, app)
		if !ok {
			return
		}
		snap := service.ComputeStreak(service.EventsFrom(sessions, completions), time.Now())
		HandleSuccess(c, app.Logger(), snap.WeeklyProgress, nil)
	}
}

func GetTodayProgress(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		sessions, completions, ok := loadHistory(c, app)
		if !ok {
			return
		}
		profile, err := app.Repos().Profiles.GetProfile(c.Request.Context(), user.ID)
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to fetch profile")
			return
		}
		HandleSuccess(c, app.Logger(), service.CalculateTodayProgress(sessions, completions, profile, time.Now()), nil)
	}
}
