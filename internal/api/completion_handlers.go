package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yourname/studytracker/internal/service"
)

func PostCompletion(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)

		var body service.CompletionRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid JSON")
			return
		}
		if err := service.ValidateCompletionRequest(&body); err != nil {
			HandleError(c, app.Logger(), err, 400, "Validation failed")
			return
		}

		completion, err := service.RecordCompletion(c.Request.Context(), app.Repos().Completions, user, &body)
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to record completion")
			return
		}

		// Achievement bookkeeping must never fail the completion log.
		if err := app.Achievements().Recompute(c.Request.Context(), user.ID, time.Now()); err != nil {
			app.Logger().Warnf("achievement recompute failed after completion: %v", err)
		}

		HandleSuccess(c, app.Logger(), completion, nil)
	}
}

func GetCompletions(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)

		completions, err := app.Repos().Completions.ListCompletions(c.Request.Context(), user.ID)
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to fetch completions")
			return
		}

		HandleSuccess(c, app.Logger(), completions, nil)
	}
}
