package api

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yourname/studytracker/internal/service"
	"github.com/yourname/studytracker/internal/storage"
)

func PostSession(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)

		var body service.StartSessionRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid JSON")
			return
		}
		if err := service.ValidateStartSessionRequest(&body); err != nil {
			HandleError(c, app.Logger(), err, 400, "Validation failed")
			return
		}

		session, err := service.StartSession(c.Request.Context(), app.Repos().Sessions, user, &body)
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to start session")
			return
		}

		HandleSuccess(c, app.Logger(), session, nil)
	}
}

func PutSessionEnd(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		id := c.Param("id")

		body := service.EndSessionRequest{}
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&body); err != nil {
				HandleError(c, app.Logger(), err, 400, "Invalid JSON")
				return
			}
		}
		if err := service.ValidateEndSessionRequest(&body); err != nil {
			HandleError(c, app.Logger(), err, 400, "Validation failed")
			return
		}

		session, err := service.EndSession(c.Request.Context(), app.Repos().Sessions, user, id, &body)
		if err != nil {
			switch {
			case errors.Is(err, storage.ErrNotFound):
				HandleError(c, app.Logger(), err, 404, "Session not found")
			case errors.Is(err, service.ErrSessionAlreadyEnded):
				HandleError(c, app.Logger(), err, 409, "Session already ended")
			default:
				HandleError(c, app.Logger(), err, 500, "Failed to end session")
			}
			return
		}

		// Achievement bookkeeping must never fail the session end.
		if err := app.Achievements().Recompute(c.Request.Context(), user.ID, time.Now()); err != nil {
			app.Logger().Warnf("achievement recompute failed after session end: %v", err)
		}

		HandleSuccess(c, app.Logger(), session, nil)
	}
}

func GetSessionsToday(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)

		sessions, err := app.Repos().Sessions.ListSessions(c.Request.Context(), user.ID)
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to fetch sessions")
			return
		}

		HandleSuccess(c, app.Logger(), service.SessionsToday(sessions, time.Now()), nil)
	}
}

func GetSessions(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)

		start, err := time.Parse("2006-01-02", c.Query("start_date"))
		if err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid start_date")
			return
		}
		end, err := time.Parse("2006-01-02", c.Query("end_date"))
		if err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid end_date")
			return
		}

		sessions, err := app.Repos().Sessions.ListSessions(c.Request.Context(), user.ID)
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to fetch sessions")
			return
		}

		// end_date is inclusive: the window runs to the end of that day.
		HandleSuccess(c, app.Logger(), service.SessionsBetween(sessions, start, end.AddDate(0, 0, 1)), nil)
	}
}
