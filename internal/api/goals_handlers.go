package api

import (
	"github.com/gin-gonic/gin"
	"github.com/yourname/studytracker/internal/service"
)

func GetUserGoals(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)

		profile, err := app.Repos().Profiles.GetProfile(c.Request.Context(), user.ID)
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to fetch goals")
			return
		}

		HandleSuccess(c, app.Logger(), profile, nil)
	}
}

func PostUserGoals(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)

		var body service.GoalsRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid JSON")
			return
		}
		if err := service.ValidateGoalsRequest(&body); err != nil {
			HandleError(c, app.Logger(), err, 400, "Validation failed")
			return
		}

		profile, err := service.UpdateGoals(c.Request.Context(), app.Repos().Profiles, user, &body)
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to update goals")
			return
		}

		HandleSuccess(c, app.Logger(), profile, nil)
	}
}
