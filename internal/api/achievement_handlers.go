package api

import (
	"time"

	"github.com/gin-gonic/gin"
)

func GetAchievements(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)

		views, err := app.Achievements().ListWithProgress(c.Request.Context(), user.ID, time.Now())
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to fetch achievements")
			return
		}

		HandleSuccess(c, app.Logger(), views, nil)
	}
}
