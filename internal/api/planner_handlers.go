package api

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yourname/studytracker/internal/service"
	"github.com/yourname/studytracker/internal/storage"
)

func PostPlannedBlock(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)

		var body service.PlannedBlockRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid JSON")
			return
		}
		if err := service.ValidatePlannedBlockRequest(&body); err != nil {
			HandleError(c, app.Logger(), err, 400, "Validation failed")
			return
		}

		block, err := service.CreateBlock(c.Request.Context(), app.Repos().Blocks, user, &body)
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to create planned block")
			return
		}

		HandleSuccess(c, app.Logger(), block, nil)
	}
}

func GetPlannedBlocks(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)

		blocks, err := app.Repos().Blocks.ListBlocks(c.Request.Context(), user.ID)
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to fetch planned blocks")
			return
		}

		// Optional date-range filter.
		if startStr, endStr := c.Query("start_date"), c.Query("end_date"); startStr != "" && endStr != "" {
			start, err := time.Parse("2006-01-02", startStr)
			if err != nil {
				HandleError(c, app.Logger(), err, 400, "Invalid start_date")
				return
			}
			end, err := time.Parse("2006-01-02", endStr)
			if err != nil {
				HandleError(c, app.Logger(), err, 400, "Invalid end_date")
				return
			}
			blocks = service.BlocksBetween(blocks, start, end.AddDate(0, 0, 1))
		}

		HandleSuccess(c, app.Logger(), blocks, nil)
	}
}

func PutPlannedBlock(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		id := c.Param("id")

		var body service.UpdateBlockRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid JSON")
			return
		}
		if err := service.ValidateUpdateBlockRequest(&body); err != nil {
			HandleError(c, app.Logger(), err, 400, "Validation failed")
			return
		}

		block, err := service.UpdateBlock(c.Request.Context(), app.Repos().Blocks, user, id, &body)
		if err != nil {
			switch {
			case errors.Is(err, storage.ErrNotFound):
				HandleError(c, app.Logger(), err, 404, "Planned block not found")
			case errors.Is(err, service.ErrBlockRange):
				HandleError(c, app.Logger(), err, 400, "Validation failed")
			default:
				HandleError(c, app.Logger(), err, 500, "Failed to update planned block")
			}
			return
		}

		HandleSuccess(c, app.Logger(), block, nil)
	}
}

func DeletePlannedBlock(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		id := c.Param("id")

		if err := app.Repos().Blocks.DeleteBlock(c.Request.Context(), user.ID, id); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				HandleError(c, app.Logger(), err, 404, "Planned block not found")
			} else {
				HandleError(c, app.Logger(), err, 500, "Failed to delete planned block")
			}
			return
		}

		HandleSuccess(c, app.Logger(), nil, map[string]any{"deleted": id})
	}
}

func PutPlannedBlockComplete(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		id := c.Param("id")

		block, err := service.CompleteBlock(c.Request.Context(), app.Repos().Blocks, user, id)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				HandleError(c, app.Logger(), err, 404, "Planned block not found")
			} else {
				HandleError(c, app.Logger(), err, 500, "Failed to complete planned block")
			}
			return
		}

		HandleSuccess(c, app.Logger(), block, nil)
	}
}
