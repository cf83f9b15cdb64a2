package api

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yourname/studytracker/internal/service"
	"github.com/yourname/studytracker/internal/storage"
)

func loadPaperViews(c *gin.Context, app App) ([]service.PaperView, bool) {
	user := currentUser(c)
	papers, err := app.Repos().QuestionBank.ListPapers(c.Request.Context())
	if err != nil {
		HandleError(c, app.Logger(), err, 500, "Failed to fetch papers")
		return nil, false
	}
	questions, err := app.Repos().QuestionBank.ListQuestions(c.Request.Context())
	if err != nil {
		HandleError(c, app.Logger(), err, 500, "Failed to fetch questions")
		return nil, false
	}
	completions, err := app.Repos().Completions.ListCompletions(c.Request.Context(), user.ID)
	if err != nil {
		HandleError(c, app.Logger(), err, 500, "Failed to fetch completions")
		return nil, false
	}
	return service.BuildPaperViews(papers, questions, completions), true
}

// GetPapers lists the paper catalog with the user's completion state.
// Optional filters: subject, year, level, completed.
func GetPapers(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		views, ok := loadPaperViews(c, app)
		if !ok {
			return
		}

		filter := service.PaperFilter{
			Subject: c.Query("subject"),
			Level:   c.Query("level"),
		}
		if yearStr := c.Query("year"); yearStr != "" {
			year, err := strconv.Atoi(yearStr)
			if err != nil {
				HandleError(c, app.Logger(), err, 400, "Invalid year")
				return
			}
			filter.Year = &year
		}
		if completedStr := c.Query("completed"); completedStr != "" {
			completed, err := strconv.ParseBool(completedStr)
			if err != nil {
				HandleError(c, app.Logger(), err, 400, "Invalid completed flag")
				return
			}
			filter.Completed = &completed
		}

		HandleSuccess(c, app.Logger(), service.FilterPapers(views, filter), nil)
	}
}

func GetPaper(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		views, ok := loadPaperViews(c, app)
		if !ok {
			return
		}
		for _, v := range views {
			if v.ID == id {
				HandleSuccess(c, app.Logger(), v, nil)
				return
			}
		}
		HandleError(c, app.Logger(), storage.ErrNotFound, 404, "Paper not found")
	}
}

func GetPaperQuestions(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if _, err := app.Repos().QuestionBank.GetPaper(c.Request.Context(), id); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				HandleError(c, app.Logger(), err, 404, "Paper not found")
			} else {
				HandleError(c, app.Logger(), err, 500, "Failed to fetch paper")
			}
			return
		}

		questions, err := app.Repos().QuestionBank.ListPaperQuestions(c.Request.Context(), id)
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to fetch paper questions")
			return
		}
		HandleSuccess(c, app.Logger(), questions, nil)
	}
}

func GetPaperSubjects(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		papers, err := app.Repos().QuestionBank.ListPapers(c.Request.Context())
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to fetch papers")
			return
		}
		HandleSuccess(c, app.Logger(), service.PaperSubjects(papers), nil)
	}
}

func GetPaperYears(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		papers, err := app.Repos().QuestionBank.ListPapers(c.Request.Context())
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to fetch papers")
			return
		}
		HandleSuccess(c, app.Logger(), service.PaperYears(papers), nil)
	}
}

func GetPaperStats(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		views, ok := loadPaperViews(c, app)
		if !ok {
			return
		}
		HandleSuccess(c, app.Logger(), service.ComputePaperStats(views), nil)
	}
}

// PostPaperComplete logs a completion for the whole paper, feeding the same
// streak and achievement pipeline as a single-question completion.
func PostPaperComplete(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)

		completion, err := service.CompletePaper(c.Request.Context(), app.Repos().QuestionBank, app.Repos().Completions, user, c.Param("id"))
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				HandleError(c, app.Logger(), err, 404, "Paper not found")
			} else {
				HandleError(c, app.Logger(), err, 500, "Failed to complete paper")
			}
			return
		}

		// Achievement bookkeeping must never fail the completion.
		if err := app.Achievements().Recompute(c.Request.Context(), user.ID, time.Now()); err != nil {
			app.Logger().Warnf("achievement recompute failed after paper completion: %v", err)
		}

		HandleSuccess(c, app.Logger(), completion, nil)
	}
}
