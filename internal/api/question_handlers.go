package api

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yourname/studytracker/internal"
	"github.com/yourname/studytracker/internal/service"
	"github.com/yourname/studytracker/internal/storage"
)

func loadQuestionBank(c *gin.Context, app App) ([]internal.MathQuestion, bool) {
	questions, err := app.Repos().QuestionBank.ListQuestions(c.Request.Context())
	if err != nil {
		HandleError(c, app.Logger(), err, 500, "Failed to fetch questions")
		return nil, false
	}
	return questions, true
}

// GetQuestions serves the paginated question bank. Filters (q, subject,
// topic, year, paper_type, difficulty) and sort order come from the query
// string.
func GetQuestions(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		questions, ok := loadQuestionBank(c, app)
		if !ok {
			return
		}

		filter := service.QuestionFilter{
			Query:      c.Query("q"),
			Subject:    c.Query("subject"),
			Topic:      c.Query("topic"),
			PaperType:  c.Query("paper_type"),
			Difficulty: c.Query("difficulty"),
		}
		if yearStr := c.Query("year"); yearStr != "" {
			year, err := strconv.Atoi(yearStr)
			if err != nil {
				HandleError(c, app.Logger(), err, 400, "Invalid year")
				return
			}
			filter.Year = year
		}

		page, _ := strconv.Atoi(c.DefaultQuery("page", "0"))
		size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))

		questions = service.FilterQuestions(questions, filter)
		service.SortQuestions(questions, c.DefaultQuery("sort_by", "year"), c.DefaultQuery("sort_dir", "desc"))

		HandleSuccess(c, app.Logger(), service.PaginateQuestions(questions, page, size), nil)
	}
}

func GetQuestion(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		question, err := app.Repos().QuestionBank.GetQuestion(c.Request.Context(), c.Param("id"))
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				HandleError(c, app.Logger(), err, 404, "Question not found")
			} else {
				HandleError(c, app.Logger(), err, 500, "Failed to fetch question")
			}
			return
		}
		HandleSuccess(c, app.Logger(), question, nil)
	}
}

func GetQuestionSubjects(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		questions, ok := loadQuestionBank(c, app)
		if !ok {
			return
		}
		HandleSuccess(c, app.Logger(), service.QuestionSubjects(questions), nil)
	}
}

func GetQuestionYears(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		questions, ok := loadQuestionBank(c, app)
		if !ok {
			return
		}
		HandleSuccess(c, app.Logger(), service.QuestionYears(questions), nil)
	}
}

func GetQuestionTopics(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		questions, ok := loadQuestionBank(c, app)
		if !ok {
			return
		}
		HandleSuccess(c, app.Logger(), service.QuestionTopics(questions), nil)
	}
}

func GetQuestionPaperTypes(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		questions, ok := loadQuestionBank(c, app)
		if !ok {
			return
		}
		HandleSuccess(c, app.Logger(), service.QuestionPaperTypes(questions), nil)
	}
}

func GetQuestionStats(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		questions, ok := loadQuestionBank(c, app)
		if !ok {
			return
		}
		HandleSuccess(c, app.Logger(), service.ComputeQuestionStats(questions), nil)
	}
}
