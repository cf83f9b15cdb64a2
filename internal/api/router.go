package api

import (
	"github.com/gin-gonic/gin"
	"github.com/yourname/studytracker/internal/auth"
)

// RegisterRoutes wires every endpoint onto the engine. Auth routes are
// public; everything under /api requires a bearer token.
func RegisterRoutes(r *gin.Engine, app App, provider auth.Provider) {
	r.Use(RequestIDMiddleware())

	r.POST("/auth/register", PostRegister(app))
	r.POST("/auth/login", PostLogin(app))

	protected := r.Group("/api")
	protected.Use(auth.AuthMiddleware(provider))

	study := protected.Group("/study")
	study.POST("/sessions", PostSession(app))
	study.PUT("/sessions/:id/end", PutSessionEnd(app))
	study.GET("/sessions/today", GetSessionsToday(app))
	study.GET("/sessions", GetSessions(app))
	study.GET("/stats", GetStats(app))
	study.GET("/stats/subjects", GetSubjectBreakdown(app))
	study.GET("/subject-breakdown", GetSubjectBreakdown(app))
	study.GET("/streak", GetStreak(app))
	study.GET("/weekly-progress", GetWeeklyProgress(app))
	study.GET("/today-progress", GetTodayProgress(app))
	study.GET("/achievements", GetAchievements(app))
	study.GET("/planned-blocks", GetPlannedBlocks(app))
	study.POST("/planned-blocks", PostPlannedBlock(app))
	study.PUT("/planned-blocks/:id", PutPlannedBlock(app))
	study.DELETE("/planned-blocks/:id", DeletePlannedBlock(app))
	study.PUT("/planned-blocks/:id/complete", PutPlannedBlockComplete(app))
	study.GET("/user-goals", GetUserGoals(app))
	study.POST("/user-goals", PostUserGoals(app))

	questions := protected.Group("/questions")
	questions.POST("/completions", PostCompletion(app))
	questions.GET("/completions", GetCompletions(app))
	questions.GET("", GetQuestions(app))
	questions.GET("/subjects", GetQuestionSubjects(app))
	questions.GET("/years", GetQuestionYears(app))
	questions.GET("/topics", GetQuestionTopics(app))
	questions.GET("/paper-types", GetQuestionPaperTypes(app))
	questions.GET("/stats", GetQuestionStats(app))
	questions.GET("/:id", GetQuestion(app))

	papers := protected.Group("/papers")
	papers.GET("", GetPapers(app))
	papers.GET("/subjects", GetPaperSubjects(app))
	papers.GET("/years", GetPaperYears(app))
	papers.GET("/stats", GetPaperStats(app))
	papers.GET("/:id", GetPaper(app))
	papers.GET("/:id/questions", GetPaperQuestions(app))
	papers.POST("/:id/complete", PostPaperComplete(app))
}
