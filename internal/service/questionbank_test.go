package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/yourname/studytracker/internal"
)

func bankFixture() []internal.MathQuestion {
	return []internal.MathQuestion{
		{ID: "q1", PaperID: "p1", Subject: "Mathematics", Year: 2023, PaperType: "Paper 1", QuestionNumber: 2, Content: "Integrate cos x", Topic: "Calculus", Difficulty: "MEDIUM"},
		{ID: "q2", PaperID: "p1", Subject: "Mathematics", Year: 2023, PaperType: "Paper 1", QuestionNumber: 1, Content: "Differentiate x^2", Topic: "Calculus", Difficulty: "EASY"},
		{ID: "q3", PaperID: "p2", Subject: "Mathematics", Year: 2022, PaperType: "Paper 2", QuestionNumber: 1, Content: "Prove by induction", Topic: "Algebra", Difficulty: "HARD"},
		{ID: "q4", PaperID: "p3", Subject: "Physics", Year: 2022, PaperType: "Paper 1", QuestionNumber: 3, Content: "Define momentum", Topic: "Mechanics", Difficulty: "EASY"},
	}
}

func TestFilterQuestions(t *testing.T) {
	questions := bankFixture()

	bySubject := FilterQuestions(questions, QuestionFilter{Subject: "physics"})
	assert.Len(t, bySubject, 1)
	assert.Equal(t, "q4", bySubject[0].ID)

	byTopic := FilterQuestions(questions, QuestionFilter{Topic: "Calculus"})
	assert.Len(t, byTopic, 2)

	byYear := FilterQuestions(questions, QuestionFilter{Year: 2022})
	assert.Len(t, byYear, 2)

	byQuery := FilterQuestions(questions, QuestionFilter{Query: "INDUCTION"})
	assert.Len(t, byQuery, 1)
	assert.Equal(t, "q3", byQuery[0].ID)

	combined := FilterQuestions(questions, QuestionFilter{Subject: "Mathematics", Difficulty: "easy"})
	assert.Len(t, combined, 1)
	assert.Equal(t, "q2", combined[0].ID)

	assert.Empty(t, FilterQuestions(questions, QuestionFilter{Subject: "Chemistry"}))
}

func TestSortQuestions(t *testing.T) {
	questions := bankFixture()

	SortQuestions(questions, "year", "desc")
	assert.Equal(t, 2023, questions[0].Year)
	// Within a year, question number ascending.
	assert.Equal(t, 1, questions[0].QuestionNumber)
	assert.Equal(t, 2, questions[1].QuestionNumber)

	SortQuestions(questions, "year", "asc")
	assert.Equal(t, 2022, questions[0].Year)

	SortQuestions(questions, "question_number", "asc")
	assert.Equal(t, 1, questions[0].QuestionNumber)
	assert.Equal(t, 3, questions[len(questions)-1].QuestionNumber)
}

func TestPaginateQuestions(t *testing.T) {
	questions := bankFixture()

	page := PaginateQuestions(questions, 0, 3)
	assert.Len(t, page.Items, 3)
	assert.Equal(t, 4, page.TotalItems)
	assert.Equal(t, 2, page.TotalPages)

	page = PaginateQuestions(questions, 1, 3)
	assert.Len(t, page.Items, 1)

	// Past the end yields an empty page, not a panic.
	page = PaginateQuestions(questions, 5, 3)
	assert.Empty(t, page.Items)

	// Defaults kick in for nonsense sizes.
	page = PaginateQuestions(questions, -1, -5)
	assert.Equal(t, 0, page.Page)
	assert.Equal(t, defaultPageSize, page.Size)
}

func TestQuestionFacets(t *testing.T) {
	questions := bankFixture()

	assert.Equal(t, []string{"Mathematics", "Physics"}, QuestionSubjects(questions))
	assert.Equal(t, []string{"Algebra", "Calculus", "Mechanics"}, QuestionTopics(questions))
	assert.Equal(t, []string{"Paper 1", "Paper 2"}, QuestionPaperTypes(questions))
	assert.Equal(t, []int{2023, 2022}, QuestionYears(questions))

	stats := ComputeQuestionStats(questions)
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 3, stats.BySubject["Mathematics"])
	assert.Equal(t, 2, stats.ByDifficulty["EASY"])
}

func TestBuildPaperViews(t *testing.T) {
	papers := []internal.Paper{
		{ID: "p1", Subject: "Mathematics", Year: 2023, Name: "Paper 1", Level: "Higher"},
		{ID: "p2", Subject: "Mathematics", Year: 2022, Name: "Paper 2", Level: "Ordinary"},
	}
	completions := []internal.QuestionCompletion{
		{ID: "c1", UserID: "u1", PaperID: "p2", Subject: "Mathematics", CompletedAt: time.Now()},
		{ID: "c2", UserID: "u1", Subject: "Physics", CompletedAt: time.Now()}, // no paper reference
	}

	views := BuildPaperViews(papers, bankFixture(), completions)
	assert.Len(t, views, 2)
	assert.False(t, views[0].Completed)
	assert.True(t, views[1].Completed)
	assert.Equal(t, []string{"Calculus"}, views[0].Topics)
	assert.Equal(t, []string{"Algebra"}, views[1].Topics)

	completed := true
	filtered := FilterPapers(views, PaperFilter{Completed: &completed})
	assert.Len(t, filtered, 1)
	assert.Equal(t, "p2", filtered[0].ID)

	filtered = FilterPapers(views, PaperFilter{Level: "higher"})
	assert.Len(t, filtered, 1)
	assert.Equal(t, "p1", filtered[0].ID)

	stats := ComputePaperStats(views)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Completed)
}

func TestPaperFacets(t *testing.T) {
	papers := []internal.Paper{
		{ID: "p1", Subject: "Mathematics", Year: 2023},
		{ID: "p2", Subject: "Mathematics", Year: 2022},
		{ID: "p3", Subject: "Physics", Year: 2023},
	}
	assert.Equal(t, []string{"Mathematics", "Physics"}, PaperSubjects(papers))
	assert.Equal(t, []int{2023, 2022}, PaperYears(papers))
}
