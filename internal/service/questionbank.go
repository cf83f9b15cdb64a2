package service

import (
	"sort"
	"strings"

	"github.com/yourname/studytracker/internal"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// QuestionFilter narrows the question bank; zero values mean "no filter".
type QuestionFilter struct {
	Query      string
	Subject    string
	Topic      string
	PaperType  string
	Difficulty string
	Year       int
}

func FilterQuestions(questions []internal.MathQuestion, f QuestionFilter) []internal.MathQuestion {
	query := strings.ToLower(strings.TrimSpace(f.Query))
	out := make([]internal.MathQuestion, 0, len(questions))
	for _, q := range questions {
		if f.Subject != "" && !strings.EqualFold(q.Subject, f.Subject) {
			continue
		}
		if f.Topic != "" && !strings.EqualFold(q.Topic, f.Topic) {
			continue
		}
		if f.PaperType != "" && !strings.EqualFold(q.PaperType, f.PaperType) {
			continue
		}
		if f.Difficulty != "" && !strings.EqualFold(q.Difficulty, f.Difficulty) {
			continue
		}
		if f.Year != 0 && q.Year != f.Year {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(q.Content), query) &&
			!strings.Contains(strings.ToLower(q.Topic), query) {
			continue
		}
		out = append(out, q)
	}
	return out
}

// SortQuestions orders by "year" or "question_number"; anything else falls
// back to year. The secondary key is always question number ascending.
func SortQuestions(questions []internal.MathQuestion, sortBy, sortDir string) {
	desc := strings.EqualFold(sortDir, "desc")
	sort.SliceStable(questions, func(i, j int) bool {
		a, b := questions[i], questions[j]
		var less bool
		switch sortBy {
		case "question_number":
			if a.QuestionNumber != b.QuestionNumber {
				less = a.QuestionNumber < b.QuestionNumber
			} else {
				less = a.Year < b.Year
			}
		default: // year
			if a.Year != b.Year {
				less = a.Year < b.Year
			} else {
				return a.QuestionNumber < b.QuestionNumber
			}
		}
		if desc {
			return !less
		}
		return less
	})
}

// QuestionPage is one page of the question bank.
type QuestionPage struct {
	Items      []internal.MathQuestion `json:"items"`
	Page       int                     `json:"page"`
	Size       int                     `json:"size"`
	TotalItems int                     `json:"total_items"`
	TotalPages int                     `json:"total_pages"`
}

func PaginateQuestions(questions []internal.MathQuestion, page, size int) QuestionPage {
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	if page < 0 {
		page = 0
	}

	total := len(questions)
	totalPages := (total + size - 1) / size

	start := page * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}

	items := make([]internal.MathQuestion, end-start)
	copy(items, questions[start:end])
	return QuestionPage{
		Items:      items,
		Page:       page,
		Size:       size,
		TotalItems: total,
		TotalPages: totalPages,
	}
}

func distinctStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	var out []string
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func QuestionSubjects(questions []internal.MathQuestion) []string {
	subjects := make([]string, len(questions))
	for i, q := range questions {
		subjects[i] = q.Subject
	}
	return distinctStrings(subjects)
}

func QuestionTopics(questions []internal.MathQuestion) []string {
	topics := make([]string, len(questions))
	for i, q := range questions {
		topics[i] = q.Topic
	}
	return distinctStrings(topics)
}

func QuestionPaperTypes(questions []internal.MathQuestion) []string {
	types := make([]string, len(questions))
	for i, q := range questions {
		types[i] = q.PaperType
	}
	return distinctStrings(types)
}

// QuestionYears lists distinct years, newest first.
func QuestionYears(questions []internal.MathQuestion) []int {
	seen := make(map[int]struct{}, len(questions))
	var out []int
	for _, q := range questions {
		if q.Year == 0 {
			continue
		}
		if _, ok := seen[q.Year]; ok {
			continue
		}
		seen[q.Year] = struct{}{}
		out = append(out, q.Year)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(out)))
	return out
}

// QuestionStats summarizes the catalog for the overview widget.
type QuestionStats struct {
	Total        int            `json:"total"`
	BySubject    map[string]int `json:"by_subject"`
	ByDifficulty map[string]int `json:"by_difficulty"`
}

func ComputeQuestionStats(questions []internal.MathQuestion) QuestionStats {
	stats := QuestionStats{
		Total:        len(questions),
		BySubject:    make(map[string]int),
		ByDifficulty: make(map[string]int),
	}
	for _, q := range questions {
		if q.Subject != "" {
			stats.BySubject[q.Subject]++
		}
		if q.Difficulty != "" {
			stats.ByDifficulty[q.Difficulty]++
		}
	}
	return stats
}
