package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yourname/studytracker/internal"
	"github.com/yourname/studytracker/internal/storage"
)

// PaperView is a catalog paper decorated with its topics and the user's
// completion state. A paper counts as completed once the user has logged
// any completion referencing it.
type PaperView struct {
	ID        string   `json:"id"`
	Subject   string   `json:"subject"`
	Year      int      `json:"year"`
	Name      string   `json:"name"`
	Level     string   `json:"level,omitempty"`
	Duration  string   `json:"duration,omitempty"`
	Topics    []string `json:"topics"`
	Completed bool     `json:"completed"`
}

func BuildPaperViews(papers []internal.Paper, questions []internal.MathQuestion, completions []internal.QuestionCompletion) []PaperView {
	topicsByPaper := make(map[string][]string)
	for _, q := range questions {
		if q.PaperID != "" && q.Topic != "" {
			topicsByPaper[q.PaperID] = append(topicsByPaper[q.PaperID], q.Topic)
		}
	}
	completedPapers := make(map[string]struct{})
	for _, c := range completions {
		if c.PaperID != "" {
			completedPapers[c.PaperID] = struct{}{}
		}
	}

	views := make([]PaperView, 0, len(papers))
	for _, p := range papers {
		_, completed := completedPapers[p.ID]
		views = append(views, PaperView{
			ID:        p.ID,
			Subject:   p.Subject,
			Year:      p.Year,
			Name:      p.Name,
			Level:     p.Level,
			Duration:  p.Duration,
			Topics:    distinctStrings(topicsByPaper[p.ID]),
			Completed: completed,
		})
	}
	return views
}

// PaperFilter narrows the papers list; nil/empty values mean "no filter".
type PaperFilter struct {
	Subject   string
	Level     string
	Year      *int
	Completed *bool
}

func FilterPapers(views []PaperView, f PaperFilter) []PaperView {
	out := make([]PaperView, 0, len(views))
	for _, v := range views {
		if f.Subject != "" && !strings.EqualFold(v.Subject, f.Subject) {
			continue
		}
		if f.Level != "" && !strings.EqualFold(v.Level, f.Level) {
			continue
		}
		if f.Year != nil && v.Year != *f.Year {
			continue
		}
		if f.Completed != nil && v.Completed != *f.Completed {
			continue
		}
		out = append(out, v)
	}
	return out
}

func PaperSubjects(papers []internal.Paper) []string {
	subjects := make([]string, len(papers))
	for i, p := range papers {
		subjects[i] = p.Subject
	}
	return distinctStrings(subjects)
}

// PaperYears lists distinct years, newest first.
func PaperYears(papers []internal.Paper) []int {
	seen := make(map[int]struct{}, len(papers))
	var out []int
	for _, p := range papers {
		if p.Year == 0 {
			continue
		}
		if _, ok := seen[p.Year]; ok {
			continue
		}
		seen[p.Year] = struct{}{}
		out = append(out, p.Year)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(out)))
	return out
}

// PaperStats counts the catalog and how much of it the user has worked through.
type PaperStats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
}

func ComputePaperStats(views []PaperView) PaperStats {
	stats := PaperStats{Total: len(views)}
	for _, v := range views {
		if v.Completed {
			stats.Completed++
		}
	}
	return stats
}

// CompletePaper records a completion referencing the paper, which marks it
// completed and feeds the same streak and achievement aggregates as any
// other completion.
func CompletePaper(ctx context.Context, bank storage.QuestionBankRepository, completions storage.CompletionRepository, user *internal.User, paperID string) (*internal.QuestionCompletion, error) {
	paper, err := bank.GetPaper(ctx, paperID)
	if err != nil {
		return nil, err
	}

	completion := &internal.QuestionCompletion{
		ID:          uuid.NewString(),
		UserID:      user.ID,
		PaperID:     paper.ID,
		Subject:     paper.Subject,
		CompletedAt: time.Now(),
		CreatedAt:   time.Now(),
	}
	if err := completions.SaveCompletion(ctx, completion); err != nil {
		return nil, err
	}
	return completion, nil
}
