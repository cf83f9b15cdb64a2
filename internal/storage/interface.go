package storage

import (
	"context"
	"errors"

	"github.com/yourname/studytracker/internal"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("storage: not found")

type SessionRepository interface {
	SaveSession(ctx context.Context, session *internal.StudySession) error
	GetSession(ctx context.Context, userID, id string) (*internal.StudySession, error)
	ListSessions(ctx context.Context, userID string) ([]internal.StudySession, error)
}

type CompletionRepository interface {
	SaveCompletion(ctx context.Context, completion *internal.QuestionCompletion) error
	ListCompletions(ctx context.Context, userID string) ([]internal.QuestionCompletion, error)
}

type PlannedBlockRepository interface {
	SaveBlock(ctx context.Context, block *internal.PlannedBlock) error
	GetBlock(ctx context.Context, userID, id string) (*internal.PlannedBlock, error)
	ListBlocks(ctx context.Context, userID string) ([]internal.PlannedBlock, error)
	DeleteBlock(ctx context.Context, userID, id string) error
}

type AchievementRepository interface {
	ListDefinitions(ctx context.Context) ([]internal.AchievementDefinition, error)
	// GetProgress returns a zero-progress record when none has been saved yet.
	GetProgress(ctx context.Context, userID, achievementID string) (*internal.AchievementProgress, error)
	SaveProgress(ctx context.Context, progress *internal.AchievementProgress) error
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *internal.User) error
	GetUserByUsername(ctx context.Context, username string) (*internal.User, error)
	GetUserByID(ctx context.Context, id string) (*internal.User, error)
}

type ProfileRepository interface {
	// GetProfile returns DefaultProfile when the user has never saved goals.
	GetProfile(ctx context.Context, userID string) (*internal.UserProfile, error)
	SaveProfile(ctx context.Context, profile *internal.UserProfile) error
}

// QuestionBankRepository serves the imported catalog of past-paper questions
// and papers. The catalog is read-only at runtime; completions reference it.
type QuestionBankRepository interface {
	ListQuestions(ctx context.Context) ([]internal.MathQuestion, error)
	GetQuestion(ctx context.Context, id string) (*internal.MathQuestion, error)
	ListPapers(ctx context.Context) ([]internal.Paper, error)
	GetPaper(ctx context.Context, id string) (*internal.Paper, error)
	ListPaperQuestions(ctx context.Context, paperID string) ([]internal.MathQuestion, error)
}

// Repositories bundles every store the handlers and services depend on.
type Repositories struct {
	Sessions     SessionRepository
	Completions  CompletionRepository
	Blocks       PlannedBlockRepository
	Achievements AchievementRepository
	Users        UserRepository
	Profiles     ProfileRepository
	QuestionBank QuestionBankRepository
}
