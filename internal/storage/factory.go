package storage

import (
	"fmt"

	"github.com/yourname/studytracker/internal"
	"github.com/yourname/studytracker/internal/config"
)

func bundle(s interface {
	SessionRepository
	CompletionRepository
	PlannedBlockRepository
	AchievementRepository
	UserRepository
	ProfileRepository
	QuestionBankRepository
}) *Repositories {
	return &Repositories{
		Sessions:     s,
		Completions:  s,
		Blocks:       s,
		Achievements: s,
		Users:        s,
		Profiles:     s,
		QuestionBank: s,
	}
}

// NewRepositories builds the repository bundle for the configured backend.
func NewRepositories(cfg *config.Config, logger internal.Logger) (*Repositories, func() error, error) {
	switch cfg.StorageBackend {
	case "file":
		s, err := NewFileStorage(Files{
			Sessions:    cfg.FileSessions,
			Completions: cfg.FileCompletions,
			Blocks:      cfg.FileBlocks,
			Users:       cfg.FileUsers,
			Progress:    cfg.FileProgress,
			Profiles:    cfg.FileProfiles,
			Questions:   cfg.FileQuestions,
			Papers:      cfg.FilePapers,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		return bundle(s), s.Close, nil
	case "sqlite":
		s, err := NewSQLiteStorage(cfg.SQLitePath, logger)
		if err != nil {
			return nil, nil, err
		}
		return bundle(s), s.Close, nil
	case "postgres":
		s, err := NewPostgresStorage(cfg.PostgresDSN, logger)
		if err != nil {
			return nil, nil, err
		}
		return bundle(s), func() error { s.pool.Close(); return nil }, nil
	default:
		return nil, nil, fmt.Errorf("storage: unknown backend %q", cfg.StorageBackend)
	}
}
