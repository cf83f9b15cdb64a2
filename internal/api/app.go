package api

import (
	"github.com/yourname/studytracker/internal"
	"github.com/yourname/studytracker/internal/service"
	"github.com/yourname/studytracker/internal/storage"
)

type App interface {
	Logger() internal.Logger
	Repos() *storage.Repositories
	Achievements() *service.AchievementService
	JWTSecret() string
}
