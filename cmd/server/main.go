package main

import (
	"log"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourname/studytracker/internal"
	"github.com/yourname/studytracker/internal/api"
	"github.com/yourname/studytracker/internal/auth"
	"github.com/yourname/studytracker/internal/config"
	"github.com/yourname/studytracker/internal/service"
	"github.com/yourname/studytracker/internal/storage"
)

type app struct {
	logger       internal.Logger
	repos        *storage.Repositories
	achievements *service.AchievementService
	jwtSecret    string
}

func (a *app) Logger() internal.Logger                   { return a.logger }
func (a *app) Repos() *storage.Repositories              { return a.repos }
func (a *app) Achievements() *service.AchievementService { return a.achievements }
func (a *app) JWTSecret() string                         { return a.jwtSecret }

func buildLogger(cfg *config.Config) (*zap.SugaredLogger, error) {
	var z *zap.Logger
	var err error
	if cfg.Env == "production" {
		z, err = zap.NewProduction()
	} else {
		z, err = zap.NewDevelopment()
	}
	if err != nil {
		return nil, err
	}
	return z.Sugar(), nil
}

func main() {
	cfg := config.Load()

	sugar, err := buildLogger(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer sugar.Sync()
	logger := internal.NewZapLogger(sugar)

	if cfg.StorageBackend != "postgres" {
		if _, err := os.Stat("data"); os.IsNotExist(err) {
			_ = os.Mkdir("data", 0755)
		}
	}

	repos, closeStorage, err := storage.NewRepositories(cfg, logger)
	if err != nil {
		logger.Fatalf("failed to init storage: %v", err)
	}
	defer closeStorage()

	jwtSecret := cfg.JWTSecret
	if jwtSecret == "" {
		// Development fallback only; Validate rejects this outside development.
		jwtSecret = "dev-insecure-secret"
		logger.Warn("JWT_SECRET not set, using development fallback")
	}

	achievements := service.NewAchievementService(repos.Sessions, repos.Completions, repos.Achievements, logger)
	a := &app{logger: logger, repos: repos, achievements: achievements, jwtSecret: jwtSecret}
	provider := auth.NewJWTProvider(jwtSecret, repos.Users, logger)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://localhost:8080", "http://localhost:8082"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		AllowCredentials: true,
	}))

	api.RegisterRoutes(r, a, provider)

	logger.Infof("Server running on %s (storage=%s)", cfg.ListenAddr, cfg.StorageBackend)
	if err := r.Run(cfg.ListenAddr); err != nil {
		logger.Fatalf("failed to start server: %v", err)
	}
}
