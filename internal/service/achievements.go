package service

import (
	"context"
	"math"
	"time"

	"github.com/yourname/studytracker/internal"
	"github.com/yourname/studytracker/internal/storage"
)

// AchievementService recomputes every achievement's progress from the full
// event history and applies unlock transitions. Recomputation is a whole-world
// overwrite rather than an incremental update, so it is naturally idempotent
// and safe to re-run after a partial failure.
type AchievementService struct {
	sessions     storage.SessionRepository
	completions  storage.CompletionRepository
	achievements storage.AchievementRepository
	logger       internal.Logger
}

func NewAchievementService(
	sessions storage.SessionRepository,
	completions storage.CompletionRepository,
	achievements storage.AchievementRepository,
	logger internal.Logger,
) *AchievementService {
	return &AchievementService{
		sessions:     sessions,
		completions:  completions,
		achievements: achievements,
		logger:       logger,
	}
}

// ApplyAggregate overwrites an achievement's progress with the freshly
// computed aggregate and decides the unlock transition. Stored progress is
// the truncated integer value of the aggregate (10.9 hours counts as 10);
// unlock requires the truncated value to reach the target. Already-unlocked
// records are never touched. Returns true when the record changed and needs
// to be persisted.
func ApplyAggregate(progress *internal.AchievementProgress, def internal.AchievementDefinition, value float64, now time.Time) bool {
	if progress.Unlocked {
		return false
	}

	newProgress := int(value)
	changed := newProgress != progress.CurrentProgress
	progress.CurrentProgress = newProgress

	unlock := false
	if def.TargetValue != nil {
		unlock = newProgress >= *def.TargetValue
	} else {
		unlock = newProgress > 0
	}

	if unlock {
		progress.Unlocked = true
		progress.UnlockedAt = &now
		// Displayed progress never exceeds the target.
		if def.TargetValue != nil && progress.CurrentProgress > *def.TargetValue {
			progress.CurrentProgress = *def.TargetValue
		}
		changed = true
	}

	if changed {
		progress.UpdatedAt = now
	}
	return changed
}

// ProgressPercent maps an aggregate to a 0–100 display value. The raw
// (fractional) aggregate is used so 7.5 of 10 hours reads as 75%, not 70%.
func ProgressPercent(def internal.AchievementDefinition, unlocked bool, value float64) int {
	if unlocked {
		return 100
	}
	if def.TargetValue == nil || *def.TargetValue == 0 {
		if value > 0 {
			return 100
		}
		return 0
	}
	pct := int(math.Round(value / float64(*def.TargetValue) * 100))
	if pct > 100 {
		pct = 100
	}
	return pct
}

// Recompute reloads the user's full event history, recomputes every metric
// and persists progress records that changed. Store failures are logged and
/// surfaced to the caller, but callers treat them as non-fatal: the triggering
// action (ending a session, logging a completion) has already succeeded.
func (s *AchievementService) Recompute(ctx context.Context, userID string, now time.Time) error {
	sessions, err := s.sessions.ListSessions(ctx, userID)
	if err != nil {
		s.logger.Errorf("achievements: failed to list sessions for %s: %v", userID, err)
		return err
	}
	completions, err := s.completions.ListCompletions(ctx, userID)
	if err != nil {
		s.logger.Errorf("achievements: failed to list completions for %s: %v", userID, err)
		return err
	}

	events := EventsFrom(sessions, completions)
	snap := ComputeStreak(events, now)

	defs, err := s.achievements.ListDefinitions(ctx)
	if err != nil {
		s.logger.Errorf("achievements: failed to list definitions: %v", err)
		return err
	}

	var firstErr error
	for _, def := range defs {
		value := Aggregate(def.Metric, events, snap)

		progress, err := s.achievements.GetProgress(ctx, userID, def.ID)
		if err != nil {
			s.logger.Errorf("achievements: failed to load progress for %s/%s: %v", userID, def.ID, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		if !ApplyAggregate(progress, def, value, now) {
			continue
		}
		if err := s.achievements.SaveProgress(ctx, progress); err != nil {
			s.logger.Errorf("achievements: failed to save progress for %s/%s: %v", userID, def.ID, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if progress.Unlocked {
			s.logger.Infof("achievements: unlocked %s for user %s", def.ID, userID)
		}
	}
	return firstErr
}

// AchievementView is the catalog entry decorated with the user's progress.
type AchievementView struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Description     string     `json:"description"`
	IconName        string     `json:"icon_name"`
	Unlocked        bool       `json:"unlocked"`
	CurrentProgress int        `json:"current_progress"`
	ProgressPercent int        `json:"progress_percent"`
	UnlockedAt      *time.Time `json:"unlocked_at,omitempty"`
}

// ListWithProgress returns the catalog decorated with stored unlock state and
// a live progress percentage computed from the current event history.
func (s *AchievementService) ListWithProgress(ctx context.Context, userID string, now time.Time) ([]AchievementView, error) {
	sessions, err := s.sessions.ListSessions(ctx, userID)
	if err != nil {
		return nil, err
	}
	completions, err := s.completions.ListCompletions(ctx, userID)
	if err != nil {
		return nil, err
	}
	defs, err := s.achievements.ListDefinitions(ctx)
	if err != nil {
		return nil, err
	}

	events := EventsFrom(sessions, completions)
	snap := ComputeStreak(events, now)

	views := make([]AchievementView, 0, len(defs))
	for _, def := range defs {
		progress, err := s.achievements.GetProgress(ctx, userID, def.ID)
		if err != nil {
			return nil, err
		}
		value := Aggregate(def.Metric, events, snap)
		views = append(views, AchievementView{
			ID:              def.ID,
			Name:            def.Name,
			Description:     def.Description,
			IconName:        def.IconName,
			Unlocked:        progress.Unlocked,
			CurrentProgress: progress.CurrentProgress,
			ProgressPercent: ProgressPercent(def, progress.Unlocked, value),
			UnlockedAt:      progress.UnlockedAt,
		})
	}
	return views, nil
}
