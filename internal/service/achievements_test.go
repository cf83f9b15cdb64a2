package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/yourname/studytracker/internal"
	"github.com/yourname/studytracker/internal/storage"
)

func targetOf(v int) *int { return &v }

func testLogger() internal.Logger {
	return internal.NewZapLogger(zap.NewNop().Sugar())
}

func TestApplyAggregate_UnlocksAtTarget(t *testing.T) {
	def := internal.AchievementDefinition{ID: "getting_started", Metric: internal.MetricSessions, TargetValue: targetOf(5)}
	progress := &internal.AchievementProgress{UserID: "u1", AchievementID: def.ID}
	now := time.Now()

	changed := ApplyAggregate(progress, def, 5, now)
	assert.True(t, changed)
	assert.Equal(t, 5, progress.CurrentProgress)
	assert.True(t, progress.Unlocked)
	assert.Equal(t, now, *progress.UnlockedAt)
	assert.Equal(t, 100, ProgressPercent(def, progress.Unlocked, 5))
}

func TestApplyAggregate_HoursTruncation(t *testing.T) {
	def := internal.AchievementDefinition{ID: "dedicated_learner", Metric: internal.MetricHours, TargetValue: targetOf(10)}
	progress := &internal.AchievementProgress{UserID: "u1", AchievementID: def.ID}

	// 450 minutes = 7.5 hours: stored progress truncates to 7, display keeps 75%.
	changed := ApplyAggregate(progress, def, 7.5, time.Now())
	assert.True(t, changed)
	assert.Equal(t, 7, progress.CurrentProgress)
	assert.False(t, progress.Unlocked)
	assert.Equal(t, 75, ProgressPercent(def, progress.Unlocked, 7.5))
}

func TestApplyAggregate_ClampsProgressAtTarget(t *testing.T) {
	def := internal.AchievementDefinition{ID: "first_steps", Metric: internal.MetricSessions, TargetValue: targetOf(1)}
	progress := &internal.AchievementProgress{UserID: "u1", AchievementID: def.ID}

	ApplyAggregate(progress, def, 12, time.Now())
	assert.True(t, progress.Unlocked)
	assert.Equal(t, 1, progress.CurrentProgress)
}

func TestApplyAggregate_NoTargetUnlocksOnPositive(t *testing.T) {
	def := internal.AchievementDefinition{ID: "early_bird", Metric: internal.MetricEarlyBird}
	progress := &internal.AchievementProgress{UserID: "u1", AchievementID: def.ID}

	assert.False(t, ApplyAggregate(progress, def, 0, time.Now()))
	assert.False(t, progress.Unlocked)
	assert.Equal(t, 0, ProgressPercent(def, progress.Unlocked, 0))

	assert.True(t, ApplyAggregate(progress, def, 1, time.Now()))
	assert.True(t, progress.Unlocked)
	assert.Equal(t, 100, ProgressPercent(def, progress.Unlocked, 1))
}

func TestApplyAggregate_MonotonicUnlock(t *testing.T) {
	def := internal.AchievementDefinition{ID: "study_streak", Metric: internal.MetricStreak, TargetValue: targetOf(3)}
	progress := &internal.AchievementProgress{UserID: "u1", AchievementID: def.ID}
	first := time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC)

	ApplyAggregate(progress, def, 3, first)
	assert.True(t, progress.Unlocked)

	// A later recomputation with a reset streak must not touch the record.
	later := first.Add(48 * time.Hour)
	changed := ApplyAggregate(progress, def, 0, later)
	assert.False(t, changed)
	assert.True(t, progress.Unlocked)
	assert.Equal(t, first, *progress.UnlockedAt)
	assert.Equal(t, 3, progress.CurrentProgress)
}

func TestApplyAggregate_NoChangeNoWrite(t *testing.T) {
	def := internal.AchievementDefinition{ID: "question_solver", Metric: internal.MetricQuestionsTotal, TargetValue: targetOf(50)}
	progress := &internal.AchievementProgress{UserID: "u1", AchievementID: def.ID, CurrentProgress: 12}

	assert.False(t, ApplyAggregate(progress, def, 12, time.Now()))
}

// progressSpy wraps an AchievementRepository and counts persisted writes.
type progressSpy struct {
	storage.AchievementRepository
	saves int
}

func (s *progressSpy) SaveProgress(ctx context.Context, p *internal.AchievementProgress) error {
	s.saves++
	return s.AchievementRepository.SaveProgress(ctx, p)
}

func newTestStorage(t *testing.T) *storage.FileStorage {
	t.Helper()
	dir := t.TempDir()
	s, err := storage.NewFileStorage(storage.Files{
		Sessions:    dir + "/sessions.json",
		Completions: dir + "/completions.json",
		Blocks:      dir + "/blocks.json",
		Users:       dir + "/users.json",
		Progress:    dir + "/progress.json",
		Profiles:    dir + "/profiles.json",
	}, testLogger())
	assert.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRecompute_UnlocksFirstSession(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)
	now := time.Now()

	mins := 30
	end := now
	assert.NoError(t, store.SaveSession(ctx, &internal.StudySession{
		ID: "s1", UserID: "u1", Subject: "Mathematics",
		StartTime: now.Add(-30 * time.Minute), EndTime: &end, DurationMinutes: &mins,
		Type: internal.SessionRegular, CreatedAt: now,
	}))

	svc := NewAchievementService(store, store, store, testLogger())
	assert.NoError(t, svc.Recompute(ctx, "u1", now))

	progress, err := store.GetProgress(ctx, "u1", "first_steps")
	assert.NoError(t, err)
	assert.True(t, progress.Unlocked)
	assert.Equal(t, 1, progress.CurrentProgress)

	streak, err := store.GetProgress(ctx, "u1", "study_streak")
	assert.NoError(t, err)
	assert.False(t, streak.Unlocked)
	assert.Equal(t, 1, streak.CurrentProgress)
}

func TestRecompute_IdempotentWithoutNewEvents(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)
	now := time.Now()

	mins := 60
	assert.NoError(t, store.SaveSession(ctx, &internal.StudySession{
		ID: "s1", UserID: "u1", Subject: "Mathematics",
		StartTime: now.Add(-time.Hour), DurationMinutes: &mins,
		Type: internal.SessionRegular, CreatedAt: now,
	}))

	spy := &progressSpy{AchievementRepository: store}
	svc := NewAchievementService(store, store, spy, testLogger())

	assert.NoError(t, svc.Recompute(ctx, "u1", now))
	firstRun := spy.saves
	assert.Greater(t, firstRun, 0)

	// Same events, same day: nothing changed, nothing written.
	assert.NoError(t, svc.Recompute(ctx, "u1", now))
	assert.Equal(t, firstRun, spy.saves)
}

func TestRecompute_ScopedPerUser(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)
	now := time.Now()

	assert.NoError(t, store.SaveSession(ctx, &internal.StudySession{
		ID: "s1", UserID: "u1", Subject: "Mathematics",
		StartTime: now, Type: internal.SessionRegular, CreatedAt: now,
	}))

	svc := NewAchievementService(store, store, store, testLogger())
	assert.NoError(t, svc.Recompute(ctx, "u1", now))
	assert.NoError(t, svc.Recompute(ctx, "u2", now))

	other, err := store.GetProgress(ctx, "u2", "first_steps")
	assert.NoError(t, err)
	assert.False(t, other.Unlocked)
	assert.Equal(t, 0, other.CurrentProgress)
}

func TestListWithProgress_LivePercent(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)
	now := time.Now()

	// 450 minutes studied: dedicated_learner (10h) should read 75%.
	mins := 450
	assert.NoError(t, store.SaveSession(ctx, &internal.StudySession{
		ID: "s1", UserID: "u1", Subject: "Mathematics",
		StartTime: now.Add(-8 * time.Hour), DurationMinutes: &mins,
		Type: internal.SessionRegular, CreatedAt: now,
	}))

	svc := NewAchievementService(store, store, store, testLogger())
	views, err := svc.ListWithProgress(ctx, "u1", now)
	assert.NoError(t, err)

	byID := make(map[string]AchievementView)
	for _, v := range views {
		byID[v.ID] = v
	}
	assert.Equal(t, 75, byID["dedicated_learner"].ProgressPercent)
	assert.False(t, byID["dedicated_learner"].Unlocked)
}
