package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/yourname/studytracker/internal"
	"github.com/yourname/studytracker/internal/auth"
	"github.com/yourname/studytracker/internal/service"
	"github.com/yourname/studytracker/internal/storage"
)

const testSecret = "test-secret"

type testApp struct {
	logger       internal.Logger
	repos        *storage.Repositories
	achievements *service.AchievementService
}

func (a *testApp) Logger() internal.Logger                   { return a.logger }
func (a *testApp) Repos() *storage.Repositories              { return a.repos }
func (a *testApp) Achievements() *service.AchievementService { return a.achievements }
func (a *testApp) JWTSecret() string                         { return testSecret }

// testQuestionBank is written as the catalog fixture for every test engine.
var (
	testQuestions = []internal.MathQuestion{
		{ID: "q1", PaperID: "p1", Subject: "Mathematics", Year: 2023, PaperType: "Paper 1", QuestionNumber: 1, Content: "Differentiate x^2", Topic: "Calculus", Difficulty: "EASY"},
		{ID: "q2", PaperID: "p1", Subject: "Mathematics", Year: 2023, PaperType: "Paper 1", QuestionNumber: 2, Content: "Integrate cos x", Topic: "Calculus", Difficulty: "MEDIUM"},
		{ID: "q3", PaperID: "p2", Subject: "Mathematics", Year: 2022, PaperType: "Paper 2", QuestionNumber: 1, Content: "Prove by induction", Topic: "Algebra", Difficulty: "HARD"},
	}
	testPapers = []internal.Paper{
		{ID: "p1", Subject: "Mathematics", Year: 2023, Name: "Paper 1", Level: "Higher", Duration: "3 hours"},
		{ID: "p2", Subject: "Mathematics", Year: 2022, Name: "Paper 2", Level: "Higher", Duration: "3 hours"},
	}
)

func writeFixture(t *testing.T, path string, data interface{}) {
	t.Helper()
	raw, err := json.Marshal(data)
	assert.NoError(t, err)
	assert.NoError(t, os.WriteFile(path, raw, 0644))
}

func newTestEngine(t *testing.T, mutate func(a *testApp)) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := internal.NewZapLogger(zap.NewNop().Sugar())
	dir := t.TempDir()
	writeFixture(t, dir+"/math_questions.json", testQuestions)
	writeFixture(t, dir+"/papers.json", testPapers)

	store, err := storage.NewFileStorage(storage.Files{
		Sessions:    dir + "/sessions.json",
		Completions: dir + "/completions.json",
		Blocks:      dir + "/blocks.json",
		Users:       dir + "/users.json",
		Progress:    dir + "/progress.json",
		Profiles:    dir + "/profiles.json",
		Questions:   dir + "/math_questions.json",
		Papers:      dir + "/papers.json",
	}, logger)
	assert.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	repos := &storage.Repositories{
		Sessions:     store,
		Completions:  store,
		Blocks:       store,
		Achievements: store,
		Users:        store,
		Profiles:     store,
		QuestionBank: store,
	}
	app := &testApp{
		logger:       logger,
		repos:        repos,
		achievements: service.NewAchievementService(store, store, store, logger),
	}
	if mutate != nil {
		mutate(app)
	}

	r := gin.New()
	RegisterRoutes(r, app, auth.NewJWTProvider(testSecret, app.repos.Users, logger))
	return r
}

func setupRouter(t *testing.T) *gin.Engine {
	return newTestEngine(t, nil)
}

func doJSON(r *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req, _ = http.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, _ = http.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func registerAndLogin(t *testing.T, r *gin.Engine) string {
	t.Helper()
	w := doJSON(r, "POST", "/auth/register", "", `{"username":"student","email":"s@example.com","password":"correct-horse"}`)
	assert.Equal(t, 200, w.Code)

	var resp struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Data.Token)
	return resp.Data.Token
}

func TestAuth_RegisterAndLogin(t *testing.T) {
	r := setupRouter(t)
	registerAndLogin(t, r)

	// Duplicate username
	w := doJSON(r, "POST", "/auth/register", "", `{"username":"student","email":"x@example.com","password":"correct-horse"}`)
	assert.Equal(t, 409, w.Code)

	// Valid login
	w = doJSON(r, "POST", "/auth/login", "", `{"username":"student","password":"correct-horse"}`)
	assert.Equal(t, 200, w.Code)

	// Wrong password
	w = doJSON(r, "POST", "/auth/login", "", `{"username":"student","password":"wrong"}`)
	assert.Equal(t, 401, w.Code)

	// Too-short password rejected at validation
	w = doJSON(r, "POST", "/auth/register", "", `{"username":"other","email":"o@example.com","password":"short"}`)
	assert.Equal(t, 400, w.Code)
}

func TestSessions_RequireAuth(t *testing.T) {
	r := setupRouter(t)

	w := doJSON(r, "POST", "/api/study/sessions", "", `{"subject":"Mathematics"}`)
	assert.Equal(t, 401, w.Code)

	w = doJSON(r, "POST", "/api/study/sessions", "bogus-token", `{"subject":"Mathematics"}`)
	assert.Equal(t, 401, w.Code)
}

func TestSessions_StartEndAndAchievements(t *testing.T) {
	r := setupRouter(t)
	token := registerAndLogin(t, r)

	// Missing subject rejected
	w := doJSON(r, "POST", "/api/study/sessions", token, `{"topic":"Algebra"}`)
	assert.Equal(t, 400, w.Code)

	w = doJSON(r, "POST", "/api/study/sessions", token, `{"subject":"Mathematics","topic":"Algebra","type":"pomodoro"}`)
	assert.Equal(t, 200, w.Code)

	var created struct {
		Data internal.StudySession `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "POMODORO", created.Data.Type)
	assert.Nil(t, created.Data.EndTime)

	w = doJSON(r, "PUT", "/api/study/sessions/"+created.Data.ID+"/end", token, `{"notes":"done"}`)
	assert.Equal(t, 200, w.Code)

	var ended struct {
		Data internal.StudySession `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &ended))
	assert.NotNil(t, ended.Data.EndTime)
	assert.NotNil(t, ended.Data.DurationMinutes)

	// Ending twice conflicts
	w = doJSON(r, "PUT", "/api/study/sessions/"+created.Data.ID+"/end", token, "")
	assert.Equal(t, 409, w.Code)

	// Ending an unknown session 404s
	w = doJSON(r, "PUT", "/api/study/sessions/nope/end", token, "")
	assert.Equal(t, 404, w.Code)

	// Session end triggered the achievement recompute: first session unlocked.
	w = doJSON(r, "GET", "/api/study/achievements", token, "")
	assert.Equal(t, 200, w.Code)

	var achievements struct {
		Data []service.AchievementView `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &achievements))
	byID := make(map[string]service.AchievementView)
	for _, v := range achievements.Data {
		byID[v.ID] = v
	}
	assert.True(t, byID["first_steps"].Unlocked)
	assert.NotNil(t, byID["first_steps"].UnlockedAt)
	assert.False(t, byID["question_solver"].Unlocked)

	// Today's sessions include the one just ended.
	w = doJSON(r, "GET", "/api/study/sessions/today", token, "")
	assert.Equal(t, 200, w.Code)
	var today struct {
		Data []internal.StudySession `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &today))
	assert.Len(t, today.Data, 1)
}

func TestCompletions_RecordedAndCounted(t *testing.T) {
	r := setupRouter(t)
	token := registerAndLogin(t, r)

	w := doJSON(r, "POST", "/api/questions/completions", token, `{"subject":"Mathematics","topic":"Calculus"}`)
	assert.Equal(t, 200, w.Code)

	// Missing subject rejected
	w = doJSON(r, "POST", "/api/questions/completions", token, `{"topic":"Calculus"}`)
	assert.Equal(t, 400, w.Code)

	w = doJSON(r, "GET", "/api/study/today-progress", token, "")
	assert.Equal(t, 200, w.Code)
	var progress struct {
		Data service.TodayProgress `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &progress))
	assert.Equal(t, 1, progress.Data.QuestionsToday)
	assert.Equal(t, 1, progress.Data.CurrentStreak)
}

func TestStreakEndpoint(t *testing.T) {
	r := setupRouter(t)
	token := registerAndLogin(t, r)

	w := doJSON(r, "GET", "/api/study/streak", token, "")
	assert.Equal(t, 200, w.Code)
	var snap struct {
		Data service.StreakSnapshot `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, 0, snap.Data.CurrentStreak)

	doJSON(r, "POST", "/api/questions/completions", token, `{"subject":"Physics"}`)

	w = doJSON(r, "GET", "/api/study/streak", token, "")
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, 1, snap.Data.CurrentStreak)
	assert.True(t, snap.Data.WeeklyProgress[6])
}

func TestPlannedBlocks_CRUD(t *testing.T) {
	r := setupRouter(t)
	token := registerAndLogin(t, r)

	w := doJSON(r, "POST", "/api/study/planned-blocks", token,
		`{"subject":"Mathematics","start_time":"2024-01-05T10:00:00Z","end_time":"2024-01-05T11:00:00Z"}`)
	assert.Equal(t, 200, w.Code)

	var created struct {
		Data internal.PlannedBlock `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	// end before start rejected
	w = doJSON(r, "POST", "/api/study/planned-blocks", token,
		`{"subject":"Mathematics","start_time":"2024-01-05T11:00:00Z","end_time":"2024-01-05T10:00:00Z"}`)
	assert.Equal(t, 400, w.Code)

	w = doJSON(r, "PUT", "/api/study/planned-blocks/"+created.Data.ID, token, `{"subject":"Physics"}`)
	assert.Equal(t, 200, w.Code)

	// A partial update must not leave the block ending before it starts.
	w = doJSON(r, "PUT", "/api/study/planned-blocks/"+created.Data.ID, token, `{"end_time":"2024-01-05T08:00:00Z"}`)
	assert.Equal(t, 400, w.Code)

	w = doJSON(r, "PUT", "/api/study/planned-blocks/"+created.Data.ID+"/complete", token, "")
	assert.Equal(t, 200, w.Code)
	var completed struct {
		Data internal.PlannedBlock `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &completed))
	assert.True(t, completed.Data.Completed)
	assert.Equal(t, "Physics", completed.Data.Subject)

	w = doJSON(r, "GET", "/api/study/planned-blocks?start_date=2024-01-01&end_date=2024-01-07", token, "")
	assert.Equal(t, 200, w.Code)
	var listed struct {
		Data []internal.PlannedBlock `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	assert.Len(t, listed.Data, 1)

	w = doJSON(r, "DELETE", "/api/study/planned-blocks/"+created.Data.ID, token, "")
	assert.Equal(t, 200, w.Code)

	w = doJSON(r, "DELETE", "/api/study/planned-blocks/"+created.Data.ID, token, "")
	assert.Equal(t, 404, w.Code)
}

func TestUserGoals(t *testing.T) {
	r := setupRouter(t)
	token := registerAndLogin(t, r)

	w := doJSON(r, "GET", "/api/study/user-goals", token, "")
	assert.Equal(t, 200, w.Code)
	var profile struct {
		Data internal.UserProfile `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &profile))
	assert.Equal(t, 10, profile.Data.DailyGoalQuestions)

	w = doJSON(r, "POST", "/api/study/user-goals", token, `{"daily_goal_questions":25,"daily_goal_minutes":90}`)
	assert.Equal(t, 200, w.Code)
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &profile))
	assert.Equal(t, 25, profile.Data.DailyGoalQuestions)
	assert.Equal(t, 90, profile.Data.DailyGoalMinutes)

	// Out-of-range goal rejected
	w = doJSON(r, "POST", "/api/study/user-goals", token, `{"daily_goal_questions":500}`)
	assert.Equal(t, 400, w.Code)
}

func TestQuestionBank(t *testing.T) {
	r := setupRouter(t)
	token := registerAndLogin(t, r)

	w := doJSON(r, "GET", "/api/questions", token, "")
	assert.Equal(t, 200, w.Code)
	var page struct {
		Data service.QuestionPage `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, 3, page.Data.TotalItems)
	// Default sort is year descending.
	assert.Equal(t, 2023, page.Data.Items[0].Year)

	// Topic filter
	w = doJSON(r, "GET", "/api/questions?topic=Algebra", token, "")
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, 1, page.Data.TotalItems)
	assert.Equal(t, "q3", page.Data.Items[0].ID)

	// Year filter
	w = doJSON(r, "GET", "/api/questions?year=2023", token, "")
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, 2, page.Data.TotalItems)

	// Text search
	w = doJSON(r, "GET", "/api/questions?q=induction", token, "")
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, 1, page.Data.TotalItems)

	// Pagination
	w = doJSON(r, "GET", "/api/questions?size=2&page=1", token, "")
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Len(t, page.Data.Items, 1)
	assert.Equal(t, 2, page.Data.TotalPages)

	// Single question lookup
	w = doJSON(r, "GET", "/api/questions/q1", token, "")
	assert.Equal(t, 200, w.Code)
	w = doJSON(r, "GET", "/api/questions/nope", token, "")
	assert.Equal(t, 404, w.Code)

	// Facets
	var topics struct {
		Data []string `json:"data"`
	}
	w = doJSON(r, "GET", "/api/questions/topics", token, "")
	assert.Equal(t, 200, w.Code)
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &topics))
	assert.Equal(t, []string{"Algebra", "Calculus"}, topics.Data)

	var years struct {
		Data []int `json:"data"`
	}
	w = doJSON(r, "GET", "/api/questions/years", token, "")
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &years))
	assert.Equal(t, []int{2023, 2022}, years.Data)
}

func TestPapers_ListAndComplete(t *testing.T) {
	r := setupRouter(t)
	token := registerAndLogin(t, r)

	var papers struct {
		Data []service.PaperView `json:"data"`
	}
	w := doJSON(r, "GET", "/api/papers", token, "")
	assert.Equal(t, 200, w.Code)
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &papers))
	assert.Len(t, papers.Data, 2)
	for _, p := range papers.Data {
		assert.False(t, p.Completed)
	}

	// Paper questions
	var questions struct {
		Data []internal.MathQuestion `json:"data"`
	}
	w = doJSON(r, "GET", "/api/papers/p1/questions", token, "")
	assert.Equal(t, 200, w.Code)
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &questions))
	assert.Len(t, questions.Data, 2)

	w = doJSON(r, "GET", "/api/papers/nope", token, "")
	assert.Equal(t, 404, w.Code)

	// Completing a paper records a completion and flips the flag.
	w = doJSON(r, "POST", "/api/papers/p1/complete", token, "")
	assert.Equal(t, 200, w.Code)

	w = doJSON(r, "GET", "/api/papers?completed=true", token, "")
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &papers))
	assert.Len(t, papers.Data, 1)
	assert.Equal(t, "p1", papers.Data[0].ID)

	var stats struct {
		Data service.PaperStats `json:"data"`
	}
	w = doJSON(r, "GET", "/api/papers/stats", token, "")
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 2, stats.Data.Total)
	assert.Equal(t, 1, stats.Data.Completed)

	// The paper completion also counts toward today's questions.
	var progress struct {
		Data service.TodayProgress `json:"data"`
	}
	w = doJSON(r, "GET", "/api/study/today-progress", token, "")
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &progress))
	assert.Equal(t, 1, progress.Data.QuestionsToday)
}

// unavailableAchievements simulates a progress store outage.
type unavailableAchievements struct {
	storage.AchievementRepository
}

func (u *unavailableAchievements) GetProgress(ctx context.Context, userID, achievementID string) (*internal.AchievementProgress, error) {
	return nil, errors.New("progress store unavailable")
}

func (u *unavailableAchievements) SaveProgress(ctx context.Context, progress *internal.AchievementProgress) error {
	return errors.New("progress store unavailable")
}

func TestRecomputeFailureDoesNotFailRequest(t *testing.T) {
	r := newTestEngine(t, func(a *testApp) {
		broken := &unavailableAchievements{a.repos.Achievements}
		a.achievements = service.NewAchievementService(a.repos.Sessions, a.repos.Completions, broken, a.logger)
	})
	token := registerAndLogin(t, r)

	w := doJSON(r, "POST", "/api/study/sessions", token, `{"subject":"Mathematics"}`)
	assert.Equal(t, 200, w.Code)
	var created struct {
		Data internal.StudySession `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	// Ending the session succeeds even though every progress write fails.
	w = doJSON(r, "PUT", "/api/study/sessions/"+created.Data.ID+"/end", token, "")
	assert.Equal(t, 200, w.Code)

	// Same for logging a completion.
	w = doJSON(r, "POST", "/api/questions/completions", token, `{"subject":"Mathematics"}`)
	assert.Equal(t, 200, w.Code)

	// And for completing a paper.
	w = doJSON(r, "POST", "/api/papers/p1/complete", token, "")
	assert.Equal(t, 200, w.Code)

	// The session itself was persisted.
	w = doJSON(r, "GET", "/api/study/sessions/today", token, "")
	assert.Equal(t, 200, w.Code)
	var today struct {
		Data []internal.StudySession `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &today))
	assert.Len(t, today.Data, 1)
	assert.NotNil(t, today.Data[0].EndTime)
}
