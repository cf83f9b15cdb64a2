package internal

import "time"

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Session types accepted for StudySession.Type.
const (
	SessionRegular      = "REGULAR"
	SessionPomodoro     = "POMODORO"
	SessionExamPractice = "EXAM_PRACTICE"
)

type StudySession struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id"`
	Subject         string     `json:"subject"`
	Topic           string     `json:"topic,omitempty"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         *time.Time `json:"end_time,omitempty"`
	DurationMinutes *int       `json:"duration_minutes,omitempty"`
	Type            string     `json:"type"`
	Notes           string     `json:"notes,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// End closes the session at t and fills in the duration.
func (s *StudySession) End(t time.Time) {
	s.EndTime = &t
	mins := int(t.Sub(s.StartTime).Minutes())
	s.DurationMinutes = &mins
}

type QuestionCompletion struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	QuestionID       string    `json:"question_id,omitempty"`
	PaperID          string    `json:"paper_id,omitempty"`
	Subject          string    `json:"subject"`
	Topic            string    `json:"topic,omitempty"`
	CompletedAt      time.Time `json:"completed_at"`
	TimeSpentMinutes *int      `json:"time_spent_minutes,omitempty"`
	Notes            string    `json:"notes,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

type PlannedBlock struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Subject   string    `json:"subject"`
	Topic     string    `json:"topic,omitempty"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Type      string    `json:"type"`
	Notes     string    `json:"notes,omitempty"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"created_at"`
}

// MetricKind names the aggregate an achievement is measured against.
type MetricKind string

const (
	MetricSessions       MetricKind = "sessions"
	MetricHours          MetricKind = "hours"
	MetricStreak         MetricKind = "streak"
	MetricQuestionsMath  MetricKind = "questions_math"
	MetricQuestionsTotal MetricKind = "questions_total"
	MetricDailyHours     MetricKind = "daily_hours"
	MetricEarlyBird      MetricKind = "early_bird"
)

type AchievementDefinition struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	IconName    string     `json:"icon_name"`
	Metric      MetricKind `json:"metric"`
	// TargetValue nil means any positive occurrence unlocks the achievement.
	TargetValue *int `json:"target_value,omitempty"`
}

type AchievementProgress struct {
	UserID          string     `json:"user_id"`
	AchievementID   string     `json:"achievement_id"`
	CurrentProgress int        `json:"current_progress"`
	Unlocked        bool       `json:"unlocked"`
	UnlockedAt      *time.Time `json:"unlocked_at,omitempty"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

type UserProfile struct {
	UserID             string    `json:"user_id"`
	DailyGoalQuestions int       `json:"daily_goal_questions"`
	DailyGoalMinutes   int       `json:"daily_goal_minutes"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// DefaultProfile is returned when a user has never set goals.
func DefaultProfile(userID string) *UserProfile {
	return &UserProfile{
		UserID:             userID,
		DailyGoalQuestions: 10,
		DailyGoalMinutes:   120,
	}
}

// MathQuestion is one entry in the imported past-paper question bank. The
// catalog is read-only at runtime; QuestionCompletion.QuestionID points here.
type MathQuestion struct {
	ID             string `json:"id"`
	PaperID        string `json:"paper_id,omitempty"`
	Subject        string `json:"subject"`
	Year           int    `json:"year"`
	PaperType      string `json:"paper_type,omitempty"`
	QuestionNumber int    `json:"question_number"`
	Content        string `json:"content"`
	QuestionLink   string `json:"question_link,omitempty"`
	Marks          *int   `json:"marks,omitempty"`
	Topic          string `json:"topic,omitempty"`
	Difficulty     string `json:"difficulty,omitempty"`
	SampleAnswer   string `json:"sample_answer,omitempty"`
}

// Paper groups the questions of one past exam sitting;
// QuestionCompletion.PaperID points here.
type Paper struct {
	ID       string `json:"id"`
	Subject  string `json:"subject"`
	Year     int    `json:"year"`
	Name     string `json:"name"`
	Level    string `json:"level,omitempty"`
	Duration string `json:"duration,omitempty"`
}
