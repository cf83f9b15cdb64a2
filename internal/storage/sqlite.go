package storage

import (
	"context"
	"database/sql"
	"errors"

	_ "github.com/mattn/go-sqlite3"
	"github.com/yourname/studytracker/internal"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	username TEXT NOT NULL UNIQUE,
	email TEXT NOT NULL,
	first_name TEXT NOT NULL DEFAULT '',
	last_name TEXT NOT NULL DEFAULT '',
	password_hash TEXT NOT NULL,
	created_at DATETIME NOT NULL
);
CREATE TABLE IF NOT EXISTS study_sessions (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	subject TEXT NOT NULL,
	topic TEXT NOT NULL DEFAULT '',
	start_time DATETIME NOT NULL,
	end_time DATETIME,
	duration_minutes INTEGER,
	type TEXT NOT NULL DEFAULT 'REGULAR',
	notes TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_user ON study_sessions(user_id, start_time);
CREATE TABLE IF NOT EXISTS question_completions (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	question_id TEXT NOT NULL DEFAULT '',
	paper_id TEXT NOT NULL DEFAULT '',
	subject TEXT NOT NULL,
	topic TEXT NOT NULL DEFAULT '',
	completed_at DATETIME NOT NULL,
	time_spent_minutes INTEGER,
	notes TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_completions_user ON question_completions(user_id, completed_at);
CREATE TABLE IF NOT EXISTS planned_blocks (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	subject TEXT NOT NULL,
	topic TEXT NOT NULL DEFAULT '',
	start_time DATETIME NOT NULL,
	end_time DATETIME NOT NULL,
	type TEXT NOT NULL DEFAULT 'REGULAR',
	notes TEXT NOT NULL DEFAULT '',
	completed INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL
);
CREATE TABLE IF NOT EXISTS achievement_definitions (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT NOT NULL,
	icon_name TEXT NOT NULL,
	metric TEXT NOT NULL,
	target_value INTEGER
);
CREATE TABLE IF NOT EXISTS achievement_progress (
	user_id TEXT NOT NULL,
	achievement_id TEXT NOT NULL,
	current_progress INTEGER NOT NULL DEFAULT 0,
	unlocked INTEGER NOT NULL DEFAULT 0,
	unlocked_at DATETIME,
	updated_at DATETIME NOT NULL,
	PRIMARY KEY (user_id, achievement_id)
);
CREATE TABLE IF NOT EXISTS user_profiles (
	user_id TEXT PRIMARY KEY,
	daily_goal_questions INTEGER NOT NULL,
	daily_goal_minutes INTEGER NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE TABLE IF NOT EXISTS math_questions (
	id TEXT PRIMARY KEY,
	paper_id TEXT NOT NULL DEFAULT '',
	subject TEXT NOT NULL,
	year INTEGER NOT NULL DEFAULT 0,
	paper_type TEXT NOT NULL DEFAULT '',
	question_number INTEGER NOT NULL DEFAULT 0,
	content TEXT NOT NULL DEFAULT '',
	question_link TEXT NOT NULL DEFAULT '',
	marks INTEGER,
	topic TEXT NOT NULL DEFAULT '',
	difficulty TEXT NOT NULL DEFAULT '',
	sample_answer TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_questions_paper ON math_questions(paper_id, question_number);
CREATE TABLE IF NOT EXISTS papers (
	id TEXT PRIMARY KEY,
	subject TEXT NOT NULL,
	year INTEGER NOT NULL DEFAULT 0,
	name TEXT NOT NULL DEFAULT '',
	level TEXT NOT NULL DEFAULT '',
	duration TEXT NOT NULL DEFAULT ''
);
`

type SQLiteStorage struct {
	db     *sql.DB
	logger internal.Logger
}

func NewSQLiteStorage(path string, logger internal.Logger) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		logger.Errorf("failed to open sqlite database: %v", err)
		return nil, err
	}
	// sqlite allows a single writer; serialize access through one connection.
	db.SetMaxOpenConns(1)

	s := &SQLiteStorage{db: db, logger: logger}
	if err := s.bootstrap(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStorage) bootstrap() error {
	if _, err := s.db.Exec(sqliteSchema); err != nil {
		s.logger.Errorf("failed to create sqlite schema: %v", err)
		return err
	}
	for _, d := range DefaultAchievementDefinitions() {
		_, err := s.db.Exec(`INSERT OR IGNORE INTO achievement_definitions (id, name, description, icon_name, metric, target_value)
			VALUES (?, ?, ?, ?, ?, ?)`,
			d.ID, d.Name, d.Description, d.IconName, string(d.Metric), d.TargetValue)
		if err != nil {
			s.logger.Errorf("failed to seed achievement definition %s: %v", d.ID, err)
			return err
		}
	}
	return nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// --- SessionRepository ---

func (s *SQLiteStorage) SaveSession(ctx context.Context, sess *internal.StudySession) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO study_sessions (id, user_id, subject, topic, start_time, end_time, duration_minutes, type, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET end_time = excluded.end_time, duration_minutes = excluded.duration_minutes, notes = excluded.notes`,
		sess.ID, sess.UserID, sess.Subject, sess.Topic, sess.StartTime, sess.EndTime, sess.DurationMinutes, sess.Type, sess.Notes, sess.CreatedAt)
	if err != nil {
		s.logger.Errorf("failed to upsert study session: %v", err)
	}
	return err
}

func (s *SQLiteStorage) GetSession(ctx context.Context, userID, id string) (*internal.StudySession, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, user_id, subject, topic, start_time, end_time, duration_minutes, type, notes, created_at
		FROM study_sessions WHERE id = ? AND user_id = ?`, id, userID)
	var sess internal.StudySession
	if err := row.Scan(&sess.ID, &sess.UserID, &sess.Subject, &sess.Topic, &sess.StartTime, &sess.EndTime, &sess.DurationMinutes, &sess.Type, &sess.Notes, &sess.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		s.logger.Errorf("failed to scan study session: %v", err)
		return nil, err
	}
	return &sess, nil
}

func (s *SQLiteStorage) ListSessions(ctx context.Context, userID string) ([]internal.StudySession, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, user_id, subject, topic, start_time, end_time, duration_minutes, type, notes, created_at
		FROM study_sessions WHERE user_id = ? ORDER BY start_time DESC`, userID)
	if err != nil {
		s.logger.Errorf("failed to query study sessions: %v", err)
		return nil, err
	}
	defer rows.Close()

	var sessions []internal.StudySession
	for rows.Next() {
		var sess internal.StudySession
		if err := rows.Scan(&sess.ID, &sess.UserID, &sess.Subject, &sess.Topic, &sess.StartTime, &sess.EndTime, &sess.DurationMinutes, &sess.Type, &sess.Notes, &sess.CreatedAt); err != nil {
			s.logger.Errorf("failed to scan study session: %v", err)
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// --- CompletionRepository ---

func (s *SQLiteStorage) SaveCompletion(ctx context.Context, c *internal.QuestionCompletion) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO question_completions (id, user_id, question_id, paper_id, subject, topic, completed_at, time_spent_minutes, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.UserID, c.QuestionID, c.PaperID, c.Subject, c.Topic, c.CompletedAt, c.TimeSpentMinutes, c.Notes, c.CreatedAt)
	if err != nil {
		s.logger.Errorf("failed to insert question completion: %v", err)
	}
	return err
}

func (s *SQLiteStorage) ListCompletions(ctx context.Context, userID string) ([]internal.QuestionCompletion, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, user_id, question_id, paper_id, subject, topic, completed_at, time_spent_minutes, notes, created_at
		FROM question_completions WHERE user_id = ? ORDER BY completed_at DESC`, userID)
	if err != nil {
		s.logger.Errorf("failed to query question completions: %v", err)
		return nil, err
	}
	defer rows.Close()

	var completions []internal.QuestionCompletion
	for rows.Next() {
		var c internal.QuestionCompletion
		if err := rows.Scan(&c.ID, &c.UserID, &c.QuestionID, &c.PaperID, &c.Subject, &c.Topic, &c.CompletedAt, &c.TimeSpentMinutes, &c.Notes, &c.CreatedAt); err != nil {
			s.logger.Errorf("failed to scan question completion: %v", err)
			return nil, err
		}
		completions = append(completions, c)
	}
	return completions, rows.Err()
}

// --- PlannedBlockRepository ---

func (s *SQLiteStorage) SaveBlock(ctx context.Context, b *internal.PlannedBlock) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO planned_blocks (id, user_id, subject, topic, start_time, end_time, type, notes, completed, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET subject = excluded.subject, topic = excluded.topic, start_time = excluded.start_time,
			end_time = excluded.end_time, type = excluded.type, notes = excluded.notes, completed = excluded.completed`,
		b.ID, b.UserID, b.Subject, b.Topic, b.StartTime, b.EndTime, b.Type, b.Notes, b.Completed, b.CreatedAt)
	if err != nil {
		s.logger.Errorf("failed to upsert planned block: %v", err)
	}
	return err
}

func (s *SQLiteStorage) GetBlock(ctx context.Context, userID, id string) (*internal.PlannedBlock, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, user_id, subject, topic, start_time, end_time, type, notes, completed, created_at
		FROM planned_blocks WHERE id = ? AND user_id = ?`, id, userID)
	var b internal.PlannedBlock
	if err := row.Scan(&b.ID, &b.UserID, &b.Subject, &b.Topic, &b.StartTime, &b.EndTime, &b.Type, &b.Notes, &b.Completed, &b.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		s.logger.Errorf("failed to scan planned block: %v", err)
		return nil, err
	}
	return &b, nil
}

func (s *SQLiteStorage) ListBlocks(ctx context.Context, userID string) ([]internal.PlannedBlock, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, user_id, subject, topic, start_time, end_time, type, notes, completed, created_at
		FROM planned_blocks WHERE user_id = ? ORDER BY start_time ASC`, userID)
	if err != nil {
		s.logger.Errorf("failed to query planned blocks: %v", err)
		return nil, err
	}
	defer rows.Close()

	var blocks []internal.PlannedBlock
	for rows.Next() {
		var b internal.PlannedBlock
		if err := rows.Scan(&b.ID, &b.UserID, &b.Subject, &b.Topic, &b.StartTime, &b.EndTime, &b.Type, &b.Notes, &b.Completed, &b.CreatedAt); err != nil {
			s.logger.Errorf("failed to scan planned block: %v", err)
			return nil, err
		}
		blocks = append(blocks, b)
	}
	return blocks, rows.Err()
}

func (s *SQLiteStorage) DeleteBlock(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM planned_blocks WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		s.logger.Errorf("failed to delete planned block: %v", err)
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// --- AchievementRepository ---

func (s *SQLiteStorage) ListDefinitions(ctx context.Context) ([]internal.AchievementDefinition, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, description, icon_name, metric, target_value FROM achievement_definitions ORDER BY rowid`)
	if err != nil {
		s.logger.Errorf("failed to query achievement definitions: %v", err)
		return nil, err
	}
	defer rows.Close()

	var defs []internal.AchievementDefinition
	for rows.Next() {
		var d internal.AchievementDefinition
		if err := rows.Scan(&d.ID, &d.Name, &d.Description, &d.IconName, &d.Metric, &d.TargetValue); err != nil {
			s.logger.Errorf("failed to scan achievement definition: %v", err)
			return nil, err
		}
		defs = append(defs, d)
	}
	return defs, rows.Err()
}

func (s *SQLiteStorage) GetProgress(ctx context.Context, userID, achievementID string) (*internal.AchievementProgress, error) {
	row := s.db.QueryRowContext(ctx, `SELECT user_id, achievement_id, current_progress, unlocked, unlocked_at, updated_at
		FROM achievement_progress WHERE user_id = ? AND achievement_id = ?`, userID, achievementID)
	var p internal.AchievementProgress
	if err := row.Scan(&p.UserID, &p.AchievementID, &p.CurrentProgress, &p.Unlocked, &p.UnlockedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &internal.AchievementProgress{UserID: userID, AchievementID: achievementID}, nil
		}
		s.logger.Errorf("failed to scan achievement progress: %v", err)
		return nil, err
	}
	return &p, nil
}

func (s *SQLiteStorage) SaveProgress(ctx context.Context, p *internal.AchievementProgress) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO achievement_progress (user_id, achievement_id, current_progress, unlocked, unlocked_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, achievement_id) DO UPDATE SET current_progress = excluded.current_progress,
			unlocked = excluded.unlocked, unlocked_at = excluded.unlocked_at, updated_at = excluded.updated_at`,
		p.UserID, p.AchievementID, p.CurrentProgress, p.Unlocked, p.UnlockedAt, p.UpdatedAt)
	if err != nil {
		s.logger.Errorf("failed to upsert achievement progress: %v", err)
	}
	return err
}

// --- UserRepository ---

func (s *SQLiteStorage) CreateUser(ctx context.Context, u *internal.User) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO users (id, username, email, first_name, last_name, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.Email, u.FirstName, u.LastName, u.PasswordHash, u.CreatedAt)
	if err != nil {
		s.logger.Errorf("failed to insert user: %v", err)
	}
	return err
}

func (s *SQLiteStorage) GetUserByUsername(ctx context.Context, username string) (*internal.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `SELECT id, username, email, first_name, last_name, password_hash, created_at
		FROM users WHERE username = ?`, username))
}

func (s *SQLiteStorage) GetUserByID(ctx context.Context, id string) (*internal.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `SELECT id, username, email, first_name, last_name, password_hash, created_at
		FROM users WHERE id = ?`, id))
}

func (s *SQLiteStorage) scanUser(row *sql.Row) (*internal.User, error) {
	var u internal.User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.PasswordHash, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		s.logger.Errorf("failed to scan user: %v", err)
		return nil, err
	}
	return &u, nil
}

// --- ProfileRepository ---

func (s *SQLiteStorage) GetProfile(ctx context.Context, userID string) (*internal.UserProfile, error) {
	row := s.db.QueryRowContext(ctx, `SELECT user_id, daily_goal_questions, daily_goal_minutes, updated_at
		FROM user_profiles WHERE user_id = ?`, userID)
	var p internal.UserProfile
	if err := row.Scan(&p.UserID, &p.DailyGoalQuestions, &p.DailyGoalMinutes, &p.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return internal.DefaultProfile(userID), nil
		}
		s.logger.Errorf("failed to scan user profile: %v", err)
		return nil, err
	}
	return &p, nil
}

func (s *SQLiteStorage) SaveProfile(ctx context.Context, p *internal.UserProfile) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO user_profiles (user_id, daily_goal_questions, daily_goal_minutes, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET daily_goal_questions = excluded.daily_goal_questions,
			daily_goal_minutes = excluded.daily_goal_minutes, updated_at = excluded.updated_at`,
		p.UserID, p.DailyGoalQuestions, p.DailyGoalMinutes, p.UpdatedAt)
	if err != nil {
		s.logger.Errorf("failed to upsert user profile: %v", err)
	}
	return err
}

// --- QuestionBankRepository ---
// The catalog tables are filled by the import job, never by the server.

const sqliteQuestionColumns = `id, paper_id, subject, year, paper_type, question_number, content, question_link, marks, topic, difficulty, sample_answer`

func (s *SQLiteStorage) scanQuestion(row interface{ Scan(...any) error }) (*internal.MathQuestion, error) {
	var q internal.MathQuestion
	err := row.Scan(&q.ID, &q.PaperID, &q.Subject, &q.Year, &q.PaperType, &q.QuestionNumber,
		&q.Content, &q.QuestionLink, &q.Marks, &q.Topic, &q.Difficulty, &q.SampleAnswer)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (s *SQLiteStorage) queryQuestions(ctx context.Context, query string, args ...any) ([]internal.MathQuestion, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		s.logger.Errorf("failed to query math questions: %v", err)
		return nil, err
	}
	defer rows.Close()

	var questions []internal.MathQuestion
	for rows.Next() {
		q, err := s.scanQuestion(rows)
		if err != nil {
			s.logger.Errorf("failed to scan math question: %v", err)
			return nil, err
		}
		questions = append(questions, *q)
	}
	return questions, rows.Err()
}

func (s *SQLiteStorage) ListQuestions(ctx context.Context) ([]internal.MathQuestion, error) {
	return s.queryQuestions(ctx, `SELECT `+sqliteQuestionColumns+` FROM math_questions ORDER BY year DESC, question_number ASC`)
}

func (s *SQLiteStorage) GetQuestion(ctx context.Context, id string) (*internal.MathQuestion, error) {
	q, err := s.scanQuestion(s.db.QueryRowContext(ctx, `SELECT `+sqliteQuestionColumns+` FROM math_questions WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		s.logger.Errorf("failed to scan math question: %v", err)
		return nil, err
	}
	return q, nil
}

func (s *SQLiteStorage) ListPapers(ctx context.Context) ([]internal.Paper, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, subject, year, name, level, duration FROM papers ORDER BY year DESC, name ASC`)
	if err != nil {
		s.logger.Errorf("failed to query papers: %v", err)
		return nil, err
	}
	defer rows.Close()

	var papers []internal.Paper
	for rows.Next() {
		var p internal.Paper
		if err := rows.Scan(&p.ID, &p.Subject, &p.Year, &p.Name, &p.Level, &p.Duration); err != nil {
			s.logger.Errorf("failed to scan paper: %v", err)
			return nil, err
		}
		papers = append(papers, p)
	}
	return papers, rows.Err()
}

func (s *SQLiteStorage) GetPaper(ctx context.Context, id string) (*internal.Paper, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, subject, year, name, level, duration FROM papers WHERE id = ?`, id)
	var p internal.Paper
	if err := row.Scan(&p.ID, &p.Subject, &p.Year, &p.Name, &p.Level, &p.Duration); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		s.logger.Errorf("failed to scan paper: %v", err)
		return nil, err
	}
	return &p, nil
}

func (s *SQLiteStorage) ListPaperQuestions(ctx context.Context, paperID string) ([]internal.MathQuestion, error) {
	return s.queryQuestions(ctx, `SELECT `+sqliteQuestionColumns+` FROM math_questions WHERE paper_id = ? ORDER BY question_number ASC`, paperID)
}

// --- Compile-time assertions ---
var (
	_ SessionRepository      = (*SQLiteStorage)(nil)
	_ CompletionRepository   = (*SQLiteStorage)(nil)
	_ PlannedBlockRepository = (*SQLiteStorage)(nil)
	_ AchievementRepository  = (*SQLiteStorage)(nil)
	_ UserRepository         = (*SQLiteStorage)(nil)
	_ ProfileRepository      = (*SQLiteStorage)(nil)
	_ QuestionBankRepository = (*SQLiteStorage)(nil)
)
