package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yourname/studytracker/internal"
)

type PostgresStorage struct {
	pool   *pgxpool.Pool
	logger internal.Logger
}

func NewPostgresStorage(dsn string, logger internal.Logger) (*PostgresStorage, error) {
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		logger.Errorf("failed to connect to postgres: %v", err)
		return nil, err
	}
	p := &PostgresStorage{pool: pool, logger: logger}
	if err := p.seedDefinitions(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return p, nil
}

// seedDefinitions inserts the achievement catalog into a fresh database.
// The schema itself comes from migrations; a failure here means they have
// not been applied.
func (p *PostgresStorage) seedDefinitions(ctx context.Context) error {
	for _, d := range DefaultAchievementDefinitions() {
		_, err := p.pool.Exec(ctx, `INSERT INTO achievement_definitions (id, name, description, icon_name, metric, target_value)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO NOTHING`,
			d.ID, d.Name, d.Description, d.IconName, string(d.Metric), d.TargetValue)
		if err != nil {
			p.logger.Errorf("failed to seed achievement definition %s: %v", d.ID, err)
			return err
		}
	}
	return nil
}

// --- SessionRepository ---

func (p *PostgresStorage) SaveSession(ctx context.Context, s *internal.StudySession) error {
	_, err := p.pool.Exec(ctx, `INSERT INTO study_sessions (id, user_id, subject, topic, start_time, end_time, duration_minutes, type, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET end_time = EXCLUDED.end_time, duration_minutes = EXCLUDED.duration_minutes, notes = EXCLUDED.notes`,
		s.ID, s.UserID, s.Subject, s.Topic, s.StartTime, s.EndTime, s.DurationMinutes, s.Type, s.Notes, s.CreatedAt)
	if err != nil {
		p.logger.Errorf("failed to upsert study session: %v", err)
		return err
	}
	return nil
}

func (p *PostgresStorage) GetSession(ctx context.Context, userID, id string) (*internal.StudySession, error) {
	row := p.pool.QueryRow(ctx, `SELECT id, user_id, subject, topic, start_time, end_time, duration_minutes, type, notes, created_at
		FROM study_sessions WHERE id = $1 AND user_id = $2`, id, userID)
	var s internal.StudySession
	if err := row.Scan(&s.ID, &s.UserID, &s.Subject, &s.Topic, &s.StartTime, &s.EndTime, &s.DurationMinutes, &s.Type, &s.Notes, &s.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		p.logger.Errorf("failed to scan study session: %v", err)
		return nil, err
	}
	return &s, nil
}

func (p *PostgresStorage) ListSessions(ctx context.Context, userID string) ([]internal.StudySession, error) {
	rows, err := p.pool.Query(ctx, `SELECT id, user_id, subject, topic, start_time, end_time, duration_minutes, type, notes, created_at
		FROM study_sessions WHERE user_id = $1 ORDER BY start_time DESC`, userID)
	if err != nil {
		p.logger.Errorf("failed to query study sessions: %v", err)
		return nil, err
	}
	defer rows.Close()

	var sessions []internal.StudySession
	for rows.Next() {
		var s internal.StudySession
		if err := rows.Scan(&s.ID, &s.UserID, &s.Subject, &s.Topic, &s.StartTime, &s.EndTime, &s.DurationMinutes, &s.Type, &s.Notes, &s.CreatedAt); err != nil {
			p.logger.Errorf("failed to scan study session: %v", err)
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// --- CompletionRepository ---

func (p *PostgresStorage) SaveCompletion(ctx context.Context, c *internal.QuestionCompletion) error {
	_, err := p.pool.Exec(ctx, `INSERT INTO question_completions (id, user_id, question_id, paper_id, subject, topic, completed_at, time_spent_minutes, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		c.ID, c.UserID, c.QuestionID, c.PaperID, c.Subject, c.Topic, c.CompletedAt, c.TimeSpentMinutes, c.Notes, c.CreatedAt)
	if err != nil {
		p.logger.Errorf("failed to insert question completion: %v", err)
		return err
	}
	return nil
}

func (p *PostgresStorage) ListCompletions(ctx context.Context, userID string) ([]internal.QuestionCompletion, error) {
	rows, err := p.pool.Query(ctx, `SELECT id, user_id, question_id, paper_id, subject, topic, completed_at, time_spent_minutes, notes, created_at
		FROM question_completions WHERE user_id = $1 ORDER BY completed_at DESC`, userID)
	if err != nil {
		p.logger.Errorf("failed to query question completions: %v", err)
		return nil, err
	}
	defer rows.Close()

	var completions []internal.QuestionCompletion
	for rows.Next() {
		var c internal.QuestionCompletion
		if err := rows.Scan(&c.ID, &c.UserID, &c.QuestionID, &c.PaperID, &c.Subject, &c.Topic, &c.CompletedAt, &c.TimeSpentMinutes, &c.Notes, &c.CreatedAt); err != nil {
			p.logger.Errorf("failed to scan question completion: %v", err)
			return nil, err
		}
		completions = append(completions, c)
	}
	return completions, rows.Err()
}

// --- PlannedBlockRepository ---

func (p *PostgresStorage) SaveBlock(ctx context.Context, b *internal.PlannedBlock) error {
	_, err := p.pool.Exec(ctx, `INSERT INTO planned_blocks (id, user_id, subject, topic, start_time, end_time, type, notes, completed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET subject = EXCLUDED.subject, topic = EXCLUDED.topic, start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time, type = EXCLUDED.type, notes = EXCLUDED.notes, completed = EXCLUDED.completed`,
		b.ID, b.UserID, b.Subject, b.Topic, b.StartTime, b.EndTime, b.Type, b.Notes, b.Completed, b.CreatedAt)
	if err != nil {
		p.logger.Errorf("failed to upsert planned block: %v", err)
		return err
	}
	return nil
}

func (p *PostgresStorage) GetBlock(ctx context.Context, userID, id string) (*internal.PlannedBlock, error) {
	row := p.pool.QueryRow(ctx, `SELECT id, user_id, subject, topic, start_time, end_time, type, notes, completed, created_at
		FROM planned_blocks WHERE id = $1 AND user_id = $2`, id, userID)
	var b internal.PlannedBlock
	if err := row.Scan(&b.ID, &b.UserID, &b.Subject, &b.Topic, &b.StartTime, &b.EndTime, &b.Type, &b.Notes, &b.Completed, &b.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		p.logger.Errorf("failed to scan planned block: %v", err)
		return nil, err
	}
	return &b, nil
}

func (p *PostgresStorage) ListBlocks(ctx context.Context, userID string) ([]internal.PlannedBlock, error) {
	rows, err := p.pool.Query(ctx, `SELECT id, user_id, subject, topic, start_time, end_time, type, notes, completed, created_at
		FROM planned_blocks WHERE user_id = $1 ORDER BY start_time ASC`, userID)
	if err != nil {
		p.logger.Errorf("failed to query planned blocks: %v", err)
		return nil, err
	}
	defer rows.Close()

	var blocks []internal.PlannedBlock
	for rows.Next() {
		var b internal.PlannedBlock
		if err := rows.Scan(&b.ID, &b.UserID, &b.Subject, &b.Topic, &b.StartTime, &b.EndTime, &b.Type, &b.Notes, &b.Completed, &b.CreatedAt); err != nil {
			p.logger.Errorf("failed to scan planned block: %v", err)
			return nil, err
		}
		blocks = append(blocks, b)
	}
	return blocks, rows.Err()
}

func (p *PostgresStorage) DeleteBlock(ctx context.Context, userID, id string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM planned_blocks WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		p.logger.Errorf("failed to delete planned block: %v", err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- AchievementRepository ---

func (p *PostgresStorage) ListDefinitions(ctx context.Context) ([]internal.AchievementDefinition, error) {
	rows, err := p.pool.Query(ctx, `SELECT id, name, description, icon_name, metric, target_value FROM achievement_definitions ORDER BY id`)
	if err != nil {
		p.logger.Errorf("failed to query achievement definitions: %v", err)
		return nil, err
	}
	defer rows.Close()

	var defs []internal.AchievementDefinition
	for rows.Next() {
		var d internal.AchievementDefinition
		if err := rows.Scan(&d.ID, &d.Name, &d.Description, &d.IconName, &d.Metric, &d.TargetValue); err != nil {
			p.logger.Errorf("failed to scan achievement definition: %v", err)
			return nil, err
		}
		defs = append(defs, d)
	}
	return defs, rows.Err()
}

func (p *PostgresStorage) GetProgress(ctx context.Context, userID, achievementID string) (*internal.AchievementProgress, error) {
	row := p.pool.QueryRow(ctx, `SELECT user_id, achievement_id, current_progress, unlocked, unlocked_at, updated_at
		FROM achievement_progress WHERE user_id = $1 AND achievement_id = $2`, userID, achievementID)
	var pr internal.AchievementProgress
	if err := row.Scan(&pr.UserID, &pr.AchievementID, &pr.CurrentProgress, &pr.Unlocked, &pr.UnlockedAt, &pr.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &internal.AchievementProgress{UserID: userID, AchievementID: achievementID}, nil
		}
		p.logger.Errorf("failed to scan achievement progress: %v", err)
		return nil, err
	}
	return &pr, nil
}

func (p *PostgresStorage) SaveProgress(ctx context.Context, pr *internal.AchievementProgress) error {
	_, err := p.pool.Exec(ctx, `INSERT INTO achievement_progress (user_id, achievement_id, current_progress, unlocked, unlocked_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, achievement_id) DO UPDATE SET current_progress = EXCLUDED.current_progress,
			unlocked = EXCLUDED.unlocked, unlocked_at = EXCLUDED.unlocked_at, updated_at = EXCLUDED.updated_at`,
		pr.UserID, pr.AchievementID, pr.CurrentProgress, pr.Unlocked, pr.UnlockedAt, pr.UpdatedAt)
	if err != nil {
		p.logger.Errorf("failed to upsert achievement progress: %v", err)
		return err
	}
	return nil
}

// --- UserRepository ---

func (p *PostgresStorage) CreateUser(ctx context.Context, u *internal.User) error {
	_, err := p.pool.Exec(ctx, `INSERT INTO users (id, username, email, first_name, last_name, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		u.ID, u.Username, u.Email, u.FirstName, u.LastName, u.PasswordHash, u.CreatedAt)
	if err != nil {
		p.logger.Errorf("failed to insert user: %v", err)
		return err
	}
	return nil
}

func (p *PostgresStorage) GetUserByUsername(ctx context.Context, username string) (*internal.User, error) {
	return p.scanUser(p.pool.QueryRow(ctx, `SELECT id, username, email, first_name, last_name, password_hash, created_at
		FROM users WHERE username = $1`, username))
}

func (p *PostgresStorage) GetUserByID(ctx context.Context, id string) (*internal.User, error) {
	return p.scanUser(p.pool.QueryRow(ctx, `SELECT id, username, email, first_name, last_name, password_hash, created_at
		FROM users WHERE id = $1`, id))
}

func (p *PostgresStorage) scanUser(row pgx.Row) (*internal.User, error) {
	var u internal.User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.PasswordHash, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		p.logger.Errorf("failed to scan user: %v", err)
		return nil, err
	}
	return &u, nil
}

// --- ProfileRepository ---

func (p *PostgresStorage) GetProfile(ctx context.Context, userID string) (*internal.UserProfile, error) {
	row := p.pool.QueryRow(ctx, `SELECT user_id, daily_goal_questions, daily_goal_minutes, updated_at
		FROM user_profiles WHERE user_id = $1`, userID)
	var pr internal.UserProfile
	if err := row.Scan(&pr.UserID, &pr.DailyGoalQuestions, &pr.DailyGoalMinutes, &pr.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return internal.DefaultProfile(userID), nil
		}
		p.logger.Errorf("failed to scan user profile: %v", err)
		return nil, err
	}
	return &pr, nil
}

func (p *PostgresStorage) SaveProfile(ctx context.Context, pr *internal.UserProfile) error {
	_, err := p.pool.Exec(ctx, `INSERT INTO user_profiles (user_id, daily_goal_questions, daily_goal_minutes, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE SET daily_goal_questions = EXCLUDED.daily_goal_questions,
			daily_goal_minutes = EXCLUDED.daily_goal_minutes, updated_at = EXCLUDED.updated_at`,
		pr.UserID, pr.DailyGoalQuestions, pr.DailyGoalMinutes, pr.UpdatedAt)
	if err != nil {
		p.logger.Errorf("failed to upsert user profile: %v", err)
		return err
	}
	return nil
}

// --- QuestionBankRepository ---
// The catalog tables are filled by the import job, never by the server.

const pgQuestionColumns = `id, paper_id, subject, year, paper_type, question_number, content, question_link, marks, topic, difficulty, sample_answer`

func (p *PostgresStorage) scanQuestion(row pgx.Row) (*internal.MathQuestion, error) {
	var q internal.MathQuestion
	err := row.Scan(&q.ID, &q.PaperID, &q.Subject, &q.Year, &q.PaperType, &q.QuestionNumber,
		&q.Content, &q.QuestionLink, &q.Marks, &q.Topic, &q.Difficulty, &q.SampleAnswer)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (p *PostgresStorage) queryQuestions(ctx context.Context, query string, args ...any) ([]internal.MathQuestion, error) {
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		p.logger.Errorf("failed to query math questions: %v", err)
		return nil, err
	}
	defer rows.Close()

	var questions []internal.MathQuestion
	for rows.Next() {
		q, err := p.scanQuestion(rows)
		if err != nil {
			p.logger.Errorf("failed to scan math question: %v", err)
			return nil, err
		}
		questions = append(questions, *q)
	}
	return questions, rows.Err()
}

func (p *PostgresStorage) ListQuestions(ctx context.Context) ([]internal.MathQuestion, error) {
	return p.queryQuestions(ctx, `SELECT `+pgQuestionColumns+` FROM math_questions ORDER BY year DESC, question_number ASC`)
}

func (p *PostgresStorage) GetQuestion(ctx context.Context, id string) (*internal.MathQuestion, error) {
	q, err := p.scanQuestion(p.pool.QueryRow(ctx, `SELECT `+pgQuestionColumns+` FROM math_questions WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		p.logger.Errorf("failed to scan math question: %v", err)
		return nil, err
	}
	return q, nil
}

func (p *PostgresStorage) ListPapers(ctx context.Context) ([]internal.Paper, error) {
	rows, err := p.pool.Query(ctx, `SELECT id, subject, year, name, level, duration FROM papers ORDER BY year DESC, name ASC`)
	if err != nil {
		p.logger.Errorf("failed to query papers: %v", err)
		return nil, err
	}
	defer rows.Close()

	var papers []internal.Paper
	for rows.Next() {
		var pp internal.Paper
		if err := rows.Scan(&pp.ID, &pp.Subject, &pp.Year, &pp.Name, &pp.Level, &pp.Duration); err != nil {
			p.logger.Errorf("failed to scan paper: %v", err)
			return nil, err
		}
		papers = append(papers, pp)
	}
	return papers, rows.Err()
}

func (p *PostgresStorage) GetPaper(ctx context.Context, id string) (*internal.Paper, error) {
	row := p.pool.QueryRow(ctx, `SELECT id, subject, year, name, level, duration FROM papers WHERE id = $1`, id)
	var pp internal.Paper
	if err := row.Scan(&pp.ID, &pp.Subject, &pp.Year, &pp.Name, &pp.Level, &pp.Duration); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		p.logger.Errorf("failed to scan paper: %v", err)
		return nil, err
	}
	return &pp, nil
}

func (p *PostgresStorage) ListPaperQuestions(ctx context.Context, paperID string) ([]internal.MathQuestion, error) {
	return p.queryQuestions(ctx, `SELECT `+pgQuestionColumns+` FROM math_questions WHERE paper_id = $1 ORDER BY question_number ASC`, paperID)
}

// --- Compile-time assertions ---
var (
	_ SessionRepository      = (*PostgresStorage)(nil)
	_ CompletionRepository   = (*PostgresStorage)(nil)
	_ PlannedBlockRepository = (*PostgresStorage)(nil)
	_ AchievementRepository  = (*PostgresStorage)(nil)
	_ UserRepository         = (*PostgresStorage)(nil)
	_ ProfileRepository      = (*PostgresStorage)(nil)
	_ QuestionBankRepository = (*PostgresStorage)(nil)
)
