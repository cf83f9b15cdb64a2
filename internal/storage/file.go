package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/yourname/studytracker/internal"
)

// saveDelay batches disk writes so bursts of saves collapse into one rewrite.
const saveDelay = 500 * time.Millisecond

// fileTable debounces persistence of one JSON file. snapshot is called under
// no lock; callers must capture their data before handing it over.
type fileTable struct {
	path     string
	saveChan chan struct{}
	snapshot func() interface{}
}

func newFileTable(path string, snapshot func() interface{}) *fileTable {
	return &fileTable{path: path, saveChan: make(chan struct{}, 1), snapshot: snapshot}
}

func (t *fileTable) signal() {
	select {
	case t.saveChan <- struct{}{}:
	default:
	}
}

func (t *fileTable) worker(shutdown <-chan struct{}, logger internal.Logger) {
	timer := time.NewTimer(saveDelay)
	defer timer.Stop()

	for {
		select {
		case <-t.saveChan:
			timer.Reset(saveDelay)
		case <-timer.C:
			if err := atomicWriteFileJSON(t.path, t.snapshot()); err != nil {
				logger.Errorf("storage: error saving %s: %v", t.path, err)
			}
		case <-shutdown:
			return
		}
	}
}

func atomicWriteFileJSON(filePath string, data interface{}) error {
	tempFile := filePath + ".tmp"
	f, err := os.Create(tempFile)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		f.Close()
		os.Remove(tempFile)
		return err
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tempFile)
		return err
	}

	if err := f.Close(); err != nil {
		os.Remove(tempFile)
		return err
	}

	return os.Rename(tempFile, filePath)
}

func loadFileJSON(path string, out interface{}) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}

type FileStorage struct {
	mu sync.RWMutex

	sessions         map[string]*internal.StudySession // id -> session
	userSessionIndex map[string][]*internal.StudySession
	completions      map[string][]*internal.QuestionCompletion // userID -> completions
	blocks           map[string]*internal.PlannedBlock         // id -> block
	userBlockIndex   map[string][]*internal.PlannedBlock
	users            map[string]*internal.User // id -> user
	usersByName      map[string]*internal.User
	progress         map[string]map[string]*internal.AchievementProgress // userID -> achievementID -> progress
	profiles         map[string]*internal.UserProfile

	definitions []internal.AchievementDefinition

	// Question bank, loaded once and never written back.
	questions      []internal.MathQuestion
	questionsByID  map[string]*internal.MathQuestion
	papers         []internal.Paper
	papersByID     map[string]*internal.Paper
	paperQuestions map[string][]internal.MathQuestion

	tables       []*fileTable
	sessionTable *fileTable
	complTable   *fileTable
	blockTable   *fileTable
	userTable    *fileTable
	progTable    *fileTable
	profileTable *fileTable

	shutdownChan chan struct{}
	logger       internal.Logger
}

type Files struct {
	Sessions    string
	Completions string
	Blocks      string
	Users       string
	Progress    string
	Profiles    string
	Questions   string
	Papers      string
}

func NewFileStorage(files Files, logger internal.Logger) (*FileStorage, error) {
	s := &FileStorage{
		sessions:         make(map[string]*internal.StudySession),
		userSessionIndex: make(map[string][]*internal.StudySession),
		completions:      make(map[string][]*internal.QuestionCompletion),
		blocks:           make(map[string]*internal.PlannedBlock),
		userBlockIndex:   make(map[string][]*internal.PlannedBlock),
		users:            make(map[string]*internal.User),
		usersByName:      make(map[string]*internal.User),
		progress:         make(map[string]map[string]*internal.AchievementProgress),
		profiles:         make(map[string]*internal.UserProfile),
		definitions:      DefaultAchievementDefinitions(),
		questionsByID:    make(map[string]*internal.MathQuestion),
		papersByID:       make(map[string]*internal.Paper),
		paperQuestions:   make(map[string][]internal.MathQuestion),
		shutdownChan:     make(chan struct{}),
		logger:           logger,
	}

	s.sessionTable = newFileTable(files.Sessions, s.snapshotSessions)
	s.complTable = newFileTable(files.Completions, s.snapshotCompletions)
	s.blockTable = newFileTable(files.Blocks, s.snapshotBlocks)
	s.userTable = newFileTable(files.Users, s.snapshotUsers)
	s.progTable = newFileTable(files.Progress, s.snapshotProgress)
	s.profileTable = newFileTable(files.Profiles, s.snapshotProfiles)
	s.tables = []*fileTable{s.sessionTable, s.complTable, s.blockTable, s.userTable, s.progTable, s.profileTable}

	if err := s.load(files); err != nil {
		logger.Errorf("storage: failed to load data files: %v", err)
		return nil, err
	}

	for _, t := range s.tables {
		go t.worker(s.shutdownChan, logger)
	}

	return s, nil
}

func (s *FileStorage) load(files Files) error {
	var sessions []*internal.StudySession
	if err := loadFileJSON(files.Sessions, &sessions); err != nil {
		return err
	}
	var completions []*internal.QuestionCompletion
	if err := loadFileJSON(files.Completions, &completions); err != nil {
		return err
	}
	var blocks []*internal.PlannedBlock
	if err := loadFileJSON(files.Blocks, &blocks); err != nil {
		return err
	}
	var users []*internal.User
	if err := loadFileJSON(files.Users, &users); err != nil {
		return err
	}
	var progress []*internal.AchievementProgress
	if err := loadFileJSON(files.Progress, &progress); err != nil {
		return err
	}
	var profiles []*internal.UserProfile
	if err := loadFileJSON(files.Profiles, &profiles); err != nil {
		return err
	}
	if err := loadFileJSON(files.Questions, &s.questions); err != nil {
		return err
	}
	if err := loadFileJSON(files.Papers, &s.papers); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range sessions {
		s.sessions[sess.ID] = sess
		s.userSessionIndex[sess.UserID] = append(s.userSessionIndex[sess.UserID], sess)
	}
	// Keep each user's sessions sorted descending by StartTime.
	for userID := range s.userSessionIndex {
		sort.Slice(s.userSessionIndex[userID], func(i, j int) bool {
			return s.userSessionIndex[userID][i].StartTime.After(s.userSessionIndex[userID][j].StartTime)
		})
	}
	for _, c := range completions {
		s.completions[c.UserID] = append(s.completions[c.UserID], c)
	}
	for _, b := range blocks {
		s.blocks[b.ID] = b
		s.userBlockIndex[b.UserID] = append(s.userBlockIndex[b.UserID], b)
	}
	for _, u := range users {
		s.users[u.ID] = u
		s.usersByName[u.Username] = u
	}
	for _, p := range progress {
		if s.progress[p.UserID] == nil {
			s.progress[p.UserID] = make(map[string]*internal.AchievementProgress)
		}
		s.progress[p.UserID][p.AchievementID] = p
	}
	for _, p := range profiles {
		s.profiles[p.UserID] = p
	}
	for i := range s.questions {
		q := &s.questions[i]
		s.questionsByID[q.ID] = q
		if q.PaperID != "" {
			s.paperQuestions[q.PaperID] = append(s.paperQuestions[q.PaperID], *q)
		}
	}
	for i := range s.papers {
		s.papersByID[s.papers[i].ID] = &s.papers[i]
	}
	return nil
}

// --- snapshots for the save workers ---

func (s *FileStorage) snapshotSessions() interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*internal.StudySession, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	return out
}

func (s *FileStorage) snapshotCompletions() interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*internal.QuestionCompletion
	for _, list := range s.completions {
		out = append(out, list...)
	}
	return out
}

func (s *FileStorage) snapshotBlocks() interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*internal.PlannedBlock, 0, len(s.blocks))
	for _, b := range s.blocks {
		out = append(out, b)
	}
	return out
}

func (s *FileStorage) snapshotUsers() interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*internal.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	return out
}

func (s *FileStorage) snapshotProgress() interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*internal.AchievementProgress
	for _, byAch := range s.progress {
		for _, p := range byAch {
			out = append(out, p)
		}
	}
	return out
}

func (s *FileStorage) snapshotProfiles() interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*internal.UserProfile, 0, len(s.profiles))
	for _, p := range s.profiles {
		out = append(out, p)
	}
	return out
}

// --- SessionRepository ---

func (s *FileStorage) SaveSession(ctx context.Context, session *internal.StudySession) error {
	s.mu.Lock()
	_, existed := s.sessions[session.ID]
	s.sessions[session.ID] = session

	if !existed {
		// Insert maintaining descending StartTime order.
		logs := s.userSessionIndex[session.UserID]
		inserted := false
		for i, existing := range logs {
			if existing.StartTime.Before(session.StartTime) {
				logs = append(logs[:i], append([]*internal.StudySession{session}, logs[i:]...)...)
				inserted = true
				break
			}
		}
		if !inserted {
			logs = append(logs, session)
		}
		s.userSessionIndex[session.UserID] = logs
	} else {
		for i, existing := range s.userSessionIndex[session.UserID] {
			if existing.ID == session.ID {
				s.userSessionIndex[session.UserID][i] = session
				break
			}
		}
	}
	s.mu.Unlock()

	s.sessionTable.signal()
	return nil
}

func (s *FileStorage) GetSession(ctx context.Context, userID, id string) (*internal.StudySession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok || sess.UserID != userID {
		return nil, ErrNotFound
	}
	copied := *sess
	return &copied, nil
}

func (s *FileStorage) ListSessions(ctx context.Context, userID string) ([]internal.StudySession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ptrs := s.userSessionIndex[userID]
	out := make([]internal.StudySession, len(ptrs))
	for i, p := range ptrs {
		out[i] = *p
	}
	return out, nil
}

// --- CompletionRepository ---

func (s *FileStorage) SaveCompletion(ctx context.Context, completion *internal.QuestionCompletion) error {
	s.mu.Lock()
	s.completions[completion.UserID] = append(s.completions[completion.UserID], completion)
	s.mu.Unlock()

	s.complTable.signal()
	return nil
}

func (s *FileStorage) ListCompletions(ctx context.Context, userID string) ([]internal.QuestionCompletion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ptrs := s.completions[userID]
	out := make([]internal.QuestionCompletion, len(ptrs))
	for i, p := range ptrs {
		out[i] = *p
	}
	return out, nil
}

// --- PlannedBlockRepository ---

func (s *FileStorage) SaveBlock(ctx context.Context, block *internal.PlannedBlock) error {
	s.mu.Lock()
	_, existed := s.blocks[block.ID]
	s.blocks[block.ID] = block
	if !existed {
		s.userBlockIndex[block.UserID] = append(s.userBlockIndex[block.UserID], block)
	} else {
		for i, existing := range s.userBlockIndex[block.UserID] {
			if existing.ID == block.ID {
				s.userBlockIndex[block.UserID][i] = block
				break
			}
		}
	}
	s.mu.Unlock()

	s.blockTable.signal()
	return nil
}

func (s *FileStorage) GetBlock(ctx context.Context, userID, id string) (*internal.PlannedBlock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blocks[id]
	if !ok || b.UserID != userID {
		return nil, ErrNotFound
	}
	copied := *b
	return &copied, nil
}

func (s *FileStorage) ListBlocks(ctx context.Context, userID string) ([]internal.PlannedBlock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ptrs := s.userBlockIndex[userID]
	out := make([]internal.PlannedBlock, len(ptrs))
	for i, p := range ptrs {
		out[i] = *p
	}
	return out, nil
}

func (s *FileStorage) DeleteBlock(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	b, ok := s.blocks[id]
	if !ok || b.UserID != userID {
		s.mu.Unlock()
		return ErrNotFound
	}
	delete(s.blocks, id)
	list := s.userBlockIndex[userID]
	for i, existing := range list {
		if existing.ID == id {
			s.userBlockIndex[userID] = append(list[:i], list[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	s.blockTable.signal()
	return nil
}

// --- AchievementRepository ---

func (s *FileStorage) ListDefinitions(ctx context.Context) ([]internal.AchievementDefinition, error) {
	out := make([]internal.AchievementDefinition, len(s.definitions))
	copy(out, s.definitions)
	return out, nil
}

func (s *FileStorage) GetProgress(ctx context.Context, userID, achievementID string) (*internal.AchievementProgress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if byAch, ok := s.progress[userID]; ok {
		if p, ok := byAch[achievementID]; ok {
			copied := *p
			return &copied, nil
		}
	}
	return &internal.AchievementProgress{UserID: userID, AchievementID: achievementID}, nil
}

func (s *FileStorage) SaveProgress(ctx context.Context, progress *internal.AchievementProgress) error {
	s.mu.Lock()
	if s.progress[progress.UserID] == nil {
		s.progress[progress.UserID] = make(map[string]*internal.AchievementProgress)
	}
	s.progress[progress.UserID][progress.AchievementID] = progress
	s.mu.Unlock()

	s.progTable.signal()
	return nil
}

// --- UserRepository ---

func (s *FileStorage) CreateUser(ctx context.Context, user *internal.User) error {
	s.mu.Lock()
	if _, exists := s.usersByName[user.Username]; exists {
		s.mu.Unlock()
		return errors.New("storage: username already taken")
	}
	s.users[user.ID] = user
	s.usersByName[user.Username] = user
	s.mu.Unlock()

	s.userTable.signal()
	return nil
}

func (s *FileStorage) GetUserByUsername(ctx context.Context, username string) (*internal.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.usersByName[username]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (s *FileStorage) GetUserByID(ctx context.Context, id string) (*internal.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *u
	return &copied, nil
}

// --- ProfileRepository ---

func (s *FileStorage) GetProfile(ctx context.Context, userID string) (*internal.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return internal.DefaultProfile(userID), nil
	}
	copied := *p
	return &copied, nil
}

func (s *FileStorage) SaveProfile(ctx context.Context, profile *internal.UserProfile) error {
	s.mu.Lock()
	s.profiles[profile.UserID] = profile
	s.mu.Unlock()

	s.profileTable.signal()
	return nil
}

// --- QuestionBankRepository ---
// The catalog never changes after load, so no locking is needed here.

func (s *FileStorage) ListQuestions(ctx context.Context) ([]internal.MathQuestion, error) {
	out := make([]internal.MathQuestion, len(s.questions))
	copy(out, s.questions)
	return out, nil
}

func (s *FileStorage) GetQuestion(ctx context.Context, id string) (*internal.MathQuestion, error) {
	q, ok := s.questionsByID[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *q
	return &copied, nil
}

func (s *FileStorage) ListPapers(ctx context.Context) ([]internal.Paper, error) {
	out := make([]internal.Paper, len(s.papers))
	copy(out, s.papers)
	return out, nil
}

func (s *FileStorage) GetPaper(ctx context.Context, id string) (*internal.Paper, error) {
	p, ok := s.papersByID[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (s *FileStorage) ListPaperQuestions(ctx context.Context, paperID string) ([]internal.MathQuestion, error) {
	qs := s.paperQuestions[paperID]
	out := make([]internal.MathQuestion, len(qs))
	copy(out, qs)
	return out, nil
}

// Close stops the save workers and flushes pending data synchronously.
func (s *FileStorage) Close() error {
	close(s.shutdownChan)

	var firstErr error
	for _, t := range s.tables {
		if err := atomicWriteFileJSON(t.path, t.snapshot()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

var (
	_ SessionRepository      = (*FileStorage)(nil)
	_ CompletionRepository   = (*FileStorage)(nil)
	_ PlannedBlockRepository = (*FileStorage)(nil)
	_ AchievementRepository  = (*FileStorage)(nil)
	_ UserRepository         = (*FileStorage)(nil)
	_ ProfileRepository      = (*FileStorage)(nil)
	_ QuestionBankRepository = (*FileStorage)(nil)
)
