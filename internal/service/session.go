package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/yourname/studytracker/internal"
	"github.com/yourname/studytracker/internal/storage"
)

var validate = validator.New()

type StartSessionRequest struct {
	Subject string `json:"subject" validate:"required"`
	Topic   string `json:"topic,omitempty" validate:"omitempty"`
	Type    string `json:"type,omitempty" validate:"omitempty,oneof=regular pomodoro exam_practice REGULAR POMODORO EXAM_PRACTICE"`
}

type EndSessionRequest struct {
	Notes string `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

func ValidateStartSessionRequest(body *StartSessionRequest) error {
	return validate.Struct(body)
}

func ValidateEndSessionRequest(body *EndSessionRequest) error {
	return validate.Struct(body)
}

// ErrSessionAlreadyEnded is returned when ending a session twice.
var ErrSessionAlreadyEnded = errors.New("session already ended")

func StartSession(ctx context.Context, sessions storage.SessionRepository, user *internal.User, body *StartSessionRequest) (*internal.StudySession, error) {
	sessionType := internal.SessionRegular
	if body.Type != "" {
		sessionType = strings.ToUpper(body.Type)
	}
	session := &internal.StudySession{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Subject:   body.Subject,
		Topic:     body.Topic,
		StartTime: time.Now(),
		Type:      sessionType,
		CreatedAt: time.Now(),
	}
	if err := sessions.SaveSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func EndSession(ctx context.Context, sessions storage.SessionRepository, user *internal.User, id string, body *EndSessionRequest) (*internal.StudySession, error) {
	session, err := sessions.GetSession(ctx, user.ID, id)
	if err != nil {
		return nil, err
	}
	if session.EndTime != nil {
		return nil, ErrSessionAlreadyEnded
	}
	session.End(time.Now())
	if body.Notes != "" {
		session.Notes = body.Notes
	}
	if err := sessions.SaveSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// SessionsToday filters a descending session list to those starting today.
func SessionsToday(sessions []internal.StudySession, now time.Time) []internal.StudySession {
	y, m, d := now.Date()
	startOfDay := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	endOfDay := startOfDay.AddDate(0, 0, 1)

	out := []internal.StudySession{}
	for _, s := range sessions {
		if !s.StartTime.Before(startOfDay) && s.StartTime.Before(endOfDay) {
			out = append(out, s)
		}
	}
	return out
}

// SessionsBetween filters sessions to [start, end) by start time.
func SessionsBetween(sessions []internal.StudySession, start, end time.Time) []internal.StudySession {
	out := []internal.StudySession{}
	for _, s := range sessions {
		if !s.StartTime.Before(start) && s.StartTime.Before(end) {
			out = append(out, s)
		}
	}
	return out
}
