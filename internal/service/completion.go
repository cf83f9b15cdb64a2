package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/yourname/studytracker/internal"
	"github.com/yourname/studytracker/internal/storage"
)

type CompletionRequest struct {
	QuestionID       string `json:"question_id,omitempty" validate:"omitempty"`
	PaperID          string `json:"paper_id,omitempty" validate:"omitempty"`
	Subject          string `json:"subject" validate:"required"`
	Topic            string `json:"topic,omitempty" validate:"omitempty"`
	TimeSpentMinutes *int   `json:"time_spent_minutes,omitempty" validate:"omitempty,gte=0,lte=600"`
	Notes            string `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

func ValidateCompletionRequest(body *CompletionRequest) error {
	return validate.Struct(body)
}

func RecordCompletion(ctx context.Context, completions storage.CompletionRepository, user *internal.User, body *CompletionRequest) (*internal.QuestionCompletion, error) {
	completion := &internal.QuestionCompletion{
		ID:               uuid.NewString(),
		UserID:           user.ID,
		QuestionID:       body.QuestionID,
		PaperID:          body.PaperID,
		Subject:          body.Subject,
		Topic:            body.Topic,
		CompletedAt:      time.Now(),
		TimeSpentMinutes: body.TimeSpentMinutes,
		Notes:            body.Notes,
		CreatedAt:        time.Now(),
	}
	if err := completions.SaveCompletion(ctx, completion); err != nil {
		return nil, err
	}
	return completion, nil
}
