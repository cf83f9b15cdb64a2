package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yourname/studytracker/internal"
	"github.com/yourname/studytracker/internal/storage"
)

type PlannedBlockRequest struct {
	Subject   string    `json:"subject" validate:"required"`
	Topic     string    `json:"topic,omitempty" validate:"omitempty"`
	StartTime time.Time `json:"start_time" validate:"required"`
	EndTime   time.Time `json:"end_time" validate:"required,gtfield=StartTime"`
	Type      string    `json:"type,omitempty" validate:"omitempty,oneof=regular pomodoro exam_practice REGULAR POMODORO EXAM_PRACTICE"`
	Notes     string    `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// UpdateBlockRequest carries partial updates; zero-valued fields are left as-is.
type UpdateBlockRequest struct {
	Subject   string     `json:"subject,omitempty"`
	Topic     *string    `json:"topic,omitempty"`
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Type      string     `json:"type,omitempty" validate:"omitempty,oneof=regular pomodoro exam_practice REGULAR POMODORO EXAM_PRACTICE"`
	Notes     *string    `json:"notes,omitempty"`
}

func ValidatePlannedBlockRequest(body *PlannedBlockRequest) error {
	return validate.Struct(body)
}

func ValidateUpdateBlockRequest(body *UpdateBlockRequest) error {
	return validate.Struct(body)
}

// ErrBlockRange rejects a block whose end does not come after its start.
var ErrBlockRange = errors.New("planned block must end after it starts")

func CreateBlock(ctx context.Context, blocks storage.PlannedBlockRepository, user *internal.User, body *PlannedBlockRequest) (*internal.PlannedBlock, error) {
	blockType := internal.SessionRegular
	if body.Type != "" {
		blockType = strings.ToUpper(body.Type)
	}
	block := &internal.PlannedBlock{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Subject:   body.Subject,
		Topic:     body.Topic,
		StartTime: body.StartTime,
		EndTime:   body.EndTime,
		Type:      blockType,
		Notes:     body.Notes,
		CreatedAt: time.Now(),
	}
	if err := blocks.SaveBlock(ctx, block); err != nil {
		return nil, err
	}
	return block, nil
}

func UpdateBlock(ctx context.Context, blocks storage.PlannedBlockRepository, user *internal.User, id string, body *UpdateBlockRequest) (*internal.PlannedBlock, error) {
	block, err := blocks.GetBlock(ctx, user.ID, id)
	if err != nil {
		return nil, err
	}
	if body.Subject != "" {
		block.Subject = body.Subject
	}
	if body.Topic != nil {
		block.Topic = *body.Topic
	}
	if body.StartTime != nil {
		block.StartTime = *body.StartTime
	}
	if body.EndTime != nil {
		block.EndTime = *body.EndTime
	}
	if body.Type != "" {
		block.Type = strings.ToUpper(body.Type)
	}
	if body.Notes != nil {
		block.Notes = *body.Notes
	}
	// A partial update can shift either boundary; the merged block must
	// still end after it starts.
	if !block.EndTime.After(block.StartTime) {
		return nil, ErrBlockRange
	}
	if err := blocks.SaveBlock(ctx, block); err != nil {
		return nil, err
	}
	return block, nil
}

func CompleteBlock(ctx context.Context, blocks storage.PlannedBlockRepository, user *internal.User, id string) (*internal.PlannedBlock, error) {
	block, err := blocks.GetBlock(ctx, user.ID, id)
	if err != nil {
		return nil, err
	}
	block.Completed = true
	if err := blocks.SaveBlock(ctx, block); err != nil {
		return nil, err
	}
	return block, nil
}

// BlocksBetween filters planned blocks to those starting in [start, end).
func BlocksBetween(blocks []internal.PlannedBlock, start, end time.Time) []internal.PlannedBlock {
	out := []internal.PlannedBlock{}
	for _, b := range blocks {
		if !b.StartTime.Before(start) && b.StartTime.Before(end) {
			out = append(out, b)
		}
	}
	return out
}
