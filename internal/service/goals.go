package service

import (
	"context"
	"time"

	"github.com/yourname/studytracker/internal"
	"github.com/yourname/studytracker/internal/storage"
)

type GoalsRequest struct {
	DailyGoalQuestions *int `json:"daily_goal_questions,omitempty" validate:"omitempty,gte=1,lte=50"`
	DailyGoalMinutes   *int `json:"daily_goal_minutes,omitempty" validate:"omitempty,gte=1,lte=480"`
}

func ValidateGoalsRequest(body *GoalsRequest) error {
	return validate.Struct(body)
}

func UpdateGoals(ctx context.Context, profiles storage.ProfileRepository, user *internal.User, body *GoalsRequest) (*internal.UserProfile, error) {
	profile, err := profiles.GetProfile(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if body.DailyGoalQuestions != nil {
		profile.DailyGoalQuestions = *body.DailyGoalQuestions
	}
	if body.DailyGoalMinutes != nil {
		profile.DailyGoalMinutes = *body.DailyGoalMinutes
	}
	profile.UpdatedAt = time.Now()
	if err := profiles.SaveProfile(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}
