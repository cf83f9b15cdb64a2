package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/yourname/studytracker/internal"
	"github.com/yourname/studytracker/internal/auth"
	"github.com/yourname/studytracker/internal/storage"
	"golang.org/x/crypto/bcrypt"
)

type RegisterRequest struct {
	Username  string `json:"username" validate:"required,min=3,max=32"`
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"first_name,omitempty" validate:"omitempty,max=64"`
	LastName  string `json:"last_name,omitempty" validate:"omitempty,max=64"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func ValidateRegisterRequest(body *RegisterRequest) error {
	return validate.Struct(body)
}

func ValidateLoginRequest(body *LoginRequest) error {
	return validate.Struct(body)
}

var (
	ErrUsernameTaken      = errors.New("username is already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// AuthResult is what register and login hand back to the handler.
type AuthResult struct {
	Token string         `json:"token"`
	User  *internal.User `json:"user"`
}

func Register(ctx context.Context, users storage.UserRepository, jwtSecret string, body *RegisterRequest) (*AuthResult, error) {
	if _, err := users.GetUserByUsername(ctx, body.Username); err == nil {
		return nil, ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &internal.User{
		ID:           uuid.NewString(),
		Username:     body.Username,
		Email:        body.Email,
		FirstName:    body.FirstName,
		LastName:     body.LastName,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}
	if err := users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	token, err := auth.GenerateToken(user, jwtSecret)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user}, nil
}

func Login(ctx context.Context, users storage.UserRepository, jwtSecret string, body *LoginRequest) (*AuthResult, error) {
	user, err := users.GetUserByUsername(ctx, body.Username)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := auth.GenerateToken(user, jwtSecret)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user}, nil
}
