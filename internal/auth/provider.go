package auth

import (
	"context"

	"github.com/yourname/studytracker/internal"
	"github.com/yourname/studytracker/internal/storage"
)

type Provider interface {
	Authenticate(ctx context.Context, token string) (*internal.User, error)
}

// JWTProvider validates bearer tokens and resolves them to stored users.
type JWTProvider struct {
	secret string
	users  storage.UserRepository
	logger internal.Logger
}

func NewJWTProvider(secret string, users storage.UserRepository, logger internal.Logger) *JWTProvider {
	return &JWTProvider{secret: secret, users: users, logger: logger}
}

func (p *JWTProvider) Authenticate(ctx context.Context, token string) (*internal.User, error) {
	userID, err := ValidateToken(token, p.secret)
	if err != nil {
		p.logger.Warnf("auth: token rejected: %v", err)
		return nil, err
	}
	user, err := p.users.GetUserByID(ctx, userID)
	if err != nil {
		p.logger.Warnf("auth: token subject %s not found", userID)
		return nil, err
	}
	return user, nil
}

var _ Provider = (*JWTProvider)(nil)
