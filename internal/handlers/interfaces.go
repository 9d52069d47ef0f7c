package handlers

import (
	"context"

	"github.com/scrolla/backend/internal/models"
)

// UserStore captures the persistence operations required by the HTTP handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, userID string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
}

// SessionManager issues, refreshes, authenticates and revokes session tokens.
type SessionManager interface {
	Issue(ctx context.Context, userID string) (models.SessionTokens, error)
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	Authenticate(ctx context.Context, accessToken string) (string, error)
	Revoke(ctx context.Context, refreshToken string)
}

// VideoStore captures persistence for a user's generated video collection.
type VideoStore interface {
	ListForUser(ctx context.Context, userID string) ([]models.Video, error)
	SetLiked(ctx context.Context, userID string, index int, liked bool) error
}
