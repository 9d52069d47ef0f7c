package repositories

import (
	"context"

	"github.com/scrolla/backend/internal/models"
)

// VideoRepository exposes data access for a user's ordered video collection.
// Videos are position-indexed so like toggles address a single entry.
type VideoRepository interface {
	Append(ctx context.Context, userID string, videos []models.Video) error
	ListForUser(ctx context.Context, userID string) ([]models.Video, error)
	SetLiked(ctx context.Context, userID string, index int, liked bool) error
}
