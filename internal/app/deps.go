package app

import (
	"context"
	"time"

	"github.com/scrolla/backend/internal/auth"
	"github.com/scrolla/backend/internal/config"
	"github.com/scrolla/backend/internal/db"
	"github.com/scrolla/backend/internal/feed"
	"github.com/scrolla/backend/internal/generation"
	"github.com/scrolla/backend/internal/handlers"
	"github.com/scrolla/backend/internal/middleware"
	"github.com/scrolla/backend/internal/repositories"
	"github.com/scrolla/backend/internal/state"
	"github.com/scrolla/backend/internal/storage"
)

// buildDependencies wires together concrete implementations used by the HTTP handlers.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config) (handlers.Dependencies, error) {
	videoRepo := repositories.NewPostgresVideoRepository(pool)
	sessionStore := repositories.NewPostgresSessionStore(pool)

	uploads, err := storage.NewS3Storage(ctx, cfg.ObjectStore)
	if err != nil {
		return handlers.Dependencies{}, err
	}

	generator := generation.NewHTTPGenerator(cfg.Generator.BaseURL, cfg.Generator.Timeout)

	states := state.NewRegistry()
	workflows := generation.NewRegistry(func(userID string, isPro bool) *generation.Workflow {
		return generation.NewWorkflow(userID, isPro, states.ForUser(userID), uploads, generator, videoRepo)
	})

	return handlers.Dependencies{
		Users:     repositories.NewPostgresUserRepository(pool),
		Sessions:  auth.NewManager(15*time.Minute, 24*time.Hour, sessionStore),
		Videos:    videoRepo,
		States:    states,
		Workflows: workflows,
		Feeds:     feed.NewRegistry(),
		Limiter:   middleware.NewIPRateLimiter(10, time.Minute, 5, 10*time.Minute),
	}, nil
}
