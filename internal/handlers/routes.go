package handlers

import (
	"net/http"

	"github.com/scrolla/backend/internal/feed"
	"github.com/scrolla/backend/internal/generation"
	"github.com/scrolla/backend/internal/state"
)

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{}
	auth := AuthHandler{
		Users:     deps.Users,
		Sessions:  deps.Sessions,
		Videos:    deps.Videos,
		States:    deps.States,
		Workflows: deps.Workflows,
		Feeds:     deps.Feeds,
		Limiter:   deps.Limiter,
	}
	profile := ProfileHandler{Users: deps.Users, Sessions: deps.Sessions, Videos: deps.Videos, States: deps.States}
	videos := VideoHandler{Sessions: deps.Sessions, Videos: deps.Videos, States: deps.States}
	uploads := UploadHandler{Users: deps.Users, Sessions: deps.Sessions, Workflows: deps.Workflows}
	feeds := FeedHandler{Sessions: deps.Sessions, Videos: deps.Videos, States: deps.States, Workflows: deps.Workflows, Feeds: deps.Feeds}

	mux.HandleFunc("/healthz", health.Handle)
	mux.HandleFunc("/api/v1/auth/signup", auth.SignUp)
	mux.HandleFunc("/api/v1/auth/login", auth.Login)
	mux.HandleFunc("/api/v1/auth/refresh", auth.Refresh)
	mux.HandleFunc("/api/v1/auth/logout", auth.Logout)
	mux.HandleFunc("/api/v1/profile", profile.Handle)
	mux.HandleFunc("/api/v1/videos", videos.List)
	mux.HandleFunc("/api/v1/videos/like", videos.Like)
	mux.HandleFunc("/api/v1/uploads", uploads.Select)
	mux.HandleFunc("/api/v1/uploads/generate", uploads.Generate)
	mux.HandleFunc("/api/v1/uploads/session", uploads.Session)
	mux.HandleFunc("/api/v1/uploads/save", uploads.Save)
	mux.HandleFunc("/api/v1/uploads/discard", uploads.Discard)
	mux.HandleFunc("/api/v1/feed/open", feeds.Open)
	mux.HandleFunc("/api/v1/feed/gesture", feeds.Gesture)
	mux.HandleFunc("/api/v1/feed/playback", feeds.Playback)
	mux.HandleFunc("/api/v1/feed/mute", feeds.Mute)
	mux.HandleFunc("/api/v1/feed/like", feeds.Like)
	mux.HandleFunc("/api/v1/feed", feeds.State)
}

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users    UserStore
	Sessions SessionManager
	Videos   VideoStore

	States    *state.Registry
	Workflows *generation.Registry
	Feeds     *feed.Registry

	Limiter RateLimiter
}
