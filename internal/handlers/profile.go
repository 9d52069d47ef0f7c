package handlers

import (
	"errors"
	"net/http"

	"github.com/scrolla/backend/internal/logging"
	"github.com/scrolla/backend/internal/models"
	"github.com/scrolla/backend/internal/repositories"
	"github.com/scrolla/backend/internal/state"
)

// ProfileHandler serves the signed-in user's profile document.
type ProfileHandler struct {
	Users    UserStore
	Sessions SessionManager
	Videos   VideoStore
	States   *state.Registry
}

// Handle responds to GET /api/v1/profile requests. The profile is served from
// the user's session state store; if the store has not been populated yet, for
// example after a server restart, it is reloaded from persistence first.
func (h ProfileHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx, userID, ok := requireUser(w, r, h.Sessions)
	if !ok {
		return
	}
	logger := logging.FromContext(ctx)

	store := h.States.ForUser(userID)
	snap := store.Snapshot()

	if snap.UserID == "" {
		user, err := h.Users.FindByID(ctx, userID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "profile not found"})
				return
			}
			logger.Error("profile lookup failed", "error", err)
			respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "unable to load profile"})
			return
		}

		videos, err := h.Videos.ListForUser(ctx, userID)
		if err != nil {
			logger.Error("profile video load failed", "error", err)
			respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "unable to load profile"})
			return
		}

		store.SetUserID(user.ID)
		store.SetUserData(user.Name, user.Email, user.IsProSubscription, videos)
		snap = store.Snapshot()
	}

	respondJSON(ctx, w, http.StatusOK, profileResponse{
		UserName:          snap.UserName,
		UserEmail:         snap.UserEmail,
		IsProSubscription: snap.IsProSubscription,
		Videos:            videoList(snap.Videos),
	})
}

type profileResponse struct {
	UserName          string         `json:"userName"`
	UserEmail         string         `json:"userEmail"`
	IsProSubscription bool           `json:"isProSubscription"`
	Videos            []models.Video `json:"videos"`
}

// videoList keeps empty collections rendering as [] instead of null.
func videoList(videos []models.Video) []models.Video {
	if videos == nil {
		return []models.Video{}
	}
	return videos
}
