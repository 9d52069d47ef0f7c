package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/scrolla/backend/internal/logging"
	"github.com/scrolla/backend/internal/models"
	"github.com/scrolla/backend/internal/repositories"
	"github.com/scrolla/backend/internal/state"
)

// VideoHandler serves the signed-in user's video collection.
type VideoHandler struct {
	Sessions SessionManager
	Videos   VideoStore
	States   *state.Registry
}

// List responds to GET /api/v1/videos requests. With ?liked=true only liked
// videos are returned; entries keep their index in the full collection so
// clients can address them in like updates.
func (h VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx, userID, ok := requireUser(w, r, h.Sessions)
	if !ok {
		return
	}
	logger := logging.FromContext(ctx)

	videos, err := h.Videos.ListForUser(ctx, userID)
	if err != nil {
		logger.Error("list videos failed", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "unable to load videos"})
		return
	}

	if h.States != nil {
		h.States.ForUser(userID).SetVideos(videos)
	}

	likedOnly := r.URL.Query().Get("liked") == "true"

	entries := make([]videoEntry, 0, len(videos))
	for i, video := range videos {
		if likedOnly && !video.Liked {
			continue
		}
		entries = append(entries, videoEntry{Index: i, Video: video})
	}

	respondJSON(ctx, w, http.StatusOK, videoListResponse{Videos: entries})
}

// Like responds to POST /api/v1/videos/like requests, setting the liked flag
// of exactly one video identified by its index in the full collection.
func (h VideoHandler) Like(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx, userID, ok := requireUser(w, r, h.Sessions)
	if !ok {
		return
	}
	logger := logging.FromContext(ctx)

	var req likeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid like payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Index < 0 {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "index must not be negative"})
		return
	}

	if err := h.Videos.SetLiked(ctx, userID, req.Index, req.Liked); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "no video at that index"})
			return
		}
		logger.Error("set liked failed", "index", req.Index, "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "unable to update video"})
		return
	}

	if h.States != nil {
		h.States.ForUser(userID).SetLikeStatus(req.Index, req.Liked)
	}

	respondJSON(ctx, w, http.StatusOK, likeResponse{Index: req.Index, Liked: req.Liked})
}

type videoEntry struct {
	Index int `json:"index"`
	models.Video
}

type videoListResponse struct {
	Videos []videoEntry `json:"videos"`
}

type likeRequest struct {
	Index int  `json:"index"`
	Liked bool `json:"liked"`
}

type likeResponse struct {
	Index int  `json:"index"`
	Liked bool `json:"liked"`
}
