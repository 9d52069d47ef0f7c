package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/scrolla/backend/internal/feed"
	"github.com/scrolla/backend/internal/generation"
	"github.com/scrolla/backend/internal/logging"
	"github.com/scrolla/backend/internal/models"
	"github.com/scrolla/backend/internal/state"
)

// Feed sources selectable on open.
const (
	feedSourceVideos = "videos"
	feedSourceLiked  = "liked"
	feedSourceReview = "review"
)

// FeedHandler exposes one swipeable video feed per signed-in user.
type FeedHandler struct {
	Sessions SessionManager
	Videos   VideoStore

	States    *state.Registry
	Workflows *generation.Registry
	Feeds     *feed.Registry
}

// Open responds to POST /api/v1/feed/open requests. It builds a navigator
// over the requested source and replaces any previously open feed.
func (h FeedHandler) Open(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx, userID, ok := requireUser(w, r, h.Sessions)
	if !ok {
		return
	}
	logger := logging.FromContext(ctx)

	var req openFeedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid open feed payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Source == "" {
		req.Source = feedSourceVideos
	}

	var (
		videos    []models.Video
		positions []int
		liker     feed.LikeToggler
		cfg       feed.Config
	)

	switch req.Source {
	case feedSourceVideos, feedSourceLiked:
		all, err := h.Videos.ListForUser(ctx, userID)
		if err != nil {
			logger.Error("load videos for feed failed", "error", err)
			respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "unable to load videos"})
			return
		}
		if h.States != nil {
			h.States.ForUser(userID).SetVideos(all)
		}

		for i, video := range all {
			if req.Source == feedSourceLiked && !video.Liked {
				continue
			}
			videos = append(videos, video)
			positions = append(positions, i)
		}

		liker = collectionLiker{userID: userID, positions: positions, videos: h.Videos, states: h.States}
		cfg = feed.Config{Orientation: orientationFrom(req.Orientation, feed.OrientationVertical), AllowModify: true}

	case feedSourceReview:
		if h.Workflows == nil {
			respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "upload services unavailable"})
			return
		}
		workflow, found := h.Workflows.Get(userID)
		if !found || workflow.State() != generation.StateGenerated {
			respondJSON(ctx, w, http.StatusConflict, map[string]string{"error": "no generated batch to review"})
			return
		}

		videos = workflow.Batch()
		positions = make([]int, len(videos))
		for i := range positions {
			positions[i] = i
		}
		liker = reviewLiker{workflow: workflow}
		cfg = feed.Config{Orientation: orientationFrom(req.Orientation, feed.OrientationHorizontal), AllowModify: true}

	default:
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "unknown feed source"})
		return
	}

	nav, err := feed.New(videos, req.StartIndex, liker, cfg)
	if err != nil {
		if errors.Is(err, feed.ErrNoVideos) {
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "no videos to display"})
			return
		}
		logger.Error("open feed failed", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "unable to open feed"})
		return
	}

	h.Feeds.Put(userID, &feed.OpenFeed{Nav: nav, Positions: positions})

	respondJSON(ctx, w, http.StatusOK, feedState(nav))
}

// Gesture responds to POST /api/v1/feed/gesture requests, feeding one wheel or
// drag event into the open navigator.
func (h FeedHandler) Gesture(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx, userID, ok := requireUser(w, r, h.Sessions)
	if !ok {
		return
	}
	logger := logging.FromContext(ctx)

	open, ok := h.openFeed(w, r, userID)
	if !ok {
		return
	}

	var req gestureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid gesture payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	nav := open.Nav
	switch req.Type {
	case "wheel":
		nav.HandleWheel(req.Delta)
	case "dragStart":
		nav.StartDrag()
	case "drag":
		nav.Drag(req.DX, req.DY)
	case "dragEnd":
		nav.EndDrag()
	case "dragCancel":
		nav.CancelDrag()
	default:
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "unknown gesture type"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, feedState(nav))
}

// Playback responds to POST /api/v1/feed/playback requests, toggling the
// playing flag and arming the transient overlay glyph.
func (h FeedHandler) Playback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx, userID, ok := requireUser(w, r, h.Sessions)
	if !ok {
		return
	}

	open, ok := h.openFeed(w, r, userID)
	if !ok {
		return
	}

	open.Nav.TogglePlayback()
	respondJSON(ctx, w, http.StatusOK, feedState(open.Nav))
}

// Mute responds to POST /api/v1/feed/mute requests.
func (h FeedHandler) Mute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx, userID, ok := requireUser(w, r, h.Sessions)
	if !ok {
		return
	}

	open, ok := h.openFeed(w, r, userID)
	if !ok {
		return
	}

	open.Nav.ToggleMute()
	respondJSON(ctx, w, http.StatusOK, feedState(open.Nav))
}

// Like responds to POST /api/v1/feed/like requests, toggling the liked flag
// of the displayed video.
func (h FeedHandler) Like(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx, userID, ok := requireUser(w, r, h.Sessions)
	if !ok {
		return
	}
	logger := logging.FromContext(ctx)

	open, ok := h.openFeed(w, r, userID)
	if !ok {
		return
	}

	if _, err := open.Nav.ToggleLike(ctx); err != nil {
		if errors.Is(err, feed.ErrReadOnly) {
			respondJSON(ctx, w, http.StatusForbidden, map[string]string{"error": "feed is read-only"})
			return
		}
		logger.Error("toggle like failed", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "unable to update video"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, feedState(open.Nav))
}

// State responds to GET /api/v1/feed requests with the current feed state.
func (h FeedHandler) State(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx, userID, ok := requireUser(w, r, h.Sessions)
	if !ok {
		return
	}

	open, ok := h.openFeed(w, r, userID)
	if !ok {
		return
	}

	respondJSON(ctx, w, http.StatusOK, feedState(open.Nav))
}

func (h FeedHandler) openFeed(w http.ResponseWriter, r *http.Request, userID string) (*feed.OpenFeed, bool) {
	ctx := r.Context()

	if h.Feeds == nil {
		logging.FromContext(ctx).Error("feed registry unavailable")
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "feed services unavailable"})
		return nil, false
	}

	open, ok := h.Feeds.Get(userID)
	if !ok {
		respondJSON(ctx, w, http.StatusConflict, map[string]string{"error": "no open feed"})
		return nil, false
	}
	return open, true
}

func feedState(nav *feed.Navigator) feedStateResponse {
	return feedStateResponse{
		Index:   nav.Index(),
		Total:   nav.Len(),
		Video:   nav.Current(),
		Playing: nav.IsPlaying(),
		Muted:   nav.IsMuted(),
		Glyph:   string(nav.OverlayGlyph()),
	}
}

func orientationFrom(raw string, fallback feed.Orientation) feed.Orientation {
	switch feed.Orientation(raw) {
	case feed.OrientationVertical, feed.OrientationHorizontal:
		return feed.Orientation(raw)
	}
	return fallback
}

// collectionLiker persists like toggles from a feed opened over the stored
// collection, translating navigator indexes to collection positions.
type collectionLiker struct {
	userID    string
	positions []int
	videos    VideoStore
	states    *state.Registry
}

func (l collectionLiker) SetLiked(ctx context.Context, index int, liked bool) error {
	if index < 0 || index >= len(l.positions) {
		return fmt.Errorf("feed: no video at index %d", index)
	}
	pos := l.positions[index]
	if err := l.videos.SetLiked(ctx, l.userID, pos, liked); err != nil {
		return err
	}
	if l.states != nil {
		l.states.ForUser(l.userID).SetLikeStatus(pos, liked)
	}
	return nil
}

// reviewLiker routes like toggles from a review feed into the pending batch.
type reviewLiker struct {
	workflow *generation.Workflow
}

func (l reviewLiker) SetLiked(_ context.Context, index int, liked bool) error {
	return l.workflow.SetBatchLiked(index, liked)
}

type openFeedRequest struct {
	Source      string `json:"source"`
	Orientation string `json:"orientation"`
	StartIndex  int    `json:"startIndex"`
}

type gestureRequest struct {
	Type  string  `json:"type"`
	Delta float64 `json:"delta"`
	DX    float64 `json:"dx"`
	DY    float64 `json:"dy"`
}

type feedStateResponse struct {
	Index   int          `json:"index"`
	Total   int          `json:"total"`
	Video   models.Video `json:"video"`
	Playing bool         `json:"playing"`
	Muted   bool         `json:"muted"`
	Glyph   string       `json:"glyph,omitempty"`
}
