package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/scrolla/backend/internal/models"
	"github.com/scrolla/backend/internal/state"
)

func newVideoFixture(videos []models.Video) (VideoHandler, *stubVideoStore, *state.Registry) {
	store := &stubVideoStore{videos: map[string][]models.Video{"user-1": videos}}
	states := state.NewRegistry()
	handler := VideoHandler{
		Sessions: &stubSessionManager{authUserID: "user-1"},
		Videos:   store,
		States:   states,
	}
	return handler, store, states
}

func TestVideoHandlerList(t *testing.T) {
	handler, _, states := newVideoFixture([]models.Video{
		{URL: "https://cdn.example.com/1.mp4", Title: "Video 1"},
		{URL: "https://cdn.example.com/2.mp4", Title: "Video 2", Liked: true},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/videos", nil)
	req.Header.Set("Authorization", "Bearer access")
	rec := httptest.NewRecorder()

	handler.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}

	var resp videoListResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Videos) != 2 {
		t.Fatalf("expected 2 videos got %d", len(resp.Videos))
	}
	if resp.Videos[0].Index != 0 || resp.Videos[1].Index != 1 {
		t.Fatalf("expected collection indexes preserved, got %+v", resp.Videos)
	}

	// Listing mirrors the collection into the state store.
	if snap := states.ForUser("user-1").Snapshot(); len(snap.Videos) != 2 {
		t.Fatalf("expected state store synced, got %+v", snap)
	}
}

func TestVideoHandlerListLikedFilter(t *testing.T) {
	handler, _, _ := newVideoFixture([]models.Video{
		{URL: "https://cdn.example.com/1.mp4", Title: "Video 1"},
		{URL: "https://cdn.example.com/2.mp4", Title: "Video 2", Liked: true},
		{URL: "https://cdn.example.com/3.mp4", Title: "Video 3"},
		{URL: "https://cdn.example.com/4.mp4", Title: "Video 4", Liked: true},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/videos?liked=true", nil)
	req.Header.Set("Authorization", "Bearer access")
	rec := httptest.NewRecorder()

	handler.List(rec, req)

	var resp videoListResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Videos) != 2 {
		t.Fatalf("expected 2 liked videos got %d", len(resp.Videos))
	}
	if resp.Videos[0].Index != 1 || resp.Videos[1].Index != 3 {
		t.Fatalf("liked entries must keep their position in the full collection, got %+v", resp.Videos)
	}
}

func TestVideoHandlerLike(t *testing.T) {
	handler, store, states := newVideoFixture([]models.Video{
		{URL: "https://cdn.example.com/1.mp4", Title: "Video 1"},
		{URL: "https://cdn.example.com/2.mp4", Title: "Video 2"},
	})
	states.ForUser("user-1").SetVideos(store.videos["user-1"])

	req := httptest.NewRequest(http.MethodPost, "/api/v1/videos/like", strings.NewReader(`{"index":1,"liked":true}`))
	req.Header.Set("Authorization", "Bearer access")
	rec := httptest.NewRecorder()

	handler.Like(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if len(store.likes) != 1 || store.likes[0].index != 1 || !store.likes[0].liked {
		t.Fatalf("unexpected persisted likes %+v", store.likes)
	}

	snap := states.ForUser("user-1").Snapshot()
	if !snap.Videos[1].Liked || snap.Videos[0].Liked {
		t.Fatalf("expected only index 1 liked in state store, got %+v", snap.Videos)
	}
}

func TestVideoHandlerLikeOutOfRange(t *testing.T) {
	handler, _, _ := newVideoFixture([]models.Video{
		{URL: "https://cdn.example.com/1.mp4", Title: "Video 1"},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/videos/like", strings.NewReader(`{"index":5,"liked":true}`))
	req.Header.Set("Authorization", "Bearer access")
	rec := httptest.NewRecorder()

	handler.Like(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
}

func TestVideoHandlerRequiresAuth(t *testing.T) {
	handler, _, _ := newVideoFixture(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/videos", nil)
	rec := httptest.NewRecorder()

	handler.List(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}
