package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/scrolla/backend/internal/models"
	"github.com/scrolla/backend/internal/state"
)

func TestProfileHandlerServesFromStateStore(t *testing.T) {
	states := state.NewRegistry()
	store := states.ForUser("user-1")
	store.SetUserID("user-1")
	store.SetUserData("Alice", "alice@example.com", true, []models.Video{
		{URL: "https://cdn.example.com/1.mp4", Title: "Video 1"},
	})

	handler := ProfileHandler{
		Users:    newStubUserStore(),
		Sessions: &stubSessionManager{authUserID: "user-1"},
		Videos:   &stubVideoStore{},
		States:   states,
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil)
	req.Header.Set("Authorization", "Bearer access")
	rec := httptest.NewRecorder()

	handler.Handle(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}

	var resp profileResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.UserName != "Alice" || resp.UserEmail != "alice@example.com" || !resp.IsProSubscription {
		t.Fatalf("unexpected profile %+v", resp)
	}
	if len(resp.Videos) != 1 {
		t.Fatalf("expected 1 video got %d", len(resp.Videos))
	}
}

func TestProfileHandlerReloadsAfterRestart(t *testing.T) {
	user := models.User{ID: "user-1", Email: "alice@example.com", Name: "Alice"}
	videos := &stubVideoStore{videos: map[string][]models.Video{
		"user-1": {{URL: "https://cdn.example.com/1.mp4", Title: "Video 1"}},
	}}
	states := state.NewRegistry()

	handler := ProfileHandler{
		Users:    newStubUserStore(user),
		Sessions: &stubSessionManager{authUserID: "user-1"},
		Videos:   videos,
		States:   states,
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil)
	req.Header.Set("Authorization", "Bearer access")
	rec := httptest.NewRecorder()

	handler.Handle(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}

	var resp profileResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.UserName != "Alice" || len(resp.Videos) != 1 {
		t.Fatalf("unexpected profile %+v", resp)
	}

	if snap := states.ForUser("user-1").Snapshot(); snap.UserID != "user-1" {
		t.Fatalf("expected state store repopulated, got %+v", snap)
	}
}

func TestProfileHandlerUnknownUser(t *testing.T) {
	handler := ProfileHandler{
		Users:    newStubUserStore(),
		Sessions: &stubSessionManager{authUserID: "ghost"},
		Videos:   &stubVideoStore{},
		States:   state.NewRegistry(),
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil)
	req.Header.Set("Authorization", "Bearer access")
	rec := httptest.NewRecorder()

	handler.Handle(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
}
