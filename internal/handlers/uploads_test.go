package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/scrolla/backend/internal/generation"
	"github.com/scrolla/backend/internal/models"
	"github.com/scrolla/backend/internal/state"
)

type fixedUploader struct{ err error }

func (u fixedUploader) Save(_ context.Context, name string, r io.Reader) (string, error) {
	if u.err != nil {
		return "", u.err
	}
	if _, err := io.ReadAll(r); err != nil {
		return "", err
	}
	return "https://storage.example.com/" + name, nil
}

type fixedGenerator struct {
	batch []models.Video
	err   error
}

func (g fixedGenerator) Generate(context.Context, string, []string) ([]models.Video, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.batch, nil
}

type recordingAppender struct {
	videos []models.Video
	err    error
}

func (a *recordingAppender) Append(_ context.Context, _ string, videos []models.Video) error {
	if a.err != nil {
		return a.err
	}
	a.videos = append(a.videos, videos...)
	return nil
}

type uploadFixture struct {
	handler  UploadHandler
	states   *state.Registry
	appender *recordingAppender
}

func newUploadFixture(t *testing.T, isPro bool, gen generation.Generator) uploadFixture {
	t.Helper()

	user := models.User{ID: "user-1", Email: "alice@example.com", IsProSubscription: isPro}
	states := state.NewRegistry()
	appender := &recordingAppender{}
	workflows := generation.NewRegistry(func(userID string, isPro bool) *generation.Workflow {
		return generation.NewWorkflow(userID, isPro, states.ForUser(userID), fixedUploader{}, gen, appender)
	})

	return uploadFixture{
		handler: UploadHandler{
			Users:     newStubUserStore(user),
			Sessions:  &stubSessionManager{authUserID: "user-1"},
			Workflows: workflows,
		},
		states:   states,
		appender: appender,
	}
}

func multipartBody(t *testing.T, count int) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for i := 0; i < count; i++ {
		part, err := writer.CreateFormFile("files", fmt.Sprintf("doc%d.pdf", i))
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write([]byte("%PDF-1.4")); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func doSelect(t *testing.T, f uploadFixture, count int) *httptest.ResponseRecorder {
	t.Helper()

	body, contentType := multipartBody(t, count)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer access")
	rec := httptest.NewRecorder()

	f.handler.Select(rec, req)
	return rec
}

func doPost(t *testing.T, fn http.HandlerFunc, target string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, target, nil)
	req.Header.Set("Authorization", "Bearer access")
	rec := httptest.NewRecorder()
	fn(rec, req)
	return rec
}

func TestUploadHandlerSelectOverTierLimit(t *testing.T) {
	f := newUploadFixture(t, false, fixedGenerator{})

	rec := doSelect(t, f, 6)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["error"] != "Maximum 5 files allowed" {
		t.Fatalf("unexpected error message %q", resp["error"])
	}
}

func TestUploadHandlerProTierAcceptsLargerBatch(t *testing.T) {
	f := newUploadFixture(t, true, fixedGenerator{})

	rec := doSelect(t, f, 12)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}

	var resp sessionResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.State != string(generation.StateUploaded) || resp.MaxFiles != generation.ProTierMaxFiles || resp.Files != 12 {
		t.Fatalf("unexpected session response %+v", resp)
	}
}

func TestUploadHandlerGenerateSaveCycle(t *testing.T) {
	batch := []models.Video{
		{URL: "https://cdn.example.com/1.mp4", Title: "Video 1", Category: "generated"},
		{URL: "https://cdn.example.com/2.mp4", Title: "Video 2", Category: "generated"},
	}
	f := newUploadFixture(t, false, fixedGenerator{batch: batch})

	if rec := doSelect(t, f, 2); rec.Code != http.StatusOK {
		t.Fatalf("select: expected 200 got %d", rec.Code)
	}

	rec := doPost(t, f.handler.Generate, "/api/v1/uploads/generate")
	if rec.Code != http.StatusOK {
		t.Fatalf("generate: expected 200 got %d: %s", rec.Code, rec.Body.String())
	}

	var gen batchResponse
	if err := json.NewDecoder(rec.Body).Decode(&gen); err != nil {
		t.Fatalf("decode generate response: %v", err)
	}
	if gen.State != string(generation.StateGenerated) || len(gen.Videos) != 2 {
		t.Fatalf("unexpected generate response %+v", gen)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/uploads/session", nil)
	req.Header.Set("Authorization", "Bearer access")
	statusRec := httptest.NewRecorder()
	f.handler.Session(statusRec, req)
	if statusRec.Code != http.StatusOK {
		t.Fatalf("session: expected 200 got %d", statusRec.Code)
	}

	rec = doPost(t, f.handler.Save, "/api/v1/uploads/save")
	if rec.Code != http.StatusOK {
		t.Fatalf("save: expected 200 got %d: %s", rec.Code, rec.Body.String())
	}

	if len(f.appender.videos) != 2 {
		t.Fatalf("expected 2 persisted videos got %d", len(f.appender.videos))
	}

	snap := f.states.ForUser("user-1").Snapshot()
	if len(snap.Videos) != 2 || len(snap.NewlyGenerated) != 0 {
		t.Fatalf("expected batch promoted to permanent list, got %+v", snap)
	}
}

func TestUploadHandlerGenerateFromIdleConflicts(t *testing.T) {
	f := newUploadFixture(t, false, fixedGenerator{})

	rec := doPost(t, f.handler.Generate, "/api/v1/uploads/generate")

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestUploadHandlerGenerateFailureSurfaces(t *testing.T) {
	f := newUploadFixture(t, false, fixedGenerator{err: errors.New("service down")})

	if rec := doSelect(t, f, 1); rec.Code != http.StatusOK {
		t.Fatalf("select: expected 200 got %d", rec.Code)
	}

	rec := doPost(t, f.handler.Generate, "/api/v1/uploads/generate")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 got %d: %s", rec.Code, rec.Body.String())
	}

	snap := f.states.ForUser("user-1").Snapshot()
	if snap.PageStatus != state.PageError {
		t.Fatalf("expected error page status got %q", snap.PageStatus)
	}
}

func TestUploadHandlerDiscard(t *testing.T) {
	batch := []models.Video{{URL: "https://cdn.example.com/1.mp4"}}
	f := newUploadFixture(t, false, fixedGenerator{batch: batch})

	if rec := doSelect(t, f, 1); rec.Code != http.StatusOK {
		t.Fatalf("select: expected 200 got %d", rec.Code)
	}
	if rec := doPost(t, f.handler.Generate, "/api/v1/uploads/generate"); rec.Code != http.StatusOK {
		t.Fatalf("generate: expected 200 got %d", rec.Code)
	}

	rec := doPost(t, f.handler.Discard, "/api/v1/uploads/discard")
	if rec.Code != http.StatusOK {
		t.Fatalf("discard: expected 200 got %d", rec.Code)
	}

	if len(f.appender.videos) != 0 {
		t.Fatal("discard must not persist videos")
	}

	var resp sessionResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.State != string(generation.StateIdle) {
		t.Fatalf("expected idle after discard got %q", resp.State)
	}
}

func TestUploadHandlerRequiresAuth(t *testing.T) {
	f := newUploadFixture(t, false, fixedGenerator{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads", nil)
	rec := httptest.NewRecorder()

	f.handler.Select(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}
