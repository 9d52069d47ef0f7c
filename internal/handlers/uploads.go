package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/scrolla/backend/internal/generation"
	"github.com/scrolla/backend/internal/logging"
	"github.com/scrolla/backend/internal/models"
)

// maxUploadBytes caps one multipart select request. PDFs beyond this size are
// rejected before any file is admitted into the session.
const maxUploadBytes = 64 << 20

// UploadHandler drives the upload, generation, review and save cycle.
type UploadHandler struct {
	Users     UserStore
	Sessions  SessionManager
	Workflows *generation.Registry
}

// Select responds to POST /api/v1/uploads requests carrying a multipart batch
// of documents under the "files" field.
func (h UploadHandler) Select(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx, userID, ok := requireUser(w, r, h.Sessions)
	if !ok {
		return
	}
	logger := logging.FromContext(ctx)

	workflow, ok := h.workflowFor(w, r, userID)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		logger.Warn("invalid multipart payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid multipart request"})
		return
	}

	var files []generation.File
	if r.MultipartForm != nil {
		for _, header := range r.MultipartForm.File["files"] {
			f, err := header.Open()
			if err != nil {
				logger.Error("open uploaded file", "file", header.Filename, "error", err)
				respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "unable to read uploaded file"})
				return
			}
			data, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				logger.Error("read uploaded file", "file", header.Filename, "error", err)
				respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "unable to read uploaded file"})
				return
			}
			files = append(files, generation.File{Name: header.Filename, Data: data})
		}
	}

	if err := workflow.SelectFiles(ctx, files); err != nil {
		var limitErr *generation.BatchLimitError
		if errors.As(err, &limitErr) {
			respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": limitErr.Error()})
			return
		}
		var stateErr *generation.StateError
		if errors.As(err, &stateErr) {
			respondJSON(ctx, w, http.StatusConflict, map[string]string{"error": stateErr.Error()})
			return
		}
		logger.Error("select files failed", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "unable to accept files"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, sessionResponse{
		State:    string(workflow.State()),
		MaxFiles: workflow.MaxFiles(),
		Files:    len(files),
	})
}

// Generate responds to POST /api/v1/uploads/generate requests.
func (h UploadHandler) Generate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx, userID, ok := requireUser(w, r, h.Sessions)
	if !ok {
		return
	}
	logger := logging.FromContext(ctx)

	workflow, ok := h.workflowFor(w, r, userID)
	if !ok {
		return
	}

	if err := workflow.Generate(ctx); err != nil {
		var stateErr *generation.StateError
		if errors.As(err, &stateErr) {
			respondJSON(ctx, w, http.StatusConflict, map[string]string{"error": stateErr.Error()})
			return
		}
		logger.Error("generation failed", "error", err)
		respondJSON(ctx, w, http.StatusBadGateway, map[string]string{"error": "video generation failed"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, batchResponse{
		State:  string(workflow.State()),
		Videos: videoList(workflow.Batch()),
	})
}

// Session responds to GET /api/v1/uploads/session requests with the current
// generation session status.
func (h UploadHandler) Session(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx, userID, ok := requireUser(w, r, h.Sessions)
	if !ok {
		return
	}

	workflow, ok := h.workflowFor(w, r, userID)
	if !ok {
		return
	}

	respondJSON(ctx, w, http.StatusOK, batchResponse{
		State:  string(workflow.State()),
		Videos: videoList(workflow.Batch()),
	})
}

// Save responds to POST /api/v1/uploads/save requests, committing the reviewed
// batch to the user's permanent collection.
func (h UploadHandler) Save(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx, userID, ok := requireUser(w, r, h.Sessions)
	if !ok {
		return
	}
	logger := logging.FromContext(ctx)

	workflow, ok := h.workflowFor(w, r, userID)
	if !ok {
		return
	}

	if err := workflow.Save(ctx); err != nil {
		var stateErr *generation.StateError
		if errors.As(err, &stateErr) {
			respondJSON(ctx, w, http.StatusConflict, map[string]string{"error": stateErr.Error()})
			return
		}
		logger.Error("save batch failed", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "unable to save videos"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, sessionResponse{
		State:    string(workflow.State()),
		MaxFiles: workflow.MaxFiles(),
	})
}

// Discard responds to POST /api/v1/uploads/discard requests, abandoning the
// current cycle without persisting anything.
func (h UploadHandler) Discard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx, userID, ok := requireUser(w, r, h.Sessions)
	if !ok {
		return
	}

	workflow, ok := h.workflowFor(w, r, userID)
	if !ok {
		return
	}

	workflow.Discard()

	respondJSON(ctx, w, http.StatusOK, sessionResponse{
		State:    string(workflow.State()),
		MaxFiles: workflow.MaxFiles(),
	})
}

func (h UploadHandler) workflowFor(w http.ResponseWriter, r *http.Request, userID string) (*generation.Workflow, bool) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Workflows == nil || h.Users == nil {
		logger.Error("upload dependencies unavailable", "hasWorkflows", h.Workflows != nil, "hasUsers", h.Users != nil)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "upload services unavailable"})
		return nil, false
	}

	user, err := h.Users.FindByID(ctx, userID)
	if err != nil {
		logger.Error("resolve user tier failed", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "unable to resolve account"})
		return nil, false
	}

	return h.Workflows.ForUser(userID, user.IsProSubscription), true
}

type sessionResponse struct {
	State    string `json:"state"`
	MaxFiles int    `json:"maxFiles"`
	Files    int    `json:"files,omitempty"`
}

type batchResponse struct {
	State  string         `json:"state"`
	Videos []models.Video `json:"videos"`
}
