package generation

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sync"

	"github.com/google/uuid"

	"github.com/scrolla/backend/internal/logging"
	"github.com/scrolla/backend/internal/models"
	"github.com/scrolla/backend/internal/state"
)

// Uploader persists one file to blob storage and returns its durable URL.
type Uploader interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
}

// VideoAppender persists a confirmed batch to the user's permanent video list.
type VideoAppender interface {
	Append(ctx context.Context, userID string, videos []models.Video) error
}

// Workflow drives one user's upload, generation, review and save cycle,
// dispatching every state change through the application state store.
type Workflow struct {
	userID    string
	session   *Session
	store     *state.Store
	uploads   Uploader
	generator Generator
	videos    VideoAppender
}

// NewWorkflow wires a workflow for the given user and subscription tier.
func NewWorkflow(userID string, isPro bool, store *state.Store, uploads Uploader, generator Generator, videos VideoAppender) *Workflow {
	return &Workflow{
		userID:    userID,
		session:   NewSession(isPro),
		store:     store,
		uploads:   uploads,
		generator: generator,
		videos:    videos,
	}
}

// State exposes the session state for status endpoints.
func (w *Workflow) State() State {
	return w.session.State()
}

// MaxFiles exposes the tier-derived batch limit.
func (w *Workflow) MaxFiles() int {
	return w.session.MaxFiles()
}

// Batch exposes the generated videos held for review.
func (w *Workflow) Batch() []models.Video {
	return w.session.Batch()
}

// SetBatchLiked flips the liked flag of one reviewed video and mirrors the
// change into the transient batch held by the state store.
func (w *Workflow) SetBatchLiked(index int, liked bool) error {
	if err := w.session.SetBatchLiked(index, liked); err != nil {
		return err
	}
	w.store.SetNewlyGenerated(w.session.Batch())
	return nil
}

// SelectFiles admits a batch of files into the session. Validation failures
// surface through the page-status subtree and leave the session idle.
func (w *Workflow) SelectFiles(ctx context.Context, files []File) error {
	logger := logging.FromContext(ctx)

	if err := w.session.SelectFiles(files); err != nil {
		var limitErr *BatchLimitError
		if errors.As(err, &limitErr) {
			logger.Warn("file batch exceeds tier limit", "count", len(files), "max", limitErr.Max)
			w.store.SetPageStatus(state.PageError, limitErr.Error())
		}
		return err
	}

	w.store.SetPageStatus(state.PageIdle, "")
	return nil
}

// Generate uploads every retained file to blob storage, then asks the
// generation service for the resulting video batch. Uploads are issued
// concurrently and joined; generation is not requested until every upload in
// the batch has resolved. On any failure the session reverts to uploaded so
// the user can retry, and a single error message is surfaced.
func (w *Workflow) Generate(ctx context.Context) error {
	ctx, span := logging.StartSpan(ctx, "generation.generate")
	defer span.End()
	logger := logging.FromContext(ctx)

	if err := w.session.BeginGeneration(); err != nil {
		return err
	}

	w.store.SetPageStatus(state.PageLoading, "")

	fileURLs, err := w.uploadAll(ctx)
	if err != nil {
		logger.Error("upload batch failed", "userId", w.userID, "error", err)
		w.session.FailGeneration()
		w.store.SetPageStatus(state.PageError, "Failed to upload files, please try again.")
		return err
	}

	batch, err := w.generator.Generate(ctx, w.userID, fileURLs)
	if err != nil {
		logger.Error("generation call failed", "userId", w.userID, "files", len(fileURLs), "error", err)
		w.session.FailGeneration()
		w.store.SetPageStatus(state.PageError, "Failed to generate videos, please try again.")
		return err
	}

	w.session.CompleteGeneration(batch)
	w.store.SetNewlyGenerated(batch)
	w.store.SetPageStatus(state.PageSuccess, "")

	logger.Info("generated video batch", "userId", w.userID, "videos", len(batch))
	return nil
}

// Save commits the reviewed batch. The repository write is issued first; the
// transient batch is cleared only after that write resolves, so a failed
// persistence never silently drops the batch.
func (w *Workflow) Save(ctx context.Context) error {
	logger := logging.FromContext(ctx)

	if w.session.State() != StateGenerated {
		return &StateError{Op: "save", State: w.session.State()}
	}

	batch := w.session.Batch()
	if err := w.videos.Append(ctx, w.userID, batch); err != nil {
		logger.Error("persist video batch failed", "userId", w.userID, "videos", len(batch), "error", err)
		w.store.SetPageStatus(state.PageError, "Failed to save videos, please try again.")
		return err
	}

	w.store.AppendVideos(batch)
	w.store.ClearNewlyGenerated()
	w.session.Reset()
	w.store.SetPageStatus(state.PageSuccess, "")

	logger.Info("saved video batch", "userId", w.userID, "videos", len(batch))
	return nil
}

// Discard abandons the current cycle without persisting anything.
func (w *Workflow) Discard() {
	w.session.Reset()
	w.store.ClearNewlyGenerated()
	w.store.SetPageStatus(state.PageIdle, "")
}

func (w *Workflow) uploadAll(ctx context.Context) ([]string, error) {
	files := w.session.Files()
	urls := make([]string, len(files))
	errs := make([]error, len(files))

	var wg sync.WaitGroup
	wg.Add(len(files))
	for i, file := range files {
		go func(i int, file File) {
			defer wg.Done()
			key := path.Join("pdfs", fmt.Sprintf("%s_%s", uuid.NewString(), file.Name))
			url, err := w.uploads.Save(ctx, key, bytes.NewReader(file.Data))
			if err != nil {
				errs[i] = fmt.Errorf("upload %s: %w", file.Name, err)
				return
			}
			urls[i] = url
		}(i, file)
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return urls, nil
}
