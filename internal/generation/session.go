package generation

import (
	"fmt"
	"sync"

	"github.com/scrolla/backend/internal/models"
)

// State identifies where an upload-and-generate cycle currently sits.
type State string

const (
	StateIdle       State = "idle"
	StateUploading  State = "uploading"
	StateUploaded   State = "uploaded"
	StateGenerating State = "generating"
	StateGenerated  State = "generated"
)

// Maximum batch sizes by subscription tier.
const (
	FreeTierMaxFiles = 5
	ProTierMaxFiles  = 50
)

// MaxFilesAllowed returns the batch limit for the given subscription tier.
func MaxFilesAllowed(isPro bool) int {
	if isPro {
		return ProTierMaxFiles
	}
	return FreeTierMaxFiles
}

// File is one PDF retained in memory between selection and generation.
type File struct {
	Name string
	Data []byte
}

// BatchLimitError reports a selection exceeding the tier-derived maximum.
type BatchLimitError struct {
	Max int
}

func (e *BatchLimitError) Error() string {
	return fmt.Sprintf("Maximum %d files allowed", e.Max)
}

// StateError reports an operation attempted from the wrong session state.
type StateError struct {
	Op    string
	State State
}

func (e *StateError) Error() string {
	return fmt.Sprintf("generation: cannot %s from state %q", e.Op, e.State)
}

// Session is the finite-state workflow for one upload-and-generate cycle.
// The batch limit is derived from the subscription tier once, at creation.
type Session struct {
	mu       sync.Mutex
	state    State
	maxFiles int
	files    []File
	batch    []models.Video
}

// NewSession starts a cycle in the idle state.
func NewSession(isPro bool) *Session {
	return &Session{
		state:    StateIdle,
		maxFiles: MaxFilesAllowed(isPro),
	}
}

// State returns the current workflow state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// MaxFiles returns the tier-derived batch limit.
func (s *Session) MaxFiles() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxFiles
}

// Files returns a copy of the retained file handles.
func (s *Session) Files() []File {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]File, len(s.files))
	copy(out, s.files)
	return out
}

// Batch returns a copy of the generated videos held for review.
func (s *Session) Batch() []models.Video {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Video, len(s.batch))
	copy(out, s.batch)
	return out
}

// SelectFiles admits a batch of files. A batch larger than the tier limit
// returns the session to idle with a BatchLimitError; the session never
// reaches uploaded with an oversized batch.
func (s *Session) SelectFiles(files []File) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateIdle && s.state != StateUploaded {
		return &StateError{Op: "select files", State: s.state}
	}

	s.state = StateUploading

	if len(files) == 0 {
		s.state = StateIdle
		s.files = nil
		return nil
	}

	if len(files) > s.maxFiles {
		s.state = StateIdle
		s.files = nil
		return &BatchLimitError{Max: s.maxFiles}
	}

	s.files = make([]File, len(files))
	copy(s.files, files)
	s.state = StateUploaded
	return nil
}

// BeginGeneration moves the session into the generating state. Valid only
// from uploaded.
func (s *Session) BeginGeneration() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateUploaded {
		return &StateError{Op: "generate", State: s.state}
	}
	s.state = StateGenerating
	return nil
}

// CompleteGeneration records the returned batch and enters generated.
func (s *Session) CompleteGeneration(batch []models.Video) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.batch = make([]models.Video, len(batch))
	copy(s.batch, batch)
	s.state = StateGenerated
}

// SetBatchLiked updates the liked flag of one video in the review batch so
// the preference survives the save. Valid only while a batch is held.
func (s *Session) SetBatchLiked(index int, liked bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateGenerated {
		return &StateError{Op: "like batch video", State: s.state}
	}
	if index < 0 || index >= len(s.batch) {
		return fmt.Errorf("generation: no batch video at index %d", index)
	}
	s.batch[index].Liked = liked
	return nil
}

// FailGeneration returns the session to uploaded with the files retained,
// so the user can retry without re-selecting.
func (s *Session) FailGeneration() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateGenerating {
		s.state = StateUploaded
	}
}

// Reset discards all held files and videos and returns to idle.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = StateIdle
	s.files = nil
	s.batch = nil
}
