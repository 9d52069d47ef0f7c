package state

import (
	"sync"

	"github.com/scrolla/backend/internal/models"
)

// PageStatus enumerates the page-level status values surfaced to the client.
type PageStatus string

const (
	PageIdle    PageStatus = "idle"
	PageLoading PageStatus = "loading"
	PageError   PageStatus = "error"
	PageSuccess PageStatus = "success"
)

// Snapshot is an immutable copy of the state tree handed to readers and subscribers.
type Snapshot struct {
	PageStatus        PageStatus
	StatusMessage     string
	NewlyGenerated    []models.Video
	UserID            string
	UserName          string
	UserEmail         string
	IsProSubscription bool
	Videos            []models.Video
}

// Subscriber receives a snapshot after every completed command.
type Subscriber func(Snapshot)

// Store holds the session-scoped application state for one signed-in user.
// All mutation goes through the named command methods below; each command runs
// to completion under the store mutex and then notifies subscribers.
type Store struct {
	mu sync.Mutex

	pageStatus     PageStatus
	statusMessage  string
	newlyGenerated []models.Video

	userID            string
	userName          string
	userEmail         string
	isProSubscription bool
	videos            []models.Video

	nextSub     int
	subscribers map[int]Subscriber
}

// NewStore returns a store in its initial state.
func NewStore() *Store {
	return &Store{
		pageStatus:  PageIdle,
		subscribers: make(map[int]Subscriber),
	}
}

// Subscribe registers a subscriber and returns a function that removes it.
func (s *Store) Subscribe(fn Subscriber) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

// Snapshot returns a copy of the current state tree.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// SetUserID records the signed-in user identifier.
func (s *Store) SetUserID(userID string) {
	s.dispatch(func() {
		s.userID = userID
	})
}

// SetUserData loads the fetched profile document into the user subtree.
func (s *Store) SetUserData(name, email string, isPro bool, videos []models.Video) {
	s.dispatch(func() {
		s.userName = name
		s.userEmail = email
		s.isProSubscription = isPro
		s.videos = copyVideos(videos)
	})
}

// SetVideos replaces the permanent video list.
func (s *Store) SetVideos(videos []models.Video) {
	s.dispatch(func() {
		s.videos = copyVideos(videos)
	})
}

// AppendVideos adds a batch to the end of the permanent video list.
func (s *Store) AppendVideos(videos []models.Video) {
	s.dispatch(func() {
		s.videos = append(s.videos, copyVideos(videos)...)
	})
}

// SetLikeStatus updates the liked flag of exactly one video, identified by index.
// Out-of-range indexes are ignored.
func (s *Store) SetLikeStatus(index int, liked bool) {
	s.dispatch(func() {
		if index < 0 || index >= len(s.videos) {
			return
		}
		s.videos[index].Liked = liked
	})
}

// SetPageStatus records the page-level status and its user-facing message.
func (s *Store) SetPageStatus(status PageStatus, message string) {
	s.dispatch(func() {
		s.pageStatus = status
		s.statusMessage = message
	})
}

// SetNewlyGenerated stores the transient batch returned by the generation service.
func (s *Store) SetNewlyGenerated(videos []models.Video) {
	s.dispatch(func() {
		s.newlyGenerated = copyVideos(videos)
	})
}

// ClearNewlyGenerated empties the transient batch.
func (s *Store) ClearNewlyGenerated() {
	s.dispatch(func() {
		s.newlyGenerated = nil
	})
}

// Reset clears the whole tree, used when the user signs out.
func (s *Store) Reset() {
	s.dispatch(func() {
		s.pageStatus = PageIdle
		s.statusMessage = ""
		s.newlyGenerated = nil
		s.userID = ""
		s.userName = ""
		s.userEmail = ""
		s.isProSubscription = false
		s.videos = nil
	})
}

func (s *Store) dispatch(mutate func()) {
	s.mu.Lock()
	mutate()
	snapshot := s.snapshotLocked()
	subs := make([]Subscriber, 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snapshot)
	}
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		PageStatus:        s.pageStatus,
		StatusMessage:     s.statusMessage,
		NewlyGenerated:    copyVideos(s.newlyGenerated),
		UserID:            s.userID,
		UserName:          s.userName,
		UserEmail:         s.userEmail,
		IsProSubscription: s.isProSubscription,
		Videos:            copyVideos(s.videos),
	}
}

func copyVideos(videos []models.Video) []models.Video {
	if len(videos) == 0 {
		return nil
	}
	out := make([]models.Video, len(videos))
	copy(out, videos)
	return out
}
