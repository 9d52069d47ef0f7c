package feed

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/scrolla/backend/internal/models"
)

// Orientation selects which gesture axis advances the feed.
type Orientation string

const (
	OrientationVertical   Orientation = "vertical"
	OrientationHorizontal Orientation = "horizontal"
)

// Glyph identifies the transient play/pause overlay shown after a playback toggle.
type Glyph string

const (
	GlyphNone  Glyph = ""
	GlyphPlay  Glyph = "play"
	GlyphPause Glyph = "pause"
)

var (
	// ErrNoVideos indicates the navigator was opened without any videos.
	ErrNoVideos = errors.New("feed: no videos to display")
	// ErrReadOnly indicates a mutating operation on a navigator opened with AllowModify=false.
	ErrReadOnly = errors.New("feed: navigator is read-only")
)

// LikeToggler persists like-status changes for the video at the given index.
type LikeToggler interface {
	SetLiked(ctx context.Context, index int, liked bool) error
}

// Config controls gesture interpretation for a Navigator.
type Config struct {
	Orientation   Orientation
	AllowModify   bool
	WheelCooldown time.Duration
	WheelMinDelta float64
	DragThreshold float64
	GlyphDuration time.Duration

	// NowFunc allows tests to override the time source.
	NowFunc func() time.Time
}

const (
	defaultWheelCooldown = 800 * time.Millisecond
	defaultWheelMinDelta = 20
	defaultDragThreshold = 100
	defaultGlyphDuration = 450 * time.Millisecond
)

// Navigator renders one video at a time from an ordered list and moves the
// current index strictly one step at a time. The video order must not change
// while the navigator is open; opening a filtered list means a fresh navigator.
type Navigator struct {
	mu sync.Mutex

	videos []models.Video
	index  int

	playing bool
	muted   bool

	cfg   Config
	liker LikeToggler

	lastWheel    time.Time
	dragging     bool
	dragTravel   float64
	dragConsumed bool

	glyph      Glyph
	glyphUntil time.Time
}

// New opens a navigator over the provided videos at the start index.
// Out-of-range start indexes are clamped rather than rejected.
func New(videos []models.Video, start int, liker LikeToggler, cfg Config) (*Navigator, error) {
	if len(videos) == 0 {
		return nil, ErrNoVideos
	}
	if cfg.Orientation == "" {
		cfg.Orientation = OrientationVertical
	}
	if cfg.WheelCooldown <= 0 {
		cfg.WheelCooldown = defaultWheelCooldown
	}
	if cfg.WheelMinDelta <= 0 {
		cfg.WheelMinDelta = defaultWheelMinDelta
	}
	if cfg.DragThreshold <= 0 {
		cfg.DragThreshold = defaultDragThreshold
	}
	if cfg.GlyphDuration <= 0 {
		cfg.GlyphDuration = defaultGlyphDuration
	}

	if start < 0 {
		start = 0
	}
	if start > len(videos)-1 {
		start = len(videos) - 1
	}

	list := make([]models.Video, len(videos))
	copy(list, videos)

	return &Navigator{
		videos:  list,
		index:   start,
		playing: true,
		muted:   true,
		cfg:     cfg,
		liker:   liker,
	}, nil
}

// Index returns the current position.
func (n *Navigator) Index() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.index
}

// Len returns the number of videos in the open sequence.
func (n *Navigator) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.videos)
}

// Current returns the displayed video.
func (n *Navigator) Current() models.Video {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.videos[n.index]
}

// IsPlaying reports the playback flag.
func (n *Navigator) IsPlaying() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.playing
}

// IsMuted reports the mute flag for the displayed video.
func (n *Navigator) IsMuted() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.muted
}

// Advance moves one step in the given direction (+1 or -1), silently clamping
// at both ends of the sequence. It returns the resulting index.
func (n *Navigator) Advance(direction int) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.advanceLocked(direction)
}

func (n *Navigator) advanceLocked(direction int) int {
	next := n.index
	switch {
	case direction > 0 && n.index < len(n.videos)-1:
		next = n.index + 1
	case direction < 0 && n.index > 0:
		next = n.index - 1
	}

	if next != n.index {
		n.index = next
		// A new media element starts playing in its default muted state.
		n.playing = true
		n.muted = true
		n.glyph = GlyphNone
	}

	return n.index
}

// HandleWheel interprets a wheel event in vertical mode. Events within the
// cooldown window of the previous one are dropped so a single physical scroll
// advances at most one step. It returns the resulting index.
func (n *Navigator) HandleWheel(delta float64) int {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.cfg.Orientation != OrientationVertical {
		return n.index
	}
	if delta > -n.cfg.WheelMinDelta && delta < n.cfg.WheelMinDelta {
		return n.index
	}

	now := n.now()
	if !n.lastWheel.IsZero() && now.Sub(n.lastWheel) < n.cfg.WheelCooldown {
		return n.index
	}
	n.lastWheel = now

	if delta > 0 {
		return n.advanceLocked(+1)
	}
	return n.advanceLocked(-1)
}

// StartDrag begins a drag gesture on the interactive surface.
func (n *Navigator) StartDrag() {
	n.mu.Lock()
	n.dragging = true
	n.dragTravel = 0
	n.dragConsumed = false
	n.mu.Unlock()
}

// Drag accumulates pointer travel. Once the travel along the configured axis
// exceeds the threshold the index advances once; further movement within the
// same gesture is ignored until the drag ends. It returns the current index.
func (n *Navigator) Drag(dx, dy float64) int {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.dragging || n.dragConsumed {
		return n.index
	}

	if n.cfg.Orientation == OrientationHorizontal {
		n.dragTravel += dx
	} else {
		n.dragTravel += dy
	}

	switch {
	case n.dragTravel <= -n.cfg.DragThreshold:
		// Dragging the content left/up reveals the next video.
		n.dragConsumed = true
		return n.advanceLocked(+1)
	case n.dragTravel >= n.cfg.DragThreshold:
		n.dragConsumed = true
		return n.advanceLocked(-1)
	}

	return n.index
}

// EndDrag finishes the gesture on pointer release.
func (n *Navigator) EndDrag() {
	n.resetDrag()
}

// CancelDrag aborts the gesture when the pointer leaves the surface.
func (n *Navigator) CancelDrag() {
	n.resetDrag()
}

func (n *Navigator) resetDrag() {
	n.mu.Lock()
	n.dragging = false
	n.dragTravel = 0
	n.dragConsumed = false
	n.mu.Unlock()
}

// TogglePlayback flips the playing flag and arms the transient overlay glyph.
func (n *Navigator) TogglePlayback() bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.playing = !n.playing
	if n.playing {
		n.glyph = GlyphPlay
	} else {
		n.glyph = GlyphPause
	}
	n.glyphUntil = n.now().Add(n.cfg.GlyphDuration)

	return n.playing
}

// OverlayGlyph reports the play/pause glyph while its display window is open.
func (n *Navigator) OverlayGlyph() Glyph {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.glyph == GlyphNone || n.now().After(n.glyphUntil) {
		return GlyphNone
	}
	return n.glyph
}

// ToggleMute flips the mute flag for the displayed video.
func (n *Navigator) ToggleMute() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.muted = !n.muted
	return n.muted
}

// ToggleLike inverts the liked flag of the displayed video and dispatches the
// change for persistence. The local flag only flips once persistence succeeds.
func (n *Navigator) ToggleLike(ctx context.Context) (bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.cfg.AllowModify {
		return n.videos[n.index].Liked, ErrReadOnly
	}

	liked := !n.videos[n.index].Liked
	if n.liker != nil {
		if err := n.liker.SetLiked(ctx, n.index, liked); err != nil {
			return n.videos[n.index].Liked, err
		}
	}

	n.videos[n.index].Liked = liked
	return liked, nil
}

func (n *Navigator) now() time.Time {
	if n.cfg.NowFunc != nil {
		return n.cfg.NowFunc()
	}
	return time.Now()
}
