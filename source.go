package mixengine

import "github.com/google/uuid"

// SourceID is the opaque 128-bit identity every source carries (spec.md
// §3), backed by github.com/google/uuid the way the teacher's
// server/api.go mints identifiers for uploaded recordings.
type SourceID = uuid.UUID

// NewSourceID mints a fresh random SourceID.
func NewSourceID() SourceID { return uuid.New() }

// SourceState is a source's lifecycle state.
type SourceState int

const (
	Idle SourceState = iota
	Playing
	Paused
	Stopped
	EndOfStream
	SourceErrorState
)

func (s SourceState) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Playing:
		return "Playing"
	case Paused:
		return "Paused"
	case Stopped:
		return "Stopped"
	case EndOfStream:
		return "EndOfStream"
	case SourceErrorState:
		return "Error"
	default:
		return "Unknown"
	}
}

// ReadResult is the outcome of a clock-bound read_at call.
type ReadResult struct {
	FramesRead int
	Completed  bool
	Err        error
}

// Source is the capability set every audio source implements (spec.md §9:
// a single interface, not a class hierarchy). Volume is raw linear gain;
// values above 1.0 are legal for input monitoring.
type Source interface {
	ID() SourceID
	State() SourceState
	Volume() float64
	SetVolume(v float64)
	Play() error
	Pause() error
	Stop() error
	// Read copies up to frames frames (interleaved, Channels()-wide) into
	// buf and returns the number of frames actually copied.
	Read(buf []float32, frames int) (int, error)
	Channels() int
	// Duration returns the source's total duration in seconds, or
	// math.Inf(1) for a source with no fixed end (e.g. live capture).
	Duration() float64
}

// ClockBoundSource is a Source synchronized to a MasterClock.
type ClockBoundSource interface {
	Source
	// AttachToClock binds the source to a master clock and a start offset
	// on that clock's timeline, in seconds.
	AttachToClock(clock *MasterClock, startOffsetSeconds float64)
	// ReadAt copies frames frames starting at the source-timeline position
	// corresponding to timestamp (plus the attached start offset) into buf.
	ReadAt(timestamp float64, buf []float32, frames int) ReadResult
}

// KindName identifies a source's concrete implementation for diagnostics
// (TrackDropoutEvent.SourceKindName).
type KindName interface {
	KindName() string
}
