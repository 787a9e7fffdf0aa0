// Package device abstracts the host audio backend (spec.md §4.2): opening a
// duplex or half-duplex stream at a negotiated configuration and invoking a
// supplied callback once per hardware buffer.
package device

import "mixengine/internal/mxerr"

// Backend selects which host API implements the Adapter.
type Backend int

const (
	// PortAudio covers WASAPI/CoreAudio/ALSA through the portaudio cgo
	// bindings. This is the default backend.
	PortAudio Backend = iota
	// MiniAudio covers the same host APIs plus AAudio through the malgo
	// (miniaudio) bindings, useful where the portaudio native library is
	// unavailable.
	MiniAudio
	// Null is an in-process backend with no hardware I/O, used for offline
	// rendering and tests. It invokes the callback on demand from Pump
	// rather than from a realtime OS thread.
	Null
)

// Descriptor describes one enumerated device.
type Descriptor struct {
	ID                int
	Name              string
	MaxInputChannels  int
	MaxOutputChannels int
	IsDefaultInput    bool
	IsDefaultOutput   bool
}

// Config negotiates the stream the Adapter will open. It mirrors
// spec.md §3's AudioConfig subset relevant to device I/O.
type Config struct {
	SampleRate             int
	Channels               int
	FramesPerBuffer        int
	EnableInput            bool
	EnableOutput           bool
	OutputDeviceID         int // -1 selects the host default
	InputDeviceID          int // -1 selects the host default
	OutputChannelSelectors []int
	InputChannelSelectors  []int
}

// Callback is invoked once per hardware buffer. input holds
// frameCount*Channels interleaved samples captured this period (nil/empty
// when input is disabled); output must be filled with frameCount*Channels
// interleaved samples to play. The callback runs on a realtime-priority
// thread owned by the host backend and MUST NOT block, allocate, or lock.
type Callback func(input []float32, output []float32, frameCount int)

// Adapter is a single opened audio stream.
type Adapter interface {
	// Open negotiates and opens the stream. cb is invoked from the
	// backend's realtime thread once per hardware buffer after Start.
	Open(cfg Config, cb Callback) error
	// Start begins invoking cb. Idempotent. The PortAudio backend returns
	// once cb has fired at least once or after a 100ms timeout; the malgo
	// and null backends return without waiting for a callback.
	Start() error
	// Stop halts invocation of cb. Idempotent.
	Stop() error
	// Close releases the stream. Safe to call after Stop; not safe to
	// call concurrently with Start/Stop.
	Close() error
}

// Enumerator lists devices available through a backend, independent of any
// opened Adapter.
type Enumerator interface {
	EnumerateOutputs() ([]Descriptor, error)
	EnumerateInputs() ([]Descriptor, error)
}

// Open constructs and opens an Adapter for the given backend.
func Open(backend Backend, cfg Config, cb Callback) (Adapter, error) {
	var a Adapter
	switch backend {
	case PortAudio:
		a = newPortAudioAdapter()
	case MiniAudio:
		a = newMiniAudioAdapter()
	case Null:
		a = newNullAdapter()
	default:
		return nil, mxerr.New(mxerr.ConfigInvalid, "unknown device backend")
	}
	if err := a.Open(cfg, cb); err != nil {
		return nil, err
	}
	return a, nil
}

// NewEnumerator returns an Enumerator for the given backend.
func NewEnumerator(backend Backend) (Enumerator, error) {
	switch backend {
	case PortAudio:
		return portAudioEnumerator{}, nil
	case MiniAudio:
		return miniAudioEnumerator{}, nil
	case Null:
		return nullEnumerator{}, nil
	default:
		return nil, mxerr.New(mxerr.ConfigInvalid, "unknown device backend")
	}
}
