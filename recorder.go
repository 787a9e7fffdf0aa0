package mixengine

import (
	"sync"

	"mixengine/internal/wav"
)

// Recorder wraps the mixdown writer with the engine-level start/stop state
// the mixer's public API exposes (spec.md §6: start_recording/stop_recording).
// A write failure mid-recording is non-fatal to playback: it surfaces as a
// RecordingWarningEvent and disarms recording rather than stopping the mix.
type Recorder struct {
	mu     sync.Mutex
	w      *wav.Writer
	active bool
}

// NewRecorder returns an idle recorder.
func NewRecorder() *Recorder { return &Recorder{} }

// Start begins writing a new mixdown file at path, closing any
// already-active recording first.
func (r *Recorder) Start(path string, sampleRate, channels int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active {
		r.w.Close()
	}
	w, err := wav.Create(path, sampleRate, channels)
	if err != nil {
		return wrapErr(RecordingIO, "start recording", err)
	}
	r.w = w
	r.active = true
	return nil
}

// Stop finalizes the current recording, if any.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active {
		return nil
	}
	r.active = false
	w := r.w
	r.w = nil
	return w.Close()
}

// Active reports whether a recording is in progress.
func (r *Recorder) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// WriteMixBuffer appends the post-mix buffer to the active recording, if
// any. On failure it disarms recording and returns the error so the caller
// can emit a RecordingWarningEvent without treating it as fatal.
func (r *Recorder) WriteMixBuffer(buf []float32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active {
		return nil
	}
	if err := r.w.WriteSamples(buf); err != nil {
		r.active = false
		r.w.Close()
		r.w = nil
		return wrapErr(RecordingIO, "write mixdown samples", err)
	}
	return nil
}
