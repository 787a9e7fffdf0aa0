package device

import "sync"

// nullAdapter is an in-process Adapter with no hardware I/O. Pump drives it
// by calling Pump on demand rather than waiting for a realtime OS thread —
// this is what lets Mixer's offline mode render deterministically and what
// lets tests exercise the pump/mixer without real hardware, the same role
// client/audio_test.go's mockPAStream plays for the teacher's unit tests.
type nullAdapter struct {
	mu      sync.Mutex
	cfg     Config
	cb      Callback
	running bool
}

func newNullAdapter() *nullAdapter {
	return &nullAdapter{}
}

func (a *nullAdapter) Open(cfg Config, cb Callback) error {
	a.cfg, a.cb = cfg, cb
	return nil
}

func (a *nullAdapter) Start() error {
	a.mu.Lock()
	a.running = true
	a.mu.Unlock()
	return nil
}

func (a *nullAdapter) Stop() error {
	a.mu.Lock()
	a.running = false
	a.mu.Unlock()
	return nil
}

func (a *nullAdapter) Close() error { return nil }

// Tickable is implemented by adapters (currently only the Null backend)
// that must be driven explicitly rather than by a realtime OS thread.
type Tickable interface {
	Pump()
}

var _ Tickable = (*nullAdapter)(nil)

// Pump synchronously invokes the stored callback once, as if a hardware
// buffer boundary had just occurred. Used by offline rendering and tests.
func (a *nullAdapter) Pump() {
	a.mu.Lock()
	running := a.running
	a.mu.Unlock()
	if !running || a.cb == nil {
		return
	}
	n := a.cfg.FramesPerBuffer * a.cfg.Channels
	var in []float32
	if a.cfg.EnableInput {
		in = make([]float32, n)
	}
	out := make([]float32, n)
	a.cb(in, out, a.cfg.FramesPerBuffer)
}

type nullEnumerator struct{}

func (nullEnumerator) EnumerateOutputs() ([]Descriptor, error) {
	return []Descriptor{{ID: 0, Name: "null-output", MaxOutputChannels: 32, IsDefaultOutput: true}}, nil
}

func (nullEnumerator) EnumerateInputs() ([]Descriptor, error) {
	return []Descriptor{{ID: 0, Name: "null-input", MaxInputChannels: 32, IsDefaultInput: true}}, nil
}
