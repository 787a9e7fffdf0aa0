package mixengine

import (
	"log"
	"sync"
)

// EngineState mirrors the engine-level lifecycle spec.md §6 names
// separately from the mixer's own state machine: initialize/start/stop are
// engine concerns, pause/resume are mixer concerns.
type EngineState int

const (
	EngineCreated EngineState = iota
	EngineInitialized
	EngineStarted
	EngineStoppedState
	EngineShutdown
)

// Engine owns device setup (the Pump) and delegates mixing to a Mixer
// (spec.md §6: "initialize(config), start(), stop(), shutdown()").
type Engine struct {
	mu     sync.Mutex
	state  EngineState
	config AudioConfig
	pump   *Pump
	clock  *MasterClock
	mixer  *Mixer
}

// NewEngine returns an uninitialized engine.
func NewEngine() *Engine {
	return &Engine{state: EngineCreated}
}

// Initialize validates config, opens the device adapter via a Pump, and
// constructs the mixer and master clock. Must be called before Start.
func (e *Engine) Initialize(config AudioConfig, bufferSizeFrames int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != EngineCreated && e.state != EngineShutdown {
		return newErr(ConfigInvalid, "engine already initialized")
	}
	if err := config.Validate(); err != nil {
		return err
	}

	pump, err := newPump(config)
	if err != nil {
		return err
	}

	clock := NewMasterClock(config.SampleRate, config.Channels)
	mixer := NewMixer(clock, pump, bufferSizeFrames)

	e.config = config
	e.pump = pump
	e.clock = clock
	e.mixer = mixer
	e.state = EngineInitialized
	return nil
}

// Mixer returns the engine's mixer, valid once Initialize has succeeded.
func (e *Engine) Mixer() *Mixer {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mixer
}

// MasterClock returns the engine's master clock.
func (e *Engine) MasterClock() *MasterClock {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clock
}

// Start starts the device adapter and the mixer's mix loop.
func (e *Engine) Start() error {
	e.mu.Lock()
	if e.state != EngineInitialized && e.state != EngineStoppedState {
		e.mu.Unlock()
		return newErr(ConfigInvalid, "engine not initialized")
	}
	pump, mixer := e.pump, e.mixer
	e.mu.Unlock()

	if err := pump.Start(); err != nil {
		return wrapErr(DeviceUnavailable, "start device adapter", err)
	}
	if err := mixer.Start(); err != nil {
		return err
	}

	e.mu.Lock()
	e.state = EngineStarted
	e.mu.Unlock()
	return nil
}

// Stop stops the mixer's mix loop and the device adapter.
func (e *Engine) Stop() error {
	e.mu.Lock()
	if e.state != EngineStarted {
		e.mu.Unlock()
		return nil
	}
	pump, mixer := e.pump, e.mixer
	e.mu.Unlock()

	mixer.Stop()
	if err := pump.Stop(); err != nil {
		log.Printf("[engine] stop device adapter: %v", err)
	}

	e.mu.Lock()
	e.state = EngineStoppedState
	e.mu.Unlock()
	return nil
}

// Shutdown disposes the mixer and closes the pump. Initialize may be called
// again afterwards to open a new pump and mixer.
func (e *Engine) Shutdown() error {
	e.mu.Lock()
	if e.state == EngineShutdown {
		e.mu.Unlock()
		return nil
	}
	pump, mixer := e.pump, e.mixer
	e.mu.Unlock()

	if mixer != nil {
		mixer.Dispose()
	}
	var err error
	if pump != nil {
		if cerr := pump.Close(); cerr != nil {
			log.Printf("[engine] close pump on shutdown: %v", cerr)
			err = wrapErr(DeviceFatal, "close pump", cerr)
		}
	}

	e.mu.Lock()
	e.state = EngineShutdown
	e.mu.Unlock()
	return err
}
