package mixengine

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	"mixengine/internal/dsp"
)

// MixerState is the mixer's lifecycle state machine (spec.md §4.8):
// Created -> Running <-> Paused -> Stopped -> Disposed.
type MixerState int

const (
	MixerCreated MixerState = iota
	MixerRunning
	MixerPausedState
	MixerStoppedState
	MixerDisposedState
)

// DefaultMaxAudioSources bounds source count to cap per-cycle CPU cost
// (spec.md §4.8's hard limit).
const DefaultMaxAudioSources = 22

// stopJoinTimeout bounds how long Stop waits for the mix thread to exit
// before giving up and logging (spec.md §5's cancellation policy).
const stopJoinTimeout = 2 * time.Second

type sourceEntry struct {
	source Source
}

// Mixer runs the master mix loop on its own goroutine (spec.md §4.8): one
// dedicated thread owns the mix buffer, the master clock's advance calls,
// and the pump's send side. Every other method here is safe to call from
// any goroutine.
type Mixer struct {
	clock *MasterClock
	pump  *Pump

	channels        int
	framesPerBuffer int
	maxSources      int

	Events Events

	mu          sync.Mutex
	cond        *sync.Cond
	sources     map[SourceID]sourceEntry
	order       []SourceID // insertion order, pinned for bit-reproducible offline summation
	dirty       atomic.Bool
	snapshot    atomic.Pointer[[]Source]
	state       MixerState
	masterChain *EffectChain
	recorder    *Recorder

	masterVolume atomic.Uint64 // float64 bits

	leftPeak  atomic.Uint32 // float32 bits
	rightPeak atomic.Uint32

	totalMixedFrames atomic.Uint64
	lastUnderruns    uint64

	mixBuf     []float32
	srcScratch []float32

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewMixer creates a Mixer bound to clock and pump, with a mix cycle of
// bufferSizeFrames frames (spec.md §6 default 512).
func NewMixer(clock *MasterClock, pump *Pump, bufferSizeFrames int) *Mixer {
	if bufferSizeFrames <= 0 {
		bufferSizeFrames = 512
	}
	channels := clock.Channels()
	m := &Mixer{
		clock:           clock,
		pump:            pump,
		channels:        channels,
		framesPerBuffer: bufferSizeFrames,
		maxSources:      DefaultMaxAudioSources,
		sources:         make(map[SourceID]sourceEntry),
		masterChain:     NewEffectChain(),
		recorder:        NewRecorder(),
		mixBuf:          make([]float32, bufferSizeFrames*channels),
		srcScratch:      make([]float32, bufferSizeFrames*channels),
	}
	m.cond = sync.NewCond(&m.mu)
	m.masterChain.SetFormat(clock.SampleRate(), channels)
	m.setMasterVolume(1.0)
	return m
}

// SetMaxAudioSources overrides DefaultMaxAudioSources; call before Start.
func (m *Mixer) SetMaxAudioSources(n int) { m.maxSources = n }

// MasterClock returns the mixer's clock accessor.
func (m *Mixer) MasterClock() *MasterClock { return m.clock }

// MasterEffects returns the master effect chain for add/remove/list.
func (m *Mixer) MasterEffects() *EffectChain { return m.masterChain }

// AddSource registers src for mixing starting next cycle. Returns
// LimitExceeded once source_count == MaxAudioSources.
func (m *Mixer) AddSource(src Source) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sources) >= m.maxSources {
		return newErr(LimitExceeded, "source count at MaxAudioSources limit")
	}
	m.sources[src.ID()] = sourceEntry{source: src}
	m.order = append(m.order, src.ID())
	m.dirty.Store(true)
	return nil
}

// RemoveSource drops the source with the given id, if present.
func (m *Mixer) RemoveSource(id SourceID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sources[id]; !ok {
		return
	}
	delete(m.sources, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	m.dirty.Store(true)
}

// ClearSources removes every registered source.
func (m *Mixer) ClearSources() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sources = make(map[SourceID]sourceEntry)
	m.order = nil
	m.dirty.Store(true)
}

// SourceCount returns the number of currently registered sources.
func (m *Mixer) SourceCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sources)
}

func (m *Mixer) rebuildSnapshot() {
	m.mu.Lock()
	list := make([]Source, 0, len(m.order))
	for _, id := range m.order {
		if e, ok := m.sources[id]; ok {
			list = append(list, e.source)
		}
	}
	m.mu.Unlock()
	m.snapshot.Store(&list)
	m.dirty.Store(false)
}

func (m *Mixer) setMasterVolume(v float64) {
	m.masterVolume.Store(math.Float64bits(v))
}

// MasterVolume returns the current master volume, in [0,1].
func (m *Mixer) MasterVolume() float64 {
	return math.Float64frombits(m.masterVolume.Load())
}

// SetMasterVolume sets master volume, clamped to [0,1] (spec.md §6).
func (m *Mixer) SetMasterVolume(v float64) {
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	m.setMasterVolume(v)
}

// LeftPeak/RightPeak report the most recent cycle's per-channel peak
// absolute sample value.
func (m *Mixer) LeftPeak() float32  { return math.Float32frombits(m.leftPeak.Load()) }
func (m *Mixer) RightPeak() float32 { return math.Float32frombits(m.rightPeak.Load()) }

// TotalMixedFrames returns the cumulative number of frames processed.
func (m *Mixer) TotalMixedFrames() uint64 { return m.totalMixedFrames.Load() }

// TotalUnderruns returns the pump's cumulative device-callback underrun count.
func (m *Mixer) TotalUnderruns() uint64 { return m.pump.Stats().Underruns }

// StartRecording begins writing the post-master mix to path.
func (m *Mixer) StartRecording(path string) error {
	return m.recorder.Start(path, m.clock.SampleRate(), m.channels)
}

// StopRecording finalizes the active recording, if any.
func (m *Mixer) StopRecording() error { return m.recorder.Stop() }

// State returns the mixer's current lifecycle state.
func (m *Mixer) State() MixerState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Start begins the mix loop on a dedicated goroutine. No-op if already
// running.
func (m *Mixer) Start() error {
	m.mu.Lock()
	if m.state == MixerRunning {
		m.mu.Unlock()
		return nil
	}
	if m.state == MixerDisposedState {
		m.mu.Unlock()
		return newErr(Disposed, "mixer disposed")
	}
	m.state = MixerRunning
	m.stopCh = make(chan struct{})
	m.doneCh = make(chan struct{})
	m.mu.Unlock()

	go m.runLoop(m.stopCh, m.doneCh)
	return nil
}

// Pause keeps the mix thread alive but waiting.
func (m *Mixer) Pause() {
	m.mu.Lock()
	if m.state == MixerRunning {
		m.state = MixerPausedState
	}
	m.mu.Unlock()
}

// Resume transitions Paused -> Running and wakes the mix thread.
func (m *Mixer) Resume() {
	m.mu.Lock()
	if m.state == MixerPausedState {
		m.state = MixerRunning
	}
	m.cond.Broadcast()
	m.mu.Unlock()
}

// Stop requests mix-thread termination and joins it within
// stopJoinTimeout, stopping all registered sources best-effort.
func (m *Mixer) Stop() {
	m.mu.Lock()
	if m.state != MixerRunning && m.state != MixerPausedState {
		m.mu.Unlock()
		return
	}
	m.state = MixerStoppedState
	stopCh, doneCh := m.stopCh, m.doneCh
	m.mu.Unlock()
	m.cond.Broadcast()

	if stopCh != nil {
		close(stopCh)
	}
	if doneCh != nil {
		select {
		case <-doneCh:
		case <-time.After(stopJoinTimeout):
		}
	}

	m.mu.Lock()
	for _, e := range m.sources {
		e.source.Stop()
	}
	m.mu.Unlock()
}

// Dispose stops the mixer and transitions to Disposed. Start then returns a
// Disposed error; the other methods do not check for the Disposed state.
func (m *Mixer) Dispose() {
	m.Stop()
	m.mu.Lock()
	m.state = MixerDisposedState
	m.mu.Unlock()
}

func (m *Mixer) runLoop(stopCh, doneCh chan struct{}) {
	defer close(doneCh)
	for {
		m.mu.Lock()
		for m.state == MixerPausedState {
			m.cond.Wait()
		}
		state := m.state
		m.mu.Unlock()
		if state == MixerStoppedState || state == MixerDisposedState {
			return
		}

		select {
		case <-stopCh:
			return
		default:
		}

		m.runCycle()
	}
}

func (m *Mixer) runCycle() {
	if m.dirty.Load() {
		m.rebuildSnapshot()
	}
	snapPtr := m.snapshot.Load()
	var snapshot []Source
	if snapPtr != nil {
		snapshot = *snapPtr
	}

	for i := range m.mixBuf {
		m.mixBuf[i] = 0
	}

	timestamp := m.clock.CurrentTimestamp()
	samplePos := m.clock.CurrentSamplePosition()
	anyProduced := false

	for _, src := range snapshot {
		if src.State() != Playing {
			continue
		}
		for i := range m.srcScratch {
			m.srcScratch[i] = 0
		}

		var framesReal int
		var completed bool
		if cb, ok := src.(ClockBoundSource); ok {
			res := cb.ReadAt(timestamp, m.srcScratch, m.framesPerBuffer)
			if res.Err != nil {
				m.Events.emitSourceError(SourceErrorEvent{SourceID: src.ID(), Err: res.Err})
				continue
			}
			framesReal = res.FramesRead
			completed = res.Completed
			// A source that reaches EndOfStream this same call legitimately
			// pads its tail with silence (spec.md:113): that silence
			// substitution is not an underrun and must not be reported as
			// one, even though Completed is false for that call.
			if !res.Completed && src.State() != EndOfStream {
				kind := "SourceWithEffects"
				if kn, ok := src.(KindName); ok {
					kind = kn.KindName()
				}
				m.Events.emitTrackDropout(TrackDropoutEvent{
					SourceID:             src.ID(),
					SourceKindName:       kind,
					MasterTimestamp:      timestamp,
					MasterSamplePosition: samplePos,
					MissedFrames:         m.framesPerBuffer,
					Reason:               "underrun",
				})
			}
		} else {
			n, err := src.Read(m.srcScratch, m.framesPerBuffer)
			if err != nil {
				m.Events.emitSourceError(SourceErrorEvent{SourceID: src.ID(), Err: err})
				continue
			}
			framesReal = n
		}

		if vol := src.Volume(); math.Abs(vol-1.0) >= 1e-3 {
			dsp.ApplyGain(m.srcScratch, float32(vol))
		}
		dsp.MixInto(m.mixBuf, m.srcScratch)
		if framesReal > 0 || completed {
			anyProduced = true
		}
	}

	if anyProduced {
		if mv := m.MasterVolume(); math.Abs(mv-1.0) >= 1e-3 {
			dsp.ApplyGain(m.mixBuf, float32(mv))
		}
		m.masterChain.Process(m.mixBuf, m.channels, func(id string, err error) {
			m.Events.emitEffectError(EffectErrorEvent{EffectID: id, Err: err})
		})

		left, right := dsp.PerChannelPeak(m.mixBuf, m.channels)
		m.leftPeak.Store(math.Float32bits(left))
		m.rightPeak.Store(math.Float32bits(right))

		if m.recorder.Active() {
			if err := m.recorder.WriteMixBuffer(m.mixBuf); err != nil {
				m.Events.emitRecordingWarning(RecordingWarningEvent{Err: err})
			}
		}
	}

	written, dropped := m.pump.Send(m.mixBuf, defaultSendTimeout)
	if dropped > 0 {
		m.Events.emitOverflow(OverflowEvent{RequestedFrames: len(m.mixBuf), DroppedFrames: dropped})
	}
	_ = written

	if stats := m.pump.Stats(); stats.Underruns > m.lastUnderruns {
		m.Events.emitUnderrun(UnderrunEvent{RequestedFrames: m.framesPerBuffer, SuppliedFrames: 0})
		m.lastUnderruns = stats.Underruns
	}

	m.clock.Advance(m.framesPerBuffer)
	m.totalMixedFrames.Add(uint64(m.framesPerBuffer))
}
