package mixengine

import (
	"math"
	"sync"
)

// SineSource is a clock-bound test-tone source: a fixed-frequency sine wave
// written identically into every channel, used by the seed test scenarios
// and the CLI demo's self-test mode (spec.md §8 scenario 1).
type SineSource struct {
	id              SourceID
	frequencyHz     float64
	amplitude       float64
	channels        int
	sampleRate      int
	durationSeconds float64

	mu          sync.Mutex
	state       SourceState
	volume      float64
	clock       *MasterClock
	startOffset float64
	freeCursor  uint64 // sample position used when not clock-bound
}

// NewSineSource returns an Idle SineSource at unity volume.
func NewSineSource(sampleRate, channels int, frequencyHz, amplitude, durationSeconds float64) *SineSource {
	return &SineSource{
		id:              NewSourceID(),
		frequencyHz:     frequencyHz,
		amplitude:       amplitude,
		channels:        channels,
		sampleRate:      sampleRate,
		durationSeconds: durationSeconds,
		state:           Idle,
		volume:          1.0,
	}
}

func (s *SineSource) ID() SourceID      { return s.id }
func (s *SineSource) Channels() int     { return s.channels }
func (s *SineSource) Duration() float64 { return s.durationSeconds }
func (s *SineSource) KindName() string  { return "SineSource" }

func (s *SineSource) State() SourceState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *SineSource) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

func (s *SineSource) SetVolume(v float64) {
	s.mu.Lock()
	s.volume = v
	s.mu.Unlock()
}

func (s *SineSource) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == EndOfStream {
		s.freeCursor = 0
	}
	s.state = Playing
	return nil
}

func (s *SineSource) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Paused
	return nil
}

func (s *SineSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Stopped
	s.freeCursor = 0
	return nil
}

func (s *SineSource) AttachToClock(clk *MasterClock, startOffsetSeconds float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock = clk
	s.startOffset = startOffsetSeconds
}

// Read generates frames from the source's own free-running cursor,
// ignoring any attached clock — used when played as a plain Source.
func (s *SineSource) Read(buf []float32, frames int) (int, error) {
	s.mu.Lock()
	cursor := s.freeCursor
	vol := s.volume
	s.mu.Unlock()

	n := s.generate(cursor, buf, frames, vol)

	s.mu.Lock()
	s.freeCursor += uint64(n)
	s.mu.Unlock()
	return n, nil
}

func (s *SineSource) ReadAt(timestamp float64, buf []float32, frames int) ReadResult {
	s.mu.Lock()
	startOffset := s.startOffset
	vol := s.volume
	s.mu.Unlock()

	pos := int64(timestamp*float64(s.sampleRate)+0.5) + int64(startOffset*float64(s.sampleRate)+0.5)
	if pos < 0 {
		pos = 0
	}

	if math.IsInf(s.durationSeconds, 1) {
		s.generate(uint64(pos), buf, frames, vol)
		return ReadResult{FramesRead: frames, Completed: true}
	}
	durationSamples := int64(s.durationSeconds * float64(s.sampleRate))

	if pos >= durationSamples {
		zero(buf, frames*s.channels)
		s.mu.Lock()
		s.state = EndOfStream
		s.mu.Unlock()
		return ReadResult{FramesRead: 0, Completed: true}
	}

	framesAvailable := int(durationSamples - pos)
	toGenerate := frames
	silenceSubstituted := false
	if framesAvailable < frames {
		toGenerate = framesAvailable
		silenceSubstituted = true
	}

	s.generate(uint64(pos), buf, toGenerate, vol)
	if toGenerate < frames {
		zero(buf[toGenerate*s.channels:], (frames-toGenerate)*s.channels)
	}

	if silenceSubstituted {
		s.mu.Lock()
		s.state = EndOfStream
		s.mu.Unlock()
	}
	return ReadResult{FramesRead: frames, Completed: !silenceSubstituted}
}

func (s *SineSource) generate(startSample uint64, buf []float32, frames int, volume float64) int {
	angularStep := 2 * math.Pi * s.frequencyHz / float64(s.sampleRate)
	for f := 0; f < frames; f++ {
		v := float32(s.amplitude * volume * math.Sin(angularStep*float64(startSample+uint64(f))))
		base := f * s.channels
		for ch := 0; ch < s.channels; ch++ {
			buf[base+ch] = v
		}
	}
	return frames
}

func zero(buf []float32, n int) {
	for i := 0; i < n && i < len(buf); i++ {
		buf[i] = 0
	}
}

var (
	_ Source           = (*SineSource)(nil)
	_ ClockBoundSource = (*SineSource)(nil)
)
