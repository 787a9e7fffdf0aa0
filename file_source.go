package mixengine

import (
	"math"
	"sync"
	"time"

	"mixengine/internal/lookahead"
	"mixengine/internal/mxerr"
)

// DefaultOfflineSourceTimeout is the deterministic wait spec.md §4.5/§9
// allows an offline-mode read_at to block for before becoming a hard error.
const DefaultOfflineSourceTimeout = 5 * time.Second

// defaultLookaheadDepthFrames bounds how far ahead of playback FileSource
// decodes, independent of the pump's own buffering depth.
const defaultLookaheadDepthFrames = 8192

// FileSource is the canonical clock-bound source (spec.md §4.5): it opens a
// Decoder, runs a background decode-ahead task filling a lookahead.Buffer
// keyed by absolute source-timeline sample position, and serves read_at out
// of that buffer.
type FileSource struct {
	id       SourceID
	decoder  Decoder
	channels int

	ahead          *lookahead.Buffer
	offlineTimeout time.Duration

	// decMu serializes every call into decoder (ReadInto from the
	// decode-ahead worker, SeekFrames from a ReadAt-observed clock seek) so
	// a seek can't race a concurrent decode chunk.
	decMu sync.Mutex

	decodeDone chan struct{}
	decodeOnce sync.Once

	mu          sync.Mutex
	state       SourceState
	volume      float64
	clock       *MasterClock
	startOffset float64
	lastSession uint64
	minPosition uint64

	totalFrames      uint64
	totalFramesKnown bool
}

// NewFileSource opens decoder and starts its decode-ahead worker. Ownership
// of decoder passes to the FileSource; Close stops decoding and closes it.
func NewFileSource(decoder Decoder) *FileSource {
	s := &FileSource{
		id:             NewSourceID(),
		decoder:        decoder,
		channels:       decoder.Channels(),
		offlineTimeout: DefaultOfflineSourceTimeout,
		decodeDone:     make(chan struct{}),
		state:          Idle,
		volume:         1.0,
	}
	s.ahead = lookahead.New(s.channels, defaultLookaheadDepthFrames, 0, s.fill)
	go s.decodeLoop()
	return s
}

// fill feeds the decode-ahead worker. Whether the decoder has reached EOF is
// surfaced separately through s.ahead.EOF(), consulted from ReadAt once
// playback actually reaches that position -- this must not flag
// totalFramesKnown itself, since the decode-ahead worker typically races far
// past the position any ReadAt has consumed so far.
func (s *FileSource) fill(dst []float32) (int, error) {
	s.decMu.Lock()
	defer s.decMu.Unlock()
	return s.decoder.ReadInto(dst)
}

// seekDecoder repositions the underlying decoder to pos, serialized against
// any in-flight decode-ahead chunk.
func (s *FileSource) seekDecoder(pos uint64) error {
	s.decMu.Lock()
	defer s.decMu.Unlock()
	return s.decoder.SeekFrames(pos)
}

func (s *FileSource) decodeLoop() {
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-s.decodeDone:
			return
		case <-ticker.C:
			s.ahead.FillAhead()
		}
	}
}

func (s *FileSource) ID() SourceID     { return s.id }
func (s *FileSource) Channels() int    { return s.channels }
func (s *FileSource) KindName() string { return "FileSource" }
func (s *FileSource) SampleRate() int  { return s.decoder.SampleRate() }

func (s *FileSource) Duration() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.totalFramesKnown {
		return math.Inf(1)
	}
	return float64(s.totalFrames) / float64(s.decoder.SampleRate())
}

func (s *FileSource) State() SourceState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *FileSource) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

func (s *FileSource) SetVolume(v float64) {
	s.mu.Lock()
	s.volume = v
	s.mu.Unlock()
}

func (s *FileSource) Play() error {
	s.mu.Lock()
	s.state = Playing
	s.mu.Unlock()
	return nil
}

func (s *FileSource) Pause() error {
	s.mu.Lock()
	s.state = Paused
	s.mu.Unlock()
	return nil
}

func (s *FileSource) Stop() error {
	s.mu.Lock()
	s.state = Stopped
	s.mu.Unlock()
	return nil
}

// Close stops the decode-ahead worker and closes the underlying decoder.
func (s *FileSource) Close() error {
	s.decodeOnce.Do(func() { close(s.decodeDone) })
	s.decMu.Lock()
	defer s.decMu.Unlock()
	return s.decoder.Close()
}

func (s *FileSource) AttachToClock(clk *MasterClock, startOffsetSeconds float64) {
	s.mu.Lock()
	s.clock = clk
	s.startOffset = startOffsetSeconds
	if clk != nil {
		s.lastSession = clk.Session()
	}
	s.mu.Unlock()
}

// Read drains the decode-ahead buffer sequentially, ignoring any attached
// clock; used when the source is played outside a mix engine's clock sync.
func (s *FileSource) Read(buf []float32, frames int) (int, error) {
	s.mu.Lock()
	pos := s.minPosition
	s.mu.Unlock()
	n, _, err := s.ahead.ReadAt(pos, buf[:frames*s.channels])
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	s.minPosition += uint64(n)
	s.mu.Unlock()
	return n, nil
}

func (s *FileSource) ReadAt(timestamp float64, buf []float32, frames int) ReadResult {
	sampleRate := s.decoder.SampleRate()
	s.mu.Lock()
	startOffset := s.startOffset
	clk := s.clock
	lastSession := s.lastSession
	s.mu.Unlock()

	pos := int64(timestamp*float64(sampleRate)+0.5) + int64(startOffset*float64(sampleRate)+0.5)
	if pos < 0 {
		pos = 0
	}

	if clk != nil {
		if session := clk.Session(); session != lastSession {
			if err := s.seekDecoder(uint64(pos)); err != nil {
				s.mu.Lock()
				s.state = SourceErrorState
				s.mu.Unlock()
				return ReadResult{FramesRead: 0, Completed: true, Err: wrapErr(DecoderSeek, "seek on clock discontinuity", err)}
			}
			s.ahead.Invalidate(uint64(pos))
			s.mu.Lock()
			s.lastSession = session
			s.minPosition = uint64(pos)
			s.mu.Unlock()
		}
	}

	s.mu.Lock()
	minPos := s.minPosition
	totalFrames := s.totalFrames
	totalKnown := s.totalFramesKnown
	offlineTimeout := s.offlineTimeout
	s.mu.Unlock()

	if uint64(pos) < minPos {
		zero(buf, frames*s.channels)
		return ReadResult{FramesRead: frames, Completed: false}
	}

	if totalKnown && uint64(pos) >= totalFrames {
		zero(buf, frames*s.channels)
		s.mu.Lock()
		s.state = EndOfStream
		s.mu.Unlock()
		return ReadResult{FramesRead: frames, Completed: true}
	}

	realtime := clk == nil || clk.Mode() == RealtimeMode

	n, fullyServiced, err := s.ahead.ReadAt(uint64(pos), buf[:frames*s.channels])
	if err != nil {
		if !realtime {
			deadline := time.Now().Add(offlineTimeout)
			for err != nil && time.Now().Before(deadline) {
				time.Sleep(time.Millisecond)
				n, fullyServiced, err = s.ahead.ReadAt(uint64(pos), buf[:frames*s.channels])
			}
			if err != nil {
				s.mu.Lock()
				s.state = SourceErrorState
				s.mu.Unlock()
				return ReadResult{FramesRead: 0, Completed: true, Err: mxerr.Wrap(mxerr.SourceRead, "offline read_at timed out", err)}
			}
		} else {
			zero(buf, frames*s.channels)
			return ReadResult{FramesRead: frames, Completed: false}
		}
	}

	if n < frames {
		zero(buf[n*s.channels:], (frames-n)*s.channels)
	}

	eofReached := s.ahead.EOF()

	if n == 0 && eofReached {
		// genuine end of stream: the decoder is exhausted and nothing
		// remains buffered, matching spec's "position >= duration" case.
		s.mu.Lock()
		s.totalFrames = uint64(pos)
		s.totalFramesKnown = true
		s.state = EndOfStream
		s.mu.Unlock()
		return ReadResult{FramesRead: 0, Completed: true}
	}
	if n == 0 {
		// decode-ahead hasn't caught up yet: treat as an underrun, not EOF.
		return ReadResult{FramesRead: frames, Completed: false}
	}

	s.mu.Lock()
	s.minPosition = uint64(pos) + uint64(n)
	if eofReached {
		// real data served up to (or exactly at) the decoder's exhaustion
		// point; any shortfall was padded with silence, which fullyServiced
		// already reflects in the returned Completed value.
		s.totalFrames = uint64(pos) + uint64(n)
		s.totalFramesKnown = true
		s.state = EndOfStream
	}
	s.mu.Unlock()

	return ReadResult{FramesRead: frames, Completed: fullyServiced}
}

var (
	_ Source           = (*FileSource)(nil)
	_ ClockBoundSource = (*FileSource)(nil)
)
