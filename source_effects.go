package mixengine

// SourceWithEffects wraps a Source (optionally clock-bound) with an
// EffectChain applied in place after every read (spec.md §4.6). It is
// itself a Source/ClockBoundSource, so effect chains compose transparently
// with the rest of the mixer's source handling.
type SourceWithEffects struct {
	inner Source
	chain *EffectChain
}

// NewSourceWithEffects wraps inner with a fresh, empty effect chain.
func NewSourceWithEffects(inner Source) *SourceWithEffects {
	return &SourceWithEffects{inner: inner, chain: NewEffectChain()}
}

// Effects returns the underlying chain, for add/remove/list operations.
// Effect addition/removal is allowed while playing, per spec.md §4.6.
func (s *SourceWithEffects) Effects() *EffectChain { return s.chain }

func (s *SourceWithEffects) ID() SourceID          { return s.inner.ID() }
func (s *SourceWithEffects) State() SourceState    { return s.inner.State() }
func (s *SourceWithEffects) Volume() float64       { return s.inner.Volume() }
func (s *SourceWithEffects) SetVolume(v float64)   { s.inner.SetVolume(v) }
func (s *SourceWithEffects) Play() error           { return s.inner.Play() }
func (s *SourceWithEffects) Pause() error          { return s.inner.Pause() }
func (s *SourceWithEffects) Stop() error           { return s.inner.Stop() }
func (s *SourceWithEffects) Channels() int         { return s.inner.Channels() }
func (s *SourceWithEffects) Duration() float64     { return s.inner.Duration() }

func (s *SourceWithEffects) KindName() string {
	if k, ok := s.inner.(KindName); ok {
		return k.KindName()
	}
	return "SourceWithEffects"
}

func (s *SourceWithEffects) Read(buf []float32, frames int) (int, error) {
	n, err := s.inner.Read(buf, frames)
	if err != nil {
		return n, err
	}
	s.chain.Process(buf[:n*s.Channels()], s.Channels(), nil)
	return n, nil
}

func (s *SourceWithEffects) AttachToClock(clk *MasterClock, startOffsetSeconds float64) {
	if cb, ok := s.inner.(ClockBoundSource); ok {
		cb.AttachToClock(clk, startOffsetSeconds)
	}
}

func (s *SourceWithEffects) ReadAt(timestamp float64, buf []float32, frames int) ReadResult {
	cb, ok := s.inner.(ClockBoundSource)
	if !ok {
		n, err := s.inner.Read(buf, frames)
		if err != nil {
			return ReadResult{FramesRead: n, Completed: false, Err: err}
		}
		s.chain.Process(buf[:n*s.Channels()], s.Channels(), nil)
		return ReadResult{FramesRead: n, Completed: n == frames}
	}
	res := cb.ReadAt(timestamp, buf, frames)
	s.chain.Process(buf[:frames*s.Channels()], s.Channels(), nil)
	return res
}

var (
	_ Source           = (*SourceWithEffects)(nil)
	_ ClockBoundSource = (*SourceWithEffects)(nil)
)
