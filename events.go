package mixengine

// Event callback slots (spec.md §9): a small set of typed func fields on the
// Mixer, invoked synchronously from the emitting thread. Per spec.md §5's
// ordering guarantees, a listener observing the mix thread directly must be
// non-blocking; slow listeners are the caller's problem, not the mixer's.

// OverflowEvent fires when Pump.Send could not place samples within its
// bounded wait — the producer-side half of spec.md's historically
// overloaded "BufferUnderrun" notion (see DESIGN.md).
type OverflowEvent struct {
	RequestedFrames int
	DroppedFrames   int
}

// UnderrunEvent fires when the device callback found fewer samples than it
// requested in the output ring — the consumer-side half.
type UnderrunEvent struct {
	RequestedFrames int
	SuppliedFrames  int
}

// SourceErrorEvent fires when a source's read/read_at call returns an error;
// the mix engine isolates the failure and continues with the next source.
type SourceErrorEvent struct {
	SourceID SourceID
	Err      error
}

// TrackDropoutEvent fires when a clock-bound source could not satisfy
// read_at in time and silence was substituted to preserve timing.
type TrackDropoutEvent struct {
	SourceID            SourceID
	SourceKindName      string
	MasterTimestamp     float64
	MasterSamplePosition uint64
	MissedFrames        int
	Reason              string
}

// EngineFatalEvent carries a fatal device-adapter error. No code path emits
// it: device-adapter errors after Start are not observed by the Mixer or the
// Engine, and they do not tear the engine down.
type EngineFatalEvent struct {
	Err error
}

// RecordingWarningEvent fires when a mixdown write fails; recording is
// stopped silently (the writer disposed, the recording flag cleared) and
// this event is the only surfacing of that failure.
type RecordingWarningEvent struct {
	Err error
}

// EffectErrorEvent fires when a master-chain effect's Process call fails;
// the effect is skipped for that buffer only. Errors from a
// SourceWithEffects chain are not reported.
type EffectErrorEvent struct {
	EffectID string
	Err      error
}

// Events holds the Mixer's callback slots. Any slot left nil is simply not
// invoked. All callbacks fire from the mix thread unless noted otherwise.
type Events struct {
	OnOverflow         func(OverflowEvent)
	OnUnderrun         func(UnderrunEvent)
	OnSourceError      func(SourceErrorEvent)
	OnTrackDropout     func(TrackDropoutEvent)
	OnEngineFatal      func(EngineFatalEvent)
	OnRecordingWarning func(RecordingWarningEvent)
	OnEffectError      func(EffectErrorEvent)
}

func (e *Events) emitOverflow(ev OverflowEvent) {
	if e.OnOverflow != nil {
		e.OnOverflow(ev)
	}
}

func (e *Events) emitUnderrun(ev UnderrunEvent) {
	if e.OnUnderrun != nil {
		e.OnUnderrun(ev)
	}
}

func (e *Events) emitSourceError(ev SourceErrorEvent) {
	if e.OnSourceError != nil {
		e.OnSourceError(ev)
	}
}

func (e *Events) emitTrackDropout(ev TrackDropoutEvent) {
	if e.OnTrackDropout != nil {
		e.OnTrackDropout(ev)
	}
}

func (e *Events) emitEngineFatal(ev EngineFatalEvent) {
	if e.OnEngineFatal != nil {
		e.OnEngineFatal(ev)
	}
}

func (e *Events) emitRecordingWarning(ev RecordingWarningEvent) {
	if e.OnRecordingWarning != nil {
		e.OnRecordingWarning(ev)
	}
}

func (e *Events) emitEffectError(ev EffectErrorEvent) {
	if e.OnEffectError != nil {
		e.OnEffectError(ev)
	}
}
