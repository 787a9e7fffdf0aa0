package mixengine

// LimiterEffect hard-clips samples to [-1, 1], grounded in the teacher's
// clampFloat32 used throughout client/audio.go's mix/output paths.
type LimiterEffect struct {
	baseEffect
}

// NewLimiterEffect returns an enabled LimiterEffect.
func NewLimiterEffect(id string) *LimiterEffect {
	return &LimiterEffect{baseEffect: newBaseEffect(id, "Limiter")}
}

func (l *LimiterEffect) Initialize(sampleRate, channels int) error { return nil }

func (l *LimiterEffect) Process(buf []float32, channels int) error {
	for i, s := range buf {
		buf[i] = clampFloat32(s, -1, 1)
	}
	return nil
}

func (l *LimiterEffect) Reset() {}

func clampFloat32(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
