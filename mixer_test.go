package mixengine

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mixengine/internal/device"
	"mixengine/internal/pump"
)

func newTestMixer(t *testing.T, channels, framesPerBuffer int) (*Mixer, *Pump) {
	t.Helper()
	p, err := pump.New(device.Null, device.Config{
		SampleRate:      48000,
		Channels:        channels,
		FramesPerBuffer: framesPerBuffer,
		EnableOutput:    true,
		OutputDeviceID:  -1,
	})
	require.NoError(t, err)
	require.NoError(t, p.Start())

	clk := NewMasterClock(48000, channels)
	m := NewMixer(clk, p, framesPerBuffer)
	return m, p
}

// runCycles drives the mix loop directly (bypassing Start's goroutine) so
// tests are deterministic and don't depend on wall-clock scheduling.
func runCycles(m *Mixer, n int) {
	for i := 0; i < n; i++ {
		m.runCycle()
	}
}

func TestSingleSourceSineMixdownPeakMatchesAmplitude(t *testing.T) {
	m, _ := newTestMixer(t, 2, 512)
	sine := NewSineSource(48000, 2, 440, 0.5, 1.0)
	sine.AttachToClock(m.MasterClock(), 0)
	require.NoError(t, sine.Play())
	require.NoError(t, m.AddSource(sine))

	dir := t.TempDir()
	path := filepath.Join(dir, "out.wav")
	require.NoError(t, m.StartRecording(path))

	dropouts := 0
	m.Events.OnTrackDropout = func(TrackDropoutEvent) { dropouts++ }

	cycles := (48000 + 511) / 512
	runCycles(m, cycles)
	require.NoError(t, m.StopRecording())

	assert.Equal(t, 0, dropouts)
	assert.GreaterOrEqual(t, m.TotalMixedFrames(), uint64(48000))
	assert.InDelta(t, 0.5, m.LeftPeak(), 1e-3)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(44))
}

func TestFourSourceSyncMixAdvancesClockToExpectedPosition(t *testing.T) {
	m, _ := newTestMixer(t, 2, 512)
	for i := 0; i < 4; i++ {
		s := NewSineSource(48000, 2, 220+float64(i)*110, 0.2, 10.0)
		s.AttachToClock(m.MasterClock(), 0)
		require.NoError(t, s.Play())
		require.NoError(t, m.AddSource(s))
	}

	cycles := 480000 / 512
	runCycles(m, cycles)

	assert.Equal(t, uint64(cycles*512), m.MasterClock().CurrentSamplePosition())
}

func TestMasterEffectToggleHalvesSubsequentSamples(t *testing.T) {
	m, _ := newTestMixer(t, 1, 256)
	sine := NewSineSource(48000, 1, 1000, 1.0, 1.0)
	sine.AttachToClock(m.MasterClock(), 0)
	require.NoError(t, sine.Play())
	require.NoError(t, m.AddSource(sine))

	gain := NewGainEffect("half", 0.5)
	gain.SetEnabled(false)
	require.NoError(t, m.MasterEffects().Add(gain))

	runCycles(m, 1)
	baselinePeak := m.LeftPeak()

	gain.SetEnabled(true)
	runCycles(m, 1)
	toggledPeak := m.LeftPeak()

	assert.InDelta(t, baselinePeak/2, toggledPeak, 0.05)
}

func TestSeekMidPlaybackContinuesWithoutPanicking(t *testing.T) {
	m, _ := newTestMixer(t, 1, 256)
	sine := NewSineSource(48000, 1, 440, 0.5, 10.0)
	sine.AttachToClock(m.MasterClock(), 0)
	require.NoError(t, sine.Play())
	require.NoError(t, m.AddSource(sine))

	runCycles(m, 40) // ~0.21s at 256 fpb/48kHz
	m.MasterClock().SeekTo(5.0)
	assert.NotPanics(t, func() { runCycles(m, 40) })
}

func TestAddSourcePastMaxAudioSourcesReturnsLimitExceeded(t *testing.T) {
	m, _ := newTestMixer(t, 1, 256)
	m.SetMaxAudioSources(22)
	for i := 0; i < 22; i++ {
		require.NoError(t, m.AddSource(NewSineSource(48000, 1, 440, 0.1, 1.0)))
	}
	err := m.AddSource(NewSineSource(48000, 1, 440, 0.1, 1.0))
	require.Error(t, err)
	assert.True(t, IsErrorKind(err, LimitExceeded))
	assert.Equal(t, 22, m.SourceCount())
}

func TestPauseFreezesClockUntilResume(t *testing.T) {
	m, _ := newTestMixer(t, 1, 256)
	sine := NewSineSource(48000, 1, 440, 0.5, 10.0)
	sine.AttachToClock(m.MasterClock(), 0)
	require.NoError(t, sine.Play())
	require.NoError(t, m.AddSource(sine))

	require.NoError(t, m.Start())
	runCyclesWhileRunning(t, m, 10)
	m.Pause()
	pos := m.MasterClock().CurrentSamplePosition()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, pos, m.MasterClock().CurrentSamplePosition())

	m.Resume()
	runCyclesWhileRunning(t, m, 20)
	assert.Greater(t, m.MasterClock().CurrentSamplePosition(), pos)
	m.Stop()
}

// runCyclesWhileRunning waits for at least n cycles worth of mixed frames
// to be produced by the goroutine started via Mixer.Start, bounded so a
// regression fails the test instead of hanging it.
func runCyclesWhileRunning(t *testing.T, m *Mixer, minCycles int) {
	t.Helper()
	target := uint64(minCycles * m.framesPerBuffer)
	deadline := time.Now().Add(5 * time.Second)
	for m.TotalMixedFrames() < target {
		if time.Now().After(deadline) {
			t.Fatalf("mix loop did not reach %d frames in time", target)
		}
		time.Sleep(time.Millisecond)
	}
}
