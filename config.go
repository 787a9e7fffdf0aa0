package mixengine

import "mixengine/internal/device"

// HostType selects which device.Backend an Engine opens against.
type HostType int

const (
	// HostPortAudio uses WASAPI/CoreAudio/ALSA through portaudio.
	HostPortAudio HostType = iota
	// HostMiniAudio uses MiniAudio/AAudio through malgo.
	HostMiniAudio
	// HostNull is the in-process backend for offline rendering and tests.
	HostNull
)

func (h HostType) backend() device.Backend {
	switch h {
	case HostMiniAudio:
		return device.MiniAudio
	case HostNull:
		return device.Null
	default:
		return device.PortAudio
	}
}

// AudioConfig is the engine's immutable construction-time configuration
// (spec.md §3/§6). Validate rejects anything that should never reach the
// ring-sizing code.
type AudioConfig struct {
	SampleRate             int // 8000–192000
	Channels               int // 1–32
	FramesPerBuffer        int // 64–16384
	EnableInput            bool
	EnableOutput           bool
	OutputDeviceID         int // -1 selects the host default
	InputDeviceID          int // -1 selects the host default
	HostType               HostType
	OutputChannelSelectors []int
	InputChannelSelectors  []int
}

// DefaultAudioConfig returns a config matching common desktop output:
// 48 kHz stereo, 512-frame buffers, output only.
func DefaultAudioConfig() AudioConfig {
	return AudioConfig{
		SampleRate:      48000,
		Channels:        2,
		FramesPerBuffer: 512,
		EnableOutput:    true,
		OutputDeviceID:  -1,
		InputDeviceID:   -1,
	}
}

// Validate checks the invariants spec.md §3 requires of an AudioConfig.
func (c AudioConfig) Validate() error {
	if c.SampleRate < 8000 || c.SampleRate > 192000 {
		return newErr(ConfigInvalid, "sample_rate must be in [8000, 192000]")
	}
	if c.Channels < 1 || c.Channels > 32 {
		return newErr(ConfigInvalid, "channels must be in [1, 32]")
	}
	if c.FramesPerBuffer < 64 || c.FramesPerBuffer > 16384 {
		return newErr(ConfigInvalid, "frames_per_buffer must be in [64, 16384]")
	}
	if !c.EnableInput && !c.EnableOutput {
		return newErr(ConfigInvalid, "at least one of enable_input/enable_output must be true")
	}
	return nil
}

func (c AudioConfig) deviceConfig() device.Config {
	return device.Config{
		SampleRate:             c.SampleRate,
		Channels:               c.Channels,
		FramesPerBuffer:        c.FramesPerBuffer,
		EnableInput:            c.EnableInput,
		EnableOutput:           c.EnableOutput,
		OutputDeviceID:         c.OutputDeviceID,
		InputDeviceID:          c.InputDeviceID,
		OutputChannelSelectors: c.OutputChannelSelectors,
		InputChannelSelectors:  c.InputChannelSelectors,
	}
}
