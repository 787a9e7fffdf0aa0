package device

import (
	"encoding/binary"
	"log"
	"math"

	"github.com/gen2brain/malgo"

	"mixengine/internal/mxerr"
)

// miniAudioAdapter implements Adapter using github.com/gen2brain/malgo, the
// Go binding for MiniAudio — the second host backend spec.md §4.2 names
// alongside WASAPI/CoreAudio/ALSA/ASIO. Pattern grounded on the pack's
// sherpa-voice-assistant internal/audio capture.go and playback.go: a
// malgo.AllocatedContext, a malgo.DeviceConfig negotiated for Duplex/
// Playback/Capture, and a malgo.DeviceCallbacks.Data closure converting
// between the backend's byte buffers and our float32 slices.
type miniAudioAdapter struct {
	ctx    *malgo.AllocatedContext
	device *malgo.Device
	cfg    Config
	cb     Callback

	// inScratch/outScratch are reused across every onData invocation so the
	// realtime callback satisfies spec.md §4.2's no-allocation requirement,
	// the same invariant portaudio_backend.go's onBuffer already holds.
	// Sized once in Open for the negotiated frames_per_buffer and grown only
	// if malgo ever calls back with more frames than negotiated.
	inScratch  []float32
	outScratch []float32
}

func newMiniAudioAdapter() *miniAudioAdapter {
	return &miniAudioAdapter{}
}

func (a *miniAudioAdapter) Open(cfg Config, cb Callback) error {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return mxerr.Wrap(mxerr.DeviceUnavailable, "malgo init context", err)
	}
	a.ctx, a.cfg, a.cb = ctx, cfg, cb
	a.inScratch = make([]float32, cfg.FramesPerBuffer*cfg.Channels)
	a.outScratch = make([]float32, cfg.FramesPerBuffer*cfg.Channels)

	deviceType := malgo.Playback
	switch {
	case cfg.EnableInput && cfg.EnableOutput:
		deviceType = malgo.Duplex
	case cfg.EnableInput:
		deviceType = malgo.Capture
	}

	deviceConfig := malgo.DefaultDeviceConfig(deviceType)
	deviceConfig.SampleRate = uint32(cfg.SampleRate)
	deviceConfig.Playback.Format = malgo.FormatF32
	deviceConfig.Playback.Channels = uint32(cfg.Channels)
	deviceConfig.Capture.Format = malgo.FormatF32
	deviceConfig.Capture.Channels = uint32(cfg.Channels)
	deviceConfig.PeriodSizeInFrames = uint32(cfg.FramesPerBuffer)
	if cfg.OutputDeviceID >= 0 {
		deviceConfig.Playback.DeviceID = deviceIDPointer(cfg.OutputDeviceID)
	}
	if cfg.InputDeviceID >= 0 {
		deviceConfig.Capture.DeviceID = deviceIDPointer(cfg.InputDeviceID)
	}

	onData := func(outBytes, inBytes []byte, frameCount uint32) {
		need := int(frameCount) * cfg.Channels
		if len(a.outScratch) < need {
			a.outScratch = make([]float32, need)
		}
		if len(a.inScratch) < need {
			a.inScratch = make([]float32, need)
		}
		outSamples := a.outScratch[:need]
		var inSamples []float32
		if len(inBytes) > 0 {
			inSamples = a.inScratch[:need]
			bytesToFloat32Into(inBytes, inSamples)
		}
		a.cb(inSamples, outSamples, int(frameCount))
		float32ToBytes(outSamples, outBytes)
	}

	device, err := malgo.InitDevice(ctx.Context, deviceConfig, malgo.DeviceCallbacks{Data: onData})
	if err != nil {
		ctx.Uninit()
		return mxerr.Wrap(mxerr.DeviceFormat, "malgo init device", err)
	}
	a.device = device
	return nil
}

func (a *miniAudioAdapter) Start() error {
	if err := a.device.Start(); err != nil {
		return mxerr.Wrap(mxerr.DeviceFatal, "malgo start device", err)
	}
	return nil
}

func (a *miniAudioAdapter) Stop() error {
	if a.device == nil {
		return nil
	}
	if err := a.device.Stop(); err != nil {
		return mxerr.Wrap(mxerr.DeviceFatal, "malgo stop device", err)
	}
	return nil
}

func (a *miniAudioAdapter) Close() error {
	if a.device != nil {
		a.device.Uninit()
		a.device = nil
	}
	if a.ctx != nil {
		if err := a.ctx.Uninit(); err != nil {
			log.Printf("[device] malgo context uninit: %v", err)
		}
		a.ctx.Free()
		a.ctx = nil
	}
	return nil
}

// deviceIDPointer is a placeholder seam: malgo identifies devices by
// *malgo.DeviceID discovered through Context.Devices, not by small
// integers. Index-based selection is resolved at enumeration time by the
// caller before reaching here in a full deployment; this backend defaults
// to the host's default device when no concrete malgo.DeviceID is wired.
func deviceIDPointer(_ int) *malgo.DeviceID {
	return nil
}

func bytesToFloat32Into(b []byte, dst []float32) {
	for i := range dst {
		bits := binary.LittleEndian.Uint32(b[i*4:])
		dst[i] = math.Float32frombits(bits)
	}
}

func float32ToBytes(samples []float32, dst []byte) {
	for i, s := range samples {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(s))
	}
}

type miniAudioEnumerator struct{}

func (miniAudioEnumerator) EnumerateOutputs() ([]Descriptor, error) {
	return enumerateMiniAudio(malgo.Playback)
}

func (miniAudioEnumerator) EnumerateInputs() ([]Descriptor, error) {
	return enumerateMiniAudio(malgo.Capture)
}

func enumerateMiniAudio(deviceType malgo.DeviceType) ([]Descriptor, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, mxerr.Wrap(mxerr.DeviceUnavailable, "malgo init context", err)
	}
	defer func() {
		ctx.Uninit()
		ctx.Free()
	}()

	infos, err := ctx.Devices(deviceType)
	if err != nil {
		return nil, mxerr.Wrap(mxerr.DeviceUnavailable, "malgo enumerate devices", err)
	}
	out := make([]Descriptor, 0, len(infos))
	for i, info := range infos {
		d := Descriptor{ID: i, Name: info.Name()}
		if deviceType == malgo.Playback {
			d.MaxOutputChannels = 2
			d.IsDefaultOutput = info.IsDefault != 0
		} else {
			d.MaxInputChannels = 2
			d.IsDefaultInput = info.IsDefault != 0
		}
		out = append(out, d)
	}
	return out, nil
}
