package device

import (
	"log"
	"time"

	"github.com/gordonklaus/portaudio"

	"mixengine/internal/mxerr"
)

// portAudioAdapter implements Adapter using github.com/gordonklaus/portaudio,
// following the open/duplex-stream pattern in the teacher's client/audio.go
// Start(): resolve devices, build StreamParameters for the negotiated
// config, open a single duplex callback stream.
type portAudioAdapter struct {
	stream   *portaudio.Stream
	cfg      Config
	cb       Callback
	inBuf    []float32
	outBuf   []float32
	inited   bool
	fired    chan struct{}
	firedHit bool
}

func newPortAudioAdapter() *portAudioAdapter {
	return &portAudioAdapter{fired: make(chan struct{}, 1)}
}

func (a *portAudioAdapter) Open(cfg Config, cb Callback) error {
	if !a.inited {
		if err := portaudio.Initialize(); err != nil {
			return mxerr.Wrap(mxerr.DeviceUnavailable, "portaudio initialize", err)
		}
		a.inited = true
	}
	a.cfg, a.cb = cfg, cb

	devices, err := portaudio.Devices()
	if err != nil {
		return mxerr.Wrap(mxerr.DeviceUnavailable, "list devices", err)
	}

	params := portaudio.StreamParameters{
		SampleRate:      float64(cfg.SampleRate),
		FramesPerBuffer: cfg.FramesPerBuffer,
	}

	if cfg.EnableInput {
		inDev, err := resolveDevice(devices, cfg.InputDeviceID, portaudio.DefaultInputDevice)
		if err != nil {
			return mxerr.Wrap(mxerr.DeviceUnavailable, "resolve input device", err)
		}
		params.Input = portaudio.StreamDeviceParameters{
			Device:   inDev,
			Channels: cfg.Channels,
			Latency:  inDev.DefaultLowInputLatency,
		}
		a.inBuf = make([]float32, cfg.FramesPerBuffer*cfg.Channels)
	}
	if cfg.EnableOutput {
		outDev, err := resolveDevice(devices, cfg.OutputDeviceID, portaudio.DefaultOutputDevice)
		if err != nil {
			return mxerr.Wrap(mxerr.DeviceUnavailable, "resolve output device", err)
		}
		params.Output = portaudio.StreamDeviceParameters{
			Device:   outDev,
			Channels: cfg.Channels,
			Latency:  outDev.DefaultLowOutputLatency,
		}
		a.outBuf = make([]float32, cfg.FramesPerBuffer*cfg.Channels)
	}

	stream, err := portaudio.OpenStream(params, a.onBuffer)
	if err != nil {
		return mxerr.Wrap(mxerr.DeviceFormat, "open stream", err)
	}
	a.stream = stream
	return nil
}

// onBuffer is the realtime callback portaudio invokes. It must not block,
// allocate, or lock.
func (a *portAudioAdapter) onBuffer(in, out []float32) {
	a.cb(in, out, a.cfg.FramesPerBuffer)
	select {
	case a.fired <- struct{}{}:
	default:
	}
}

func (a *portAudioAdapter) Start() error {
	if err := a.stream.Start(); err != nil {
		return mxerr.Wrap(mxerr.DeviceFatal, "start stream", err)
	}
	select {
	case <-a.fired:
	case <-time.After(100 * time.Millisecond):
	}
	return nil
}

func (a *portAudioAdapter) Stop() error {
	if a.stream == nil {
		return nil
	}
	if err := a.stream.Stop(); err != nil {
		return mxerr.Wrap(mxerr.DeviceFatal, "stop stream", err)
	}
	return nil
}

func (a *portAudioAdapter) Close() error {
	if a.stream == nil {
		return nil
	}
	err := a.stream.Close()
	a.stream = nil
	if err != nil {
		log.Printf("[device] portaudio close: %v", err)
	}
	return nil
}

// resolveDevice returns the device at idx if valid, otherwise falls back to
// the host default, matching client/audio.go's resolveDevice helper.
func resolveDevice(devices []*portaudio.DeviceInfo, idx int, fallback func() (*portaudio.DeviceInfo, error)) (*portaudio.DeviceInfo, error) {
	if idx >= 0 && idx < len(devices) {
		return devices[idx], nil
	}
	return fallback()
}

type portAudioEnumerator struct{}

func (portAudioEnumerator) EnumerateOutputs() ([]Descriptor, error) {
	return enumeratePortAudio(func(d *portaudio.DeviceInfo) bool { return d.MaxOutputChannels > 0 }, false)
}

func (portAudioEnumerator) EnumerateInputs() ([]Descriptor, error) {
	return enumeratePortAudio(func(d *portaudio.DeviceInfo) bool { return d.MaxInputChannels > 0 }, true)
}

func enumeratePortAudio(match func(*portaudio.DeviceInfo) bool, input bool) ([]Descriptor, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, mxerr.Wrap(mxerr.DeviceUnavailable, "portaudio initialize", err)
	}
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, mxerr.Wrap(mxerr.DeviceUnavailable, "list devices", err)
	}
	defaultIn, _ := portaudio.DefaultInputDevice()
	defaultOut, _ := portaudio.DefaultOutputDevice()

	var out []Descriptor
	for i, d := range devices {
		if !match(d) {
			continue
		}
		desc := Descriptor{
			ID:                i,
			Name:              d.Name,
			MaxInputChannels:  d.MaxInputChannels,
			MaxOutputChannels: d.MaxOutputChannels,
		}
		if input && defaultIn != nil {
			desc.IsDefaultInput = d.Name == defaultIn.Name
		}
		if !input && defaultOut != nil {
			desc.IsDefaultOutput = d.Name == defaultOut.Name
		}
		out = append(out, desc)
	}
	return out, nil
}
