// Command mixdemo exercises the mix engine from the command line: it plays
// one or more WAV files (or a self-test sine tone) through the configured
// device, optionally recording the mixdown, and logs periodic stats the way
// the teacher's server logs room metrics.
package main

import (
	"context"
	"log"
	"math"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/pflag"

	"mixengine"
)

func main() {
	prefs := mixengine.LoadPrefs()

	sampleRate := pflag.Int("sample-rate", prefs.SampleRate, "output sample rate")
	channels := pflag.Int("channels", prefs.Channels, "output channel count")
	framesPerBuffer := pflag.Int("frames-per-buffer", prefs.FramesPerBuffer, "mix cycle size in frames")
	host := pflag.String("host", prefs.HostType, "device backend: portaudio, miniaudio, or null")
	selfTest := pflag.Bool("self-test", false, "play a 440 Hz sine tone instead of files")
	recordPath := pflag.String("record", "", "path to write a WAV mixdown (empty disables recording)")
	statsInterval := pflag.Duration("stats-interval", 5*time.Second, "interval between stats log lines")
	saveDefaults := pflag.Bool("save-defaults", false, "persist the resolved flags as the new startup defaults")
	files := pflag.StringArray("file", nil, "WAV file to play (repeatable)")
	pflag.Parse()

	cfg := mixengine.AudioConfig{
		SampleRate:      *sampleRate,
		Channels:        *channels,
		FramesPerBuffer: *framesPerBuffer,
		EnableOutput:    true,
		OutputDeviceID:  -1,
		InputDeviceID:   -1,
		HostType:        parseHost(*host),
	}

	if *saveDefaults {
		prefs.HostType = *host
		prefs.SampleRate = *sampleRate
		prefs.Channels = *channels
		prefs.FramesPerBuffer = *framesPerBuffer
		if err := mixengine.SavePrefs(prefs); err != nil {
			log.Printf("[mixdemo] save defaults: %v", err)
		}
	}

	engine := mixengine.NewEngine()
	if err := engine.Initialize(cfg, *framesPerBuffer); err != nil {
		log.Fatalf("[mixdemo] initialize: %v", err)
	}

	mixer := engine.Mixer()
	mixer.Events.OnTrackDropout = func(ev mixengine.TrackDropoutEvent) {
		log.Printf("[mixdemo] track dropout: source=%s reason=%s missed=%d", ev.SourceID, ev.Reason, ev.MissedFrames)
	}
	mixer.Events.OnSourceError = func(ev mixengine.SourceErrorEvent) {
		log.Printf("[mixdemo] source error: source=%s err=%v", ev.SourceID, ev.Err)
	}
	mixer.Events.OnEngineFatal = func(ev mixengine.EngineFatalEvent) {
		log.Fatalf("[mixdemo] engine fatal: %v", ev.Err)
	}
	mixer.Events.OnOverflow = func(ev mixengine.OverflowEvent) {
		log.Printf("[mixdemo] pump overflow: dropped=%d", ev.DroppedFrames)
	}

	if *selfTest {
		sine := mixengine.NewSineSource(*sampleRate, *channels, 440, 0.5, math.Inf(1))
		sine.AttachToClock(engine.MasterClock(), 0)
		sine.Play()
		if err := mixer.AddSource(sine); err != nil {
			log.Fatalf("[mixdemo] add self-test source: %v", err)
		}
	}
	for _, path := range *files {
		dec, err := mixengine.OpenWAVDecoder(path)
		if err != nil {
			log.Fatalf("[mixdemo] open %s: %v", path, err)
		}
		fs := mixengine.NewFileSource(dec)
		fs.AttachToClock(engine.MasterClock(), 0)
		fs.Play()
		if err := mixer.AddSource(fs); err != nil {
			log.Fatalf("[mixdemo] add source %s: %v", path, err)
		}
		log.Printf("[mixdemo] added source %s", path)
	}

	if *recordPath != "" {
		if err := mixer.StartRecording(*recordPath); err != nil {
			log.Fatalf("[mixdemo] start recording: %v", err)
		}
		log.Printf("[mixdemo] recording to %s", *recordPath)
	}

	if err := engine.Start(); err != nil {
		log.Fatalf("[mixdemo] start: %v", err)
	}
	log.Printf("[mixdemo] engine started: %d Hz, %d ch, %d fpb", *sampleRate, *channels, *framesPerBuffer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		<-sigCh
		log.Println("[mixdemo] shutting down...")
		cancel()
	}()

	go runStats(ctx, mixer, *statsInterval)

	<-ctx.Done()
	if *recordPath != "" {
		if err := mixer.StopRecording(); err != nil {
			log.Printf("[mixdemo] stop recording: %v", err)
		}
	}
	if err := engine.Stop(); err != nil {
		log.Printf("[mixdemo] stop: %v", err)
	}
	if err := engine.Shutdown(); err != nil {
		log.Printf("[mixdemo] shutdown: %v", err)
	}
}

func runStats(ctx context.Context, mixer *mixengine.Mixer, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			log.Printf("[mixdemo] frames=%d underruns=%d left_peak=%.3f right_peak=%.3f sources=%d",
				mixer.TotalMixedFrames(), mixer.TotalUnderruns(), mixer.LeftPeak(), mixer.RightPeak(), mixer.SourceCount())
		}
	}
}

func parseHost(s string) mixengine.HostType {
	switch s {
	case "miniaudio":
		return mixengine.HostMiniAudio
	case "null":
		return mixengine.HostNull
	default:
		return mixengine.HostPortAudio
	}
}
