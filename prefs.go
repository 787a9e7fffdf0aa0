package mixengine

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// EnginePrefs holds the persisted defaults a host application pre-fills an
// AudioConfig from (spec.md §3/§6 leave device selection and startup
// defaults to the embedding application; this is the optional convenience
// the CLI demo and similar hosts use instead of hardcoding them).
type EnginePrefs struct {
	HostType        string  `yaml:"host_type"`
	SampleRate      int     `yaml:"sample_rate"`
	Channels        int     `yaml:"channels"`
	FramesPerBuffer int     `yaml:"frames_per_buffer"`
	OutputDeviceID  int     `yaml:"output_device_id"`
	InputDeviceID   int     `yaml:"input_device_id"`
	MasterVolume    float64 `yaml:"master_volume"`
	RecordingDir    string  `yaml:"recording_dir"`
}

// DefaultEnginePrefs mirrors DefaultAudioConfig's values.
func DefaultEnginePrefs() EnginePrefs {
	return EnginePrefs{
		HostType:        "portaudio",
		SampleRate:      48000,
		Channels:        2,
		FramesPerBuffer: 512,
		OutputDeviceID:  -1,
		InputDeviceID:   -1,
		MasterVolume:    1.0,
	}
}

// PrefsPath returns the absolute path to the preferences file, under the
// same os.UserConfigDir() root the teacher's client config uses.
func PrefsPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "mixengine", "prefs.yaml"), nil
}

// LoadPrefs reads the preferences file. A missing or unparsable file yields
// DefaultEnginePrefs rather than an error, matching client/internal/config's
// "never fail startup over a bad prefs file" behavior.
func LoadPrefs() EnginePrefs {
	path, err := PrefsPath()
	if err != nil {
		return DefaultEnginePrefs()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return DefaultEnginePrefs()
	}
	prefs := DefaultEnginePrefs()
	if err := yaml.Unmarshal(data, &prefs); err != nil {
		return DefaultEnginePrefs()
	}
	return prefs
}

// SavePrefs writes prefs to disk, creating the directory if needed.
func SavePrefs(prefs EnginePrefs) error {
	path, err := PrefsPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	data, err := yaml.Marshal(prefs)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// AudioConfig builds an AudioConfig from the persisted prefs, leaving
// EnableOutput set so the common playback-only host doesn't need to.
func (p EnginePrefs) AudioConfig() AudioConfig {
	return AudioConfig{
		SampleRate:      p.SampleRate,
		Channels:        p.Channels,
		FramesPerBuffer: p.FramesPerBuffer,
		EnableOutput:    true,
		OutputDeviceID:  p.OutputDeviceID,
		InputDeviceID:   p.InputDeviceID,
		HostType:        parseHostType(p.HostType),
	}
}

func parseHostType(s string) HostType {
	switch s {
	case "miniaudio":
		return HostMiniAudio
	case "null":
		return HostNull
	default:
		return HostPortAudio
	}
}
