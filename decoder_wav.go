package mixengine

import "mixengine/internal/wav"

// OpenWAVDecoder opens path as a WAV file and returns it as a Decoder.
func OpenWAVDecoder(path string) (Decoder, error) {
	return wav.Open(path)
}

var _ Decoder = (*wav.Reader)(nil)
