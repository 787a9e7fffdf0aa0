package mixengine

import "io"

// Decoder is the contract FileSource consumes for pulling interleaved float32
// samples from an encoded file. Concrete codecs (WAV today, others later)
// implement this without FileSource needing to know the container format —
// spec.md's original class hierarchy for file decoders is out of scope; only
// this contract is.
type Decoder interface {
	// ReadInto decodes into dst, returning the number of frames written.
	// Returns io.EOF once the decoder is exhausted.
	ReadInto(dst []float32) (frames int, err error)
	Channels() int
	SampleRate() int
	// SeekFrames repositions the decoder so the next ReadInto starts at the
	// given absolute frame offset.
	SeekFrames(pos uint64) error
	io.Closer
}
