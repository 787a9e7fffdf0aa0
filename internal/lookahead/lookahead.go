// Package lookahead implements decode-ahead buffering for clock-bound
// sources, adapted from the teacher's client/internal/jitter sequence-number
// keyed reorder buffer. A file decoder is inherently sequential and
// single-sender, so there is no reordering to do; what carries over is the
// buffer's shape — a fixed depth of pre-decoded material, a "primed" gate
// before playback is allowed to start, and an explicit reset on timeline
// discontinuity (there: sender restart; here: a master-clock seek).
package lookahead

import (
	"errors"
	"io"
	"sync"

	"mixengine/internal/mxerr"
	"mixengine/internal/ring"
)

// Filler decodes the next sequential chunk of interleaved samples into dst,
// returning the number of frames decoded. io.EOF (wrapped) signals the
// decoder is exhausted.
type Filler func(dst []float32) (frames int, err error)

// Buffer decodes ahead of the read position by up to depthFrames frames,
// keyed against the absolute sample position it believes it is at so a
// master-clock seek can be detected and the buffer invalidated.
type Buffer struct {
	mu          sync.Mutex
	samples     *ring.Buffer
	channels    int
	depthFrames int
	fill        Filler

	decodedUpTo uint64 // absolute sample position one past the last decoded frame
	readPos     uint64 // absolute sample position the next ReadAt expects
	primed      bool
	eof         bool
	err         error
}

// New creates a Buffer that decodes ahead up to depthFrames frames using
// fill, for a stream with the given channel count, starting at startPos.
func New(channels, depthFrames int, startPos uint64, fill Filler) *Buffer {
	if depthFrames < 1 {
		depthFrames = 1
	}
	return &Buffer{
		samples:     ring.New(depthFrames * channels),
		channels:    channels,
		depthFrames: depthFrames,
		fill:        fill,
		decodedUpTo: startPos,
		readPos:     startPos,
	}
}

// FillAhead decodes one more chunk if the ring has room, meant to be driven
// by a dedicated decode-ahead worker rather than the mix thread. Safe to
// call repeatedly; it is a no-op once EOF or an error has been observed.
func (b *Buffer) FillAhead() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.eof || b.err != nil {
		return
	}
	availFrames := int(b.samples.AvailableWrite()) / b.channels
	if availFrames == 0 {
		return
	}
	chunkFrames := 64
	if availFrames < chunkFrames {
		chunkFrames = availFrames
	}
	chunk := make([]float32, chunkFrames*b.channels)
	frames, err := b.fill(chunk)
	if frames > 0 {
		b.samples.Write(chunk[:frames*b.channels])
		b.decodedUpTo += uint64(frames)
		if frames >= b.depthFrames/2 || b.samples.AvailableRead() >= uint64(b.depthFrames*b.channels)/2 {
			b.primed = true
		}
	}
	if err != nil {
		if errors.Is(err, io.EOF) {
			b.eof = true
		} else {
			b.err = mxerr.Wrap(mxerr.DecoderIO, "decode ahead", err)
		}
	}
}

// ReadAt serves frameCount frames starting at pos into dst (sized
// frameCount*channels). completed reports whether every requested frame
// came from real decoded data with no silence substitution required for
// this call; a short read (underrun, ring not yet filled) reports
// completed=false even though err is nil. Callers that need to distinguish
// "underrun, try again later" from "decoder genuinely exhausted" should
// consult EOF. A pos that doesn't match the buffer's expected read position
// (a seek happened without a matching Invalidate) is treated as a
// discontinuity: the caller must Invalidate before the next ReadAt.
func (b *Buffer) ReadAt(pos uint64, dst []float32) (frames int, completed bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if pos != b.readPos {
		return 0, false, mxerr.New(mxerr.SourceRead, "lookahead buffer position mismatch, Invalidate required")
	}
	if b.err != nil {
		return 0, false, b.err
	}

	n := b.samples.Read(dst)
	framesRead := n / b.channels
	b.readPos += uint64(framesRead)

	requested := len(dst) / b.channels
	return framesRead, framesRead == requested, nil
}

// Invalidate discards any buffered material and resets decoding to start at
// pos, used when the master clock's session counter changes underneath a
// clock-bound source.
func (b *Buffer) Invalidate(pos uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.samples.Clear()
	b.decodedUpTo = pos
	b.readPos = pos
	b.primed = false
	b.eof = false
	b.err = nil
}

// Primed reports whether enough material has been decoded ahead to start
// consuming without an immediate dropout.
func (b *Buffer) Primed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.primed
}

// EOF reports whether the decoder has signaled exhaustion and every buffered
// sample has been consumed.
func (b *Buffer) EOF() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.eof && b.samples.AvailableRead() == 0
}
