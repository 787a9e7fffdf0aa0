package mixengine

import (
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDecoder is an in-memory Decoder test double producing a rising-counter
// signal, used so file_source_test.go doesn't depend on a real WAV fixture.
type fakeDecoder struct {
	mu         sync.Mutex
	channels   int
	sampleRate int
	totalFrames int
	pos        int
	eofSignaled bool
}

func newFakeDecoder(channels, sampleRate, totalFrames int) *fakeDecoder {
	return &fakeDecoder{channels: channels, sampleRate: sampleRate, totalFrames: totalFrames}
}

func (d *fakeDecoder) Channels() int   { return d.channels }
func (d *fakeDecoder) SampleRate() int { return d.sampleRate }

func (d *fakeDecoder) ReadInto(dst []float32) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	framesWanted := len(dst) / d.channels
	remaining := d.totalFrames - d.pos
	if remaining <= 0 {
		d.eofSignaled = true
		return 0, io.EOF
	}
	n := framesWanted
	if n > remaining {
		n = remaining
	}
	for f := 0; f < n; f++ {
		v := float32(d.pos+f) / float32(d.totalFrames)
		for ch := 0; ch < d.channels; ch++ {
			dst[f*d.channels+ch] = v
		}
	}
	d.pos += n
	if n < framesWanted {
		d.eofSignaled = true
		return n, io.EOF
	}
	return n, nil
}

func (d *fakeDecoder) SeekFrames(pos uint64) error {
	d.mu.Lock()
	d.pos = int(pos)
	d.mu.Unlock()
	return nil
}

func (d *fakeDecoder) Close() error { return nil }

// FramesDecoded reports how many frames have been consumed via ReadInto so
// far, letting tests wait for the background decode-ahead worker to finish
// draining a small fixture without guessing at sleep durations.
func (d *fakeDecoder) FramesDecoded() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pos
}

// EOFSignaled reports whether ReadInto has returned io.EOF to the
// decode-ahead worker.
func (d *fakeDecoder) EOFSignaled() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.eofSignaled
}

var _ Decoder = (*fakeDecoder)(nil)

// waitUntilReady polls until ready reports true, bounded so a regression
// fails the test instead of hanging it.
func waitUntilReady(ready func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for !ready() {
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(time.Millisecond)
	}
	return true
}

func TestFileSourceReadAtServesDecodedSamplesOnceAhead(t *testing.T) {
	dec := newFakeDecoder(2, 48000, 48000)
	fs := NewFileSource(dec)
	defer fs.Close()
	clk := NewMasterClock(48000, 2)
	fs.AttachToClock(clk, 0)
	require.NoError(t, fs.Play())

	require.True(t, waitUntilReady(func() bool { return fs.ahead.Primed() }))

	buf := make([]float32, 512*2)
	res := fs.ReadAt(0, buf, 512)
	assert.Equal(t, 512, res.FramesRead)
	assert.True(t, res.Completed)
	assert.InDelta(t, 0, buf[0], 1e-3)
}

func TestFileSourceReadAtReportsCompletedAtEOF(t *testing.T) {
	dec := newFakeDecoder(1, 48000, 64)
	fs := NewFileSource(dec)
	defer fs.Close()
	clk := NewMasterClock(48000, 1)
	fs.AttachToClock(clk, 0)
	require.NoError(t, fs.Play())

	require.True(t, waitUntilReady(func() bool { return dec.EOFSignaled() }))

	buf := make([]float32, 128)
	// Drains the 64 real frames and pads the rest of the 128 requested with
	// silence, so this read is not completed; it does mark end of stream.
	res := fs.ReadAt(0, buf, 128)
	assert.False(t, res.Completed)

	res = fs.ReadAt(64.0/48000, buf[:64], 64)
	assert.True(t, res.Completed)
	assert.Equal(t, EndOfStream, fs.State())
}

func TestFileSourceSeekInvalidatesBufferOnSessionChange(t *testing.T) {
	dec := newFakeDecoder(1, 48000, 48000)
	fs := NewFileSource(dec)
	defer fs.Close()
	clk := NewMasterClock(48000, 1)
	fs.AttachToClock(clk, 0)
	require.NoError(t, fs.Play())
	require.True(t, waitUntilReady(func() bool { return fs.ahead.Primed() }))

	buf := make([]float32, 64)
	fs.ReadAt(0, buf, 64)

	clk.SeekTo(1.0)
	buf2 := make([]float32, 64)
	res := fs.ReadAt(1.0, buf2, 64)
	// Immediately after a seek, decode-ahead has not caught up to the new
	// position yet: this must report an underrun, not a crash.
	assert.False(t, res.Completed)
}
