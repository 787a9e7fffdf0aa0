package wav

import (
	"io"
	"os"

	"github.com/go-audio/audio"
	goaudiowav "github.com/go-audio/wav"

	"mixengine/internal/mxerr"
)

// Reader decodes a WAV file into sequential interleaved float32 chunks,
// wrapping github.com/go-audio/wav as a convenience PCM/float decoder (the
// hand-rolled Writer in writer.go is for writing mixdowns, not reading them
// back).
type Reader struct {
	path       string
	f          *os.File
	dec        *goaudiowav.Decoder
	channels   int
	sampleRate int
}

// Open opens path and validates it as a decodable WAV file.
func Open(path string) (*Reader, error) {
	f, dec, err := openDecoder(path)
	if err != nil {
		return nil, err
	}
	return &Reader{
		path:       path,
		f:          f,
		dec:        dec,
		channels:   int(dec.NumChans),
		sampleRate: int(dec.SampleRate),
	}, nil
}

func openDecoder(path string) (*os.File, *goaudiowav.Decoder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, mxerr.Wrap(mxerr.DecoderOpen, "open wav file", err)
	}
	dec := goaudiowav.NewDecoder(f)
	if !dec.IsValidFile() {
		f.Close()
		return nil, nil, mxerr.New(mxerr.DecoderOpen, "not a valid wav file")
	}
	dec.ReadInfo()
	return f, dec, nil
}

// Channels returns the file's channel count.
func (r *Reader) Channels() int { return r.channels }

// SampleRate returns the file's sample rate.
func (r *Reader) SampleRate() int { return r.sampleRate }

// ReadInto decodes up to len(dst)/Channels() frames into dst, returning the
// number of frames decoded. Returns io.EOF once the file is exhausted.
func (r *Reader) ReadInto(dst []float32) (int, error) {
	frames := len(dst) / r.channels
	if frames == 0 {
		return 0, nil
	}
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: r.channels, SampleRate: r.sampleRate},
		Data:           make([]int, frames*r.channels),
		SourceBitDepth: int(r.dec.BitDepth),
	}
	n, err := r.dec.PCMBuffer(buf)
	if err != nil && err != io.EOF {
		return 0, mxerr.Wrap(mxerr.DecoderIO, "decode wav buffer", err)
	}
	decodedFrames := n / r.channels
	maxVal := float32(int(1) << (uint(r.dec.BitDepth) - 1))
	for i := 0; i < n; i++ {
		dst[i] = float32(buf.Data[i]) / maxVal
	}
	if decodedFrames == 0 {
		return 0, io.EOF
	}
	return decodedFrames, nil
}

// SeekFrames seeks to an absolute frame position. go-audio/wav's Decoder
// does not expose PCM-relative seeking, so this reopens the file and
// discards frames up to pos — acceptable since seeks are infrequent
// relative to the steady-state decode-ahead path.
func (r *Reader) SeekFrames(pos uint64) error {
	f, dec, err := openDecoder(r.path)
	if err != nil {
		return err
	}
	r.f.Close()
	r.f, r.dec = f, dec

	const chunk = 4096
	discard := make([]float32, chunk*r.channels)
	remaining := pos
	for remaining > 0 {
		want := remaining
		if want > chunk {
			want = chunk
		}
		n, err := r.ReadInto(discard[:want*uint64(r.channels)])
		if err != nil && err != io.EOF {
			return mxerr.Wrap(mxerr.DecoderSeek, "seek wav decoder", err)
		}
		if n == 0 {
			break
		}
		remaining -= uint64(n)
	}
	return nil
}

// Close closes the backing file.
func (r *Reader) Close() error { return r.f.Close() }
