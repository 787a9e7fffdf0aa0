package wav

import (
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writePCM16 writes a minimal 16-bit integer PCM WAV file directly, since
// the Writer in this package only emits IEEE-float data and the round-trip
// under test here exercises Reader against the integer PCM format most WAV
// files in the wild actually use.
func writePCM16(t *testing.T, path string, sampleRate, channels int, samples []int16) {
	t.Helper()
	dataBytes := uint32(len(samples) * 2)
	byteRate := uint32(sampleRate * channels * 2)
	blockAlign := uint16(channels * 2)

	buf := make([]byte, 44+len(data8(samples)))
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], 36+dataBytes)
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(buf[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(buf[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], byteRate)
	binary.LittleEndian.PutUint16(buf[32:34], blockAlign)
	binary.LittleEndian.PutUint16(buf[34:36], 16)
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], dataBytes)
	copy(buf[44:], data8(samples))

	require.NoError(t, os.WriteFile(path, buf, 0o644))
}

func data8(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

func TestOpenReadsFormatFromHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.wav")
	writePCM16(t, path, 44100, 1, []int16{0, 1000, -1000, 16000})

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, 1, r.Channels())
	assert.Equal(t, 44100, r.SampleRate())
}

func TestReadIntoDecodesAllSamplesThenEOF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.wav")
	writePCM16(t, path, 48000, 1, []int16{0, 16384, -16384, 32000})

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	dst := make([]float32, 4)
	n, err := r.ReadInto(dst)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.InDelta(t, 0, dst[0], 1e-6)
	assert.Greater(t, dst[1], float32(0))
	assert.Less(t, dst[2], float32(0))

	_, err = r.ReadInto(dst)
	assert.Equal(t, io.EOF, err)
}
