package wav

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateWritesValidPlaceholderHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	w, err := Create(path, 48000, 2)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, data, headerSize)
	assert.Equal(t, "RIFF", string(data[0:4]))
	assert.Equal(t, "WAVE", string(data[8:12]))
	assert.Equal(t, "fmt ", string(data[12:16]))
	assert.Equal(t, uint16(3), binary.LittleEndian.Uint16(data[20:22]))
	assert.Equal(t, uint16(2), binary.LittleEndian.Uint16(data[22:24]))
	assert.Equal(t, uint32(48000), binary.LittleEndian.Uint32(data[24:28]))
	assert.Equal(t, uint16(32), binary.LittleEndian.Uint16(data[34:36]))
	assert.Equal(t, uint32(36), binary.LittleEndian.Uint32(data[4:8]))
}

func TestWriteSamplesThenCloseRewritesSizes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	w, err := Create(path, 44100, 1)
	require.NoError(t, err)

	samples := []float32{0.1, -0.2, 0.3, -0.4}
	require.NoError(t, w.WriteSamples(samples))
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	wantDataBytes := uint32(len(samples) * 4)
	assert.Equal(t, 36+wantDataBytes, binary.LittleEndian.Uint32(data[4:8]))
	assert.Equal(t, wantDataBytes, binary.LittleEndian.Uint32(data[40:44]))

	for i, want := range samples {
		bits := binary.LittleEndian.Uint32(data[headerSize+i*4:])
		assert.Equal(t, want, math.Float32frombits(bits))
	}
}

func TestWriteAfterCloseFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	w, err := Create(path, 48000, 2)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	assert.Error(t, w.WriteSamples([]float32{0}))
}

func TestFlushHeaderReflectsBytesSoFarWithoutClosing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	w, err := Create(path, 48000, 1)
	require.NoError(t, err)
	require.NoError(t, w.WriteSamples([]float32{1, 2, 3}))
	require.NoError(t, w.FlushHeader())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, uint32(12), binary.LittleEndian.Uint32(data[40:44]))
	require.NoError(t, w.Close())
}

func TestBytesWrittenTracksDataSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	w, err := Create(path, 48000, 1)
	require.NoError(t, err)
	require.NoError(t, w.WriteSamples([]float32{1, 2}))
	assert.Equal(t, uint32(8), w.BytesWritten())
	require.NoError(t, w.Close())
}
