package effectchain

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// gainProcessor is a minimal test double: multiplies every sample by Gain
// when Enabled.
type gainProcessor struct {
	id      string
	gain    float32
	enabled bool
	wetDry  float64
	inits   int
	failing bool
}

func (g *gainProcessor) ID() string        { return g.id }
func (g *gainProcessor) Name() string      { return g.id }
func (g *gainProcessor) Enabled() bool     { return g.enabled }
func (g *gainProcessor) SetEnabled(e bool) { g.enabled = e }
func (g *gainProcessor) WetDry() float64   { return g.wetDry }
func (g *gainProcessor) SetWetDry(m float64) { g.wetDry = m }
func (g *gainProcessor) Reset()            {}
func (g *gainProcessor) Initialize(sampleRate, channels int) error {
	g.inits++
	return nil
}
func (g *gainProcessor) Process(buf []float32, channels int) error {
	if g.failing {
		return errors.New("boom")
	}
	for i := range buf {
		buf[i] *= g.gain
	}
	return nil
}

func TestChainAppliesEnabledProcessorsInOrder(t *testing.T) {
	c := New()
	require.NoError(t, c.Add(&gainProcessor{id: "a", gain: 2, enabled: true}))
	require.NoError(t, c.Add(&gainProcessor{id: "b", gain: 3, enabled: true}))

	buf := []float32{1, 1, 1, 1}
	c.Process(buf, 2, nil)
	for _, v := range buf {
		assert.Equal(t, float32(6), v)
	}
}

func TestChainSkipsDisabledProcessors(t *testing.T) {
	c := New()
	require.NoError(t, c.Add(&gainProcessor{id: "a", gain: 2, enabled: false}))

	buf := []float32{1, 1}
	c.Process(buf, 1, nil)
	assert.Equal(t, []float32{1, 1}, buf)
}

func TestChainRemoveDropsProcessor(t *testing.T) {
	c := New()
	require.NoError(t, c.Add(&gainProcessor{id: "a", gain: 2, enabled: true}))
	assert.True(t, c.Remove("a"))
	assert.False(t, c.Remove("a"))
	assert.Equal(t, 0, c.Len())

	buf := []float32{1}
	c.Process(buf, 1, nil)
	assert.Equal(t, float32(1), buf[0])
}

func TestChainSetFormatInitializesExistingProcessors(t *testing.T) {
	c := New()
	g := &gainProcessor{id: "a", gain: 1, enabled: true}
	require.NoError(t, c.Add(g))
	require.NoError(t, c.SetFormat(48000, 2))
	assert.Equal(t, 1, g.inits)

	g2 := &gainProcessor{id: "b", gain: 1, enabled: true}
	require.NoError(t, c.Add(g2))
	assert.Equal(t, 1, g2.inits, "processors added after SetFormat initialize immediately on Add")
}

func TestChainProcessReportsErrorsWithoutStopping(t *testing.T) {
	c := New()
	require.NoError(t, c.Add(&gainProcessor{id: "bad", failing: true, enabled: true}))
	require.NoError(t, c.Add(&gainProcessor{id: "good", gain: 5, enabled: true}))

	var failedID string
	buf := []float32{1}
	c.Process(buf, 1, func(id string, err error) { failedID = id })
	assert.Equal(t, "bad", failedID)
	assert.Equal(t, float32(5), buf[0])
}

func TestChainClearEmptiesProcessors(t *testing.T) {
	c := New()
	require.NoError(t, c.Add(&gainProcessor{id: "a", enabled: true}))
	c.Clear()
	assert.Equal(t, 0, c.Len())
}

// TestConcurrentMutationDoesNotRaceWithProcess exercises the mutex-guarded
// mutation path racing the atomic-snapshot hot path, the property spec.md's
// per-cycle mix loop relies on: Process must always see either an empty
// chain or a fully-initialized processor list, never a partially built one.
func TestConcurrentMutationDoesNotRaceWithProcess(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		c := New()
		n := rapid.IntRange(1, 8).Draw(rt, "n")

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := 0; i < n; i++ {
				_ = c.Add(&gainProcessor{id: string(rune('a' + i)), gain: 1, enabled: true})
			}
		}()
		go func() {
			defer wg.Done()
			buf := make([]float32, 4)
			for i := 0; i < 50; i++ {
				c.Process(buf, 2, nil)
			}
		}()
		wg.Wait()
		assert.Equal(rt, n, c.Len())
	})
}
