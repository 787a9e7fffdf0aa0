package backpressure

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextDepthStepsUpUnderPressure(t *testing.T) {
	assert.Equal(t, 4, NextDepth(2, 0.05, 0))
	assert.Equal(t, 4, NextDepth(2, 0, 0.05))
}

func TestNextDepthStepsDownWhenIdle(t *testing.T) {
	assert.Equal(t, 2, NextDepth(4, 0, 0))
}

func TestNextDepthHoldsAtLadderEnds(t *testing.T) {
	top := Ladder[len(Ladder)-1]
	assert.Equal(t, top, NextDepth(top, 0.9, 0.9))
	bottom := Ladder[0]
	assert.Equal(t, bottom, NextDepth(bottom, 0, 0))
}

func TestSmoothRateWeightsNewSample(t *testing.T) {
	got := SmoothRate(0.0, 1.0, 0.5)
	assert.InDelta(t, 0.5, got, 1e-9)
}

func TestTrackerClosesWindowAndComputesRates(t *testing.T) {
	tr := NewTracker(4, 1.0) // alpha=1 so smoothed == raw of each window
	assert.False(t, tr.Observe(false, false))
	assert.False(t, tr.Observe(false, false))
	assert.False(t, tr.Observe(false, false))
	closed := tr.Observe(true, false)
	assert.True(t, closed)
	overflow, underrun := tr.Rates()
	assert.InDelta(t, 0.25, overflow, 1e-9)
	assert.InDelta(t, 0, underrun, 1e-9)
}
