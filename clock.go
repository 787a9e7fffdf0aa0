package mixengine

import "mixengine/internal/clock"

// MasterClock is the authoritative sample timeline every clock-bound source
// renders against (spec.md §4.4).
type MasterClock = clock.Clock

// ClockMode selects realtime dropout semantics or offline blocking-wait
// semantics.
type ClockMode = clock.Mode

const (
	RealtimeMode = clock.Realtime
	OfflineMode  = clock.Offline
)

// NewMasterClock creates a MasterClock for the given sample rate and channel
// count, starting at position 0 in RealtimeMode.
func NewMasterClock(sampleRate, channels int) *MasterClock {
	return clock.New(sampleRate, channels)
}
