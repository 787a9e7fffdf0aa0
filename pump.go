package mixengine

import (
	"time"

	"mixengine/internal/pump"
)

// Pump bridges the device adapter to the mix engine via a pair of
// lock-free rings (spec.md §4.3).
type Pump = pump.Pump

// defaultSendTimeout is the bounded wait spec.md §9's resolved open
// question specifies for Pump.Send before dropping samples and counting an
// overflow.
const defaultSendTimeout = 50 * time.Millisecond

func newPump(cfg AudioConfig) (*Pump, error) {
	return pump.New(cfg.HostType.backend(), cfg.deviceConfig())
}
