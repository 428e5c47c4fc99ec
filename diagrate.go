package kernel

import (
	"time"

	"github.com/joeycumines/go-catrate"
)

// diagLimiter throttles repeated diagnostic log lines keyed by category —
// e.g. "futex-wake-empty" or "ipi-target-offline" — so a storm of identical
// failures (a busy-looping caller hammering a dead futex address, a
// partitioned CPU missing every IPI) cannot flood the log at the rate the
// condition recurs. Bounded to 5 lines/second and 60/minute per category.
//
// Grounded on catrate's sliding-window Limiter, the rate-limiting library
// this module's sibling packages use for exactly this purpose.
var diagLimiter = catrate.NewLimiter(map[time.Duration]int{
	time.Second: 5,
	time.Minute: 60,
})

// diagAllowed reports whether a diagnostic log line in category should be
// emitted right now. Call sites that fire on a hot, potentially-adversarial
// path (a wait queue that never gets woken, an IPI target that never answers)
// should guard their log call with this instead of logging unconditionally.
func diagAllowed(category string) bool {
	_, ok := diagLimiter.Allow(category)
	return ok
}
