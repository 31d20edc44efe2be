// Package clock provides the monotonic time source used for rate
// calculations. Ticks are opaque platform counter values; Frequency converts
// tick deltas into seconds. The clock never runs backward within one boot and
// is immune to wall-clock and timezone adjustments, which is what makes tick
// values safe to persist between independent process invocations.
package clock

// Now returns the current monotonic tick count. A platform failure to read
// the clock is unrecoverable for sampling; callers must treat it as fatal.
func Now() (uint64, error) {
	return now()
}

// Frequency returns the tick rate of the monotonic clock in ticks per second.
// The value is constant for the lifetime of the process and may be cached.
func Frequency() (uint64, error) {
	return frequency()
}

// ElapsedSeconds converts a pair of tick values into elapsed seconds.
// It returns 0 when curr < prev (stale ticks from before a reboot, or an
// apparent counter rollover) and when freq is 0; it never returns a negative
// duration.
func ElapsedSeconds(curr, prev, freq uint64) float64 {
	if curr < prev {
		return 0
	}
	if freq == 0 {
		return 0
	}
	return float64(curr-prev) / float64(freq)
}
