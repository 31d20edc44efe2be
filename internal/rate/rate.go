// Package rate converts pairs of cumulative counter observations into
// per-second rates. All functions are pure and stateless.
package rate

// Rate computes (current - previous) / elapsedSeconds in the counter's
// native unit per second.
//
// Edge cases:
//   - elapsedSeconds <= 0 returns 0 (back-to-back samples faster than the
//     clock resolution must not divide by zero).
//   - current < previous returns 0 (counter reset after device replacement,
//     OS counter wrap, or a stale state entry for an unrelated device).
//
// There is no clamping otherwise: a huge delta accumulated over a long idle
// period between single-shot invocations is reported as-is.
func Rate(current, previous uint64, elapsedSeconds float64) float64 {
	if elapsedSeconds <= 0 {
		return 0
	}
	if current < previous {
		return 0
	}
	return float64(current-previous) / elapsedSeconds
}

// BytesPerSecToMegabits converts bytes/sec to megabits/sec.
// Decimal megabits: 1 Mbps = 1,000,000 bits/sec.
func BytesPerSecToMegabits(bytesPerSec float64) float64 {
	return bytesPerSec * 8 / 1_000_000
}

// BytesPerSecToMegabytes converts bytes/sec to megabytes/sec.
// Decimal megabytes: 1 MB/s = 1,000,000 bytes/sec (not 1,048,576).
func BytesPerSecToMegabytes(bytesPerSec float64) float64 {
	return bytesPerSec / 1_000_000
}
