//go:build linux || darwin

package clock

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// nsPerSec is the tick frequency of CLOCK_MONOTONIC expressed in nanoseconds.
const nsPerSec = 1_000_000_000

// now reads CLOCK_MONOTONIC. The counter starts at boot, so tick values stay
// comparable across separate invocations within the same boot session.
func now() (uint64, error) {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return 0, errors.Wrap(err, "reading monotonic clock")
	}
	return uint64(ts.Nano()), nil
}

func frequency() (uint64, error) {
	return nsPerSec, nil
}
