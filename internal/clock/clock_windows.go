//go:build windows

package clock

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/windows"
)

// now reads the performance counter. Like the unix monotonic clock, the
// counter starts at boot, so tick values stay comparable across separate
// invocations within the same boot session.
func now() (uint64, error) {
	c := windows.QueryPerformanceCounter()
	if c <= 0 {
		return 0, errors.New("QueryPerformanceCounter returned a non-positive value")
	}
	return uint64(c), nil
}

func frequency() (uint64, error) {
	f := windows.QueryPerformanceFrequency()
	if f <= 0 {
		return 0, errors.New("QueryPerformanceFrequency returned a non-positive value")
	}
	return uint64(f), nil
}
