// Package state persists the cumulative counters of the most recent snapshot
// so rates can be computed across independent process invocations. The file
// is an optimization hint, never ground truth: anything that fails validation
// on load is treated as if no state existed at all.
package state

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/hkmon/hkmon/internal/models"
)

// formatVersion is written to every state file. Loads accept any 1.x file.
const formatVersion = "1.0"

// Prior holds the previous invocation's cumulative counters keyed by device
// or interface identity, plus the monotonic tick timestamp they were taken at.
type Prior struct {
	Timestamp uint64

	NetworkIn  map[string]uint64
	NetworkOut map[string]uint64
	DiskRead   map[string]uint64
	DiskWrite  map[string]uint64
	DiskIOMs   map[string]uint64
}

func newPrior() *Prior {
	return &Prior{
		NetworkIn:  make(map[string]uint64),
		NetworkOut: make(map[string]uint64),
		DiskRead:   make(map[string]uint64),
		DiskWrite:  make(map[string]uint64),
		DiskIOMs:   make(map[string]uint64),
	}
}

// Store owns the state file's lifecycle. No other component touches the path.
// Concurrent instances of the same tool are not synchronized; the last writer
// wins, which the load-side validation makes safe.
type Store struct {
	path   string
	logger *zap.Logger
}

// New creates a Store whose file lives in the per-user temporary directory,
// keyed by application name so unrelated tools do not collide.
func New(appName string, logger *zap.Logger) *Store {
	return NewAtPath(filepath.Join(os.TempDir(), appName+".dat"), logger)
}

// NewAtPath creates a Store at an explicit file path.
func NewAtPath(path string, logger *zap.Logger) *Store {
	return &Store{path: path, logger: logger}
}

// Path returns the state file location.
func (s *Store) Path() string { return s.path }

// Load reads and validates the state file. The second return value is false
// — meaning "no prior state, start from a fresh baseline" — when the file
// does not exist, cannot be read, carries an incompatible version, or has any
// malformed line. A partially valid file is never partially trusted.
func (s *Store) Load() (*Prior, bool) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("Failed to read state file, starting fresh",
				zap.String("path", s.path),
				zap.Error(err))
		}
		return nil, false
	}

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) < 2 {
		s.logger.Warn("State file truncated, starting fresh", zap.String("path", s.path))
		return nil, false
	}

	version, ok := strings.CutPrefix(lines[0], "VERSION ")
	if !ok || !strings.HasPrefix(version, "1.") {
		s.logger.Warn("State file version mismatch, starting fresh",
			zap.String("path", s.path),
			zap.String("version", version))
		return nil, false
	}

	tsField, ok := strings.CutPrefix(lines[1], "TIMESTAMP ")
	if !ok {
		s.logger.Warn("State file missing timestamp, starting fresh", zap.String("path", s.path))
		return nil, false
	}
	timestamp, err := strconv.ParseUint(tsField, 10, 64)
	if err != nil {
		s.logger.Warn("State file timestamp malformed, starting fresh",
			zap.String("path", s.path),
			zap.Error(err))
		return nil, false
	}

	prior := newPrior()
	prior.Timestamp = timestamp

	for _, line := range lines[2:] {
		if line == "" {
			continue
		}
		// The value is everything after the last space; identity keys may
		// themselves contain spaces (interface aliases like "Ethernet 2").
		i := strings.LastIndexByte(line, ' ')
		if i <= 0 {
			s.logger.Warn("State file data line malformed, starting fresh",
				zap.String("path", s.path),
				zap.String("line", line))
			return nil, false
		}
		value, err := strconv.ParseUint(line[i+1:], 10, 64)
		if err != nil {
			s.logger.Warn("State file value malformed, starting fresh",
				zap.String("path", s.path),
				zap.String("line", line))
			return nil, false
		}
		// Well-formed lines with unrecognized keys are ignored so newer
		// versions can add counters without invalidating older readers.
		applyEntry(prior, line[:i], value)
	}

	return prior, true
}

// applyEntry routes one <SOURCE>_<ID>_<FIELD> key into the right counter map.
// The identity may itself contain underscores, so the field is taken from the
// last underscore.
func applyEntry(prior *Prior, key string, value uint64) {
	id, field, ok := splitKey(key, "NETWORK_")
	if ok {
		switch field {
		case "IN":
			prior.NetworkIn[id] = value
		case "OUT":
			prior.NetworkOut[id] = value
		}
		return
	}
	id, field, ok = splitKey(key, "DISK_")
	if ok {
		switch field {
		case "READ":
			prior.DiskRead[id] = value
		case "WRITE":
			prior.DiskWrite[id] = value
		case "IOMS":
			prior.DiskIOMs[id] = value
		}
	}
}

// splitKey extracts the identity and field from a prefixed key,
// e.g. "NETWORK_Ethernet 2_IN" -> ("Ethernet 2", "IN").
func splitKey(key, prefix string) (id, field string, ok bool) {
	rest, found := strings.CutPrefix(key, prefix)
	if !found {
		return "", "", false
	}
	i := strings.LastIndexByte(rest, '_')
	if i <= 0 {
		return "", "", false
	}
	return rest[:i], rest[i+1:], true
}

// Save writes the snapshot's cumulative counters and timestamp, replacing any
// previous file. Persistence is best-effort: failures are logged and reported
// as false, and must never gate the caller's primary output.
func (s *Store) Save(snap *models.Snapshot) bool {
	var b strings.Builder
	fmt.Fprintf(&b, "VERSION %s\n", formatVersion)
	fmt.Fprintf(&b, "TIMESTAMP %d\n", snap.Timestamp)

	for _, iface := range snap.Network {
		name := sanitizeKey(iface.Name)
		fmt.Fprintf(&b, "NETWORK_%s_IN %d\n", name, iface.TotalInOctets)
		fmt.Fprintf(&b, "NETWORK_%s_OUT %d\n", name, iface.TotalOutOctets)
	}
	for _, d := range snap.Disks {
		name := sanitizeKey(d.DeviceName)
		fmt.Fprintf(&b, "DISK_%s_READ %d\n", name, d.TotalBytesRead)
		fmt.Fprintf(&b, "DISK_%s_WRITE %d\n", name, d.TotalBytesWritten)
		fmt.Fprintf(&b, "DISK_%s_IOMS %d\n", name, d.TotalIOTimeMs)
	}

	// 0600: the file carries no secrets, but there is no reason to let other
	// accounts write a file we will read back.
	if err := os.WriteFile(s.path, []byte(b.String()), 0600); err != nil {
		s.logger.Warn("Failed to save state file",
			zap.String("path", s.path),
			zap.Error(err))
		return false
	}
	return true
}

// sanitizeKey replaces only the characters that would break the line format.
// Spaces are fine in key names: the field is delimited by the last underscore
// and the value by the last space.
func sanitizeKey(key string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '\t', '\n', '\r':
			return '_'
		}
		return r
	}, key)
}
