// Disk space and I/O collector.
// Uses gopsutil for cross-platform disk metrics.
package collector

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v3/disk"
	"go.uber.org/zap"

	"github.com/hkmon/hkmon/internal/models"
)

// pseudoFSTypes contains filesystem types excluded from disk metrics:
// virtual/system filesystems and network/remote filesystems that don't
// represent local storage devices.
var pseudoFSTypes = map[string]bool{
	// Virtual / system filesystems
	"devfs":       true,
	"autofs":      true,
	"nullfs":      true,
	"tmpfs":       true,
	"sysfs":       true,
	"proc":        true,
	"procfs":      true,
	"devtmpfs":    true,
	"cgroup":      true,
	"cgroup2":     true,
	"overlay":     true,
	"squashfs":    true,
	"nsfs":        true,
	"pstore":      true,
	"debugfs":     true,
	"tracefs":     true,
	"securityfs":  true,
	"configfs":    true,
	"fusectl":     true,
	"mqueue":      true,
	"hugetlbfs":   true,
	"binfmt_misc": true,
	"efivarfs":    true,
	"bpf":         true,
	"ramfs":       true,

	// Network / remote filesystems
	"nfs":         true,
	"nfs4":        true,
	"cifs":        true,
	"smbfs":       true,
	"fuse.sshfs":  true,
	"fuse.rclone": true,
	"9p":          true,
	"afs":         true,
	"glusterfs":   true,
	"lustre":      true,
	"ceph":        true,
	"fuse.ceph":   true,
	"davfs2":      true,
}

// isSystemMount returns true for macOS system volumes and other OS-internal
// mount points that shouldn't be reported.
func isSystemMount(mount string) bool {
	systemPrefixes := []string{
		"/System/Volumes/",
		"/private/var/vm",
	}
	for _, prefix := range systemPrefixes {
		if strings.HasPrefix(mount, prefix) {
			return true
		}
	}
	return false
}

// DiskCollector collects per-device space usage and cumulative I/O counters.
// The device name is the identity key matched across snapshots. No aggregate
// pseudo-device is ever reported.
type DiskCollector struct {
	logger *zap.Logger
}

// NewDiskCollector creates a new disk collector.
func NewDiskCollector(logger *zap.Logger) *DiskCollector {
	return &DiskCollector{logger: logger}
}

// Name returns the collector identifier.
func (c *DiskCollector) Name() string { return "disk" }

// Init verifies the partition table is readable.
func (c *DiskCollector) Init(ctx context.Context) error {
	if _, err := disk.PartitionsWithContext(ctx, false); err != nil {
		return errors.Wrap(err, "enumerating partitions")
	}
	return nil
}

// Collect gathers space usage for all real partitions and cumulative read/
// write/io-time counters per backing device. Inaccessible partitions are
// skipped; a device with no matching I/O counters keeps its counters at 0.
func (c *DiskCollector) Collect(ctx context.Context) (interface{}, error) {
	partitions, err := disk.PartitionsWithContext(ctx, false)
	if err != nil {
		return nil, errors.Wrap(err, "enumerating partitions")
	}

	// Cumulative counters keyed by device name ("sda1", "C:").
	// Failure is tolerated: space metrics remain useful without I/O data.
	ioCounters, err := disk.IOCountersWithContext(ctx)
	if err != nil {
		c.logger.Debug("Disk I/O counters unavailable", zap.Error(err))
		ioCounters = nil
	}

	var results []models.DiskStats
	seen := make(map[string]bool)
	for _, p := range partitions {
		if pseudoFSTypes[p.Fstype] || isSystemMount(p.Mountpoint) {
			continue
		}

		device := deviceName(p.Device)
		if device == "" || seen[device] {
			continue
		}

		usage, err := disk.UsageWithContext(ctx, p.Mountpoint)
		if err != nil {
			c.logger.Debug("Skipping inaccessible partition",
				zap.String("mount", p.Mountpoint),
				zap.Error(err))
			continue
		}
		if usage.Total == 0 {
			continue
		}
		seen[device] = true

		stats := models.DiskStats{
			DeviceName:     device,
			Mountpoint:     p.Mountpoint,
			TotalSizeBytes: usage.Total,
			UsedBytes:      usage.Used,
			FreeBytes:      usage.Free,
		}
		if io, ok := ioCounters[device]; ok {
			stats.TotalBytesRead = io.ReadBytes
			stats.TotalBytesWritten = io.WriteBytes
			stats.TotalIOTimeMs = io.IoTime
		}
		results = append(results, stats)
	}

	if len(results) == 0 {
		return nil, errors.New("no disks found")
	}
	return results, nil
}

// Close releases nothing.
func (c *DiskCollector) Close() error { return nil }

// deviceName reduces a partition's device path to its identity key:
// "/dev/sda1" -> "sda1", "C:" stays "C:".
func deviceName(device string) string {
	device = strings.TrimSpace(device)
	if strings.HasSuffix(device, ":") {
		return device
	}
	return filepath.Base(device)
}
