// Physical memory and swap collector.
// Uses gopsutil for cross-platform memory metrics.
package collector

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/hkmon/hkmon/internal/models"
)

// MemoryCollector collects RAM and swap usage. Memory values are
// instantaneous; no delta math applies.
type MemoryCollector struct{}

// NewMemoryCollector creates a new memory collector.
func NewMemoryCollector() *MemoryCollector {
	return &MemoryCollector{}
}

// Name returns the collector identifier.
func (c *MemoryCollector) Name() string { return "memory" }

// Init verifies memory counters are readable.
func (c *MemoryCollector) Init(ctx context.Context) error {
	if _, err := mem.VirtualMemoryWithContext(ctx); err != nil {
		return errors.Wrap(err, "reading physical memory")
	}
	return nil
}

// Collect gathers physical memory and swap usage.
func (c *MemoryCollector) Collect(ctx context.Context) (interface{}, error) {
	v, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "reading physical memory")
	}

	stats := &models.MemoryStats{
		TotalPhysicalBytes:     v.Total,
		AvailablePhysicalBytes: v.Available,
		UsedPhysicalBytes:      v.Used,
		UsagePercent:           clampPercent(v.UsedPercent),
	}
	if v.Cached > 0 {
		cached := v.Cached
		stats.CachedBytes = &cached
	}

	// Swap is best-effort: systems without a swap device report zeroes.
	if s, err := mem.SwapMemoryWithContext(ctx); err == nil {
		stats.TotalSwapBytes = s.Total
		stats.AvailableSwapBytes = s.Free
		stats.UsedSwapBytes = s.Used
		stats.SwapPercent = clampPercent(s.UsedPercent)
	}

	return stats, nil
}

// Close releases nothing.
func (c *MemoryCollector) Close() error { return nil }
