// CPU usage and frequency collector.
// Uses gopsutil for cross-platform CPU metrics.
package collector

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v3/cpu"

	"github.com/hkmon/hkmon/internal/models"
)

// cpuWarmup is how long Init waits after priming the usage counters so the
// first Collect has a measurable interval to compare against.
const cpuWarmup = 100 * time.Millisecond

// CPUCollector collects overall and per-core CPU usage plus core frequencies.
// Usage percentages are computed from the kernel's cumulative CPU-time
// counters between successive calls, so Init primes a baseline.
type CPUCollector struct {
	prevTimes []cpu.TimesStat
}

// NewCPUCollector creates a new CPU collector.
func NewCPUCollector() *CPUCollector {
	return &CPUCollector{}
}

// Name returns the collector identifier.
func (c *CPUCollector) Name() string { return "cpu" }

// Init primes the usage baselines and waits briefly so that the first
// Collect in single-shot mode measures a real interval.
func (c *CPUCollector) Init(ctx context.Context) error {
	if _, err := cpu.PercentWithContext(ctx, 0, false); err != nil {
		return errors.Wrap(err, "priming cpu usage counters")
	}
	// Per-core priming failures are tolerated later, so this one is too.
	_, _ = cpu.PercentWithContext(ctx, 0, true)

	if times, err := cpu.TimesWithContext(ctx, false); err == nil {
		c.prevTimes = times
	}

	select {
	case <-time.After(cpuWarmup):
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

// Collect gathers usage since the previous call (or Init) and the current
// core frequencies.
func (c *CPUCollector) Collect(ctx context.Context) (interface{}, error) {
	overall, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return nil, errors.Wrap(err, "reading cpu usage")
	}
	if len(overall) == 0 {
		return nil, errors.New("no cpu usage data")
	}

	stats := &models.CPUStats{
		TotalUsagePercent: clampPercent(overall[0]),
	}

	// Per-core usage is best-effort: overall alone is a valid result.
	if cores, err := cpu.PercentWithContext(ctx, 0, true); err == nil {
		stats.Cores = make([]models.CoreStats, len(cores))
		for i, pct := range cores {
			stats.Cores[i] = models.CoreStats{
				CoreID:       i,
				UsagePercent: clampPercent(pct),
			}
		}
	}

	c.fillFrequencies(ctx, stats)
	c.fillBreakdown(ctx, stats)

	return stats, nil
}

// Close releases nothing; the kernel counters need no teardown.
func (c *CPUCollector) Close() error { return nil }

// fillFrequencies sets per-core and average frequency in MHz.
// Failure is non-fatal: frequencies stay 0.
func (c *CPUCollector) fillFrequencies(ctx context.Context, stats *models.CPUStats) {
	infos, err := cpu.InfoWithContext(ctx)
	if err != nil || len(infos) == 0 {
		return
	}

	var sum uint64
	var counted uint64
	for i, info := range infos {
		mhz := uint64(info.Mhz)
		if i < len(stats.Cores) {
			stats.Cores[i].FrequencyMHz = mhz
		}
		sum += mhz
		counted++
	}
	// Some platforms report one InfoStat for the whole package; reuse its
	// frequency for every core rather than leaving them at 0.
	if len(infos) == 1 {
		for i := range stats.Cores {
			stats.Cores[i].FrequencyMHz = uint64(infos[0].Mhz)
		}
	}
	if counted > 0 {
		stats.AverageFrequencyMHz = sum / counted
	}
}

// fillBreakdown derives user/system/idle percentages from the cumulative
// CPU-time counters since the previous call. First call after Init may have
// no baseline; the breakdown is simply left unset.
func (c *CPUCollector) fillBreakdown(ctx context.Context, stats *models.CPUStats) {
	times, err := cpu.TimesWithContext(ctx, false)
	if err != nil || len(times) == 0 {
		return
	}
	defer func() { c.prevTimes = times }()

	if len(c.prevTimes) == 0 {
		return
	}

	curr, prev := times[0], c.prevTimes[0]
	user := curr.User - prev.User
	system := curr.System - prev.System
	idle := curr.Idle - prev.Idle
	total := (curr.Total() - prev.Total())
	if total <= 0 || user < 0 || system < 0 || idle < 0 {
		return
	}

	userPct := clampPercent(user / total * 100)
	systemPct := clampPercent(system / total * 100)
	idlePct := clampPercent(idle / total * 100)
	stats.UserPercent = &userPct
	stats.SystemPercent = &systemPct
	stats.IdlePercent = &idlePct
}

// clampPercent bounds a percentage to [0, 100]; counter jitter can push the
// raw computation slightly outside.
func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
