// Package sampler coordinates one sampling cycle: it timestamps the cycle,
// loads the previous invocation's counters, runs each source collector,
// derives per-second rates, and persists the new counters. Sources are
// sampled sequentially; a failing source degrades the snapshot instead of
// aborting it.
package sampler

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/hkmon/hkmon/internal/clock"
	"github.com/hkmon/hkmon/internal/collector"
	"github.com/hkmon/hkmon/internal/models"
	"github.com/hkmon/hkmon/internal/rate"
	"github.com/hkmon/hkmon/internal/state"
)

// Sampler orchestrates metric collection across sources and cycles.
type Sampler struct {
	collectors []collector.Collector
	store      *state.Store
	logger     *zap.Logger
	freq       uint64
}

// New creates a Sampler over the given collectors, in order. It fails when
// the monotonic clock is unavailable; there is no fallback clock.
func New(store *state.Store, logger *zap.Logger, collectors ...collector.Collector) (*Sampler, error) {
	freq, err := clock.Frequency()
	if err != nil {
		return nil, errors.Wrap(err, "monotonic clock unavailable")
	}
	return &Sampler{
		collectors: collectors,
		store:      store,
		logger:     logger,
		freq:       freq,
	}, nil
}

// Init initializes every collector. A failure is fatal: each collector here
// was explicitly requested, and there is no degraded mode before the first
// sample.
func (s *Sampler) Init(ctx context.Context) error {
	for _, c := range s.collectors {
		if err := c.Init(ctx); err != nil {
			return errors.Wrapf(err, "initializing %s source", c.Name())
		}
	}
	return nil
}

// Close releases every collector's resources.
func (s *Sampler) Close() {
	for _, c := range s.collectors {
		if err := c.Close(); err != nil {
			s.logger.Warn("Failed to close collector",
				zap.String("collector", c.Name()),
				zap.Error(err))
		}
	}
}

// Collect runs one full sampling cycle and returns the snapshot. The only
// error is a monotonic clock failure. A snapshot with every block missing is
// returned as-is; the caller decides whether "nothing collected" is a
// failure. The new counters are persisted best-effort before returning.
func (s *Sampler) Collect(ctx context.Context) (*models.Snapshot, error) {
	ts, err := clock.Now()
	if err != nil {
		return nil, err
	}

	prior, havePrior := s.store.Load()

	snap := &models.Snapshot{Timestamp: ts, Frequency: s.freq}
	for _, c := range s.collectors {
		data, err := c.Collect(ctx)
		if err != nil {
			s.logger.Warn("Source collection failed, omitting its block",
				zap.String("collector", c.Name()),
				zap.Error(err))
			continue
		}
		s.merge(snap, c.Name(), data)
	}

	if havePrior {
		applyRates(snap, prior, s.freq)
	}

	s.store.Save(snap)
	return snap, nil
}

// Run samples continuously at the given interval until ctx is cancelled,
// invoking onSnapshot after each cycle. The first sample is taken
// immediately. Cancellation is observed only between cycles: the in-flight
// cycle always finishes and persists its state before Run returns.
func (s *Sampler) Run(ctx context.Context, interval time.Duration, onSnapshot func(*models.Snapshot)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// The cycle itself must not be interrupted mid-collection, so it runs
	// under a context detached from cancellation.
	cycleCtx := context.WithoutCancel(ctx)

	snap, err := s.Collect(cycleCtx)
	if err != nil {
		return err
	}
	onSnapshot(snap)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Sampling stopped")
			return nil
		case <-ticker.C:
			snap, err := s.Collect(cycleCtx)
			if err != nil {
				return err
			}
			onSnapshot(snap)
		}
	}
}

// merge places a collector result into its snapshot block.
func (s *Sampler) merge(snap *models.Snapshot, name string, data interface{}) {
	switch v := data.(type) {
	case *models.CPUStats:
		snap.CPU = v
	case *models.MemoryStats:
		snap.Memory = v
	case []models.DiskStats:
		snap.Disks = v
	case []models.InterfaceStats:
		snap.Network = v
	case *models.TempStats:
		snap.Temperature = v
	default:
		s.logger.Warn("Collector returned an unexpected type",
			zap.String("collector", name))
	}
}

// applyRates fills the per-second rate fields of counter-bearing entries by
// matching them to the prior state by identity key. Entries with no prior
// match keep rate 0 (first observation of a new device or interface).
func applyRates(snap *models.Snapshot, prior *state.Prior, freq uint64) {
	elapsed := clock.ElapsedSeconds(snap.Timestamp, prior.Timestamp, freq)

	for i := range snap.Network {
		iface := &snap.Network[i]
		if prev, ok := prior.NetworkIn[iface.Name]; ok {
			iface.InBytesPerSec = rate.Rate(iface.TotalInOctets, prev, elapsed)
		}
		if prev, ok := prior.NetworkOut[iface.Name]; ok {
			iface.OutBytesPerSec = rate.Rate(iface.TotalOutOctets, prev, elapsed)
		}
	}

	for i := range snap.Disks {
		d := &snap.Disks[i]
		if prev, ok := prior.DiskRead[d.DeviceName]; ok {
			d.BytesReadPerSec = rate.Rate(d.TotalBytesRead, prev, elapsed)
		}
		if prev, ok := prior.DiskWrite[d.DeviceName]; ok {
			d.BytesWrittenPerSec = rate.Rate(d.TotalBytesWritten, prev, elapsed)
		}
		if prev, ok := prior.DiskIOMs[d.DeviceName]; ok {
			// io-time is milliseconds of device activity per wall second;
			// 1000 ms/sec of activity is a fully busy device.
			busy := rate.Rate(d.TotalIOTimeMs, prev, elapsed) / 10
			if busy > 100 {
				busy = 100
			}
			d.PercentBusy = busy
		}
	}
}
