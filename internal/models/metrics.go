// Package models defines the metric data structures shared by the collectors,
// the sampler, and the renderers. A Snapshot is built once per sampling cycle
// and never mutated afterwards.
package models

// Snapshot represents one complete, timestamped set of metric blocks produced
// by a single sampling cycle. A block pointer is nil when its source was not
// requested or its collection failed; a non-nil block is fully populated.
type Snapshot struct {
	// Timestamp is an opaque monotonic tick count taken at the start of the
	// cycle. Frequency is the tick rate (ticks per second) needed to convert
	// tick deltas into seconds.
	Timestamp uint64 `json:"timestamp"`
	Frequency uint64 `json:"frequency"`

	CPU         *CPUStats        `json:"cpu,omitempty"`
	Memory      *MemoryStats     `json:"memory,omitempty"`
	Disks       []DiskStats      `json:"disks,omitempty"`
	Network     []InterfaceStats `json:"network,omitempty"`
	Temperature *TempStats       `json:"temperature,omitempty"`
}

// Empty reports whether no metric block at all was collected.
func (s *Snapshot) Empty() bool {
	return s.CPU == nil && s.Memory == nil && len(s.Disks) == 0 &&
		len(s.Network) == 0 && s.Temperature == nil
}

// CoreStats holds per-logical-processor usage and frequency.
type CoreStats struct {
	CoreID       int     `json:"core_id"`
	UsagePercent float64 `json:"usage_percent"`
	FrequencyMHz uint64  `json:"frequency_mhz"`
}

// CPUStats holds overall and per-core CPU usage and frequency.
type CPUStats struct {
	TotalUsagePercent   float64     `json:"total_usage_percent"`
	Cores               []CoreStats `json:"cores"`
	AverageFrequencyMHz uint64      `json:"average_frequency_mhz"`

	// Optional breakdown; nil when the platform does not expose it.
	UserPercent   *float64 `json:"user_percent,omitempty"`
	SystemPercent *float64 `json:"system_percent,omitempty"`
	IdlePercent   *float64 `json:"idle_percent,omitempty"`
}

// MemoryStats holds physical memory and swap usage.
type MemoryStats struct {
	TotalPhysicalBytes     uint64  `json:"total_physical_bytes"`
	AvailablePhysicalBytes uint64  `json:"available_physical_bytes"`
	UsedPhysicalBytes      uint64  `json:"used_physical_bytes"`
	UsagePercent           float64 `json:"usage_percent"`

	TotalSwapBytes     uint64  `json:"total_swap_bytes"`
	AvailableSwapBytes uint64  `json:"available_swap_bytes"`
	UsedSwapBytes      uint64  `json:"used_swap_bytes"`
	SwapPercent        float64 `json:"swap_percent"`

	// Optional cache breakdown; nil when unavailable.
	CachedBytes *uint64 `json:"cached_bytes,omitempty"`
}

// DiskStats holds space usage and I/O activity for a single device. The
// cumulative counters come straight from the OS; the per-second rates are
// derived from the previous snapshot by the sampler.
type DiskStats struct {
	DeviceName string `json:"device_name"`
	Mountpoint string `json:"mountpoint,omitempty"`

	TotalSizeBytes uint64 `json:"total_size_bytes"`
	UsedBytes      uint64 `json:"used_bytes"`
	FreeBytes      uint64 `json:"free_bytes"`

	BytesReadPerSec    float64 `json:"bytes_read_per_sec"`
	BytesWrittenPerSec float64 `json:"bytes_written_per_sec"`
	PercentBusy        float64 `json:"percent_busy"`

	TotalBytesRead    uint64 `json:"total_bytes_read"`
	TotalBytesWritten uint64 `json:"total_bytes_written"`
	TotalIOTimeMs     uint64 `json:"total_io_time_ms"`
}

// InterfaceStats holds traffic counters and rates for a single network
// interface. Name is the identity key used to match entries across snapshots.
type InterfaceStats struct {
	Name        string `json:"name"`
	IsConnected bool   `json:"is_connected"`

	InBytesPerSec  float64 `json:"in_bytes_per_sec"`
	OutBytesPerSec float64 `json:"out_bytes_per_sec"`

	TotalInOctets  uint64 `json:"total_in_octets"`
	TotalOutOctets uint64 `json:"total_out_octets"`
}

// SensorReading is one temperature sensor measurement.
type SensorReading struct {
	Name        string  `json:"name"`
	TempCelsius float64 `json:"temp_celsius"`
}

// TempStats holds temperature sensor readings grouped by hardware category.
type TempStats struct {
	CPUTemps   []SensorReading `json:"cpu_temps"`
	GPUTemps   []SensorReading `json:"gpu_temps"`
	OtherTemps []SensorReading `json:"other_temps"`

	MaxCPUTempCelsius float64  `json:"max_cpu_temp_celsius"`
	MinCPUTempCelsius *float64 `json:"min_cpu_temp_celsius,omitempty"`
	AvgCPUTempCelsius *float64 `json:"avg_cpu_temp_celsius,omitempty"`
}
