// Temperature sensor collector — gathers thermal readings and buckets them
// by hardware category. Uses gopsutil host sensors.
package collector

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v3/host"
	"go.uber.org/zap"

	"github.com/hkmon/hkmon/internal/models"
)

// Sensor name substrings used to identify CPU temperature sensors across platforms.
// Linux:  coretemp_core_0_input, k10temp_tctl_input, acpitz_temp1_input
// macOS:  TC0P (CPU proximity), TC0D (CPU die), TCXC (CPU core)
// Windows: CPU Package, CPU Core #0, etc.
var cpuSensorKeys = []string{
	"cpu", "core", "package",
	"tctl", "tdie", "k10temp", "coretemp",
	"tc0p", "tc0d", "tcxc",
	"acpitz", "zenpower",
}

// Sensor name substrings used to identify GPU temperature sensors across platforms.
var gpuSensorKeys = []string{
	"gpu", "nvidia", "radeon",
	"tg0p", "tg0d",
	"amdgpu", "nouveau",
}

// Readings outside this range are sensor errors, not measurements.
const (
	minValidTemp = 0.0
	maxValidTemp = 150.0
)

// TemperatureCollector collects temperature sensor readings. Values are
// instantaneous; no delta math applies.
type TemperatureCollector struct {
	logger *zap.Logger
}

// NewTemperatureCollector creates a new temperature collector.
func NewTemperatureCollector(logger *zap.Logger) *TemperatureCollector {
	return &TemperatureCollector{logger: logger}
}

// Name returns the collector identifier.
func (c *TemperatureCollector) Name() string { return "temperature" }

// Init verifies at least one sensor is readable. Many systems expose none
// without elevated privileges; that is an Init failure so a user who
// explicitly asked for temperatures finds out immediately.
func (c *TemperatureCollector) Init(ctx context.Context) error {
	temps, err := host.SensorsTemperaturesWithContext(ctx)
	if err != nil && len(temps) == 0 {
		return errors.Wrap(err, "reading temperature sensors")
	}
	return nil
}

// Collect gathers all valid sensor readings, bucketed CPU/GPU/other, with
// max/min/avg summaries over the CPU bucket.
func (c *TemperatureCollector) Collect(ctx context.Context) (interface{}, error) {
	temps, err := host.SensorsTemperaturesWithContext(ctx)
	if err != nil && len(temps) == 0 {
		return nil, errors.Wrap(err, "reading temperature sensors")
	}

	stats := &models.TempStats{}
	for _, t := range temps {
		if !isValidTemperature(t.Temperature) {
			c.logger.Debug("Discarding implausible sensor reading",
				zap.String("sensor", t.SensorKey),
				zap.Float64("temp_c", t.Temperature))
			continue
		}
		reading := models.SensorReading{
			Name:        t.SensorKey,
			TempCelsius: t.Temperature,
		}
		name := strings.ToLower(t.SensorKey)
		switch {
		case matchesSensor(name, cpuSensorKeys):
			stats.CPUTemps = append(stats.CPUTemps, reading)
		case matchesSensor(name, gpuSensorKeys):
			stats.GPUTemps = append(stats.GPUTemps, reading)
		default:
			stats.OtherTemps = append(stats.OtherTemps, reading)
		}
	}

	if len(stats.CPUTemps) == 0 && len(stats.GPUTemps) == 0 && len(stats.OtherTemps) == 0 {
		return nil, errors.New("no valid temperature readings")
	}

	summarizeCPUTemps(stats)
	return stats, nil
}

// Close releases nothing.
func (c *TemperatureCollector) Close() error { return nil }

// summarizeCPUTemps fills the max/min/avg fields from the CPU bucket.
func summarizeCPUTemps(stats *models.TempStats) {
	if len(stats.CPUTemps) == 0 {
		return
	}
	maxT := stats.CPUTemps[0].TempCelsius
	minT := maxT
	var sum float64
	for _, r := range stats.CPUTemps {
		if r.TempCelsius > maxT {
			maxT = r.TempCelsius
		}
		if r.TempCelsius < minT {
			minT = r.TempCelsius
		}
		sum += r.TempCelsius
	}
	avg := sum / float64(len(stats.CPUTemps))
	stats.MaxCPUTempCelsius = maxT
	stats.MinCPUTempCelsius = &minT
	stats.AvgCPUTempCelsius = &avg
}

// matchesSensor checks if the sensor name contains any of the given key substrings.
func matchesSensor(name string, keys []string) bool {
	for _, key := range keys {
		if strings.Contains(name, key) {
			return true
		}
	}
	return false
}

// isValidTemperature returns true if the temperature is within a plausible range.
func isValidTemperature(temp float64) bool {
	return temp > minValidTemp && temp <= maxValidTemp
}
