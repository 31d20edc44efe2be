// Package render turns a snapshot into text, JSON, or CSV output. Renderers
// never fail on absent blocks: a source that was not collected is simply not
// shown.
package render

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/hkmon/hkmon/internal/models"
)

// Format selects the output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// NetUnit selects how network rates are displayed in text output.
type NetUnit string

const (
	UnitBits  NetUnit = "bits"
	UnitBytes NetUnit = "bytes"
)

// Options controls rendering.
type Options struct {
	Format     Format
	SingleLine bool
	NetUnits   NetUnit

	// The disk block carries both space and I/O data; these choose which of
	// the two views the text and CSV renderers show.
	ShowDiskSpace bool
	ShowDiskIO    bool
}

// timeNow is the wall-clock source for the human-facing timestamp; swapped
// out in tests.
var timeNow = time.Now

// Render formats the snapshot per the options. includeHeader controls the
// CSV header row and is ignored by the other formats.
func Render(snap *models.Snapshot, opts Options, includeHeader bool) (string, error) {
	switch opts.Format {
	case FormatJSON:
		return JSON(snap)
	case FormatCSV:
		return CSV(snap, opts, includeHeader), nil
	case FormatText, "":
		return Text(snap, opts), nil
	default:
		return "", errors.Errorf("unknown output format %q", opts.Format)
	}
}

// Text renders a human-readable report, one section per collected block, or
// a compact single line for status bars.
func Text(snap *models.Snapshot, opts Options) string {
	var b strings.Builder
	sep := "\n"
	if opts.SingleLine {
		sep = "  "
	}
	// ASCII markers for console compatibility: < is read/in, > is write/out.
	const arrowIn, arrowOut = "<", ">"

	if cpu := snap.CPU; cpu != nil {
		if opts.SingleLine {
			fmt.Fprintf(&b, "CPU:%.1f%%@%s", cpu.TotalUsagePercent, formatFrequency(cpu.AverageFrequencyMHz))
		} else {
			fmt.Fprintf(&b, "CPU:  %.1f%%  %s", cpu.TotalUsagePercent, formatFrequency(cpu.AverageFrequencyMHz))
		}
		b.WriteString(sep)
	}

	if m := snap.Memory; m != nil {
		availableMB := m.AvailablePhysicalBytes / (1024 * 1024)
		if opts.SingleLine {
			fmt.Fprintf(&b, "RAM:%dM", availableMB)
		} else {
			fmt.Fprintf(&b, "RAM:  %d MB available (%.1f%% used)", availableMB, m.UsagePercent)
		}
		b.WriteString(sep)
	}

	if opts.ShowDiskSpace {
		for _, d := range snap.Disks {
			if opts.SingleLine {
				fmt.Fprintf(&b, "DISK:%s:%s/%s", d.DeviceName,
					formatBytes(d.UsedBytes), formatBytes(d.TotalSizeBytes))
			} else {
				usedPercent := 0.0
				if d.TotalSizeBytes > 0 {
					usedPercent = float64(d.UsedBytes) / float64(d.TotalSizeBytes) * 100
				}
				fmt.Fprintf(&b, "DISK: %s %s / %s (%.1f%% used, %s free)",
					d.DeviceName, formatBytes(d.UsedBytes), formatBytes(d.TotalSizeBytes),
					usedPercent, formatBytes(d.FreeBytes))
			}
			b.WriteString(sep)
		}
	}

	if opts.ShowDiskIO {
		for _, d := range snap.Disks {
			if opts.SingleLine {
				fmt.Fprintf(&b, "IO:%s:%s%s%s%s", d.DeviceName,
					formatBytesPerSec(d.BytesReadPerSec), arrowIn,
					formatBytesPerSec(d.BytesWrittenPerSec), arrowOut)
			} else {
				fmt.Fprintf(&b, "IO:   %s %s %s  %s %s  (%.1f%% busy)",
					d.DeviceName,
					arrowIn, formatBytesPerSec(d.BytesReadPerSec),
					arrowOut, formatBytesPerSec(d.BytesWrittenPerSec),
					d.PercentBusy)
			}
			b.WriteString(sep)
		}
	}

	for _, iface := range snap.Network {
		in := formatNetRate(iface.InBytesPerSec, opts.NetUnits)
		out := formatNetRate(iface.OutBytesPerSec, opts.NetUnits)
		if opts.SingleLine {
			fmt.Fprintf(&b, "NET:%s:%s%s%s%s", iface.Name, in, arrowIn, out, arrowOut)
		} else {
			fmt.Fprintf(&b, "NET:  %s %s %s  %s %s", iface.Name, arrowIn, in, arrowOut, out)
			if !iface.IsConnected {
				b.WriteString("  (disconnected)")
			}
		}
		b.WriteString(sep)
	}

	if temp := snap.Temperature; temp != nil {
		if opts.SingleLine {
			fmt.Fprintf(&b, "TEMP:%.0fC", temp.MaxCPUTempCelsius)
		} else {
			fmt.Fprintf(&b, "TEMP: CPU %.0f°C", temp.MaxCPUTempCelsius)
			if temp.AvgCPUTempCelsius != nil {
				fmt.Fprintf(&b, "  (avg: %.0f°C)", *temp.AvgCPUTempCelsius)
			}
		}
		b.WriteString(sep)
	}

	out := b.String()
	if out == "" {
		return "(no metrics)"
	}
	return strings.TrimSuffix(out, sep)
}

// jsonReport is the JSON output envelope.
type jsonReport struct {
	SchemaVersion string                  `json:"schema_version"`
	Timestamp     string                  `json:"timestamp"`
	CPU           *models.CPUStats        `json:"cpu,omitempty"`
	Memory        *models.MemoryStats     `json:"memory,omitempty"`
	Disks         []models.DiskStats      `json:"disks,omitempty"`
	Network       []models.InterfaceStats `json:"network,omitempty"`
	Temperature   *models.TempStats       `json:"temperature,omitempty"`
}

// JSON renders the full snapshot; absent blocks are omitted.
func JSON(snap *models.Snapshot) (string, error) {
	report := jsonReport{
		SchemaVersion: "1.0",
		Timestamp:     timeNow().UTC().Format("2006-01-02T15:04:05Z"),
		CPU:           snap.CPU,
		Memory:        snap.Memory,
		Disks:         snap.Disks,
		Network:       snap.Network,
		Temperature:   snap.Temperature,
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "encoding snapshot")
	}
	return string(data), nil
}

// formatNetRate renders a network rate in the configured unit. Both scales
// are decimal (1 Kbps = 1000 bps, 1 KB/s = 1000 B/s).
func formatNetRate(bytesPerSec float64, unit NetUnit) string {
	if unit == UnitBytes {
		return formatBytesPerSec(bytesPerSec)
	}
	return formatBitsPerSec(bytesPerSec * 8)
}

// formatBytes renders a capacity with binary scaling (1 KB = 1024 bytes).
func formatBytes(bytes uint64) string {
	const (
		kb = 1 << 10
		mb = 1 << 20
		gb = 1 << 30
	)
	b := float64(bytes)
	switch {
	case bytes >= gb:
		return fmt.Sprintf("%.1f GB", b/gb)
	case bytes >= mb:
		return fmt.Sprintf("%.1f MB", b/mb)
	case bytes >= kb:
		return fmt.Sprintf("%.1f KB", b/kb)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// formatBytesPerSec renders a transfer rate with decimal scaling.
func formatBytesPerSec(bytesPerSec float64) string {
	switch {
	case bytesPerSec >= 1e9:
		return fmt.Sprintf("%.1f GB/s", bytesPerSec/1e9)
	case bytesPerSec >= 1e6:
		return fmt.Sprintf("%.1f MB/s", bytesPerSec/1e6)
	case bytesPerSec >= 1e3:
		return fmt.Sprintf("%.1f KB/s", bytesPerSec/1e3)
	default:
		return fmt.Sprintf("%.0f B/s", bytesPerSec)
	}
}

// formatBitsPerSec renders a network speed with decimal scaling.
func formatBitsPerSec(bitsPerSec float64) string {
	switch {
	case bitsPerSec >= 1e9:
		return fmt.Sprintf("%.1f Gbps", bitsPerSec/1e9)
	case bitsPerSec >= 1e6:
		return fmt.Sprintf("%.1f Mbps", bitsPerSec/1e6)
	case bitsPerSec >= 1e3:
		return fmt.Sprintf("%.1f Kbps", bitsPerSec/1e3)
	default:
		return fmt.Sprintf("%.0f bps", bitsPerSec)
	}
}

// formatFrequency renders MHz as GHz.
func formatFrequency(mhz uint64) string {
	return fmt.Sprintf("%.1f GHz", float64(mhz)/1000)
}
