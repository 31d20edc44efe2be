package render

import (
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/hkmon/hkmon/internal/models"
	"github.com/hkmon/hkmon/internal/rate"
)

// CSV renders one data row (optionally preceded by a header row) with a
// column set fixed by the options, so rows from consecutive continuous-mode
// cycles line up. For multi-entry blocks only the first disk and interface
// are emitted, matching the flat row shape.
func CSV(snap *models.Snapshot, opts Options, includeHeader bool) string {
	var b strings.Builder
	w := csv.NewWriter(&b)

	if includeHeader {
		w.Write(csvHeader(opts))
	}
	w.Write(csvRow(snap, opts))
	w.Flush()

	return b.String()
}

func csvHeader(opts Options) []string {
	header := []string{"timestamp", "cpu_percent", "cpu_mhz", "ram_available_mb", "ram_percent"}
	if opts.ShowDiskSpace {
		header = append(header, "disk_name", "disk_used_gb", "disk_total_gb", "disk_free_gb", "disk_used_percent")
	}
	if opts.ShowDiskIO {
		header = append(header, "io_name", "disk_read_mb_s", "disk_write_mb_s", "disk_busy_percent")
	}
	header = append(header, "net_interface", "net_recv_mbps", "net_sent_mbps")
	header = append(header, "temp_celsius")
	return header
}

func csvRow(snap *models.Snapshot, opts Options) []string {
	row := []string{timeNow().UTC().Format("2006-01-02T15:04:05Z")}

	if cpu := snap.CPU; cpu != nil {
		row = append(row,
			fmt.Sprintf("%.1f", cpu.TotalUsagePercent),
			fmt.Sprintf("%d", cpu.AverageFrequencyMHz))
	} else {
		row = append(row, "", "")
	}

	if m := snap.Memory; m != nil {
		row = append(row,
			fmt.Sprintf("%d", m.AvailablePhysicalBytes/(1024*1024)),
			fmt.Sprintf("%.1f", m.UsagePercent))
	} else {
		row = append(row, "", "")
	}

	if opts.ShowDiskSpace {
		if len(snap.Disks) > 0 {
			d := snap.Disks[0]
			const gb = 1024 * 1024 * 1024
			usedPercent := 0.0
			if d.TotalSizeBytes > 0 {
				usedPercent = float64(d.UsedBytes) / float64(d.TotalSizeBytes) * 100
			}
			row = append(row,
				d.DeviceName,
				fmt.Sprintf("%.2f", float64(d.UsedBytes)/gb),
				fmt.Sprintf("%.2f", float64(d.TotalSizeBytes)/gb),
				fmt.Sprintf("%.2f", float64(d.FreeBytes)/gb),
				fmt.Sprintf("%.1f", usedPercent))
		} else {
			row = append(row, "", "", "", "", "")
		}
	}

	if opts.ShowDiskIO {
		if len(snap.Disks) > 0 {
			d := snap.Disks[0]
			row = append(row,
				d.DeviceName,
				fmt.Sprintf("%.2f", rate.BytesPerSecToMegabytes(d.BytesReadPerSec)),
				fmt.Sprintf("%.2f", rate.BytesPerSecToMegabytes(d.BytesWrittenPerSec)),
				fmt.Sprintf("%.1f", d.PercentBusy))
		} else {
			row = append(row, "", "", "", "")
		}
	}

	if len(snap.Network) > 0 {
		iface := snap.Network[0]
		row = append(row,
			iface.Name,
			fmt.Sprintf("%.2f", rate.BytesPerSecToMegabits(iface.InBytesPerSec)),
			fmt.Sprintf("%.2f", rate.BytesPerSecToMegabits(iface.OutBytesPerSec)))
	} else {
		row = append(row, "", "", "")
	}

	if snap.Temperature != nil {
		row = append(row, fmt.Sprintf("%.0f", snap.Temperature.MaxCPUTempCelsius))
	} else {
		row = append(row, "")
	}

	return row
}
