package render

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/hkmon/hkmon/internal/models"
)

func fixedTime(t *testing.T) {
	t.Helper()
	old := timeNow
	timeNow = func() time.Time {
		return time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	}
	t.Cleanup(func() { timeNow = old })
}

func fullSnapshot() *models.Snapshot {
	avg := 55.0
	return &models.Snapshot{
		Timestamp: 1,
		Frequency: 1_000_000_000,
		CPU: &models.CPUStats{
			TotalUsagePercent:   42.5,
			AverageFrequencyMHz: 3200,
		},
		Memory: &models.MemoryStats{
			TotalPhysicalBytes:     16 << 30,
			AvailablePhysicalBytes: 8 << 30,
			UsedPhysicalBytes:      8 << 30,
			UsagePercent:           50,
		},
		Disks: []models.DiskStats{
			{
				DeviceName:         "sda1",
				TotalSizeBytes:     500 << 30,
				UsedBytes:          250 << 30,
				FreeBytes:          250 << 30,
				BytesReadPerSec:    1_048_576,
				BytesWrittenPerSec: 524_288,
				PercentBusy:        12.5,
			},
		},
		Network: []models.InterfaceStats{
			{
				Name:           "Ethernet",
				IsConnected:    true,
				InBytesPerSec:  2_000_000,
				OutBytesPerSec: 125_000,
			},
		},
		Temperature: &models.TempStats{
			MaxCPUTempCelsius: 61,
			AvgCPUTempCelsius: &avg,
		},
	}
}

func allOptions() Options {
	return Options{
		Format:        FormatText,
		NetUnits:      UnitBits,
		ShowDiskSpace: true,
		ShowDiskIO:    true,
	}
}

func TestText_AllSections(t *testing.T) {
	out := Text(fullSnapshot(), allOptions())
	for _, want := range []string{
		"CPU:  42.5%  3.2 GHz",
		"RAM:  8192 MB available (50.0% used)",
		"DISK: sda1 250.0 GB / 500.0 GB (50.0% used, 250.0 GB free)",
		"IO:   sda1 < 1.0 MB/s  > 524.3 KB/s  (12.5% busy)",
		"NET:  Ethernet < 16.0 Mbps  > 1.0 Mbps",
		"TEMP: CPU 61°C  (avg: 55°C)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q\ngot:\n%s", want, out)
		}
	}
}

func TestText_SingleLine(t *testing.T) {
	opts := allOptions()
	opts.SingleLine = true
	out := Text(fullSnapshot(), opts)
	if strings.Contains(out, "\n") {
		t.Errorf("single-line output contains newline:\n%s", out)
	}
	if !strings.Contains(out, "CPU:42.5%@3.2 GHz") {
		t.Errorf("unexpected single-line CPU section:\n%s", out)
	}
}

func TestText_NetUnitsBytes(t *testing.T) {
	opts := allOptions()
	opts.NetUnits = UnitBytes
	out := Text(fullSnapshot(), opts)
	if !strings.Contains(out, "NET:  Ethernet < 2.0 MB/s") {
		t.Errorf("bytes unit not honored:\n%s", out)
	}
}

func TestText_AbsentBlocks(t *testing.T) {
	snap := &models.Snapshot{Timestamp: 1}
	out := Text(snap, allOptions())
	if out != "(no metrics)" {
		t.Errorf("empty snapshot rendered as %q", out)
	}
}

func TestText_OmitsMissingSections(t *testing.T) {
	snap := fullSnapshot()
	snap.CPU = nil
	snap.Temperature = nil
	out := Text(snap, allOptions())
	if strings.Contains(out, "CPU:") || strings.Contains(out, "TEMP:") {
		t.Errorf("absent blocks must not render:\n%s", out)
	}
	if !strings.Contains(out, "RAM:") {
		t.Errorf("present blocks must render:\n%s", out)
	}
}

func TestJSON_RoundTripsAndOmitsAbsent(t *testing.T) {
	fixedTime(t)
	snap := fullSnapshot()
	snap.Temperature = nil

	out, err := JSON(snap)
	if err != nil {
		t.Fatal(err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded["schema_version"] != "1.0" {
		t.Errorf("schema_version = %v", decoded["schema_version"])
	}
	if decoded["timestamp"] != "2026-08-26T12:00:00Z" {
		t.Errorf("timestamp = %v", decoded["timestamp"])
	}
	if _, ok := decoded["temperature"]; ok {
		t.Error("absent temperature block must be omitted from JSON")
	}
	if _, ok := decoded["cpu"]; !ok {
		t.Error("cpu block missing from JSON")
	}
}

func TestCSV_HeaderMatchesRow(t *testing.T) {
	fixedTime(t)
	opts := allOptions()
	opts.Format = FormatCSV

	out := CSV(fullSnapshot(), opts, true)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header + row, got %d lines", len(lines))
	}
	header := strings.Split(lines[0], ",")
	row := strings.Split(lines[1], ",")
	if len(header) != len(row) {
		t.Errorf("header has %d columns, row has %d", len(header), len(row))
	}
	if row[0] != "2026-08-26T12:00:00Z" {
		t.Errorf("timestamp column = %q", row[0])
	}
}

func TestCSV_NoHeaderOnSubsequentRows(t *testing.T) {
	opts := allOptions()
	opts.Format = FormatCSV
	out := CSV(fullSnapshot(), opts, false)
	if strings.HasPrefix(out, "timestamp") {
		t.Error("header emitted when includeHeader is false")
	}
}

func TestCSV_AbsentBlocksLeaveEmptyCells(t *testing.T) {
	fixedTime(t)
	opts := allOptions()
	snap := &models.Snapshot{Timestamp: 1}

	out := CSV(snap, opts, true)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	header := strings.Split(lines[0], ",")
	row := strings.Split(lines[1], ",")
	if len(header) != len(row) {
		t.Errorf("header has %d columns, row has %d", len(header), len(row))
	}
	for i, cell := range row[1:] {
		if cell != "" {
			t.Errorf("column %s = %q, want empty", header[i+1], cell)
		}
	}
}

func TestRender_UnknownFormat(t *testing.T) {
	if _, err := Render(fullSnapshot(), Options{Format: "yaml"}, false); err == nil {
		t.Error("unknown format must error")
	}
}

func TestFormatHelpers(t *testing.T) {
	if got := formatBytes(1536); got != "1.5 KB" {
		t.Errorf("formatBytes(1536) = %q", got)
	}
	if got := formatBytes(512); got != "512 B" {
		t.Errorf("formatBytes(512) = %q", got)
	}
	if got := formatBytesPerSec(2_500_000); got != "2.5 MB/s" {
		t.Errorf("formatBytesPerSec = %q", got)
	}
	if got := formatBitsPerSec(1e9); got != "1.0 Gbps" {
		t.Errorf("formatBitsPerSec = %q", got)
	}
	if got := formatFrequency(3600); got != "3.6 GHz" {
		t.Errorf("formatFrequency = %q", got)
	}
}
