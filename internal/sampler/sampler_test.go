package sampler

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/hkmon/hkmon/internal/models"
	"github.com/hkmon/hkmon/internal/state"
)

type fakeCollector struct {
	name       string
	data       interface{}
	initErr    error
	collectErr error
	inits      int
	closes     int
}

func (f *fakeCollector) Name() string { return f.name }

func (f *fakeCollector) Init(ctx context.Context) error {
	f.inits++
	return f.initErr
}

func (f *fakeCollector) Collect(ctx context.Context) (interface{}, error) {
	if f.collectErr != nil {
		return nil, f.collectErr
	}
	return f.data, nil
}

func (f *fakeCollector) Close() error {
	f.closes++
	return nil
}

func testStore(t *testing.T) *state.Store {
	t.Helper()
	return state.NewAtPath(filepath.Join(t.TempDir(), "hkmon-test.dat"), zap.NewNop())
}

func networkData(in, out uint64) []models.InterfaceStats {
	return []models.InterfaceStats{
		{Name: "Ethernet", IsConnected: true, TotalInOctets: in, TotalOutOctets: out},
	}
}

func TestCollect_FirstCycleRatesAreZeroAndStateIsWritten(t *testing.T) {
	store := testStore(t)
	net := &fakeCollector{name: "network", data: networkData(1_000_000, 500_000)}
	disk := &fakeCollector{name: "disk", data: []models.DiskStats{
		{DeviceName: "sda", TotalBytesRead: 999, TotalBytesWritten: 888},
	}}

	s, err := New(store, zap.NewNop(), net, disk)
	if err != nil {
		t.Fatal(err)
	}
	snap, err := s.Collect(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if snap.Network[0].InBytesPerSec != 0 || snap.Network[0].OutBytesPerSec != 0 {
		t.Error("first cycle network rates must be 0")
	}
	if snap.Disks[0].BytesReadPerSec != 0 || snap.Disks[0].BytesWrittenPerSec != 0 {
		t.Error("first cycle disk rates must be 0")
	}
	if _, err := os.Stat(store.Path()); err != nil {
		t.Errorf("state file not written after first cycle: %v", err)
	}

	prior, ok := store.Load()
	if !ok {
		t.Fatal("state file written by Collect must load")
	}
	if prior.NetworkIn["Ethernet"] != 1_000_000 {
		t.Errorf("persisted NetworkIn = %d, want 1000000", prior.NetworkIn["Ethernet"])
	}
	if prior.Timestamp != snap.Timestamp {
		t.Errorf("persisted timestamp = %d, want %d", prior.Timestamp, snap.Timestamp)
	}
}

func TestCollect_SecondCycleComputesRates(t *testing.T) {
	store := testStore(t)
	net := &fakeCollector{name: "network", data: networkData(1_000_000, 500_000)}

	s, err := New(store, zap.NewNop(), net)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Collect(context.Background()); err != nil {
		t.Fatal(err)
	}

	time.Sleep(10 * time.Millisecond) // ensure a measurable elapsed interval

	net.data = networkData(3_000_000, 500_000)
	snap, err := s.Collect(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	// Elapsed wall time between the two cycles is tiny but nonzero; the rate
	// must be positive and derived from the 2 MB delta.
	if snap.Network[0].InBytesPerSec <= 0 {
		t.Errorf("in rate = %v, want > 0", snap.Network[0].InBytesPerSec)
	}
	if snap.Network[0].OutBytesPerSec != 0 {
		t.Errorf("out rate = %v, want 0 for unchanged counter", snap.Network[0].OutBytesPerSec)
	}
}

func TestCollect_OneFailingSourceDegradesNotAborts(t *testing.T) {
	store := testStore(t)
	mem := &fakeCollector{name: "memory", data: &models.MemoryStats{TotalPhysicalBytes: 1}}
	net := &fakeCollector{name: "network", collectErr: errors.New("adapter query failed")}

	s, err := New(store, zap.NewNop(), mem, net)
	if err != nil {
		t.Fatal(err)
	}
	snap, err := s.Collect(context.Background())
	if err != nil {
		t.Fatalf("cycle must not fail when one source fails: %v", err)
	}
	if snap.Memory == nil {
		t.Error("surviving source's block missing")
	}
	if snap.Network != nil {
		t.Error("failing source's block must be omitted")
	}
}

func TestCollect_AllSourcesFailingYieldsEmptySnapshot(t *testing.T) {
	store := testStore(t)
	c := &fakeCollector{name: "network", collectErr: errors.New("boom")}

	s, err := New(store, zap.NewNop(), c)
	if err != nil {
		t.Fatal(err)
	}
	snap, err := s.Collect(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !snap.Empty() {
		t.Error("snapshot must be empty when every source fails")
	}
}

func TestCollect_CorruptStateStartsFresh(t *testing.T) {
	store := testStore(t)
	if err := os.WriteFile(store.Path(), []byte("VERSION 9.9\nTIMESTAMP 1\n"), 0600); err != nil {
		t.Fatal(err)
	}
	net := &fakeCollector{name: "network", data: networkData(5_000_000, 1)}

	s, err := New(store, zap.NewNop(), net)
	if err != nil {
		t.Fatal(err)
	}
	snap, err := s.Collect(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if snap.Network[0].InBytesPerSec != 0 {
		t.Error("rates must be 0 when prior state is invalid")
	}
}

func TestInit_FailureIsFatal(t *testing.T) {
	s, err := New(testStore(t), zap.NewNop(),
		&fakeCollector{name: "cpu"},
		&fakeCollector{name: "temperature", initErr: errors.New("no sensors")})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Init(context.Background()); err == nil {
		t.Error("Init must fail when a requested source cannot initialize")
	}
}

func TestClose_ClosesEveryCollector(t *testing.T) {
	a := &fakeCollector{name: "cpu"}
	b := &fakeCollector{name: "memory"}
	s, err := New(testStore(t), zap.NewNop(), a, b)
	if err != nil {
		t.Fatal(err)
	}
	s.Close()
	if a.closes != 1 || b.closes != 1 {
		t.Errorf("closes = %d, %d; want 1, 1", a.closes, b.closes)
	}
}

func TestApplyRates_EthernetScenario(t *testing.T) {
	// Prior: 1,000,000 inbound bytes at tick T0. Current: 3,000,000 bytes at
	// T0 + frequency (one second later). Expected rate: 2,000,000 bytes/sec.
	const (
		t0   = uint64(7_000_000_000)
		freq = uint64(1_000_000_000)
	)
	snap := &models.Snapshot{
		Timestamp: t0 + freq,
		Frequency: freq,
		Network:   networkData(3_000_000, 0),
	}
	prior := &state.Prior{
		Timestamp:  t0,
		NetworkIn:  map[string]uint64{"Ethernet": 1_000_000},
		NetworkOut: map[string]uint64{"Ethernet": 0},
	}

	applyRates(snap, prior, freq)

	if got := snap.Network[0].InBytesPerSec; got != 2_000_000 {
		t.Errorf("in rate = %v, want 2000000", got)
	}
}

func TestApplyRates_UnmatchedIdentityGetsZero(t *testing.T) {
	snap := &models.Snapshot{
		Timestamp: 2_000_000_000,
		Network:   networkData(9_999_999, 1),
	}
	prior := &state.Prior{
		Timestamp: 1_000_000_000,
		NetworkIn: map[string]uint64{"Wi-Fi": 123},
	}

	applyRates(snap, prior, 1_000_000_000)

	if snap.Network[0].InBytesPerSec != 0 {
		t.Error("new identity key must start with rate 0, not a huge first delta")
	}
}

func TestApplyRates_StaleTimestampYieldsZero(t *testing.T) {
	// Prior ticks from a previous boot can exceed current ticks; elapsed is
	// then 0 and every rate must be 0.
	snap := &models.Snapshot{
		Timestamp: 1_000,
		Network:   networkData(3_000_000, 0),
	}
	prior := &state.Prior{
		Timestamp: 99_000_000_000,
		NetworkIn: map[string]uint64{"Ethernet": 1_000_000},
	}

	applyRates(snap, prior, 1_000_000_000)

	if snap.Network[0].InBytesPerSec != 0 {
		t.Error("stale prior timestamp must zero the rates")
	}
}

func TestApplyRates_DiskBusyPercent(t *testing.T) {
	const freq = uint64(1_000)
	snap := &models.Snapshot{
		Timestamp: 2_000,
		Disks: []models.DiskStats{
			{DeviceName: "sda", TotalBytesRead: 2_000, TotalBytesWritten: 0, TotalIOTimeMs: 1_500},
		},
	}
	prior := &state.Prior{
		Timestamp: 1_000, // one second earlier at freq 1000
		DiskRead:  map[string]uint64{"sda": 1_000},
		DiskWrite: map[string]uint64{"sda": 0},
		DiskIOMs:  map[string]uint64{"sda": 1_000},
	}

	applyRates(snap, prior, freq)

	if got := snap.Disks[0].BytesReadPerSec; got != 1_000 {
		t.Errorf("read rate = %v, want 1000", got)
	}
	// 500 ms of io-time over 1 s elapsed = 50% busy.
	if got := snap.Disks[0].PercentBusy; got != 50 {
		t.Errorf("busy = %v, want 50", got)
	}
}

func TestApplyRates_DiskBusyClampedTo100(t *testing.T) {
	const freq = uint64(1_000)
	snap := &models.Snapshot{
		Timestamp: 2_000,
		Disks: []models.DiskStats{
			{DeviceName: "sda", TotalIOTimeMs: 10_000},
		},
	}
	prior := &state.Prior{
		Timestamp: 1_000,
		DiskIOMs:  map[string]uint64{"sda": 0},
	}

	applyRates(snap, prior, freq)

	if got := snap.Disks[0].PercentBusy; got != 100 {
		t.Errorf("busy = %v, want clamped 100", got)
	}
}

func TestRun_StopsOnCancelAfterFinishingCycle(t *testing.T) {
	store := testStore(t)
	net := &fakeCollector{name: "network", data: networkData(1, 1)}
	s, err := New(store, zap.NewNop(), net)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cycles := 0
	err = s.Run(ctx, time.Millisecond, func(snap *models.Snapshot) {
		cycles++
		if cycles >= 3 {
			cancel()
		}
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if cycles < 3 {
		t.Errorf("cycles = %d, want >= 3", cycles)
	}
	if _, ok := store.Load(); !ok {
		t.Error("state must be persisted by the final cycle")
	}
}
