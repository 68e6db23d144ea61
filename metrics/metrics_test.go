package metrics

import (
	"net"
	"testing"
	"time"
)

func TestSnapshotFormatting(t *testing.T) {
	s := Snapshot{
		TotalCPUAvailable:    8000,
		TotalMemoryAvailable: 16 * 1024 * 1024 * 1024,
		FreeGPUCount:         2,
	}

	if got := s.CPUString(); got != "8000m" {
		t.Errorf("CPUString = %q, want %q", got, "8000m")
	}
	if got := s.MemoryString(); got != "16Gi" {
		t.Errorf("MemoryString = %q, want %q", got, "16Gi")
	}
	if got := s.GPUCountString(); got != "2" {
		t.Errorf("GPUCountString = %q, want %q", got, "2")
	}
}

func TestMemoryStringRoundsDown(t *testing.T) {
	s := Snapshot{TotalMemoryAvailable: 16*1024*1024*1024 + 512*1024*1024}
	if got := s.MemoryString(); got != "16Gi" {
		t.Errorf("MemoryString = %q, want %q", got, "16Gi")
	}
}

func TestDefaultSnapshot(t *testing.T) {
	s := DefaultSnapshot()

	if s.TotalCPUAvailable == 0 {
		t.Error("default snapshot must report nonzero CPU capacity")
	}
	if s.TotalMemoryAvailable == 0 {
		t.Error("default snapshot must report nonzero memory capacity")
	}
	if s.TotalDiskSpaceBytes == 0 || s.TotalDiskFreeBytes == 0 {
		t.Error("default snapshot must report nonzero disk capacity")
	}
	if s.CPUUtilizationPct != 0 || s.MemoryUtilizationPct != 0 {
		t.Error("default snapshot must report zero utilization")
	}
}

func TestStaticProvider(t *testing.T) {
	want := Snapshot{TotalCPUAvailable: 2000, CPUUtilizationPct: 42.5}
	p := NewStaticProvider(want)

	if got := p.Snapshot(); got != want {
		t.Errorf("Snapshot = %+v, want %+v", got, want)
	}
	// Repeated calls are stable.
	if got := p.Snapshot(); got != want {
		t.Errorf("second Snapshot = %+v, want %+v", got, want)
	}
}

func TestSystemProviderNeverZeroCapacity(t *testing.T) {
	p := NewSystemProvider()

	start := time.Now()
	s := p.Snapshot()
	elapsed := time.Since(start)

	if s.TotalCPUAvailable == 0 {
		t.Error("system snapshot reported zero CPU capacity")
	}
	if s.TotalMemoryAvailable == 0 {
		t.Error("system snapshot reported zero memory capacity")
	}
	// Budget from the provider contract, with slack for slow CI hosts.
	if elapsed > 10*time.Second {
		t.Errorf("Snapshot took %v, want under 10s", elapsed)
	}
}

func TestPrivateIPv4(t *testing.T) {
	ip := PrivateIPv4()
	parsed := net.ParseIP(ip)
	if parsed == nil {
		t.Fatalf("PrivateIPv4 = %q, not an IP", ip)
	}
	if parsed.To4() == nil {
		t.Errorf("PrivateIPv4 = %q, not IPv4", ip)
	}
	if parsed.IsLinkLocalUnicast() {
		t.Errorf("PrivateIPv4 = %q, link-local addresses are excluded", ip)
	}
}
