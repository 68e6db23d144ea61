package metrics

import (
	"context"
	"net"
	"os/exec"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"
)

const (
	// cpuSampleWindow bounds the utilization sample so a snapshot stays
	// well under the one second budget.
	cpuSampleWindow = 100 * time.Millisecond

	// gpuProbeTimeout bounds the nvidia-smi subprocess.
	gpuProbeTimeout = 5 * time.Second

	diskRoot = "/"
)

// SystemProvider probes the host with gopsutil plus an nvidia-smi
// subprocess for accelerator count. Every probe degrades independently:
// a failing source contributes its default value and the snapshot is
// still produced.
type SystemProvider struct{}

// NewSystemProvider returns a provider that measures the local host.
func NewSystemProvider() *SystemProvider {
	return &SystemProvider{}
}

// Snapshot gathers current host metrics. It never fails; unprobeable
// values come from DefaultSnapshot.
func (p *SystemProvider) Snapshot() Snapshot {
	s := DefaultSnapshot()

	if count, err := cpu.Counts(true); err == nil && count > 0 {
		s.TotalCPUAvailable = count * 1000
	}
	if pct, err := cpu.Percent(cpuSampleWindow, false); err == nil && len(pct) > 0 {
		s.CPUUtilizationPct = pct[0]
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		s.TotalMemoryAvailable = int(vm.Total)
		s.MemoryUtilizationPct = vm.UsedPercent
	}

	if du, err := disk.Usage(diskRoot); err == nil {
		s.TotalDiskSpaceBytes = int(du.Total)
		s.TotalDiskFreeBytes = int(du.Free)
	}

	s.FreeGPUCount = DetectGPUCount()
	return s
}

// DetectGPUCount returns the number of NVIDIA accelerators visible to
// nvidia-smi, or 0 when the tool is missing, times out, or fails.
func DetectGPUCount() int {
	ctx, cancel := context.WithTimeout(context.Background(), gpuProbeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "nvidia-smi", "--query-gpu=name", "--format=csv,noheader")
	output, err := cmd.Output()
	if err != nil {
		return 0
	}

	count := 0
	for _, line := range strings.Split(strings.TrimSpace(string(output)), "\n") {
		if strings.TrimSpace(line) != "" {
			count++
		}
	}
	return count
}

// PrivateIPv4 returns a best-effort private IPv4 address for this machine,
// skipping loopback and link-local interfaces. Falls back to 127.0.0.1.
func PrivateIPv4() string {
	ifaces, err := net.Interfaces()
	if err != nil {
		return "127.0.0.1"
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipNet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			ip := ipNet.IP.To4()
			if ip == nil || ip.IsLoopback() || ip.IsLinkLocalUnicast() {
				continue
			}
			return ip.String()
		}
	}
	return "127.0.0.1"
}
