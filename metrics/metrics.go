// Package metrics produces point-in-time resource snapshots for the
// registration handshake and each keepalive heartbeat.
//
// A Provider must never fail its caller: when a probe breaks it degrades
// to a conservative default snapshot instead of returning an error, so a
// metrics problem can never take down the heartbeat loop.
package metrics

import "fmt"

// Snapshot is an ephemeral point-in-time resource measurement. The field
// names follow the gateway's machine metrics wire format. Worker, container
// and cache counters are pass-through fields reported as zero unless some
// other component fills them in.
type Snapshot struct {
	TotalCPUAvailable    int     `json:"total_cpu_available"` // millicores
	TotalMemoryAvailable int     `json:"total_memory_available"` // bytes
	TotalDiskSpaceBytes  int     `json:"total_disk_space_bytes"`
	CPUUtilizationPct    float64 `json:"cpu_utilization_pct"`
	MemoryUtilizationPct float64 `json:"memory_utilization_pct"`
	TotalDiskFreeBytes   int     `json:"total_disk_free_bytes"`
	WorkerCount          int     `json:"worker_count"`
	ContainerCount       int     `json:"container_count"`
	FreeGPUCount         int     `json:"free_gpu_count"`
	CacheUsagePct        float64 `json:"cache_usage_pct"`
	CacheCapacity        int     `json:"cache_capacity"`
	CacheMemoryUsage     int     `json:"cache_memory_usage"`
	CacheCPUUsage        float64 `json:"cache_cpu_usage"`
}

// CPUString formats the CPU capacity the way the gateway expects it in the
// registration payload, e.g. "8000m".
func (s Snapshot) CPUString() string {
	return fmt.Sprintf("%dm", s.TotalCPUAvailable)
}

// MemoryString formats the memory capacity for the registration payload,
// e.g. "16Gi". Rounds down to whole GiB.
func (s Snapshot) MemoryString() string {
	gi := s.TotalMemoryAvailable / (1024 * 1024 * 1024)
	return fmt.Sprintf("%dGi", gi)
}

// GPUCountString formats the accelerator count for the registration payload.
func (s Snapshot) GPUCountString() string {
	return fmt.Sprintf("%d", s.FreeGPUCount)
}

// Provider produces resource snapshots. Snapshot must complete quickly
// (target: under one second including any subprocess probe) and must not
// fail; implementations fall back to DefaultSnapshot on internal errors.
type Provider interface {
	Snapshot() Snapshot
}

// DefaultSnapshot is the safe fallback used when probing the machine is
// impossible: zero utilization with conservative nonzero capacity, so the
// gateway still sees a plausible machine.
func DefaultSnapshot() Snapshot {
	return Snapshot{
		TotalCPUAvailable:    4000,
		TotalMemoryAvailable: 8 * 1024 * 1024 * 1024,
		TotalDiskSpaceBytes:  100 * 1024 * 1024 * 1024,
		CPUUtilizationPct:    0,
		MemoryUtilizationPct: 0,
		TotalDiskFreeBytes:   80 * 1024 * 1024 * 1024,
	}
}
