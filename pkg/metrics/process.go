package metrics

import (
	"os"

	"github.com/shirou/gopsutil/v3/process"
)

// ProcessStats is a snapshot of the current process's resource usage.
type ProcessStats struct {
	ResidentBytes uint64  `json:"resident_bytes"`
	VirtualBytes  uint64  `json:"virtual_bytes"`
	Threads       int32   `json:"threads"`
	CPUSeconds    float64 `json:"cpu_seconds"`
}

// ReadProcessStats samples the current process. Fields the platform cannot
// report are left zero.
func ReadProcessStats() (ProcessStats, error) {
	proc, err := process.NewProcess(int32(os.Getpid())) //nolint:gosec // G115: pids fit in int32
	if err != nil {
		return ProcessStats{}, err
	}

	var stats ProcessStats
	memInfo, err := proc.MemoryInfo()
	if err != nil {
		return ProcessStats{}, err
	}
	stats.ResidentBytes = memInfo.RSS
	stats.VirtualBytes = memInfo.VMS

	if times, err := proc.Times(); err == nil {
		stats.CPUSeconds = times.User + times.System
	}
	stats.Threads, _ = proc.NumThreads()
	return stats, nil
}

// ObserveProcess sets the resident memory gauge from stats.
func (c *Collector) ObserveProcess(stats ProcessStats) {
	c.residentBytes.Set(float64(stats.ResidentBytes))
}
