package system

import (
	"fmt"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// HostStats is a snapshot of the machine for the performance report
type HostStats struct {
	Hostname     string
	Platform     string
	CPUModel     string
	LogicalCores int
	CPUPercent   float64
	MemTotalMB   uint64
	MemUsedPct   float64
}

// CollectHostStats samples CPU load over interval. Fields gopsutil cannot
// read on this platform stay zero.
func CollectHostStats(interval time.Duration) HostStats {
	s := HostStats{LogicalCores: runtime.NumCPU()}

	if info, err := host.Info(); err == nil {
		s.Hostname = info.Hostname
		s.Platform = fmt.Sprintf("%s %s", info.Platform, info.PlatformVersion)
	}
	if infos, err := cpu.Info(); err == nil && len(infos) > 0 {
		s.CPUModel = infos[0].ModelName
	}
	if n, err := cpu.Counts(true); err == nil && n > 0 {
		s.LogicalCores = n
	}
	if pct, err := cpu.Percent(interval, false); err == nil && len(pct) > 0 {
		s.CPUPercent = pct[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		s.MemTotalMB = vm.Total / 1024 / 1024
		s.MemUsedPct = vm.UsedPercent
	}
	return s
}

// DefaultWorkers is the render worker count: physical cores when known,
// otherwise every logical CPU.
func DefaultWorkers() int {
	if n, err := cpu.Counts(false); err == nil && n > 0 {
		return n
	}
	return runtime.NumCPU()
}

func (s HostStats) String() string {
	return fmt.Sprintf("%s (%s) | CPU: %s x%d @ %.1f%% | RAM: %d MB, %.1f%% used",
		s.Hostname, s.Platform, s.CPUModel, s.LogicalCores, s.CPUPercent, s.MemTotalMB, s.MemUsedPct)
}
