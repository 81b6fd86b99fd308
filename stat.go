package livepush

import (
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// HostStats represents host stats
type HostStats struct {
	CPU    HostStatsCPU    `json:"cpu"`
	Memory HostStatsMemory `json:"memory"`
}

// HostStatsCPU represents host cpu stats, in percent
type HostStatsCPU struct {
	Global     float64   `json:"global"`
	Individual []float64 `json:"individual"`
}

// HostStatsMemory represents host memory stats, in bytes
type HostStatsMemory struct {
	Total uint64 `json:"total"`
	Used  uint64 `json:"used"`
}

// NewHostStats computes host stats. Values that can't be computed are left empty.
// CPU percentages are computed since the previous call.
func NewHostStats() (s HostStats) {
	if vs, err := cpu.Percent(0, false); err == nil && len(vs) > 0 {
		s.CPU.Global = vs[0]
	}
	if vs, err := cpu.Percent(0, true); err == nil {
		s.CPU.Individual = vs
	}
	if vv, err := mem.VirtualMemory(); err == nil {
		s.Memory = HostStatsMemory{
			Total: vv.Total,
			Used:  vv.Used,
		}
	}
	return
}
