package proc

import (
	"fmt"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/process"
)

// SystemSampler reads CPU usage through gopsutil. CPU percentages are
// computed against the previous call, so the first sample after startup
// reads as zero; the engine tolerates that.
type SystemSampler struct{}

func NewSampler() *SystemSampler {
	return &SystemSampler{}
}

func (s *SystemSampler) SystemCPU() (float64, error) {
	percents, err := cpu.Percent(0, false)
	if err != nil {
		return 0, fmt.Errorf("sample system cpu: %w", err)
	}
	if len(percents) == 0 {
		return 0, fmt.Errorf("sample system cpu: empty sample")
	}
	return percents[0], nil
}

func (s *SystemSampler) Snapshot() ([]ProcessInfo, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, fmt.Errorf("enumerate processes: %w", err)
	}

	infos := make([]ProcessInfo, 0, len(procs))
	for _, p := range procs {
		// A process can exit mid-enumeration; skip anything that fails
		usage, err := p.CPUPercent()
		if err != nil {
			continue
		}
		name, err := p.Name()
		if err != nil {
			continue
		}
		var rss uint64
		if mem, err := p.MemoryInfo(); err == nil && mem != nil {
			rss = mem.RSS
		}
		infos = append(infos, ProcessInfo{
			PID:        int(p.Pid),
			Name:       name,
			CPUPercent: usage,
			MemoryRSS:  rss,
		})
	}
	return infos, nil
}
