// Package observability exposes lightweight process self-metrics for the
// status endpoint. Nothing here is on a hot path; every snapshot reads the
// OS and runtime counters on demand.
package observability

import (
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/process"
)

// ProcessStats aggregates the metrics served by /status.
type ProcessStats struct {
	PID          int     `json:"pid"`
	PidStatus    string  `json:"pid_status"`
	CPUPercent   float64 `json:"cpu_percent"`
	RSSBytes     uint64  `json:"rss_bytes"`
	AllocMemMB   uint64  `json:"alloc_mem_mb"`
	NumGC        uint32  `json:"num_gc"`
	Goroutines   int     `json:"goroutines"`
	UptimeSec    int64   `json:"uptime_sec"`
	OnlineUsers  int     `json:"online_users"`
	OpenChannels int     `json:"open_channels"`
}

// Monitor samples technical metrics (memory, CPU, OS status) for the
// running process.
type Monitor struct {
	log     *slog.Logger
	proc    *process.Process
	started time.Time
}

func NewMonitor(log *slog.Logger) (*Monitor, error) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, err
	}
	return &Monitor{log: log, proc: p, started: time.Now()}, nil
}

// Snapshot collects the current process metrics. OS-level readings that
// fail are logged and left at their zero value; the runtime counters are
// always available.
func (m *Monitor) Snapshot() ProcessStats {
	stats := ProcessStats{
		PID:       os.Getpid(),
		UptimeSec: int64(time.Since(m.started).Seconds()),
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	stats.AllocMemMB = mem.Alloc / 1024 / 1024
	stats.NumGC = mem.NumGC
	stats.Goroutines = runtime.NumGoroutine()

	if memInfo, err := m.proc.MemoryInfo(); err == nil {
		stats.RSSBytes = memInfo.RSS
	} else {
		m.log.Debug("Memory info unavailable", "err", err)
	}
	if cpuPercent, err := m.proc.CPUPercent(); err == nil {
		stats.CPUPercent = cpuPercent
	} else {
		m.log.Debug("CPU info unavailable", "err", err)
	}
	if status, err := m.proc.Status(); err == nil {
		stats.PidStatus = status
	} else {
		m.log.Debug("Process status unavailable", "err", err)
	}

	return stats
}
