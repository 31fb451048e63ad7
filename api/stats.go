package api

import (
	"sync/atomic"
	"time"

	"github.com/khaledhikmat/dogscan-go/model"
)

// Stats counts served scans. Safe for concurrent use.
type Stats struct {
	startTime     time.Time
	scans         atomic.Int64
	failures      atomic.Int64
	pipelineNanos atomic.Int64
}

func NewStats() *Stats {
	return &Stats{startTime: time.Now()}
}

func (s *Stats) success(elapsed time.Duration) {
	s.scans.Add(1)
	s.pipelineNanos.Add(int64(elapsed))
}

func (s *Stats) failure() {
	s.failures.Add(1)
}

func (s *Stats) Snapshot(address string) model.ServerStats {
	stats := model.ServerStats{
		Address:       address,
		TotalScans:    s.scans.Load(),
		TotalFailures: s.failures.Load(),
		Uptime:        int64(time.Since(s.startTime).Seconds()),
	}

	if stats.Uptime > 0 {
		stats.AvgScansPerMin = float64(stats.TotalScans) / (float64(stats.Uptime) / 60.0)
	}
	if stats.TotalScans > 0 {
		stats.AvgPipelineTime = time.Duration(s.pipelineNanos.Load() / stats.TotalScans).Seconds()
	}
	return stats
}
