// Package observability aggregates relay metrics for the health endpoint.
package observability

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/process"
)

// Stats is the snapshot served by the health endpoint.
type Stats struct {
	OpenSessions     int    `json:"open_sessions"`
	MessagesRelayed  uint64 `json:"messages_relayed"`
	SignalsRelayed   uint64 `json:"signals_relayed"`
	SignalsDropped   uint64 `json:"signals_dropped"`
	PushFailures     uint64 `json:"push_failures"`
	CensoredMessages uint64 `json:"censored_messages"`

	AllocMemMb uint64  `json:"alloc_mem_mb"`
	NumGC      uint32  `json:"num_gc"`
	ProcessRSS uint64  `json:"process_rss_mb"`
	ProcessCPU float64 `json:"process_cpu_percent"`
}

// SessionCounter decouples the monitor from the presence registry.
type SessionCounter interface {
	CountSessions() int
}

// Monitor keeps cheap atomic counters updated on the hot path and folds in
// process-level stats periodically.
type Monitor struct {
	log      *slog.Logger
	sessions SessionCounter

	mu     sync.RWMutex
	latest Stats

	messagesRelayed  uint64
	signalsRelayed   uint64
	signalsDropped   uint64
	pushFailures     uint64
	censoredMessages uint64
}

func NewMonitor(log *slog.Logger, sessions SessionCounter) *Monitor {
	return &Monitor{log: log, sessions: sessions}
}

func (m *Monitor) IncrMessagesRelayed() { atomic.AddUint64(&m.messagesRelayed, 1) }
func (m *Monitor) IncrSignalsRelayed()  { atomic.AddUint64(&m.signalsRelayed, 1) }
func (m *Monitor) IncrSignalsDropped()  { atomic.AddUint64(&m.signalsDropped, 1) }
func (m *Monitor) IncrPushFailures()    { atomic.AddUint64(&m.pushFailures, 1) }
func (m *Monitor) IncrCensored()        { atomic.AddUint64(&m.censoredMessages, 1) }

// Listen refreshes the snapshot at the given interval until the context is
// canceled. Run under the supervisor.
func (m *Monitor) Listen(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			m.log.Debug("Monitoring stopped")
			return nil
		case <-ticker.C:
			m.updateStats(proc)
		}
	}
}

func (m *Monitor) updateStats(proc *process.Process) {
	stats := Stats{
		MessagesRelayed:  atomic.LoadUint64(&m.messagesRelayed),
		SignalsRelayed:   atomic.LoadUint64(&m.signalsRelayed),
		SignalsDropped:   atomic.LoadUint64(&m.signalsDropped),
		PushFailures:     atomic.LoadUint64(&m.pushFailures),
		CensoredMessages: atomic.LoadUint64(&m.censoredMessages),
	}
	if m.sessions != nil {
		stats.OpenSessions = m.sessions.CountSessions()
	}

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	stats.AllocMemMb = memStats.Alloc / 1024 / 1024
	stats.NumGC = memStats.NumGC

	if mem, err := proc.MemoryInfo(); err == nil {
		stats.ProcessRSS = mem.RSS / 1024 / 1024
	}
	if cpu, err := proc.CPUPercent(); err == nil {
		stats.ProcessCPU = cpu
	}

	m.mu.Lock()
	m.latest = stats
	m.mu.Unlock()

	m.log.Debug("Stats refreshed",
		"open_sessions", stats.OpenSessions,
		"messages_relayed", stats.MessagesRelayed,
		"mem_mb", stats.AllocMemMb)
}

// GetLatest returns the last computed snapshot, with live counters folded
// in so the health endpoint is never stale on the hot numbers.
func (m *Monitor) GetLatest() Stats {
	m.mu.RLock()
	stats := m.latest
	m.mu.RUnlock()

	stats.MessagesRelayed = atomic.LoadUint64(&m.messagesRelayed)
	stats.SignalsRelayed = atomic.LoadUint64(&m.signalsRelayed)
	stats.SignalsDropped = atomic.LoadUint64(&m.signalsDropped)
	stats.PushFailures = atomic.LoadUint64(&m.pushFailures)
	stats.CensoredMessages = atomic.LoadUint64(&m.censoredMessages)
	if m.sessions != nil {
		stats.OpenSessions = m.sessions.CountSessions()
	}
	return stats
}
