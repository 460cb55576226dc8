package workers

import (
	"chat-relay/observability"
	"context"
	"time"
)

// MonitoringWorker adapts the observability monitor to the supervised
// worker contract.
type MonitoringWorker struct {
	monitor  *observability.Monitor
	interval time.Duration
}

func NewMonitoringWorker(monitor *observability.Monitor, interval time.Duration) *MonitoringWorker {
	return &MonitoringWorker{monitor: monitor, interval: interval}
}

func (w *MonitoringWorker) Run(ctx context.Context) error {
	return w.monitor.Listen(ctx, w.interval)
}
