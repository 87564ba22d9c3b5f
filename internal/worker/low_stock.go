package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Scanner raises low-stock alerts and reports how many were created.
type Scanner interface {
	ScanLowStock(ctx context.Context) (int, error)
}

// LowStockMonitor runs the scanner on a fixed interval until its context ends.
type LowStockMonitor struct {
	scanner  Scanner
	interval time.Duration
	logger   *zap.Logger
}

func NewLowStockMonitor(scanner Scanner, interval time.Duration, logger *zap.Logger) *LowStockMonitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &LowStockMonitor{scanner: scanner, interval: interval, logger: logger}
}

// Run scans once immediately, then on every tick. It blocks until ctx is done.
func (m *LowStockMonitor) Run(ctx context.Context) {
	m.logger.Info("Low stock monitor started", zap.Duration("interval", m.interval))

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.scan(ctx)
	for {
		select {
		case <-ctx.Done():
			m.logger.Info("Low stock monitor stopped")
			return
		case <-ticker.C:
			m.scan(ctx)
		}
	}
}

func (m *LowStockMonitor) scan(ctx context.Context) {
	created, err := m.scanner.ScanLowStock(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		m.logger.Warn("Low stock scan failed", zap.Error(err))
		return
	}
	if created > 0 {
		m.logger.Info("Low stock alerts raised", zap.Int("count", created))
	}
}
