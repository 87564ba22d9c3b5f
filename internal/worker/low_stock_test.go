package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakeScanner struct {
	calls int32
	fail  bool
}

func (f *fakeScanner) ScanLowStock(context.Context) (int, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.fail {
		return 0, errors.New("database unavailable")
	}
	return 1, nil
}

func TestLowStockMonitorScansUntilCancelled(t *testing.T) {
	scanner := &fakeScanner{}
	monitor := NewLowStockMonitor(scanner, 5*time.Millisecond, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		monitor.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&scanner.calls) >= 3 }, time.Second, time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop after cancel")
	}
}

func TestLowStockMonitorSurvivesScanErrors(t *testing.T) {
	scanner := &fakeScanner{fail: true}
	monitor := NewLowStockMonitor(scanner, 5*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go monitor.Run(ctx)

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&scanner.calls) >= 2 }, time.Second, time.Millisecond)
}

func TestNewLowStockMonitorDefaultsInterval(t *testing.T) {
	monitor := NewLowStockMonitor(&fakeScanner{}, 0, nil)
	assert.Equal(t, 15*time.Minute, monitor.interval)
}
