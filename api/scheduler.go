/*
scheduler.go - Periodic portfolio snapshot

PURPOSE:
  Recomputes portfolio KPIs on an interval and publishes them as
  Prometheus gauges, so dashboards see overdue plans appear as due dates
  pass even when no payment is recorded.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Reads through ledger.Service; never writes to the store
  - Keeps the last snapshot (Last)

CONFIGURATION:
  - CheckInterval: How often to refresh (default: 1 minute)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewPortfolioScheduler(service, logger)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - ledger/kpi.go: ComputeKpis
  - ledger/metrics.go: Per-payment counters
*/
package api

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/warp/pos-ledger/ledger"
)

var (
	activePlansGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "pos_ledger",
		Name:      "active_plans",
		Help:      "Installment plans with status active.",
	})
	overduePlansGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "pos_ledger",
		Name:      "overdue_plans",
		Help:      "Active plans with an entry past its due date.",
	})
	activeBalanceGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "pos_ledger",
		Name:      "active_balance",
		Help:      "Sum of remaining balances over active plans.",
	})
	collectionRateGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "pos_ledger",
		Name:      "collection_rate_percent",
		Help:      "Share of active plan totals already collected.",
	})
)

// PortfolioScheduler refreshes the KPI gauges.
type PortfolioScheduler struct {
	Service       *ledger.Service
	Logger        *zap.Logger
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex

	last   ledger.Kpis
	lastAt time.Time
}

// NewPortfolioScheduler creates a new scheduler.
func NewPortfolioScheduler(service *ledger.Service, logger *zap.Logger) *PortfolioScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PortfolioScheduler{
		Service:       service,
		Logger:        logger.Named("scheduler"),
		CheckInterval: time.Minute,
		Enabled:       true,
	}
}

// Start begins the scheduler. Calling it while running is a no-op; a
// stopped scheduler can be started again.
func (ps *PortfolioScheduler) Start() {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if !ps.Enabled || ps.CheckInterval <= 0 {
		ps.Logger.Info("disabled, not starting")
		return
	}
	if ps.ticker != nil {
		return
	}

	ps.ticker = time.NewTicker(ps.CheckInterval)
	ps.stop = make(chan struct{})
	ps.wg.Add(1)

	go ps.run(ps.ticker, ps.stop)

	ps.Logger.Info("started", zap.Duration("interval", ps.CheckInterval))
}

// Stop stops the scheduler and waits for an in-flight refresh.
func (ps *PortfolioScheduler) Stop() {
	ps.mu.Lock()
	ticker, stop := ps.ticker, ps.stop
	ps.ticker, ps.stop = nil, nil
	ps.mu.Unlock()

	if ticker != nil {
		ticker.Stop()
		close(stop)
		ps.wg.Wait()
		ps.Logger.Info("stopped")
	}
}

func (ps *PortfolioScheduler) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer ps.wg.Done()

	// Run immediately on start
	ps.RunNow(context.Background())

	for {
		select {
		case <-ticker.C:
			ps.RunNow(context.Background())
		case <-stop:
			return
		}
	}
}

// RunNow refreshes the gauges once.
func (ps *PortfolioScheduler) RunNow(ctx context.Context) error {
	kpis, err := ps.Service.Kpis(ctx)
	if err != nil {
		ps.Logger.Error("kpi refresh failed", zap.Error(err))
		return err
	}

	activePlansGauge.Set(float64(kpis.ActiveCount))
	overduePlansGauge.Set(float64(kpis.OverdueCount))
	activeBalanceGauge.Set(kpis.TotalActiveBalance.Float64())
	rate, _ := kpis.CollectionRate.Float64()
	collectionRateGauge.Set(rate)

	ps.mu.Lock()
	ps.last = kpis
	ps.lastAt = ps.Service.Now()
	ps.mu.Unlock()

	ps.Logger.Debug("kpis refreshed",
		zap.Int("active", kpis.ActiveCount),
		zap.Int("overdue", kpis.OverdueCount),
		zap.Stringer("balance", kpis.TotalActiveBalance))
	return nil
}

// Last returns the most recent snapshot and when it was taken. The time is
// zero before the first refresh.
func (ps *PortfolioScheduler) Last() (ledger.Kpis, time.Time) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.last, ps.lastAt
}
