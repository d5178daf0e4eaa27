package services

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"gastos/internal/budget"
	"gastos/internal/log"
)

// AlertMonitorConfig holds configuration for the alert monitor
type AlertMonitorConfig struct {
	// Interval is how often the current month is re-aggregated (default: 1h)
	Interval time.Duration

	// Now supplies the clock; the month checked is the one containing Now().
	Now func() time.Time
}

func DefaultAlertMonitorConfig() AlertMonitorConfig {
	return AlertMonitorConfig{
		Interval: time.Hour,
		Now:      time.Now,
	}
}

// Alert is raised for every over-budget category of the checked month.
type Alert struct {
	Year     int
	Month    int
	Category budget.CategoryTotal
}

// AlertMonitor periodically aggregates the current month and reports
// over-budget categories. A category is reported again only after it left
// the over-budget set.
type AlertMonitor struct {
	summaries *SummaryService
	notify    func(context.Context, Alert)
	config    AlertMonitorConfig
	logger    *log.Logger

	mu       sync.Mutex
	running  bool
	reported map[string]struct{}
	period   [2]int
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewAlertMonitor reports through notify; a nil notify only logs.
func NewAlertMonitor(summaries *SummaryService, notify func(context.Context, Alert), config AlertMonitorConfig, logger *log.Logger) *AlertMonitor {
	if logger == nil {
		logger = log.Discard()
	}
	if config.Interval <= 0 {
		config.Interval = time.Hour
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &AlertMonitor{
		summaries: summaries,
		notify:    notify,
		config:    config,
		logger:    logger.WithComponent(log.ComponentBudget),
		reported:  make(map[string]struct{}),
	}
}

// Start begins the check loop. Returns an error if already running.
func (m *AlertMonitor) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return fmt.Errorf("alert monitor is already running")
	}
	m.running = true
	m.stopCh = make(chan struct{})
	m.doneCh = make(chan struct{})
	stopCh, doneCh := m.stopCh, m.doneCh
	m.mu.Unlock()

	go m.runLoop(ctx, stopCh, doneCh)

	m.logger.InfoContext(ctx, "Budget alert monitor started", "interval", m.config.Interval)
	return nil
}

// Stop signals the loop and waits for it, bounded by ctx.
func (m *AlertMonitor) Stop(ctx context.Context) error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return nil
	}
	stopCh, doneCh := m.stopCh, m.doneCh
	m.running = false
	m.stopCh = nil
	m.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		m.logger.InfoContext(ctx, "Budget alert monitor stopped")
	case <-ctx.Done():
		m.logger.WarnContext(ctx, "Budget alert monitor stop timed out")
		return ctx.Err()
	}
	return nil
}

func (m *AlertMonitor) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Run blocks until ctx is cancelled, checking on every tick.
func (m *AlertMonitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.config.Interval)
	defer ticker.Stop()

	m.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}

func (m *AlertMonitor) runLoop(ctx context.Context, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(m.config.Interval)
	defer ticker.Stop()

	m.Check(ctx)
	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}

// Check aggregates the current month once and returns the new alerts.
func (m *AlertMonitor) Check(ctx context.Context) []Alert {
	now := m.config.Now()
	year, month := now.Year(), int(now.Month())

	summary, err := m.summaries.Month(ctx, year, month)
	if err != nil {
		m.logger.ErrorContext(ctx, "Budget check failed", log.FieldError, err)
		return nil
	}

	m.mu.Lock()
	if m.period != [2]int{year, month} {
		m.period = [2]int{year, month}
		clear(m.reported)
	}
	over := summary.OverBudget()
	for name := range m.reported {
		if !slices.Contains(over, name) {
			delete(m.reported, name)
		}
	}
	var alerts []Alert
	for _, name := range over {
		if _, seen := m.reported[name]; seen {
			continue
		}
		m.reported[name] = struct{}{}
		ct, _ := summary.Category(name)
		alerts = append(alerts, Alert{Year: year, Month: month, Category: ct})
	}
	m.mu.Unlock()

	for _, a := range alerts {
		m.logger.WarnContext(ctx, "Category over budget",
			log.FieldYear, a.Year,
			log.FieldMonth, a.Month,
			log.FieldCategory, a.Category.Category,
			log.FieldAmountCents, a.Category.Total.Cents,
			"limit_cents", a.Category.Limit.Cents,
			log.FieldPercentage, percentageForLog(a.Category))
		if m.notify != nil {
			m.notify(ctx, a)
		}
	}
	return alerts
}

// percentageForLog keeps JSON handlers away from +Inf.
func percentageForLog(c budget.CategoryTotal) any {
	if c.Unbounded {
		return "unbounded"
	}
	return c.Percentage
}
