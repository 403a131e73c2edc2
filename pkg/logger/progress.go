package logger

import (
	"fmt"
	"sync"
	"time"
)

// ProgressTracker logs throughput of a long-running batch at fixed intervals.
type ProgressTracker struct {
	logger      Logger
	operation   string
	total       int64
	current     int64
	startTime   time.Time
	lastLogTime time.Time
	logInterval time.Duration
	now         func() time.Time
	mutex       sync.Mutex
}

// ProgressConfig configures progress tracking behavior
type ProgressConfig struct {
	Operation   string
	Total       int64
	LogInterval time.Duration
	Logger      Logger

	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
}

// NewProgressTracker creates a new progress tracker
func NewProgressTracker(config ProgressConfig) *ProgressTracker {
	if config.Logger == nil {
		config.Logger = GetGlobalLogger()
	}
	if config.LogInterval == 0 {
		config.LogInterval = 5 * time.Second
	}
	if config.Now == nil {
		config.Now = time.Now
	}

	start := config.Now()
	tracker := &ProgressTracker{
		logger:      config.Logger.WithComponent("progress"),
		operation:   config.Operation,
		total:       config.Total,
		startTime:   start,
		lastLogTime: start,
		logInterval: config.LogInterval,
		now:         config.Now,
	}

	tracker.logger.WithFields(Fields{
		"operation": config.Operation,
		"total":     config.Total,
	}).Debug("Starting operation")

	return tracker
}

// Increment advances the counter by one and logs if the interval elapsed.
func (p *ProgressTracker) Increment() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.current++
	now := p.now()
	if now.Sub(p.lastLogTime) >= p.logInterval {
		p.logProgress(now)
		p.lastLogTime = now
	}
}

// Complete logs final statistics.
func (p *ProgressTracker) Complete() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	stats := p.statsLocked(p.now())
	p.logger.WithFields(Fields{
		"operation": p.operation,
		"total":     p.total,
		"processed": p.current,
		"duration":  stats.Duration.String(),
		"rate":      fmt.Sprintf("%.2f/sec", stats.Rate),
	}).Info("Operation completed")
}

// GetStats returns current progress statistics
func (p *ProgressTracker) GetStats() ProgressStats {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.statsLocked(p.now())
}

func (p *ProgressTracker) statsLocked(now time.Time) ProgressStats {
	duration := now.Sub(p.startTime)
	var rate float64
	if duration.Seconds() > 0 {
		rate = float64(p.current) / duration.Seconds()
	}

	var percentage float64
	if p.total > 0 {
		percentage = float64(p.current) / float64(p.total) * 100
	}

	return ProgressStats{
		Operation:  p.operation,
		Total:      p.total,
		Current:    p.current,
		Percentage: percentage,
		Duration:   duration,
		Rate:       rate,
	}
}

func (p *ProgressTracker) logProgress(now time.Time) {
	stats := p.statsLocked(now)
	fields := Fields{
		"operation": p.operation,
		"processed": p.current,
		"rate":      fmt.Sprintf("%.2f/sec", stats.Rate),
	}
	if p.total > 0 {
		fields["total"] = p.total
		fields["percentage"] = fmt.Sprintf("%.1f%%", stats.Percentage)
	}
	p.logger.WithFields(fields).Info("Progress update")
}

// ProgressStats contains progress statistics
type ProgressStats struct {
	Operation  string        `json:"operation"`
	Total      int64         `json:"total"`
	Current    int64         `json:"current"`
	Percentage float64       `json:"percentage"`
	Duration   time.Duration `json:"duration"`
	Rate       float64       `json:"rate"`
}

// String returns a human-readable representation of the progress
func (ps ProgressStats) String() string {
	if ps.Total > 0 {
		return fmt.Sprintf("%s: %d/%d (%.1f%%) at %.2f/sec",
			ps.Operation, ps.Current, ps.Total, ps.Percentage, ps.Rate)
	}
	return fmt.Sprintf("%s: %d processed at %.2f/sec, elapsed: %v",
		ps.Operation, ps.Current, ps.Rate, ps.Duration)
}
