package server

import (
	"context"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ethpandaops/execution-simulator/pkg/common"
)

// MemoryStatsCollector collects memory statistics periodically
type MemoryStatsCollector struct {
	log    logrus.FieldLogger
	config MemoryMonitorConfig
	stopCh chan struct{}
}

// NewMemoryStatsCollector creates a new memory stats collector
func NewMemoryStatsCollector(log logrus.FieldLogger, config MemoryMonitorConfig) *MemoryStatsCollector {
	return &MemoryStatsCollector{
		log:    log.WithField("component", "memory_stats_collector"),
		config: config,
		stopCh: make(chan struct{}),
	}
}

// Start begins collecting memory statistics
func (m *MemoryStatsCollector) Start(ctx context.Context) error {
	if !m.config.Enabled {
		m.log.Debug("Memory stats collector is disabled")

		return nil
	}

	m.log.WithFields(logrus.Fields{
		"interval":              m.config.Interval,
		"warning_threshold_mb":  m.config.WarningThresholdMB,
		"critical_threshold_mb": m.config.CriticalThresholdMB,
	}).Info("Starting memory stats collector")

	go m.run(ctx)

	return nil
}

// Stop stops the memory stats collector
func (m *MemoryStatsCollector) Stop(_ context.Context) error {
	close(m.stopCh)

	return nil
}

func (m *MemoryStatsCollector) run(ctx context.Context) {
	ticker := time.NewTicker(m.config.Interval)
	defer ticker.Stop()

	m.collectStats()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.collectStats()
		}
	}
}

func (m *MemoryStatsCollector) collectStats() {
	var memStats runtime.MemStats

	runtime.ReadMemStats(&memStats)

	common.MemoryUsage.WithLabelValues("alloc").Set(float64(memStats.Alloc))
	common.MemoryUsage.WithLabelValues("sys").Set(float64(memStats.Sys))
	common.MemoryUsage.WithLabelValues("heap_alloc").Set(float64(memStats.HeapAlloc))
	common.MemoryUsage.WithLabelValues("heap_sys").Set(float64(memStats.HeapSys))
	common.GoroutineCount.Set(float64(runtime.NumGoroutine()))

	allocMB := memStats.Alloc / 1024 / 1024

	fields := logrus.Fields{
		"alloc_mb":   allocMB,
		"sys_mb":     memStats.Sys / 1024 / 1024,
		"goroutines": runtime.NumGoroutine(),
		"num_gc":     memStats.NumGC,
	}

	switch {
	case allocMB > m.config.CriticalThresholdMB:
		m.log.WithFields(fields).Error("Critical memory usage detected")
		common.MemoryPressureEvents.WithLabelValues("system", "critical").Inc()
	case allocMB > m.config.WarningThresholdMB:
		m.log.WithFields(fields).Warn("High memory usage detected")
		common.MemoryPressureEvents.WithLabelValues("system", "warning").Inc()
	default:
		m.log.WithFields(fields).Debug("Memory usage summary")
	}
}
