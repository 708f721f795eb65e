package server

import (
	"fmt"
	"time"

	"github.com/ethpandaops/execution-simulator/pkg/ethereum"
	"github.com/ethpandaops/execution-simulator/pkg/simulate"
)

type Config struct {
	// APIAddr is the address to listen on for the simulation API.
	APIAddr string `yaml:"apiAddr" default:":8080"`
	// MetricsAddr is the address to listen on for metrics.
	MetricsAddr string `yaml:"metricsAddr" default:":9090"`
	// HealthCheckAddr is the address to listen on for healthcheck.
	HealthCheckAddr *string `yaml:"healthCheckAddr"`
	// PProfAddr is the address to listen on for pprof.
	PProfAddr *string `yaml:"pprofAddr"`
	// LoggingLevel is the logging level to use.
	LoggingLevel string `yaml:"logging" default:"info"`
	// Ethereum is the execution node configuration.
	Ethereum ethereum.Config `yaml:"ethereum"`
	// Simulator tunes batch simulation behavior.
	Simulator simulate.Options `yaml:"simulator"`
	// MemoryMonitor controls periodic memory stats collection.
	MemoryMonitor MemoryMonitorConfig `yaml:"memoryMonitor"`
	// ShutdownTimeout is the timeout for shutting down the server.
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" default:"10s"`
}

// MemoryMonitorConfig controls the memory stats collector.
type MemoryMonitorConfig struct {
	Enabled             bool          `yaml:"enabled"`
	Interval            time.Duration `yaml:"interval" default:"60s"`
	WarningThresholdMB  uint64        `yaml:"warningThresholdMB" default:"1024"`
	CriticalThresholdMB uint64        `yaml:"criticalThresholdMB" default:"2048"`
}

func (c *Config) Validate() error {
	if c.APIAddr == "" {
		return fmt.Errorf("apiAddr is required")
	}

	if err := c.Ethereum.Validate(); err != nil {
		return fmt.Errorf("invalid ethereum configuration: %w", err)
	}

	return nil
}
