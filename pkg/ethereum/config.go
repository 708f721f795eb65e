package ethereum

import (
	"errors"
	"fmt"

	"github.com/ethpandaops/execution-simulator/pkg/ethereum/execution"
)

type Config struct {
	// Execution configuration
	Execution *execution.Config `yaml:"execution"`
	// Override network name for custom networks (bypasses networkMap)
	OverrideNetworkName *string `yaml:"overrideNetworkName"`
}

func (c *Config) Validate() error {
	if c.Execution == nil {
		return errors.New("execution configuration is required")
	}

	if err := c.Execution.Validate(); err != nil {
		return fmt.Errorf("invalid execution configuration: %w", err)
	}

	return nil
}
