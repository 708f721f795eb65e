package execution

import "errors"

type Config struct {
	// Name identifies this node in logs and metrics
	Name string `yaml:"name" default:"execution"`
	// NodeAddress is the JSON-RPC endpoint of the execution node
	NodeAddress string `yaml:"nodeAddress"`
	// NodeHeaders are extra HTTP headers sent with every RPC request
	NodeHeaders map[string]string `yaml:"nodeHeaders"`
	// RequestTimeout bounds a single RPC call when the caller's context
	// carries no deadline
	RequestTimeoutSeconds int `yaml:"requestTimeoutSeconds" default:"60"`
}

func (c *Config) Validate() error {
	if c.NodeAddress == "" {
		return errors.New("nodeAddress is required")
	}

	return nil
}
