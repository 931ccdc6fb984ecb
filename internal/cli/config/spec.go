package config

import "time"

// CLIConfig is the configuration for tokguard-cli.
type CLIConfig struct {
	// Server is the tokguard-server base URL.
	Server string `koanf:"server" yaml:"server" json:"server"`

	// APIKey is the admin bearer key.
	APIKey string `koanf:"api_key" yaml:"api_key,omitempty" json:"api_key,omitempty"`

	// CAFile adds a PEM bundle to the system roots for HTTPS servers.
	CAFile string `koanf:"ca_file" yaml:"ca_file,omitempty" json:"ca_file,omitempty"`

	Output  string        `koanf:"output" yaml:"output" json:"output"` // table, json, yaml
	Timeout time.Duration `koanf:"timeout" yaml:"timeout" json:"timeout"`
}

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		Server:  "http://127.0.0.1:5080",
		Output:  "table",
		Timeout: 30 * time.Second,
	}
}

// Masked returns a copy safe for printing.
func (c *CLIConfig) Masked() *CLIConfig {
	cp := *c
	if cp.APIKey != "" {
		cp.APIKey = "********"
	}
	return &cp
}
