package config

// TracingConfig configures OTLP trace export. Disabled by default; the
// pipeline runs fine without a collector.
type TracingConfig struct {
	// Enabled turns trace export on.
	Enabled bool `mapstructure:"enabled" json:"enabled"`

	// Endpoint is the OTLP/HTTP collector address, host:port.
	Endpoint string `mapstructure:"endpoint" json:"endpoint"`

	// ServiceName tags exported spans.
	ServiceName string `mapstructure:"service_name" json:"service_name"`

	// Environment tags exported spans (dev, staging, prod).
	Environment string `mapstructure:"environment" json:"environment"`
}
