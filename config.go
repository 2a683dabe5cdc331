package nimcheck

import "time"

// DefaultTimeout matches the read timeout a long reasoning generation
// can need.
const DefaultTimeout = 3600 * time.Second

// EndpointConfig selects a backend kind and carries its connection
// settings. Backend constructors validate the fields they use.
type EndpointConfig struct {
	Kind string `json:"kind"`

	// direct HTTP endpoint
	Host string `json:"host,omitempty"`
	Port int    `json:"port,omitempty"`

	// managed endpoint
	Region       string `json:"region,omitempty"`
	EndpointName string `json:"endpoint_name,omitempty"`

	Timeout time.Duration `json:"timeout,omitempty"`

	// StrictEOF surfaces ErrIncompleteStream when a stream closes without
	// the terminal marker. The default treats transport close as a normal
	// completion.
	StrictEOF bool `json:"strict_eof,omitempty"`
}

func (cfg *EndpointConfig) Validate() error {
	if cfg == nil || cfg.Kind == "" {
		return ErrBackendKindEmpty
	}
	return nil
}

// EffectiveTimeout returns the configured per-call ceiling, falling back
// to DefaultTimeout.
func (cfg *EndpointConfig) EffectiveTimeout() time.Duration {
	if cfg == nil || cfg.Timeout <= 0 {
		return DefaultTimeout
	}
	return cfg.Timeout
}
