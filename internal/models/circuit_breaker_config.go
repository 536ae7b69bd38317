package models

// CircuitBreakerConfig holds circuit breaker configuration for the generation call
type CircuitBreakerConfig struct {
	FailureThreshold int `json:"failure_threshold,omitzero" yaml:"failure_threshold,omitempty"` // Number of failures before opening circuit
	SuccessThreshold int `json:"success_threshold,omitzero" yaml:"success_threshold,omitempty"` // Number of successes to close circuit
	TimeoutMs        int `json:"timeout_ms,omitzero" yaml:"timeout_ms,omitempty"`               // How long the circuit stays open in milliseconds
	ResetAfterMs     int `json:"reset_after_ms,omitzero" yaml:"reset_after_ms,omitempty"`       // Idle time after which the failure count is forgotten
}

// Cache source constants reported on analyses served from the result cache
const (
	CacheSourceExact    = "semantic_exact"
	CacheSourceSemantic = "semantic_similar"
)
