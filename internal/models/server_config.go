package models

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port             string `json:"port,omitzero" yaml:"port"`
	AllowedOrigins   string `json:"allowed_origins,omitzero" yaml:"allowed_origins"`
	Environment      string `json:"environment,omitzero" yaml:"environment"`
	LogLevel         string `json:"log_level,omitzero" yaml:"log_level"`
	RequestTimeoutMs int    `json:"request_timeout_ms,omitzero" yaml:"request_timeout_ms"`
	RateLimitRpm     int    `json:"rate_limit_rpm,omitzero" yaml:"rate_limit_rpm"`
}

// BenchmarkConfig locates the benchmark dataset loaded at startup.
// URL takes precedence over FilePath.
type BenchmarkConfig struct {
	URL       string `json:"url,omitzero" yaml:"url"`
	FilePath  string `json:"file_path,omitzero" yaml:"file_path"`
	TimeoutMs int    `json:"timeout_ms,omitzero" yaml:"timeout_ms"`
}

// DefaultBenchmarkURL is where the published benchmark dataset lives
const DefaultBenchmarkURL = "https://raw.githubusercontent.com/samir-aitabbou/AI-Embedding-Advisor-Pro/refs/heads/master/benchmark_data.csv"
