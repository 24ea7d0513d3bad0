// Package config handles YAML configuration loading, environment variable
// expansion, defaulting, and structural validation for gatehouse.
package config

import "time"

// Config is the top-level configuration structure.
type Config struct {
	// Version is the config format version. Currently only "1" is supported.
	Version string `yaml:"version"`

	// LogLevel is one of debug, info, warn, error. Defaults to info.
	LogLevel string `yaml:"log_level,omitempty"`

	Server    ServerConfig    `yaml:"server"`
	Sandbox   SandboxConfig   `yaml:"sandbox"`
	Audit     AuditConfig     `yaml:"audit"`
	Security  SecurityConfig  `yaml:"security,omitempty"`
	Agents    AgentsConfig    `yaml:"agents,omitempty"`
	Schedules []ScheduleEntry `yaml:"schedules,omitempty"`
	Telemetry TelemetryConfig `yaml:"telemetry,omitempty"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	// Addr is the listen address, e.g. "127.0.0.1:8422".
	Addr string `yaml:"addr,omitempty"`

	// BearerToken protects mutating and audit endpoints when set.
	BearerToken string `yaml:"bearer_token,omitempty"`

	// RequestTimeout bounds a single invocation end to end.
	RequestTimeout time.Duration `yaml:"request_timeout,omitempty"`
}

// SandboxConfig confines file tools to a directory tree.
type SandboxConfig struct {
	// Root is the only directory tree file tools may touch.
	Root string `yaml:"root"`

	// MaxReadBytes caps file-read payloads.
	MaxReadBytes int64 `yaml:"max_read_bytes,omitempty"`

	// MaxWriteBytes caps file-write payloads.
	MaxWriteBytes int64 `yaml:"max_write_bytes,omitempty"`
}

// AuditConfig selects audit sinks. Both may be active at once.
type AuditConfig struct {
	// LogPath is the JSONL audit log file. Empty disables it.
	LogPath string `yaml:"log_path,omitempty"`

	// DBPath is the SQLite audit database. Empty disables it.
	DBPath string `yaml:"db_path,omitempty"`
}

// SecurityConfig tunes rate limits and payload bounds.
type SecurityConfig struct {
	// InvokesPerMin caps invocations per minute. Zero means the default.
	InvokesPerMin int `yaml:"invokes_per_min,omitempty"`

	// AuthPerMin caps failed auth attempts per minute. Zero means the default.
	AuthPerMin int `yaml:"auth_per_min,omitempty"`

	// MaxInputBytes caps raw invocation input size. Zero means the default.
	MaxInputBytes int `yaml:"max_input_bytes,omitempty"`
}

// AgentsConfig overrides the stock agent allow-lists.
type AgentsConfig struct {
	Diagnostics    *AgentEntry `yaml:"diagnostics,omitempty"`
	FileAnalysis   *AgentEntry `yaml:"file_analysis,omitempty"`
	ChangeProposal *AgentEntry `yaml:"change_proposal,omitempty"`
}

// AgentEntry configures one agent.
type AgentEntry struct {
	// AllowedTools replaces the agent's default allow-list when non-empty.
	AllowedTools []string `yaml:"allowed_tools,omitempty"`
}

// ScheduleEntry runs a task on a cron expression.
type ScheduleEntry struct {
	// Name identifies the schedule in logs. Must be unique.
	Name string `yaml:"name"`

	// Cron is a standard 5-field cron expression.
	Cron string `yaml:"cron"`

	// Task is the free-text task routed on each tick.
	Task string `yaml:"task"`
}

// TelemetryConfig enables OTLP trace export.
type TelemetryConfig struct {
	// OTLPEndpoint is the OTLP/HTTP collector address, e.g.
	// "localhost:4318". Empty disables tracing export.
	OTLPEndpoint string `yaml:"otlp_endpoint,omitempty"`

	// Insecure disables TLS toward the collector.
	Insecure bool `yaml:"insecure,omitempty"`
}

// Defaults used when the corresponding field is unset.
const (
	DefaultAddr           = "127.0.0.1:8422"
	DefaultRequestTimeout = 30 * time.Second
	DefaultLogLevel       = "info"
)

// ApplyDefaults fills unset fields in place.
func (c *Config) ApplyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.RequestTimeout == 0 {
		c.Server.RequestTimeout = DefaultRequestTimeout
	}
}
