// Package config
package config

import "time"

// AppConfig is the agent's own runtime configuration — how it logs, how
// often it polls for threats, where it keeps its local audit trail. It
// is distinct from model.ExamConfiguration, which describes a single
// exam session and is loaded per-launch from a .openlock or .seb file.
type AppConfig struct {
	Agent    AgentConfig    `mapstructure:"agent" yaml:"agent"`
	Security SecurityConfig `mapstructure:"security" yaml:"security"`
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Storage  StorageConfig  `mapstructure:"storage" yaml:"storage"`
	Network  NetworkConfig  `mapstructure:"network" yaml:"network"`
}

type AgentConfig struct {
	// LogLevel: debug, info, warn, error
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
	LogFile  string `mapstructure:"log_file" yaml:"log_file"`
	DataDir  string `mapstructure:"data_dir" yaml:"data_dir"`

	LogMaxSize    int  `mapstructure:"log_max_size" yaml:"log_max_size"`
	LogMaxBackups int  `mapstructure:"log_max_backups" yaml:"log_max_backups"`
	LogMaxAge     int  `mapstructure:"log_max_age" yaml:"log_max_age"`
	LogCompress   bool `mapstructure:"log_compress" yaml:"log_compress"`
	LogStdout     bool `mapstructure:"log_stdout" yaml:"log_stdout"`
}

type SecurityConfig struct {
	Integrity  IntegrityConfig  `mapstructure:"integrity" yaml:"integrity"`
	ProcGuard  ProcGuardConfig  `mapstructure:"procguard" yaml:"procguard"`
	Confinement ConfinementConfig `mapstructure:"confinement" yaml:"confinement"`
	Audit      AuditConfig      `mapstructure:"audit" yaml:"audit"`
}

type IntegrityConfig struct {
	// CheckInterval is how often the continuous monitor re-runs the full
	// evidence sweep while lockdown is engaged.
	CheckInterval time.Duration `mapstructure:"check_interval" yaml:"check_interval"`
	// DefaultInterval is substituted when CheckInterval is below one
	// second.
	DefaultInterval time.Duration `mapstructure:"default_interval" yaml:"default_interval"`
	DetectVM        bool          `mapstructure:"detect_vm" yaml:"detect_vm"`
	DetectDebugger  bool          `mapstructure:"detect_debugger" yaml:"detect_debugger"`
	// SelfDigestAlgorithm: sha256 or sm3.
	SelfDigestAlgorithm string `mapstructure:"self_digest_algorithm" yaml:"self_digest_algorithm"`
}

type ProcGuardConfig struct {
	Enable            bool          `mapstructure:"enable" yaml:"enable"`
	CheckInterval     time.Duration `mapstructure:"check_interval" yaml:"check_interval"`
	Allowlist         []string      `mapstructure:"allowlist" yaml:"allowlist"`
	ExtraBlocklist    []string      `mapstructure:"extra_blocklist" yaml:"extra_blocklist"`
	BlocklistPatterns []string      `mapstructure:"blocklist_patterns" yaml:"blocklist_patterns"`
}

type ConfinementConfig struct {
	Fullscreen         bool `mapstructure:"fullscreen" yaml:"fullscreen"`
	BlockVTSwitch      bool `mapstructure:"block_vt_switch" yaml:"block_vt_switch"`
	ClipboardScrubMS   int  `mapstructure:"clipboard_scrub_ms" yaml:"clipboard_scrub_ms"`
	PrintSuspendMS     int  `mapstructure:"print_suspend_ms" yaml:"print_suspend_ms"`
}

type AuditConfig struct {
	Enable          bool `mapstructure:"enable" yaml:"enable"`
	MemoryLimit     int  `mapstructure:"memory_limit" yaml:"memory_limit"`
}

type DatabaseConfig struct {
	FileName        string        `mapstructure:"file_name" yaml:"file_name"`
	LogLevel        string        `mapstructure:"log_level" yaml:"log_level"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" yaml:"conn_max_lifetime"`
	JournalMode     string        `mapstructure:"journal_mode" yaml:"journal_mode"`
	Synchronous     string        `mapstructure:"synchronous" yaml:"synchronous"`
}

type StorageConfig struct {
	AuditLogsMemoryLimit int `mapstructure:"audit_logs_memory_limit" yaml:"audit_logs_memory_limit"`
}

type NetworkConfig struct {
	// TransportMode: standard or gmtls.
	TransportMode string `mapstructure:"transport_mode" yaml:"transport_mode"`
	GMTLSCAPath   string `mapstructure:"gmtls_ca_path" yaml:"gmtls_ca_path"`
}
