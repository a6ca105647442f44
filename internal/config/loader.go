package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

// GlobalConfig is the process-wide runtime config singleton, populated
// once by LoadConfig. Later modules read it through Get.
var (
	GlobalConfig *AppConfig
	loadOnce     sync.Once
)

// LoadConfig loads the agent's own runtime configuration (not the exam
// configuration, which is loaded per-session by LoadExamConfig).
// configPath: an explicit file path, or "" to search default locations.
func LoadConfig(configPath string) error {
	var err error

	loadOnce.Do(func() {
		v := viper.New()
		setDefaults(v)

		if configPath != "" {
			v.SetConfigFile(configPath)
		} else {
			v.SetConfigName("openlock")
			v.SetConfigType("yaml")
			v.AddConfigPath("/etc/openlock/")
			v.AddConfigPath(".")
		}

		v.SetEnvPrefix("OPENLOCK")
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()

		if readErr := v.ReadInConfig(); readErr != nil {
			if _, ok := readErr.(viper.ConfigFileNotFoundError); ok {
				// No config file present: run entirely on defaults plus
				// env overrides, which is the common case for a kiosk
				// image with settings baked into the environment.
			} else {
				err = fmt.Errorf("failed to read config file: %w", readErr)
				return
			}
		}

		var cfg AppConfig
		if unmarshalErr := v.Unmarshal(&cfg); unmarshalErr != nil {
			err = fmt.Errorf("failed to unmarshal config: %w", unmarshalErr)
			return
		}

		GlobalConfig = &cfg
	})

	return err
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("agent.log_level", "info")
	v.SetDefault("agent.log_file", "/var/log/openlock/agent.log")
	v.SetDefault("agent.data_dir", "/var/lib/openlock")
	v.SetDefault("agent.log_max_size", 100)
	v.SetDefault("agent.log_max_backups", 5)
	v.SetDefault("agent.log_max_age", 30)
	v.SetDefault("agent.log_compress", true)
	v.SetDefault("agent.log_stdout", true)

	v.SetDefault("security.integrity.check_interval", "30s")
	v.SetDefault("security.integrity.default_interval", "30s")
	v.SetDefault("security.integrity.detect_vm", true)
	v.SetDefault("security.integrity.detect_debugger", true)
	v.SetDefault("security.integrity.self_digest_algorithm", "sha256")

	v.SetDefault("security.procguard.enable", true)
	v.SetDefault("security.procguard.check_interval", "1s")

	v.SetDefault("security.confinement.fullscreen", true)
	v.SetDefault("security.confinement.block_vt_switch", true)
	v.SetDefault("security.confinement.clipboard_scrub_ms", 500)
	v.SetDefault("security.confinement.print_suspend_ms", 5000)

	v.SetDefault("security.audit.enable", false)
	v.SetDefault("security.audit.memory_limit", 200)

	v.SetDefault("database.file_name", "audit.db")
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("database.max_open_conns", 1)
	v.SetDefault("database.max_idle_conns", 1)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.journal_mode", "WAL")
	v.SetDefault("database.synchronous", "NORMAL")

	v.SetDefault("storage.audit_logs_memory_limit", 200)

	v.SetDefault("network.transport_mode", "standard")
}

// Get returns the loaded config. Panics if LoadConfig has not succeeded
// yet — every caller runs after agent startup, which loads config
// before anything else touches it.
func Get() *AppConfig {
	if GlobalConfig == nil {
		panic("config not initialized: call LoadConfig() first")
	}
	return GlobalConfig
}
