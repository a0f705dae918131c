package config

import "github.com/knadh/koanf/providers/confmap"

const (
	DefaultConfigPath = "~/.dosed/config.yaml"
	EnvPrefix         = "DOSED_"
)

func DefaultConfig() map[string]interface{} {
	return map[string]interface{}{
		"db_path": "~/.dosed/dosed.db",
		"log": map[string]interface{}{
			"file":  "~/.dosed/dosed.log",
			"level": "info",
		},
		"dose": map[string]interface{}{
			"due_window_minutes":        60,
			"overdue_threshold_minutes": 15,
			"due_soon_minutes":          60,
		},
		"refresh_interval_seconds": 60,
		"scheduler_buffer":         64,
		"desktop_notifications":    false,
		"history_days":             7,
	}
}

func NewDefaultProvider() *confmap.Confmap {
	return confmap.Provider(DefaultConfig(), ".")
}
