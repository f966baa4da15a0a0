package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// RuntimeConfig collects everything the app reads from the environment.
// Values load in three layers: defaults, then a .env file if present,
// then real environment variables.
type RuntimeConfig struct {
	DataDir              string
	LogPath              string
	DesktopNotifications bool
	OverdueCheckSeconds  int
	SchedulerBuffer      int
	DefaultReminderMins  int
}

func DefaultRuntimeConfig() RuntimeConfig {
	dataDir := "."
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".memo")
	}
	return RuntimeConfig{
		DataDir:              dataDir,
		LogPath:              filepath.Join(dataDir, "memo.log"),
		DesktopNotifications: false,
		OverdueCheckSeconds:  60,
		SchedulerBuffer:      64,
		DefaultReminderMins:  15,
	}
}

// Load builds the runtime configuration. A missing .env file is not an
// error.
func Load() RuntimeConfig {
	_ = godotenv.Load()
	return FromEnv(DefaultRuntimeConfig())
}

func FromEnv(base RuntimeConfig) RuntimeConfig {
	cfg := base
	if v := strings.TrimSpace(os.Getenv("MEMO_DATA_DIR")); v != "" {
		cfg.DataDir = v
		cfg.LogPath = filepath.Join(v, "memo.log")
	}
	if v := strings.TrimSpace(os.Getenv("MEMO_LOG_PATH")); v != "" {
		cfg.LogPath = v
	}
	if v, ok := getEnvBool("MEMO_DESKTOP_NOTIFICATIONS"); ok {
		cfg.DesktopNotifications = v
	}
	if v, ok := getEnvInt("MEMO_OVERDUE_CHECK_SECONDS"); ok && v > 0 {
		cfg.OverdueCheckSeconds = v
	}
	if v, ok := getEnvInt("MEMO_SCHEDULER_BUFFER"); ok && v > 0 {
		cfg.SchedulerBuffer = v
	}
	if v, ok := getEnvInt("MEMO_DEFAULT_REMINDER_MINUTES"); ok && v > 0 {
		cfg.DefaultReminderMins = v
	}
	return cfg
}

func getEnvInt(name string) (int, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func getEnvBool(name string) (bool, bool) {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return false, false
	}
	switch raw {
	case "1", "true", "yes", "y", "on":
		return true, true
	case "0", "false", "no", "n", "off":
		return false, true
	default:
		return false, false
	}
}
