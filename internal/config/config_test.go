package config

import (
	"path/filepath"
	"testing"
)

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("MEMO_DATA_DIR", "/tmp/memo-data")
	t.Setenv("MEMO_DESKTOP_NOTIFICATIONS", "yes")
	t.Setenv("MEMO_OVERDUE_CHECK_SECONDS", "15")
	t.Setenv("MEMO_SCHEDULER_BUFFER", "128")

	cfg := FromEnv(DefaultRuntimeConfig())
	if cfg.DataDir != "/tmp/memo-data" {
		t.Fatalf("data dir not overridden: %q", cfg.DataDir)
	}
	if cfg.LogPath != filepath.Join("/tmp/memo-data", "memo.log") {
		t.Fatalf("log path should follow data dir: %q", cfg.LogPath)
	}
	if !cfg.DesktopNotifications {
		t.Fatal("desktop notifications not enabled")
	}
	if cfg.OverdueCheckSeconds != 15 || cfg.SchedulerBuffer != 128 {
		t.Fatalf("intervals not overridden: %+v", cfg)
	}
}

func TestFromEnvIgnoresInvalidValues(t *testing.T) {
	t.Setenv("MEMO_OVERDUE_CHECK_SECONDS", "soon")
	t.Setenv("MEMO_SCHEDULER_BUFFER", "-4")
	t.Setenv("MEMO_DESKTOP_NOTIFICATIONS", "maybe")

	base := DefaultRuntimeConfig()
	cfg := FromEnv(base)
	if cfg.OverdueCheckSeconds != base.OverdueCheckSeconds {
		t.Fatalf("invalid interval should keep default, got %d", cfg.OverdueCheckSeconds)
	}
	if cfg.SchedulerBuffer != base.SchedulerBuffer {
		t.Fatalf("negative buffer should keep default, got %d", cfg.SchedulerBuffer)
	}
	if cfg.DesktopNotifications != base.DesktopNotifications {
		t.Fatal("unparseable bool should keep default")
	}
}

func TestExplicitLogPathWins(t *testing.T) {
	t.Setenv("MEMO_DATA_DIR", "/tmp/memo-data")
	t.Setenv("MEMO_LOG_PATH", "/var/log/memo.log")

	cfg := FromEnv(DefaultRuntimeConfig())
	if cfg.LogPath != "/var/log/memo.log" {
		t.Fatalf("explicit log path ignored: %q", cfg.LogPath)
	}
}
