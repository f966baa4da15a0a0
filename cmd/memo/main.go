package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"memo/internal/config"
	"memo/internal/notify"
	"memo/internal/scheduler"
	"memo/internal/storage"
	"memo/internal/tasklist"
	"memo/internal/update"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "memo failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()

	log, err := config.NewLogger(cfg.LogPath)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx := context.Background()

	store := storage.New(cfg.DataDir, log)
	if err := store.Initialize(ctx); err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	list := tasklist.New(store, log)

	engine := scheduler.NewEngine(cfg.SchedulerBuffer)
	engine.Start()
	defer engine.Stop()
	store.AddListener(scheduler.NewStoreListener(engine, nil, log))

	if err := list.Refresh(ctx); err != nil {
		return fmt.Errorf("load tasks: %w", err)
	}

	notifier := notify.ForEnabled(cfg.DesktopNotifications)
	model := update.NewModel(list, engine, notifier, cfg, log)

	log.Infow("starting", "data_dir", cfg.DataDir)
	program := tea.NewProgram(model)
	if _, err := program.Run(); err != nil {
		return err
	}
	return nil
}
