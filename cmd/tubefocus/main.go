package main

import (
	"log"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"tubefocus/internal/bus"
	"tubefocus/internal/coordinator"
	"tubefocus/internal/logger"
	"tubefocus/internal/storage"
	"tubefocus/internal/timer"
	"tubefocus/internal/ui/popup"
	"tubefocus/internal/ui/stats"
)

func main() {
	store, err := storage.New()
	if err != nil {
		log.Fatal("Failed to initialize storage:", err)
	}

	if err := logger.Init(filepath.Join(store.DataDir(), "logs"), false); err != nil {
		log.Fatal("Failed to initialize logging:", err)
	}
	defer logger.Close()

	if err := runApp(store); err != nil {
		log.Fatal(err)
	}
}

func runApp(store *storage.Storage) error {
	pages := bus.New()
	coord := coordinator.New(store, pages, timer.Options{})

	for {
		p := tea.NewProgram(popup.New(coord, store, pages), tea.WithAltScreen())
		finalModel, err := p.Run()
		if err != nil {
			return err
		}

		popupModel := finalModel.(popup.Model)
		if !popupModel.ShowStats() {
			return nil
		}

		statsModel, err := stats.New(store)
		if err != nil {
			return err
		}
		p = tea.NewProgram(statsModel, tea.WithAltScreen())
		finalModel, err = p.Run()
		if err != nil {
			return err
		}
		if !finalModel.(stats.Model).Back() {
			return nil
		}
	}
}
