// Package main is the entry point for the redpen demo host.
package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea/v2"

	"github.com/billie-coop/redpen/internal/config"
	"github.com/billie-coop/redpen/internal/lint"
	"github.com/billie-coop/redpen/internal/lint/demo"
	"github.com/billie-coop/redpen/internal/tui"
)

func main() {
	workingDir, err := os.Getwd()
	if err != nil {
		workingDir = "."
	}

	manager := config.NewManager(workingDir)
	if err := manager.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	cfg := manager.Get()

	// An empty analyzer URL selects the built-in offline analyzer.
	var provider lint.Provider = demo.New()
	if cfg.AnalyzerURL != "" {
		provider = lint.NewHTTPProvider(cfg.AnalyzerURL)
	}

	p := tea.NewProgram(tui.New(cfg, provider), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
