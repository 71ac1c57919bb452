package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"hirindex/internal/driver"
	"hirindex/internal/ui"
)

type uiMode string

const (
	uiModeAuto uiMode = "auto"
	uiModeOn   uiMode = "on"
	uiModeOff  uiMode = "off"
)

func readUIMode(value string) (uiMode, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "auto":
		return uiModeAuto, nil
	case "on":
		return uiModeOn, nil
	case "off":
		return uiModeOff, nil
	default:
		return "", fmt.Errorf("invalid --ui value %q (expected auto|on|off)", value)
	}
}

func shouldUseTUI(mode uiMode) bool {
	switch mode {
	case uiModeOn:
		return true
	case uiModeOff:
		return false
	default:
		return isTerminal(os.Stderr)
	}
}

type indexOutcome struct {
	owners []driver.OwnerSummary
	err    error
}

// runIndexWithUI indexes the session crate while a progress view renders
// the per-owner events.
func runIndexWithUI(ctx context.Context, s *driver.Session) ([]driver.OwnerSummary, error) {
	defs := s.Crate().OwnerDefs()
	paths := make([]string, len(defs))
	for i, def := range defs {
		paths[i] = s.Crate().Defs.DefPath(def)
	}

	events := make(chan driver.ProgressEvent, 256)
	outcomeCh := make(chan indexOutcome, 1)
	go func() {
		s.Progress = driver.ChannelSink{Ch: events}
		owners, err := s.IndexAll(ctx)
		s.Progress = nil
		outcomeCh <- indexOutcome{owners: owners, err: err}
		close(events)
	}()

	model := ui.NewProgressModel("index "+s.Crate().Name, paths, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stderr))
	_, uiErr := program.Run()
	if uiErr != nil {
		// drain the remaining events
		go func() {
			for range events {
			}
		}()
	}
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.owners, uiErr
	}
	return outcome.owners, outcome.err
}
