package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"coflow/internal/driver"
	"coflow/internal/ui"
)

type benchOutcome struct {
	results []benchResult
	err     error
}

func runBenchWithUI(ctx context.Context, title string, names []string, b *bench, preps []*driver.Prepared) ([]benchResult, error) {
	events := make(chan ui.Event, 256)
	outcomeCh := make(chan benchOutcome, 1)

	go func() {
		res, err := b.run(ctx, preps, ui.ChannelSink{Ch: events})
		outcomeCh <- benchOutcome{results: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, names, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	// The UI may quit early; keep the producer unblocked.
	go func() {
		for range events {
		}
	}()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.results, uiErr
	}
	return outcome.results, outcome.err
}
