package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"waspy/internal/driver"
	"waspy/internal/ui"
)

type compileOutcome struct {
	results []*driver.Result
	err     error
}

// compileWithUI runs CompileAll while a Bubble Tea program renders its events.
func compileWithUI(ctx context.Context, title string, inputs []driver.Input, opts driver.Options) ([]*driver.Result, error) {
	events := make(chan driver.Event, 256)
	outcomeCh := make(chan compileOutcome, 1)

	names := make([]string, len(inputs))
	for i, in := range inputs {
		names[i] = in.Name
	}

	go func() {
		opts.Sink = driver.ChannelSink{Ch: events}
		res, err := driver.CompileAll(ctx, inputs, opts)
		outcomeCh <- compileOutcome{results: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, names, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	if uiErr != nil {
		// модель больше не читает канал
		go func() {
			for range events { //nolint:revive // drain
			}
		}()
	}
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.results, uiErr
	}
	return outcome.results, outcome.err
}
