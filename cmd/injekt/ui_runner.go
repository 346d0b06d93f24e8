package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"injekt/internal/pipeline"
	"injekt/internal/ui"
)

type runOutcome struct {
	result pipeline.Result
	err    error
}

// runWithUI runs the pipeline while the progress view consumes its events.
func runWithUI(ctx context.Context, title string, req pipeline.Request) (pipeline.Result, error) {
	events := make(chan pipeline.Event, 256)
	outcomeCh := make(chan runOutcome, 1)

	go func() {
		req.Progress = pipeline.ChannelSink{Ch: events}
		res, err := pipeline.Run(ctx, &req)
		outcomeCh <- runOutcome{result: res, err: err}
		close(events)
	}()

	uiErr := ui.Run(title, pipeline.DisplayNames(req.Files, req.BaseDir), events, tea.WithOutput(os.Stdout))
	// после выхода из UI события больше никто не читает
	go func() {
		for range events {
		}
	}()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}
