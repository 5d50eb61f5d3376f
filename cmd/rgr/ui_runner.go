package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"rgr/internal/driver"
	"rgr/internal/ui"
)

type replaceOutcome struct {
	result *driver.Result
	err    error
}

// runReplaceWithUI runs the pipeline on a worker goroutine while the review
// program owns the terminal. Quitting the program aborts the remaining
// prompts; the worker still finishes writing what was accepted.
func runReplaceWithUI(ctx context.Context, title string, out *os.File, req driver.Request) (*driver.Result, error) {
	decider := ui.NewDecider()
	req.Decider = decider
	outcomeCh := make(chan replaceOutcome, 1)

	go func() {
		res, err := driver.Run(ctx, req)
		decider.Finish()
		outcomeCh <- replaceOutcome{result: res, err: err}
	}()

	program := tea.NewProgram(ui.NewReviewModel(title, decider), tea.WithOutput(out), tea.WithContext(ctx))
	_, uiErr := program.Run()
	decider.Stop()
	outcome := <-outcomeCh
	if uiErr != nil && outcome.err == nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}
