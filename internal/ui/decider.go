package ui

import (
	"context"
	"sync"

	"rgr/internal/replay"
)

// request is one prompt travelling from the pipeline goroutine to the
// program; the answer comes back on reply.
type request struct {
	prompt replay.Prompt
	reply  chan replay.Action
}

// Decider hands prompts to a running review program. Decide blocks the
// pipeline goroutine until the operator answers.
type Decider struct {
	requests chan request
	stopped  chan struct{}
	finish   sync.Once
	stop     sync.Once
}

// NewDecider returns a decider with no program attached yet.
func NewDecider() *Decider {
	return &Decider{
		requests: make(chan request),
		stopped:  make(chan struct{}),
	}
}

// Decide implements replay.Decider. Once the program has exited every call
// answers abort.
func (d *Decider) Decide(ctx context.Context, p replay.Prompt) (replay.Action, error) {
	req := request{prompt: p, reply: make(chan replay.Action, 1)}
	select {
	case d.requests <- req:
	case <-d.stopped:
		return replay.ActionAbort, nil
	case <-ctx.Done():
		return replay.ActionAbort, ctx.Err()
	}
	select {
	case a := <-req.reply:
		return a, nil
	case <-d.stopped:
		return replay.ActionAbort, nil
	case <-ctx.Done():
		return replay.ActionAbort, ctx.Err()
	}
}

// Finish tells the program that no more prompts will come. Call it from the
// pipeline goroutine after the last Decide.
func (d *Decider) Finish() {
	d.finish.Do(func() { close(d.requests) })
}

// Stop releases any Decide blocked on a program that has exited.
func (d *Decider) Stop() {
	d.stop.Do(func() { close(d.stopped) })
}
