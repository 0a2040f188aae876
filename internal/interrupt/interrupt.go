// Package interrupt turns asynchronous interrupt signals into a cooperative
// stop request for the trial loop.
package interrupt

import (
	"context"
	"os"
	"os/signal"
	"sync/atomic"
)

// State is the position of the controller in its idle → stop → exit sequence.
type State int32

const (
	StateIdle State = iota
	StateStopRequested
	StateForceExit
)

// Controller tracks interrupts. The first Notify cancels Context; the trial loop
// polls it once per file. The second Notify terminates the process through exit
// without returning.
type Controller struct {
	state  atomic.Int32
	ctx    context.Context
	cancel context.CancelFunc
	exit   func(int)
}

// New creates a controller deriving its context from parent. A nil exit uses os.Exit.
func New(parent context.Context, exit func(int)) *Controller {
	if parent == nil {
		parent = context.Background()
	}
	if exit == nil {
		exit = os.Exit
	}
	ctx, cancel := context.WithCancel(parent)
	return &Controller{ctx: ctx, cancel: cancel, exit: exit}
}

// Context is cancelled once a stop has been requested.
func (c *Controller) Context() context.Context {
	return c.ctx
}

// State returns the current state.
func (c *Controller) State() State {
	return State(c.state.Load())
}

// StopRequested reports whether at least one interrupt was received.
func (c *Controller) StopRequested() bool {
	return c.State() != StateIdle
}

// Notify advances the state by one interrupt.
func (c *Controller) Notify() {
	switch State(c.state.Add(1)) {
	case StateStopRequested:
		c.cancel()
	case StateForceExit:
		c.exit(0)
	}
}

// Watch delivers the given signals (os.Interrupt when none) to Notify until the
// returned stop func is called. The watcher goroutine touches nothing but the
// controller state.
func (c *Controller) Watch(signals ...os.Signal) (stop func()) {
	if len(signals) == 0 {
		signals = []os.Signal{os.Interrupt}
	}
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, signals...)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ch:
				c.Notify()
			case <-done:
				return
			}
		}
	}()

	var stopped atomic.Bool
	return func() {
		if stopped.CompareAndSwap(false, true) {
			signal.Stop(ch)
			close(done)
			c.cancel()
		}
	}
}
