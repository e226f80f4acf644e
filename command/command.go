// Package command provides the command abstraction used as the source side
// of command bindings.
package command

import (
	"github.com/ygrebnov/bind/errors"
	"github.com/ygrebnov/bind/notify"
)

// Command encapsulates an action with can-execute semantics.
type Command interface {
	// Execute runs the action with the given parameter. Execution errors are
	// returned and also emitted on the command's error stream when the
	// implementation has one.
	Execute(param any) error
	// CanExecute reports whether the action may run with the given parameter.
	CanExecute(param any) bool
}

// ReactiveCommand runs a function synchronously on the calling goroutine and
// exposes its gating and outcomes as streams: CanExecute driven by an
// optional bool cell, IsExecuting toggled around each run, results and
// execution errors emitted on dedicated signals.
//
// An execution error is emitted on Errors and returned from Execute; it is
// never allowed to tear down a binding that invokes the command.
type ReactiveCommand struct {
	run         func(param any) (any, error)
	canExecute  *notify.Cell[bool]
	predicate   func(param any) bool
	isExecuting *notify.Cell[bool]
	results     notify.Signal[any]
	errs        notify.Signal[error]
}

// Option configures a ReactiveCommand at construction time.
type Option func(*ReactiveCommand)

// WithCanExecute gates the command on the current value of cell.
func WithCanExecute(cell *notify.Cell[bool]) Option {
	return func(c *ReactiveCommand) { c.canExecute = cell }
}

// WithPredicate gates the command on a parameter predicate, evaluated on
// every CanExecute call in addition to the can-execute cell.
func WithPredicate(p func(param any) bool) Option {
	return func(c *ReactiveCommand) { c.predicate = p }
}

// New constructs a ReactiveCommand around run.
func New(run func(param any) (any, error), opts ...Option) *ReactiveCommand {
	if run == nil {
		panic("command: run function is nil")
	}
	c := &ReactiveCommand{
		run:         run,
		isExecuting: notify.NewCell(false),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CanExecute reports whether the command may run now. A command that is
// currently executing cannot be executed again.
func (c *ReactiveCommand) CanExecute(param any) bool {
	if c.isExecuting.Get() {
		return false
	}
	if c.canExecute != nil && !c.canExecute.Get() {
		return false
	}
	if c.predicate != nil && !c.predicate(param) {
		return false
	}
	return true
}

// Execute runs the command. It fails with ErrCannotExecute when the command
// is gated off.
func (c *ReactiveCommand) Execute(param any) error {
	if !c.CanExecute(param) {
		return errors.ErrCannotExecute
	}
	c.isExecuting.Set(true)
	result, err := c.run(param)
	c.isExecuting.Set(false)
	if err != nil {
		c.errs.Emit(err)
		return err
	}
	c.results.Emit(result)
	return nil
}

// IsExecuting exposes the execution state cell.
func (c *ReactiveCommand) IsExecuting() *notify.Cell[bool] {
	return c.isExecuting
}

// Results exposes the stream of successful execution results.
func (c *ReactiveCommand) Results() *notify.Signal[any] {
	return &c.results
}

// Errors exposes the stream of execution errors. Errors not observed here
// still surface through Execute's return value.
func (c *ReactiveCommand) Errors() *notify.Signal[error] {
	return &c.errs
}
