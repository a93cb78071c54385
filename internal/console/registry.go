package console

import (
	"errors"
	"fmt"
)

// ErrUnknownCommand is returned by Execute for names never registered.
var ErrUnknownCommand = errors.New("unknown command")

// ErrExitRequested is the sentinel a handler returns to ask the loop to
// shut the session down. It travels the normal error channel and is
// intercepted at the dispatch boundary, never shown to the user.
var ErrExitRequested = errors.New("exit requested")

// HandlerFunc is the unit of behavior bound to one command name. It
// receives the arguments split on whitespace and the live session.
type HandlerFunc func(args []string, sess *Session) error

// Command pairs a registered name with its handler and help text.
type Command struct {
	Name        string
	Description string
	Run         HandlerFunc
}

// Registry maps slash-command names to handlers. Lookup is by exact,
// case-sensitive name with no leading slash. It is populated before the
// loop starts and read-only afterwards.
type Registry struct {
	order    []string
	commands map[string]Command
}

// NewRegistry returns an empty command registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]Command)}
}

// Register adds a command. Registering a name that already exists
// silently replaces the earlier handler; the name keeps its original
// position in List order.
func (r *Registry) Register(cmd Command) {
	if _, exists := r.commands[cmd.Name]; !exists {
		r.order = append(r.order, cmd.Name)
	}
	r.commands[cmd.Name] = cmd
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.commands[name]
	return ok
}

// Execute looks up name and invokes its handler. Handler failures
// propagate unchanged; presenting them to the user is the loop's job.
func (r *Registry) Execute(name string, args []string, sess *Session) error {
	cmd, ok := r.commands[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	return cmd.Run(args, sess)
}

// List returns the registered commands in registration order, which
// keeps help output stable across invocations.
func (r *Registry) List() []Command {
	out := make([]Command, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.commands[name])
	}
	return out
}
