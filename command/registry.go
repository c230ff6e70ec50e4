package command

import (
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"emperror.dev/errors"
	"github.com/xf8b/xf8bot/common/log"
)

// Namespace is a group of commands registered together.
type Namespace interface {
	Name() string
	Commands() []*Command
}

// Registry maps command names and aliases to descriptors.
// Commands are registered at startup; after Freeze the registry is read-only
// and lookups don't lock.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]*Command
	list     []*Command
	frozen   atomic.Bool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]*Command)}
}

// Register validates and adds commands.
// A command is added only if neither its name nor any alias is taken.
func (r *Registry) Register(cmds ...*Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen.Load() {
		return ErrFrozen
	}

	for _, cmd := range cmds {
		if err := cmd.Validate(); err != nil {
			return err
		}

		names := cmd.Names()
		seen := make(map[string]struct{}, len(names))
		for _, name := range names {
			if _, ok := r.commands[name]; ok {
				return &DuplicateCommandError{Name: name}
			}
			if _, ok := seen[name]; ok {
				return &DuplicateCommandError{Name: name}
			}
			seen[name] = struct{}{}
		}

		for _, name := range names {
			r.commands[name] = cmd
		}
		r.list = append(r.list, cmd)
	}
	return nil
}

// Discover registers every command in each namespace.
func (r *Registry) Discover(namespaces ...Namespace) error {
	for _, ns := range namespaces {
		cmds := ns.Commands()
		log.Debugf("Adding %d %v commands", len(cmds), ns.Name())

		if err := r.Register(cmds...); err != nil {
			return errors.Wrapf(err, "registering %v commands", ns.Name())
		}
	}
	return nil
}

// Freeze makes the registry read-only.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen.Store(true)
	r.mu.Unlock()
}

// Lookup returns the command with the given name or alias, ignoring case.
func (r *Registry) Lookup(name string) (*Command, bool) {
	if r.frozen.Load() {
		cmd, ok := r.commands[strings.ToLower(name)]
		return cmd, ok
	}

	r.mu.RLock()
	cmd, ok := r.commands[strings.ToLower(name)]
	r.mu.RUnlock()
	return cmd, ok
}

// Commands returns every registered command, sorted by name.
func (r *Registry) Commands() []*Command {
	r.mu.RLock()
	cmds := make([]*Command, len(r.list))
	copy(cmds, r.list)
	r.mu.RUnlock()

	sort.Slice(cmds, func(i, j int) bool {
		return cmds[i].Name < cmds[j].Name
	})
	return cmds
}

// ByCategory returns every registered command grouped by category, sorted by name.
func (r *Registry) ByCategory() map[Category][]*Command {
	m := make(map[Category][]*Command)
	for _, cmd := range r.Commands() {
		m[cmd.Category] = append(m[cmd.Category], cmd)
	}
	return m
}
