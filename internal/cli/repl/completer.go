package repl

import (
	"sort"
	"strings"
)

// Completer suggests commands and route paths.
type Completer struct {
	commands []string
	paths    []string
}

// NewCompleter creates a Completer over the given command names and route
// patterns.
func NewCompleter(commands, paths []string) *Completer {
	c := &Completer{
		commands: append([]string(nil), commands...),
		paths:    append([]string(nil), paths...),
	}
	sort.Strings(c.commands)
	return c
}

// Complete returns completion suggestions for the given input. A command
// prefix completes to command names; after "go " it completes route paths.
func (c *Completer) Complete(prefix string) []string {
	if rest, ok := strings.CutPrefix(prefix, "go "); ok {
		var out []string
		for _, p := range c.paths {
			if strings.HasPrefix(p, strings.TrimSpace(rest)) {
				out = append(out, "go "+p)
			}
		}
		return out
	}

	var suggestions []string
	for _, cmd := range c.commands {
		if prefix != "" && strings.HasPrefix(cmd, prefix) {
			suggestions = append(suggestions, cmd)
		}
	}
	return suggestions
}
