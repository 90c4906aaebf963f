package transport

import (
	"context"
	"fmt"
	"strings"

	"github.com/luma/rcon/storage"
)

// Handler executes a command received over RCON and returns the reply text.
type Handler interface {
	Execute(ctx context.Context, command string) string
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, command string) string

func (f HandlerFunc) Execute(ctx context.Context, command string) string {
	return f(ctx, command)
}

// Console is a tiny game-server style console over a variable store.
//
//   echo <text>       replies with <text>
//   cvarlist          lists every variable
//   <name>            prints the variable
//   <name> <value>    sets the variable
type Console struct {
	store storage.Store
}

func NewConsole(store storage.Store) *Console {
	return &Console{store: store}
}

func (c *Console) Execute(ctx context.Context, command string) string {
	line := strings.TrimSpace(command)
	fields := strings.Fields(line)

	if len(fields) == 0 {
		return ""
	}

	name := fields[0]
	rest := strings.TrimSpace(line[len(name):])

	switch name {
	case "echo":
		return rest + "\n"

	case "cvarlist":
		return c.list(ctx)
	}

	if !isVarName(name) {
		return fmt.Sprintf("Unknown command \"%s\"\n", name)
	}

	if rest == "" {
		value, ok, err := c.store.Get(ctx, name)
		if err != nil {
			return fmt.Sprintf("Failed to read \"%s\": %s\n", name, err)
		}

		if !ok {
			return fmt.Sprintf("Unknown command \"%s\"\n", name)
		}

		return fmt.Sprintf("\"%s\" = \"%s\"\n", name, value)
	}

	if err := c.store.Set(ctx, name, unquote(rest)); err != nil {
		return fmt.Sprintf("Failed to set \"%s\": %s\n", name, err)
	}

	return ""
}

func (c *Console) list(ctx context.Context) string {
	vars, err := c.store.List(ctx)
	if err != nil {
		return fmt.Sprintf("Failed to list variables: %s\n", err)
	}

	var b strings.Builder
	for _, v := range vars {
		fmt.Fprintf(&b, "%s = \"%s\"\n", v.Name, v.Value)
	}
	fmt.Fprintf(&b, "%d total convars\n", len(vars))

	return b.String()
}

func isVarName(name string) bool {
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
		default:
			return false
		}
	}

	return name != ""
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}

	return s
}

var _ Handler = (*Console)(nil)
