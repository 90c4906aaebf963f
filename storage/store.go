package storage

import "context"

// Store holds the console variables (cvars) of a mock RCON server.
type Store interface {
	Set(ctx context.Context, name string, value string) error
	Get(ctx context.Context, name string) (value string, ok bool, err error)
	List(ctx context.Context) ([]Var, error)

	// Restore replaces every variable with the JSON object in values.
	Restore(values []byte) error

	// Backup returns every variable as a JSON object.
	Backup() ([]byte, error)

	ListenToUpdates() <-chan *Update

	Close() error
}

type Var struct {
	Name  string
	Value string
}

// Update is published whenever a variable is set.
type Update struct {
	Name  string
	Value string
}
