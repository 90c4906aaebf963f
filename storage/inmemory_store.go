package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const (
	UpdateBufferSize = 255
)

type InmemoryStore struct {
	mu          sync.Mutex
	values      []byte
	updateChans []chan *Update

	// stop willl be closed when Close() is called
	stop chan struct{}
}

func NewInmemoryStore() *InmemoryStore {
	return &InmemoryStore{
		values:      []byte("{}"),
		stop:        make(chan struct{}),
		updateChans: make([]chan *Update, 0),
	}
}

func (i *InmemoryStore) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if !i.isRunning() {
		return nil
	}

	close(i.stop)

	for _, updateChan := range i.updateChans {
		close(updateChan)
	}

	return nil
}

func (i *InmemoryStore) Set(ctx context.Context, name string, value string) (err error) {
	if name == "" {
		return fmt.Errorf("Variable name can't be empty")
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	i.values, err = sjson.SetBytes(i.values, escapePath(name), value)
	if err != nil {
		return err
	}

	if !i.isRunning() {
		return nil
	}

	for _, updateChan := range i.updateChans {
		select {
		case updateChan <- &Update{Name: name, Value: value}:
		default:
			// Slow listeners miss updates rather than blocking writers
		}
	}

	return nil
}

func (i *InmemoryStore) Get(ctx context.Context, name string) (string, bool, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	result := gjson.GetBytes(i.values, escapePath(name))
	if !result.Exists() {
		return "", false, nil
	}

	return result.String(), true, nil
}

func (i *InmemoryStore) List(ctx context.Context) ([]Var, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	vars := make([]Var, 0)
	gjson.ParseBytes(i.values).ForEach(func(key, value gjson.Result) bool {
		vars = append(vars, Var{Name: key.String(), Value: value.String()})
		return true
	})

	sort.Slice(vars, func(a, b int) bool {
		return vars[a].Name < vars[b].Name
	})

	return vars, nil
}

func (i *InmemoryStore) ListenToUpdates() <-chan *Update {
	i.mu.Lock()
	defer i.mu.Unlock()

	updateChan := make(chan *Update, UpdateBufferSize)
	if !i.isRunning() {
		close(updateChan)
		return updateChan
	}

	i.updateChans = append(i.updateChans, updateChan)

	return updateChan
}

func (i *InmemoryStore) Restore(values []byte) error {
	if len(values) == 0 {
		values = []byte("{}")
	}

	if !gjson.ValidBytes(values) || !gjson.ParseBytes(values).IsObject() {
		return fmt.Errorf("Cannot restore variables, expected a JSON object")
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	i.values = append([]byte(nil), values...)
	return nil
}

func (i *InmemoryStore) Backup() ([]byte, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	return append([]byte(nil), i.values...), nil
}

// isRunning returns true if Close has not been called
func (i *InmemoryStore) isRunning() bool {
	select {
	case <-i.stop:
		return false

	default:
		return true
	}
}

var pathEscaper = strings.NewReplacer(
	`\`, `\\`,
	`.`, `\.`,
	`*`, `\*`,
	`?`, `\?`,
	`|`, `\|`,
	`#`, `\#`,
	`@`, `\@`,
)

// escapePath stops gjson/sjson from treating a variable name as a path.
func escapePath(name string) string {
	return pathEscaper.Replace(name)
}

var _ Store = (*InmemoryStore)(nil)
