// Package registry maps engine type names to adapter factories so gateway
// configs can be resolved by type.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/gizmodata/gizmosql-go/adapter"
	"github.com/gizmodata/gizmosql-go/config"
)

// Factory builds an engine adapter over an open connection.
type Factory func(conn adapter.Conn) *adapter.Adapter

// Registration ties an engine type to its dialect and adapter factory.
type Registration struct {
	Type        string
	Dialect     string
	DisplayName string
	Factory     Factory
}

var (
	mu      sync.RWMutex
	engines = map[string]Registration{}
)

// Register adds an engine registration. Registering the same type twice is
// a no-op so import-time registration stays idempotent.
func Register(reg Registration) {
	mu.Lock()
	defer mu.Unlock()
	if _, ok := engines[reg.Type]; ok {
		return
	}
	engines[reg.Type] = reg
}

// Lookup returns the registration for an engine type.
func Lookup(engineType string) (Registration, error) {
	mu.RLock()
	defer mu.RUnlock()
	reg, ok := engines[engineType]
	if !ok {
		return Registration{}, fmt.Errorf("unknown engine type %q", engineType)
	}
	return reg, nil
}

// Engines returns the registered engine types, sorted.
func Engines() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(engines))
	for name := range engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	Register(Registration{
		Type:        config.EngineType,
		Dialect:     config.Dialect,
		DisplayName: config.DisplayName,
		Factory: func(conn adapter.Conn) *adapter.Adapter {
			return adapter.New(conn)
		},
	})
}
