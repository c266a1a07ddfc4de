package ingest

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/JonMunkholm/ledgerimport/internal/schema"
)

var (
	registry   = make(map[string]schema.EntitySpec)
	registryMu sync.RWMutex
)

func init() {
	for _, spec := range schema.Specs() {
		Register(spec)
	}
}

// Register makes every sheet name of spec resolve to it.
// Panics if a sheet name is already claimed by another entity.
func Register(spec schema.EntitySpec) {
	registryMu.Lock()
	defer registryMu.Unlock()

	for _, name := range spec.SheetNames {
		key := FoldKey(name)
		if existing, ok := registry[key]; ok && existing.Entity != spec.Entity {
			panic(fmt.Sprintf("sheet name %q already registered for %s", name, existing.Entity))
		}
		registry[key] = spec
	}
}

// Lookup resolves a sheet name to its entity spec. An exact (folded) match
// wins; otherwise a registered name followed by a word such as a year
// ("VENTAS 2024") is accepted, longest name first.
func Lookup(sheetName string) (schema.EntitySpec, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	key := FoldKey(sheetName)
	if spec, ok := registry[key]; ok {
		return spec, true
	}

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})
	for _, name := range names {
		if strings.HasPrefix(key, name+" ") {
			return registry[name], true
		}
	}
	return schema.EntitySpec{}, false
}

// SheetNames returns every registered (folded) sheet name, sorted.
func SheetNames() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
