package sources

import (
	"sort"
	"strings"
	"sync"
)

type Factory func(deps Deps) Source

// Info describes a registered source: its factory plus what the
// orchestrator must provide before invoking it.
type Info struct {
	Name            string
	RequiresProxy   bool
	RequiresBrowser bool
	New             Factory
}

// Free reports whether the source needs neither proxy nor browser. Free
// sources are tried first and count toward the early-exit quorum.
func (i Info) Free() bool {
	return !i.RequiresProxy && !i.RequiresBrowser
}

var (
	registryMu sync.RWMutex
	registry   = map[string]Info{}
)

func Register(info Info) {
	n := strings.ToLower(strings.TrimSpace(info.Name))
	if n == "" {
		panic("sources: empty name in Register")
	}
	if info.New == nil {
		panic("sources: nil factory in Register for " + n)
	}

	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[n]; exists {
		panic("sources: duplicate registration for " + n)
	}
	info.Name = n
	registry[n] = info
}

func ByName(name string) (Info, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	registryMu.RLock()
	defer registryMu.RUnlock()
	info, ok := registry[n]
	return info, ok
}

func AvailableNames() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
