package strategies

import (
	"fmt"
	"sort"
)

// Factory builds a fresh, run-scoped strategy instance from its parameters.
type Factory func(params Params) (Strategy, error)

var registry = make(map[string]Factory)

// Register installs a factory under name. Later registrations for the same
// name win; the built-in strategies register themselves at init time.
func Register(name string, f Factory) {
	registry[name] = f
}

// New instantiates the named strategy. Unknown names fail fast so a typo in
// configuration surfaces before a run starts, not in the middle of one.
func New(name string, params Params) (Strategy, error) {
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q (available: %v)", name, Names())
	}
	return f(params)
}

// Names lists the registered strategy names sorted.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
