package target

import (
	"sort"
	"strings"
	"sync"

	"github.com/sqlweave/sqlweave/pkg/diag"
	"github.com/sqlweave/sqlweave/pkg/source"
)

// Target registry. Target implementations register themselves in their
// init functions; the CLI wires them with blank imports. The table is
// written only during program start and read-only afterwards.
var (
	targetsMu sync.RWMutex
	targets   = make(map[string]*Target)
)

// Register adds a target to the registry, keyed by lowercased name.
func Register(t *Target) {
	targetsMu.Lock()
	defer targetsMu.Unlock()
	targets[strings.ToLower(t.Name)] = t
}

// Get returns the target with the given name, or an UnknownTarget
// diagnostic. The diagnostic carries no source span; there is no source
// position to point at for a bad --target flag.
func Get(name string) (*Target, *diag.Diagnostic) {
	targetsMu.RLock()
	defer targetsMu.RUnlock()
	t, ok := targets[strings.ToLower(name)]
	if !ok {
		return nil, diag.New(diag.UnknownTarget, source.Span{}, "Unknown target '"+name+"'.").
			WithHint("Use '--target help' to list the supported targets.")
	}
	return t, nil
}

// List returns all registered targets sorted by name.
func List() []*Target {
	targetsMu.RLock()
	defer targetsMu.RUnlock()
	out := make([]*Target, 0, len(targets))
	for _, t := range targets {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
