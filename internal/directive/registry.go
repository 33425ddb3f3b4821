package directive

import (
	"strings"
	"sync"
)

// Registry collects directive sets keyed by item name, populated once per
// file before lowering and consulted by the bridge, the ownership analyzer
// and codegen.
type Registry struct {
	mu    sync.Mutex
	items map[string]*Set
}

func NewRegistry() *Registry {
	return &Registry{items: make(map[string]*Set)}
}

// Add registers the directive set for a named item.
func (r *Registry) Add(name string, s *Set) {
	if s.Empty() {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[name] = s
}

// Lookup returns the directives for an item, or nil.
func (r *Registry) Lookup(name string) *Set {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.items[name]
}

// Len returns the number of registered items.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// SkippedFixups returns the union of skip_fixups across all items.
// Fix-up passes operate on the whole emitted file, so a skip anywhere in
// the file disables the pass for the file.
func (r *Registry) SkippedFixups() map[string]bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]bool)
	for _, s := range r.items {
		for _, name := range s.SkipFixups {
			out[name] = true
		}
	}
	return out
}

// UnknownKeys returns unrecognized directive keys grouped by item name.
func (r *Registry) UnknownKeys() map[string][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string][]string)
	for name, s := range r.items {
		if len(s.Unknown) > 0 {
			out[name] = s.Unknown
		}
	}
	return out
}

// CollectFromSource scans source lines for directive blocks above def/class
// statements and registers them under the item name.
func CollectFromSource(src string) *Registry {
	reg := NewRegistry()
	lines := strings.Split(src, "\n")
	for i, line := range lines {
		t := strings.TrimSpace(line)
		name, ok := itemName(t)
		if !ok {
			continue
		}
		if s := CollectAbove(lines, uint32(i+1)); s != nil {
			reg.Add(name, s)
		}
	}
	return reg
}

func itemName(line string) (string, bool) {
	for _, prefix := range []string{"def ", "async def ", "class "} {
		if strings.HasPrefix(line, prefix) {
			rest := strings.TrimPrefix(line, prefix)
			end := strings.IndexAny(rest, "(:")
			if end < 0 {
				return "", false
			}
			name := strings.TrimSpace(rest[:end])
			if name == "" {
				return "", false
			}
			return name, true
		}
	}
	return "", false
}
