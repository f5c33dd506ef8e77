package perf

import (
	"sort"
	"sync"

	"github.com/routelab/hoptrace/internal/model"
)

// DefaultCapacity is the per-module window of recent chains kept in memory.
const DefaultCapacity = 10

// Buffer keeps the most recent completed chains per module, oldest first.
// It is safe for concurrent use; the HTTP handlers and the stream hub hit it
// from separate goroutines.
type Buffer struct {
	mu       sync.Mutex
	capacity int
	modules  map[string][]model.PerfEventChain
}

// NewBuffer creates a buffer holding up to capacity chains per module.
// Non-positive capacity means DefaultCapacity.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{
		capacity: capacity,
		modules:  make(map[string][]model.PerfEventChain),
	}
}

// Add stores chain under module. A buffered chain with the same trace ID is
// replaced in place by the merge winner instead of appended, so retransmits
// and fold-ins don't consume window slots. Beyond capacity the oldest chain
// is evicted. Returns the stored chain and whether a merge happened.
func (b *Buffer) Add(module string, chain model.PerfEventChain) (model.PerfEventChain, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	chains := b.modules[module]

	if chain.TraceID != "" {
		for i, existing := range chains {
			if existing.TraceID == chain.TraceID {
				merged := Merge(existing, chain)
				chains[i] = merged
				return merged, true
			}
		}
	}

	chains = append(chains, chain)
	if len(chains) > b.capacity {
		chains = append(chains[:0:0], chains[len(chains)-b.capacity:]...)
	}
	b.modules[module] = chains
	return chain, false
}

// Snapshot returns a copy of module's buffered chains, oldest first. An
// unknown module yields an empty database, not an error: viewing an idle
// module prints nothing.
func (b *Buffer) Snapshot(module string) *model.PerfDatabase {
	b.mu.Lock()
	defer b.mu.Unlock()

	chains := b.modules[module]
	db := &model.PerfDatabase{EventInfo: make([]model.PerfEventChain, len(chains))}
	for i, c := range chains {
		cp := c
		cp.Events = append([]model.PerfEvent(nil), c.Events...)
		db.EventInfo[i] = cp
	}
	return db
}

// Clear drops module's buffered chains and returns how many were dropped.
func (b *Buffer) Clear(module string) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := len(b.modules[module])
	delete(b.modules, module)
	return n
}

// Modules summarizes the buffered modules, sorted by name.
func (b *Buffer) Modules() []model.ModuleInfo {
	b.mu.Lock()
	defer b.mu.Unlock()

	infos := make([]model.ModuleInfo, 0, len(b.modules))
	for name, chains := range b.modules {
		info := model.ModuleInfo{Name: name, Chains: len(chains)}
		if len(chains) > 0 {
			info.LastUnixTs = chains[len(chains)-1].EndUnixTs()
		}
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// Totals returns the module count and the total number of buffered chains.
func (b *Buffer) Totals() (modules, chains int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, c := range b.modules {
		chains += len(c)
	}
	return len(b.modules), chains
}
