package registry

import (
	"sort"

	"github.com/abderrazaqq12/adspark-ai-sub011/internal/domain"
)

// Registry is the static engine catalog. It is read-only at runtime: lookups
// perform no I/O and have no side effects.
type Registry struct {
	engines []domain.EngineDefinition
	byID    map[domain.EngineID]domain.EngineDefinition
}

// New builds a registry from catalog entries. Entries are copied and indexed;
// ordering is normalized by id so lookups are deterministic regardless of
// catalog file order.
func New(engines []domain.EngineDefinition) *Registry {
	sorted := make([]domain.EngineDefinition, len(engines))
	copy(sorted, engines)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	byID := make(map[domain.EngineID]domain.EngineDefinition, len(sorted))
	for _, e := range sorted {
		byID[e.ID] = e
	}
	return &Registry{engines: sorted, byID: byID}
}

// All returns every engine whose availability flag is set.
func (r *Registry) All() []domain.EngineDefinition {
	out := make([]domain.EngineDefinition, 0, len(r.engines))
	for _, e := range r.engines {
		if e.Available {
			out = append(out, e)
		}
	}
	return out
}

// ByID returns the engine with the given id.
func (r *Registry) ByID(id domain.EngineID) (domain.EngineDefinition, bool) {
	e, ok := r.byID[id]
	return e, ok
}

// ByCapability returns available engines whose capability set contains cap.
func (r *Registry) ByCapability(cap domain.Capability) []domain.EngineDefinition {
	var out []domain.EngineDefinition
	for _, e := range r.engines {
		if e.Available && e.Supports(cap) {
			out = append(out, e)
		}
	}
	return out
}

// LocalVariant returns the local engine matching the environment: the GPU
// variant when the snapshot advertises hardware acceleration, else CPU.
func (r *Registry) LocalVariant(env domain.EnvironmentSnapshot) (domain.EngineDefinition, bool) {
	id := domain.EngineLocalCPU
	if env.GPUReady() {
		id = domain.EngineLocalGPU
	}
	if e, ok := r.byID[id]; ok {
		return e, true
	}
	// GPU variant missing from the catalog still leaves CPU usable.
	return r.ByID(domain.EngineLocalCPU)
}
