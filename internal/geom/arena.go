package geom

import (
	"fmt"
	"sort"
	"sync"
)

type (
	SurfaceID uint64
	VolumeID  uint64
)

// SurfaceLookup resolves surface IDs.
type SurfaceLookup interface {
	Surface(id SurfaceID) (Surface, error)
}

// VolumeLookup resolves volume IDs.
type VolumeLookup interface {
	Volume(id VolumeID) (Volume, error)
}

// Arena owns the surfaces and volumes of one detector description. IDs start
// at 1 and are never reused. It is safe for concurrent use.
type Arena struct {
	mu       sync.RWMutex
	surfaces map[SurfaceID]Surface
	volumes  map[VolumeID]Volume
	nextSurf SurfaceID
	nextVol  VolumeID
}

func NewArena() *Arena {
	return &Arena{
		surfaces: make(map[SurfaceID]Surface),
		volumes:  make(map[VolumeID]Volume),
	}
}

func (a *Arena) AddSurface(s Surface) SurfaceID {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nextSurf++
	a.surfaces[a.nextSurf] = s
	return a.nextSurf
}

func (a *Arena) AddVolume(v Volume) VolumeID {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nextVol++
	a.volumes[a.nextVol] = v
	return a.nextVol
}

func (a *Arena) Surface(id SurfaceID) (Surface, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	s, ok := a.surfaces[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSurface, id)
	}
	return s, nil
}

func (a *Arena) Volume(id VolumeID) (Volume, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	v, ok := a.volumes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownVolume, id)
	}
	return v, nil
}

// SurfaceIDs returns all surface IDs in insertion order.
func (a *Arena) SurfaceIDs() []SurfaceID {
	a.mu.RLock()
	ids := make([]SurfaceID, 0, len(a.surfaces))
	for id := range a.surfaces {
		ids = append(ids, id)
	}
	a.mu.RUnlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Ref returns a reference to id resolved through a.
func (a *Arena) Ref(id SurfaceID) SurfaceRef {
	return SurfaceRef{ID: id, Lookup: a}
}

// SurfaceRef is a non-owning handle to a surface.
type SurfaceRef struct {
	ID     SurfaceID
	Lookup SurfaceLookup
}

func (r SurfaceRef) Resolve() (Surface, error) {
	if r.Lookup == nil {
		return nil, fmt.Errorf("%w: %d (no lookup)", ErrUnknownSurface, r.ID)
	}
	return r.Lookup.Surface(r.ID)
}

func (r SurfaceRef) Valid() bool { return r.Lookup != nil }

type detached struct{ s Surface }

func (d detached) Surface(SurfaceID) (Surface, error) { return d.s, nil }

// Detached wraps a surface that is not registered in any arena, such as a
// transient curvilinear plane. The ID is zero.
func Detached(s Surface) SurfaceRef {
	return SurfaceRef{Lookup: detached{s}}
}
