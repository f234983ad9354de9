// Package geom describes the detector geometry seen by the propagation
// code: reference surfaces, volumes and the arena that owns them.
//
// Surfaces and volumes are stored once in an [Arena] and referred to by
// stable IDs. Track parameters and measurements keep a [SurfaceRef] and
// resolve it when they need the surface.
package geom
