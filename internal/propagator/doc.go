// Package propagator drives a straight-line stepper through a list of
// target surfaces until a path limit, a step limit or the last target is
// reached.
//
// Each call to Propagate owns its stepper state, so a single Propagator can
// serve many goroutines. [Ensemble] runs a batch of propagations
// concurrently over shared, read-only geometry.
package propagator
