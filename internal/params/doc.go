// Package params defines the parameter spaces used to describe a track.
//
// Two parameterizations exist:
//
//   - [BoundIndex]: six parameters local to a reference surface
//     (loc0, loc1, phi, theta, q/p, time)
//   - [FreeIndex]: eight global parameters
//     (x, y, z, time, dx, dy, dz, q/p)
//
// A [ParameterSet] holds an ordered subset of one parameterization together
// with an optional covariance. Each index carries a [Policy] that keeps its
// value in range: phi is cyclic, theta is bounded, the rest are free.
//
// # Example
//
//	set, err := params.NewParameterSet(cov,
//	    []params.BoundIndex{params.BoundLoc0, params.BoundPhi}, 0.1, 3.0)
//	res, err := set.Residual(fullSet)
package params
