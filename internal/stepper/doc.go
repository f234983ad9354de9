// Package stepper advances a track state along a straight line and keeps
// the bookkeeping needed to transport its covariance.
//
// A [State] is created once per propagation and owned by it. The
// [StraightLineStepper] is stateless; every operation takes the state
// explicitly. The propagator drives the stepper: it sets step limits from
// surface intersections and aborters, calls Step, and extracts bound or
// curvilinear parameters when needed.
package stepper
