// Package track holds the track parameter representations: bound to a
// surface, curvilinear and free.
//
// Charged parameters store q/p in the QOverP slot. Neutral parameters have
// zero charge and store 1/p there instead, so the momentum can always be
// recovered from the stored vector.
package track
