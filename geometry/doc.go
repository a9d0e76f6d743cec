// Package geometry implements the hyperbolic trajectory stack used to sign
// authorization tokens.
//
// Points live in the Poincaré disk, the open unit disk of the complex plane.
// A [HyperbolicSpace] derives thirteen Möbius transforms from a master key and
// pushes an encoded point through all of them, producing a fourteen point
// [Trajectory]. The trajectory is hashed into a 64-byte security signature and
// can be checked with [VerifyTrajectoryIntegrity].
//
//	space := geometry.NewHyperbolicSpace(masterKey)
//	trajectory := space.TraverseLayers(geometry.EncodePoint(data))
//	ok := geometry.VerifyTrajectoryIntegrity(trajectory)
//	signature := space.ComputeSecurityHash(data)
//
// Numerical degeneracies (near-singular coefficients, near-zero denominators,
// non-finite intermediate values, points on or past the boundary) are repaired
// in place and never reported as errors.
//
// A HyperbolicSpace is immutable after construction and safe for concurrent use.
package geometry
