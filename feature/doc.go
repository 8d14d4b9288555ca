// Package feature turns decoded images into fixed-length appearance vectors.
//
// Two strategies are available, selected by Config.Strategy:
//   - texture: rotation-invariant uniform local binary patterns and a
//     gradient orientation histogram, computed per cell of a grid
//   - embedding: a dense vector from an external face/image model
//
// Decoding is a separate step (Decode) so callers can tell unreadable
// input apart from extraction failures.
package feature
