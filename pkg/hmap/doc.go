// Package hmap implements the tiled heightmap model. A Heightmap is one
// logical 2D field stored as a grid of overlapping tiles; each tile carries
// a halo so tile-local operators see their neighbourhood. Kernels are
// applied with Fill (generators) and Transform (existing fields) under one
// of three TransformModes, and halos are reconciled by
// SmoothOverlapBuffers before a field is read downstream.
package hmap
