// Package config describes what wasmpack builds and where every file lives.
//
// A configuration names the source package and toolchain pin, the optimizer
// invocation, and the four fixed paths of a pipeline run (source root, Binary
// Artifact, Optimized Artifact, Generated Module). It can come from:
//
//   - Default(), which reproduces the stock build with no file at all
//   - a wasmpack.cue file, unified with the embedded schema.cue
//   - a wasmpack.yaml / wasmpack.yml file, decoded over Default()
//
// Relative paths are resolved against the directory of the file they were
// loaded from. Resolve turns them into absolute Paths for the pipeline.
//
// In CUE files the package field must be quoted ("package": "my-crate"),
// since a bare package at the top of a file is a package clause.
package config
