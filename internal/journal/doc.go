// Package journal provides SQLite-backed storage for the history of pipeline
// runs.
//
// Each `wasmpack build` with a journal configured appends one row to the
// runs table: the run ID, final stage, optimize branch, error kind, artifact
// sizes and domain-separated digests of the Binary Artifact, Optimized
// Artifact and Generated Module.
//
// # Ordering
//
//   - Runs are ordered by seq INTEGER (insertion order), never timestamps
//   - No wall-clock values are stored, so two journals of identical runs
//     differ only in their run IDs
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
package journal
