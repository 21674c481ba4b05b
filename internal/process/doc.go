// Package process is the boundary between wasmpack and the external tools it
// drives (the compiler and the optimizer).
//
// Everything that spawns a child process goes through Runner, so tests can
// substitute a scripted implementation and never touch a real toolchain.
//
// Child processes run synchronously. Their stdout and stderr are copied to the
// operator's streams as they are produced, so compiler diagnostics stay
// visible, and are also captured on the Result.
package process
