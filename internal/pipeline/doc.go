// Package pipeline turns a source package into a generated text module that
// embeds the compiled WebAssembly binary as a base64 string.
//
// A run moves strictly forward through four stages:
//
//	Start → Compiled → Optimized | FallbackCopied → Encoded → CleanedUp
//
//  1. Compile runs the compiler; the Binary Artifact must exist afterwards.
//  2. Optimize runs the optimizer into the Optimized Artifact. If the
//     optimizer is missing or fails, the Binary Artifact is copied there
//     unchanged and a warning is reported. Both branches leave exactly one
//     non-empty Optimized Artifact.
//  3. Encode writes `export default "<base64>";` to the Generated Module.
//  4. Cleanup removes the intermediate artifacts.
//
// Only an optimizer failure is recovered. A compiler failure or any I/O
// failure aborts the run, leaves the Generated Module untouched if the
// failure came before Encode, and surfaces as a *Error.
//
// Runs are single-threaded and assume exclusive use of their paths. Two runs
// against the same paths at once will corrupt each other's intermediates.
package pipeline
