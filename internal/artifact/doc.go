// Package artifact handles the binary files that flow through the pipeline:
// reading them, copying them, and computing their content digests.
//
// Digests use SHA-256 with domain separation so that a binary and a
// generated module with coincidentally identical bytes never share an ID.
package artifact
