// Package document is the format-agnostic data model of a graph document and
// the loaders that produce it.
//
// A document is first read into its raw form (a plain map, as produced by the
// YAML or HCL loader) so that structural validation can report problems in the
// user's own terms. Only a validated raw document is decoded into the typed
// Document model consumed by the compiler.
package document
