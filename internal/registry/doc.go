// Package registry provides the central "glue" for the module system.
//
// The Registry is a closed mapping from the type tags used in graph documents
// (e.g., "llm", "vector_store") to the compiled Go strategies that construct
// them. Node tags map to NodeStrategy values and reference tags to
// ReferenceStrategy values. It also carries the function library that
// function_from_library nodes resolve against.
//
// Modules populate the registry once at startup. Looking up a tag nobody
// registered is always an error, never a silent no-op.
package registry
