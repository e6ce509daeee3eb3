// Package model defines the declarative field configuration consumed by the
// render pipeline. A Config describes either a leaf field, located in the
// caller's Store through its dotted ResultPath, or a group whose Elements are
// walked in order. Kinds form a closed set of built-in controls (text-like
// inputs, toggle, radio, dropdown, checkbox, range, textarea) plus the
// structural group; any other kind string is treated as caller-defined and is
// resolved through the component resolvers registered on the form.
//
// Configs are treated as immutable for the duration of a render pass. Store
// values are only read by the pipeline; writes happen through the change
// callbacks supplied by the caller.
package model
