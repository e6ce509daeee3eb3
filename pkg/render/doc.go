// Package render walks declarative field configs against a store snapshot and
// produces render-ready node descriptors.
//
// A Form owns the configs, the ordered component and value resolvers, and the
// validate flag. Every Walk re-derives everything from scratch: values are
// looked up through pkg/path, validators run for each visible leaf, and the
// error list is rebuilt in flattened config order. Errors are always computed
// but a node only surfaces its error when the form is validating (after
// Validate) or when the field opts into instant validation.
//
// Callbacks are rebound per field so each handler receives the originating
// config. Change events derive a new store through the value resolvers
// (falling back to an immutable path.Set) before the caller's handler runs;
// persisting that store is left to the caller.
//
// Output surfaces (HTML, terminal) implement Renderer and consume the Result
// of a walk.
package render
