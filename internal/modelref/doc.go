// Package modelref provides the user-facing model version reference: a model
// name plus an optional version selector, along with the descriptive metadata
// a caller declares alongside it.
//
// # Core Concepts
//
//   - Selector: the classified form of a raw version token. Classification
//     happens exactly once, when the token is parsed, and is pure: a token
//     either names a known stage, is purely numeric, or is taken as a literal
//     version name. An absent token means "no selector".
//
//   - Ref: the reference itself. A Ref starts out unresolved and is filled in
//     exactly once by the resolver via Adopt. It is owned by a single caller;
//     hand a Copy to anything that runs concurrently.
//
//   - LazyRef: a placeholder handle produced while a pipeline is still being
//     defined. It captures enough identity to run the full resolution later,
//     at execution time, and constructing one never touches the store.
//
// The resolver in internal/resolver consumes these types; this package never
// performs I/O itself.
package modelref
