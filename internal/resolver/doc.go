// Package resolver implements the get-or-create state machine that turns a
// declared model reference into a concrete model version.
//
// # Resolution order
//
// A resolve call proceeds through a fixed sequence:
//
//  1. Resolve the parent model by name, creating it implicitly on a miss.
//     A creation that loses a race reconciles by re-fetching once.
//  2. With no selector, consult the run-scoped reuse index; a hit
//     short-circuits without any store call.
//  3. With a selector (or a known version id), fetch directly. A miss is a
//     terminal "does not exist", never silently converted into a creation.
//  4. With neither selector nor reuse hit, create a new version. Creation
//     races against concurrent runs are detected solely through the store's
//     uniqueness conflicts and retried with smoothed exponential backoff.
//  5. The outcome is returned as an immutable Resolution; the caller caches
//     it onto the reference via Adopt.
//
// There is no client-side locking: safety under concurrent runs rests
// entirely on the store's uniqueness guarantees. The only blocking points
// are store calls and the backoff sleep, both cancellable through the
// caller's context.
package resolver
