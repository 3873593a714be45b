package modelref

// LazyRef is a deferred reference handle, produced when resolution is
// requested while a pipeline is still being defined rather than executed.
// Constructing one never fails, never blocks, and performs no store I/O; it
// only captures enough identity to run the full resolution once execution
// begins.
type LazyRef struct {
	// TargetName and TargetSelector identify what the caller asked for.
	TargetName     string
	TargetSelector Selector

	// ModelName and ModelSelector identify the owning model reference the
	// deferred lookup resolves through. The selector is pinned to the
	// resolved version number when the owning reference already resolved.
	ModelName     string
	ModelSelector Selector
}

// NewLazy captures a deferred handle for the given reference.
func NewLazy(ref *Ref) *LazyRef {
	return &LazyRef{
		TargetName:     ref.Name,
		TargetSelector: ref.Selector,
		ModelName:      ref.Name,
		ModelSelector:  ref.LazySelector(),
	}
}

// Ref materializes the reference the deferred lookup should resolve. The
// returned Ref carries no declared metadata; reconciliation against stored
// metadata is the declaring reference's job, not the lazy handle's.
func (l *LazyRef) Ref() *Ref {
	return &Ref{
		Name:     l.ModelName,
		Selector: l.ModelSelector,
	}
}
