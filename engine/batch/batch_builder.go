package batch

// BuilderOption is a function that configures a Builder instance during construction.
type BuilderOption func(*builderImpl)

// WithLODThresholds is an option builder that sets the distance thresholds for
// level-of-detail selection, ordered near-to-far. A renderable at distance d
// selects the variant of the first threshold with d <= threshold; beyond the
// last threshold the coarsest variant is used.
//
// Parameters:
//   - thresholds: distance thresholds, ascending
//
// Returns:
//   - BuilderOption: a function that applies the threshold option to a builderImpl
func WithLODThresholds(thresholds []float32) BuilderOption {
	return func(b *builderImpl) {
		b.thresholds = append([]float32(nil), thresholds...)
	}
}

// WithInstancingCap is an option builder that sets the hardware-imposed
// maximum instance count per draw submission. Groups exceeding the cap are
// split into multiple adjacent submissions. Values <= 0 leave instancing
// uncapped.
//
// Parameters:
//   - cap: maximum instances per submission
//
// Returns:
//   - BuilderOption: a function that applies the cap option to a builderImpl
func WithInstancingCap(cap int) BuilderOption {
	return func(b *builderImpl) {
		b.instancingCap = cap
	}
}
