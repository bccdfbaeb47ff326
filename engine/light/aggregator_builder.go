package light

// AggregatorBuilderOption is a function that configures an Aggregator instance during construction.
type AggregatorBuilderOption func(*aggregatorImpl)

// WithMaxPerDraw is an option builder that caps the dynamic light list
// returned per draw call. Deferred pipelines tolerate far more lights than
// forward pipelines, so the cap comes from the renderer configuration.
// Values <= 0 leave the list uncapped.
//
// Parameters:
//   - maxLights: maximum dynamic lights returned by ActiveLights
//
// Returns:
//   - AggregatorBuilderOption: a function that applies the cap option to an aggregatorImpl
func WithMaxPerDraw(maxLights int) AggregatorBuilderOption {
	return func(a *aggregatorImpl) {
		a.maxPerDraw = maxLights
	}
}
