package dedupe

// Option applies a configuration option to the settled-pair set.
type Option func(*settledSet)

// WithMaxSize caps how many keys are remembered. When full, the oldest
// recorded key is forgotten first. maxSize <= 0 means unbounded.
func WithMaxSize(maxSize int) Option {
	return func(d *settledSet) {
		d.maxSize = maxSize
	}
}
