package captions

// Config holds configuration for caption matching
type Config struct {
	// VerticalMargin is the maximum vertical gap between a caption and its
	// detection, as a fraction of page height. The default is a calibration
	// constant, not a derived value; tune it against a labeled corpus when
	// documents deviate from the usual caption placement.
	// Default: 0.125
	VerticalMargin float64
}

// DefaultConfig returns sensible default configuration
func DefaultConfig() Config {
	return Config{
		VerticalMargin: 0.125,
	}
}
