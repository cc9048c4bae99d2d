package trainer

// Config holds the hyperparameters a Trainer applies to every run. Zero
// values fall back to the network defaults.
type Config struct {
	Epochs          int
	BatchSize       int
	ValidationSplit float64
	LearningRate    float64
	// Hidden overrides the hidden layer widths. At most two are used.
	Hidden []int
	// Seed fixes weight init and shuffling when non-zero.
	Seed uint64
	// LogEvery logs progress every n epochs; 0 disables progress logs.
	LogEvery int
}

const maxHidden = 2

// HiddenLayers returns the hidden widths for a feature width f: the
// configured override, or [64, 32] above 64 features and [16, 8] otherwise.
func (c Config) HiddenLayers(f int) []int {
	if len(c.Hidden) > 0 {
		return c.Hidden[:min(len(c.Hidden), maxHidden)]
	}
	if f > 64 {
		return []int{64, 32}
	}
	return []int{16, 8}
}
