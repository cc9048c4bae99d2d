package inference

import (
	"math"
	"strings"
)

// Gate constants.
const (
	DefaultThreshold = 0.3

	// binaryBand rejects binary confidences within this distance of 0.5.
	binaryBand = 0.3
	// entropyLimit marks a multi-class distribution as ambiguous. It is
	// applied from three classes up: with two classes a confident 0.8/0.2
	// split already has normalized entropy 0.72.
	entropyLimit = 0.7
	// marginLimit marks top-two probabilities this close as ambiguous.
	marginLimit = 0.3
	// pairFloor raises the threshold for two-class models without a
	// catch-all class.
	pairFloor = 0.75
	// probFloor excludes near-zero probabilities from the entropy sum.
	probFloor = 1e-4
)

var catchAll = []string{"background", "none", "empty"}

// Gate applies the confidence and ambiguity policy to the probability
// vector p of a model trained on labels. len(p) is 1 for single-label
// models and len(labels) otherwise.
func Gate(p []float64, labels []string, threshold float64, debug bool) Decision {
	d := Decision{Probabilities: make(map[string]float64, len(p))}

	if len(p) == 1 {
		d.Candidate = labels[0]
		d.Confidence = p[0]
		d.Probabilities[labels[0]] = p[0]
		d.Threshold = threshold
		d.Margin = math.Abs(p[0] - 0.5)
		switch {
		case d.Margin < binaryBand:
			d.Ambiguous = true
			d.Reason = ReasonAmbiguous
		case p[0] < threshold:
			d.Reason = ReasonLowConfidence
		default:
			d.Accepted = true
		}
		return finish(d, debug)
	}

	for i, v := range p {
		d.Probabilities[labels[i]] = v
	}

	top, second := topTwo(p)
	d.Candidate = labels[top]
	d.Confidence = p[top]
	d.Margin = p[top] - second
	d.Entropy = normalizedEntropy(p)

	d.Threshold = threshold
	if len(p) == 2 && !hasCatchAll(labels) {
		d.Threshold = math.Max(threshold, pairFloor)
	}

	d.Ambiguous = d.Margin < marginLimit || (len(p) >= 3 && d.Entropy > entropyLimit)
	switch {
	case d.Ambiguous:
		d.Reason = ReasonAmbiguous
	case d.Confidence < d.Threshold:
		d.Reason = ReasonLowConfidence
	default:
		d.Accepted = true
	}
	return finish(d, debug)
}

func finish(d Decision, debug bool) Decision {
	switch {
	case d.Accepted:
		d.Label = d.Candidate
	case debug:
		d.Label = d.Candidate + " (" + d.Reason + ")"
	}
	return d
}

func topTwo(p []float64) (top int, second float64) {
	second = math.Inf(-1)
	for i := 1; i < len(p); i++ {
		if p[i] > p[top] {
			second = p[top]
			top = i
		} else if p[i] > second {
			second = p[i]
		}
	}
	return top, second
}

// normalizedEntropy is the base-2 entropy of p over entries above
// probFloor divided by log2(len(p)), clamped to [0, 1].
func normalizedEntropy(p []float64) float64 {
	if len(p) < 2 {
		return 0
	}
	var h float64
	for _, v := range p {
		if v > probFloor {
			h -= v * math.Log2(v)
		}
	}
	return math.Min(math.Max(h/math.Log2(float64(len(p))), 0), 1)
}

func hasCatchAll(labels []string) bool {
	for _, l := range labels {
		lower := strings.ToLower(l)
		for _, c := range catchAll {
			if strings.Contains(lower, c) {
				return true
			}
		}
	}
	return false
}
