package inference_test

import (
	"math"
	"testing"

	"github.com/JaimeStill/mimic/internal/inference"
)

func TestGateBinary(t *testing.T) {
	tests := []struct {
		name       string
		confidence float64
		threshold  float64
		accepted   bool
		ambiguous  bool
		reason     string
	}{
		{"confident", 0.9, 0.3, true, false, ""},
		{"inside band above threshold", 0.55, 0.3, false, true, inference.ReasonAmbiguous},
		{"band lower edge", 0.21, 0.1, false, true, inference.ReasonAmbiguous},
		{"confidently absent", 0.1, 0.3, false, false, inference.ReasonLowConfidence},
		{"below raised threshold", 0.85, 0.9, false, false, inference.ReasonLowConfidence},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := inference.Gate([]float64{tt.confidence}, []string{"thumbs"}, tt.threshold, false)

			if d.Accepted != tt.accepted || d.Ambiguous != tt.ambiguous || d.Reason != tt.reason {
				t.Errorf("Gate() = %+v", d)
			}
			if tt.accepted && d.Label != "thumbs" {
				t.Errorf("Label = %q, want thumbs", d.Label)
			}
			if !tt.accepted && d.HasLabel() {
				t.Errorf("Label = %q, want none", d.Label)
			}
			if d.Candidate != "thumbs" || d.Confidence != tt.confidence {
				t.Errorf("Candidate/Confidence = %q/%v", d.Candidate, d.Confidence)
			}
		})
	}
}

func TestGateMultiClass(t *testing.T) {
	tests := []struct {
		name      string
		p         []float64
		labels    []string
		threshold float64
		label     string
		ambiguous bool
		effective float64
	}{
		{"near uniform three-way", []float64{0.34, 0.33, 0.33}, []string{"a", "b", "c"}, 0, "", true, 0},
		{"dominant three-way", []float64{0.9, 0.05, 0.05}, []string{"a", "b", "c"}, 0.3, "a", false, 0.3},
		{"spread three-way exceeds entropy limit", []float64{0.6, 0.25, 0.15}, []string{"a", "b", "c"}, 0.3, "", true, 0.3},
		{"pair raised threshold rejects 0.6", []float64{0.6, 0.4}, []string{"cat", "dog"}, 0.3, "", true, 0.75},
		{"pair accepts 0.8", []float64{0.8, 0.2}, []string{"cat", "dog"}, 0.3, "cat", false, 0.75},
		{"pair second label wins", []float64{0.1, 0.9}, []string{"cat", "dog"}, 0.3, "dog", false, 0.75},
		{"pair below raised threshold", []float64{0.7, 0.3}, []string{"cat", "dog"}, 0.3, "", false, 0.75},
		{"pair with background keeps threshold", []float64{0.3, 0.7}, []string{"Background", "wave"}, 0.3, "wave", false, 0.3},
		{"pair with none label", []float64{0.7, 0.3}, []string{"fist", "NoneOfThese"}, 0.3, "fist", false, 0.3},
		{"configured threshold above floor", []float64{0.8, 0.2}, []string{"cat", "dog"}, 0.85, "", false, 0.85},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := inference.Gate(tt.p, tt.labels, tt.threshold, false)

			if d.Label != tt.label {
				t.Errorf("Label = %q, want %q (%+v)", d.Label, tt.label, d)
			}
			if d.Ambiguous != tt.ambiguous {
				t.Errorf("Ambiguous = %v, want %v (entropy %v, margin %v)", d.Ambiguous, tt.ambiguous, d.Entropy, d.Margin)
			}
			if tt.effective > 0 && d.Threshold != tt.effective {
				t.Errorf("Threshold = %v, want %v", d.Threshold, tt.effective)
			}
			if d.Accepted != (tt.label != "") {
				t.Errorf("Accepted = %v", d.Accepted)
			}
		})
	}
}

func TestGateMetrics(t *testing.T) {
	d := inference.Gate([]float64{0.5, 0.3, 0.2}, []string{"a", "b", "c"}, 0.3, false)

	if math.Abs(d.Margin-0.2) > 1e-12 {
		t.Errorf("Margin = %v, want 0.2", d.Margin)
	}
	want := -(0.5*math.Log2(0.5) + 0.3*math.Log2(0.3) + 0.2*math.Log2(0.2)) / math.Log2(3)
	if math.Abs(d.Entropy-want) > 1e-12 {
		t.Errorf("Entropy = %v, want %v", d.Entropy, want)
	}
	if d.Probabilities["b"] != 0.3 {
		t.Errorf("Probabilities = %v", d.Probabilities)
	}

	certain := inference.Gate([]float64{1, 0, 0}, []string{"a", "b", "c"}, 0.3, false)
	if certain.Entropy != 0 || !certain.Accepted {
		t.Errorf("certain decision = %+v", certain)
	}
}

func TestGateDebug(t *testing.T) {
	tests := []struct {
		name   string
		p      []float64
		labels []string
		want   string
	}{
		{"ambiguous multi-class", []float64{0.34, 0.33, 0.33}, []string{"a", "b", "c"}, "a (ambiguous)"},
		{"ambiguous binary", []float64{0.55}, []string{"open"}, "open (ambiguous)"},
		{"low confidence pair", []float64{0.7, 0.3}, []string{"cat", "dog"}, "cat (low confidence)"},
		{"accepted unchanged", []float64{0.95, 0.05}, []string{"cat", "dog"}, "cat"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := inference.Gate(tt.p, tt.labels, 0.3, true)
			if d.Label != tt.want {
				t.Errorf("Label = %q, want %q", d.Label, tt.want)
			}
			if d.Accepted != (tt.want == d.Candidate) {
				t.Errorf("Accepted = %v for %q", d.Accepted, d.Label)
			}
		})
	}
}
