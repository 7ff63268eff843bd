package pipeline

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Summary describes the distribution of one keypoint attribute.
type Summary struct {
	Min    float64 `json:"min" yaml:"min"`
	Max    float64 `json:"max" yaml:"max"`
	Mean   float64 `json:"mean" yaml:"mean"`
	Median float64 `json:"median" yaml:"median"`
	StdDev float64 `json:"std_dev" yaml:"std_dev"`
}

// Stats summarizes a feature set.
type Stats struct {
	Count int `json:"count" yaml:"count"`

	// PerOctave[o] is the number of keypoints found on octave o.
	PerOctave []int `json:"per_octave" yaml:"per_octave"`

	Sigma      Summary `json:"sigma" yaml:"sigma"`
	Response   Summary `json:"response" yaml:"response"`
	Descriptor Summary `json:"descriptor" yaml:"descriptor"`
}

// Summarize computes keypoint size and response statistics and the
// distribution of all descriptor components. An empty feature set gives
// zero summaries.
func Summarize(f *Features) Stats {
	s := Stats{Count: f.Len(), PerOctave: []int{}}

	sigmas := make([]float64, 0, len(f.Keypoints))
	responses := make([]float64, 0, len(f.Keypoints))
	for _, kp := range f.Keypoints {
		sigmas = append(sigmas, kp.Sigma)
		responses = append(responses, kp.Response)
		for len(s.PerOctave) <= kp.Octave {
			s.PerOctave = append(s.PerOctave, 0)
		}
		s.PerOctave[kp.Octave]++
	}

	var components []float64
	for _, d := range f.Descriptors {
		for _, v := range d {
			components = append(components, float64(v))
		}
	}

	s.Sigma = summarize(sigmas)
	s.Response = summarize(responses)
	s.Descriptor = summarize(components)
	return s
}

// summarize sorts x in place.
func summarize(x []float64) Summary {
	if len(x) == 0 {
		return Summary{}
	}
	sort.Float64s(x)
	s := Summary{
		Min:    x[0],
		Max:    x[len(x)-1],
		Median: stat.Quantile(0.5, stat.Empirical, x, nil),
	}
	if len(x) == 1 {
		s.Mean = x[0]
		return s
	}
	s.Mean, s.StdDev = stat.MeanStdDev(x, nil)
	return s
}
