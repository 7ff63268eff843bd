package detection

// Candidate is a raw DoG extremum at integer sample coordinates.
type Candidate struct {
	Octave int `json:"octave" yaml:"octave"`
	Layer  int `json:"layer" yaml:"layer"`
	Row    int `json:"row" yaml:"row"`
	Col    int `json:"col" yaml:"col"`
}

// Keypoint is a localized, oriented scale-space feature.
type Keypoint struct {
	// X and Y locate the keypoint in the input image frame.
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`

	// Sigma is the characteristic scale in input image pixels.
	Sigma float64 `json:"sigma" yaml:"sigma"`

	// Orientation is the dominant gradient direction in degrees, [0, 360).
	Orientation float64 `json:"orientation" yaml:"orientation"`

	// Response is the absolute interpolated DoG value at the extremum.
	Response float64 `json:"response" yaml:"response"`

	// Octave and Layer identify the Gaussian image the keypoint was found on.
	Octave int `json:"octave" yaml:"octave"`
	Layer  int `json:"layer" yaml:"layer"`

	// LayerOffset is the sub-layer offset in (-0.5, 0.5).
	LayerOffset float64 `json:"layer_offset" yaml:"layer_offset"`

	// OctaveSigma is the scale in octave sample units.
	OctaveSigma float64 `json:"octave_sigma" yaml:"octave_sigma"`
}
