package analysis

// matchedConfidence is the fixed confidence reported whenever any face is
// present. Detection is a coarse binary signal, not per-identity
// recognition.
const matchedConfidence = 0.8

// PersonSignal is the verdict for one photo.
type PersonSignal struct {
	Matched    bool
	Confidence float64
}

// PersonMatcher turns a raw face count into a person-detection verdict.
type PersonMatcher struct{}

// NewPersonMatcher creates a new PersonMatcher.
func NewPersonMatcher() *PersonMatcher {
	return &PersonMatcher{}
}

// Match reports a person match when at least one face was counted.
func (m *PersonMatcher) Match(faceCount int) PersonSignal {
	if faceCount > 0 {
		return PersonSignal{Matched: true, Confidence: matchedConfidence}
	}
	return PersonSignal{}
}
