package similarity

// Band is a qualitative reading of a score against a duplicate threshold.
type Band string

// String returns the string representation of a band.
func (b Band) String() string {
	return string(b)
}

// Bands, strongest first.
const (
	Confirmed Band = "confirmed"
	Possible  Band = "possible"
	Distinct  Band = "distinct"
)

// PossibleWindow is how far below the threshold a score still counts as a
// possible duplicate worth reviewing.
const PossibleWindow = 0.20

// Classify places a score in a band relative to threshold.
func Classify(score, threshold float64) Band {
	switch {
	case score >= threshold:
		return Confirmed
	case score >= threshold-PossibleWindow:
		return Possible
	default:
		return Distinct
	}
}
