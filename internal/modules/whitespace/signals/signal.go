package signals

// Kind names one of the four signal detectors.
type Kind string

const (
	FocusShift  Kind = "focus_shift"
	EmergingGap Kind = "emerging_gap"
	CrowdOut    Kind = "crowd_out"
	Bridge      Kind = "bridge"
)

// Order is the display order of signals within a group.
var Order = []Kind{EmergingGap, Bridge, CrowdOut, FocusShift}

var labels = map[Kind]string{
	FocusShift:  "Convergence Toward Focus Area",
	EmergingGap: "Focus Area With Neighbor Underdevelopment",
	CrowdOut:    "Sharply Rising Density Near Focus Area",
	Bridge:      "Neighbor Linking Potential Near Focus Area",
}

// Label is the human-readable name of a kind, used in node tooltips.
func (k Kind) Label() string {
	if l, ok := labels[k]; ok {
		return l
	}
	return string(k)
}

// Status is the coarse bucket a confidence falls into.
type Status string

const (
	StatusNone   Status = "none"
	StatusWeak   Status = "weak"
	StatusMedium Status = "medium"
	StatusStrong Status = "strong"
)

const (
	strongAt = 0.66
	mediumAt = 0.33
)

// StatusFor buckets a detector outcome. Anything not ok, or with no positive
// confidence, is none.
func StatusFor(ok bool, confidence float64) Status {
	switch {
	case !ok || confidence <= 0:
		return StatusNone
	case confidence >= strongAt:
		return StatusStrong
	case confidence >= mediumAt:
		return StatusMedium
	default:
		return StatusWeak
	}
}

// Result is the immutable outcome of one detector run.
type Result struct {
	Kind       Kind
	OK         bool
	Confidence float64
	Message    string
	Debug      map[string]float64
}

func newResult(kind Kind, ok bool, confidence float64, message string, debug map[string]float64) Result {
	if !ok {
		confidence = 0
	}
	return Result{Kind: kind, OK: ok, Confidence: clamp01(confidence), Message: message, Debug: debug}
}

func (r Result) Status() Status { return StatusFor(r.OK, r.Confidence) }

// Insufficient is the result every detector reports for a group without a
// usable history window.
func Insufficient(kind Kind, message string) Result {
	return newResult(kind, false, 0, message, map[string]float64{"samples": 0})
}

// NoSignal is the placeholder used when a scope produced no groups at all.
func NoSignal(kind Kind) Result {
	return newResult(kind, false, 0, "No signal detected for this scope.", nil)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func boolf(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
