package signals

import (
	"math"
	"strings"
	"testing"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func TestStatusForBoundaries(t *testing.T) {
	cases := []struct {
		ok   bool
		conf float64
		want Status
	}{
		{true, 0, StatusNone},
		{true, -0.1, StatusNone},
		{false, 0.9, StatusNone},
		{true, 0.001, StatusWeak},
		{true, 0.329, StatusWeak},
		{true, 0.33, StatusMedium},
		{true, 0.659, StatusMedium},
		{true, 0.66, StatusStrong},
		{true, 1, StatusStrong},
	}
	for _, tc := range cases {
		if got := StatusFor(tc.ok, tc.conf); got != tc.want {
			t.Fatalf("StatusFor(%v, %v): got=%s want=%s", tc.ok, tc.conf, got, tc.want)
		}
	}
}

func TestSlopeConf(t *testing.T) {
	slope, tv := slopeConf([]float64{1, 2, 3})
	if !near(slope, math.Sqrt(2.0/3.0)) {
		t.Fatalf("slope: got=%v", slope)
	}
	if tv < 1e6 {
		t.Fatalf("perfect fit should have huge t, got=%v", tv)
	}
	if s, tv := slopeConf([]float64{5}); s != 0 || tv != 0 {
		t.Fatalf("single point: got=(%v,%v)", s, tv)
	}
	if s, tv := slopeConf([]float64{2, 2, 2, 2}); math.Abs(s) > 1e-12 || tv > 1e-3 {
		t.Fatalf("flat series: got=(%v,%v)", s, tv)
	}
}

func TestPctRank(t *testing.T) {
	ref := []float64{4, 1, 3, 2}
	if got := pctRank(3, ref); got != 0.75 {
		t.Fatalf("pctRank(3): got=%v want=0.75", got)
	}
	if got := pctRank(0, ref); got != 0 {
		t.Fatalf("pctRank(0): got=%v", got)
	}
	if got := pctRank(1, nil); got != 0 {
		t.Fatalf("empty ref: got=%v", got)
	}
	if ref[0] != 4 {
		t.Fatalf("pctRank reordered its input")
	}
}

func TestDetectFocusShift(t *testing.T) {
	cases := []struct {
		name     string
		dist     []float64
		share    []float64
		samples  int
		ok       bool
		conf     float64
		contains string
	}{
		{"too few buckets", []float64{0.5, 0.4}, []float64{0.1, 0.2}, 10, false, 0, "Not enough recent filings"},
		{"too few samples", []float64{0.5, 0.4, 0.3}, []float64{0.1, 0.2, 0.3}, 3, false, 0, "Not enough recent filings"},
		{"full convergence", []float64{0.9, 0.6, 0.3}, []float64{0.1, 0.5, 0.9}, 40, true, 1, "growing share"},
		{"full convergence few samples", []float64{0.9, 0.6, 0.3}, []float64{0.1, 0.5, 0.9}, 10, true, 0.25, "growing share"},
		{"share only is partial", []float64{0.5, 0.5, 0.5}, []float64{0.1, 0.2, 0.3}, 40, true, 0.5, "remains uneven"},
		{"drifting away", []float64{0.3, 0.6, 0.9}, []float64{0.1, 0.2, 0.3}, 40, false, 0, "stay anchored"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := DetectFocusShift(tc.dist, tc.share, tc.samples)
			if r.Kind != FocusShift || r.OK != tc.ok || !near(r.Confidence, tc.conf) {
				t.Fatalf("got ok=%v conf=%v want ok=%v conf=%v", r.OK, r.Confidence, tc.ok, tc.conf)
			}
			if !strings.Contains(r.Message, tc.contains) {
				t.Fatalf("message %q missing %q", r.Message, tc.contains)
			}
		})
	}
}

func ranks(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i + 1)
	}
	return out
}

func TestDetectEmergingGap(t *testing.T) {
	cases := []struct {
		name     string
		series   []float64
		cohort   []float64
		momentum float64
		ok       bool
		conf     float64
		contains string
	}{
		{"no scores", nil, ranks(20), 0.5, false, 0, "No whitespace scores"},
		{"top decile with heat", []float64{5, 18}, ranks(20), 0.5, true, 0.72, "accelerate"},
		{"top decile without heat", []float64{18}, ranks(20), 0.2, false, 0, "already cover"},
		{"extreme pocket cool neighbours", []float64{20}, ranks(20), 0.1, true, (0.55 + 0.045) * 0.75, "inching forward"},
		{"extreme pocket heated", []float64{19}, ranks(20), 0.3, true, 0.55*0.95 + 0.45*0.3, "accelerate"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := DetectEmergingGap(tc.series, tc.cohort, tc.momentum)
			if r.OK != tc.ok || !near(r.Confidence, tc.conf) {
				t.Fatalf("got ok=%v conf=%v want ok=%v conf=%v", r.OK, r.Confidence, tc.ok, tc.conf)
			}
			if !strings.Contains(r.Message, tc.contains) {
				t.Fatalf("message %q missing %q", r.Message, tc.contains)
			}
		})
	}
}

func TestQuantileInterpolatesBetweenOrderStatistics(t *testing.T) {
	cases := []struct {
		p    float64
		xs   []float64
		want float64
	}{
		{0.65, []float64{0.5, 0.7, 0.6}, 0.63},
		{0.35, []float64{0.300, 0.302, 0.299}, 0.2997},
		{0.35, []float64{0.5, 0.7, 0.6}, 0.57},
		{0.9, []float64{1, 2, 3, 4, 5}, 4.6},
		{0.4, []float64{1, 2, 3, 4, 5}, 2.6},
		{0, []float64{3, 1, 2}, 1},
		{1, []float64{3, 1, 2}, 3},
		{0.5, []float64{7}, 7},
		{0.5, nil, 0},
	}
	for _, tc := range cases {
		if got := Quantile(tc.p, tc.xs); !near(got, tc.want) {
			t.Fatalf("Quantile(%v, %v): got=%v want=%v", tc.p, tc.xs, got, tc.want)
		}
	}
	xs := []float64{3, 1, 2}
	Quantile(0.5, xs)
	if xs[0] != 3 || xs[1] != 1 || xs[2] != 2 {
		t.Fatalf("input reordered: %v", xs)
	}
}

func TestDetectCrowdOut(t *testing.T) {
	cases := []struct {
		name     string
		ws       []float64
		den      []float64
		ok       bool
		conf     float64
		contains string
	}{
		{"single bucket", []float64{0.3}, []float64{0.7}, false, 0, "Insufficient history"},
		{"declining and densifying", []float64{0.5, 0.4, 0.3}, []float64{0.5, 0.6, 0.7}, true, 1, "filing aggressively"},
		{"stuck crowded", []float64{0.301, 0.3, 0.3}, []float64{0.7, 0.7, 0.7}, true, 0.7, "remain stacked"},
		{"opening up", []float64{0.3, 0.4, 0.5}, []float64{0.7, 0.6, 0.5}, false, 0, "breathing room"},
		{"recent density below upper range", []float64{0.300, 0.302, 0.299}, []float64{0.5, 0.7, 0.6}, false, 0, "breathing room"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := DetectCrowdOut(tc.ws, tc.den)
			if r.OK != tc.ok || !near(r.Confidence, tc.conf) {
				t.Fatalf("got ok=%v conf=%v want ok=%v conf=%v (debug=%v)", r.OK, r.Confidence, tc.ok, tc.conf, r.Debug)
			}
			if !strings.Contains(r.Message, tc.contains) {
				t.Fatalf("message %q missing %q", r.Message, tc.contains)
			}
		})
	}
}

func TestDetectBridge(t *testing.T) {
	cases := []struct {
		name     string
		in       BridgeInputs
		ok       bool
		conf     float64
		contains string
	}{
		{"shared growth", BridgeInputs{0.2, 0.8, 0.5, 0.4}, true, 0.32, "both accelerating"},
		{"asymmetric growth", BridgeInputs{0.2, 0.8, 0.9, 0.15}, true, 0.15 * 0.8 * 0.85, "At least one"},
		{"openness at limit", BridgeInputs{0.35, 0.5, 0.3, 0.3}, true, 0.15, "both accelerating"},
		{"interface too wide", BridgeInputs{0.5, 0.8, 0.5, 0.5}, false, 0, "do not reveal"},
		{"weak link", BridgeInputs{0.1, 0.4, 0.5, 0.5}, false, 0, "do not reveal"},
		{"one side stalled", BridgeInputs{0.1, 0.9, 1, 0.1}, false, 0, "do not reveal"},
		{"no second cluster", BridgeInputs{1, 0, 0, 0}, false, 0, "do not reveal"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := DetectBridge(tc.in)
			if r.OK != tc.ok || !near(r.Confidence, tc.conf) {
				t.Fatalf("got ok=%v conf=%v want ok=%v conf=%v", r.OK, r.Confidence, tc.ok, tc.conf)
			}
			if !strings.Contains(r.Message, tc.contains) {
				t.Fatalf("message %q missing %q", r.Message, tc.contains)
			}
		})
	}
}

func TestNotOKNeverCarriesConfidence(t *testing.T) {
	results := []Result{
		DetectFocusShift([]float64{0.3, 0.6, 0.9}, []float64{0.9, 0.5, 0.1}, 100),
		DetectEmergingGap([]float64{1}, ranks(20), 1),
		DetectCrowdOut([]float64{0.3, 0.4, 0.5}, []float64{0.7, 0.6, 0.5}),
		DetectBridge(BridgeInputs{0.9, 0.9, 1, 1}),
		Insufficient(Bridge, "Not enough history for this assignee."),
		NoSignal(CrowdOut),
	}
	for _, r := range results {
		if r.OK {
			t.Fatalf("%s unexpectedly ok", r.Kind)
		}
		if r.Confidence != 0 || r.Status() != StatusNone {
			t.Fatalf("%s: conf=%v status=%s", r.Kind, r.Confidence, r.Status())
		}
	}
}

func TestLabelsAndOrder(t *testing.T) {
	if len(Order) != 4 || Order[0] != EmergingGap || Order[3] != FocusShift {
		t.Fatalf("Order=%v", Order)
	}
	if Bridge.Label() != "Neighbor Linking Potential Near Focus Area" {
		t.Fatalf("Bridge label=%q", Bridge.Label())
	}
	if Kind("other").Label() != "other" {
		t.Fatalf("unknown kind label")
	}
}
