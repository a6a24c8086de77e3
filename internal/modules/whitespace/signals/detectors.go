package signals

import "math"

// focus_shift
const (
	focusMinBuckets   = 3
	focusMinSamples   = 4
	focusSoftFloor    = -0.02
	focusFullSamples  = 40.0
	focusPartialScale = 0.5
)

// DetectFocusShift asks whether a group's filings are converging on the focus:
// distance to the focus falling and the focus share rising across monthly
// buckets. One supporting trend out of two halves the confidence.
func DetectFocusShift(distance, share []float64, samples int) Result {
	if len(distance) < focusMinBuckets || len(share) < focusMinBuckets || samples < focusMinSamples {
		return newResult(FocusShift, false, 0,
			"Not enough recent filings to judge movement toward the focus.",
			map[string]float64{"samples": float64(samples)})
	}

	negDist := make([]float64, len(distance))
	for i, d := range distance {
		negDist[i] = -d
	}
	sDist, tDist := slopeConf(negDist)
	sShare, tShare := slopeConf(share)

	distUp, shareUp := sDist > 0, sShare > 0
	softDist, softShare := sDist > focusSoftFloor, sShare > focusSoftFloor
	votes := 0
	if distUp {
		votes++
	}
	if shareUp {
		votes++
	}
	ok := votes >= 1 && softDist && softShare

	conf := math.Min(1, 0.5*(math.Max(0, tDist)+math.Max(0, tShare))) * math.Min(1, float64(samples)/focusFullSamples)
	if votes == 1 {
		conf *= focusPartialScale
	}

	var msg string
	switch {
	case !ok:
		msg = "The assignee's latest patent filings stay anchored in prior themes; no sustained convergence toward the selected keywords is visible."
	case votes == 1:
		msg = "The assignee has begun converging patent filings toward the selected keywords, but the change remains uneven across volume and location."
	default:
		msg = "The assignee's recent patent filings converge around the selected keywords and now make up a growing share of their portfolio."
	}
	return newResult(FocusShift, ok, conf, msg, map[string]float64{
		"slope_dist":  sDist,
		"slope_share": sShare,
		"t_dist":      tDist,
		"t_share":     tShare,
		"samples":     float64(samples),
		"trend_votes": float64(votes),
		"soft_dist":   boolf(softDist),
		"soft_share":  boolf(softShare),
	})
}

// emerging_gap
const (
	gapExtremePct     = 0.95
	gapHeatedPct      = 0.85
	gapHeatedMomentum = 0.2
	gapPctWeight      = 0.55
	gapMomWeight      = 0.45
	gapCoolScale      = 0.75
)

// DetectEmergingGap compares the group's latest whitespace score against the whole
// cohort. A top-5% pocket counts on its own; a top-15% pocket needs heated
// neighbours.
func DetectEmergingGap(whitespace, cohort []float64, neighborMomentum float64) Result {
	if len(whitespace) == 0 {
		return newResult(EmergingGap, false, 0,
			"No whitespace scores available for this scope.",
			map[string]float64{"momentum": neighborMomentum})
	}
	current := whitespace[len(whitespace)-1]
	pct := pctRank(current, cohort)
	extreme := pct >= gapExtremePct
	heated := neighborMomentum > gapHeatedMomentum
	ok := (pct >= gapHeatedPct && heated) || extreme

	conf := clamp01(gapPctWeight*pct + gapMomWeight*math.Max(0, neighborMomentum))
	if ok && !heated {
		conf *= gapCoolScale
	}

	var msg string
	switch {
	case !ok:
		msg = "The assignee's latest filings land in technology areas that other applicants already cover; no open pocket of whitespace is emerging near this focus."
	case heated:
		msg = "The assignee is filing into a lightly contested pocket near the focus while neighboring applicants accelerate, signalling a chance to establish a lead before the area fills."
	default:
		msg = "The assignee is filing into a lightly contested pocket near the focus, but neighboring applicants are only inching forward, so the window may stay open longer."
	}
	return newResult(EmergingGap, ok, conf, msg, map[string]float64{
		"current_score":     current,
		"percentile":        pct,
		"neighbor_momentum": neighborMomentum,
		"strong_sparse":     boolf(extreme),
		"heated_neighbors":  boolf(heated),
	})
}

// crowd_out
const (
	crowdMinBuckets   = 2
	crowdSlopeEps     = 0.002
	crowdDeltaEps     = 0.05
	crowdLowScoreQ    = 0.35
	crowdHighDensityQ = 0.65
	crowdFlatDensity  = -0.001
	crowdTrendWeight  = 0.45
	crowdStaticScale  = 0.7
)

// DetectCrowdOut flags falling whitespace with rising density, or a group already
// stuck in its own low-score/high-density range while density holds.
func DetectCrowdOut(whitespace, density []float64) Result {
	if len(whitespace) < crowdMinBuckets || len(density) < crowdMinBuckets {
		return newResult(CrowdOut, false, 0, "Insufficient history to spot a crowd-out trend.", map[string]float64{})
	}
	slopeWS, tWS := slopeConf(whitespace)
	slopeDen, tDen := slopeConf(density)

	recentWS, startWS := whitespace[len(whitespace)-1], whitespace[0]
	recentDen, startDen := density[len(density)-1], density[0]

	decline := slopeWS < -crowdSlopeEps || recentWS < startWS-crowdDeltaEps
	gain := slopeDen > crowdSlopeEps || recentDen > startDen+crowdDeltaEps
	crowded := recentWS <= Quantile(crowdLowScoreQ, whitespace) && recentDen >= Quantile(crowdHighDensityQ, density)

	trending := decline && gain
	ok := trending || (crowded && (gain || slopeDen >= crowdFlatDensity))

	conf := math.Min(1, crowdTrendWeight*(math.Max(0, tDen)+math.Abs(tWS)))
	if ok && !trending {
		conf *= crowdStaticScale
	}

	var msg string
	switch {
	case !ok:
		msg = "Recent competitor filings still leave breathing room around the selected focus; no material crowd-out pressure is showing up."
	case trending:
		msg = "Competitors are filing aggressively around the selected focus, shrinking available whitespace and concentrating coverage."
	default:
		msg = "Competitor filings remain stacked around an already tight focus area, keeping steady pressure on the remaining whitespace."
	}
	return newResult(CrowdOut, ok, conf, msg, map[string]float64{
		"slope_ws":       slopeWS,
		"slope_density":  slopeDen,
		"t_ws":           tWS,
		"t_density":      tDen,
		"ws_decline":     boolf(decline),
		"density_gain":   boolf(gain),
		"crowded_now":    boolf(crowded),
		"recent_ws":      recentWS,
		"recent_density": recentDen,
	})
}

// bridge
const (
	bridgeMomentumFloor = 0.2
	bridgeOpennessLimit = 0.35
	bridgeWeightTarget  = 0.5
	bridgeAvgMomentum   = 0.45
	bridgeMinMomentum   = 0.15
	bridgeOneSidedScale = 0.85
)

// BridgeInputs describe how a group sits between its two dominant clusters.
type BridgeInputs struct {
	Openness      float64
	InterWeight   float64
	MomentumLeft  float64
	MomentumRight float64
}

// DetectBridge looks for a thin interface between two growing clusters. Both
// sides growing is the strict case; one strong side with a moving partner is
// accepted at a discount.
func DetectBridge(in BridgeInputs) Result {
	lo := math.Min(in.MomentumLeft, in.MomentumRight)
	avg := (in.MomentumLeft + in.MomentumRight) / 2
	shared := lo >= bridgeMomentumFloor
	balanced := shared || (avg >= bridgeAvgMomentum && lo >= bridgeMinMomentum)

	ok := in.Openness <= bridgeOpennessLimit && in.InterWeight >= bridgeWeightTarget && balanced
	conf := clamp01(lo * in.InterWeight)
	if ok && !shared {
		conf *= bridgeOneSidedScale
	}

	var msg string
	switch {
	case !ok:
		msg = "Recent filings do not reveal a clear linking opportunity between neighboring technology areas near the focus."
	case shared:
		msg = "Neighboring technology areas near the focus are both accelerating in patent filings while the space between them stays thin, signalling a bridge opportunity."
	default:
		msg = "At least one neighboring technology area is ramping patent filings while the gap between topics remains under-served, suggesting a bridge opportunity to connect them."
	}
	return newResult(Bridge, ok, conf, msg, map[string]float64{
		"openness":        in.Openness,
		"inter_weight":    in.InterWeight,
		"momentum_left":   in.MomentumLeft,
		"momentum_right":  in.MomentumRight,
		"balanced_growth": boolf(balanced),
		"shared_growth":   boolf(shared),
	})
}
