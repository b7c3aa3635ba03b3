package triage

import (
	"fmt"
	"math"
	"strconv"
)

// Explanation is the rule-based rationale attached to a prediction. It does
// not depend on the classifier's probabilities.
type Explanation struct {
	RiskFactors     []string `json:"risk_factors"`
	Recommendations []string `json:"recommendations"`
}

const (
	ageThreshold     = 55
	cholThreshold    = 240
	bpThreshold      = 140
	oldpeakThreshold = 2
)

var recommendations = map[Tier][]string{
	TierLow: {
		"Continue regular exercise",
		"Maintain healthy diet",
		"Annual checkup recommended",
	},
	TierMedium: {
		"Consult cardiologist",
		"Regular blood pressure monitoring",
		"Consider stress test",
		"Dietary modifications",
	},
	TierHigh: {
		"Immediate cardiology consultation",
		"Emergency evaluation recommended",
		"Continuous monitoring required",
		"Possible hospitalization",
	},
}

// Explain lists the triggered threshold rules for rec and the fixed
// recommendations for tier.
func Explain(rec ClinicalRecord, tier Tier) (Explanation, error) {
	recs, ok := recommendations[tier]
	if !ok {
		return Explanation{}, &UnknownTierError{Tier: int(tier)}
	}

	factors := []string{}
	if rec.Age > ageThreshold {
		factors = append(factors, fmt.Sprintf("Age (%s years) is above 55", formatValue(rec.Age)))
	}
	if rec.Chol > cholThreshold {
		factors = append(factors, fmt.Sprintf("Cholesterol (%s mg/dL) is high (>240)", formatValue(rec.Chol)))
	}
	if rec.Trestbps > bpThreshold {
		factors = append(factors, fmt.Sprintf("Blood pressure (%s mmHg) is elevated (>140)", formatValue(rec.Trestbps)))
	}
	if rec.Oldpeak > oldpeakThreshold {
		factors = append(factors, fmt.Sprintf("ST depression (%s) indicates possible ischemia", formatValue(rec.Oldpeak)))
	}

	out := make([]string, len(recs))
	copy(out, recs)
	return Explanation{RiskFactors: factors, Recommendations: out}, nil
}

// formatValue renders measurements the way they appear in the clinical
// notes: integral values keep one decimal ("60.0").
func formatValue(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatFloat(v, 'f', 1, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
