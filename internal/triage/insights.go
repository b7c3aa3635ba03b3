package triage

// Insights summarizes the stored predictions.
type Insights struct {
	TotalPatients    int            `json:"total_patients"`
	RiskDistribution map[string]int `json:"risk_distribution"`
	AverageAge       float64        `json:"average_age"`
	HighRiskPatients int            `json:"high_risk_patients"`
	CommonFactors    *CommonFactors `json:"common_factors,omitempty"`
}

// CommonFactors are means over the High-tier patients only.
type CommonFactors struct {
	AvgCholesterol float64 `json:"avg_cholesterol"`
	AvgBP          float64 `json:"avg_bp"`
	AvgAge         float64 `json:"avg_age"`
}

// Summarize aggregates results. The boolean is false when there is nothing
// to summarize.
func Summarize(results []PredictionResult) (Insights, bool) {
	if len(results) == 0 {
		return Insights{}, false
	}

	out := Insights{
		TotalPatients:    len(results),
		RiskDistribution: make(map[string]int),
	}

	var ageSum, highChol, highBP, highAge float64
	for _, r := range results {
		out.RiskDistribution[r.Tier.Label()]++
		ageSum += r.Record.Age
		if r.Tier == TierHigh {
			out.HighRiskPatients++
			highChol += r.Record.Chol
			highBP += r.Record.Trestbps
			highAge += r.Record.Age
		}
	}
	out.AverageAge = ageSum / float64(len(results))

	if n := float64(out.HighRiskPatients); n > 0 {
		out.CommonFactors = &CommonFactors{
			AvgCholesterol: highChol / n,
			AvgBP:          highBP / n,
			AvgAge:         highAge / n,
		}
	}
	return out, true
}
