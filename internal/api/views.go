package api

import (
	"strconv"
	"time"

	"github.com/Skufu/hearttriage/internal/triage"
)

// predictionView is the tier block shared by the predict and patients
// responses.
type predictionView struct {
	RiskLevel   triage.Tier `json:"risk_level"`
	RiskLabel   string      `json:"risk_label"`
	Probability []float64   `json:"probability"`
	Description string      `json:"description"`
	Color       string      `json:"color"`
}

type patientView struct {
	ID          string                `json:"id"`
	Timestamp   string                `json:"timestamp"`
	Data        triage.ClinicalRecord `json:"data"`
	Prediction  predictionView        `json:"prediction"`
	Explanation triage.Explanation    `json:"explanation"`
}

type predictResponse struct {
	Success     bool               `json:"success"`
	Prediction  predictionView     `json:"prediction"`
	Explanation triage.Explanation `json:"explanation"`
	Timestamp   string             `json:"timestamp"`
}

type featureView struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Default     float64 `json:"default"`
}

// formField is one input on the prediction form.
type formField struct {
	Name        string
	Description string
	Value       string
}

func formatTimestamp(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

func newPredictionView(r triage.PredictionResult) predictionView {
	// Stored results always carry a valid tier, so the lookup cannot fail.
	info, _ := triage.Describe(r.Tier)
	return predictionView{
		RiskLevel:   r.Tier,
		RiskLabel:   info.Label,
		Probability: append([]float64(nil), r.Probability...),
		Description: info.Description,
		Color:       info.Color,
	}
}

func newPatientView(r triage.PredictionResult) patientView {
	return patientView{
		ID:          r.ID,
		Timestamp:   formatTimestamp(r.Timestamp),
		Data:        r.Record,
		Prediction:  newPredictionView(r),
		Explanation: r.Explanation,
	}
}

func newPatientViews(results []triage.PredictionResult) []patientView {
	out := make([]patientView, 0, len(results))
	for _, r := range results {
		out = append(out, newPatientView(r))
	}
	return out
}

func newFormFields(rec triage.ClinicalRecord) []formField {
	fields := triage.Fields()
	out := make([]formField, 0, len(fields))
	for _, f := range fields {
		v, _ := rec.Value(f.Name)
		out = append(out, formField{
			Name:        f.Name,
			Description: f.Description,
			Value:       strconv.FormatFloat(v, 'f', -1, 64),
		})
	}
	return out
}
