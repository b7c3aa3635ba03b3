package triage

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribe(t *testing.T) {
	tests := []struct {
		tier  Tier
		label string
		color string
	}{
		{TierLow, "Low Risk", "#2ecc71"},
		{TierMedium, "Medium Risk", "#f39c12"},
		{TierHigh, "High Risk", "#e74c3c"},
	}
	for _, tt := range tests {
		info, err := Describe(tt.tier)
		require.NoError(t, err)
		assert.Equal(t, tt.label, info.Label)
		assert.Equal(t, tt.color, info.Color)
		assert.NotEmpty(t, info.Description)
	}

	_, err := Describe(Tier(3))
	var unknown *UnknownTierError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, 3, unknown.Tier)
}

func TestExplain_AllFactors(t *testing.T) {
	rec := DefaultRecord()
	rec.Age = 60
	rec.Chol = 300
	rec.Trestbps = 150
	rec.Oldpeak = 2.5

	exp, err := Explain(rec, TierHigh)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Age (60.0 years) is above 55",
		"Cholesterol (300.0 mg/dL) is high (>240)",
		"Blood pressure (150.0 mmHg) is elevated (>140)",
		"ST depression (2.5) indicates possible ischemia",
	}, exp.RiskFactors)
	assert.Len(t, exp.Recommendations, 4)
	assert.Equal(t, "Immediate cardiology consultation", exp.Recommendations[0])
}

func TestExplain_Boundaries(t *testing.T) {
	at := DefaultRecord()
	at.Age = 55
	at.Chol = 240
	at.Trestbps = 140
	at.Oldpeak = 2

	exp, err := Explain(at, TierLow)
	require.NoError(t, err)
	assert.Empty(t, exp.RiskFactors)

	above := at
	above.Age = 55.01
	above.Chol = 240.01
	above.Trestbps = 140.01
	above.Oldpeak = 2.01

	exp, err = Explain(above, TierLow)
	require.NoError(t, err)
	require.Len(t, exp.RiskFactors, 4)
	assert.Equal(t, "Age (55.01 years) is above 55", exp.RiskFactors[0])
}

func TestExplain_RecommendationsDependOnTierOnly(t *testing.T) {
	a := DefaultRecord()
	b := DefaultRecord()
	b.Age = 80
	b.Chol = 400

	for _, tier := range Tiers() {
		ea, err := Explain(a, tier)
		require.NoError(t, err)
		eb, err := Explain(b, tier)
		require.NoError(t, err)
		assert.Equal(t, ea.Recommendations, eb.Recommendations)
	}

	low, _ := Explain(a, TierLow)
	medium, _ := Explain(a, TierMedium)
	assert.Len(t, low.Recommendations, 3)
	assert.Equal(t, []string{
		"Consult cardiologist",
		"Regular blood pressure monitoring",
		"Consider stress test",
		"Dietary modifications",
	}, medium.Recommendations)
}

func TestExplain_Deterministic(t *testing.T) {
	rec := DefaultRecord()
	rec.Age = 58

	first, err := Explain(rec, TierMedium)
	require.NoError(t, err)
	first.Recommendations[0] = "mutated"

	second, err := Explain(rec, TierMedium)
	require.NoError(t, err)
	assert.Equal(t, "Consult cardiologist", second.Recommendations[0])
	assert.Equal(t, first.RiskFactors, second.RiskFactors)
}

func TestExplain_UnknownTier(t *testing.T) {
	_, err := Explain(DefaultRecord(), Tier(-1))
	var unknown *UnknownTierError
	assert.True(t, errors.As(err, &unknown))
}
