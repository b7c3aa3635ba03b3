package triage

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTransformer struct {
	err   error
	calls int
}

func (f *fakeTransformer) Transform(rec ClinicalRecord) ([]float64, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []float64{rec.Age, rec.Chol}, nil
}

type fakeClassifier struct {
	class    int
	probs    []float64
	err      error
	probaErr error
}

func (f *fakeClassifier) Predict(ctx context.Context, features []float64) (int, error) {
	return f.class, f.err
}

func (f *fakeClassifier) PredictProba(ctx context.Context, features []float64) ([]float64, error) {
	return f.probs, f.probaErr
}

var fixedNow = time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)

func newTestPredictor(tr Transformer, cl Classifier) *Predictor {
	return NewPredictor(tr, cl, WithClock(func() time.Time { return fixedNow }))
}

func TestPredict_Success(t *testing.T) {
	rec := DefaultRecord()
	rec.Age = 60
	cl := &fakeClassifier{class: 2, probs: []float64{0.1, 0.2, 0.7}}
	p := newTestPredictor(&fakeTransformer{}, cl)

	res, err := p.Predict(context.Background(), rec)
	require.NoError(t, err)

	assert.Equal(t, "PAT20240309140507", res.ID)
	assert.Equal(t, fixedNow, res.Timestamp)
	assert.Equal(t, TierHigh, res.Tier)
	assert.Equal(t, rec, res.Record)
	assert.Len(t, res.Probability, 3)
	sum := 0.0
	for _, v := range res.Probability {
		assert.GreaterOrEqual(t, v, 0.0)
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-6)
	assert.Equal(t, []string{"Age (60.0 years) is above 55"}, res.Explanation.RiskFactors)
}

func TestPredict_ReportsClassAndProbabilitiesIndependently(t *testing.T) {
	cl := &fakeClassifier{class: 0, probs: []float64{0.2, 0.3, 0.5}}
	p := newTestPredictor(&fakeTransformer{}, cl)

	res, err := p.Predict(context.Background(), DefaultRecord())
	require.NoError(t, err)
	assert.Equal(t, TierLow, res.Tier)
	assert.Equal(t, []float64{0.2, 0.3, 0.5}, res.Probability)
}

func TestPredict_Unavailable(t *testing.T) {
	tr := &fakeTransformer{}
	p := NewPredictor(tr, nil)

	_, err := p.Predict(context.Background(), DefaultRecord())
	assert.ErrorIs(t, err, ErrModelUnavailable)
	assert.Zero(t, tr.calls)
	assert.False(t, p.Available())

	cause := errors.New("open model.yaml: no such file")
	u := Unavailable(cause)
	err = u.Err()
	assert.ErrorIs(t, err, ErrModelUnavailable)
	assert.Contains(t, err.Error(), "no such file")
}

func TestPredict_CollaboratorFailures(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name string
		tr   *fakeTransformer
		cl   *fakeClassifier
	}{
		{name: "transform", tr: &fakeTransformer{err: boom}, cl: &fakeClassifier{probs: []float64{1, 0, 0}}},
		{name: "predict", tr: &fakeTransformer{}, cl: &fakeClassifier{err: boom}},
		{name: "predict_proba", tr: &fakeTransformer{}, cl: &fakeClassifier{probaErr: boom}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestPredictor(tt.tr, tt.cl).Predict(context.Background(), DefaultRecord())

			var perr *PredictionError
			require.True(t, errors.As(err, &perr), "got %v", err)
			assert.ErrorIs(t, err, boom)
		})
	}
}

func TestPredict_UnknownTier(t *testing.T) {
	cl := &fakeClassifier{class: 3, probs: []float64{0.2, 0.3, 0.5}}

	_, err := newTestPredictor(&fakeTransformer{}, cl).Predict(context.Background(), DefaultRecord())

	var unknown *UnknownTierError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, 3, unknown.Tier)
}

func TestPredict_InvalidProbabilities(t *testing.T) {
	tests := map[string][]float64{
		"short":    {0.5, 0.5},
		"negative": {1.2, -0.1, -0.1},
		"sum":      {0.5, 0.4, 0.4},
		"nan":      {math.NaN(), 0.5, 0.5},
	}
	for name, probs := range tests {
		t.Run(name, func(t *testing.T) {
			cl := &fakeClassifier{class: 1, probs: probs}
			_, err := newTestPredictor(&fakeTransformer{}, cl).Predict(context.Background(), DefaultRecord())
			var perr *PredictionError
			assert.True(t, errors.As(err, &perr), "got %v", err)
		})
	}
}

func TestPredictionResultClone(t *testing.T) {
	cl := &fakeClassifier{class: 1, probs: []float64{0.2, 0.5, 0.3}}
	res, err := newTestPredictor(&fakeTransformer{}, cl).Predict(context.Background(), DefaultRecord())
	require.NoError(t, err)

	c := res.Clone()
	c.Probability[0] = 9
	c.Explanation.Recommendations[0] = "changed"

	assert.Equal(t, 0.2, res.Probability[0])
	assert.Equal(t, "Consult cardiologist", res.Explanation.Recommendations[0])
}
