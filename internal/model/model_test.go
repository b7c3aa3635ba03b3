package model

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skufu/hearttriage/internal/triage"
)

const (
	shippedPreprocessor = "../../models/preprocessor.yaml"
	shippedModel        = "../../models/triage_model.yaml"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func highRiskRecord() triage.ClinicalRecord {
	return triage.ClinicalRecord{
		Age: 70, Sex: 1, CP: 0, Trestbps: 170, Chol: 320, FBS: 1, RestECG: 2,
		Thalach: 110, Exang: 1, Oldpeak: 3.5, Slope: 2, CA: 3, Thal: 3,
	}
}

func lowRiskRecord() triage.ClinicalRecord {
	return triage.ClinicalRecord{
		Age: 35, Sex: 0, CP: 2, Trestbps: 115, Chol: 180, FBS: 0, RestECG: 0,
		Thalach: 180, Exang: 0, Oldpeak: 0, Slope: 0, CA: 0, Thal: 2,
	}
}

func TestPreprocessor_Transform(t *testing.T) {
	p := &Preprocessor{
		Numeric: []NumericColumn{{Name: "age", Mean: 50, Scale: 10}, {Name: "chol", Mean: 200, Scale: 0}},
		Categorical: []CategoricalColumn{
			{Name: "cp", Categories: []int{0, 1, 2, 3}},
			{Name: "thal", Categories: []int{1, 2, 3}},
		},
	}
	rec := triage.DefaultRecord()
	rec.Age = 65
	rec.Chol = 210
	rec.CP = 2
	rec.Thal = 7

	out, err := p.Transform(rec)
	require.NoError(t, err)
	assert.Equal(t, p.Width(), len(out))
	assert.Equal(t, []float64{1.5, 10, 0, 0, 1, 0, 0, 0, 0}, out)
}

func TestPreprocessor_Validate(t *testing.T) {
	_, err := LoadPreprocessor(writeFile(t, "pre.yaml", "numeric:\n  - {name: bmi, mean: 1, scale: 1}\n"))
	assert.ErrorContains(t, err, "unknown column")

	_, err = LoadPreprocessor(writeFile(t, "pre.yaml", "numeric:\n  - {name: age, mean: 1, scale: 1}\n"))
	assert.ErrorContains(t, err, "not covered")

	_, err = LoadPreprocessor(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestShippedArtifacts(t *testing.T) {
	pre, err := LoadPreprocessor(shippedPreprocessor)
	require.NoError(t, err)
	lin, err := LoadLinear(shippedModel)
	require.NoError(t, err)
	assert.Equal(t, pre.Width(), lin.InputWidth())

	ctx := context.Background()
	tests := []struct {
		name string
		rec  triage.ClinicalRecord
		want int
	}{
		{name: "high risk profile", rec: highRiskRecord(), want: 2},
		{name: "low risk profile", rec: lowRiskRecord(), want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, err := pre.Transform(tt.rec)
			require.NoError(t, err)

			class, err := lin.Predict(ctx, x)
			require.NoError(t, err)
			assert.Equal(t, tt.want, class)

			probs, err := lin.PredictProba(ctx, x)
			require.NoError(t, err)
			require.Len(t, probs, 3)
			sum := 0.0
			for _, p := range probs {
				assert.GreaterOrEqual(t, p, 0.0)
				sum += p
			}
			assert.InDelta(t, 1.0, sum, 1e-9)
		})
	}
}

func TestLinearClassifier_Validation(t *testing.T) {
	bad := &LinearClassifier{
		Classes:      []int{0, 1},
		Coefficients: [][]float64{{1, 2}},
		Intercepts:   []float64{0, 0},
	}
	assert.Error(t, bad.Validate())

	unordered := &LinearClassifier{
		Classes:      []int{1, 0},
		Coefficients: [][]float64{{1}, {2}},
		Intercepts:   []float64{0, 0},
	}
	assert.Error(t, unordered.Validate())

	ok := &LinearClassifier{
		Classes:      []int{0, 1, 2},
		Coefficients: [][]float64{{1, 0}, {0, 1}, {0, 0}},
		Intercepts:   []float64{0, 0, 0},
	}
	require.NoError(t, ok.Validate())
	_, err := ok.PredictProba(context.Background(), []float64{1})
	assert.ErrorContains(t, err, "expected 2 features")
}

func TestRemoteClassifier(t *testing.T) {
	var seen [][]float64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req instancesRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		seen = append(seen, req.Instances[0])

		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/predict":
			w.Write([]byte(`{"predictions":[1]}`))
		case "/predict_proba":
			w.Write([]byte(`{"probabilities":[[0.2,0.5,0.3]]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewRemoteClassifier(srv.URL, 0)
	ctx := context.Background()

	class, err := c.Predict(ctx, []float64{1, 2})
	require.NoError(t, err)
	assert.Equal(t, 1, class)

	probs, err := c.PredictProba(ctx, []float64{1, 2})
	require.NoError(t, err)
	assert.Equal(t, []float64{0.2, 0.5, 0.3}, probs)
	assert.Equal(t, [][]float64{{1, 2}, {1, 2}}, seen)
}

func TestRemoteClassifier_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model crashed", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewRemoteClassifier(srv.URL, 0).Predict(context.Background(), []float64{1})
	assert.ErrorContains(t, err, "status 500")
}

func TestLoad(t *testing.T) {
	b, err := Load(Config{
		Backend:          BackendLinear,
		PreprocessorPath: shippedPreprocessor,
		ModelPath:        shippedModel,
	})
	require.NoError(t, err)
	assert.NotNil(t, b.Preprocessor)
	assert.NotNil(t, b.Classifier)
	assert.NoError(t, b.Close())

	_, err = Load(Config{Backend: "svm", PreprocessorPath: shippedPreprocessor})
	assert.ErrorContains(t, err, "unknown model backend")

	_, err = Load(Config{Backend: BackendRemote, PreprocessorPath: shippedPreprocessor})
	assert.ErrorContains(t, err, "requires a URL")

	mismatch := writeFile(t, "model.yaml", "classes: [0, 1, 2]\ncoefficients: [[1], [0], [0]]\nintercepts: [0, 0, 0]\n")
	_, err = Load(Config{PreprocessorPath: shippedPreprocessor, ModelPath: mismatch})
	assert.ErrorContains(t, err, "expects 1 features")
}

func TestPredictorWithShippedModel(t *testing.T) {
	b, err := Load(Config{PreprocessorPath: shippedPreprocessor, ModelPath: shippedModel})
	require.NoError(t, err)

	p := triage.NewPredictor(b.Preprocessor, b.Classifier)
	res, err := p.Predict(context.Background(), highRiskRecord())
	require.NoError(t, err)
	assert.Equal(t, triage.TierHigh, res.Tier)
	assert.Len(t, res.Explanation.RiskFactors, 4)
}
