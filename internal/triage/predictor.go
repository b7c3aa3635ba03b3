package triage

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

// probabilityTolerance bounds how far the class probabilities may drift from 1.
const probabilityTolerance = 1e-6

// Transformer turns a validated record into the classifier's input vector.
type Transformer interface {
	Transform(rec ClinicalRecord) ([]float64, error)
}

// Classifier is the pre-trained model. Predict and PredictProba are
// independent calls and are not reconciled with each other.
type Classifier interface {
	Predict(ctx context.Context, features []float64) (int, error)
	PredictProba(ctx context.Context, features []float64) ([]float64, error)
}

// PredictionResult is one scored patient. It is not modified after Predict
// returns it.
type PredictionResult struct {
	ID          string         `json:"id"`
	Timestamp   time.Time      `json:"timestamp"`
	Record      ClinicalRecord `json:"data"`
	Tier        Tier           `json:"risk_level"`
	Probability []float64      `json:"probability"`
	Explanation Explanation    `json:"explanation"`
}

// Clone returns a deep copy of r.
func (r PredictionResult) Clone() PredictionResult {
	out := r
	out.Probability = append([]float64(nil), r.Probability...)
	out.Explanation.RiskFactors = append([]string(nil), r.Explanation.RiskFactors...)
	out.Explanation.Recommendations = append([]string(nil), r.Explanation.Recommendations...)
	return out
}

// Predictor composes the preprocessor, the classifier and the explanation
// rules into a single prediction.
type Predictor struct {
	transformer Transformer
	classifier  Classifier
	cause       error
	now         func() time.Time
}

// Option configures a Predictor.
type Option func(*Predictor)

// WithClock overrides the time source used for ids and timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Predictor) {
		p.now = now
	}
}

// NewPredictor builds a predictor. A nil collaborator leaves it unavailable.
func NewPredictor(transformer Transformer, classifier Classifier, opts ...Option) *Predictor {
	p := &Predictor{
		transformer: transformer,
		classifier:  classifier,
		now:         time.Now,
	}
	if transformer == nil || classifier == nil {
		p.cause = errors.New("preprocessor or classifier missing")
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Unavailable builds a predictor whose every call fails with
// ErrModelUnavailable, recording why the collaborators could not be loaded.
func Unavailable(cause error, opts ...Option) *Predictor {
	p := NewPredictor(nil, nil, opts...)
	if cause != nil {
		p.cause = cause
	}
	return p
}

// Available reports whether both collaborators were loaded.
func (p *Predictor) Available() bool {
	return p.cause == nil
}

// Err returns ErrModelUnavailable wrapped with the load failure, or nil.
func (p *Predictor) Err() error {
	if p.cause == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrModelUnavailable, p.cause)
}

// Predict scores rec. It has no side effects; storing the result is up to
// the caller.
func (p *Predictor) Predict(ctx context.Context, rec ClinicalRecord) (PredictionResult, error) {
	if err := p.Err(); err != nil {
		return PredictionResult{}, err
	}

	features, err := p.transformer.Transform(rec)
	if err != nil {
		return PredictionResult{}, &PredictionError{Cause: fmt.Errorf("transform: %w", err)}
	}

	class, err := p.classifier.Predict(ctx, features)
	if err != nil {
		return PredictionResult{}, &PredictionError{Cause: fmt.Errorf("predict: %w", err)}
	}
	probs, err := p.classifier.PredictProba(ctx, features)
	if err != nil {
		return PredictionResult{}, &PredictionError{Cause: fmt.Errorf("predict_proba: %w", err)}
	}

	tier := Tier(class)
	if !tier.Valid() {
		return PredictionResult{}, &UnknownTierError{Tier: class}
	}
	if err := checkProbabilities(probs); err != nil {
		return PredictionResult{}, &PredictionError{Cause: err}
	}

	explanation, err := Explain(rec, tier)
	if err != nil {
		return PredictionResult{}, err
	}

	now := p.now()
	return PredictionResult{
		ID:          "PAT" + now.Format("20060102150405"),
		Timestamp:   now,
		Record:      rec,
		Tier:        tier,
		Probability: append([]float64(nil), probs...),
		Explanation: explanation,
	}, nil
}

func checkProbabilities(probs []float64) error {
	if len(probs) != len(tierTable) {
		return fmt.Errorf("expected %d class probabilities, got %d", len(tierTable), len(probs))
	}
	sum := 0.0
	for i, v := range probs {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("probability %d is invalid: %v", i, v)
		}
		sum += v
	}
	if math.Abs(sum-1) > probabilityTolerance {
		return fmt.Errorf("probabilities sum to %v", sum)
	}
	return nil
}
