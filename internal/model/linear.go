package model

import (
	"context"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// LinearClassifier is a multinomial logistic regression exported as plain
// coefficients: softmax(W·x + b).
type LinearClassifier struct {
	Classes      []int       `yaml:"classes"`
	Coefficients [][]float64 `yaml:"coefficients"`
	Intercepts   []float64   `yaml:"intercepts"`
}

// LoadLinear reads a linear model artifact.
func LoadLinear(path string) (*LinearClassifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	var m LinearClassifier
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse model %s: %w", path, err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("model %s: %w", path, err)
	}
	return &m, nil
}

// Validate checks that the artifact's dimensions agree.
func (m *LinearClassifier) Validate() error {
	if len(m.Classes) == 0 {
		return fmt.Errorf("no classes")
	}
	if len(m.Coefficients) != len(m.Classes) || len(m.Intercepts) != len(m.Classes) {
		return fmt.Errorf("expected %d coefficient rows and intercepts, got %d and %d",
			len(m.Classes), len(m.Coefficients), len(m.Intercepts))
	}
	for i := 1; i < len(m.Classes); i++ {
		if m.Classes[i] <= m.Classes[i-1] {
			return fmt.Errorf("classes must be strictly increasing")
		}
	}
	width := len(m.Coefficients[0])
	for i, row := range m.Coefficients {
		if len(row) != width {
			return fmt.Errorf("coefficient row %d has %d values, want %d", i, len(row), width)
		}
	}
	return nil
}

// InputWidth is the number of features the model expects.
func (m *LinearClassifier) InputWidth() int {
	if len(m.Coefficients) == 0 {
		return 0
	}
	return len(m.Coefficients[0])
}

func (m *LinearClassifier) Predict(ctx context.Context, features []float64) (int, error) {
	probs, err := m.PredictProba(ctx, features)
	if err != nil {
		return 0, err
	}
	best := 0
	for i, p := range probs {
		if p > probs[best] {
			best = i
		}
	}
	return m.Classes[best], nil
}

func (m *LinearClassifier) PredictProba(ctx context.Context, features []float64) ([]float64, error) {
	if len(features) != m.InputWidth() {
		return nil, fmt.Errorf("expected %d features, got %d", m.InputWidth(), len(features))
	}

	scores := make([]float64, len(m.Classes))
	maxScore := math.Inf(-1)
	for i, row := range m.Coefficients {
		s := m.Intercepts[i]
		for j, w := range row {
			s += w * features[j]
		}
		scores[i] = s
		if s > maxScore {
			maxScore = s
		}
	}

	sum := 0.0
	for i, s := range scores {
		scores[i] = math.Exp(s - maxScore)
		sum += scores[i]
	}
	for i := range scores {
		scores[i] /= sum
	}
	return scores, nil
}
