// Package model loads the preprocessing and classification artifacts that
// the triage predictor treats as black boxes.
package model

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Skufu/hearttriage/internal/triage"
)

// NumericColumn is standard-scaled: (x - mean) / scale.
type NumericColumn struct {
	Name  string  `yaml:"name"`
	Mean  float64 `yaml:"mean"`
	Scale float64 `yaml:"scale"`
}

// CategoricalColumn is one-hot encoded over its known categories. Values
// outside the list encode as all zeros.
type CategoricalColumn struct {
	Name       string `yaml:"name"`
	Categories []int  `yaml:"categories"`
}

// Preprocessor mirrors a fitted column transformer: scaled numeric columns
// first, then one-hot categorical columns, each block in artifact order.
type Preprocessor struct {
	Numeric     []NumericColumn     `yaml:"numeric"`
	Categorical []CategoricalColumn `yaml:"categorical"`
}

// LoadPreprocessor reads and validates a preprocessor artifact.
func LoadPreprocessor(path string) (*Preprocessor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read preprocessor: %w", err)
	}
	var p Preprocessor
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse preprocessor %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("preprocessor %s: %w", path, err)
	}
	return &p, nil
}

// Validate checks that every clinical field is covered exactly once.
func (p *Preprocessor) Validate() error {
	seen := map[string]bool{}
	mark := func(name string) error {
		if !triage.IsField(name) {
			return fmt.Errorf("unknown column %q", name)
		}
		if seen[name] {
			return fmt.Errorf("column %q listed twice", name)
		}
		seen[name] = true
		return nil
	}

	for _, c := range p.Numeric {
		if err := mark(c.Name); err != nil {
			return err
		}
	}
	for _, c := range p.Categorical {
		if err := mark(c.Name); err != nil {
			return err
		}
		if len(c.Categories) == 0 {
			return fmt.Errorf("column %q has no categories", c.Name)
		}
	}
	for _, f := range triage.Fields() {
		if !seen[f.Name] {
			return fmt.Errorf("column %q not covered", f.Name)
		}
	}
	return nil
}

// Width is the length of the transformed vector.
func (p *Preprocessor) Width() int {
	n := len(p.Numeric)
	for _, c := range p.Categorical {
		n += len(c.Categories)
	}
	return n
}

// Transform encodes rec into the classifier's input vector.
func (p *Preprocessor) Transform(rec triage.ClinicalRecord) ([]float64, error) {
	out := make([]float64, 0, p.Width())

	for _, c := range p.Numeric {
		v, ok := rec.Value(c.Name)
		if !ok {
			return nil, fmt.Errorf("unknown column %q", c.Name)
		}
		scale := c.Scale
		if scale == 0 {
			scale = 1
		}
		out = append(out, (v-c.Mean)/scale)
	}

	for _, c := range p.Categorical {
		v, ok := rec.Value(c.Name)
		if !ok {
			return nil, fmt.Errorf("unknown column %q", c.Name)
		}
		for _, cat := range c.Categories {
			if int(v) == cat {
				out = append(out, 1)
			} else {
				out = append(out, 0)
			}
		}
	}
	return out, nil
}
