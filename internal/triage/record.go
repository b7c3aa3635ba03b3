// Package triage scores clinical records into cardiac risk tiers.
package triage

import (
	"math"
	"net/url"
	"strings"

	"github.com/spf13/cast"
)

// FieldKind distinguishes continuous measurements from coded categories.
type FieldKind int

const (
	Number FieldKind = iota
	Enum
)

// Field describes one clinical input of the feature contract.
type Field struct {
	Name        string    `json:"name"`
	Kind        FieldKind `json:"-"`
	Description string    `json:"description"`
	Default     float64   `json:"default"`
}

// fields is the canonical order of the 13 inputs.
var fields = []Field{
	{Name: "age", Kind: Number, Description: "Age in years", Default: 50},
	{Name: "sex", Kind: Enum, Description: "Sex (1=male, 0=female)", Default: 1},
	{Name: "cp", Kind: Enum, Description: "Chest pain type (0-3)", Default: 0},
	{Name: "trestbps", Kind: Number, Description: "Resting blood pressure (mm Hg)", Default: 120},
	{Name: "chol", Kind: Number, Description: "Serum cholesterol (mg/dl)", Default: 200},
	{Name: "fbs", Kind: Enum, Description: "Fasting blood sugar > 120 mg/dl (1=true, 0=false)", Default: 0},
	{Name: "restecg", Kind: Enum, Description: "Resting electrocardiographic results (0-2)", Default: 0},
	{Name: "thalach", Kind: Number, Description: "Maximum heart rate achieved", Default: 150},
	{Name: "exang", Kind: Enum, Description: "Exercise induced angina (1=yes, 0=no)", Default: 0},
	{Name: "oldpeak", Kind: Number, Description: "ST depression induced by exercise relative to rest", Default: 1.0},
	{Name: "slope", Kind: Enum, Description: "Slope of the peak exercise ST segment", Default: 1},
	{Name: "ca", Kind: Enum, Description: "Number of major vessels colored by fluoroscopy (0-3)", Default: 0},
	{Name: "thal", Kind: Enum, Description: "Thalassemia (1-3)", Default: 2},
}

// Fields returns the feature contract in canonical order.
func Fields() []Field {
	out := make([]Field, len(fields))
	copy(out, fields)
	return out
}

// IsField reports whether name is part of the feature contract.
func IsField(name string) bool {
	for _, f := range fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

// ClinicalRecord holds one patient's measurements. Range checks are not
// applied: any coercible value is accepted.
type ClinicalRecord struct {
	Age      float64 `json:"age"`
	Sex      int     `json:"sex"`
	CP       int     `json:"cp"`
	Trestbps float64 `json:"trestbps"`
	Chol     float64 `json:"chol"`
	FBS      int     `json:"fbs"`
	RestECG  int     `json:"restecg"`
	Thalach  float64 `json:"thalach"`
	Exang    int     `json:"exang"`
	Oldpeak  float64 `json:"oldpeak"`
	Slope    int     `json:"slope"`
	CA       int     `json:"ca"`
	Thal     int     `json:"thal"`
}

// Value returns the named field as a float64.
func (r ClinicalRecord) Value(name string) (float64, bool) {
	switch name {
	case "age":
		return r.Age, true
	case "sex":
		return float64(r.Sex), true
	case "cp":
		return float64(r.CP), true
	case "trestbps":
		return r.Trestbps, true
	case "chol":
		return r.Chol, true
	case "fbs":
		return float64(r.FBS), true
	case "restecg":
		return float64(r.RestECG), true
	case "thalach":
		return r.Thalach, true
	case "exang":
		return float64(r.Exang), true
	case "oldpeak":
		return r.Oldpeak, true
	case "slope":
		return float64(r.Slope), true
	case "ca":
		return float64(r.CA), true
	case "thal":
		return float64(r.Thal), true
	}
	return 0, false
}

func (r *ClinicalRecord) set(name string, v float64) {
	switch name {
	case "age":
		r.Age = v
	case "sex":
		r.Sex = int(v)
	case "cp":
		r.CP = int(v)
	case "trestbps":
		r.Trestbps = v
	case "chol":
		r.Chol = v
	case "fbs":
		r.FBS = int(v)
	case "restecg":
		r.RestECG = int(v)
	case "thalach":
		r.Thalach = v
	case "exang":
		r.Exang = int(v)
	case "oldpeak":
		r.Oldpeak = v
	case "slope":
		r.Slope = int(v)
	case "ca":
		r.CA = int(v)
	case "thal":
		r.Thal = int(v)
	}
}

// ParseRecord is the strict entry point used by the JSON API. Every field
// must be present; the first absent one (in canonical order) is reported
// before any value is coerced.
func ParseRecord(raw map[string]any) (ClinicalRecord, error) {
	for _, f := range fields {
		if _, ok := raw[f.Name]; !ok {
			return ClinicalRecord{}, &MissingFieldError{Field: f.Name}
		}
	}

	var rec ClinicalRecord
	for _, f := range fields {
		v, err := coerce(f, raw[f.Name])
		if err != nil {
			return ClinicalRecord{}, err
		}
		rec.set(f.Name, v)
	}
	return rec, nil
}

// ParseFormRecord is the interactive-form entry point. Absent fields take
// their documented defaults; present values must still coerce.
func ParseFormRecord(values url.Values) (ClinicalRecord, error) {
	var rec ClinicalRecord
	for _, f := range fields {
		vals, ok := values[f.Name]
		if !ok || len(vals) == 0 {
			rec.set(f.Name, f.Default)
			continue
		}
		v, err := coerce(f, vals[0])
		if err != nil {
			return ClinicalRecord{}, err
		}
		rec.set(f.Name, v)
	}
	return rec, nil
}

// DefaultRecord returns a record populated with the form defaults.
func DefaultRecord() ClinicalRecord {
	var rec ClinicalRecord
	for _, f := range fields {
		rec.set(f.Name, f.Default)
	}
	return rec
}

func coerce(f Field, raw any) (float64, error) {
	if raw == nil {
		return 0, &TypeCoercionError{Field: f.Name, Value: raw}
	}
	if s, ok := raw.(string); ok {
		raw = strings.TrimSpace(s)
	}

	v, err := cast.ToFloat64E(raw)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &TypeCoercionError{Field: f.Name, Value: raw}
	}
	if f.Kind == Enum && v != math.Trunc(v) {
		return 0, &TypeCoercionError{Field: f.Name, Value: raw}
	}
	return v, nil
}
