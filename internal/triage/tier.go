package triage

// Tier is the risk class produced by the classifier.
type Tier int

const (
	TierLow Tier = iota
	TierMedium
	TierHigh
)

// TierInfo is the presentation data attached to a tier.
type TierInfo struct {
	Label       string `json:"label"`
	Color       string `json:"color"`
	Description string `json:"description"`
}

var tierTable = map[Tier]TierInfo{
	TierLow: {
		Label:       "Low Risk",
		Color:       "#2ecc71",
		Description: "Patient shows minimal risk factors. Regular monitoring recommended.",
	},
	TierMedium: {
		Label:       "Medium Risk",
		Color:       "#f39c12",
		Description: "Patient exhibits moderate risk factors. Further evaluation suggested.",
	},
	TierHigh: {
		Label:       "High Risk",
		Color:       "#e74c3c",
		Description: "Patient shows high risk factors. Immediate clinical attention required.",
	},
}

// Tiers lists every tier in ascending order.
func Tiers() []Tier {
	return []Tier{TierLow, TierMedium, TierHigh}
}

// Describe returns the label, color and description of a tier.
func Describe(t Tier) (TierInfo, error) {
	info, ok := tierTable[t]
	if !ok {
		return TierInfo{}, &UnknownTierError{Tier: int(t)}
	}
	return info, nil
}

// Valid reports whether t is one of the known tiers.
func (t Tier) Valid() bool {
	_, ok := tierTable[t]
	return ok
}

// Label returns the tier label, or an empty string for unknown tiers.
func (t Tier) Label() string {
	return tierTable[t].Label
}
