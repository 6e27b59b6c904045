package opponent

import "strings"

const (
	DefaultPersonaID        = "default"
	defaultSplitProbability = 0.7
)

// Persona defines a scripted opponent character.
type Persona struct {
	ID               string   `yaml:"id" json:"id"`
	Name             string   `yaml:"name" json:"name"`
	Tagline          string   `yaml:"tagline" json:"tagline"`
	SplitProbability float64  `yaml:"-" json:"splitProbability"` // in [0, 1], decoded via personaEntry
	SplitExplanation string   `yaml:"split_explanation" json:"splitExplanation"`
	StealExplanation string   `yaml:"steal_explanation" json:"stealExplanation"`
	Prediction       string   `yaml:"prediction" json:"prediction"`
	Banter           []string `yaml:"banter" json:"banter"`
}

// DefaultPersona is the stock scripted opponent: splits 70% of the time.
func DefaultPersona() *Persona {
	return &Persona{
		ID:               DefaultPersonaID,
		Name:             "Ex Machina",
		Tagline:          "Mostly trustworthy.",
		SplitProbability: defaultSplitProbability,
		SplitExplanation: "I choose to split to build trust.",
		StealExplanation: "I decided to steal this time to mix up my strategy.",
		Prediction:       "The user might choose split next round.",
		Banter: []string{
			"Trust is the only currency that matters here.",
			"Let's both walk away with something, shall we?",
			"I never reveal my next move. But I do remember yours.",
		},
	}
}

// withDefaults fills blank fields from the default persona and clamps the
// split probability.
func (p *Persona) withDefaults() *Persona {
	def := DefaultPersona()
	out := *p
	if strings.TrimSpace(out.Name) == "" {
		out.Name = out.ID
	}
	out.SplitProbability = clamp01(out.SplitProbability)
	if out.SplitExplanation == "" {
		out.SplitExplanation = def.SplitExplanation
	}
	if out.StealExplanation == "" {
		out.StealExplanation = def.StealExplanation
	}
	if out.Prediction == "" {
		out.Prediction = def.Prediction
	}
	if len(out.Banter) == 0 {
		out.Banter = def.Banter
	}
	return &out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
