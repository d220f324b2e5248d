// Package pattern maps community characteristics onto the nine community
// patterns. Each pattern has its own predicate, so a community can match
// several at once.
package pattern

import (
	"github.com/rohankatakam/communitypulse/internal/errors"
	"github.com/rohankatakam/communitypulse/internal/models"
)

// Thresholds are the decision boundaries of the classifier.
type Thresholds struct {
	// DispersionKm separates co-located from dispersed communities.
	DispersionKm float64 `mapstructure:"dispersion_km" yaml:"dispersion_km" json:"dispersion_km"`
	// FormalityLow and FormalityHigh bound informal and formal communities.
	FormalityLow  float64 `mapstructure:"formality_low" yaml:"formality_low" json:"formality_low"`
	FormalityHigh float64 `mapstructure:"formality_high" yaml:"formality_high" json:"formality_high"`
	Engagement    float64 `mapstructure:"engagement" yaml:"engagement" json:"engagement"`
	LongevityDays float64 `mapstructure:"longevity_days" yaml:"longevity_days" json:"longevity_days"`
}

// DefaultThresholds returns the published boundaries.
func DefaultThresholds() Thresholds {
	return Thresholds{
		DispersionKm:  4926,
		FormalityLow:  0.1,
		FormalityHigh: 20,
		Engagement:    3.5,
		LongevityDays: 93,
	}
}

// Validate checks that the formality bounds are ordered and nothing is negative.
func (t Thresholds) Validate() error {
	if t.DispersionKm < 0 || t.FormalityLow < 0 || t.Engagement < 0 || t.LongevityDays < 0 {
		return errors.ValidationErrorf("thresholds must not be negative: %+v", t)
	}
	if t.FormalityLow >= t.FormalityHigh {
		return errors.ValidationErrorf("formality_low (%v) must be below formality_high (%v)", t.FormalityLow, t.FormalityHigh)
	}
	return nil
}

// Classifier applies a fixed set of thresholds.
type Classifier struct {
	Thresholds Thresholds
}

// NewClassifier creates a classifier with the given thresholds.
func NewClassifier(t Thresholds) *Classifier {
	return &Classifier{Thresholds: t}
}

// Classify derives the nine pattern flags. Without structure there is no
// community to speak of and every flag is false. With structure:
//
//	SocialNetwork        always
//	CommunityOfPractice  dispersion <  DispersionKm
//	NetworkOfPractice    dispersion >= DispersionKm
//	FormalGroup          formality >  FormalityHigh, co-located
//	FormalNetwork        formality >  FormalityHigh, dispersed
//	InformalCommunity    formality <  FormalityLow,  engagement >  Engagement
//	InformalNetwork      formality <  FormalityLow,  engagement <= Engagement
//	WorkGroup            formality >= FormalityLow,  engagement >  Engagement, longevity >  LongevityDays
//	ProjectTeam          formality >= FormalityLow,  longevity <= LongevityDays
func (c *Classifier) Classify(ch models.Characteristics) models.Pattern {
	if !ch.Structure {
		return models.Pattern{}
	}

	t := c.Thresholds
	colocated := ch.Dispersion < t.DispersionKm
	formal := ch.Formality > t.FormalityHigh
	informal := ch.Formality < t.FormalityLow
	engaged := ch.Engagement > t.Engagement
	longLived := ch.Longevity > t.LongevityDays

	return models.Pattern{
		SocialNetwork:       true,
		CommunityOfPractice: colocated,
		NetworkOfPractice:   !colocated,
		FormalGroup:         formal && colocated,
		FormalNetwork:       formal && !colocated,
		InformalCommunity:   informal && engaged,
		InformalNetwork:     informal && !engaged,
		WorkGroup:           !informal && engaged && longLived,
		ProjectTeam:         !informal && !longLived,
	}
}

var defaultClassifier = NewClassifier(DefaultThresholds())

// Classify uses DefaultThresholds.
func Classify(ch models.Characteristics) models.Pattern {
	return defaultClassifier.Classify(ch)
}
