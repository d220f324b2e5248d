package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rohankatakam/communitypulse/internal/errors"
	"github.com/rohankatakam/communitypulse/internal/models"
)

func TestClassifyWithoutStructure(t *testing.T) {
	t.Parallel()

	got := Classify(models.Characteristics{Structure: false, Dispersion: 10, Formality: 50, Engagement: 9, Longevity: 400})
	assert.Equal(t, models.Pattern{}, got)
	assert.Empty(t, got.Names())
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		chars models.Characteristics
		want  []string
	}{
		{
			name:  "colocated_formal",
			chars: models.Characteristics{Structure: true, Dispersion: 100, Formality: 25, Engagement: 1, Longevity: 30},
			want:  []string{"SocialNetwork", "FormalGroup", "ProjectTeam", "CommunityOfPractice"},
		},
		{
			name:  "dispersed_formal_long_lived_engaged",
			chars: models.Characteristics{Structure: true, Dispersion: 8000, Formality: 25, Engagement: 4, Longevity: 200},
			want:  []string{"SocialNetwork", "WorkGroup", "NetworkOfPractice", "FormalNetwork"},
		},
		{
			name:  "informal_engaged",
			chars: models.Characteristics{Structure: true, Dispersion: 100, Formality: 0.05, Engagement: 4, Longevity: 200},
			want:  []string{"SocialNetwork", "InformalCommunity", "CommunityOfPractice"},
		},
		{
			name:  "informal_quiet_dispersed",
			chars: models.Characteristics{Structure: true, Dispersion: 6000, Formality: 0.05, Engagement: 1, Longevity: 10},
			want:  []string{"SocialNetwork", "NetworkOfPractice", "InformalNetwork"},
		},
		{
			name:  "medium_formality_short_lived",
			chars: models.Characteristics{Structure: true, Dispersion: 100, Formality: 5, Engagement: 4, Longevity: 93},
			want:  []string{"SocialNetwork", "ProjectTeam", "CommunityOfPractice"},
		},
		{
			name:  "boundaries",
			chars: models.Characteristics{Structure: true, Dispersion: 4926, Formality: 0.1, Engagement: 3.5, Longevity: 94},
			want:  []string{"SocialNetwork", "NetworkOfPractice"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Classify(tt.chars).Names())
		})
	}
}

func TestClassifierCustomThresholds(t *testing.T) {
	t.Parallel()

	th := DefaultThresholds()
	th.DispersionKm = 50
	c := NewClassifier(th)

	got := c.Classify(models.Characteristics{Structure: true, Dispersion: 100, Formality: 1, Engagement: 1, Longevity: 1})
	assert.True(t, got.NetworkOfPractice)
	assert.False(t, got.CommunityOfPractice)
}

func TestThresholdsValidate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, DefaultThresholds().Validate())

	bad := DefaultThresholds()
	bad.FormalityLow = 30
	assert.ErrorIs(t, bad.Validate(), errors.ErrValidation)

	bad = DefaultThresholds()
	bad.Engagement = -1
	assert.ErrorIs(t, bad.Validate(), errors.ErrValidation)
}
