package xldash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthBands_Classify(t *testing.T) {
	tests := []struct {
		margin float64
		want   string
	}{
		{0.50, HealthStrong},
		{0.3500001, HealthStrong},
		{0.35, HealthModerate},
		{0.27, HealthModerate},
		{0.20, HealthModerate},
		{0.1999, HealthAtRisk},
		{0, HealthAtRisk},
		{-0.4, HealthAtRisk},
	}
	for _, tt := range tests {
		got, err := DefaultHealthBands.Classify(tt.margin)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "margin %v", tt.margin)
	}
}

func TestHealthBands_ClassifyBadOperator(t *testing.T) {
	bands := HealthBands{{Label: "Odd", Op: "=>", Threshold: 0.1}, {Label: "Rest"}}
	_, err := bands.Classify(0.5)
	assert.Error(t, err)
}

func TestHealthBands_ClassifyWithoutCatchAll(t *testing.T) {
	bands := HealthBands{{Label: "High", Op: ">", Threshold: 0.9}}
	_, err := bands.Classify(0.5)
	assert.ErrorContains(t, err, "no band matched")
}

func TestHealthBands_Formula(t *testing.T) {
	assert.Equal(t, `IF(D8>0.35,"Strong",IF(D8>=0.2,"Moderate","At Risk"))`, DefaultHealthBands.Formula("D8"))

	two := HealthBands{{Label: "Up", Op: ">", Threshold: 0}, {Label: "Down"}}
	assert.Equal(t, `IF(D9>0,"Up","Down")`, two.Formula("D9"))

	assert.Equal(t, `"Flat"`, HealthBands{{Label: "Flat"}}.Formula("D8"))
	assert.Equal(t, `""`, HealthBands{}.Formula("D8"))

	quoted := HealthBands{{Label: `"Hot"`, Op: ">=", Threshold: 0.125}, {Label: "Cold"}}
	assert.Equal(t, `IF(D8>=0.125,"""Hot""","Cold")`, quoted.Formula("D8"))
}

func TestHealthBands_Labels(t *testing.T) {
	assert.Equal(t, []string{"Strong", "Moderate", "At Risk"}, DefaultHealthBands.Labels())
}
