package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExplainer_Explain(t *testing.T) {
	explainer := NewExplainer(DefaultRegistry())

	tests := []struct {
		name            string
		features        Features
		alerts          int
		expectedFactors []string
		expectedRecs    []string
	}{
		{
			name:            "fallback only",
			features:        Features{Latitude: -33.86, Longitude: 151.2, Hour: 12},
			expectedFactors: []string{FactorStandard},
			expectedRecs:    []string{RecommendStandard},
		},
		{
			name:            "night only",
			features:        Features{Latitude: -33.86, Longitude: 151.2, Hour: 23},
			expectedFactors: []string{FactorNightHours},
			expectedRecs:    []string{RecommendNightHours},
		},
		{
			name:            "zone only",
			features:        Features{Latitude: 12.9716, Longitude: 77.5946, Hour: 10},
			expectedFactors: []string{FactorHighRiskArea},
			expectedRecs:    []string{RecommendHighRiskArea},
		},
		{
			name:            "two alerts is not multiple",
			features:        Features{Latitude: -33.86, Longitude: 151.2, Hour: 10},
			alerts:          2,
			expectedFactors: []string{FactorStandard},
			expectedRecs:    []string{RecommendStandard},
		},
		{
			name:            "all rules in order",
			features:        Features{Latitude: 28.6139, Longitude: 77.2090, Hour: 2},
			alerts:          3,
			expectedFactors: []string{FactorNightHours, FactorHighRiskArea, FactorMultipleAlerts},
			expectedRecs:    []string{RecommendNightHours, RecommendHighRiskArea, RecommendMultipleAlerts},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			factors, recs := explainer.Explain(tt.features, tt.alerts)
			assert.Equal(t, tt.expectedFactors, factors)
			assert.Equal(t, tt.expectedRecs, recs)
		})
	}
}

func TestExplainer_NeverEmpty(t *testing.T) {
	explainer := NewExplainer(DefaultRegistry())

	for hour := 0; hour < 24; hour++ {
		for alerts := 0; alerts < 5; alerts++ {
			factors, recs := explainer.Explain(Features{Latitude: 51.5, Longitude: -0.12, Hour: hour}, alerts)
			assert.NotEmpty(t, factors)
			assert.NotEmpty(t, recs)
			assert.Len(t, recs, len(factors))
		}
	}
}

func TestExplainer_BoundaryCountsAsNear(t *testing.T) {
	reg, err := NewRegistry([]Zone{{Latitude: 0, Longitude: 0, Radius: 2, RiskFactor: 0.5}}, DefaultTimeProfile())
	assert.NoError(t, err)

	factors, _ := NewExplainer(reg).Explain(Features{Latitude: 0, Longitude: 2, Hour: 12}, 0)
	assert.Equal(t, []string{FactorHighRiskArea}, factors)

	// Same point contributes nothing to the numeric score.
	assert.Equal(t, 0.0, NewScorer(reg, nil).LocationRisk(0, 2))
}
