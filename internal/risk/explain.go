package risk

// Factor and recommendation texts.
const (
	FactorNightHours     = "Late night/early morning hours"
	FactorHighRiskArea   = "Located in or near high-risk area"
	FactorMultipleAlerts = "Multiple recent alerts in the area"
	FactorStandard       = "Standard safety considerations"

	RecommendNightHours     = "Avoid traveling alone during night hours"
	RecommendHighRiskArea   = "Stay alert and consider alternative routes"
	RecommendMultipleAlerts = "Exercise extra caution and inform authorities of travel plans"
	RecommendStandard       = "Follow general safety guidelines"
)

// multipleAlertsThreshold is exclusive: more than two alerts triggers the rule.
const multipleAlertsThreshold = 2

// Explainer derives risk factors and recommendations from Features.
type Explainer struct {
	registry *Registry
}

// NewExplainer creates an explainer over the given registry.
func NewExplainer(registry *Registry) *Explainer {
	return &Explainer{registry: registry}
}

// Explain evaluates every rule in order and returns paired factors and
// recommendations. The result is never empty.
func (e *Explainer) Explain(f Features, alertHistoryCount int) ([]string, []string) {
	factors := []string{}
	recommendations := []string{}

	if e.registry.IsNightHour(f.Hour) {
		factors = append(factors, FactorNightHours)
		recommendations = append(recommendations, RecommendNightHours)
	}

	if e.registry.InAnyZone(f.Latitude, f.Longitude) {
		factors = append(factors, FactorHighRiskArea)
		recommendations = append(recommendations, RecommendHighRiskArea)
	}

	if alertHistoryCount > multipleAlertsThreshold {
		factors = append(factors, FactorMultipleAlerts)
		recommendations = append(recommendations, RecommendMultipleAlerts)
	}

	if len(factors) == 0 {
		factors = append(factors, FactorStandard)
		recommendations = append(recommendations, RecommendStandard)
	}

	return factors, recommendations
}
