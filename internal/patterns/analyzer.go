package patterns

import (
	"encoding/json"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/safetrail/safetrail/internal/geo"
)

// Analysis constants.
const (
	GridPrecision       = 2 // decimal places, roughly 1.1 km cells
	MinHotspotAlerts    = 2
	HighSeverityAlerts  = 5
	PeakCount           = 3
	PanicAlertType      = "panic"
	PanicShareThreshold = 0.3
	TrendStable         = "stable"
)

// Severity of a hotspot.
type Severity string

const (
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Insight texts.
const (
	InsightNoData   = "No alert data available for analysis"
	InsightPanic    = "High proportion of panic alerts indicates potential security concerns"
	InsightNormal   = "Alert patterns appear normal with no significant trends identified"
	insightHotspots = "Identified %d high-alert areas requiring attention"
	insightPeakHour = "Peak alert time is %d:00 - consider increased patrol during this hour"
)

// Point is a rounded hotspot center.
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Hotspot is a grid cell holding at least two alerts.
type Hotspot struct {
	Location   Point    `json:"location"`
	AlertCount int      `json:"alert_count"`
	Severity   Severity `json:"severity"`
	AlertTypes []string `json:"alert_types"` // distinct, sorted
}

// TimePatterns holds the hour and weekday histograms. Weekdays use Monday=0.
type TimePatterns struct {
	PeakHours          []int       `json:"peak_hours"`
	PeakDays           []int       `json:"peak_days"`
	HourlyDistribution map[int]int `json:"hourly_distribution"`
	DailyDistribution  map[int]int `json:"daily_distribution"`
}

// RiskTrends summarizes alert volume. TrendDirection is always "stable" for
// now.
type RiskTrends struct {
	TotalAlerts       int            `json:"total_alerts"`
	AlertTypes        map[string]int `json:"alert_types"`
	TrendDirection    string         `json:"trend_direction"`
	RiskIncreaseAreas int            `json:"risk_increase_areas"`
}

// Report is the result of analyzing a batch of alerts.
type Report struct {
	Hotspots     []Hotspot    `json:"hotspots"`
	TimePatterns TimePatterns `json:"time_patterns"`
	RiskTrends   RiskTrends   `json:"risk_trends"`
	Insights     []string     `json:"insights"`

	// SkippedTimestamps counts alerts left out of the time histograms.
	SkippedTimestamps int `json:"-"`
}

// MarshalJSON writes every time pattern and trend key for a non-empty batch.
// A report built from no alerts renders both sections as empty objects.
func (r Report) MarshalJSON() ([]byte, error) {
	type report Report
	if r.RiskTrends.TotalAlerts > 0 {
		return json.Marshal(report(r))
	}

	hotspots := r.Hotspots
	if hotspots == nil {
		hotspots = []Hotspot{}
	}
	insights := r.Insights
	if insights == nil {
		insights = []string{}
	}
	return json.Marshal(struct {
		Hotspots     []Hotspot `json:"hotspots"`
		TimePatterns struct{}  `json:"time_patterns"`
		RiskTrends   struct{}  `json:"risk_trends"`
		Insights     []string  `json:"insights"`
	}{Hotspots: hotspots, Insights: insights})
}

// Analyzer clusters alerts and extracts time patterns. It holds no state
// between calls.
type Analyzer struct {
	logger *zap.Logger
}

// NewAnalyzer creates a new Analyzer
func NewAnalyzer(logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{logger: logger.With(zap.String("component", "pattern_analyzer"))}
}

// Analyze builds a Report for the given alerts. An empty batch yields an
// empty report with a single "no data" insight.
func (a *Analyzer) Analyze(alerts []Alert) Report {
	if len(alerts) == 0 {
		return Report{
			Hotspots: []Hotspot{},
			Insights: []string{InsightNoData},
		}
	}

	hotspots := FindHotspots(alerts)
	timePatterns, skipped := ExtractTimePatterns(alerts)

	typeCounts := make(map[string]int)
	for _, alert := range alerts {
		typeCounts[alert.AlertType]++
	}

	trends := RiskTrends{
		TotalAlerts:       len(alerts),
		AlertTypes:        typeCounts,
		TrendDirection:    TrendStable,
		RiskIncreaseAreas: len(hotspots),
	}

	if skipped > 0 {
		a.logger.Debug("Skipped alerts without usable timestamps",
			zap.Int("skipped", skipped),
			zap.Int("total", len(alerts)),
		)
	}

	return Report{
		Hotspots:          hotspots,
		TimePatterns:      timePatterns,
		RiskTrends:        trends,
		Insights:          buildInsights(hotspots, typeCounts, len(alerts), timePatterns.PeakHours),
		SkippedTimestamps: skipped,
	}
}

// FindHotspots groups alerts by grid cell and reports cells with at least
// MinHotspotAlerts alerts, in the order cells were first seen.
func FindHotspots(alerts []Alert) []Hotspot {
	type cluster struct {
		count int
		types map[string]struct{}
	}

	clusters := make(map[geo.Cell]*cluster)
	order := make([]geo.Cell, 0)

	for _, alert := range alerts {
		cell := geo.GridCell(alert.Latitude, alert.Longitude, GridPrecision)
		c, ok := clusters[cell]
		if !ok {
			c = &cluster{types: make(map[string]struct{})}
			clusters[cell] = c
			order = append(order, cell)
		}
		c.count++
		c.types[alert.AlertType] = struct{}{}
	}

	hotspots := []Hotspot{}
	for _, cell := range order {
		c := clusters[cell]
		if c.count < MinHotspotAlerts {
			continue
		}

		severity := SeverityMedium
		if c.count >= HighSeverityAlerts {
			severity = SeverityHigh
		}

		types := make([]string, 0, len(c.types))
		for t := range c.types {
			types = append(types, t)
		}
		sort.Strings(types)

		hotspots = append(hotspots, Hotspot{
			Location:   Point{Latitude: cell.Lat, Longitude: cell.Lng},
			AlertCount: c.count,
			Severity:   severity,
			AlertTypes: types,
		})
	}

	return hotspots
}

// ExtractTimePatterns builds hour and weekday histograms from alerts with a
// parseable timestamp. It returns the number of alerts skipped.
func ExtractTimePatterns(alerts []Alert) (TimePatterns, int) {
	hours := newCounter()
	days := newCounter()
	skipped := 0

	for _, alert := range alerts {
		ts, ok := ParseTimestamp(alert.Timestamp)
		if !ok {
			skipped++
			continue
		}
		hours.add(ts.Hour())
		days.add(Weekday(ts))
	}

	return TimePatterns{
		PeakHours:          hours.top(PeakCount),
		PeakDays:           days.top(PeakCount),
		HourlyDistribution: hours.counts,
		DailyDistribution:  days.counts,
	}, skipped
}

func buildInsights(hotspots []Hotspot, typeCounts map[string]int, total int, peakHours []int) []string {
	insights := []string{}

	if len(hotspots) > 0 {
		insights = append(insights, fmt.Sprintf(insightHotspots, len(hotspots)))
	}

	if panics, ok := typeCounts[PanicAlertType]; ok && float64(panics) > float64(total)*PanicShareThreshold {
		insights = append(insights, InsightPanic)
	}

	if len(peakHours) > 0 {
		insights = append(insights, fmt.Sprintf(insightPeakHour, peakHours[0]))
	}

	if len(insights) == 0 {
		insights = append(insights, InsightNormal)
	}

	return insights
}

// counter is a frequency table that remembers first-seen order so ties
// rank the earlier key first.
type counter struct {
	counts map[int]int
	order  []int
}

func newCounter() *counter {
	return &counter{counts: make(map[int]int)}
}

func (c *counter) add(key int) {
	if _, ok := c.counts[key]; !ok {
		c.order = append(c.order, key)
	}
	c.counts[key]++
}

func (c *counter) top(n int) []int {
	keys := make([]int, len(c.order))
	copy(keys, c.order)
	sort.SliceStable(keys, func(i, j int) bool {
		return c.counts[keys[i]] > c.counts[keys[j]]
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}
