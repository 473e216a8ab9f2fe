package impactmetrics

import "github.com/prometheus/client_golang/prometheus"

type metrics struct {
	co2Saved          *prometheus.GaugeVec
	unusedSeats       *prometheus.GaugeVec
	efficiencyScore   *prometheus.GaugeVec
	insightsGenerated *prometheus.CounterVec
}

func newMetrics(registry prometheus.Registerer) *metrics {
	m := &metrics{
		co2Saved: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "seatwise_impact_co2_saved_kg",
			Help: "CO2 saved by unused seats in the latest calculated period.",
		}, []string{"org_id"}),
		unusedSeats: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "seatwise_impact_unused_seats",
			Help: "Unused seats across active licenses in the latest calculated period.",
		}, []string{"org_id"}),
		efficiencyScore: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "seatwise_department_efficiency_score",
			Help: "Latest efficiency score per department.",
		}, []string{"org_id", "department_id"}),
		insightsGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "seatwise_insights_generated_total",
			Help: "Insights generated by the insight generators.",
		}, []string{"org_id", "insight_type"}),
	}
	if registry != nil {
		registry.MustRegister(m.co2Saved, m.unusedSeats, m.efficiencyScore, m.insightsGenerated)
	}
	return m
}
