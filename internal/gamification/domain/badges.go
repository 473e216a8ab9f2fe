package domain

import "fmt"

// BadgeInput is the persisted score view the badge rules read.
type BadgeInput struct {
	Rank            int
	PreviousRank    *int
	EfficiencyScore int
	UtilizationRate float64
}

type BadgeAward struct {
	Type     BadgeType
	Criteria Criteria
}

type badgeRule struct {
	badge BadgeType
	eval  func(in BadgeInput) (Criteria, bool)
}

// green_warrior and optimization_master have no automatic rule.
var badgeRules = []badgeRule{
	{
		badge: BadgeCostChampion,
		eval: func(in BadgeInput) (Criteria, bool) {
			return Criteria{Threshold: 1, ActualValue: float64(in.Rank), Description: "Achieved #1 efficiency ranking"}, in.Rank == 1
		},
	},
	{
		badge: BadgeEfficiencyExpert,
		eval: func(in BadgeInput) (Criteria, bool) {
			return Criteria{Threshold: 95, ActualValue: float64(in.EfficiencyScore), Description: "Achieved 95%+ efficiency score"}, in.EfficiencyScore >= 95
		},
	},
	{
		badge: BadgeMostImproved,
		eval: func(in BadgeInput) (Criteria, bool) {
			if in.PreviousRank == nil || *in.PreviousRank == 0 {
				return Criteria{}, false
			}
			improvement := *in.PreviousRank - in.Rank
			return Criteria{
				Threshold:   3,
				ActualValue: float64(improvement),
				Description: fmt.Sprintf("Improved ranking by %d positions", improvement),
			}, improvement >= 3
		},
	},
	{
		badge: BadgeZeroWaste,
		eval: func(in BadgeInput) (Criteria, bool) {
			return Criteria{Threshold: 100, ActualValue: in.UtilizationRate, Description: "Achieved 100% license utilization"}, in.UtilizationRate >= 100
		},
	},
}

// EvaluateBadges returns every badge the score earns, in rule order.
func EvaluateBadges(in BadgeInput) []BadgeAward {
	var awards []BadgeAward
	for _, rule := range badgeRules {
		if criteria, ok := rule.eval(in); ok {
			awards = append(awards, BadgeAward{Type: rule.badge, Criteria: criteria})
		}
	}
	return awards
}
