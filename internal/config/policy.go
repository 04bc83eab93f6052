package config

import "github.com/tailorly/tailor-server-go/internal/model"

// CostTable maps each action type to its credit cost. It is immutable
// configuration, constructed once in main and injected into the ledger.
type CostTable struct {
	costs map[model.ActionType]float64
}

func NewCostTable(costs map[model.ActionType]float64) CostTable {
	copied := make(map[model.ActionType]float64, len(costs))
	for k, v := range costs {
		copied[k] = v
	}
	return CostTable{costs: copied}
}

func (t CostTable) Cost(action model.ActionType) (float64, bool) {
	cost, ok := t.costs[action]
	return cost, ok
}

func DefaultCostTable() CostTable {
	return NewCostTable(map[model.ActionType]float64{
		model.ActionTailorFull:      1.0,
		model.ActionTailorCV:        0.75,
		model.ActionTailorCover:     0.25,
		model.ActionRefineBullet:    0.25,
		model.ActionCoverShorten:    0.25,
		model.ActionCoverRegenerate: 0.5,
		model.ActionSmartReply:      0.1,
	})
}

// WindowLimits holds the two sliding-window thresholds for one category.
type WindowLimits struct {
	PerHour int
	PerDay  int
}

// RateLimitPolicy maps action categories to their window thresholds.
type RateLimitPolicy struct {
	limits map[model.ActionCategory]WindowLimits
}

func NewRateLimitPolicy(limits map[model.ActionCategory]WindowLimits) RateLimitPolicy {
	copied := make(map[model.ActionCategory]WindowLimits, len(limits))
	for k, v := range limits {
		copied[k] = v
	}
	return RateLimitPolicy{limits: copied}
}

func (p RateLimitPolicy) Limits(category model.ActionCategory) (WindowLimits, bool) {
	l, ok := p.limits[category]
	return l, ok
}

func DefaultRateLimitPolicy() RateLimitPolicy {
	return NewRateLimitPolicy(map[model.ActionCategory]WindowLimits{
		model.CategoryGeneration: {PerHour: 30, PerDay: 100},
		model.CategoryRefinement: {PerHour: 60, PerDay: 200},
		model.CategoryReply:      {PerHour: 60, PerDay: 200},
	})
}

// FreeTierPolicy holds the default allowances seeded at account provisioning
// and the purchasable pack that extends the refinement allowance.
type FreeTierPolicy struct {
	RefineAllowance int
	ReplyAllowance  int
	PackCost        float64
	PackSize        int
}

func DefaultFreeTierPolicy() FreeTierPolicy {
	return FreeTierPolicy{
		RefineAllowance: 5,
		ReplyAllowance:  3,
		PackCost:        1.0,
		PackSize:        5,
	}
}
