package model

// ActionCategory groups action types for rate limiting and free-tier
// accounting.
type ActionCategory string

const (
	CategoryGeneration ActionCategory = "generation"
	CategoryRefinement ActionCategory = "refinement"
	CategoryReply      ActionCategory = "reply"
)

// ActionType is the closed set of billable operations. Adding an action means
// adding a constant here plus a cost-table entry; there is no string-matched
// dispatch anywhere else.
type ActionType string

const (
	ActionTailorFull      ActionType = "tailor.full"
	ActionTailorCV        ActionType = "tailor.cv"
	ActionTailorCover     ActionType = "tailor.cover"
	ActionRefineBullet    ActionType = "refine.bullet"
	ActionCoverShorten    ActionType = "refine.cover_shorten"
	ActionCoverRegenerate ActionType = "refine.cover_regenerate"
	ActionSmartReply      ActionType = "reply.generate"
)

var actionCategories = map[ActionType]ActionCategory{
	ActionTailorFull:      CategoryGeneration,
	ActionTailorCV:        CategoryGeneration,
	ActionTailorCover:     CategoryGeneration,
	ActionRefineBullet:    CategoryRefinement,
	ActionCoverShorten:    CategoryRefinement,
	ActionCoverRegenerate: CategoryRefinement,
	ActionSmartReply:      CategoryReply,
}

func (a ActionType) Category() ActionCategory {
	return actionCategories[a]
}

func (a ActionType) Valid() bool {
	_, ok := actionCategories[a]
	return ok
}

// FreeTierEligible reports whether the action category is covered by a
// free-tier allowance before credits are charged.
func (a ActionType) FreeTierEligible() bool {
	switch a.Category() {
	case CategoryRefinement, CategoryReply:
		return true
	default:
		return false
	}
}
