package model

type Plan string

const (
	PlanFree Plan = "free"
	PlanPro  Plan = "pro"
)

// TierInfo is the entitlement snapshot handed to quota checks. A nil
// MaxContentItemsPerBundle means unlimited. Owned by the membership
// subsystem; this core only reads it.
type TierInfo struct {
	Plan                     Plan
	MaxContentItemsPerBundle *int
	MaxDownloadsPerPeriod    *int
}

// TierForPlan returns the built-in limits for a plan. Unknown plans get the
// free limits.
func TierForPlan(plan Plan) TierInfo {
	switch plan {
	case PlanPro:
		return TierInfo{Plan: PlanPro}
	default:
		maxItems := 25
		maxDownloads := 100
		return TierInfo{
			Plan:                     PlanFree,
			MaxContentItemsPerBundle: &maxItems,
			MaxDownloadsPerPeriod:    &maxDownloads,
		}
	}
}
