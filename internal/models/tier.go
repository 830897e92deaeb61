package models

// Tier is a readiness band derived from the total score
type Tier string

const (
	TierImmediateAction Tier = "immediate_action"
	TierBasic           Tier = "basic"
	TierAligned         Tier = "aligned"
	TierAdvanced        Tier = "advanced"
)

// IsValid returns true if the tier is one of the four known bands
func (t Tier) IsValid() bool {
	switch t {
	case TierImmediateAction, TierBasic, TierAligned, TierAdvanced:
		return true
	}
	return false
}

// Rank orders tiers from lowest (0) to highest (3); unknown tiers rank -1
func (t Tier) Rank() int {
	switch t {
	case TierImmediateAction:
		return 0
	case TierBasic:
		return 1
	case TierAligned:
		return 2
	case TierAdvanced:
		return 3
	}
	return -1
}
