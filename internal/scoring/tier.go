package scoring

import (
	"math"

	"github.com/Nexuses/rsmsaudi-carbon-credit-assessment/internal/models"
)

// MaxScale is the top of the score scale the thresholds are expressed in
const MaxScale = 100

// band is one readiness tier with its inclusive lower bound.
// Every place that classifies a score reads this table.
type band struct {
	min     int
	tier    models.Tier
	key     string
	segment string
}

var bands = []band{
	{min: 85, tier: models.TierAdvanced, key: "advanced", segment: "good"},
	{min: 65, tier: models.TierAligned, key: "solid", segment: "fair"},
	{min: 35, tier: models.TierBasic, key: "basic", segment: "poor"},
	{min: math.MinInt, tier: models.TierImmediateAction, key: "urgent", segment: "critical"},
}

func bandFor(score int) band {
	for _, b := range bands {
		if score >= b.min {
			return b
		}
	}
	return bands[len(bands)-1]
}

// Classify maps a score to its readiness tier
func Classify(score int) models.Tier {
	return bandFor(score).tier
}

// Resolver looks up localized text by key
type Resolver interface {
	Resolve(key string) string
}

// Result is a classified score with its localized texts
type Result struct {
	Score      int         `json:"score"`
	Tier       models.Tier `json:"tier"`
	Label      string      `json:"result"`
	Suggestion string      `json:"suggestion"`
}

// Describe classifies score and resolves the tier's result label and suggestion
func Describe(score int, r Resolver) Result {
	b := bandFor(score)
	return Result{
		Score:      score,
		Tier:       b.tier,
		Label:      r.Resolve("resultTexts." + b.key),
		Suggestion: r.Resolve("suggestions." + b.key),
	}
}

// TierKey returns the translation key suffix used for a tier ("urgent", "basic", ...)
func TierKey(t models.Tier) string {
	for _, b := range bands {
		if b.tier == t {
			return b.key
		}
	}
	return ""
}
