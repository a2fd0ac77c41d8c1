// Package reputation grades block-production behavior into tiers and
// estimates era rewards.
//
// The chain stores a 0-100 reputation score per validator. Grading passes
// that score through a closed threshold table; alongside it the package
// recomputes a score from the raw production counters so operators can spot
// divergence between the chain's bookkeeping and observed behavior. The
// recomputed value is an annotation only and is never written back.
package reputation

import (
	"encoding/json"
	"fmt"

	"cosmossdk.io/math"
)

// Tier is the qualitative bucket a reputation score falls into.
type Tier uint8

const (
	TierPoor Tier = iota
	TierFair
	TierGood
	TierExcellent
)

// Tier floors. Evaluated high to low, first match wins. The Good floor
// coincides with the activity threshold used at snapshot build but the two
// are independent predicates.
const (
	excellentFloor uint8 = 90
	goodFloor      uint8 = 70
	fairFloor      uint8 = 50
)

func (t Tier) String() string {
	switch t {
	case TierExcellent:
		return "Excellent"
	case TierGood:
		return "Good"
	case TierFair:
		return "Fair"
	case TierPoor:
		return "Poor"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

// MarshalJSON encodes the tier as its string form.
func (t Tier) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// Grade classifies a 0-100 score and reports whether that tier may validate.
func Grade(score uint8) (Tier, bool) {
	switch {
	case score >= excellentFloor:
		return TierExcellent, true
	case score >= goodFloor:
		return TierGood, true
	case score >= fairFloor:
		return TierFair, false
	default:
		return TierPoor, false
	}
}

// Assessment is the scorer's full output for one validator.
type Assessment struct {
	// Score is the chain-reported value the grade is taken from.
	Score uint8 `json:"score"`
	// DerivedScore is recomputed locally from production counters.
	DerivedScore uint8 `json:"derived_score"`
	Tier         Tier  `json:"tier"`
	CanValidate  bool  `json:"can_validate"`
}

// Evaluate grades the chain-reported score and recomputes a local score from
// the production counters. The chain value stays authoritative; the derived
// value is reconfirmed on every hydration.
func Evaluate(blocksProduced, blocksMissed uint64, chainScore uint8) Assessment {
	tier, canValidate := Grade(chainScore)
	return Assessment{
		Score:        chainScore,
		DerivedScore: DeriveScore(blocksProduced, blocksMissed, chainScore),
		Tier:         tier,
		CanValidate:  canValidate,
	}
}

// DeriveScore recomputes a 0-100 score as the produced share of all observed
// blocks, rounded to the nearest integer. With no observed blocks it falls
// back to the chain-reported score.
func DeriveScore(blocksProduced, blocksMissed uint64, fallback uint8) uint8 {
	total := blocksProduced + blocksMissed
	if total == 0 {
		return fallback
	}
	return uint8((blocksProduced*200 + total) / (2 * total))
}

// EstimateEraReward splits totalRewards proportionally to the validator's
// share of era points. Returns zero when no points were scored pool-wide.
// Fixed-point throughout; the multiply runs before the divide so the only
// truncation is at the 18th decimal.
func EstimateEraReward(eraPoints, totalEraPoints uint64, totalRewards math.Int) math.LegacyDec {
	if totalEraPoints == 0 {
		return math.LegacyZeroDec()
	}
	return math.LegacyNewDecFromInt(totalRewards).
		MulInt(math.NewIntFromUint64(eraPoints)).
		QuoInt(math.NewIntFromUint64(totalEraPoints))
}
