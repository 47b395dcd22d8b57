package game

import "math"

// Tier is the feedback bucket for a guess distance.
type Tier string

const (
	TierCorrect Tier = "correct"
	TierHot     Tier = "hot"
	TierWarm    Tier = "warm"
	TierCool    Tier = "cool"
	TierCold    Tier = "cold"
)

// TierInfo describes how a tier is presented. Below is the exclusive upper
// distance bound in km; Correct uses 0 and matches only an exact hit.
type TierInfo struct {
	Tier    Tier    `json:"tier"`
	Label   string  `json:"label"`
	Message string  `json:"message"`
	Color   string  `json:"color"`
	Below   float64 `json:"-"`
}

// Tiers is the one shared feedback table, ordered from closest to farthest.
var Tiers = []TierInfo{
	{TierCorrect, "Correct", "You found it!", "#22c55e", 0},
	{TierHot, "Hot", "Very close!", "#ef4444", 1000},
	{TierWarm, "Warm", "Getting warmer.", "#f97316", 3000},
	{TierCool, "Cool", "Still a way off.", "#3b82f6", 8000},
	{TierCold, "Cold", "Far away.", "#6366f1", math.Inf(1)},
}

// FeedbackTier classifies a distance in km.
func FeedbackTier(distance float64) Tier {
	if distance == 0 {
		return TierCorrect
	}
	for _, t := range Tiers[1:] {
		if distance < t.Below {
			return t.Tier
		}
	}
	return TierCold
}

// Info returns the presentation row for t; unknown tiers map to Cold.
func (t Tier) Info() TierInfo {
	for _, ti := range Tiers {
		if ti.Tier == t {
			return ti
		}
	}
	return Tiers[len(Tiers)-1]
}
