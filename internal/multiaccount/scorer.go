package multiaccount

import "math"

// BehaviorScorer computes behavioral similarity between two accounts.
// Each method returns a score in [0,100]. Implementations must be pure and
// safe for concurrent use; the engine treats a missing profile as zero.
type BehaviorScorer interface {
	RideSimilarity(a, b *AccountData) float64
	TimingSimilarity(a, b *AccountData) float64
	UsageSimilarity(a, b *AccountData) float64
}

// ProfileScorer scores behavior from the materialized BehaviorProfile
// sections of the two snapshots. It is the default scorer.
type ProfileScorer struct{}

// NewProfileScorer creates the default behavior scorer
func NewProfileScorer() *ProfileScorer {
	return &ProfileScorer{}
}

// RideSimilarity blends ride-frequency closeness with pickup-area overlap
func (s *ProfileScorer) RideSimilarity(a, b *AccountData) float64 {
	if a.Behavior == nil || b.Behavior == nil {
		return 0
	}

	freq := closeness(a.Behavior.AvgRidesPerWeek, b.Behavior.AvgRidesPerWeek)

	areas := overlapRatio(a.Behavior.CommonPickupAreas, b.Behavior.CommonPickupAreas)
	if len(a.Behavior.CommonPickupAreas) == 0 && len(b.Behavior.CommonPickupAreas) == 0 {
		return freq * 100
	}

	return (freq*0.5 + areas*0.5) * 100
}

// TimingSimilarity measures active-hour overlap between the two accounts
func (s *ProfileScorer) TimingSimilarity(a, b *AccountData) float64 {
	if a.Behavior == nil || b.Behavior == nil {
		return 0
	}
	return overlapRatioInts(a.Behavior.ActiveHours, b.Behavior.ActiveHours) * 100
}

// UsageSimilarity compares app-session intensity
func (s *ProfileScorer) UsageSimilarity(a, b *AccountData) float64 {
	if a.Behavior == nil || b.Behavior == nil {
		return 0
	}
	return closeness(a.Behavior.AppSessionsPerDay, b.Behavior.AppSessionsPerDay) * 100
}

// NoopScorer always returns zero. Use it to visibly zero-weight the
// behavioral factor where no behavioral data pipeline exists yet.
type NoopScorer struct{}

func (NoopScorer) RideSimilarity(a, b *AccountData) float64   { return 0 }
func (NoopScorer) TimingSimilarity(a, b *AccountData) float64 { return 0 }
func (NoopScorer) UsageSimilarity(a, b *AccountData) float64  { return 0 }

// closeness maps two non-negative magnitudes to [0,1]: 1 when equal,
// falling toward 0 as they diverge.
func closeness(x, y float64) float64 {
	if x == 0 && y == 0 {
		return 1
	}
	larger := math.Max(x, y)
	if larger == 0 {
		return 0
	}
	return 1 - math.Abs(x-y)/larger
}

func overlapRatio(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(a))
	for _, v := range a {
		set[v] = struct{}{}
	}
	shared := 0
	for _, v := range b {
		if _, ok := set[v]; ok {
			shared++
		}
	}
	larger := len(a)
	if len(b) > larger {
		larger = len(b)
	}
	return float64(shared) / float64(larger)
}

func overlapRatioInts(a, b []int) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[int]struct{}, len(a))
	for _, v := range a {
		set[v] = struct{}{}
	}
	shared := 0
	for _, v := range b {
		if _, ok := set[v]; ok {
			shared++
		}
	}
	larger := len(a)
	if len(b) > larger {
		larger = len(b)
	}
	return float64(shared) / float64(larger)
}
