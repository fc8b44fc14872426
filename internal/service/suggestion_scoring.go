package service

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/noah-isme/sma-elective-api/internal/models"
)

const (
	scoreBase          = 20.0
	scoreWorkloadMax   = 30.0
	scorePopularityMax = 25.0
	scoreConflict      = -60.0
	scoreNoConflict    = 15.0
	scoreSubjectMatch  = 10.0

	workloadLowTier  = 70.0
	workloadHighTier = 90.0
)

// workloadPercent converts weekly hours into a share of the limit, capped at 100.
// A non-positive limit is treated as a fully loaded teacher.
func workloadPercent(hours, limit float64) float64 {
	if limit <= 0 {
		return 100
	}
	return math.Min(100, hours/limit*100)
}

// popularityPercent is the share of classes that already take the lesson, capped at 100.
func popularityPercent(assignments, totalClasses int) float64 {
	if totalClasses <= 0 {
		return 0
	}
	return math.Min(100, float64(assignments)/float64(totalClasses)*100)
}

// computeScore turns raw factors into a score in [0, 100] with two decimal places.
func computeScore(f models.ScoreFactors, c models.SuggestionCriteria) float64 {
	score := scoreBase
	if c.PreferLowWorkload {
		score += math.Max(0, scoreWorkloadMax-f.WorkloadPercent*scoreWorkloadMax/100)
	}
	if c.PreferPopular {
		score += f.PopularityPercent * scorePopularityMax / 100
	}
	if c.AvoidConflicts {
		if f.HasConflict {
			score += scoreConflict
		} else {
			score += scoreNoConflict
		}
	}
	if f.SubjectMatch {
		score += scoreSubjectMatch
	}
	return round2(clamp(score, 0, 100))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// buildRationale summarises the factors behind a score for display.
func buildRationale(f models.ScoreFactors, score float64) string {
	parts := make([]string, 0, 3)
	switch {
	case f.WorkloadPercent < workloadLowTier:
		parts = append(parts, fmt.Sprintf("Low teacher workload (%.0f%%)", f.WorkloadPercent))
	case f.WorkloadPercent > workloadHighTier:
		parts = append(parts, fmt.Sprintf("High teacher workload (%.0f%%)", f.WorkloadPercent))
	default:
		parts = append(parts, fmt.Sprintf("Moderate teacher workload (%.0f%%)", f.WorkloadPercent))
	}
	if f.HasConflict {
		parts = append(parts, "schedule conflict detected")
	} else {
		parts = append(parts, "no schedule conflicts")
	}
	if f.SubjectMatch {
		parts = append(parts, "teacher subject matches the lesson")
	}
	return fmt.Sprintf("%s. Score: %.2f", strings.Join(parts, ", "), score)
}

// rankSuggestions drops non-positive scores, orders by score descending with
// lesson and teacher IDs as tie-breakers, then truncates to limit.
func rankSuggestions(items []models.SuggestionDetail, limit int) []models.SuggestionDetail {
	kept := items[:0]
	for _, item := range items {
		if item.Score > 0 {
			kept = append(kept, item)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		a, b := kept[i], kept[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.LessonID != b.LessonID {
			return a.LessonID < b.LessonID
		}
		return a.TeacherID < b.TeacherID
	})
	if limit > 0 && len(kept) > limit {
		kept = kept[:limit]
	}
	return kept
}
