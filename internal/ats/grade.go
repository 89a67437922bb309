package ats

import (
	"fmt"
	"math"

	"atscore/internal/types"
)

// Grade is one tier of the letter-grade table
type Grade struct {
	Letter      string
	Description string
	MinScore    float64
}

// Label renders the grade as "A+ (Excellent - ATS Optimized)"
func (g Grade) Label() string {
	return fmt.Sprintf("%s (%s)", g.Letter, g.Description)
}

// Grades is ordered from the highest tier down
var Grades = []Grade{
	{Letter: "A+", Description: "Excellent - ATS Optimized", MinScore: 90},
	{Letter: "A", Description: "Very Good - Minor improvements needed", MinScore: 80},
	{Letter: "B", Description: "Good - Some improvements recommended", MinScore: 70},
	{Letter: "C", Description: "Fair - Needs optimization", MinScore: 60},
	{Letter: "D", Description: "Poor - Major improvements needed", MinScore: 50},
	{Letter: "F", Description: "Critical - Complete revision required", MinScore: math.Inf(-1)},
}

// GradeFor maps a total score to its grade tier
func GradeFor(score float64) Grade {
	for _, g := range Grades {
		if score >= g.MinScore {
			return g
		}
	}
	return Grades[len(Grades)-1]
}

// Compare reports the change between an original and an enhanced total score.
// All values are rounded to two decimals; the percentage is 0 when the
// original score is not positive.
func Compare(original, enhanced float64) types.ImprovementReport {
	delta := enhanced - original
	improvement := Round2(delta)

	percentage := 0.0
	if original > 0 {
		percentage = Round2((enhanced - original) / original * 100)
	}

	status := types.StatusUnchanged
	switch {
	case delta > 0:
		status = types.StatusImproved
	case delta < 0:
		status = types.StatusDecreased
	}

	return types.ImprovementReport{
		OriginalScore:         Round2(original),
		EnhancedScore:         Round2(enhanced),
		Improvement:           improvement,
		ImprovementPercentage: percentage,
		Status:                status,
	}
}

// CompareResults compares the total scores of two results
func CompareResults(original, enhanced types.ScoreResult) types.ImprovementReport {
	return Compare(original.TotalScore, enhanced.TotalScore)
}
