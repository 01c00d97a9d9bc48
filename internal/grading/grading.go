package grading

import (
	"crypto/sha256"
	"fmt"
	"sort"
)

const RuleVersion = "GPA5_V1"

// Letter grades, best first.
const (
	GradeAPlus  = "A+"
	GradeA      = "A"
	GradeAMinus = "A-"
	GradeB      = "B"
	GradeC      = "C"
	GradeD      = "D"
	GradeF      = "F"
)

var scale = []struct {
	minPercent float64
	grade      string
	points     float64
}{
	{80, GradeAPlus, 5.0},
	{70, GradeA, 4.0},
	{60, GradeAMinus, 3.5},
	{50, GradeB, 3.0},
	{40, GradeC, 2.0},
	{33, GradeD, 1.0},
}

// GradeResult holds computed grade information
type GradeResult struct {
	Grade             string
	Points            float64
	ComputationReason string
	RuleVersionHash   string
}

// Grade maps a mark out of maxMark to a letter. Thresholds are inclusive.
func Grade(mark, maxMark float64) string {
	return Compute(mark, maxMark).Grade
}

// Compute grades a single subject. A non-positive maxMark grades F.
func Compute(mark, maxMark float64) GradeResult {
	res := GradeResult{Grade: GradeF, RuleVersionHash: hashRuleVersion(RuleVersion)}
	if maxMark <= 0 {
		res.ComputationReason = fmt.Sprintf("Max mark %.2f is not positive → Grade F", maxMark)
		return res
	}

	// Compare mark×100 against threshold×max so exact boundaries like 33/100
	// are not lost to division rounding.
	for _, step := range scale {
		if mark*100 >= step.minPercent*maxMark {
			res.Grade = step.grade
			res.Points = step.points
			break
		}
	}
	res.ComputationReason = fmt.Sprintf("%.2f/%.0f = %.2f%% → Grade %s",
		mark, maxMark, mark*100/maxMark, res.Grade)
	return res
}

// Points returns the grade point of a letter; unknown letters count as F.
func Points(grade string) float64 {
	for _, step := range scale {
		if step.grade == grade {
			return step.points
		}
	}
	return 0
}

// Subject is a mark against the subject's maximum.
type Subject struct {
	Name    string
	Mark    float64
	MaxMark float64
}

// Summary is the combined result of one student across subjects.
type Summary struct {
	Grade      string
	GPA        float64
	TotalMarks float64
	Failed     bool
}

// Summarize computes total marks and GPA. Any failed subject makes the GPA 0
// and the overall grade F. With no subjects the result is an F.
func Summarize(subjects []Subject) Summary {
	var sum Summary
	if len(subjects) == 0 {
		sum.Grade = GradeF
		return sum
	}

	var points float64
	for _, s := range subjects {
		sum.TotalMarks += s.Mark
		res := Compute(s.Mark, s.MaxMark)
		if res.Grade == GradeF {
			sum.Failed = true
		}
		points += res.Points
	}

	if sum.Failed {
		sum.Grade = GradeF
		return sum
	}
	sum.GPA = round2(points / float64(len(subjects)))
	sum.Grade = gradeForGPA(sum.GPA)
	return sum
}

func gradeForGPA(gpa float64) string {
	for _, step := range scale {
		if gpa >= step.points {
			return step.grade
		}
	}
	return GradeF
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}

// Standing is the input to Rank.
type Standing struct {
	Key        string
	GPA        float64
	TotalMarks float64
}

// Rank assigns class positions by GPA, then total marks. Equal standings share
// a position and the next position is skipped (1st, 1st, 3rd).
func Rank(standings []Standing) map[string]string {
	sorted := append([]Standing(nil), standings...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].GPA != sorted[j].GPA {
			return sorted[i].GPA > sorted[j].GPA
		}
		return sorted[i].TotalMarks > sorted[j].TotalMarks
	})

	out := make(map[string]string, len(sorted))
	position := 0
	for i, s := range sorted {
		if i == 0 || s.GPA != sorted[i-1].GPA || s.TotalMarks != sorted[i-1].TotalMarks {
			position = i + 1
		}
		out[s.Key] = Ordinal(position)
	}
	return out
}

// Ordinal renders 1 as "1st", 2 as "2nd", 11 as "11th".
func Ordinal(n int) string {
	suffix := "th"
	switch n % 100 {
	case 11, 12, 13:
	default:
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s", n, suffix)
}

func hashRuleVersion(version string) string {
	hash := sha256.Sum256([]byte(version))
	return fmt.Sprintf("%x", hash[:8])
}
