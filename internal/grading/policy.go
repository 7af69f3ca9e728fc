package grading

import (
	"cmp"
	"slices"
)

const (
	gradeFail  = "F"
	gradeFloor = "D"
)

var percentageBands = []Band{
	{Min: 90, Grade: "A+"},
	{Min: 80, Grade: "A"},
	{Min: 70, Grade: "B"},
	{Min: 60, Grade: "C"},
}

// PercentagePolicy grades on the overall percentage; max total is the sum of
// every subject's own ceiling.
type PercentagePolicy struct {
	bands []Band
}

func NewPercentagePolicy() *PercentagePolicy {
	return &PercentagePolicy{bands: percentageBands}
}

func (p *PercentagePolicy) Name() string { return PolicyPercentage }

func (p *PercentagePolicy) Ceiling() int { return 0 }

func (p *PercentagePolicy) Summarize(entries []Entry) Summary {
	total, maxTotal := sum(entries)
	// Bands apply to the two-decimal percentage, so 89.995 rounds to 90 and
	// grades A+.
	pct := Percentage(total, maxTotal)
	grade := gradeFor(p.bands, pct, gradeFail)

	return Summary{
		Total:      total,
		MaxTotal:   maxTotal,
		Percentage: pct,
		Grade:      grade,
		Status:     p.status(grade),
		Policy:     p.Name(),
	}
}

func (p *PercentagePolicy) SubjectResult(e Entry) (string, string) {
	grade := gradeFor(p.bands, Percentage(e.Obtained, e.Max), gradeFail)
	return grade, p.status(grade)
}

func (p *PercentagePolicy) status(grade string) string {
	if grade == gradeFail {
		return StatusFail
	}
	return StatusPass
}

// SubjectFloorPolicy fails the whole result when any single subject is under
// PassMark. Otherwise the grade comes from the average mark per subject. Every
// subject shares the fixed ceiling MarksMax.
type SubjectFloorPolicy struct {
	PassMark int
	MarksMax int
	bands    []Band
}

func NewSubjectFloorPolicy(passMark, marksMax int) *SubjectFloorPolicy {
	bands := []Band{
		{Min: 45, Grade: "A+"},
		{Min: 40, Grade: "A"},
		{Min: 35, Grade: "B+"},
		{Min: 30, Grade: "B"},
		{Min: 25, Grade: "C+"},
		{Min: float64(passMark), Grade: "C"},
	}
	// A pass mark above 25 moves the C band up; on a tie the better grade wins.
	slices.SortStableFunc(bands, func(a, b Band) int { return cmp.Compare(b.Min, a.Min) })

	return &SubjectFloorPolicy{
		PassMark: passMark,
		MarksMax: marksMax,
		bands:    bands,
	}
}

func (p *SubjectFloorPolicy) Name() string { return PolicySubjectFloor }

func (p *SubjectFloorPolicy) Ceiling() int { return p.MarksMax }

func (p *SubjectFloorPolicy) Summarize(entries []Entry) Summary {
	total, _ := sum(entries)
	maxTotal := len(entries) * p.MarksMax

	s := Summary{
		Total:      total,
		MaxTotal:   maxTotal,
		Percentage: Percentage(total, maxTotal),
		Policy:     p.Name(),
	}

	for _, e := range entries {
		if e.Obtained < p.PassMark {
			s.Grade, s.Status = gradeFloor, StatusFail
			return s
		}
	}

	// Same rounding rule as the percentage: bands see the two-decimal average.
	var avg float64
	if len(entries) > 0 {
		avg = Round2(float64(total) / float64(len(entries)))
	}
	s.Grade = gradeFor(p.bands, avg, gradeFloor)
	s.Status = p.status(s.Grade)
	return s
}

func (p *SubjectFloorPolicy) SubjectResult(e Entry) (string, string) {
	if e.Obtained < p.PassMark {
		return gradeFloor, StatusFail
	}
	grade := gradeFor(p.bands, float64(e.Obtained), gradeFloor)
	return grade, p.status(grade)
}

func (p *SubjectFloorPolicy) status(grade string) string {
	if grade == gradeFloor {
		return StatusFail
	}
	return StatusPass
}
