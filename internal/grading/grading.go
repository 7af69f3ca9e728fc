// Package grading turns a student's per-subject marks into the cached result
// summary: total, max total, percentage, letter grade and pass/fail status.
//
// Exactly one Policy is active per deployment. The functions here are pure and
// never fail; range validation of marks belongs to the input layer.
package grading

import (
	"errors"
	"fmt"
	"math"
)

const (
	StatusPass = "Pass"
	StatusFail = "Fail"
)

const (
	PolicyPercentage   = "percentage"
	PolicySubjectFloor = "subject_floor"
)

var ErrUnknownPolicy = errors.New("unknown grading policy")

// Entry is one subject's contribution: marks obtained out of Max.
type Entry struct {
	Obtained int
	Max      int
}

type Summary struct {
	Total      int     `json:"total"`
	MaxTotal   int     `json:"maxTotal"`
	Percentage float64 `json:"percentage"`
	Grade      string  `json:"grade"`
	Status     string  `json:"status"`
	Policy     string  `json:"policy"`
}

// Band maps every value >= Min to Grade. Bands are checked in order, so they
// must be sorted by descending Min. Values are compared after Round2.
type Band struct {
	Min   float64
	Grade string
}

type Policy interface {
	Name() string
	Summarize(entries []Entry) Summary
	// SubjectResult grades a single subject for the marksheet.
	SubjectResult(e Entry) (grade string, status string)
	// Ceiling is the max-marks every subject is pinned to, or 0 when subjects
	// carry their own ceiling.
	Ceiling() int
}

// NewPolicy builds the policy named in configuration.
func NewPolicy(name string, passMark, marksMax int) (Policy, error) {
	switch name {
	case PolicyPercentage, "":
		return NewPercentagePolicy(), nil
	case PolicySubjectFloor:
		if passMark <= 0 || marksMax <= 0 || passMark > marksMax {
			return nil, fmt.Errorf("subject_floor needs 0 < pass_mark <= marks_max, got %d/%d", passMark, marksMax)
		}
		return NewSubjectFloorPolicy(passMark, marksMax), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
	}
}

// Round2 rounds half away from zero to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Percentage is total/maxTotal*100 rounded to two decimals, 0 when maxTotal is 0.
func Percentage(total, maxTotal int) float64 {
	if maxTotal <= 0 {
		return 0
	}
	return Round2(float64(total) * 100 / float64(maxTotal))
}

func gradeFor(bands []Band, value float64, fallback string) string {
	for _, b := range bands {
		if value >= b.Min {
			return b.Grade
		}
	}
	return fallback
}

func sum(entries []Entry) (total, maxTotal int) {
	for _, e := range entries {
		total += e.Obtained
		maxTotal += e.Max
	}
	return total, maxTotal
}
