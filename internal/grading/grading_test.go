package grading_test

import (
	"math/rand/v2"
	"testing"

	"github.com/RIKASH04/Resulyhub/internal/grading"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entries(marks, max []int) []grading.Entry {
	out := make([]grading.Entry, len(marks))
	for i := range marks {
		out[i] = grading.Entry{Obtained: marks[i], Max: max[i]}
	}
	return out
}

var gradeRank = map[string]int{
	"F": 0, "D": 0,
	"C": 1, "C+": 2, "B": 3, "B+": 4, "A": 5, "A+": 6,
}

func TestPercentagePolicy(t *testing.T) {
	p := grading.NewPercentagePolicy()

	t.Run("Example", func(t *testing.T) {
		s := p.Summarize(entries([]int{45, 38, 42}, []int{50, 50, 50}))

		assert.Equal(t, 125, s.Total)
		assert.Equal(t, 150, s.MaxTotal)
		assert.Equal(t, 83.33, s.Percentage)
		assert.Equal(t, "A", s.Grade)
		assert.Equal(t, grading.StatusPass, s.Status)
		assert.Equal(t, grading.PolicyPercentage, s.Policy)
	})

	t.Run("EmptySet", func(t *testing.T) {
		s := p.Summarize(nil)

		assert.Equal(t, 0, s.Total)
		assert.Equal(t, 0, s.MaxTotal)
		assert.Equal(t, 0.0, s.Percentage)
		assert.Equal(t, "F", s.Grade)
		assert.Equal(t, grading.StatusFail, s.Status)
	})

	t.Run("ZeroMaxTotal", func(t *testing.T) {
		s := p.Summarize(entries([]int{5, 3}, []int{0, 0}))

		assert.Equal(t, 8, s.Total)
		assert.Equal(t, 0.0, s.Percentage)
	})

	t.Run("Boundaries", func(t *testing.T) {
		cases := []struct {
			obtained int
			grade    string
			status   string
		}{
			{100, "A+", grading.StatusPass},
			{90, "A+", grading.StatusPass},
			{89, "A", grading.StatusPass},
			{80, "A", grading.StatusPass},
			{79, "B", grading.StatusPass},
			{70, "B", grading.StatusPass},
			{69, "C", grading.StatusPass},
			{60, "C", grading.StatusPass},
			{59, "F", grading.StatusFail},
			{0, "F", grading.StatusFail},
		}
		for _, tc := range cases {
			s := p.Summarize(entries([]int{tc.obtained}, []int{100}))
			assert.Equal(t, tc.grade, s.Grade, "obtained %d", tc.obtained)
			assert.Equal(t, tc.status, s.Status, "obtained %d", tc.obtained)
		}
	})

	t.Run("FractionalBoundary", func(t *testing.T) {
		s := p.Summarize(entries([]int{8999}, []int{10000}))
		assert.Equal(t, 89.99, s.Percentage)
		assert.Equal(t, "A", s.Grade)
	})

	t.Run("SubjectResult", func(t *testing.T) {
		grade, status := p.SubjectResult(grading.Entry{Obtained: 45, Max: 50})
		assert.Equal(t, "A+", grade)
		assert.Equal(t, grading.StatusPass, status)

		grade, status = p.SubjectResult(grading.Entry{Obtained: 29, Max: 50})
		assert.Equal(t, "F", grade)
		assert.Equal(t, grading.StatusFail, status)
	})

	t.Run("NoFixedCeiling", func(t *testing.T) {
		assert.Equal(t, 0, p.Ceiling())
	})
}

func TestSubjectFloorPolicy(t *testing.T) {
	p := grading.NewSubjectFloorPolicy(18, 50)

	t.Run("OneSubjectBelowFloorFails", func(t *testing.T) {
		s := p.Summarize(entries([]int{20, 15, 30}, []int{50, 50, 50}))

		assert.Equal(t, 65, s.Total)
		assert.Equal(t, 150, s.MaxTotal)
		assert.Equal(t, 43.33, s.Percentage)
		assert.Equal(t, "D", s.Grade)
		assert.Equal(t, grading.StatusFail, s.Status)
		assert.Equal(t, grading.PolicySubjectFloor, s.Policy)
	})

	t.Run("HighAverageStillFailsOnFloor", func(t *testing.T) {
		s := p.Summarize(entries([]int{50, 50, 17}, []int{50, 50, 50}))

		assert.Equal(t, "D", s.Grade)
		assert.Equal(t, grading.StatusFail, s.Status)
	})

	t.Run("MaxTotalUsesFixedCeiling", func(t *testing.T) {
		s := p.Summarize(entries([]int{40, 40}, []int{100, 80}))

		assert.Equal(t, 100, s.MaxTotal)
		assert.Equal(t, 80.0, s.Percentage)
		assert.Equal(t, "A", s.Grade)
	})

	t.Run("AverageBands", func(t *testing.T) {
		cases := []struct {
			marks []int
			grade string
		}{
			{[]int{45, 45}, "A+"},
			{[]int{44, 45}, "A"},
			{[]int{40, 40}, "A"},
			{[]int{35, 35}, "B+"},
			{[]int{30, 30}, "B"},
			{[]int{25, 25}, "C+"},
			{[]int{18, 18}, "C"},
			{[]int{18, 31}, "C"},
		}
		for _, tc := range cases {
			max := make([]int, len(tc.marks))
			for i := range max {
				max[i] = 50
			}
			s := p.Summarize(entries(tc.marks, max))
			assert.Equal(t, tc.grade, s.Grade, "marks %v", tc.marks)
			assert.Equal(t, grading.StatusPass, s.Status, "marks %v", tc.marks)
		}
	})

	t.Run("EmptySet", func(t *testing.T) {
		s := p.Summarize(nil)

		assert.Equal(t, 0, s.Total)
		assert.Equal(t, 0, s.MaxTotal)
		assert.Equal(t, 0.0, s.Percentage)
		assert.Equal(t, "D", s.Grade)
		assert.Equal(t, grading.StatusFail, s.Status)
	})

	t.Run("SubjectResult", func(t *testing.T) {
		grade, status := p.SubjectResult(grading.Entry{Obtained: 17, Max: 50})
		assert.Equal(t, "D", grade)
		assert.Equal(t, grading.StatusFail, status)

		grade, status = p.SubjectResult(grading.Entry{Obtained: 36, Max: 50})
		assert.Equal(t, "B+", grade)
		assert.Equal(t, grading.StatusPass, status)
	})

	t.Run("Ceiling", func(t *testing.T) {
		assert.Equal(t, 50, p.Ceiling())
	})
}

func TestNewPolicy(t *testing.T) {
	p, err := grading.NewPolicy("", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, grading.PolicyPercentage, p.Name())

	p, err = grading.NewPolicy(grading.PolicySubjectFloor, 18, 50)
	require.NoError(t, err)
	assert.Equal(t, grading.PolicySubjectFloor, p.Name())

	_, err = grading.NewPolicy(grading.PolicySubjectFloor, 60, 50)
	assert.Error(t, err)

	_, err = grading.NewPolicy("curve", 0, 0)
	assert.ErrorIs(t, err, grading.ErrUnknownPolicy)
}

func TestPercentage(t *testing.T) {
	assert.Equal(t, 0.0, grading.Percentage(10, 0))
	assert.Equal(t, 66.67, grading.Percentage(2, 3))
	assert.Equal(t, 100.0, grading.Percentage(50, 50))
}

func TestPolicyProperties(t *testing.T) {
	policies := []grading.Policy{
		grading.NewPercentagePolicy(),
		grading.NewSubjectFloorPolicy(18, 50),
	}
	rng := rand.New(rand.NewPCG(7, 11))

	randomMarks := func() ([]int, []int) {
		n := 1 + rng.IntN(8)
		marks := make([]int, n)
		max := make([]int, n)
		for i := 0; i < n; i++ {
			max[i] = 50
			if rng.IntN(2) == 0 {
				max[i] = 10 + rng.IntN(91)
			}
			marks[i] = rng.IntN(max[i] + 1)
		}
		return marks, max
	}

	for _, p := range policies {
		t.Run(p.Name(), func(t *testing.T) {
			for i := 0; i < 500; i++ {
				marks, max := randomMarks()
				if p.Ceiling() > 0 {
					for j := range max {
						max[j] = p.Ceiling()
						if marks[j] > max[j] {
							marks[j] = max[j]
						}
					}
				}
				in := entries(marks, max)
				s := p.Summarize(in)

				want := 0
				for _, m := range marks {
					want += m
				}
				require.Equal(t, want, s.Total)
				require.GreaterOrEqual(t, s.Percentage, 0.0)
				require.LessOrEqual(t, s.Percentage, 100.0)
				require.Equal(t, s, p.Summarize(in), "summary must be deterministic")

				if s.Status == grading.StatusPass {
					require.Greater(t, gradeRank[s.Grade], 0)
				} else {
					require.Equal(t, 0, gradeRank[s.Grade])
				}

				// Raising one mark never moves anything down.
				j := rng.IntN(len(marks))
				if marks[j] < max[j] {
					bumped := append([]int(nil), marks...)
					bumped[j]++
					s2 := p.Summarize(entries(bumped, max))

					require.GreaterOrEqual(t, s2.Total, s.Total)
					require.GreaterOrEqual(t, s2.Percentage, s.Percentage)
					require.GreaterOrEqual(t, gradeRank[s2.Grade], gradeRank[s.Grade])
					if s.Status == grading.StatusPass {
						require.Equal(t, grading.StatusPass, s2.Status)
					}
				}
			}
		})
	}
}

func TestGradesUseRoundedPercentage(t *testing.T) {
	p := grading.NewPercentagePolicy()

	// 1808/2009 is 89.995%, which rounds to 90.
	s := p.Summarize(entries([]int{1808}, []int{2009}))
	assert.Equal(t, 90.0, s.Percentage)
	assert.Equal(t, "A+", s.Grade)
}

func TestSubjectFloorPolicyHighPassMark(t *testing.T) {
	p := grading.NewSubjectFloorPolicy(30, 50)

	cases := []struct {
		marks  []int
		grade  string
		status string
	}{
		{[]int{30, 30}, "B", grading.StatusPass},
		{[]int{32, 33}, "B", grading.StatusPass},
		{[]int{36, 35}, "B+", grading.StatusPass},
		{[]int{29, 50}, "D", grading.StatusFail},
	}
	for _, tc := range cases {
		s := p.Summarize(entries(tc.marks, []int{50, 50}))
		assert.Equal(t, tc.grade, s.Grade, "marks %v", tc.marks)
		assert.Equal(t, tc.status, s.Status, "marks %v", tc.marks)
	}

	grade, status := p.SubjectResult(grading.Entry{Obtained: 30, Max: 50})
	assert.Equal(t, "B", grade)
	assert.Equal(t, grading.StatusPass, status)
}
