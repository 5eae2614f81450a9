// Package dataset covers the flat-file side of the system: synthetic
// cohort generation and CSV read/write for training data and bulk uploads.
package dataset

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/edupredict/studentperf/internal/types"
)

// LabeledRecord is a student record plus the training labels.
type LabeledRecord struct {
	types.StudentRecord
	FinalResult    string
	FinalGrade     float64
	TargetCategory string
}

// Generator produces a correlated synthetic cohort. Deterministic for a
// given seed.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator creates a generator with its own seeded source.
func NewGenerator(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

func clip(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func round1(x float64) float64 { return math.Round(x*10) / 10 }
func round2(x float64) float64 { return math.Round(x*100) / 100 }

func (g *Generator) normal(mean, stddev float64) float64 {
	return g.rng.NormFloat64()*stddev + mean
}

// Generate builds n student rows. Internal marks correlate with attendance,
// three of the four activity scores share a per-student engagement factor,
// and the Pass/Fail label comes from a weighted performance score with noise.
func (g *Generator) Generate(n int) []LabeledRecord {
	semesters := []int{3, 4, 5, 6, 7, 8}
	rows := make([]LabeledRecord, 0, n)

	for i := 0; i < n; i++ {
		attendance := clip(g.normal(75, 15), 0, 100)
		internalMarks := clip(attendance*0.6+g.normal(20, 10), 0, 100)

		engagementFactor := g.normal(6, 2)
		cultural := clip(engagementFactor+g.normal(0, 1.5), 0, 10)
		participation := clip(engagementFactor+g.normal(0, 1.5), 0, 10)
		sports := clip(g.normal(5, 2), 0, 10)
		curricular := clip(engagementFactor+g.normal(0, 1.5), 0, 10)

		studyHours := clip(g.normal(15, 5), 0, 50)
		previousGPA := clip(internalMarks/25+g.normal(0, 0.3), 0, 4)
		socialSupport := clip(g.normal(7, 2), 0, 10)

		engagementIndex := (cultural + participation + sports + curricular) * 0.25

		performance := attendance*0.35 + internalMarks*0.45 + engagementIndex*1.5 + g.normal(0, 5)

		var result string
		var grade float64
		if performance >= 55 {
			result = "Pass"
			grade = clip(internalMarks+g.normal(5, 10), 50, 100)
		} else {
			result = "Fail"
			grade = clip(internalMarks-g.normal(5, 5), 0, 49)
		}

		var category string
		switch {
		case grade >= 85:
			category = "Excellent"
		case grade >= 70:
			category = "Good"
		case grade >= 50:
			category = "Average"
		default:
			category = "Poor"
		}

		rows = append(rows, LabeledRecord{
			StudentRecord: types.StudentRecord{
				StudentID: fmt.Sprintf("1DA23IS%03d", i+1),
				Semester:  semesters[g.rng.Intn(len(semesters))],
				Fields: map[string]float64{
					types.FieldAttendancePct:      round1(attendance),
					types.FieldInternalMarksAvg:   round1(internalMarks),
					types.FieldCulturalActivity:   round1(cultural),
					types.FieldClassParticipation: round1(participation),
					types.FieldSportsActivity:     round1(sports),
					types.FieldCurricularActivity: round1(curricular),
					types.FieldStudyHoursPerWeek:  round1(studyHours),
					types.FieldPreviousGPA:        round2(previousGPA),
					types.FieldSocialSupportIndex: round1(socialSupport),
				},
			},
			FinalResult:    result,
			FinalGrade:     round1(grade),
			TargetCategory: category,
		})
	}
	return rows
}
