// Package features implements the feature engineering contract shared by
// training and serving: a deterministic transform from a raw student record
// to a numeric vector whose order is dictated by the model card's feature
// name list. Any drift between the two sides silently corrupts predictions,
// so the transform lives in exactly one place.
package features

import (
	"fmt"
	"math"

	"github.com/edupredict/studentperf/internal/types"
)

// MissingFeatureError reports a mandatory input field absent from a record.
type MissingFeatureError struct {
	Feature string
}

func (e *MissingFeatureError) Error() string {
	return fmt.Sprintf("missing required feature %q", e.Feature)
}

// UnknownFeatureError reports a feature name in the authoritative order that
// the contract does not know how to produce.
type UnknownFeatureError struct {
	Feature string
}

func (e *UnknownFeatureError) Error() string {
	return fmt.Sprintf("unknown feature %q in model feature order", e.Feature)
}

var optionalSet = func() map[string]bool {
	m := make(map[string]bool, len(types.OptionalFeatures))
	for _, name := range types.OptionalFeatures {
		m[name] = true
	}
	return m
}()

var knownSet = func() map[string]bool {
	m := map[string]bool{
		types.FieldEngagementIndex:   true,
		types.FieldInternalToAttRate: true,
	}
	for _, name := range types.BaseFeatures {
		m[name] = true
	}
	for _, name := range types.OptionalFeatures {
		m[name] = true
	}
	return m
}()

// EngagementIndex is the arithmetic mean of the four activity scores.
// An absent score counts as 0 here, matching the training-time default fill.
func EngagementIndex(fields map[string]float64) float64 {
	var sum float64
	for _, name := range types.ActivityFeatures {
		sum += fields[name] * 0.25
	}
	return sum
}

// InternalToAttendanceRatio divides internal marks by attendance with a +1
// denominator offset. The offset guards attendance_pct == 0 and must stay
// identical between training and serving.
func InternalToAttendanceRatio(internalMarks, attendancePct float64) float64 {
	return internalMarks / (attendancePct + 1)
}

// Vector builds the engineered feature vector for one record, in the order
// given by featureNames (authoritative, from the model card).
//
// Mandatory base fields absent from the record yield a MissingFeatureError.
// Optional fields that were included at training but are absent here become
// NaN, which the model pipeline's imputer fills with training medians.
// Fields present on the record but not in featureNames are ignored.
func Vector(rec types.StudentRecord, featureNames []string) ([]float64, error) {
	vec := make([]float64, len(featureNames))
	for i, name := range featureNames {
		switch name {
		case types.FieldEngagementIndex:
			vec[i] = EngagementIndex(rec.Fields)
		case types.FieldInternalToAttRate:
			marks, ok := rec.Fields[types.FieldInternalMarksAvg]
			if !ok {
				return nil, &MissingFeatureError{Feature: types.FieldInternalMarksAvg}
			}
			att, ok := rec.Fields[types.FieldAttendancePct]
			if !ok {
				return nil, &MissingFeatureError{Feature: types.FieldAttendancePct}
			}
			vec[i] = InternalToAttendanceRatio(marks, att)
		default:
			if !knownSet[name] {
				return nil, &UnknownFeatureError{Feature: name}
			}
			val, ok := rec.Fields[name]
			if !ok {
				if optionalSet[name] {
					vec[i] = math.NaN()
					continue
				}
				return nil, &MissingFeatureError{Feature: name}
			}
			vec[i] = val
		}
	}
	return vec, nil
}

// TrainingNames returns the feature name order used for a training set:
// the six base fields, the two derived scalars, then each optional field
// present in more than half of the rows. The order is fixed and becomes the
// model card's authoritative feature_names list.
func TrainingNames(rows []types.StudentRecord) []string {
	names := make([]string, 0, len(types.BaseFeatures)+2+len(types.OptionalFeatures))
	names = append(names, types.BaseFeatures...)
	names = append(names, types.FieldEngagementIndex, types.FieldInternalToAttRate)

	for _, opt := range types.OptionalFeatures {
		present := 0
		for _, rec := range rows {
			if _, ok := rec.Fields[opt]; ok {
				present++
			}
		}
		if present*2 > len(rows) {
			names = append(names, opt)
		}
	}
	return names
}

// Matrix applies Vector to every row, producing the training design matrix.
func Matrix(rows []types.StudentRecord, featureNames []string) ([][]float64, error) {
	X := make([][]float64, len(rows))
	for i, rec := range rows {
		vec, err := Vector(rec, featureNames)
		if err != nil {
			return nil, fmt.Errorf("row %d (%s): %w", i, rec.StudentID, err)
		}
		X[i] = vec
	}
	return X, nil
}
