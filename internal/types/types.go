package types

// Field names of the base (mandatory) student features, in the canonical
// training order. Derived and optional feature names follow.
const (
	FieldAttendancePct      = "attendance_pct"
	FieldInternalMarksAvg   = "internal_marks_avg"
	FieldCulturalActivity   = "cultural_activity_score"
	FieldClassParticipation = "class_participation_score"
	FieldSportsActivity     = "sports_activity_score"
	FieldCurricularActivity = "curricular_activity_score"

	FieldEngagementIndex   = "engagement_index"
	FieldInternalToAttRate = "internal_to_attendance_ratio"

	FieldStudyHoursPerWeek  = "study_hours_per_week"
	FieldPreviousGPA        = "previous_gpa"
	FieldSocialSupportIndex = "social_support_index"
)

// BaseFeatures are required on every prediction input.
var BaseFeatures = []string{
	FieldAttendancePct,
	FieldInternalMarksAvg,
	FieldCulturalActivity,
	FieldClassParticipation,
	FieldSportsActivity,
	FieldCurricularActivity,
}

// ActivityFeatures are the four scores averaged into the engagement index.
var ActivityFeatures = []string{
	FieldCulturalActivity,
	FieldClassParticipation,
	FieldSportsActivity,
	FieldCurricularActivity,
}

// OptionalFeatures may be absent from inputs; inclusion in the trained
// feature set is decided at training time by a presence threshold.
var OptionalFeatures = []string{
	FieldStudyHoursPerWeek,
	FieldPreviousGPA,
	FieldSocialSupportIndex,
}

// StudentRecord is one raw input row: an identifier plus named numeric
// fields. Fields absent from the input are absent from the map, never zero.
type StudentRecord struct {
	StudentID string
	Semester  int
	Fields    map[string]float64
}

// TopFactor is one entry of the simplified per-feature contribution
// explanation (engineered value times stored importance, scaled for display).
type TopFactor struct {
	Feature string  `json:"feature"`
	Impact  float64 `json:"impact"`
}

// PredictionResult is the response body for a single prediction.
type PredictionResult struct {
	StudentID    string      `json:"student_id"`
	Prediction   string      `json:"prediction"`
	Probability  float64     `json:"probability"`
	Confidence   float64     `json:"confidence"`
	RiskLevel    string      `json:"risk_level"`
	TopFactors   []TopFactor `json:"top_factors"`
	Timestamp    string      `json:"timestamp"`
	ModelVersion string      `json:"model_version"`
}

// BulkRowResult is one row of a bulk prediction response. Either the
// prediction fields or Error is populated, never both.
type BulkRowResult struct {
	StudentID   string  `json:"student_id"`
	Prediction  string  `json:"prediction,omitempty"`
	Probability float64 `json:"probability,omitempty"`
	RiskLevel   string  `json:"risk_level,omitempty"`
	Error       string  `json:"error,omitempty"`
}

// BulkSummary aggregates a bulk prediction batch.
type BulkSummary struct {
	Pass     int `json:"pass"`
	Fail     int `json:"fail"`
	HighRisk int `json:"high_risk"`
}

// BulkResponse is the response body for bulk predictions. Predictions
// preserve input row order.
type BulkResponse struct {
	Total       int             `json:"total"`
	Predictions []BulkRowResult `json:"predictions"`
	Summary     BulkSummary     `json:"summary"`
}
