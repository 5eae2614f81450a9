package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edupredict/studentperf/internal/artifacts"
	"github.com/edupredict/studentperf/internal/ml"
	"github.com/edupredict/studentperf/internal/monitoring"
	"github.com/edupredict/studentperf/internal/types"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testFeatureNames is the eight-feature order of a model trained without
// optional fields.
var testFeatureNames = []string{
	types.FieldAttendancePct,
	types.FieldInternalMarksAvg,
	types.FieldCulturalActivity,
	types.FieldClassParticipation,
	types.FieldSportsActivity,
	types.FieldCurricularActivity,
	types.FieldEngagementIndex,
	types.FieldInternalToAttRate,
}

// loadedContext builds a serving context around a fixed logistic model whose
// score depends only on attendance: p = sigmoid(0.05*attendance - 3).
// attendance 87.5 -> 0.798 (Pass/low), 52 -> 0.401 (Fail/medium),
// 40 -> 0.269 (Fail/high).
func loadedContext() *Context {
	model := &ml.Pipeline{
		Imputer: &ml.MedianImputer{Medians: make([]float64, len(testFeatureNames))},
		Model: &ml.LogisticRegression{
			Coef:      []float64{0.05, 0, 0, 0, 0, 0, 0, 0},
			Intercept: -3,
		},
	}
	card := &artifacts.ModelCard{
		TrainingDate: "2026-08-30T10:00:00Z",
		BestModel:    "logistic_regression",
		FeatureNames: testFeatureNames,
		ModelResults: map[string]ml.Evaluation{
			"logistic_regression": {Accuracy: 0.9, F1: 0.92},
		},
		FeatureImportance: map[string]map[string]float64{
			"logistic_regression": {types.FieldAttendancePct: 0.05},
		},
	}
	return &Context{Model: model, Card: card}
}

func newTestRouter(ctx *Context) *gin.Engine {
	return NewRouter(ctx, monitoring.NewMetrics(), monitoring.NewLogger(), nil)
}

func doJSON(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			panic(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func studentBody(attendance float64) map[string]interface{} {
	return map[string]interface{}{
		"student_id":                "1DA23IS042",
		"attendance_pct":            attendance,
		"internal_marks_avg":        70,
		"cultural_activity_score":   6,
		"class_participation_score": 7,
		"sports_activity_score":     5,
		"curricular_activity_score": 8,
	}
}

func TestHealthLoaded(t *testing.T) {
	w := doJSON(newTestRouter(loadedContext()), http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
	assert.Equal(t, true, resp["model_loaded"])

	info, ok := resp["model_info"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "logistic_regression", info["name"])
	assert.Equal(t, "2026-08-30T10:00:00Z", info["training_date"])
}

func TestHealthUnloaded(t *testing.T) {
	w := doJSON(newTestRouter(&Context{}), http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["model_loaded"])
	assert.Nil(t, resp["model_info"])
}

func TestPredictUnloaded(t *testing.T) {
	endpoints := []struct {
		method string
		path   string
		body   interface{}
	}{
		{http.MethodPost, "/api/predict", studentBody(80)},
		{http.MethodPost, "/api/predict/bulk", []interface{}{studentBody(80)}},
		{http.MethodGet, "/api/analytics", nil},
		{http.MethodGet, "/api/model/info", nil},
	}

	r := newTestRouter(&Context{})
	for _, ep := range endpoints {
		w := doJSON(r, ep.method, ep.path, ep.body)
		assert.Equal(t, http.StatusInternalServerError, w.Code, ep.path)

		var resp map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), ep.path)
		assert.Equal(t, "Model not loaded. Please train model first.", resp["error"], ep.path)
	}
}

func TestPredict(t *testing.T) {
	tests := []struct {
		name           string
		attendance     float64
		wantPrediction string
		wantRisk       string
	}{
		{name: "high attendance passes", attendance: 87.5, wantPrediction: "Pass", wantRisk: "low"},
		{name: "middling attendance is medium risk", attendance: 52, wantPrediction: "Fail", wantRisk: "medium"},
		{name: "low attendance is high risk", attendance: 40, wantPrediction: "Fail", wantRisk: "high"},
	}

	r := newTestRouter(loadedContext())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(r, http.MethodPost, "/api/predict", studentBody(tt.attendance))
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())

			var resp types.PredictionResult
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, "1DA23IS042", resp.StudentID)
			assert.Equal(t, tt.wantPrediction, resp.Prediction)
			assert.Equal(t, tt.wantRisk, resp.RiskLevel)
			assert.Equal(t, "logistic_regression", resp.ModelVersion)
			assert.NotEmpty(t, resp.Timestamp)

			if tt.wantPrediction == "Pass" {
				assert.InDelta(t, resp.Probability, resp.Confidence, 1e-12)
			} else {
				assert.InDelta(t, 1-resp.Probability, resp.Confidence, 1e-12)
			}

			// Only attendance carries an importance entry.
			require.Len(t, resp.TopFactors, 1)
			assert.Equal(t, "Attendance Pct", resp.TopFactors[0].Feature)
			assert.InDelta(t, tt.attendance*0.05*10, resp.TopFactors[0].Impact, 1e-9)
		})
	}
}

func TestPredictDeterministic(t *testing.T) {
	r := newTestRouter(loadedContext())

	first := doJSON(r, http.MethodPost, "/api/predict", studentBody(75))
	second := doJSON(r, http.MethodPost, "/api/predict", studentBody(75))
	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, http.StatusOK, second.Code)

	var a, b types.PredictionResult
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &a))
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &b))
	assert.Equal(t, a.Prediction, b.Prediction)
	assert.Equal(t, a.Probability, b.Probability)
	assert.Equal(t, a.TopFactors, b.TopFactors)
}

func TestPredictValidation(t *testing.T) {
	r := newTestRouter(loadedContext())

	t.Run("non-numeric field", func(t *testing.T) {
		body := studentBody(80)
		body["attendance_pct"] = "eighty"
		w := doJSON(r, http.MethodPost, "/api/predict", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing mandatory field", func(t *testing.T) {
		body := studentBody(80)
		delete(body, "sports_activity_score")
		w := doJSON(r, http.MethodPost, "/api/predict", body)
		require.Equal(t, http.StatusBadRequest, w.Code)

		var resp map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Contains(t, resp["error"], "sports_activity_score")
	})

	t.Run("malformed JSON", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/predict", bytes.NewBufferString("{oops"))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestPredictBulkRowIsolation(t *testing.T) {
	rows := []map[string]interface{}{
		studentBody(87.5),
		studentBody(40),
	}
	rows[0]["student_id"] = "S1"
	rows[1]["student_id"] = "S2"

	broken := studentBody(80)
	broken["student_id"] = "S3"
	delete(broken, "internal_marks_avg")
	rows = append(rows, broken)

	last := studentBody(90)
	last["student_id"] = "S4"
	rows = append(rows, last)

	w := doJSON(newTestRouter(loadedContext()), http.MethodPost, "/api/predict/bulk", rows)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp types.BulkResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, 4, resp.Total)
	require.Len(t, resp.Predictions, 4)

	// Row order mirrors input order, with the failed row in place.
	assert.Equal(t, "S1", resp.Predictions[0].StudentID)
	assert.Equal(t, "Pass", resp.Predictions[0].Prediction)
	assert.Equal(t, "S2", resp.Predictions[1].StudentID)
	assert.Equal(t, "Fail", resp.Predictions[1].Prediction)
	assert.Equal(t, "S3", resp.Predictions[2].StudentID)
	assert.Empty(t, resp.Predictions[2].Prediction)
	assert.Contains(t, resp.Predictions[2].Error, "internal_marks_avg")
	assert.Equal(t, "S4", resp.Predictions[3].StudentID)
	assert.Equal(t, "Pass", resp.Predictions[3].Prediction)

	assert.Equal(t, 2, resp.Summary.Pass)
	assert.Equal(t, 1, resp.Summary.Fail)
	assert.Equal(t, 1, resp.Summary.HighRisk)
}

func TestPredictBulkCSVUpload(t *testing.T) {
	csvData := "student_id,attendance_pct,internal_marks_avg,cultural_activity_score,class_participation_score,sports_activity_score,curricular_activity_score\n" +
		"C1,90,75,6,7,5,8\n" +
		"C2,35,40,2,3,4,2\n"

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "students.csv")
	require.NoError(t, err)
	fmt.Fprint(part, csvData)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/predict/bulk", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	newTestRouter(loadedContext()).ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp types.BulkResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Total)
	require.Len(t, resp.Predictions, 2)
	assert.Equal(t, "C1", resp.Predictions[0].StudentID)
	assert.Equal(t, "Pass", resp.Predictions[0].Prediction)
	assert.Equal(t, "C2", resp.Predictions[1].StudentID)
	assert.Equal(t, "Fail", resp.Predictions[1].Prediction)
}

func TestAnalytics(t *testing.T) {
	w := doJSON(newTestRouter(loadedContext()), http.MethodGet, "/api/analytics", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "logistic_regression", resp["best_model"])
	assert.Contains(t, resp, "model_performance")
	assert.Contains(t, resp, "feature_importance")
	assert.Equal(t, "2026-08-30T10:00:00Z", resp["training_date"])
}

func TestModelInfo(t *testing.T) {
	ctx := loadedContext()
	w := doJSON(newTestRouter(ctx), http.MethodGet, "/api/model/info", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var card artifacts.ModelCard
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &card))
	assert.Equal(t, ctx.Card.BestModel, card.BestModel)
	assert.Equal(t, ctx.Card.FeatureNames, card.FeatureNames)
}

func TestMetricsEndpoint(t *testing.T) {
	r := newTestRouter(loadedContext())
	doJSON(r, http.MethodPost, "/api/predict", studentBody(80))

	w := doJSON(r, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var stats map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Contains(t, stats, "request_count")
	assert.Contains(t, stats, "prediction_count")
}

func TestRequestIDHeader(t *testing.T) {
	w := doJSON(newTestRouter(loadedContext()), http.MethodGet, "/api/health", nil)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}
