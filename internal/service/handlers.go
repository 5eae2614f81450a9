package service

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/edupredict/studentperf/internal/dataset"
	"github.com/edupredict/studentperf/internal/errors"
	"github.com/edupredict/studentperf/internal/monitoring"
	"github.com/edupredict/studentperf/internal/types"
)

// Handlers binds the serving context to the HTTP surface.
type Handlers struct {
	ctx     *Context
	metrics *monitoring.Metrics
	logger  *monitoring.Logger
}

// NewHandlers creates the handler set.
func NewHandlers(ctx *Context, metrics *monitoring.Metrics, logger *monitoring.Logger) *Handlers {
	return &Handlers{ctx: ctx, metrics: metrics, logger: logger}
}

func respondError(c *gin.Context, appErr *errors.AppError) {
	errors.LogError(c, appErr)
	c.JSON(appErr.HTTPStatus, gin.H{"error": appErr.ErrBuilder.Msg})
}

// Health never fails; it reports whether the model loaded and its identity.
func (h *Handlers) Health(c *gin.Context) {
	var modelInfo gin.H
	if h.ctx.Loaded() {
		modelInfo = gin.H{
			"name":          h.ctx.Card.BestModel,
			"training_date": h.ctx.Card.TrainingDate,
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status":       "healthy",
		"model_loaded": h.ctx.Loaded(),
		"model_info":   modelInfo,
	})
}

// Predict serves one student record.
func (h *Handlers) Predict(c *gin.Context) {
	if !h.ctx.Loaded() {
		respondError(c, errors.NewModelUnloadedError())
		return
	}

	var rec types.StudentRecord
	if err := c.ShouldBindJSON(&rec); err != nil {
		respondError(c, errors.NewValidationError(err.Error()))
		return
	}

	start := time.Now()
	result, err := h.ctx.predictOne(rec)
	if err != nil {
		respondError(c, errors.NewPredictionError(err))
		return
	}

	h.metrics.IncrementPredictions(1)
	h.logger.PredictionLogger(result.StudentID, result.Prediction, result.RiskLevel, result.Probability, time.Since(start))
	c.JSON(http.StatusOK, result)
}

// PredictBulk serves a batch: a multipart CSV upload under "file", or a
// JSON array of records. Row failures are isolated; the batch never aborts.
func (h *Handlers) PredictBulk(c *gin.Context) {
	if !h.ctx.Loaded() {
		respondError(c, errors.NewModelUnloadedError())
		return
	}

	records, appErr := h.readBulkInput(c)
	if appErr != nil {
		respondError(c, appErr)
		return
	}

	start := time.Now()
	response := types.BulkResponse{
		Total:       len(records),
		Predictions: make([]types.BulkRowResult, 0, len(records)),
	}

	failed := 0
	for _, rec := range records {
		studentID := rec.StudentID
		if studentID == "" {
			studentID = "unknown"
		}

		result, err := h.ctx.predictOne(rec)
		if err != nil {
			failed++
			response.Predictions = append(response.Predictions, types.BulkRowResult{
				StudentID: studentID,
				Error:     err.Error(),
			})
			continue
		}

		response.Predictions = append(response.Predictions, types.BulkRowResult{
			StudentID:   studentID,
			Prediction:  result.Prediction,
			Probability: result.Probability,
			RiskLevel:   result.RiskLevel,
		})
		switch result.Prediction {
		case "Pass":
			response.Summary.Pass++
		case "Fail":
			response.Summary.Fail++
		}
		if result.RiskLevel == "high" {
			response.Summary.HighRisk++
		}
	}

	h.metrics.IncrementPredictions(int64(len(records)))
	h.logger.BulkLogger(response.Total, failed, time.Since(start))
	c.JSON(http.StatusOK, response)
}

func (h *Handlers) readBulkInput(c *gin.Context) ([]types.StudentRecord, *errors.AppError) {
	if file, err := c.FormFile("file"); err == nil {
		f, err := file.Open()
		if err != nil {
			return nil, errors.NewValidationError("failed to open uploaded file")
		}
		defer f.Close()

		records, err := dataset.ReadRecords(f)
		if err != nil {
			return nil, errors.NewValidationError(err.Error())
		}
		return records, nil
	}

	var records []types.StudentRecord
	if err := c.ShouldBindJSON(&records); err != nil {
		return nil, errors.NewValidationError(err.Error())
	}
	return records, nil
}

// Analytics projects the card's performance and importance sections.
func (h *Handlers) Analytics(c *gin.Context) {
	if !h.ctx.Loaded() {
		respondError(c, errors.NewModelUnloadedError())
		return
	}

	card := h.ctx.Card
	c.JSON(http.StatusOK, gin.H{
		"model_performance":  card.ModelResults,
		"feature_importance": card.FeatureImportance[card.BestModel],
		"best_model":         card.BestModel,
		"training_date":      card.TrainingDate,
	})
}

// ModelInfo returns the full model card.
func (h *Handlers) ModelInfo(c *gin.Context) {
	if !h.ctx.Loaded() {
		respondError(c, errors.NewModelUnloadedError())
		return
	}
	c.JSON(http.StatusOK, h.ctx.Card)
}

// Metrics exposes request statistics.
func (h *Handlers) Metrics(c *gin.Context) {
	c.JSON(http.StatusOK, h.metrics.GetStats())
}
