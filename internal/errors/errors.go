// Package errors defines the service's error taxonomy on top of
// errbuilder-go, plus the gin middleware that turns any escaped error into
// a structured JSON body. No category here is retryable: every operation is
// synchronous and local, so failures are terminal for the request.
package errors

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/gin-gonic/gin"
)

// ErrorCategory defines the type of error for proper handling.
type ErrorCategory string

const (
	// CategoryValidation covers malformed input and feature contract
	// violations: missing mandatory fields, feature order mismatch.
	CategoryValidation ErrorCategory = "validation"
	// CategoryPrediction covers failures raised inside an estimator while
	// serving a request; surfaced as a client error with the raw message.
	CategoryPrediction ErrorCategory = "prediction"
	// CategoryModelUnloaded covers requests arriving while no model
	// artifact could be loaded at startup.
	CategoryModelUnloaded ErrorCategory = "model_unloaded"
	// CategoryInternal is everything else.
	CategoryInternal ErrorCategory = "internal"
)

// AppError wraps an errbuilder error with category and HTTP status.
type AppError struct {
	*errbuilder.ErrBuilder
	Category   ErrorCategory `json:"category"`
	HTTPStatus int           `json:"http_status"`
	Timestamp  time.Time     `json:"timestamp"`
	StackTrace string        `json:"stack_trace,omitempty"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	codeStr := "UNKNOWN_ERROR"
	switch e.ErrBuilder.ErrCode() {
	case errbuilder.CodeInvalidArgument:
		codeStr = "VALIDATION_ERROR"
	case errbuilder.CodeFailedPrecondition:
		codeStr = "MODEL_NOT_LOADED"
	case errbuilder.CodeInternal:
		codeStr = "INTERNAL_ERROR"
	}
	return fmt.Sprintf("[%s] %s", codeStr, e.ErrBuilder.Msg)
}

// Unwrap returns the underlying cause.
func (e *AppError) Unwrap() error {
	return e.ErrBuilder.Unwrap()
}

// NewAppError creates an AppError from an errbuilder with extra context.
func NewAppError(builder *errbuilder.ErrBuilder, category ErrorCategory, httpStatus int) *AppError {
	return &AppError{
		ErrBuilder: builder,
		Category:   category,
		HTTPStatus: httpStatus,
		Timestamp:  time.Now(),
	}
}

// NewValidationError creates a client error for malformed input or a
// feature contract violation.
func NewValidationError(message string) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(message)
	return NewAppError(builder, CategoryValidation, http.StatusBadRequest)
}

// NewPredictionError wraps a failure raised by the underlying estimator.
// The raw message is surfaced, never swallowed.
func NewPredictionError(cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(cause.Error()).
		WithCause(cause)
	return NewAppError(builder, CategoryPrediction, http.StatusBadRequest)
}

// NewModelUnloadedError reports that no model artifact is loaded.
func NewModelUnloadedError() *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeFailedPrecondition).
		WithMsg("Model not loaded. Please train model first.")
	return NewAppError(builder, CategoryModelUnloaded, http.StatusInternalServerError)
}

// NewInternalError creates an internal server error.
func NewInternalError(cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg("Internal server error")
	if cause != nil {
		builder = builder.WithCause(cause)
	}

	appErr := NewAppError(builder, CategoryInternal, http.StatusInternalServerError)
	if gin.Mode() == gin.DebugMode || gin.Mode() == gin.TestMode {
		appErr.StackTrace = captureStackTrace()
	}
	return appErr
}

func captureStackTrace() string {
	buf := make([]byte, 4096)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}

// ErrorHandler is gin middleware providing centralized error handling for
// handlers that attach errors to the context.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last().Err
			appErr := ToAppError(err)
			LogError(c, appErr)
			c.JSON(appErr.HTTPStatus, gin.H{"error": appErr.ErrBuilder.Msg})
			return
		}
	}
}

// RecoveryHandler provides panic recovery with a structured error response.
func RecoveryHandler() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		appErr := NewInternalError(fmt.Errorf("panic recovered: %v", recovered))
		appErr.StackTrace = captureStackTrace()
		LogError(c, appErr)
		c.AbortWithStatusJSON(appErr.HTTPStatus, gin.H{"error": appErr.ErrBuilder.Msg})
	})
}

// ToAppError converts any error to an AppError.
func ToAppError(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if ebErr, ok := err.(*errbuilder.ErrBuilder); ok {
		return NewAppError(ebErr, CategoryInternal, http.StatusInternalServerError)
	}
	return NewInternalError(err)
}

// LogError logs an error with level chosen by category.
func LogError(c *gin.Context, err *AppError) {
	logEntry := slog.With(
		"error_category", err.Category,
		"http_status", err.HTTPStatus,
		"ip", c.ClientIP(),
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"request_id", c.GetString("request_id"),
	)

	switch err.Category {
	case CategoryValidation, CategoryPrediction:
		logEntry.Warn(err.ErrBuilder.Msg)
	case CategoryModelUnloaded:
		logEntry.Error(err.ErrBuilder.Msg)
	default:
		if cause := err.ErrBuilder.Unwrap(); cause != nil {
			logEntry.Error(err.ErrBuilder.Msg, "cause", cause)
		} else {
			logEntry.Error(err.ErrBuilder.Msg)
		}
	}
}
