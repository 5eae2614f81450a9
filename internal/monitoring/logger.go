package monitoring

import (
	"log/slog"
	"os"
	"time"
)

// Logger provides structured logging with domain-specific helpers.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a JSON logger writing to stdout.
func NewLogger() *Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{
					Key:   "timestamp",
					Value: slog.StringValue(a.Value.Time().Format(time.RFC3339)),
				}
			}
			return a
		},
	})
	return &Logger{Logger: slog.New(handler)}
}

// RequestLogger logs HTTP request details.
func (l *Logger) RequestLogger(method, path, ip, requestID string, statusCode int, duration time.Duration) {
	l.Info("HTTP Request",
		"method", method,
		"path", path,
		"ip", ip,
		"request_id", requestID,
		"status_code", statusCode,
		"duration_ms", duration.Milliseconds(),
	)
}

// PredictionLogger logs a served prediction.
func (l *Logger) PredictionLogger(studentID, prediction, riskLevel string, probability float64, duration time.Duration) {
	l.Info("Prediction Served",
		"student_id", studentID,
		"prediction", prediction,
		"risk_level", riskLevel,
		"probability", probability,
		"duration_ms", duration.Milliseconds(),
	)
}

// BulkLogger logs a bulk prediction batch.
func (l *Logger) BulkLogger(total, failed int, duration time.Duration) {
	l.Info("Bulk Prediction Served",
		"total", total,
		"failed_rows", failed,
		"duration_ms", duration.Milliseconds(),
	)
}
