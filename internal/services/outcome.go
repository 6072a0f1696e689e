package services

import (
	"errors"

	"go.uber.org/zap"
)

// Failure kinds of a notification operation
var (
	ErrAudienceQuery = errors.New("audience query failed")
	ErrBatchCommit   = errors.New("batch commit failed")
	ErrSingleWrite   = errors.New("notification write failed")
	ErrInvalidEvent  = errors.New("invalid event")
)

// Operation names used in outcomes, logs and metrics
const (
	OpBroadcastNewBlog = "new_blog_broadcast"
	OpFollowersNewBlog = "new_blog_followers"
	OpSingleRecipient  = "single_recipient"
)

// Status is the final state of one notification operation
type Status string

const (
	StatusDelivered Status = "delivered"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// Outcome describes what one operation did. It replaces returned errors:
// notification delivery never fails the action that triggered it.
type Outcome struct {
	Operation  string
	Type       string
	Status     Status
	Recipients int
	Reason     string
	Err        error
}

// Failed reports whether the operation ended in an error
func (o Outcome) Failed() bool {
	return o.Status == StatusFailed
}

// Reporter receives the outcome of every operation
type Reporter interface {
	Report(o Outcome)
}

// ReporterFunc adapts a function to Reporter
type ReporterFunc func(o Outcome)

func (f ReporterFunc) Report(o Outcome) { f(o) }

// MultiReporter fans one outcome out to several reporters
type MultiReporter []Reporter

func (m MultiReporter) Report(o Outcome) {
	for _, r := range m {
		r.Report(o)
	}
}

// LogReporter writes outcomes to a zap logger; failures at error level
type LogReporter struct {
	logger *zap.SugaredLogger
}

func NewLogReporter(logger *zap.SugaredLogger) *LogReporter {
	return &LogReporter{logger: logger}
}

func (r *LogReporter) Report(o Outcome) {
	fields := []interface{}{
		"operation", o.Operation,
		"type", o.Type,
		"status", o.Status,
		"recipients", o.Recipients,
	}
	switch o.Status {
	case StatusFailed:
		r.logger.Errorw("notification delivery failed", append(fields, "error", o.Err)...)
	case StatusSkipped:
		r.logger.Debugw("notification skipped", append(fields, "reason", o.Reason)...)
	default:
		r.logger.Infow("notifications sent", fields...)
	}
}
