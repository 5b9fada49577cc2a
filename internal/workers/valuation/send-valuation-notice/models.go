// internal/workers/valuation/send-valuation-notice/models.go
package sendvaluationnotice

import "valuation-workers/internal/valuation/analysis"

type Input struct {
	AppraisalID    string                  `json:"appraisalId" validate:"required"`
	AdjusterID     string                  `json:"adjusterId" validate:"required"`
	MarketAnalysis analysis.MarketAnalysis `json:"marketAnalysis"`
	Priority       string                  `json:"priority,omitempty" validate:"omitempty,oneof=low normal high"`
}

type Output struct {
	NotificationID string   `json:"notificationId"`
	Status         string   `json:"status"` // "sent", "failed", "skipped", "disabled"
	Channels       []string `json:"channels"`
	SentAt         string   `json:"sentAt"` // ISO 8601
}

// Statuses
const (
	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusSkipped  = "skipped"
	StatusDisabled = "disabled"
)

// Priorities
const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
)

// Channels
const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)
