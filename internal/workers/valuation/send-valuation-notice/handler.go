// internal/workers/valuation/send-valuation-notice/handler.go
package sendvaluationnotice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"valuation-workers/internal/common/aws"
	apperrors "valuation-workers/internal/common/errors"
	"valuation-workers/internal/common/logger"
	"valuation-workers/internal/common/metrics"
	commonvalidation "valuation-workers/internal/common/validation"
	"valuation-workers/internal/models"
	"valuation-workers/pkg/registry"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "send-valuation-notice"

	adjusterQuery = `SELECT name, email, phone FROM adjusters WHERE id = $1`
)

const (
	noticeSubject = "Appraisal {{appraisalId}}: market value exceeds settlement by {{percentage}}%"
	noticeBody    = "Hello {{adjusterName}},\n\n" +
		"The comparable market value for appraisal {{appraisalId}} is ${{marketValue}}, " +
		"${{difference}} ({{percentage}}%) above the insurance value of ${{insuranceValue}}. " +
		"Confidence: {{confidence}}/95.\n\nPlease review the settlement."
	noticeSMS = "Appraisal {{appraisalId}} undervalued by {{percentage}}% (${{difference}}). Market value ${{marketValue}}."
)

var priorityRank = map[string]int{
	PriorityLow:    0,
	PriorityNormal: 1,
	PriorityHigh:   2,
}

type Handler struct {
	config       *Config
	db           *sql.DB
	ses          *aws.SESClient
	sns          *aws.SNSClient
	logger       logger.Logger
	errorHandler *apperrors.ErrorHandler
}

// NewHandler accepts nil clients for channels that are switched off.
func NewHandler(config *Config, db *sql.DB, sesClient *aws.SESClient, snsClient *aws.SNSClient, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		db:           db,
		ses:          sesClient,
		sns:          snsClient,
		logger:       scoped,
		errorHandler: apperrors.NewErrorHandler(scoped),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	done := metrics.TrackJob(TaskType)
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := commonvalidation.DecodeVariables(registry.InputSchema(TaskType), job.Variables, &input); err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, err)
		done(string(apperrors.Normalize(err).Code))
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, err)
		done(string(apperrors.Normalize(err).Code))
		return
	}

	h.completeJob(client, job, output)
	done("")
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	notificationID := uuid.New().String()
	result := func(status string, channels []string) *Output {
		if channels == nil {
			channels = []string{}
		}
		return &Output{
			NotificationID: notificationID,
			Status:         status,
			Channels:       channels,
			SentAt:         time.Now().UTC().Format(time.RFC3339),
		}
	}

	ma := input.MarketAnalysis
	if !ma.IsUndervalued || ma.ValueDifferencePercentage < h.config.ThresholdPercent {
		h.logger.Info("settlement within threshold, no notice sent", map[string]interface{}{
			"appraisalId":               input.AppraisalID,
			"valueDifferencePercentage": ma.ValueDifferencePercentage,
			"threshold":                 h.config.ThresholdPercent,
		})
		metrics.NoticesSent.WithLabelValues("none", StatusSkipped).Inc()
		return result(StatusSkipped, nil), nil
	}

	if !h.emailEnabled() && !h.smsEnabled() {
		metrics.NoticesSent.WithLabelValues("none", StatusDisabled).Inc()
		return result(StatusDisabled, nil), nil
	}

	contact, err := h.getAdjusterContact(ctx, input.AdjusterID)
	if err != nil {
		return nil, err
	}

	data := map[string]interface{}{
		"appraisalId":    input.AppraisalID,
		"adjusterName":   contact.Name,
		"marketValue":    fmt.Sprintf("%.2f", ma.FinalMarketValue),
		"insuranceValue": fmt.Sprintf("%.2f", ma.InsuranceValue),
		"difference":     fmt.Sprintf("%.2f", ma.ValueDifference),
		"percentage":     fmt.Sprintf("%.2f", ma.ValueDifferencePercentage),
		"confidence":     ma.ConfidenceLevel,
	}

	var channels []string

	if h.emailEnabled() && contact.Email != "" {
		subject := renderTemplate(noticeSubject, data)
		body := renderTemplate(noticeBody, data)
		if _, err := h.ses.SendEmail(ctx, contact.Email, subject, body, ""); err != nil {
			metrics.NoticesSent.WithLabelValues(ChannelEmail, StatusFailed).Inc()
			return nil, apperrors.NewNotificationSendFailedError(ChannelEmail, err).
				WithMetadata("appraisalId", input.AppraisalID)
		}
		metrics.NoticesSent.WithLabelValues(ChannelEmail, StatusSent).Inc()
		channels = append(channels, ChannelEmail)
	}

	if h.smsEnabled() && contact.Phone != "" && h.urgent(input.Priority) {
		if _, err := h.sns.SendSMS(ctx, contact.Phone, renderTemplate(noticeSMS, data)); err != nil {
			metrics.NoticesSent.WithLabelValues(ChannelSMS, StatusFailed).Inc()
			// the email may already be out; a retry would send it twice
			if len(channels) > 0 {
				h.logger.Error("SMS send failed after email was delivered", map[string]interface{}{
					"appraisalId": input.AppraisalID,
					"error":       err,
				})
				return result(StatusSent, channels), nil
			}
			return nil, apperrors.NewNotificationSendFailedError(ChannelSMS, err).
				WithMetadata("appraisalId", input.AppraisalID)
		}
		metrics.NoticesSent.WithLabelValues(ChannelSMS, StatusSent).Inc()
		channels = append(channels, ChannelSMS)
	}

	if len(channels) == 0 {
		h.logger.Warn("adjuster has no reachable contact", map[string]interface{}{
			"adjusterId": input.AdjusterID,
		})
		return result(StatusDisabled, nil), nil
	}

	h.logger.Info("valuation notice sent", map[string]interface{}{
		"appraisalId": input.AppraisalID,
		"adjusterId":  input.AdjusterID,
		"channels":    channels,
	})

	return result(StatusSent, channels), nil
}

func (h *Handler) emailEnabled() bool { return h.config.EmailEnabled && h.ses != nil }

func (h *Handler) smsEnabled() bool { return h.config.SMSEnabled && h.sns != nil }

// urgent reports whether priority reaches the configured SMS threshold.
// An empty priority counts as normal.
func (h *Handler) urgent(priority string) bool {
	if priority == "" {
		priority = PriorityNormal
	}
	threshold, ok := priorityRank[h.config.SMSPriority]
	if !ok {
		threshold = priorityRank[PriorityHigh]
	}
	return priorityRank[priority] >= threshold
}

func (h *Handler) getAdjusterContact(ctx context.Context, adjusterID string) (*models.Adjuster, error) {
	var name, email, phone sql.NullString
	err := h.db.QueryRowContext(ctx, adjusterQuery, adjusterID).Scan(&name, &email, &phone)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, apperrors.NewRecipientNotFoundError(adjusterID)
	case errors.Is(err, context.DeadlineExceeded):
		return nil, apperrors.NewQueryTimeoutError("adjuster_contact")
	case err != nil:
		return nil, apperrors.NewQueryExecutionFailedError("adjuster_contact", err)
	}
	return &models.Adjuster{ID: adjusterID, Name: name.String, Email: email.String, Phone: phone.String}, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

// renderTemplate substitutes {{key}} placeholders and drops any left unfilled.
func renderTemplate(tmpl string, data map[string]interface{}) string {
	result := tmpl
	for k, v := range data {
		value := ""
		if v != nil {
			value = fmt.Sprintf("%v", v)
		}
		result = strings.ReplaceAll(result, "{{"+k+"}}", value)
	}

	for {
		start := strings.Index(result, "{{")
		if start == -1 {
			break
		}
		end := strings.Index(result[start:], "}}")
		if end == -1 {
			break
		}
		result = result[:start] + result[start+end+2:]
	}
	return result
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
