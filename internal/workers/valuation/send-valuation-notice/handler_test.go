// internal/workers/valuation/send-valuation-notice/handler_test.go
package sendvaluationnotice

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"valuation-workers/internal/common/aws"
	apperrors "valuation-workers/internal/common/errors"
	"valuation-workers/internal/common/logger"
	"valuation-workers/internal/valuation/analysis"

	"github.com/DATA-DOG/go-sqlmock"
	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mock Implementations
// ==========================

type MockSESService struct {
	calls         int
	SendEmailFunc func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

func (m *MockSESService) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	m.calls++
	if m.SendEmailFunc == nil {
		return &ses.SendEmailOutput{MessageId: awssdk.String("ses-msg-1")}, nil
	}
	return m.SendEmailFunc(ctx, params, optFns...)
}

type MockSNSService struct {
	calls       int
	PublishFunc func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

func (m *MockSNSService) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	m.calls++
	if m.PublishFunc == nil {
		return &sns.PublishOutput{MessageId: awssdk.String("sns-msg-1")}, nil
	}
	return m.PublishFunc(ctx, params, optFns...)
}

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{
		EmailEnabled:     true,
		SMSEnabled:       true,
		FromEmail:        "valuations@example.com",
		ThresholdPercent: 5,
		SMSPriority:      PriorityHigh,
		Timeout:          15 * time.Second,
	}
}

func createTestInput(priority string) *Input {
	return &Input{
		AppraisalID: "A-1",
		AdjusterID:  "ADJ-7",
		Priority:    priority,
		MarketAnalysis: analysis.MarketAnalysis{
			FinalMarketValue:          20074,
			InsuranceValue:            18500,
			ValueDifference:           1574,
			ValueDifferencePercentage: 8.51,
			IsUndervalued:             true,
			ConfidenceLevel:           95,
		},
	}
}

type fixture struct {
	handler *Handler
	mock    sqlmock.Sqlmock
	ses     *MockSESService
	sns     *MockSNSService
}

func newFixture(t *testing.T, config *Config) *fixture {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sesMock := &MockSESService{}
	snsMock := &MockSNSService{}
	h := NewHandler(config, db,
		aws.NewSESClientWith(sesMock, config.FromEmail),
		aws.NewSNSClientWith(snsMock),
		logger.NewTestLogger(t))

	return &fixture{handler: h, mock: mock, ses: sesMock, sns: snsMock}
}

func expectAdjuster(mock sqlmock.Sqlmock, email, phone interface{}) {
	mock.ExpectQuery(regexp.QuoteMeta(adjusterQuery)).
		WithArgs("ADJ-7").
		WillReturnRows(sqlmock.NewRows([]string{"name", "email", "phone"}).
			AddRow("Dana Reyes", email, phone))
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Channels(t *testing.T) {
	tests := []struct {
		name             string
		priority         string
		smsPriority      string
		emailEnabled     bool
		smsEnabled       bool
		email            interface{}
		phone            interface{}
		expectedStatus   string
		expectedChannels []string
	}{
		{
			name:             "email and SMS for high priority",
			priority:         PriorityHigh,
			emailEnabled:     true,
			smsEnabled:       true,
			email:            "dana@example.com",
			phone:            "+15125550100",
			expectedStatus:   StatusSent,
			expectedChannels: []string{ChannelEmail, ChannelSMS},
		},
		{
			name:             "email only for normal priority",
			priority:         PriorityNormal,
			emailEnabled:     true,
			smsEnabled:       true,
			email:            "dana@example.com",
			phone:            "+15125550100",
			expectedStatus:   StatusSent,
			expectedChannels: []string{ChannelEmail},
		},
		{
			name:             "lower SMS threshold texts normal priority",
			priority:         "",
			smsPriority:      PriorityNormal,
			emailEnabled:     false,
			smsEnabled:       true,
			email:            "dana@example.com",
			phone:            "+15125550100",
			expectedStatus:   StatusSent,
			expectedChannels: []string{ChannelSMS},
		},
		{
			name:             "no phone on file",
			priority:         PriorityHigh,
			emailEnabled:     false,
			smsEnabled:       true,
			email:            "dana@example.com",
			phone:            nil,
			expectedStatus:   StatusDisabled,
			expectedChannels: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := createTestConfig()
			config.EmailEnabled = tt.emailEnabled
			config.SMSEnabled = tt.smsEnabled
			if tt.smsPriority != "" {
				config.SMSPriority = tt.smsPriority
			}
			f := newFixture(t, config)
			expectAdjuster(f.mock, tt.email, tt.phone)

			output, err := f.handler.Execute(context.Background(), createTestInput(tt.priority))

			require.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, output.Status)
			assert.Equal(t, tt.expectedChannels, output.Channels)
			assert.NotEmpty(t, output.SentAt)
			_, err = uuid.Parse(output.NotificationID)
			assert.NoError(t, err)
			assert.NoError(t, f.mock.ExpectationsWereMet())
		})
	}
}

func TestHandler_Execute_EmailContent(t *testing.T) {
	f := newFixture(t, createTestConfig())
	expectAdjuster(f.mock, "dana@example.com", "+15125550100")

	var subject, body string
	f.ses.SendEmailFunc = func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
		assert.Equal(t, []string{"dana@example.com"}, params.Destination.ToAddresses)
		assert.Equal(t, "valuations@example.com", *params.Source)
		subject = *params.Message.Subject.Data
		body = *params.Message.Body.Text.Data
		return &ses.SendEmailOutput{MessageId: awssdk.String("m-1")}, nil
	}
	var sms string
	f.sns.PublishFunc = func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
		assert.Equal(t, "+15125550100", *params.PhoneNumber)
		sms = *params.Message
		return &sns.PublishOutput{MessageId: awssdk.String("m-2")}, nil
	}

	_, err := f.handler.Execute(context.Background(), createTestInput(PriorityHigh))

	require.NoError(t, err)
	assert.Equal(t, "Appraisal A-1: market value exceeds settlement by 8.51%", subject)
	assert.Contains(t, body, "Hello Dana Reyes")
	assert.Contains(t, body, "$20074.00")
	assert.Contains(t, body, "$18500.00")
	assert.Contains(t, sms, "undervalued by 8.51% ($1574.00)")
	assert.NotContains(t, body, "{{")
}

func TestHandler_Execute_Skipped(t *testing.T) {
	tests := []struct {
		name     string
		analysis analysis.MarketAnalysis
	}{
		{
			name:     "not undervalued",
			analysis: analysis.MarketAnalysis{ValueDifference: -500, ValueDifferencePercentage: -2.5},
		},
		{
			name:     "below threshold",
			analysis: analysis.MarketAnalysis{ValueDifference: 400, ValueDifferencePercentage: 2.1, IsUndervalued: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, createTestConfig())
			input := createTestInput(PriorityHigh)
			input.MarketAnalysis = tt.analysis

			output, err := f.handler.Execute(context.Background(), input)

			require.NoError(t, err)
			assert.Equal(t, StatusSkipped, output.Status)
			assert.Empty(t, output.Channels)
			assert.Zero(t, f.ses.calls)
			assert.Zero(t, f.sns.calls)
			assert.NoError(t, f.mock.ExpectationsWereMet())
		})
	}
}

func TestHandler_Execute_AllChannelsDisabled(t *testing.T) {
	config := createTestConfig()
	config.EmailEnabled = false
	config.SMSEnabled = false
	f := newFixture(t, config)

	output, err := f.handler.Execute(context.Background(), createTestInput(PriorityHigh))

	require.NoError(t, err)
	assert.Equal(t, StatusDisabled, output.Status)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_AdjusterLookupErrors(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		expectedCode apperrors.ErrorCode
	}{
		{name: "unknown adjuster", err: sql.ErrNoRows, expectedCode: apperrors.ErrCodeRecipientNotFound},
		{name: "query failure", err: errors.New("connection reset"), expectedCode: apperrors.ErrCodeQueryExecutionFailed},
		{name: "query timeout", err: context.DeadlineExceeded, expectedCode: apperrors.ErrCodeQueryTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, createTestConfig())
			f.mock.ExpectQuery(regexp.QuoteMeta(adjusterQuery)).
				WithArgs("ADJ-7").
				WillReturnError(tt.err)

			output, err := f.handler.Execute(context.Background(), createTestInput(PriorityHigh))

			require.Error(t, err)
			assert.Nil(t, output)
			stdErr, ok := apperrors.AsStandardError(err)
			require.True(t, ok)
			assert.Equal(t, tt.expectedCode, stdErr.Code)
			assert.Zero(t, f.ses.calls)
		})
	}
}

func TestHandler_Execute_EmailFailureIsRetryable(t *testing.T) {
	f := newFixture(t, createTestConfig())
	expectAdjuster(f.mock, "dana@example.com", "+15125550100")
	f.ses.SendEmailFunc = func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
		return nil, errors.New("throttling: maximum sending rate exceeded")
	}

	output, err := f.handler.Execute(context.Background(), createTestInput(PriorityHigh))

	require.Error(t, err)
	assert.Nil(t, output)
	stdErr, ok := apperrors.AsStandardError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeNotificationSendFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
	assert.Equal(t, "A-1", stdErr.Metadata["appraisalId"])
	assert.Equal(t, 3, apperrors.ConvertToBPMNError(stdErr).Retries)
	assert.Zero(t, f.sns.calls)
}

func TestHandler_Execute_SMSFailureAfterEmail(t *testing.T) {
	f := newFixture(t, createTestConfig())
	expectAdjuster(f.mock, "dana@example.com", "+15125550100")
	f.sns.PublishFunc = func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
		return nil, errors.New("opted out")
	}

	output, err := f.handler.Execute(context.Background(), createTestInput(PriorityHigh))

	require.NoError(t, err)
	assert.Equal(t, StatusSent, output.Status)
	assert.Equal(t, []string{ChannelEmail}, output.Channels)
	assert.Equal(t, 1, f.ses.calls)
}

func TestHandler_Execute_SMSOnlyFailure(t *testing.T) {
	config := createTestConfig()
	config.EmailEnabled = false
	f := newFixture(t, config)
	expectAdjuster(f.mock, nil, "+15125550100")
	f.sns.PublishFunc = func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
		return nil, errors.New("opted out")
	}

	_, err := f.handler.Execute(context.Background(), createTestInput(PriorityHigh))

	stdErr, ok := apperrors.AsStandardError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeNotificationSendFailed, stdErr.Code)
	assert.True(t, strings.Contains(stdErr.Details, ChannelSMS))
}

func TestRenderTemplate(t *testing.T) {
	got := renderTemplate("{{a}} and {{b}}{{missing}}.", map[string]interface{}{"a": 1, "b": "two"})
	assert.Equal(t, "1 and two.", got)
}
