// internal/workers/valuation/validate-comparable/handler.go
package validatecomparable

import (
	"context"
	"fmt"
	"strings"

	apperrors "valuation-workers/internal/common/errors"
	"valuation-workers/internal/common/logger"
	"valuation-workers/internal/common/metrics"
	commonvalidation "valuation-workers/internal/common/validation"
	"valuation-workers/internal/valuation/validation"
	"valuation-workers/pkg/registry"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "validate-comparable"
)

type Handler struct {
	config       *Config
	logger       logger.Logger
	errorHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
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
		h.fail(ctx, client, job, err, done)
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.fail(ctx, client, job, err, done)
		return
	}

	h.completeJob(client, job, output)
	done("")
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch {
	case input.Comparable != nil:
		result := validation.Validate(*input.Comparable, input.ExistingComparables, input.LossVehicle)
		recordOutcome(result.IsValid)

		h.logger.Info("comparable validated", map[string]interface{}{
			"appraisalId": input.AppraisalID,
			"valid":       result.IsValid,
			"errors":      len(result.Errors),
			"warnings":    len(result.Warnings),
		})

		if input.RejectInvalid && !result.IsValid {
			return nil, apperrors.NewComparableValidationFailedError(describe(result.Errors)).
				WithMetadata("validationResult", result)
		}
		return &Output{ValidationResult: &result}, nil

	case len(input.Comparables) > 0:
		summary := validation.GetValidationSummary(input.Comparables)
		for i := 0; i < summary.TotalComparables; i++ {
			recordOutcome(i < summary.ValidComparables)
		}

		h.logger.Info("comparables validated", map[string]interface{}{
			"appraisalId": input.AppraisalID,
			"total":       summary.TotalComparables,
			"valid":       summary.ValidComparables,
			"errors":      summary.TotalErrors,
		})

		if input.RejectInvalid && summary.ValidComparables < summary.TotalComparables {
			return nil, apperrors.NewComparableValidationFailedError(
				fmt.Sprintf("%d of %d comparables are invalid", summary.TotalComparables-summary.ValidComparables, summary.TotalComparables),
			).WithMetadata("validationSummary", summary)
		}
		return &Output{ValidationSummary: &summary}, nil

	default:
		return nil, apperrors.NewInvalidInputError("either comparable or comparables is required")
	}
}

func recordOutcome(valid bool) {
	outcome := "invalid"
	if valid {
		outcome = "valid"
	}
	metrics.ComparablesValidated.WithLabelValues(outcome).Inc()
}

func describe(errs []validation.FieldError) string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		parts = append(parts, fmt.Sprintf("%s: %s", e.Field, e.Kind))
	}
	return strings.Join(parts, "; ")
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error, done func(string)) {
	h.errorHandler.HandleJobError(ctx, client, job, err)
	done(string(apperrors.Normalize(err).Code))
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

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
