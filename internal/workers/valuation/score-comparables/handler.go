// internal/workers/valuation/score-comparables/handler.go
package scorecomparables

import (
	"context"
	"errors"
	"fmt"

	apperrors "valuation-workers/internal/common/errors"
	"valuation-workers/internal/common/logger"
	"valuation-workers/internal/common/metrics"
	commonvalidation "valuation-workers/internal/common/validation"
	"valuation-workers/internal/models"
	"valuation-workers/internal/valuation"
	"valuation-workers/internal/valuation/adjustment"
	"valuation-workers/pkg/registry"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "score-comparables"
)

var (
	ErrNoComparables = errors.New("NO_COMPARABLES")
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
	if len(input.Comparables) == 0 {
		return nil, apperrors.NewNoComparablesError(fmt.Errorf("appraisal %q: %w", input.AppraisalID, ErrNoComparables))
	}

	customValues := h.mergeEquipmentValues(input.EquipmentValues)

	evaluations := make([]valuation.Evaluation, 0, len(input.Comparables))
	for _, c := range input.Comparables {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		evaluations = append(evaluations, valuation.Evaluate(c, input.LossVehicle, customValues))
	}
	metrics.ComparablesScored.Add(float64(len(evaluations)))

	scored := valuation.Scored(evaluations)

	h.logger.Info("comparables scored", map[string]interface{}{
		"appraisalId": input.AppraisalID,
		"count":       len(scored),
		"bestScore":   bestScore(scored),
	})

	return &Output{
		Evaluations:       evaluations,
		ScoredComparables: scored,
	}, nil
}

// mergeEquipmentValues layers job overrides on top of configured ones. Keys
// are folded first so an override wins regardless of its casing.
func (h *Handler) mergeEquipmentValues(overrides map[string]float64) map[string]float64 {
	configured := adjustment.NormalizeEquipmentValues(h.config.EquipmentValues)
	job := adjustment.NormalizeEquipmentValues(overrides)
	if len(configured) == 0 && len(job) == 0 {
		return nil
	}
	merged := make(map[string]float64, len(configured)+len(job))
	for k, v := range configured {
		merged[k] = v
	}
	for k, v := range job {
		merged[k] = v
	}
	return merged
}

func bestScore(scored []models.ScoredComparable) float64 {
	var best float64
	for i, s := range scored {
		if i == 0 || s.QualityScore > best {
			best = s.QualityScore
		}
	}
	return best
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
