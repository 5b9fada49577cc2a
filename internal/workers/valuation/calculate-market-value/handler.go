// internal/workers/valuation/calculate-market-value/handler.go
package calculatemarketvalue

import (
	"context"
	"errors"
	"fmt"
	"math"

	apperrors "valuation-workers/internal/common/errors"
	"valuation-workers/internal/common/logger"
	"valuation-workers/internal/common/metrics"
	commonvalidation "valuation-workers/internal/common/validation"
	"valuation-workers/internal/valuation/marketvalue"
	"valuation-workers/pkg/registry"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "calculate-market-value"
)

var (
	ErrNonFiniteValue = errors.New("MARKET_VALUE_CALCULATION_FAILED")
)

// ValueRecorder receives every computed market value, e.g. an OpenTelemetry histogram.
type ValueRecorder interface {
	RecordMarketValue(ctx context.Context, value float64, confidence int)
}

type Handler struct {
	config       *Config
	recorder     ValueRecorder
	logger       logger.Logger
	errorHandler *apperrors.ErrorHandler
}

// NewHandler accepts a nil recorder.
func NewHandler(config *Config, recorder ValueRecorder, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		recorder:     recorder,
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
	breakdown, err := marketvalue.CalculateMarketValue(input.ScoredComparables, input.LossVehicle)
	if err != nil {
		if errors.Is(err, marketvalue.ErrNoComparables) {
			return nil, apperrors.NewNoComparablesError(err)
		}
		return nil, apperrors.NewMarketValueCalculationFailedError(err)
	}

	// all quality scores at zero (or cancelling out) leave nothing to divide by
	if math.IsNaN(breakdown.FinalMarketValue) || math.IsInf(breakdown.FinalMarketValue, 0) {
		return nil, apperrors.NewMarketValueCalculationFailedError(
			fmt.Errorf("total weight %.2f: %w", breakdown.TotalWeights, ErrNonFiniteValue),
		)
	}

	confidence := marketvalue.CalculateConfidenceLevel(input.ScoredComparables)

	metrics.MarketValuesCalculated.Inc()
	metrics.ConfidenceLevel.Observe(float64(confidence.Level))
	if h.recorder != nil {
		h.recorder.RecordMarketValue(ctx, breakdown.FinalMarketValue, confidence.Level)
	}

	h.logger.Info("market value calculated", map[string]interface{}{
		"appraisalId":      input.AppraisalID,
		"comparables":      len(input.ScoredComparables),
		"finalMarketValue": breakdown.FinalMarketValue,
		"confidenceLevel":  confidence.Level,
	})

	return &Output{
		FinalMarketValue:     breakdown.FinalMarketValue,
		CalculationBreakdown: breakdown,
		Confidence:           confidence,
	}, nil
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
