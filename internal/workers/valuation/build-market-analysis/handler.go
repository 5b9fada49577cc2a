// internal/workers/valuation/build-market-analysis/handler.go
package buildmarketanalysis

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	apperrors "valuation-workers/internal/common/errors"
	"valuation-workers/internal/common/logger"
	"valuation-workers/internal/common/metrics"
	commonvalidation "valuation-workers/internal/common/validation"
	"valuation-workers/internal/valuation/analysis"
	"valuation-workers/pkg/registry"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	TaskType = "build-market-analysis"

	settlementQuery = `SELECT settlement_value FROM appraisals WHERE id = $1`
)

type Handler struct {
	config       *Config
	db           *sql.DB
	redis        *redis.Client
	logger       logger.Logger
	errorHandler *apperrors.ErrorHandler
}

// NewHandler accepts a nil redis client; lookups then always hit postgres.
func NewHandler(config *Config, db *sql.DB, redisClient *redis.Client, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		db:           db,
		redis:        redisClient,
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
	insuranceValue, source, err := h.resolveInsuranceValue(ctx, input)
	if err != nil {
		return nil, err
	}

	var result analysis.MarketAnalysis
	if insuranceValue != nil {
		result = analysis.Compose(input.CalculationBreakdown, input.Confidence, *insuranceValue)
	} else {
		result = analysis.ComposeWithoutInsurance(input.CalculationBreakdown, input.Confidence)
	}
	if result.IsUndervalued {
		metrics.UndervaluedAppraisals.Inc()
	}

	h.logger.Info("market analysis built", map[string]interface{}{
		"appraisalId":               input.AppraisalID,
		"finalMarketValue":          result.FinalMarketValue,
		"insuranceValue":            result.InsuranceValue,
		"valueDifferencePercentage": result.ValueDifferencePercentage,
		"isUndervalued":             result.IsUndervalued,
		"insuranceSource":           source,
	})

	return &Output{
		AnalysisID:     uuid.New().String(),
		AppraisalID:    input.AppraisalID,
		MarketAnalysis: result,
		InsuranceFrom:  source,
		GeneratedAt:    time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// resolveInsuranceValue returns nil with SourceNone when the appraisal has no
// settlement yet. Only real settlement values are cached.
func (h *Handler) resolveInsuranceValue(ctx context.Context, input *Input) (*float64, string, error) {
	if input.InsuranceValue != nil {
		return input.InsuranceValue, SourceInput, nil
	}

	key := settlementCacheKey(input.AppraisalID)

	if h.redis != nil {
		cached, err := h.redis.Get(ctx, key).Result()
		switch {
		case err == nil:
			if value, perr := strconv.ParseFloat(cached, 64); perr == nil {
				return &value, SourceCache, nil
			}
			h.logger.Warn("discarding malformed cached settlement value", map[string]interface{}{
				"key":   key,
				"value": cached,
			})
		case !errors.Is(err, redis.Nil):
			h.logger.Warn("settlement cache unavailable", map[string]interface{}{
				"error": apperrors.NewCacheUnavailableError(err).Details,
			})
		}
	}

	value, err := h.querySettlementValue(ctx, input.AppraisalID)
	if err != nil {
		return nil, "", err
	}
	if value == nil {
		return nil, SourceNone, nil
	}

	if h.redis != nil {
		if err := h.redis.Set(ctx, key, strconv.FormatFloat(*value, 'f', -1, 64), h.config.CacheTTL).Err(); err != nil {
			h.logger.Warn("failed to cache settlement value", map[string]interface{}{
				"key":   key,
				"error": err,
			})
		}
	}

	return value, SourceDatabase, nil
}

// querySettlementValue returns nil for a NULL settlement.
func (h *Handler) querySettlementValue(ctx context.Context, appraisalID string) (*float64, error) {
	var settlement sql.NullFloat64
	err := h.db.QueryRowContext(ctx, settlementQuery, appraisalID).Scan(&settlement)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, apperrors.NewAppraisalNotFoundError(appraisalID)
	case errors.Is(err, context.DeadlineExceeded):
		return nil, apperrors.NewQueryTimeoutError("appraisal_settlement")
	case err != nil:
		return nil, apperrors.NewQueryExecutionFailedError("appraisal_settlement", err)
	}

	if !settlement.Valid {
		h.logger.Warn("appraisal has no settlement value", map[string]interface{}{
			"appraisalId": appraisalID,
		})
		return nil, nil
	}
	return &settlement.Float64, nil
}

func settlementCacheKey(appraisalID string) string {
	return "appraisal:settlement:" + appraisalID
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
