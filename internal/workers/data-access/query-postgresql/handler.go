// internal/workers/data-access/query-postgresql/handler.go
package querypostgresql

import (
	"context"
	"database/sql"
	"errors"

	apperrors "valuation-workers/internal/common/errors"
	"valuation-workers/internal/common/logger"
	"valuation-workers/internal/common/metrics"
	commonvalidation "valuation-workers/internal/common/validation"
	"valuation-workers/internal/models"
	"valuation-workers/internal/workers/data-access/query-postgresql/queries"
	"valuation-workers/pkg/registry"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "query-postgresql"
)

type Handler struct {
	config       *Config
	db           *sql.DB
	logger       logger.Logger
	errorHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, db *sql.DB, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		db:           db,
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
	if input == nil {
		return nil, apperrors.NewInvalidInputError("input cannot be nil")
	}

	queryType := models.QueryType(input.QueryType)
	if _, exists := queries.Registry[queryType]; !exists {
		return nil, apperrors.NewInvalidQueryTypeError(input.QueryType)
	}

	params := input.Parameters
	if params == nil {
		params = map[string]interface{}{}
	}

	data, rowCount, execTime, err := queries.Execute(ctx, h.db, queryType, params)
	if err != nil {
		return nil, h.mapQueryError(ctx, queryType, params, err)
	}

	h.logger.Debug("query executed", map[string]interface{}{
		"queryType":     input.QueryType,
		"rowCount":      rowCount,
		"executionTime": execTime,
	})

	return &Output{
		Data:               data,
		RowCount:           rowCount,
		QueryExecutionTime: execTime,
	}, nil
}

func (h *Handler) mapQueryError(ctx context.Context, queryType models.QueryType, params map[string]interface{}, err error) error {
	appraisalID, _ := params["appraisalId"].(string)

	switch {
	case errors.Is(err, queries.ErrMissingParam):
		return apperrors.NewInvalidInputError(err.Error())
	case errors.Is(err, sql.ErrNoRows) && queryType == models.QueryTypeLossVehicle:
		return apperrors.NewLossVehicleNotFoundError(appraisalID)
	case errors.Is(err, sql.ErrNoRows):
		return apperrors.NewAppraisalNotFoundError(appraisalID)
	case errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded:
		return apperrors.NewQueryTimeoutError(string(queryType))
	default:
		return apperrors.NewQueryExecutionFailedError(string(queryType), err)
	}
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
