// internal/workers/data-access/search-comparable-listings/handler.go
package searchcomparablelistings

import (
	"context"
	"errors"

	apperrors "valuation-workers/internal/common/errors"
	"valuation-workers/internal/common/logger"
	"valuation-workers/internal/common/metrics"
	commonvalidation "valuation-workers/internal/common/validation"
	"valuation-workers/internal/workers/data-access/search-comparable-listings/queries"
	"valuation-workers/pkg/registry"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/elastic/go-elasticsearch/v8"
)

const (
	TaskType = "search-comparable-listings"
)

type Handler struct {
	config       *Config
	client       *elasticsearch.Client
	logger       logger.Logger
	errorHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, client *elasticsearch.Client, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		client:       client,
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

	q := h.buildQuery(input)
	result, err := queries.Search(ctx, h.client, q)
	if err != nil {
		return nil, h.mapSearchError(ctx, q.Index, err)
	}

	for i := range result.Comparables {
		result.Comparables[i].AppraisalID = input.AppraisalID
	}

	h.logger.Info("listing search completed", map[string]interface{}{
		"appraisalId": input.AppraisalID,
		"index":       q.Index,
		"totalHits":   result.TotalHits,
		"returned":    len(result.Comparables),
		"took":        result.Took,
	})

	return &Output{
		Comparables: result.Comparables,
		TotalHits:   result.TotalHits,
		MaxScore:    result.MaxScore,
		Took:        result.Took,
	}, nil
}

func (h *Handler) buildQuery(input *Input) queries.ListingQuery {
	c := input.Criteria
	q := queries.ListingQuery{
		Index:          input.Index,
		Make:           input.LossVehicle.Make,
		Model:          input.LossVehicle.Model,
		Year:           input.LossVehicle.Year,
		YearWindow:     h.config.YearWindow,
		MaxMileage:     c.MaxMileage,
		MaxDistance:    c.MaxDistance,
		Origin:         input.Origin,
		ExcludeSources: c.ExcludeSources,
		From:           c.From,
		Size:           c.Size,
	}
	if q.Index == "" {
		q.Index = h.config.Index
	}
	if c.YearWindow != nil {
		q.YearWindow = *c.YearWindow
	}
	if q.MaxDistance == 0 {
		q.MaxDistance = h.config.MaxDistance
	}
	if q.Size == 0 {
		q.Size = h.config.MaxListings
	}
	return q
}

func (h *Handler) mapSearchError(ctx context.Context, index string, err error) error {
	switch {
	case errors.Is(err, queries.ErrMissingIndex), errors.Is(err, queries.ErrMissingVehicle):
		return apperrors.NewInvalidInputError(err.Error())
	case errors.Is(err, queries.ErrIndexNotFound):
		return apperrors.NewIndexNotFoundError(index)
	case errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded:
		return apperrors.NewSearchTimeoutError(index)
	case errors.Is(err, queries.ErrTransport):
		return apperrors.NewElasticsearchConnectionFailedError(err)
	default:
		return apperrors.NewSearchQueryFailedError(index, err)
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
