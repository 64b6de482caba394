package api

import (
	"context"
	"cosmic-classifier/internal/core"
	"cosmic-classifier/internal/core/types"
	"cosmic-classifier/internal/core/utils"
	"cosmic-classifier/internal/database"
	"cosmic-classifier/pkg/api"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Predictor interface {
	Predict(ctx context.Context, raw types.FeatureVector) (types.PredictionResult, error)
}

const (
	DefaultBatchWorkers = 4
	DefaultMaxBatchSize = 1000
	maxModelHistory     = 100
)

type PredictionService struct {
	predictor    Predictor
	db           *gorm.DB
	deploymentId uuid.UUID
	batchWorkers int
	maxBatchSize int
}

// NewPredictionService serves predictions from predictor. deploymentId is the registry row
// this process recorded at startup; /model reports it.
func NewPredictionService(predictor Predictor, db *gorm.DB, deploymentId uuid.UUID, batchWorkers, maxBatchSize int) *PredictionService {
	if batchWorkers <= 0 {
		batchWorkers = DefaultBatchWorkers
	}
	if maxBatchSize <= 0 {
		maxBatchSize = DefaultMaxBatchSize
	}
	return &PredictionService{
		predictor:    predictor,
		db:           db,
		deploymentId: deploymentId,
		batchWorkers: batchWorkers,
		maxBatchSize: maxBatchSize,
	}
}

func (s *PredictionService) AddRoutes(r chi.Router) {
	r.Get("/health", RestHandler(func(r *http.Request) (any, error) { return nil, nil }))
	r.Get("/features", RestHandler(s.ListFeatures))
	r.Get("/form/reset", RestHandler(s.ResetForm))
	r.Route("/predict", func(r chi.Router) {
		r.Post("/", RestHandler(s.Predict))
		r.Get("/", RestHandler(s.PredictQuery))
		r.Post("/batch", RestHandler(s.PredictBatch))
	})
	r.Get("/model", RestHandler(s.GetModel))
}

func (s *PredictionService) ListFeatures(r *http.Request) (any, error) {
	return convertFeatureSpecs(), nil
}

// ResetForm returns the form with every field at its default. It never runs inference.
func (s *PredictionService) ResetForm(r *http.Request) (any, error) {
	var fields [types.NumFeatures]*float64
	for i, spec := range types.FeatureSpecs {
		value := spec.Default
		fields[i] = &value
	}
	return api.FormResponse{Values: api.PredictRequestFromFields(fields)}, nil
}

func (s *PredictionService) Predict(r *http.Request) (any, error) {
	req, err := ParseRequest[api.PredictRequest](r)
	if err != nil {
		return nil, err
	}
	return s.predict(r.Context(), req)
}

func (s *PredictionService) PredictQuery(r *http.Request) (any, error) {
	req, err := ParseRequestQueryParams[api.PredictRequest](r)
	if err != nil {
		return nil, err
	}
	return s.predict(r.Context(), req)
}

func (s *PredictionService) predict(ctx context.Context, req api.PredictRequest) (api.PredictResponse, error) {
	raw, err := toPartialVector(req).Complete()
	if err != nil {
		if errors.Is(err, types.ErrInvalidInput) {
			return api.PredictResponse{}, CodedError(http.StatusBadRequest, err)
		}
		return api.PredictResponse{}, CodedError(http.StatusUnprocessableEntity, err)
	}

	res, err := s.predictor.Predict(ctx, raw)
	if err != nil {
		if errors.Is(err, types.ErrInvalidInput) {
			return api.PredictResponse{}, CodedError(http.StatusBadRequest, err)
		}
		if errors.Is(err, core.ErrInvalidPrediction) {
			return api.PredictResponse{}, CodedErrorf(http.StatusInternalServerError, "model returned an invalid prediction")
		}
		slog.Error("error running prediction", "error", err)
		return api.PredictResponse{}, CodedErrorf(http.StatusInternalServerError, "error running prediction")
	}

	return convertPrediction(res), nil
}

func (s *PredictionService) PredictBatch(r *http.Request) (any, error) {
	req, err := ParseRequest[api.BatchPredictRequest](r)
	if err != nil {
		return nil, err
	}

	if len(req.Items) == 0 {
		return nil, CodedErrorf(http.StatusBadRequest, "batch must contain at least one item")
	}
	if len(req.Items) > s.maxBatchSize {
		return nil, CodedErrorf(http.StatusRequestEntityTooLarge, "batch of %d items exceeds the limit of %d", len(req.Items), s.maxBatchSize)
	}

	ctx := r.Context()

	worker := func(item api.PredictRequest) (api.PredictResponse, error) {
		return s.predict(ctx, item)
	}

	completed := utils.RunOrdered(req.Items, worker, s.batchWorkers)

	results := make([]api.BatchPredictResult, len(completed))
	for i, task := range completed {
		results[i] = api.BatchPredictResult{Index: i}
		if task.Error != nil {
			results[i].Error = task.Error.Error()
			var incomplete *types.IncompleteInputError
			if errors.As(task.Error, &incomplete) {
				results[i].Error = types.IncompleteInputMessage
				results[i].Missing = incomplete.Missing
			}
			continue
		}
		prediction := task.Result
		results[i].Prediction = &prediction
	}

	return api.BatchPredictResponse{Results: results}, nil
}

type modelQuery struct {
	History int `schema:"history"`
}

// GetModel reports the deployment this process loaded. ?history=N also lists the N most
// recent deployments in the registry, across all replicas.
func (s *PredictionService) GetModel(r *http.Request) (any, error) {
	query, err := ParseRequestQueryParams[modelQuery](r)
	if err != nil {
		return nil, err
	}
	if query.History < 0 || query.History > maxModelHistory {
		return nil, CodedErrorf(http.StatusBadRequest, "history must be between 0 and %d", maxModelHistory)
	}

	if s.db == nil || s.deploymentId == uuid.Nil {
		return nil, CodedErrorf(http.StatusNotFound, "no deployment registry configured")
	}

	deployment, err := database.GetDeployment(r.Context(), s.db, s.deploymentId)
	if err != nil {
		if errors.Is(err, database.ErrNoDeployment) {
			return nil, CodedErrorf(http.StatusNotFound, "deployment %s not found", s.deploymentId)
		}
		slog.Error("error loading deployment", "deployment_id", s.deploymentId, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error loading model info")
	}

	info := convertDeployment(*deployment)

	if query.History > 0 {
		history, err := database.ListDeployments(r.Context(), s.db, query.History)
		if err != nil {
			slog.Error("error listing deployments", "error", err)
			return nil, CodedErrorf(http.StatusInternalServerError, "error loading deployment history")
		}
		info.History = make([]api.ModelInfo, 0, len(history))
		for _, d := range history {
			info.History = append(info.History, convertDeployment(d))
		}
	}

	return info, nil
}
