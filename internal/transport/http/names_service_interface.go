package http

import (
	"context"

	"namefinder/internal/services"
	"namefinder/pkg/contracts/domain"
)

// NamesServiceInterface defines the query operations served over HTTP
type NamesServiceInterface interface {
	Profile(ctx context.Context, req services.ProfileRequest) (services.Result[services.ProfileRequest, *domain.NameProfile], error)
	Search(ctx context.Context, req services.SearchRequest) (services.Result[services.SearchRequest, []services.SearchResult], error)
	Peaks(ctx context.Context, req services.PeaksRequest) (services.Result[services.PeaksRequest, []services.PeakRow], error)
	PredictGender(ctx context.Context, req services.GenderRequest) (services.Result[services.GenderRequest, domain.GenderPrediction], error)
	PredictAge(ctx context.Context, req services.AgeRequest) (services.Result[services.AgeRequest, *domain.AgePrediction], error)
	PredictGenderBatch(ctx context.Context, req services.GenderBatchRequest) (services.Result[services.GenderBatchParams, []domain.GenderBatchResult], error)
	PredictAgeBatch(ctx context.Context, req services.AgeBatchRequest) (services.Result[services.AgeBatchParams, []domain.AgeBatchResult], error)
}
