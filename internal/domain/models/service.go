package models

import (
	"context"
	"errors"
	"sort"

	domainreplicate "swiftask/services/replicate-tools/internal/domain/replicate"
)

// ErrNoUpdates is returned when an update request carries no fields at all.
var ErrNoUpdates = errors.New("no update fields provided")

const defaultLimit = 20

// Client defines the model catalog operations required by the domain layer.
type Client interface {
	ListModels(ctx context.Context, limit int, cursor string) (*domainreplicate.Page[domainreplicate.Model], error)
	SearchModels(ctx context.Context, query string, limit int) (*domainreplicate.Page[domainreplicate.Model], error)
	GetModel(ctx context.Context, owner, name string) (*domainreplicate.Model, error)
	CreateModel(ctx context.Context, req domainreplicate.CreateModelRequest) (*domainreplicate.Model, error)
	UpdateModel(ctx context.Context, owner, name string, req domainreplicate.UpdateModelRequest) (*domainreplicate.Model, error)
	DeleteModel(ctx context.Context, owner, name string) error
	ListModelVersions(ctx context.Context, owner, name, cursor string) (*domainreplicate.Page[domainreplicate.ModelVersion], error)
	GetModelVersion(ctx context.Context, owner, name, versionID string) (*domainreplicate.ModelVersion, error)
}

// Cache caches fetched model metadata keyed by owner/name.
type Cache interface {
	Get(owner, name string) (*domainreplicate.Model, bool)
	Add(owner, name string, model *domainreplicate.Model)
	Remove(owner, name string)
}

// ModelService orchestrates model catalog operations.
type ModelService struct {
	client Client
	cache  Cache
}

// NewModelService creates a new model service. The cache may be nil when
// model caching is disabled.
func NewModelService(client Client, cache Cache) *ModelService {
	return &ModelService{
		client: client,
		cache:  cache,
	}
}

// List returns a page of models from the catalog.
func (s *ModelService) List(ctx context.Context, req ListRequest) (*domainreplicate.Page[domainreplicate.Model], error) {
	limit := defaultLimit
	if req.Limit != nil && *req.Limit > 0 {
		limit = *req.Limit
	}
	cursor := ""
	if req.Cursor != nil {
		cursor = *req.Cursor
	}
	return s.client.ListModels(ctx, limit, cursor)
}

// Search returns models matching a free-text query.
func (s *ModelService) Search(ctx context.Context, req SearchRequest) (*domainreplicate.Page[domainreplicate.Model], error) {
	limit := defaultLimit
	if req.Limit != nil && *req.Limit > 0 {
		limit = *req.Limit
	}
	return s.client.SearchModels(ctx, req.Query, limit)
}

// Get fetches a single model, serving from the cache when possible.
func (s *ModelService) Get(ctx context.Context, owner, name string) (*domainreplicate.Model, error) {
	if s.cache != nil {
		if model, ok := s.cache.Get(owner, name); ok {
			return model, nil
		}
	}

	model, err := s.client.GetModel(ctx, owner, name)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Add(owner, name, model)
	}
	return model, nil
}

// Create registers a new model under the authenticated account.
func (s *ModelService) Create(ctx context.Context, req domainreplicate.CreateModelRequest) (*domainreplicate.Model, error) {
	return s.client.CreateModel(ctx, req)
}

// Update patches model metadata. An update with no fields is rejected
// before any API call is made.
func (s *ModelService) Update(ctx context.Context, owner, name string, req domainreplicate.UpdateModelRequest) (*domainreplicate.Model, error) {
	if req.IsEmpty() {
		return nil, ErrNoUpdates
	}

	model, err := s.client.UpdateModel(ctx, owner, name, req)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Remove(owner, name)
	}
	return model, nil
}

// Delete removes a model permanently.
func (s *ModelService) Delete(ctx context.Context, owner, name string) error {
	if err := s.client.DeleteModel(ctx, owner, name); err != nil {
		return err
	}

	if s.cache != nil {
		s.cache.Remove(owner, name)
	}
	return nil
}

// ListVersions returns the published versions of a model.
func (s *ModelService) ListVersions(ctx context.Context, req ListVersionsRequest) (*domainreplicate.Page[domainreplicate.ModelVersion], error) {
	cursor := ""
	if req.Cursor != nil {
		cursor = *req.Cursor
	}
	return s.client.ListModelVersions(ctx, req.Owner, req.Name, cursor)
}

// GetVersion fetches a single model version by id.
func (s *ModelService) GetVersion(ctx context.Context, owner, name, versionID string) (*domainreplicate.ModelVersion, error) {
	return s.client.GetModelVersion(ctx, owner, name, versionID)
}

// ListPopular returns models ordered by run count, most-run first.
func (s *ModelService) ListPopular(ctx context.Context, req ListPopularRequest) ([]domainreplicate.Model, error) {
	limit := defaultLimit
	if req.Limit != nil && *req.Limit > 0 {
		limit = *req.Limit
	}

	page, err := s.client.ListModels(ctx, limit, "")
	if err != nil {
		return nil, err
	}

	ranked := make([]domainreplicate.Model, len(page.Results))
	copy(ranked, page.Results)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].RunCount > ranked[j].RunCount
	})
	return ranked, nil
}
