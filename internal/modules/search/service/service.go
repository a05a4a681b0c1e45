package service

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"anoa.com/tutorhub/internal/entity"
	"anoa.com/tutorhub/pkg/logger"
	"github.com/google/uuid"
	"github.com/meilisearch/meilisearch-go"
	"github.com/microcosm-cc/bluemonday"
)

const resourcesIndex = "resources"

// ResourceIndex keeps the full-text index of resources in sync and queries it.
type ResourceIndex interface {
	IndexResource(ctx context.Context, resource *entity.Resource) error
	DeleteResources(ctx context.Context, ids []uuid.UUID) error
	Search(ctx context.Context, ownerID uuid.UUID, query string, limit int) ([]uuid.UUID, error)
}

type meiliSearchService struct {
	client    meilisearch.ServiceManager
	sanitizer *bluemonday.Policy
	log       *logger.Logger
}

func NewMeiliSearchService(client meilisearch.ServiceManager, log *logger.Logger) ResourceIndex {
	s := &meiliSearchService{
		client:    client,
		sanitizer: bluemonday.StrictPolicy(),
		log:       log,
	}
	s.initIndexes()
	return s
}

func (s *meiliSearchService) initIndexes() {
	filterableAttrs := []string{"owner_id", "type", "subject"}
	filterableInterface := make([]any, len(filterableAttrs))
	for i, v := range filterableAttrs {
		filterableInterface[i] = v
	}
	if _, err := s.client.Index(resourcesIndex).UpdateFilterableAttributes(&filterableInterface); err != nil {
		s.log.Warn("failed to update resources filterable attributes", "error", err)
	}

	sortableAttrs := []string{"created_at"}
	if _, err := s.client.Index(resourcesIndex).UpdateSortableAttributes(&sortableAttrs); err != nil {
		s.log.Warn("failed to update resources sortable attributes", "error", err)
	}
}

type meiliResourceDoc struct {
	ID          string `json:"id"`
	OwnerID     string `json:"owner_id"`
	Title       string `json:"title"`
	Subject     string `json:"subject"`
	Type        string `json:"type"`
	Description string `json:"description"`
	FileName    string `json:"file_name,omitempty"`
	CreatedAt   int64  `json:"created_at"`
}

func (s *meiliSearchService) cleanContentForIndex(content string) string {
	sanitized := s.sanitizer.Sanitize(content)
	cleanText := html.UnescapeString(sanitized)
	return strings.Join(strings.Fields(cleanText), " ")
}

func (s *meiliSearchService) IndexResource(_ context.Context, resource *entity.Resource) error {
	doc := meiliResourceDoc{
		ID:          resource.ID.String(),
		OwnerID:     resource.OwnerID.String(),
		Title:       s.cleanContentForIndex(resource.Title),
		Subject:     resource.Subject,
		Type:        resource.Type,
		Description: s.cleanContentForIndex(resource.Description),
		CreatedAt:   resource.CreatedAt.Unix(),
	}
	if resource.StoredName != nil {
		doc.FileName = *resource.StoredName
	}

	task, err := s.client.Index(resourcesIndex).AddDocuments([]meiliResourceDoc{doc}, strPtr("id"))
	if err != nil {
		return err
	}
	s.log.Debug("indexed resource", "resource_id", resource.ID, "task_uid", task.TaskUID)
	return nil
}

func (s *meiliSearchService) DeleteResources(_ context.Context, ids []uuid.UUID) error {
	var firstErr error
	for _, id := range ids {
		if _, err := s.client.Index(resourcesIndex).DeleteDocument(id.String()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *meiliSearchService) Search(_ context.Context, ownerID uuid.UUID, query string, limit int) ([]uuid.UUID, error) {
	resp, err := s.client.Index(resourcesIndex).Search(query, &meilisearch.SearchRequest{
		Filter: fmt.Sprintf("owner_id = '%s'", ownerID.String()),
		Limit:  int64(limit),
	})
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(resp.Hits)
	if err != nil {
		return nil, err
	}
	var hits []struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &hits); err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(hits))
	for _, h := range hits {
		if id, err := uuid.Parse(h.ID); err == nil {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func strPtr(s string) *string {
	return &s
}
