package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"anoa.com/tutorhub/internal/entity"
	"anoa.com/tutorhub/pkg/logger"
	"github.com/google/uuid"
	"github.com/meilisearch/meilisearch-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeMeili implements the parts of the client this package calls; any
// other method panics through the nil embedded interface.
type fakeMeili struct {
	meilisearch.ServiceManager
	indexes map[string]*fakeIndex
}

func newFakeMeili() *fakeMeili {
	return &fakeMeili{indexes: map[string]*fakeIndex{}}
}

func (m *fakeMeili) Index(uid string) meilisearch.IndexManager {
	idx, ok := m.indexes[uid]
	if !ok {
		idx = &fakeIndex{docs: map[string]meiliResourceDoc{}}
		m.indexes[uid] = idx
	}
	return idx
}

type fakeIndex struct {
	meilisearch.IndexManager
	docs       map[string]meiliResourceDoc
	filterable []interface{}
	sortable   []string
	filters    []string
	searchErr  error
}

func (i *fakeIndex) UpdateFilterableAttributes(request *[]interface{}) (*meilisearch.TaskInfo, error) {
	i.filterable = *request
	return &meilisearch.TaskInfo{}, nil
}

func (i *fakeIndex) UpdateSortableAttributes(request *[]string) (*meilisearch.TaskInfo, error) {
	i.sortable = *request
	return &meilisearch.TaskInfo{}, nil
}

func (i *fakeIndex) AddDocuments(documentsPtr interface{}, primaryKey *string) (*meilisearch.TaskInfo, error) {
	raw, err := json.Marshal(documentsPtr)
	if err != nil {
		return nil, err
	}
	var docs []meiliResourceDoc
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, err
	}
	for _, d := range docs {
		i.docs[d.ID] = d
	}
	return &meilisearch.TaskInfo{TaskUID: int64(len(i.docs))}, nil
}

func (i *fakeIndex) DeleteDocument(identifier string) (*meilisearch.TaskInfo, error) {
	delete(i.docs, identifier)
	return &meilisearch.TaskInfo{}, nil
}

func (i *fakeIndex) Search(query string, request *meilisearch.SearchRequest) (*meilisearch.SearchResponse, error) {
	if i.searchErr != nil {
		return nil, i.searchErr
	}
	filter, _ := request.Filter.(string)
	i.filters = append(i.filters, filter)

	q := strings.ToLower(query)
	hits := meilisearch.Hits{}
	for _, d := range i.docs {
		if !strings.Contains(filter, d.OwnerID) {
			continue
		}
		if !strings.Contains(strings.ToLower(d.Title+" "+d.Description), q) {
			continue
		}
		id, _ := json.Marshal(d.ID)
		hits = append(hits, meilisearch.Hit{"id": id})
		if request.Limit > 0 && int64(len(hits)) == request.Limit {
			break
		}
	}
	return &meilisearch.SearchResponse{Hits: hits}, nil
}

func resource(owner uuid.UUID, title, description string) *entity.Resource {
	return &entity.Resource{
		ID:          uuid.New(),
		OwnerID:     owner,
		Title:       title,
		Description: description,
		Subject:     "Maths",
		Type:        entity.ResourceTypeLink,
		CreatedAt:   time.Now(),
	}
}

func TestNewMeiliSearchServiceConfiguresIndex(t *testing.T) {
	client := newFakeMeili()
	NewMeiliSearchService(client, logger.Nop())

	idx := client.indexes[resourcesIndex]
	require.NotNil(t, idx)
	assert.Contains(t, idx.filterable, "owner_id")
	assert.Equal(t, []string{"created_at"}, idx.sortable)
}

func TestIndexSearchDelete(t *testing.T) {
	client := newFakeMeili()
	index := NewMeiliSearchService(client, logger.Nop())
	ctx := context.Background()

	owner, other := uuid.New(), uuid.New()
	algebra := resource(owner, "<b>Algebra</b>   basics", "<script>alert(1)</script>linear equations")
	poetry := resource(owner, "Poetry", "sonnets")
	foreign := resource(other, "Algebra tricks", "")
	for _, r := range []*entity.Resource{algebra, poetry, foreign} {
		require.NoError(t, index.IndexResource(ctx, r))
	}

	stored := client.indexes[resourcesIndex].docs[algebra.ID.String()]
	assert.Equal(t, "Algebra basics", stored.Title)
	assert.Equal(t, "linear equations", stored.Description)
	assert.Equal(t, owner.String(), stored.OwnerID)

	ids, err := index.Search(ctx, owner, "algebra", 10)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{algebra.ID}, ids)
	assert.Equal(t, "owner_id = '"+owner.String()+"'", client.indexes[resourcesIndex].filters[0])

	require.NoError(t, index.DeleteResources(ctx, []uuid.UUID{algebra.ID, poetry.ID}))
	ids, err = index.Search(ctx, owner, "algebra", 10)
	require.NoError(t, err)
	assert.Empty(t, ids)

	ids, err = index.Search(ctx, other, "algebra", 10)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{foreign.ID}, ids)
}

func TestSearchReturnsClientError(t *testing.T) {
	client := newFakeMeili()
	index := NewMeiliSearchService(client, logger.Nop())
	client.indexes[resourcesIndex].searchErr = errors.New("meilisearch unavailable")

	_, err := index.Search(context.Background(), uuid.New(), "algebra", 10)
	assert.EqualError(t, err, "meilisearch unavailable")
}
