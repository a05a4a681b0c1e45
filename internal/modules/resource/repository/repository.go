package repository

import (
	"context"
	"strings"

	"anoa.com/tutorhub/internal/entity"
	activityRepo "anoa.com/tutorhub/internal/modules/activity/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ResourceRepository interface {
	// CreateBatch inserts all resources in one transaction.
	CreateBatch(ctx context.Context, resources []*entity.Resource) error
	FindOwned(ctx context.Context, ownerID, id uuid.UUID) (*entity.Resource, error)
	FindByStoredName(ctx context.Context, name string) (*entity.Resource, error)
	FindByIDs(ctx context.Context, ownerID uuid.UUID, ids []uuid.UUID) ([]entity.Resource, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]entity.Resource, error)
	Search(ctx context.Context, ownerID uuid.UUID, query string, limit int) ([]entity.Resource, error)
	StoredNameExists(ctx context.Context, name string) (bool, error)
}

type resourceRepository struct {
	db       *gorm.DB
	activity activityRepo.ActivityRepository
}

func NewResourceRepository(db *gorm.DB, activity activityRepo.ActivityRepository) ResourceRepository {
	return &resourceRepository{db: db, activity: activity}
}

func (r *resourceRepository) CreateBatch(ctx context.Context, resources []*entity.Resource) error {
	if len(resources) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, res := range resources {
			if err := tx.Omit("Owner").Create(res).Error; err != nil {
				return err
			}
			if err := r.activity.Log(ctx, tx, res.OwnerID, activityRepo.ActionResourceAdded); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *resourceRepository) FindOwned(ctx context.Context, ownerID, id uuid.UUID) (*entity.Resource, error) {
	var res entity.Resource
	if err := r.db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, ownerID).First(&res).Error; err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *resourceRepository) FindByStoredName(ctx context.Context, name string) (*entity.Resource, error) {
	var res entity.Resource
	err := r.db.WithContext(ctx).
		Where("stored_name = ? AND type = ?", name, entity.ResourceTypeFile).
		First(&res).Error
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// FindByIDs keeps the order of ids, which is the search ranking.
func (r *resourceRepository) FindByIDs(ctx context.Context, ownerID uuid.UUID, ids []uuid.UUID) ([]entity.Resource, error) {
	if len(ids) == 0 {
		return []entity.Resource{}, nil
	}

	var rows []entity.Resource
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND id IN ?", ownerID, ids).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]entity.Resource, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}
	ordered := make([]entity.Resource, 0, len(rows))
	for _, id := range ids {
		if row, ok := byID[id]; ok {
			ordered = append(ordered, row)
		}
	}
	return ordered, nil
}

func (r *resourceRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]entity.Resource, error) {
	var rows []entity.Resource
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&rows).Error
	return rows, err
}

func (r *resourceRepository) Search(ctx context.Context, ownerID uuid.UUID, query string, limit int) ([]entity.Resource, error) {
	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"

	var rows []entity.Resource
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Where(
			r.db.Where("LOWER(title) LIKE ? ESCAPE '\\'", pattern).
				Or("LOWER(description) LIKE ? ESCAPE '\\'", pattern).
				Or("LOWER(subject) LIKE ? ESCAPE '\\'", pattern),
		).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *resourceRepository) StoredNameExists(ctx context.Context, name string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Resource{}).
		Where("stored_name = ?", name).
		Count(&count).Error
	return count > 0, err
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
