package service

import (
	"context"
	"encoding/json"
	"fmt"

	"anoa.com/tutorhub/internal/entity"
	"anoa.com/tutorhub/internal/modules/notification/dto"
	notifRepo "anoa.com/tutorhub/internal/modules/notification/repository"
	"anoa.com/tutorhub/pkg/apperror"
	"anoa.com/tutorhub/pkg/logger"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultPageSize = 20

type NotificationService interface {
	Notify(ctx context.Context, events ...dto.Event)
	GetNotifications(ctx context.Context, userID uuid.UUID, query dto.ListQuery) ([]entity.Notification, error)
	MarkAsRead(ctx context.Context, userID, id uuid.UUID) error
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) error
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
}

type notificationService struct {
	repo        notifRepo.NotificationRepository
	redisClient *redis.Client
	log         *logger.Logger
}

func NewNotificationService(repo notifRepo.NotificationRepository, redisClient *redis.Client, log *logger.Logger) NotificationService {
	return &notificationService{
		repo:        repo,
		redisClient: redisClient,
		log:         log,
	}
}

// Channel is the Redis pub/sub channel carrying a user's notifications.
func Channel(userID string) string {
	return fmt.Sprintf("user_notifications:%s", userID)
}

// Notify stores and publishes each event. Notifications are a side effect of
// already committed work, so failures are logged rather than returned.
func (s *notificationService) Notify(ctx context.Context, events ...dto.Event) {
	for _, ev := range events {
		n := &entity.Notification{
			UserID:     ev.UserID,
			Type:       ev.Type,
			Message:    ev.Message,
			EntityType: ev.EntityType,
			EntityID:   ev.EntityID,
		}
		if err := s.repo.Create(ctx, n); err != nil {
			s.log.Warn("failed to store notification", "user_id", ev.UserID, "type", ev.Type, "error", err)
			continue
		}

		if s.redisClient == nil {
			continue
		}
		payload, err := json.Marshal(n)
		if err != nil {
			continue
		}
		if err := s.redisClient.Publish(ctx, Channel(n.UserID.String()), payload).Err(); err != nil {
			s.log.Warn("failed to publish notification", "user_id", ev.UserID, "error", err)
		}
	}
}

func (s *notificationService) GetNotifications(ctx context.Context, userID uuid.UUID, query dto.ListQuery) ([]entity.Notification, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	items, err := s.repo.GetByUserID(ctx, userID, limit, query.Offset)
	if err != nil {
		return nil, apperror.Storage(err)
	}
	return items, nil
}

func (s *notificationService) MarkAsRead(ctx context.Context, userID, id uuid.UUID) error {
	ok, err := s.repo.MarkAsRead(ctx, userID, id)
	if err != nil {
		return apperror.Storage(err)
	}
	if !ok {
		return apperror.ErrNotFound
	}
	return nil
}

func (s *notificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	if err := s.repo.MarkAllAsRead(ctx, userID); err != nil {
		return apperror.Storage(err)
	}
	return nil
}

func (s *notificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	n, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, apperror.Storage(err)
	}
	return n, nil
}
