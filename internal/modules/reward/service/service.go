package service

import (
	"context"
	"net/http"
	"strings"

	"anoa.com/tutorhub/internal/entity"
	"anoa.com/tutorhub/internal/modules/reward/dto"
	rewardRepo "anoa.com/tutorhub/internal/modules/reward/repository"
	"anoa.com/tutorhub/pkg/apperror"
	"anoa.com/tutorhub/pkg/database"
	"anoa.com/tutorhub/pkg/logger"
	"anoa.com/tutorhub/pkg/validator"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
)

type RewardService interface {
	ListRewards(ctx context.Context, userID uuid.UUID) ([]dto.RewardStatus, error)
	CreateReward(ctx context.Context, input dto.CreateRewardInput) (*entity.Reward, error)
}

type rewardService struct {
	repo      rewardRepo.RewardRepository
	sanitizer *bluemonday.Policy
	log       *logger.Logger
}

func NewRewardService(repo rewardRepo.RewardRepository, log *logger.Logger) RewardService {
	return &rewardService{
		repo:      repo,
		sanitizer: bluemonday.StrictPolicy(),
		log:       log,
	}
}

func (s *rewardService) ListRewards(ctx context.Context, userID uuid.UUID) ([]dto.RewardStatus, error) {
	rewards, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperror.Storage(err)
	}
	earned, err := s.repo.EarnedBy(ctx, nil, userID)
	if err != nil {
		return nil, apperror.Storage(err)
	}

	earnedAt := make(map[uuid.UUID]dto.RewardStatus, len(earned))
	for _, e := range earned {
		at := e.EarnedAt
		earnedAt[e.RewardID] = dto.RewardStatus{Earned: true, EarnedAt: &at}
	}

	out := make([]dto.RewardStatus, 0, len(rewards))
	for _, reward := range rewards {
		status := earnedAt[reward.ID]
		status.Reward = reward
		out = append(out, status)
	}
	return out, nil
}

func (s *rewardService) CreateReward(ctx context.Context, input dto.CreateRewardInput) (*entity.Reward, error) {
	input.Title = strings.TrimSpace(s.sanitizer.Sanitize(input.Title))
	input.Description = strings.TrimSpace(s.sanitizer.Sanitize(input.Description))
	if err := validator.Struct(input); err != nil {
		return nil, err
	}

	reward := &entity.Reward{
		Title:       input.Title,
		Description: input.Description,
		Criteria:    input.Criteria,
	}
	if err := s.repo.Create(ctx, reward); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperror.New(http.StatusConflict, "a reward with this title already exists", err)
		}
		return nil, apperror.Storage(err)
	}

	s.log.Info("reward created", "reward_id", reward.ID, "criteria", reward.Criteria)
	return reward, nil
}
