package handler

import (
	"net/http"

	"anoa.com/tutorhub/internal/modules/reward/dto"
	"anoa.com/tutorhub/internal/modules/reward/service"
	"anoa.com/tutorhub/pkg/response"
	"anoa.com/tutorhub/pkg/validator"
	"github.com/gin-gonic/gin"
)

type RewardHandler struct {
	rewardService service.RewardService
}

func NewRewardHandler(rewardService service.RewardService) *RewardHandler {
	return &RewardHandler{rewardService: rewardService}
}

func (h *RewardHandler) ListRewards(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	rewards, err := h.rewardService.ListRewards(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": rewards})
}

func (h *RewardHandler) CreateReward(c *gin.Context) {
	var input dto.CreateRewardInput
	if err := c.ShouldBind(&input); err != nil {
		response.ResponseError(c, validator.FromBinding(err))
		return
	}

	reward, err := h.rewardService.CreateReward(c.Request.Context(), input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Reward created.", "data": reward})
}
