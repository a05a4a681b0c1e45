package handler

import (
	"net/http"

	profileDto "anoa.com/tutorhub/internal/modules/profile/dto"
	profile "anoa.com/tutorhub/internal/modules/profile/service"
	"anoa.com/tutorhub/internal/session"
	"anoa.com/tutorhub/pkg/response"
	"anoa.com/tutorhub/pkg/validator"
	"github.com/gin-gonic/gin"
)

type ProfileHandler struct {
	profileService profile.ProfileService
	sessions       *session.Manager
}

func NewProfileHandler(profileService profile.ProfileService, sessions *session.Manager) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
		sessions:       sessions,
	}
}

func (h *ProfileHandler) GetCurrentProfile(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	res, err := h.profileService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var input profileDto.UpdateProfileInput
	if err := c.ShouldBind(&input); err != nil {
		response.ResponseError(c, validator.FromBinding(err))
		return
	}

	res, err := h.profileService.UpdateProfile(c.Request.Context(), userID, input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Profile updated.", "profile": res})
}

func (h *ProfileHandler) ChangePassword(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var input profileDto.ChangePasswordInput
	if err := c.ShouldBind(&input); err != nil {
		response.ResponseError(c, validator.FromBinding(err))
		return
	}

	if err := h.profileService.ChangePassword(c.Request.Context(), userID, input); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password updated."})
}

func (h *ProfileHandler) DeleteAccount(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var input profileDto.DeleteAccountInput
	if err := c.ShouldBind(&input); err != nil {
		response.ResponseError(c, validator.FromBinding(err))
		return
	}

	res, err := h.profileService.DeleteAccount(c.Request.Context(), userID, input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	h.sessions.ClearAuthCookies(c)
	c.JSON(http.StatusOK, gin.H{"message": "Your account has been deleted.", "result": res})
}
