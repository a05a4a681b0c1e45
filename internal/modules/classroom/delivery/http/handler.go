package handler

import (
	"net/http"

	"anoa.com/tutorhub/internal/entity"
	"anoa.com/tutorhub/internal/modules/classroom/dto"
	"anoa.com/tutorhub/internal/modules/classroom/service"
	"anoa.com/tutorhub/pkg/apperror"
	"anoa.com/tutorhub/pkg/response"
	"anoa.com/tutorhub/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ClassHandler struct {
	classService service.ClassService
}

func NewClassHandler(classService service.ClassService) *ClassHandler {
	return &ClassHandler{classService: classService}
}

func (h *ClassHandler) ListClasses(c *gin.Context) {
	tutorID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	classes, err := h.classService.ListClasses(c.Request.Context(), tutorID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": classes})
}

// NewClassForm returns the bounds the create form needs.
func (h *ClassHandler) NewClassForm(c *gin.Context) {
	c.JSON(http.StatusOK, dto.NewClassForm{
		MinYearGroup: entity.MinYearGroup,
		MaxYearGroup: entity.MaxYearGroup,
	})
}

func (h *ClassHandler) CreateClass(c *gin.Context) {
	tutorID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var input dto.CreateClassInput
	if err := c.ShouldBind(&input); err != nil {
		response.ResponseError(c, validator.FromBinding(err))
		return
	}

	class, err := h.classService.CreateClass(c.Request.Context(), tutorID, input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Class created.", "data": class})
}

func (h *ClassHandler) Enroll(c *gin.Context) {
	tutorID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	classID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, apperror.ErrNotFound)
		return
	}

	var input dto.EnrollInput
	if err := c.ShouldBind(&input); err != nil {
		response.ResponseError(c, validator.FromBinding(err))
		return
	}

	enrollment, err := h.classService.Enroll(c.Request.Context(), tutorID, classID, input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Learner enrolled.", "data": enrollment})
}

func (h *ClassHandler) Unenroll(c *gin.Context) {
	tutorID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	classID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, apperror.ErrNotFound)
		return
	}
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		response.ResponseError(c, apperror.ErrNotFound)
		return
	}

	if err := h.classService.Unenroll(c.Request.Context(), tutorID, classID, userID); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Learner removed from class."})
}

func (h *ClassHandler) Students(c *gin.Context) {
	tutorID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	classID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, apperror.ErrNotFound)
		return
	}

	students, err := h.classService.Students(c.Request.Context(), tutorID, classID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": students})
}

func (h *ClassHandler) LearnerClasses(c *gin.Context) {
	learnerID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	classes, err := h.classService.ListLearnerClasses(c.Request.Context(), learnerID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": classes})
}
