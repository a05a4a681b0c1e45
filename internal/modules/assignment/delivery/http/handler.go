package handler

import (
	"net/http"

	"anoa.com/tutorhub/internal/modules/assignment/dto"
	"anoa.com/tutorhub/internal/modules/assignment/service"
	"anoa.com/tutorhub/pkg/apperror"
	"anoa.com/tutorhub/pkg/response"
	"anoa.com/tutorhub/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AssignmentHandler struct {
	assignmentService service.AssignmentService
}

func NewAssignmentHandler(assignmentService service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{assignmentService: assignmentService}
}

func (h *AssignmentHandler) ListAssignments(c *gin.Context) {
	tutorID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	page, err := h.assignmentService.ListAssignments(c.Request.Context(), tutorID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

func (h *AssignmentHandler) CreateAssignment(c *gin.Context) {
	tutorID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var input dto.CreateAssignmentInput
	if err := c.ShouldBind(&input); err != nil {
		response.ResponseError(c, validator.FromBinding(err))
		return
	}

	assignment, err := h.assignmentService.CreateAssignment(c.Request.Context(), tutorID, input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Assignment created.", "data": assignment})
}

func (h *AssignmentHandler) DeleteAssignment(c *gin.Context) {
	tutorID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, apperror.ErrNotFound)
		return
	}

	if err := h.assignmentService.DeleteAssignment(c.Request.Context(), tutorID, id); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Assignment deleted."})
}
