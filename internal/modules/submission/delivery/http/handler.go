package handler

import (
	"net/http"

	"anoa.com/tutorhub/internal/modules/submission/dto"
	"anoa.com/tutorhub/internal/modules/submission/service"
	"anoa.com/tutorhub/pkg/apperror"
	"anoa.com/tutorhub/pkg/response"
	"anoa.com/tutorhub/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type SubmissionHandler struct {
	submissionService service.SubmissionService
}

func NewSubmissionHandler(submissionService service.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{submissionService: submissionService}
}

func (h *SubmissionHandler) Submit(c *gin.Context) {
	learnerID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	assignmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, apperror.ErrNotFound)
		return
	}

	var input dto.SubmitInput
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBind(&input); err != nil {
			response.ResponseError(c, validator.FromBinding(err))
			return
		}
	}

	submission, err := h.submissionService.Submit(c.Request.Context(), learnerID, assignmentID, input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Submission received.", "data": submission})
}

func (h *SubmissionHandler) Grade(c *gin.Context) {
	tutorID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	submissionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, apperror.ErrNotFound)
		return
	}

	var input dto.GradeInput
	if err := c.ShouldBind(&input); err != nil {
		response.ResponseError(c, validator.FromBinding(err))
		return
	}

	result, err := h.submissionService.Grade(c.Request.Context(), tutorID, submissionID, input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Submission graded.", "data": result})
}

func (h *SubmissionHandler) ListForAssignment(c *gin.Context) {
	tutorID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	assignmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, apperror.ErrNotFound)
		return
	}

	rows, err := h.submissionService.ListForAssignment(c.Request.Context(), tutorID, assignmentID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": rows})
}

func (h *SubmissionHandler) ListMine(c *gin.Context) {
	learnerID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	rows, err := h.submissionService.ListMine(c.Request.Context(), learnerID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": rows})
}
