package handler

import (
	"net/http"

	"anoa.com/tutorhub/internal/modules/dashboard/dto"
	"anoa.com/tutorhub/internal/modules/dashboard/service"
	"anoa.com/tutorhub/pkg/response"
	"anoa.com/tutorhub/pkg/validator"
	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	dashboardService service.DashboardService
}

func NewDashboardHandler(dashboardService service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// TutorDashboard serves both GET (limits in the query string) and POST
// (limits in the body).
func (h *DashboardHandler) TutorDashboard(c *gin.Context) {
	tutorID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var query dto.TutorQuery
	if c.Request.Method == http.MethodPost && c.Request.ContentLength != 0 {
		err = c.ShouldBind(&query)
	} else {
		err = c.ShouldBindQuery(&query)
	}
	if err != nil {
		response.ResponseError(c, validator.FromBinding(err))
		return
	}

	dashboard, err := h.dashboardService.TutorDashboard(c.Request.Context(), tutorID, query)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, dashboard)
}

func (h *DashboardHandler) LearnerDashboard(c *gin.Context) {
	learnerID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	dashboard, err := h.dashboardService.LearnerDashboard(c.Request.Context(), learnerID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, dashboard)
}
