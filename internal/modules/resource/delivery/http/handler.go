package handler

import (
	"errors"
	"net/http"
	"os"

	"anoa.com/tutorhub/internal/modules/resource/dto"
	"anoa.com/tutorhub/internal/modules/resource/service"
	"anoa.com/tutorhub/pkg/apperror"
	"anoa.com/tutorhub/pkg/response"
	"anoa.com/tutorhub/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

type ResourceHandler struct {
	resourceService service.ResourceService
	maxBodyBytes    int64
}

// NewResourceHandler limits upload request bodies to maxBodyBytes when it is
// positive.
func NewResourceHandler(resourceService service.ResourceService, maxBodyBytes int64) *ResourceHandler {
	return &ResourceHandler{resourceService: resourceService, maxBodyBytes: maxBodyBytes}
}

func (h *ResourceHandler) ListResources(c *gin.Context) {
	ownerID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	resources, err := h.resourceService.ListResources(c.Request.Context(), ownerID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resources})
}

// CreateResource accepts either a JSON link or the multipart upload form.
func (h *ResourceHandler) CreateResource(c *gin.Context) {
	ownerID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	if c.ContentType() == binding.MIMEJSON {
		var input dto.LinkInput
		if err := c.ShouldBindJSON(&input); err != nil {
			response.ResponseError(c, validator.FromBinding(err))
			return
		}
		res, err := h.resourceService.AddLinkResource(c.Request.Context(), ownerID, input)
		if err != nil {
			response.ResponseError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "Resource saved.", "data": res})
		return
	}

	if h.maxBodyBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodyBytes)
	}

	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.ResponseError(c, apperror.New(http.StatusRequestEntityTooLarge, "upload is too large", err))
			return
		}
		response.ResponseError(c, apperror.Invalid("files", "Upload must be a multipart form"))
		return
	}

	var input dto.UploadInput
	if err := c.ShouldBindWith(&input, binding.FormMultipart); err != nil {
		response.ResponseError(c, validator.FromBinding(err))
		return
	}

	files := append(form.File["files"], form.File["file"]...)
	result, err := h.resourceService.Upload(c.Request.Context(), ownerID, input, files)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Resources saved.", "data": result})
}

func (h *ResourceHandler) Search(c *gin.Context) {
	ownerID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var query dto.SearchQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.ResponseError(c, validator.FromBinding(err))
		return
	}

	resources, err := h.resourceService.Search(c.Request.Context(), ownerID, query)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resources})
}

// Open serves GET /uploads/:filename.
func (h *ResourceHandler) Open(c *gin.Context) {
	result, err := h.resourceService.Open(c.Request.Context(), c.Param("filename"))
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	if result.RedirectURL != "" {
		c.Redirect(http.StatusFound, result.RedirectURL)
		return
	}

	if _, err := os.Stat(result.Path); err != nil {
		response.ResponseError(c, apperror.ErrNotFound)
		return
	}
	if result.Mime != "" {
		c.Header("Content-Type", result.Mime)
	}
	c.Header("Content-Disposition", "inline; filename=\""+result.Name+"\"")
	c.File(result.Path)
}
