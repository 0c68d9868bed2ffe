package handler

import (
	"net/http"

	"sampletrack/internal/access"
	"sampletrack/internal/domain"
	"sampletrack/internal/middleware"
	"sampletrack/internal/service"
	"sampletrack/pkg/pagination"
	"sampletrack/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type StyleHandler struct {
	styleService service.StyleService
	log          *zap.Logger
}

func NewStyleHandler(styleService service.StyleService, log *zap.Logger) *StyleHandler {
	return &StyleHandler{styleService: styleService, log: log}
}

func (h *StyleHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/styles")
	{
		group.GET("", middleware.RequireArea(access.AreaSamples, domain.ActionRead), h.List)
		group.GET("/:id", middleware.RequireArea(access.AreaSamples, domain.ActionRead), h.Get)
		group.POST("", middleware.RequireArea(access.AreaSamples, domain.ActionWrite), h.Create)
	}
}

// List returns styles matching q
// @Summary      List styles
// @Tags         styles
// @Produce      json
// @Security     BearerAuth
// @Param        q      query  string  false  "Style number or name"
// @Param        page   query  int     false  "Page number"
// @Param        limit  query  int     false  "Page size"
// @Success      200  {object}  response.Response{data=response.Page}
// @Router       /styles [get]
func (h *StyleHandler) List(c *gin.Context) {
	p := pagination.Parse(c)
	styles, total, err := h.styleService.List(c.Request.Context(), c.Query("q"), p.Offset, p.Limit)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, p.Wrap(styles, total)))
}

// Get returns one style
// @Summary      Get style
// @Tags         styles
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "Style ID"
// @Success      200  {object}  response.Response{data=service.StyleResponse}
// @Failure      404  {object}  response.Response
// @Router       /styles/{id} [get]
func (h *StyleHandler) Get(c *gin.Context) {
	style, err := h.styleService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, style))
}

// Create registers a style
// @Summary      Create style
// @Tags         styles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body  service.CreateStyleRequest  true  "Style"
// @Success      201  {object}  response.Response{data=service.StyleResponse}
// @Failure      409  {object}  response.Response
// @Router       /styles [post]
func (h *StyleHandler) Create(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req service.CreateStyleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	style, err := h.styleService.Create(c.Request.Context(), a, req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, style))
}
