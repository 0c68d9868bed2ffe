package handler

import (
	"net/http"

	"sampletrack/internal/access"
	"sampletrack/internal/domain"
	"sampletrack/internal/middleware"
	"sampletrack/internal/service"
	"sampletrack/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// LookupHandler serves the reference tables. Writes are authorized per kind
// by the service.
type LookupHandler struct {
	lookupService service.LookupService
	log           *zap.Logger
}

func NewLookupHandler(lookupService service.LookupService, log *zap.Logger) *LookupHandler {
	return &LookupHandler{lookupService: lookupService, log: log}
}

func (h *LookupHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/lookups/:kind")
	group.Use(middleware.RequireArea(access.AreaLookups, domain.ActionRead))
	{
		group.GET("", h.List)
		group.POST("", h.Create)
		group.PUT("/:id", h.Update)
		group.DELETE("/:id", h.Deactivate)
	}
}

// List returns the rows of one lookup table
// @Summary      List lookup values
// @Tags         lookups
// @Produce      json
// @Security     BearerAuth
// @Param        kind              path   string  true   "brands, seasons, divisions, product-categories or sample-types"
// @Param        include_inactive  query  bool    false  "Include deactivated rows"
// @Success      200  {object}  response.Response{data=[]service.LookupResponse}
// @Failure      404  {object}  response.Response
// @Router       /lookups/{kind} [get]
func (h *LookupHandler) List(c *gin.Context) {
	rows, err := h.lookupService.List(c.Request.Context(), c.Param("kind"), c.Query("include_inactive") == "true")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, rows))
}

// Create adds a lookup value
// @Summary      Create lookup value
// @Tags         lookups
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        kind     path  string                 true  "Lookup kind"
// @Param        payload  body  service.LookupRequest  true  "Lookup value"
// @Success      201  {object}  response.Response{data=service.LookupResponse}
// @Failure      403  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /lookups/{kind} [post]
func (h *LookupHandler) Create(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req service.LookupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := h.lookupService.Create(c.Request.Context(), a, c.Param("kind"), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, res))
}

// Update changes a lookup value
// @Summary      Update lookup value
// @Tags         lookups
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        kind     path  string                 true  "Lookup kind"
// @Param        id       path  string                 true  "Lookup ID"
// @Param        payload  body  service.LookupRequest  true  "Lookup value"
// @Success      200  {object}  response.Response{data=service.LookupResponse}
// @Router       /lookups/{kind}/{id} [put]
func (h *LookupHandler) Update(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req service.LookupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := h.lookupService.Update(c.Request.Context(), a, c.Param("kind"), c.Param("id"), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// Deactivate hides a lookup value from pickers
// @Summary      Deactivate lookup value
// @Tags         lookups
// @Produce      json
// @Security     BearerAuth
// @Param        kind  path  string  true  "Lookup kind"
// @Param        id    path  string  true  "Lookup ID"
// @Success      200  {object}  response.Response
// @Router       /lookups/{kind}/{id} [delete]
func (h *LookupHandler) Deactivate(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	if err := h.lookupService.Deactivate(c.Request.Context(), a, c.Param("kind"), c.Param("id")); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Deactivated"))
}
