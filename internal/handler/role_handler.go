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

type RoleHandler struct {
	roleService service.RoleService
	log         *zap.Logger
}

func NewRoleHandler(roleService service.RoleService, log *zap.Logger) *RoleHandler {
	return &RoleHandler{roleService: roleService, log: log}
}

func (h *RoleHandler) RegisterRoutes(router *gin.RouterGroup) {
	roles := router.Group("/roles")
	{
		roles.GET("", middleware.RequireArea(access.AreaRoles, domain.ActionRead), h.ListRoles)
		roles.GET("/:id/permissions", middleware.RequireArea(access.AreaRoles, domain.ActionRead), h.GetRolePermissions)
		roles.PUT("/:id/permissions", middleware.RequireArea(access.AreaRoles, domain.ActionWrite), h.UpdateRolePermissions)
	}
	router.GET("/features", middleware.RequireArea(access.AreaRoles, domain.ActionRead), h.ListFeatures)
}

// ListRoles returns every role
// @Summary      List roles
// @Tags         roles
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.RoleResponse}
// @Router       /roles [get]
func (h *RoleHandler) ListRoles(c *gin.Context) {
	roles, err := h.roleService.ListRoles(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, roles))
}

// GetRolePermissions returns one row per feature for a role
// @Summary      Get role permissions
// @Tags         roles
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Role ID"
// @Success      200  {object}  response.Response{data=service.RolePermissionsResponse}
// @Failure      404  {object}  response.Response
// @Router       /roles/{id}/permissions [get]
func (h *RoleHandler) GetRolePermissions(c *gin.Context) {
	res, err := h.roleService.GetRolePermissions(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// UpdateRolePermissions replaces the permission rows of a role
// @Summary      Replace role permissions
// @Description  Features missing from the payload lose every flag. The permission cache is invalidated.
// @Tags         roles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                                true  "Role ID"
// @Param        payload  body      service.UpdateRolePermissionsRequest  true  "Permission rows"
// @Success      200      {object}  response.Response{data=service.RolePermissionsResponse}
// @Failure      400      {object}  response.Response
// @Router       /roles/{id}/permissions [put]
func (h *RoleHandler) UpdateRolePermissions(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req service.UpdateRolePermissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.roleService.UpdateRolePermissions(c.Request.Context(), a, c.Param("id"), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// ListFeatures returns the feature catalogue
// @Summary      List features
// @Tags         roles
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]domain.FeatureInfo}
// @Router       /features [get]
func (h *RoleHandler) ListFeatures(c *gin.Context) {
	c.JSON(http.StatusOK, response.Success(http.StatusOK, h.roleService.ListFeatures()))
}
