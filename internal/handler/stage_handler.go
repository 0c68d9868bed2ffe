package handler

import (
	"net/http"

	"sampletrack/internal/stage"
	"sampletrack/pkg/response"

	"github.com/gin-gonic/gin"
)

// StageHandler exposes the stage registry to the client forms.
type StageHandler struct{}

func NewStageHandler() *StageHandler { return &StageHandler{} }

func (h *StageHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/stages", h.List)
}

// List returns the ordered stages with their field schemas
// @Summary      List stages
// @Tags         stages
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]stage.Stage}
// @Router       /stages [get]
func (h *StageHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, response.Success(http.StatusOK, stage.All()))
}
