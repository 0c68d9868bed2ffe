package handler

import (
	"net/http"
	"strings"

	"sampletrack/internal/access"
	"sampletrack/internal/domain"
	"sampletrack/internal/middleware"
	"sampletrack/internal/service"
	"sampletrack/pkg/pagination"
	"sampletrack/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SampleHandler struct {
	sampleService   service.SampleService
	presenceService service.PresenceService
	log             *zap.Logger
}

func NewSampleHandler(sampleService service.SampleService, presenceService service.PresenceService, log *zap.Logger) *SampleHandler {
	return &SampleHandler{sampleService: sampleService, presenceService: presenceService, log: log}
}

func (h *SampleHandler) RegisterRoutes(router *gin.RouterGroup) {
	read := middleware.RequireArea(access.AreaSamples, domain.ActionRead)
	write := middleware.RequireArea(access.AreaSamples, domain.ActionWrite)

	samples := router.Group("/samples")
	{
		samples.GET("", read, h.List)
		samples.POST("", write, h.Create)
		samples.GET("/presence", read, h.ListPresence)
		samples.GET("/:id", read, h.Get)
		samples.PUT("/:id", write, h.Update)
		samples.PUT("/:id/stages", write, h.UpdateStage)
		samples.POST("/:id/advance", write, h.Advance)
		samples.GET("/:id/owners", read, h.ListOwners)
		samples.PUT("/:id/owners", write, h.SetOwner)
		samples.GET("/:id/history", read, h.History)
		samples.POST("/:id/presence/heartbeat", read, h.Heartbeat)
		samples.POST("/:id/presence/release", read, h.Release)
		samples.GET("/:id/presence/conflict", read, h.Conflict)
	}
}

// List returns samples matching the filters
// @Summary      List samples
// @Description  Roles configured as scoped only see samples they own.
// @Tags         samples
// @Produce      json
// @Security     BearerAuth
// @Param        brand_id   query  string  false  "Brand ID"
// @Param        season_id  query  string  false  "Season ID"
// @Param        stage      query  string  false  "Current stage key"
// @Param        status     query  string  false  "Current status"
// @Param        q          query  string  false  "Style number or name"
// @Param        page       query  int     false  "Page number"
// @Param        limit      query  int     false  "Page size"
// @Success      200  {object}  response.Response{data=response.Page}
// @Router       /samples [get]
func (h *SampleHandler) List(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	p := pagination.Parse(c)
	q := service.SampleListQuery{
		BrandID:  c.Query("brand_id"),
		SeasonID: c.Query("season_id"),
		Stage:    c.Query("stage"),
		Status:   c.Query("status"),
		Query:    c.Query("q"),
		Offset:   p.Offset,
		Limit:    p.Limit,
	}
	samples, total, err := h.sampleService.List(c.Request.Context(), a, q)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, p.Wrap(samples, total)))
}

// Create registers a sample for a style
// @Summary      Create sample
// @Tags         samples
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body  service.CreateSampleRequest  true  "Sample"
// @Success      201  {object}  response.Response{data=service.SampleResponse}
// @Failure      403  {object}  response.Response
// @Router       /samples [post]
func (h *SampleHandler) Create(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req service.CreateSampleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	sample, err := h.sampleService.Create(c.Request.Context(), a, req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, sample))
}

// Get returns a sample with the stage records the caller may read and its owners
// @Summary      Get sample
// @Tags         samples
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "Sample ID"
// @Success      200  {object}  response.Response{data=service.SampleDetailResponse}
// @Failure      404  {object}  response.Response
// @Router       /samples/{id} [get]
func (h *SampleHandler) Get(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	sample, err := h.sampleService.Get(c.Request.Context(), a, c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, sample))
}

// Update changes status, due date, sample type or notes
// @Summary      Update sample
// @Tags         samples
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path  string                       true  "Sample ID"
// @Param        payload  body  service.UpdateSampleRequest  true  "Changes"
// @Success      200  {object}  response.Response{data=service.SampleResponse}
// @Router       /samples/{id} [put]
func (h *SampleHandler) Update(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req service.UpdateSampleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	sample, err := h.sampleService.Update(c.Request.Context(), a, c.Param("id"), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, sample))
}

// UpdateStage merges fields into a stage record
// @Summary      Update stage fields
// @Description  Body is {"stage": "<key>", "<field>": value, ...}. A null value clears the field.
// @Tags         samples
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path  string  true  "Sample ID"
// @Param        payload  body  object  true  "Stage key and fields"
// @Success      200  {object}  response.Response{data=service.StageRecordResponse}
// @Failure      400  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /samples/{id}/stages [put]
func (h *SampleHandler) UpdateStage(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}
	stageKey, _ := body["stage"].(string)
	if strings.TrimSpace(stageKey) == "" {
		respondError(c, h.log, domain.NewValidationError("stage", "is required"))
		return
	}
	delete(body, "stage")

	rec, err := h.sampleService.UpdateStage(c.Request.Context(), a, c.Param("id"), stageKey, body)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, rec))
}

// Advance moves the sample to the next stage
// @Summary      Advance sample
// @Description  Requires approve on the current stage and every required field of it.
// @Tags         samples
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path  string                        true   "Sample ID"
// @Param        payload  body  service.AdvanceSampleRequest  false  "Note"
// @Success      200  {object}  response.Response{data=service.SampleResponse}
// @Failure      409  {object}  response.Response
// @Router       /samples/{id}/advance [post]
func (h *SampleHandler) Advance(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req service.AdvanceSampleRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	sample, err := h.sampleService.Advance(c.Request.Context(), a, c.Param("id"), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, sample))
}

// ListOwners returns the per-role owners of a sample
// @Summary      List sample owners
// @Tags         samples
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "Sample ID"
// @Success      200  {object}  response.Response{data=[]service.OwnerResponse}
// @Router       /samples/{id}/owners [get]
func (h *SampleHandler) ListOwners(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	owners, err := h.sampleService.ListOwners(c.Request.Context(), a, c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, owners))
}

// SetOwner assigns or clears the owner of a role on a sample
// @Summary      Set sample owner
// @Tags         samples
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path  string                   true  "Sample ID"
// @Param        payload  body  service.SetOwnerRequest  true  "Owner, user_id null clears"
// @Success      200  {object}  response.Response{data=[]service.OwnerResponse}
// @Router       /samples/{id}/owners [put]
func (h *SampleHandler) SetOwner(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req service.SetOwnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	owners, err := h.sampleService.SetOwner(c.Request.Context(), a, c.Param("id"), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, owners))
}

// History returns field changes and status transitions
// @Summary      Sample history
// @Tags         samples
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "Sample ID"
// @Success      200  {object}  response.Response{data=service.SampleHistoryResponse}
// @Router       /samples/{id}/history [get]
func (h *SampleHandler) History(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	res, err := h.sampleService.History(c.Request.Context(), a, c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// ListPresence returns live presence rows grouped by sample
// @Summary      List presence
// @Tags         presence
// @Produce      json
// @Security     BearerAuth
// @Param        sample_ids  query  string  true  "Comma separated sample IDs"
// @Success      200  {object}  response.Response{data=map[string][]service.PresenceEntry}
// @Router       /samples/presence [get]
func (h *SampleHandler) ListPresence(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	ids := strings.Split(c.Query("sample_ids"), ",")
	res, err := h.presenceService.ListActive(c.Request.Context(), a, ids)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// Heartbeat records the caller as present on a sample
// @Summary      Presence heartbeat
// @Tags         presence
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path  string                    true  "Sample ID"
// @Param        payload  body  service.HeartbeatRequest  true  "Context and optional lock type"
// @Success      200  {object}  response.Response{data=service.HeartbeatResponse}
// @Router       /samples/{id}/presence/heartbeat [post]
func (h *SampleHandler) Heartbeat(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req service.HeartbeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := h.presenceService.Heartbeat(c.Request.Context(), a, c.Param("id"), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// Release drops the caller's presence. Without a context every context is released.
// @Summary      Presence release
// @Tags         presence
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path  string                  true   "Sample ID"
// @Param        payload  body  service.ReleaseRequest  false  "Context"
// @Success      200  {object}  response.Response
// @Router       /samples/{id}/presence/release [post]
func (h *SampleHandler) Release(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req service.ReleaseRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	if err := h.presenceService.Release(c.Request.Context(), a, c.Param("id"), req); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Released"))
}

// Conflict reports another user's live edit lock
// @Summary      Presence conflict
// @Tags         presence
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "Sample ID"
// @Success      200  {object}  response.Response{data=service.LockConflict}
// @Router       /samples/{id}/presence/conflict [get]
func (h *SampleHandler) Conflict(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	conflict, err := h.presenceService.FindConflictingLock(c.Request.Context(), a, c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"conflict": conflict}))
}
