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

type AnalyticsHandler struct {
	analyticsService service.AnalyticsService
	log              *zap.Logger
}

func NewAnalyticsHandler(analyticsService service.AnalyticsService, log *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService, log: log}
}

func (h *AnalyticsHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/analytics")
	group.Use(middleware.RequireArea(access.AreaAnalytics, domain.ActionRead))
	{
		group.GET("/submission-performance", h.SubmissionPerformance)
		group.GET("/delivery-performance", h.DeliveryPerformance)
		group.GET("/overview", h.Overview)
		group.GET("/export", h.Export)
	}
}

func bindAnalyticsQuery(c *gin.Context) service.AnalyticsQuery {
	return service.AnalyticsQuery{
		BrandID:         c.Query("brand_id"),
		SeasonID:        c.Query("season_id"),
		ProductCategory: c.Query("product_category"),
		Month:           c.Query("month"),
		Year:            c.Query("year"),
	}
}

// SubmissionPerformance classifies target vs actual x-factory dates
// @Summary      Submission performance
// @Tags         analytics
// @Produce      json
// @Security     BearerAuth
// @Param        brand_id          query  string  false  "Brand ID"
// @Param        season_id         query  string  false  "Season ID"
// @Param        product_category  query  string  false  "Product category name"
// @Param        month             query  int     false  "Month 1-12"
// @Param        year              query  int     false  "Year"
// @Success      200  {object}  response.Response{data=analytics.Report}
// @Router       /analytics/submission-performance [get]
func (h *AnalyticsHandler) SubmissionPerformance(c *gin.Context) {
	h.performance(c, service.MeasureSubmission)
}

// DeliveryPerformance classifies due in Denver vs brand received dates
// @Summary      Delivery performance
// @Tags         analytics
// @Produce      json
// @Security     BearerAuth
// @Param        brand_id          query  string  false  "Brand ID"
// @Param        season_id         query  string  false  "Season ID"
// @Param        product_category  query  string  false  "Product category name"
// @Param        month             query  int     false  "Month 1-12"
// @Param        year              query  int     false  "Year"
// @Success      200  {object}  response.Response{data=analytics.Report}
// @Router       /analytics/delivery-performance [get]
func (h *AnalyticsHandler) DeliveryPerformance(c *gin.Context) {
	h.performance(c, service.MeasureDelivery)
}

func (h *AnalyticsHandler) performance(c *gin.Context, m service.Measure) {
	a, ok := actor(c)
	if !ok {
		return
	}
	rep, err := h.analyticsService.Performance(c.Request.Context(), a, m, bindAnalyticsQuery(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, rep))
}

// Overview returns both reports
// @Summary      Analytics overview
// @Tags         analytics
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.OverviewResponse}
// @Router       /analytics/overview [get]
func (h *AnalyticsHandler) Overview(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	res, err := h.analyticsService.Overview(c.Request.Context(), a, bindAnalyticsQuery(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// Export downloads a report as xlsx
// @Summary      Export analytics
// @Tags         analytics
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security     BearerAuth
// @Param        type  query  string  true  "submission or delivery"
// @Success      200  {file}  file
// @Router       /analytics/export [get]
func (h *AnalyticsHandler) Export(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	m, err := service.ParseMeasure(c.DefaultQuery("type", string(service.MeasureSubmission)))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	f, filename, err := h.analyticsService.Export(c.Request.Context(), a, m, bindAnalyticsQuery(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	defer f.Close()

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.Header("Content-Transfer-Encoding", "binary")
	if err := f.Write(c.Writer); err != nil {
		h.log.Error("write xlsx", zap.Error(err))
	}
}
