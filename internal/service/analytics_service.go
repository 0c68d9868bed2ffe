package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"sampletrack/internal/access"
	"sampletrack/internal/analytics"
	"sampletrack/internal/domain"
	"sampletrack/internal/ontime"
	"sampletrack/internal/repository"
	"sampletrack/internal/stage"

	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"
)

// Measure selects which pair of dates is classified.
type Measure string

const (
	// MeasureSubmission is factory submission: target vs actual x-factory date.
	MeasureSubmission Measure = "submission"
	// MeasureDelivery is arrival at the brand: due in Denver vs brand received date.
	MeasureDelivery Measure = "delivery"
)

// ParseMeasure accepts "submission" and "delivery".
func ParseMeasure(s string) (Measure, error) {
	switch m := Measure(strings.ToLower(strings.TrimSpace(s))); m {
	case MeasureSubmission, MeasureDelivery:
		return m, nil
	default:
		return "", domain.NewValidationError("type", "must be submission or delivery")
	}
}

// AnalyticsQuery carries the raw filter query parameters.
type AnalyticsQuery struct {
	BrandID         string `form:"brand_id"`
	SeasonID        string `form:"season_id"`
	ProductCategory string `form:"product_category"`
	Month           string `form:"month"`
	Year            string `form:"year"`
}

type OverviewResponse struct {
	Submission analytics.Report `json:"submission"`
	Delivery   analytics.Report `json:"delivery"`
}

type AnalyticsService interface {
	Performance(ctx context.Context, actor Actor, m Measure, q AnalyticsQuery) (*analytics.Report, error)
	Overview(ctx context.Context, actor Actor, q AnalyticsQuery) (*OverviewResponse, error)
	// Export renders a report as a workbook. The caller closes the file.
	Export(ctx context.Context, actor Actor, m Measure, q AnalyticsQuery) (*excelize.File, string, error)
}

type analyticsService struct {
	repo  repository.AnalyticsRepository
	cache *access.Cache
	now   func() time.Time
}

func NewAnalyticsService(repo repository.AnalyticsRepository, cache *access.Cache, now func() time.Time) AnalyticsService {
	if now == nil {
		now = time.Now
	}
	return &analyticsService{repo: repo, cache: cache, now: now}
}

func parseFilter(q AnalyticsQuery) (analytics.Filter, error) {
	var f analytics.Filter
	var errs []domain.FieldError
	var err error

	if f.BrandID, err = parseOptionalID("brand_id", &q.BrandID); err != nil {
		errs = append(errs, domain.FieldError{Field: "brand_id", Message: "must be a valid UUID"})
	}
	if f.SeasonID, err = parseOptionalID("season_id", &q.SeasonID); err != nil {
		errs = append(errs, domain.FieldError{Field: "season_id", Message: "must be a valid UUID"})
	}
	f.ProductCategory = strings.TrimSpace(q.ProductCategory)

	if s := strings.TrimSpace(q.Month); s != "" {
		m, convErr := strconv.Atoi(s)
		if convErr != nil || m < 1 || m > 12 {
			errs = append(errs, domain.FieldError{Field: "month", Message: "must be between 1 and 12"})
		}
		f.Month = m
	}
	if s := strings.TrimSpace(q.Year); s != "" {
		y, convErr := strconv.Atoi(s)
		if convErr != nil || y < 1900 || y > 9999 {
			errs = append(errs, domain.FieldError{Field: "year", Message: "must be a four digit year"})
		}
		f.Year = y
	}
	if len(errs) > 0 {
		return analytics.Filter{}, domain.NewValidationErrors(errs)
	}
	return f, nil
}

func fieldDate(fields map[string]any, key string) *time.Time {
	if fields == nil {
		return nil
	}
	s, ok := fields[key].(string)
	if !ok {
		return nil
	}
	return ontime.ParseDatePtr(s)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// records loads the rows of one measure and maps them to aggregator input.
func (s *analyticsService) records(ctx context.Context, m Measure, f analytics.Filter) ([]analytics.Record, error) {
	st, _ := stage.Lookup(string(stage.SampleDevelopment))
	if m == MeasureDelivery {
		st, _ = stage.Lookup(string(stage.ShipmentToBrand))
	}

	rows, err := s.repo.PerformanceRows(ctx, st, repository.PerformanceQuery{BrandID: f.BrandID, SeasonID: f.SeasonID})
	if err != nil {
		return nil, fmt.Errorf("load %s rows: %w", m, err)
	}

	out := make([]analytics.Record, 0, len(rows))
	for _, row := range rows {
		rec := analytics.Record{
			SampleID:        row.SampleID,
			StyleNumber:     row.StyleNumber,
			BrandID:         row.BrandID,
			BrandName:       deref(row.BrandName),
			SeasonID:        row.SeasonID,
			ProductCategory: deref(row.ProductCategory),
		}
		switch m {
		case MeasureSubmission:
			rec.Due = fieldDate(row.StageFields, "target_xfty_date")
			rec.Actual = fieldDate(row.StageFields, "actual_xfty_date")
		case MeasureDelivery:
			rec.Due = row.SampleDueDenver
			rec.Actual = fieldDate(row.StageFields, "brand_received_date")
		}
		rec.Period = row.CreatedAt
		if rec.Due != nil {
			rec.Period = *rec.Due
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *analyticsService) report(ctx context.Context, m Measure, f analytics.Filter) (*analytics.Report, error) {
	recs, err := s.records(ctx, m, f)
	if err != nil {
		return nil, err
	}
	rep := analytics.Aggregate(recs, f, s.now())
	return &rep, nil
}

func (s *analyticsService) Performance(ctx context.Context, actor Actor, m Measure, q AnalyticsQuery) (*analytics.Report, error) {
	if err := s.cache.Authorize(ctx, actor.Role, domain.FeatureAnalytics, domain.ActionRead); err != nil {
		return nil, err
	}
	f, err := parseFilter(q)
	if err != nil {
		return nil, err
	}
	return s.report(ctx, m, f)
}

func (s *analyticsService) Overview(ctx context.Context, actor Actor, q AnalyticsQuery) (*OverviewResponse, error) {
	if err := s.cache.Authorize(ctx, actor.Role, domain.FeatureAnalytics, domain.ActionRead); err != nil {
		return nil, err
	}
	f, err := parseFilter(q)
	if err != nil {
		return nil, err
	}

	var res OverviewResponse
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rep, err := s.report(gctx, MeasureSubmission, f)
		if err != nil {
			return err
		}
		res.Submission = *rep
		return nil
	})
	g.Go(func() error {
		rep, err := s.report(gctx, MeasureDelivery, f)
		if err != nil {
			return err
		}
		res.Delivery = *rep
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *analyticsService) Export(ctx context.Context, actor Actor, m Measure, q AnalyticsQuery) (*excelize.File, string, error) {
	rep, err := s.Performance(ctx, actor, m, q)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	const summary = "Summary"
	const detail = "Samples"
	if err := f.SetSheetName("Sheet1", summary); err != nil {
		return nil, "", err
	}
	if _, err := f.NewSheet(detail); err != nil {
		return nil, "", err
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "#000000", Style: 1},
		},
	})
	writeHeader := func(sheet string, headers []string) {
		for i, h := range headers {
			col, _ := excelize.ColumnNumberToName(i + 1)
			cell := fmt.Sprintf("%s1", col)
			f.SetCellValue(sheet, cell, h)
			f.SetCellStyle(sheet, cell, cell, headerStyle)
			f.SetColWidth(sheet, col, col, 16)
		}
	}

	writeHeader(summary, []string{"Group", "Key", "Early", "On Time", "Delay", "Pending", "Total", "On Time %", "Delay %"})
	row := 2
	writeBuckets := func(group, key string, b analytics.Buckets) {
		f.SetCellValue(summary, fmt.Sprintf("A%d", row), group)
		f.SetCellValue(summary, fmt.Sprintf("B%d", row), key)
		f.SetCellValue(summary, fmt.Sprintf("C%d", row), b.Early)
		f.SetCellValue(summary, fmt.Sprintf("D%d", row), b.OnTime)
		f.SetCellValue(summary, fmt.Sprintf("E%d", row), b.Delay)
		f.SetCellValue(summary, fmt.Sprintf("F%d", row), b.Pending)
		f.SetCellValue(summary, fmt.Sprintf("G%d", row), b.Total)
		f.SetCellValue(summary, fmt.Sprintf("H%d", row), b.PercentOfDecided.OnTime)
		f.SetCellValue(summary, fmt.Sprintf("I%d", row), b.PercentOfDecided.Delay)
		row++
	}
	writeBuckets("Total", "", rep.Summary)
	for _, g := range rep.ByBrand {
		writeBuckets("Brand", g.Name, g.Buckets)
	}
	for _, g := range rep.ByProduct {
		writeBuckets("Product", g.Name, g.Buckets)
	}
	for _, mp := range rep.Monthly {
		writeBuckets("Month", fmt.Sprintf("%04d-%02d", mp.Year, mp.Month), mp.Buckets)
	}

	writeHeader(detail, []string{"Style", "Brand", "Product Category", "Due", "Actual", "Status"})
	for i, r := range rep.Rows {
		n := i + 2
		f.SetCellValue(detail, fmt.Sprintf("A%d", n), r.StyleNumber)
		f.SetCellValue(detail, fmt.Sprintf("B%d", n), r.BrandName)
		f.SetCellValue(detail, fmt.Sprintf("C%d", n), r.ProductCategory)
		f.SetCellValue(detail, fmt.Sprintf("D%d", n), deref(formatDate(r.Due)))
		f.SetCellValue(detail, fmt.Sprintf("E%d", n), deref(formatDate(r.Actual)))
		f.SetCellValue(detail, fmt.Sprintf("F%d", n), string(r.Status))
	}

	filename := fmt.Sprintf("%s-performance-%s.xlsx", m, s.now().UTC().Format("20060102"))
	return f, filename, nil
}
