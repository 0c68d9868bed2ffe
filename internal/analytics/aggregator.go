// Package analytics folds classified samples into summary, per-brand,
// per-product and monthly on-time reports.
package analytics

import (
	"sort"
	"time"

	"sampletrack/internal/ontime"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Record is one sample as seen by the aggregator.
type Record struct {
	SampleID        uuid.UUID
	StyleNumber     string
	BrandID         *uuid.UUID
	BrandName       string
	SeasonID        *uuid.UUID
	ProductCategory string
	Due             *time.Time
	Actual          *time.Time
	// Period places the sample in the monthly series and month/year filters.
	Period time.Time
}

// Filter restricts the records aggregated. Zero values match everything.
type Filter struct {
	BrandID         *uuid.UUID
	SeasonID        *uuid.UUID
	ProductCategory string
	Month           int
	Year            int
}

// Match reports whether r passes the filter.
func (f Filter) Match(r Record) bool {
	if f.BrandID != nil && (r.BrandID == nil || *r.BrandID != *f.BrandID) {
		return false
	}
	if f.SeasonID != nil && (r.SeasonID == nil || *r.SeasonID != *f.SeasonID) {
		return false
	}
	if f.ProductCategory != "" && r.ProductCategory != f.ProductCategory {
		return false
	}
	if f.Year != 0 && r.Period.Year() != f.Year {
		return false
	}
	if f.Month != 0 && int(r.Period.Month()) != f.Month {
		return false
	}
	return true
}

// Percentages holds one percentage per classification bucket.
type Percentages struct {
	Early   float64 `json:"early"`
	OnTime  float64 `json:"on_time"`
	Delay   float64 `json:"delay"`
	Pending float64 `json:"pending"`
}

// Buckets counts samples per classification.
type Buckets struct {
	Early   int `json:"early"`
	OnTime  int `json:"on_time"`
	Delay   int `json:"delay"`
	Pending int `json:"pending"`
	Total   int `json:"total"`
	// Decided excludes pending samples.
	Decided int `json:"decided"`

	PercentOfTotal   Percentages `json:"percent_of_total"`
	PercentOfDecided Percentages `json:"percent_of_decided"`
}

func (b *Buckets) add(s ontime.Status) {
	b.Total++
	switch s {
	case ontime.Early:
		b.Early++
	case ontime.OnTime:
		b.OnTime++
	case ontime.Delay:
		b.Delay++
	case ontime.Pending:
		b.Pending++
	}
	if s != ontime.Pending {
		b.Decided++
	}
}

func (b *Buckets) finish() {
	b.PercentOfTotal = Percentages{
		Early:   Percent(b.Early, b.Total),
		OnTime:  Percent(b.OnTime, b.Total),
		Delay:   Percent(b.Delay, b.Total),
		Pending: Percent(b.Pending, b.Total),
	}
	// pending is never part of the decided denominator
	b.PercentOfDecided = Percentages{
		Early:  Percent(b.Early, b.Decided),
		OnTime: Percent(b.OnTime, b.Decided),
		Delay:  Percent(b.Delay, b.Decided),
	}
}

// Group is a bucket set for one brand or product category.
type Group struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	Buckets
}

// MonthPoint is one entry of the monthly trend.
type MonthPoint struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Buckets
}

// Row is the per-sample classification, kept for exports.
type Row struct {
	SampleID        uuid.UUID     `json:"sample_id"`
	StyleNumber     string        `json:"style_number"`
	BrandName       string        `json:"brand_name"`
	ProductCategory string        `json:"product_category"`
	Due             *time.Time    `json:"due"`
	Actual          *time.Time    `json:"actual"`
	Status          ontime.Status `json:"status"`
}

// Report is the result of Aggregate.
type Report struct {
	Summary   Buckets      `json:"summary"`
	ByBrand   []Group      `json:"by_brand"`
	ByProduct []Group      `json:"by_product"`
	Monthly   []MonthPoint `json:"monthly"`
	Rows      []Row        `json:"-"`
}

// Unassigned is the group key for samples without a brand or category.
const Unassigned = "unassigned"

type monthKey struct{ year, month int }

// Aggregate filters records, classifies each against now and folds them into
// a report. Empty input yields an all-zero report.
func Aggregate(records []Record, f Filter, now time.Time) Report {
	var rep Report
	brands := map[string]*Group{}
	products := map[string]*Group{}
	months := map[monthKey]*MonthPoint{}

	for _, r := range records {
		if !f.Match(r) {
			continue
		}
		s := ontime.Classify(r.Due, r.Actual, now)

		rep.Summary.add(s)
		groupFor(brands, brandKey(r), r.BrandName).add(s)
		groupFor(products, productKey(r), r.ProductCategory).add(s)

		mk := monthKey{r.Period.Year(), int(r.Period.Month())}
		mp, ok := months[mk]
		if !ok {
			mp = &MonthPoint{Year: mk.year, Month: mk.month}
			months[mk] = mp
		}
		mp.add(s)

		rep.Rows = append(rep.Rows, Row{
			SampleID:        r.SampleID,
			StyleNumber:     r.StyleNumber,
			BrandName:       r.BrandName,
			ProductCategory: r.ProductCategory,
			Due:             r.Due,
			Actual:          r.Actual,
			Status:          s,
		})
	}

	rep.Summary.finish()
	rep.ByBrand = sortedGroups(brands)
	rep.ByProduct = sortedGroups(products)

	rep.Monthly = make([]MonthPoint, 0, len(months))
	for _, mp := range months {
		mp.finish()
		rep.Monthly = append(rep.Monthly, *mp)
	}
	sort.Slice(rep.Monthly, func(i, j int) bool {
		if rep.Monthly[i].Year != rep.Monthly[j].Year {
			return rep.Monthly[i].Year < rep.Monthly[j].Year
		}
		return rep.Monthly[i].Month < rep.Monthly[j].Month
	})
	return rep
}

// Brand returns the group for brandID, if present.
func (r Report) Brand(brandID uuid.UUID) (Group, bool) {
	return findGroup(r.ByBrand, brandID.String())
}

// Product returns the group for a product category, if present.
func (r Report) Product(category string) (Group, bool) {
	return findGroup(r.ByProduct, category)
}

// Month returns the trend point for year/month, if present.
func (r Report) Month(year, month int) (MonthPoint, bool) {
	for _, m := range r.Monthly {
		if m.Year == year && m.Month == month {
			return m, true
		}
	}
	return MonthPoint{}, false
}

// Percent returns part/total*100 rounded to two decimals, or 0 when total is 0.
func Percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return decimal.NewFromInt(int64(part)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(total))).
		Round(2).
		InexactFloat64()
}

func brandKey(r Record) string {
	if r.BrandID == nil {
		return Unassigned
	}
	return r.BrandID.String()
}

func productKey(r Record) string {
	if r.ProductCategory == "" {
		return Unassigned
	}
	return r.ProductCategory
}

func groupFor(m map[string]*Group, key, name string) *Group {
	g, ok := m[key]
	if !ok {
		if name == "" {
			name = key
		}
		g = &Group{Key: key, Name: name}
		m[key] = g
	}
	return g
}

func sortedGroups(m map[string]*Group) []Group {
	out := make([]Group, 0, len(m))
	for _, g := range m {
		g.finish()
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func findGroup(groups []Group, key string) (Group, bool) {
	for _, g := range groups {
		if g.Key == key {
			return g, true
		}
	}
	return Group{}, false
}
