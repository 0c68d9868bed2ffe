package analytics

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &t
}

func ptr[T any](v T) *T { return &v }

var (
	brandA = uuid.MustParse("00000000-0000-0000-0000-00000000000a")
	brandB = uuid.MustParse("00000000-0000-0000-0000-00000000000b")
	now    = *day("2024-03-20")
)

func record(brand *uuid.UUID, product, due, actual string) Record {
	r := Record{SampleID: uuid.New(), BrandID: brand, ProductCategory: product}
	if brand != nil {
		r.BrandName = "Brand " + brand.String()[len(brand.String())-1:]
	}
	if due != "" {
		r.Due = day(due)
		r.Period = *r.Due
	} else {
		r.Period = *day("2024-01-01")
	}
	if actual != "" {
		r.Actual = day(actual)
	}
	return r
}

func fixture() []Record {
	return []Record{
		record(&brandA, "tops", "2024-01-10", "2024-01-08"),    // early
		record(&brandA, "tops", "2024-01-10", "2024-01-10"),    // on_time
		record(&brandA, "bottoms", "2024-02-10", "2024-02-12"), // delay
		record(&brandB, "tops", "2024-02-15", ""),              // delay (overdue)
		record(&brandB, "bottoms", "2024-04-01", ""),           // pending (future)
		record(nil, "", "", ""),                                // pending (no due)
		record(&brandB, "tops", "2024-03-01", "2024-02-28"),    // early
	}
}

func TestAggregate_Empty(t *testing.T) {
	t.Parallel()

	rep := Aggregate(nil, Filter{}, now)
	assert.Equal(t, 0, rep.Summary.Total)
	assert.Equal(t, Percentages{}, rep.Summary.PercentOfTotal)
	assert.Equal(t, Percentages{}, rep.Summary.PercentOfDecided)
	assert.Empty(t, rep.ByBrand)
	assert.Empty(t, rep.Monthly)
}

func TestAggregate_AllPending(t *testing.T) {
	t.Parallel()

	records := []Record{
		record(&brandA, "tops", "2024-05-01", ""),
		record(&brandB, "tops", "2024-06-01", ""),
		record(nil, "", "", ""),
	}
	rep := Aggregate(records, Filter{}, now)

	s := rep.Summary
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 3, s.Pending)
	assert.Zero(t, s.Early+s.OnTime+s.Delay)
	assert.Zero(t, s.Decided)
	assert.Equal(t, float64(100), s.PercentOfTotal.Pending)
	for _, v := range []float64{s.PercentOfDecided.Early, s.PercentOfDecided.OnTime, s.PercentOfDecided.Delay, s.PercentOfTotal.Early} {
		assert.False(t, math.IsNaN(v))
		assert.Zero(t, v)
	}
	for _, g := range rep.ByBrand {
		assert.Zero(t, g.PercentOfDecided.OnTime)
	}
}

func TestAggregate_Summary(t *testing.T) {
	t.Parallel()

	rep := Aggregate(fixture(), Filter{}, now)
	s := rep.Summary

	assert.Equal(t, 7, s.Total)
	assert.Equal(t, 2, s.Early)
	assert.Equal(t, 1, s.OnTime)
	assert.Equal(t, 2, s.Delay)
	assert.Equal(t, 2, s.Pending)
	assert.Equal(t, 5, s.Decided)

	assert.Equal(t, 28.57, s.PercentOfTotal.Early)
	assert.Equal(t, 40.0, s.PercentOfDecided.Early)
	assert.Equal(t, 20.0, s.PercentOfDecided.OnTime)
	assert.Equal(t, 40.0, s.PercentOfDecided.Delay)
	assert.Zero(t, s.PercentOfDecided.Pending)
	assert.Len(t, rep.Rows, 7)
}

func TestAggregate_Groups(t *testing.T) {
	t.Parallel()

	rep := Aggregate(fixture(), Filter{}, now)

	require.Len(t, rep.ByBrand, 3)
	a, ok := rep.Brand(brandA)
	require.True(t, ok)
	assert.Equal(t, 3, a.Total)
	assert.Equal(t, 1, a.Early)
	assert.Equal(t, 1, a.OnTime)
	assert.Equal(t, 1, a.Delay)

	un, ok := findGroup(rep.ByBrand, Unassigned)
	require.True(t, ok)
	assert.Equal(t, 1, un.Pending)

	tops, ok := rep.Product("tops")
	require.True(t, ok)
	assert.Equal(t, 4, tops.Total)

	require.Len(t, rep.Monthly, 4)
	assert.Equal(t, 2024, rep.Monthly[0].Year)
	assert.Equal(t, 1, rep.Monthly[0].Month)
	assert.Equal(t, 4, rep.Monthly[3].Month)
	jan, ok := rep.Month(2024, 1)
	require.True(t, ok)
	assert.Equal(t, 3, jan.Total)
}

func TestAggregate_FilterCommutes(t *testing.T) {
	t.Parallel()

	records := fixture()
	all := Aggregate(records, Filter{}, now)

	for _, b := range []uuid.UUID{brandA, brandB} {
		filtered := Aggregate(records, Filter{BrandID: ptr(b)}, now)
		g, ok := all.Brand(b)
		require.True(t, ok)
		assert.Equal(t, g.Buckets, filtered.Summary, "brand %s", b)
	}

	for _, ym := range [][2]int{{2024, 1}, {2024, 2}, {2024, 3}, {2024, 4}} {
		filtered := Aggregate(records, Filter{Year: ym[0], Month: ym[1]}, now)
		m, ok := all.Month(ym[0], ym[1])
		require.True(t, ok)
		assert.Equal(t, m.Buckets, filtered.Summary, "month %v", ym)
	}

	// brand + month: filtered summary equals the filtered-by-month report's brand group
	byMonth := Aggregate(records, Filter{Year: 2024, Month: 2}, now)
	both := Aggregate(records, Filter{Year: 2024, Month: 2, BrandID: ptr(brandB)}, now)
	g, ok := byMonth.Brand(brandB)
	require.True(t, ok)
	assert.Equal(t, g.Buckets, both.Summary)

	// out-of-range year gives an empty, zero report
	empty := Aggregate(records, Filter{Year: 2030}, now)
	assert.Zero(t, empty.Summary.Total)
}

func TestFilter_Match(t *testing.T) {
	t.Parallel()

	season := uuid.New()
	r := record(&brandA, "tops", "2024-02-10", "")
	r.SeasonID = &season

	assert.True(t, Filter{}.Match(r))
	assert.True(t, Filter{SeasonID: &season, ProductCategory: "tops", Month: 2}.Match(r))
	assert.False(t, Filter{SeasonID: ptr(uuid.New())}.Match(r))
	assert.False(t, Filter{ProductCategory: "bottoms"}.Match(r))
	assert.False(t, Filter{BrandID: ptr(brandB)}.Match(r))

	noBrand := record(nil, "", "2024-02-10", "")
	assert.False(t, Filter{BrandID: ptr(brandA)}.Match(noBrand))
}

func TestPercent(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 0.0, Percent(5, 0))
	assert.Equal(t, 33.33, Percent(1, 3))
	assert.Equal(t, 66.67, Percent(2, 3))
	assert.Equal(t, 100.0, Percent(4, 4))
}
