package dashboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/searchlens/searchlens/dataset"
)

func fixtureBundle() *dataset.Bundle {
	return &dataset.Bundle{
		Monthly: []dataset.MonthlyTrend{
			{Month: "2022-01", Subdomain: "www", Section: "home", Clicks: 100, Impressions: 1000, UniquePages: 10},
			{Month: "2022-01", Subdomain: "docs", Section: "guides", Clicks: 50, Impressions: 500, UniquePages: 5},
			{Month: "2022-02", Subdomain: "www", Section: "home", Clicks: 300, Impressions: 2000, UniquePages: 12},
		},
		Pages: []dataset.PageSummary{
			{Page: "/a", ShortName: "A", Subdomain: "www", Section: "home", ContentType: dataset.ContentNew,
				TotalClicks: 120, TotalImpressions: 2000, AvgPosition: 2.5, CTR: 6.0, Cluster: "alpha"},
			{Page: "/b", ShortName: "B", Subdomain: "www", Section: "guides", ContentType: dataset.ContentExisting,
				TotalClicks: 80, TotalImpressions: 4000, AvgPosition: 12.1, CTR: 2.0, Cluster: "beta"},
			{Page: "/c", ShortName: "C", Subdomain: "docs", Section: "guides", ContentType: dataset.ContentNew,
				TotalClicks: 80, TotalImpressions: 100, AvgPosition: 35.0, CTR: 8.0, Cluster: "alpha"},
		},
		Clusters: []dataset.ClusterPerformance{
			{Cluster: "alpha", Pages: 2, TotalClicks: 200, TotalImpressions: 2100, AvgPosition: 3.1,
				AvgWordCount: 1500, CTR: 9.5, ClicksPerPage: 100},
			{Cluster: "beta", Pages: 1, TotalClicks: 80, TotalImpressions: 4000, AvgPosition: 12.1,
				AvgWordCount: 900, CTR: 2.0, ClicksPerPage: 80},
		},
		Weekly: []dataset.WeeklyTrend{
			{Week: "2022-W01", Clicks: 40, Impressions: 400, ContentType: dataset.ContentNew},
			{Week: "2022-W01", Clicks: 60, Impressions: 600, ContentType: dataset.ContentExisting},
			{Week: "2022-W02", Clicks: 70, Impressions: 500, ContentType: dataset.ContentNew},
		},
		ClusterMonthly: []dataset.ClusterMonthly{
			{Month: "2022-01", Cluster: "alpha", Clicks: 60},
			{Month: "2022-02", Cluster: "alpha", Clicks: 90},
			{Month: "2022-01", Cluster: "beta", Clicks: 45},
		},
	}
}

func TestOverview(t *testing.T) {
	o := NewViews(fixtureBundle()).Overview()

	assert.Equal(t, float64(450), o.TotalClicks)
	assert.Equal(t, float64(3500), o.TotalImpressions)
	assert.Equal(t, "2022-02", o.PeakMonth)
	assert.Equal(t, float64(300), o.PeakMonthClicks)
	// 2022-01 has 150 clicks, 2022-02 has 300.
	assert.Equal(t, float64(2), o.GrowthMultiple)
	assert.Equal(t, 3, o.TrackedPages)
	assert.Equal(t, 2, o.TrackedClusters)
	assert.InDelta(t, 450.0/3500.0*100, o.OverallCTR, 0.001)
}

func TestMonthlyTrend(t *testing.T) {
	v := NewViews(fixtureBundle()).MonthlyTrend()

	require.Len(t, v.Clicks.Points, 2)
	assert.Equal(t, Point{Label: "2022-01", Value: 150}, v.Clicks.Points[0])
	assert.Equal(t, Point{Label: "2022-02", Value: 300}, v.Clicks.Points[1])

	require.Len(t, v.BySubdomain, 2)
	names := []string{v.BySubdomain[0].Name, v.BySubdomain[1].Name}
	assert.ElementsMatch(t, []string{"www", "docs"}, names)
}

func TestWeeklyTrendSplitsByContentType(t *testing.T) {
	v := NewViews(fixtureBundle()).WeeklyTrend()

	require.Len(t, v.Total.Points, 2)
	assert.Equal(t, Point{Label: "2022-W01", Value: 100}, v.Total.Points[0])

	require.Len(t, v.ByContentType, 2)
	assert.Equal(t, dataset.ContentNew, v.ByContentType[0].Name)
	require.Len(t, v.ByContentType[0].Points, 2)
	assert.Equal(t, Point{Label: "2022-W02", Value: 70}, v.ByContentType[0].Points[1])
	assert.Equal(t, dataset.ContentExisting, v.ByContentType[1].Name)
	require.Len(t, v.ByContentType[1].Points, 1)
}

func TestTopPages(t *testing.T) {
	v := NewViews(fixtureBundle()).TopPages(2, 0)

	require.Len(t, v.Rows, 2)
	assert.Equal(t, "/a", v.Rows[0].Page)
	// /b and /c tie on clicks; /b comes first in the source and must stay first.
	assert.Equal(t, "/b", v.Rows[1].Page)
	assert.InDelta(t, 42.86, v.Rows[0].ClickShare, 0.01)
}

func TestTopPagesImpressionFloor(t *testing.T) {
	v := NewViews(fixtureBundle()).TopPages(10, 1000)

	require.Len(t, v.Rows, 2)
	for _, r := range v.Rows {
		assert.GreaterOrEqual(t, r.Impressions, float64(1000))
	}
	// Shares are computed over the filtered set.
	assert.InDelta(t, 100, v.Rows[0].ClickShare+v.Rows[1].ClickShare, 0.01)
}

func TestClusters(t *testing.T) {
	v := NewViews(fixtureBundle()).Clusters()

	require.Len(t, v.Rows, 2)
	assert.Equal(t, "alpha", v.Rows[0].Cluster)
	assert.InDelta(t, 71.43, v.Rows[0].ClickShare, 0.01)

	require.Len(t, v.Monthly, 2)
	assert.Equal(t, "alpha", v.Monthly[0].Name)
	require.Len(t, v.Monthly[0].Points, 2)
	assert.Equal(t, Point{Label: "2022-01", Value: 60}, v.Monthly[0].Points[0])
}

func TestContentTypes(t *testing.T) {
	v := NewViews(fixtureBundle()).ContentTypes()

	require.Len(t, v.Totals, 2)
	byType := map[string]ContentTypeRow{}
	for _, r := range v.Totals {
		byType[r.ContentType] = r
	}
	assert.Equal(t, float64(2), byType[dataset.ContentNew].Pages)
	assert.Equal(t, float64(200), byType[dataset.ContentNew].Clicks)
	assert.Equal(t, float64(80), byType[dataset.ContentExisting].Clicks)
	assert.Len(t, v.Weekly, 2)
}

func TestSections(t *testing.T) {
	v := NewViews(fixtureBundle()).Sections(1)

	require.Len(t, v.Subdomains, 2)
	assert.Equal(t, Point{Label: "www", Value: 400}, v.Subdomains[0])

	require.Len(t, v.TopSections, 1)
	assert.Equal(t, "home", v.TopSections[0].Section)
	assert.Equal(t, float64(400), v.TopSections[0].Clicks)
}

func TestPositions(t *testing.T) {
	v, err := NewViews(fixtureBundle()).Positions()
	require.NoError(t, err)

	require.Len(t, v.Buckets, 5)
	byLabel := map[string]PositionBucket{}
	for _, b := range v.Buckets {
		byLabel[b.Bucket] = b
	}
	assert.Equal(t, float64(1), byLabel["1-3"].Pages)
	assert.Equal(t, float64(120), byLabel["1-3"].Clicks)
	assert.Equal(t, float64(1), byLabel["11-20"].Pages)
	assert.Equal(t, float64(1), byLabel["21-50"].Pages)
	assert.Equal(t, float64(0), byLabel["4-10"].Pages)
}

func TestPositionsOutOfRange(t *testing.T) {
	b := fixtureBundle()
	b.Pages = append(b.Pages, dataset.PageSummary{
		Page: "/far", ShortName: "Far", AvgPosition: 250,
	})
	_, err := NewViews(b).Positions()
	assert.Error(t, err)
}
