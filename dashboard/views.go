package dashboard

import (
	"github.com/searchlens/searchlens/analytics"
	"github.com/searchlens/searchlens/dataset"
)

// Views derives every dashboard page from the cached Bundle. All builders
// are pure: they read the immutable tables and return fresh structures, so
// concurrent requests share one Views without locking.
type Views struct {
	b *dataset.Bundle
}

func NewViews(b *dataset.Bundle) *Views {
	return &Views{b: b}
}

// Point is one labeled value in a chart series.
type Point struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Series is a named sequence of points.
type Series struct {
	Name   string  `json:"name"`
	Points []Point `json:"points"`
}

// ---------------------------------------------------------------------------
// Table conversions. Dataset structs become generic analytics rows once per
// view build; column names match the CSV headers.
// ---------------------------------------------------------------------------

func monthlyTable(rows []dataset.MonthlyTrend) analytics.Table {
	t := make(analytics.Table, len(rows))
	for i, r := range rows {
		t[i] = analytics.Row{
			Dims: map[string]string{"month": r.Month, "subdomain": r.Subdomain, "section": r.Section},
			Vals: map[string]float64{
				"clicks":       float64(r.Clicks),
				"impressions":  float64(r.Impressions),
				"unique_pages": float64(r.UniquePages),
			},
		}
	}
	return t
}

func pagesTable(rows []dataset.PageSummary) analytics.Table {
	t := make(analytics.Table, len(rows))
	for i, r := range rows {
		t[i] = analytics.Row{
			Dims: map[string]string{
				"page": r.Page, "short_name": r.ShortName, "subdomain": r.Subdomain,
				"section": r.Section, "content_type": r.ContentType, "cluster": r.Cluster,
			},
			Vals: map[string]float64{
				"total_clicks":      float64(r.TotalClicks),
				"total_impressions": float64(r.TotalImpressions),
				"avg_position":      r.AvgPosition,
				"ctr":               r.CTR,
			},
		}
	}
	return t
}

func clustersTable(rows []dataset.ClusterPerformance) analytics.Table {
	t := make(analytics.Table, len(rows))
	for i, r := range rows {
		t[i] = analytics.Row{
			Dims: map[string]string{"cluster": r.Cluster},
			Vals: map[string]float64{
				"pages":             float64(r.Pages),
				"total_clicks":      float64(r.TotalClicks),
				"total_impressions": float64(r.TotalImpressions),
				"avg_position":      r.AvgPosition,
				"avg_word_count":    r.AvgWordCount,
				"ctr":               r.CTR,
				"clicks_per_page":   r.ClicksPerPage,
			},
		}
	}
	return t
}

func weeklyTable(rows []dataset.WeeklyTrend) analytics.Table {
	t := make(analytics.Table, len(rows))
	for i, r := range rows {
		t[i] = analytics.Row{
			Dims: map[string]string{"week": r.Week, "content_type": r.ContentType},
			Vals: map[string]float64{
				"clicks":      float64(r.Clicks),
				"impressions": float64(r.Impressions),
			},
		}
	}
	return t
}

func clusterMonthlyTable(rows []dataset.ClusterMonthly) analytics.Table {
	t := make(analytics.Table, len(rows))
	for i, r := range rows {
		t[i] = analytics.Row{
			Dims: map[string]string{"month": r.Month, "cluster": r.Cluster},
			Vals: map[string]float64{"clicks": float64(r.Clicks)},
		}
	}
	return t
}

func seriesFrom(t analytics.Table, name, labelCol, valueCol string) Series {
	s := Series{Name: name, Points: make([]Point, 0, len(t))}
	for _, r := range t {
		s.Points = append(s.Points, Point{Label: r.Dim(labelCol), Value: r.Val(valueCol)})
	}
	return s
}

// ---------------------------------------------------------------------------
// Page 1: overview — headline scalars the landing page displays verbatim.
// ---------------------------------------------------------------------------

type Overview struct {
	TotalClicks      float64 `json:"total_clicks"`
	TotalImpressions float64 `json:"total_impressions"`
	OverallCTR       float64 `json:"overall_ctr"`
	PeakMonth        string  `json:"peak_month"`
	PeakMonthClicks  float64 `json:"peak_month_clicks"`
	GrowthMultiple   float64 `json:"growth_multiple"`
	TrackedPages     int     `json:"tracked_pages"`
	TrackedClusters  int     `json:"tracked_clusters"`
}

func (v *Views) Overview() Overview {
	monthly := monthlyTable(v.b.Monthly)
	byMonth := analytics.GroupSum(monthly, []string{"month"}, []string{"clicks", "impressions"})

	o := Overview{
		TotalClicks:      analytics.SumCol(byMonth, "clicks"),
		TotalImpressions: analytics.SumCol(byMonth, "impressions"),
		TrackedPages:     len(v.b.Pages),
		TrackedClusters:  len(v.b.Clusters),
	}
	if o.TotalImpressions > 0 {
		o.OverallCTR = o.TotalClicks / o.TotalImpressions * 100
	}
	if peak, ok := analytics.MaxBy(byMonth, "clicks"); ok {
		o.PeakMonth = peak.Dim("month")
		o.PeakMonthClicks = peak.Val("clicks")
	}

	// Months sort chronologically as strings, so the first and last rows of
	// the ascending sort bracket the observed range.
	ordered := analytics.TopN(byMonth, "month", len(byMonth), false)
	if len(ordered) > 0 {
		first := ordered[0].Val("clicks")
		last := ordered[len(ordered)-1].Val("clicks")
		if first > 0 {
			o.GrowthMultiple = last / first
		}
	}
	return o
}

// ---------------------------------------------------------------------------
// Page 2: monthly trend.
// ---------------------------------------------------------------------------

type MonthlyView struct {
	Clicks      Series   `json:"clicks"`
	Impressions Series   `json:"impressions"`
	UniquePages Series   `json:"unique_pages"`
	BySubdomain []Series `json:"by_subdomain"`
}

func (v *Views) MonthlyTrend() MonthlyView {
	monthly := monthlyTable(v.b.Monthly)
	byMonth := analytics.GroupSum(monthly, []string{"month"}, []string{"clicks", "impressions", "unique_pages"})
	byMonth = analytics.TopN(byMonth, "month", len(byMonth), false)

	out := MonthlyView{
		Clicks:      seriesFrom(byMonth, "Clicks", "month", "clicks"),
		Impressions: seriesFrom(byMonth, "Impressions", "month", "impressions"),
		UniquePages: seriesFrom(byMonth, "Unique pages", "month", "unique_pages"),
	}

	subs := analytics.GroupSum(monthly, []string{"subdomain"}, []string{"clicks"})
	for _, s := range subs {
		sub := s.Dim("subdomain")
		rows := analytics.Filter(monthly, func(r analytics.Row) bool { return r.Dim("subdomain") == sub })
		series := analytics.GroupSum(rows, []string{"month"}, []string{"clicks"})
		series = analytics.TopN(series, "month", len(series), false)
		out.BySubdomain = append(out.BySubdomain, seriesFrom(series, sub, "month", "clicks"))
	}
	return out
}

// ---------------------------------------------------------------------------
// Page 3: weekly trend, split by content type.
// ---------------------------------------------------------------------------

type WeeklyView struct {
	Total         Series   `json:"total"`
	ByContentType []Series `json:"by_content_type"`
}

func (v *Views) WeeklyTrend() WeeklyView {
	weekly := weeklyTable(v.b.Weekly)
	total := analytics.GroupSum(weekly, []string{"week"}, []string{"clicks"})
	total = analytics.TopN(total, "week", len(total), false)

	out := WeeklyView{Total: seriesFrom(total, "All content", "week", "clicks")}
	for _, ct := range []string{dataset.ContentNew, dataset.ContentExisting} {
		rows := analytics.Filter(weekly, func(r analytics.Row) bool { return r.Dim("content_type") == ct })
		s := analytics.GroupSum(rows, []string{"week"}, []string{"clicks"})
		s = analytics.TopN(s, "week", len(s), false)
		out.ByContentType = append(out.ByContentType, seriesFrom(s, ct, "week", "clicks"))
	}
	return out
}

// ---------------------------------------------------------------------------
// Page 4: top pages.
// ---------------------------------------------------------------------------

type PageRow struct {
	Page        string  `json:"page"`
	ShortName   string  `json:"short_name"`
	ContentType string  `json:"content_type"`
	Clicks      float64 `json:"clicks"`
	Impressions float64 `json:"impressions"`
	CTR         float64 `json:"ctr"`
	AvgPosition float64 `json:"avg_position"`
	ClickShare  float64 `json:"click_share"`
}

type PagesView struct {
	Rows []PageRow `json:"rows"`
}

// TopPages lists the n best pages by total clicks, optionally restricted to
// pages above an impression threshold. Click share is computed over the
// filtered set before ranking, so the listed shares sum to 100.
func (v *Views) TopPages(n int, minImpressions float64) PagesView {
	pages := pagesTable(v.b.Pages)
	if minImpressions > 0 {
		pages = analytics.Filter(pages, func(r analytics.Row) bool {
			return r.Val("total_impressions") >= minImpressions
		})
	}
	pages = analytics.PercentShare(pages, "total_clicks", "click_share")
	top := analytics.TopN(pages, "total_clicks", n, true)

	out := PagesView{Rows: make([]PageRow, 0, len(top))}
	for _, r := range top {
		out.Rows = append(out.Rows, PageRow{
			Page:        r.Dim("page"),
			ShortName:   r.Dim("short_name"),
			ContentType: r.Dim("content_type"),
			Clicks:      r.Val("total_clicks"),
			Impressions: r.Val("total_impressions"),
			CTR:         r.Val("ctr"),
			AvgPosition: r.Val("avg_position"),
			ClickShare:  r.Val("click_share"),
		})
	}
	return out
}

// ---------------------------------------------------------------------------
// Page 5: clusters.
// ---------------------------------------------------------------------------

type ClusterRow struct {
	Cluster       string  `json:"cluster"`
	Pages         float64 `json:"pages"`
	Clicks        float64 `json:"clicks"`
	Impressions   float64 `json:"impressions"`
	CTR           float64 `json:"ctr"`
	AvgPosition   float64 `json:"avg_position"`
	ClicksPerPage float64 `json:"clicks_per_page"`
	ClickShare    float64 `json:"click_share"`
}

type ClustersView struct {
	Rows    []ClusterRow `json:"rows"`
	Monthly []Series     `json:"monthly"`
}

func (v *Views) Clusters() ClustersView {
	clusters := clustersTable(v.b.Clusters)
	clusters = analytics.PercentShare(clusters, "total_clicks", "click_share")
	clusters = analytics.TopN(clusters, "total_clicks", len(clusters), true)

	out := ClustersView{Rows: make([]ClusterRow, 0, len(clusters))}
	for _, r := range clusters {
		out.Rows = append(out.Rows, ClusterRow{
			Cluster:       r.Dim("cluster"),
			Pages:         r.Val("pages"),
			Clicks:        r.Val("total_clicks"),
			Impressions:   r.Val("total_impressions"),
			CTR:           r.Val("ctr"),
			AvgPosition:   r.Val("avg_position"),
			ClicksPerPage: r.Val("clicks_per_page"),
			ClickShare:    r.Val("click_share"),
		})
	}

	cm := clusterMonthlyTable(v.b.ClusterMonthly)
	names := analytics.GroupSum(cm, []string{"cluster"}, nil)
	for _, c := range names {
		name := c.Dim("cluster")
		rows := analytics.Filter(cm, func(r analytics.Row) bool { return r.Dim("cluster") == name })
		s := analytics.GroupSum(rows, []string{"month"}, []string{"clicks"})
		s = analytics.TopN(s, "month", len(s), false)
		out.Monthly = append(out.Monthly, seriesFrom(s, name, "month", "clicks"))
	}
	return out
}

// ---------------------------------------------------------------------------
// Page 6: new vs existing content.
// ---------------------------------------------------------------------------

type ContentTypeRow struct {
	ContentType string  `json:"content_type"`
	Pages       float64 `json:"pages"`
	Clicks      float64 `json:"clicks"`
	Impressions float64 `json:"impressions"`
	ClickShare  float64 `json:"click_share"`
}

type ContentView struct {
	Totals []ContentTypeRow `json:"totals"`
	Weekly []Series         `json:"weekly"`
}

func (v *Views) ContentTypes() ContentView {
	pages := pagesTable(v.b.Pages)
	totals := analytics.GroupSum(pages, []string{"content_type"}, []string{"total_clicks", "total_impressions"})
	totals = analytics.PercentShare(totals, "total_clicks", "click_share")

	counts := make(map[string]float64)
	for _, p := range v.b.Pages {
		counts[p.ContentType]++
	}

	out := ContentView{Totals: make([]ContentTypeRow, 0, len(totals))}
	for _, r := range totals {
		out.Totals = append(out.Totals, ContentTypeRow{
			ContentType: r.Dim("content_type"),
			Pages:       counts[r.Dim("content_type")],
			Clicks:      r.Val("total_clicks"),
			Impressions: r.Val("total_impressions"),
			ClickShare:  r.Val("click_share"),
		})
	}
	out.Weekly = v.WeeklyTrend().ByContentType
	return out
}

// ---------------------------------------------------------------------------
// Page 7: subdomains and sections.
// ---------------------------------------------------------------------------

type SectionRow struct {
	Subdomain   string  `json:"subdomain"`
	Section     string  `json:"section"`
	Clicks      float64 `json:"clicks"`
	Impressions float64 `json:"impressions"`
	ClickShare  float64 `json:"click_share"`
}

type SectionsView struct {
	Subdomains  []Point      `json:"subdomains"`
	TopSections []SectionRow `json:"top_sections"`
}

func (v *Views) Sections(topN int) SectionsView {
	monthly := monthlyTable(v.b.Monthly)

	subs := analytics.GroupSum(monthly, []string{"subdomain"}, []string{"clicks"})
	subs = analytics.TopN(subs, "clicks", len(subs), true)

	sections := analytics.GroupSum(monthly, []string{"subdomain", "section"}, []string{"clicks", "impressions"})
	sections = analytics.PercentShare(sections, "clicks", "click_share")
	top := analytics.TopN(sections, "clicks", topN, true)

	out := SectionsView{}
	for _, r := range subs {
		out.Subdomains = append(out.Subdomains, Point{Label: r.Dim("subdomain"), Value: r.Val("clicks")})
	}
	for _, r := range top {
		out.TopSections = append(out.TopSections, SectionRow{
			Subdomain:   r.Dim("subdomain"),
			Section:     r.Dim("section"),
			Clicks:      r.Val("clicks"),
			Impressions: r.Val("impressions"),
			ClickShare:  r.Val("click_share"),
		})
	}
	return out
}

// ---------------------------------------------------------------------------
// Page 8: ranking position distribution.
// ---------------------------------------------------------------------------

var (
	positionEdges  = []float64{0, 3, 10, 20, 50, 100}
	positionLabels = []string{"1-3", "4-10", "11-20", "21-50", "50+"}
)

type PositionBucket struct {
	Bucket string  `json:"bucket"`
	Pages  float64 `json:"pages"`
	Clicks float64 `json:"clicks"`
}

type PositionsView struct {
	Buckets []PositionBucket `json:"buckets"`
}

// Positions buckets pages by average ranking position. A position outside
// the declared bins surfaces as an error rather than being clamped; the
// exports keep positions well inside [1, 100].
func (v *Views) Positions() (PositionsView, error) {
	pages := pagesTable(v.b.Pages)
	bucketed, err := analytics.Bucketize(pages, "avg_position", positionEdges, positionLabels, "bucket")
	if err != nil {
		return PositionsView{}, err
	}

	counts := make(map[string]float64)
	for _, r := range bucketed {
		counts[r.Dim("bucket")]++
	}
	sums := analytics.GroupSum(bucketed, []string{"bucket"}, []string{"total_clicks"})
	clicks := make(map[string]float64, len(sums))
	for _, r := range sums {
		clicks[r.Dim("bucket")] = r.Val("total_clicks")
	}

	out := PositionsView{Buckets: make([]PositionBucket, 0, len(positionLabels))}
	for _, label := range positionLabels {
		out.Buckets = append(out.Buckets, PositionBucket{
			Bucket: label,
			Pages:  counts[label],
			Clicks: clicks[label],
		})
	}
	return out, nil
}
