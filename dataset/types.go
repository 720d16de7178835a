package dataset

// The five exported tables. Each struct mirrors one CSV export exactly;
// columns are parsed and validated once at load, so downstream code never
// re-checks types.

// MonthlyTrend is one row of monthly_trend.csv, grained by
// (month, subdomain, section). Months are "YYYY-MM" strings and compare
// chronologically under plain string ordering.
type MonthlyTrend struct {
	Month       string
	Subdomain   string
	Section     string
	Clicks      int64
	Impressions int64
	UniquePages int64
}

// PageSummary is one row of page_summary.csv, one row per URL.
type PageSummary struct {
	Page             string
	ShortName        string
	Subdomain        string
	Section          string
	ContentType      string
	TotalClicks      int64
	TotalImpressions int64
	AvgPosition      float64
	CTR              float64
	Cluster          string
}

// ClusterPerformance is one row of cluster_performance.csv, one row per
// topic cluster.
type ClusterPerformance struct {
	Cluster          string
	Pages            int64
	TotalClicks      int64
	TotalImpressions int64
	AvgPosition      float64
	AvgWordCount     float64
	CTR              float64
	ClicksPerPage    float64
}

// WeeklyTrend is one row of weekly_trend.csv, grained by
// (week, content_type). Weeks, like months, sort chronologically as strings.
type WeeklyTrend struct {
	Week        string
	Clicks      int64
	Impressions int64
	ContentType string
}

// ClusterMonthly is one row of monthly_by_cluster.csv, grained by
// (month, cluster).
type ClusterMonthly struct {
	Month   string
	Cluster string
	Clicks  int64
}

// Bundle holds all five tables. A Bundle is immutable after load: no row is
// ever created, mutated, or deleted, and every query result derived from it
// is a fresh copy.
type Bundle struct {
	Monthly        []MonthlyTrend
	Pages          []PageSummary
	Clusters       []ClusterPerformance
	Weekly         []WeeklyTrend
	ClusterMonthly []ClusterMonthly
}

// Content type values used in page_summary and weekly_trend.
const (
	ContentNew      = "New Content"
	ContentExisting = "Existing Content"
)
