package dataset

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/spf13/afero"

	"github.com/searchlens/searchlens/core"
)

// Dataset file names, fixed relative to the data directory.
const (
	FileMonthlyTrend       = "monthly_trend.csv"
	FilePageSummary        = "page_summary.csv"
	FileClusterPerformance = "cluster_performance.csv"
	FileWeeklyTrend        = "weekly_trend.csv"
	FileMonthlyByCluster   = "monthly_by_cluster.csv"
)

// Tables maps dataset names to their backing files.
var Tables = map[string]string{
	"monthly_trend":       FileMonthlyTrend,
	"page_summary":        FilePageSummary,
	"cluster_performance": FileClusterPerformance,
	"weekly_trend":        FileWeeklyTrend,
	"monthly_by_cluster":  FileMonthlyByCluster,
}

// Loader reads the five CSV exports exactly once per process lifetime and
// serves the parsed Bundle from memory afterwards. The data is a static
// snapshot: a fresh load only happens on process restart.
type Loader struct {
	fs  afero.Fs
	dir string

	once   sync.Once
	bundle *Bundle
	err    error
}

// NewLoader creates a Loader reading from dir on the given filesystem.
func NewLoader(fs afero.Fs, dir string) *Loader {
	return &Loader{fs: fs, dir: dir}
}

// Load parses all five datasets on the first call and returns the cached
// Bundle on every later call. Either all five load or Load fails as a whole
// with a DataUnavailableError; a failed load is cached too, since retrying
// against the same static files has no value.
func (l *Loader) Load(ctx context.Context) (*Bundle, error) {
	l.once.Do(func() {
		start := time.Now()
		l.bundle, l.err = l.loadAll()
		if l.err == nil {
			core.Infof(ctx, "loaded %d monthly, %d pages, %d clusters, %d weekly, %d cluster-monthly rows in %v",
				len(l.bundle.Monthly), len(l.bundle.Pages), len(l.bundle.Clusters),
				len(l.bundle.Weekly), len(l.bundle.ClusterMonthly), time.Since(start))
		}
	})
	return l.bundle, l.err
}

func (l *Loader) loadAll() (*Bundle, error) {
	b := &Bundle{}

	if err := l.readTable(FileMonthlyTrend,
		[]string{"month", "subdomain", "section", "clicks", "impressions", "unique_pages"},
		func(rec []string) error {
			row := MonthlyTrend{Month: rec[0], Subdomain: rec[1], Section: rec[2]}
			var err error
			if row.Clicks, err = parseCount(rec[3]); err != nil {
				return fmt.Errorf("clicks: %w", err)
			}
			if row.Impressions, err = parseCount(rec[4]); err != nil {
				return fmt.Errorf("impressions: %w", err)
			}
			if row.UniquePages, err = parseCount(rec[5]); err != nil {
				return fmt.Errorf("unique_pages: %w", err)
			}
			b.Monthly = append(b.Monthly, row)
			return nil
		}); err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	if err := l.readTable(FilePageSummary,
		[]string{"page", "short_name", "subdomain", "section", "content_type",
			"total_clicks", "total_impressions", "avg_position", "ctr", "cluster"},
		func(rec []string) error {
			if seen[rec[0]] {
				return fmt.Errorf("duplicate page %q", rec[0])
			}
			seen[rec[0]] = true
			row := PageSummary{
				Page: rec[0], ShortName: rec[1], Subdomain: rec[2],
				Section: rec[3], ContentType: rec[4], Cluster: rec[9],
			}
			var err error
			if row.TotalClicks, err = parseCount(rec[5]); err != nil {
				return fmt.Errorf("total_clicks: %w", err)
			}
			if row.TotalImpressions, err = parseCount(rec[6]); err != nil {
				return fmt.Errorf("total_impressions: %w", err)
			}
			if row.AvgPosition, err = parseFloat(rec[7]); err != nil {
				return fmt.Errorf("avg_position: %w", err)
			}
			if row.CTR, err = parseFloat(rec[8]); err != nil {
				return fmt.Errorf("ctr: %w", err)
			}
			b.Pages = append(b.Pages, row)
			return nil
		}); err != nil {
		return nil, err
	}

	if err := l.readTable(FileClusterPerformance,
		[]string{"Cluster", "pages", "total_clicks", "total_impressions",
			"avg_position", "avg_word_count", "ctr", "clicks_per_page"},
		func(rec []string) error {
			row := ClusterPerformance{Cluster: rec[0]}
			var err error
			if row.Pages, err = parseCount(rec[1]); err != nil {
				return fmt.Errorf("pages: %w", err)
			}
			if row.TotalClicks, err = parseCount(rec[2]); err != nil {
				return fmt.Errorf("total_clicks: %w", err)
			}
			if row.TotalImpressions, err = parseCount(rec[3]); err != nil {
				return fmt.Errorf("total_impressions: %w", err)
			}
			if row.AvgPosition, err = parseFloat(rec[4]); err != nil {
				return fmt.Errorf("avg_position: %w", err)
			}
			if row.AvgWordCount, err = parseFloat(rec[5]); err != nil {
				return fmt.Errorf("avg_word_count: %w", err)
			}
			if row.CTR, err = parseFloat(rec[6]); err != nil {
				return fmt.Errorf("ctr: %w", err)
			}
			if row.ClicksPerPage, err = parseFloat(rec[7]); err != nil {
				return fmt.Errorf("clicks_per_page: %w", err)
			}
			b.Clusters = append(b.Clusters, row)
			return nil
		}); err != nil {
		return nil, err
	}

	if err := l.readTable(FileWeeklyTrend,
		[]string{"week", "clicks", "impressions", "content_type"},
		func(rec []string) error {
			row := WeeklyTrend{Week: rec[0], ContentType: rec[3]}
			var err error
			if row.Clicks, err = parseCount(rec[1]); err != nil {
				return fmt.Errorf("clicks: %w", err)
			}
			if row.Impressions, err = parseCount(rec[2]); err != nil {
				return fmt.Errorf("impressions: %w", err)
			}
			b.Weekly = append(b.Weekly, row)
			return nil
		}); err != nil {
		return nil, err
	}

	if err := l.readTable(FileMonthlyByCluster,
		[]string{"month", "Cluster", "clicks"},
		func(rec []string) error {
			row := ClusterMonthly{Month: rec[0], Cluster: rec[1]}
			var err error
			if row.Clicks, err = parseCount(rec[2]); err != nil {
				return fmt.Errorf("clicks: %w", err)
			}
			b.ClusterMonthly = append(b.ClusterMonthly, row)
			return nil
		}); err != nil {
		return nil, err
	}

	return b, nil
}

// readTable opens a CSV, checks the header against the declared schema, and
// feeds each record to parse. Any failure wraps into DataUnavailableError.
func (l *Loader) readTable(name string, header []string, parse func([]string) error) error {
	fail := func(err error) error {
		return &core.DataUnavailableError{Dataset: name, Err: err}
	}

	f, err := l.fs.Open(filepath.Join(l.dir, name))
	if err != nil {
		return fail(err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(header)

	got, err := r.Read()
	if err != nil {
		return fail(fmt.Errorf("reading header: %w", err))
	}
	for i, want := range header {
		if got[i] != want {
			return fail(fmt.Errorf("header column %d is %q, want %q", i, got[i], want))
		}
	}

	line := 1
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fail(err)
		}
		line++
		if err := parse(rec); err != nil {
			return fail(fmt.Errorf("line %d: %w", line, err))
		}
	}
	return nil
}

func parseCount(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("negative count %d", n)
	}
	return n, nil
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}
