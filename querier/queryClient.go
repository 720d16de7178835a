// queryClient.go
package querier

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb/v2"

	"github.com/searchlens/searchlens/core"
	"github.com/searchlens/searchlens/dataset"
)

// Ensure QueryClient implements core.QueryClient interface
var _ core.QueryClient = (*QueryClient)(nil)

// QueryClient executes ad-hoc SQL against the CSV exports. Dataset names
// in FROM/JOIN clauses are rewritten to DuckDB read_csv_auto calls, so
// clients query the exports as if they were plain tables.
type QueryClient struct {
	DataDir string
	DB      *sql.DB
}

// NewQueryClient creates a new QueryClient
func NewQueryClient(dataDir string) *QueryClient {
	return &QueryClient{DataDir: dataDir}
}

// Initialize sets up the DuckDB connection
func (q *QueryClient) Initialize() error {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return fmt.Errorf("failed to initialize DuckDB: %v", err)
	}
	q.DB = db
	return nil
}

var tableRefPattern = regexp.MustCompile(`(?i)\b(FROM|JOIN)\s+([a-zA-Z_][a-zA-Z0-9_]*)`)

// rewriteQuery replaces known dataset names in FROM and JOIN clauses with
// read_csv_auto over their backing files. Unknown table names fail fast so
// callers get a clear error instead of a DuckDB parse failure.
func (q *QueryClient) rewriteQuery(query string) (string, error) {
	var unknown string
	out := tableRefPattern.ReplaceAllStringFunc(query, func(match string) string {
		sub := tableRefPattern.FindStringSubmatch(match)
		name := strings.ToLower(sub[2])
		file, ok := dataset.Tables[name]
		if !ok {
			if unknown == "" {
				unknown = sub[2]
			}
			return match
		}
		path := filepath.Join(q.DataDir, file)
		return fmt.Sprintf("%s read_csv_auto('%s', header=true)", sub[1], path)
	})
	if unknown != "" {
		return "", fmt.Errorf("unknown dataset %q", unknown)
	}
	return out, nil
}

func showTables() []map[string]interface{} {
	names := make([]string, 0, len(dataset.Tables))
	for name := range dataset.Tables {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make([]map[string]interface{}, 0, len(names))
	for _, name := range names {
		results = append(results, map[string]interface{}{
			"table_name": name,
		})
	}
	return results
}

// Query executes a query against the dataset files
func (c *QueryClient) Query(ctx context.Context, query string) ([]map[string]interface{}, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	// Clean up the query string
	query = strings.TrimSpace(query)
	query = strings.ReplaceAll(query, "\n", " ")
	query = strings.ReplaceAll(query, "\r", " ")
	query = regexp.MustCompile(`\s+`).ReplaceAllString(query, " ")

	if strings.ToUpper(query) == "SHOW TABLES" {
		return showTables(), nil
	}

	duckdbQuery, err := c.rewriteQuery(query)
	if err != nil {
		return nil, err
	}
	core.Debugf(ctx, "rewritten query: %s", duckdbQuery)

	start := time.Now()
	rows, err := c.DB.QueryContext(ctx, duckdbQuery)
	if err != nil {
		return nil, fmt.Errorf("query execution failed: %v", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %v", err)
	}

	var result []map[string]interface{}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("error scanning row: %v", err)
		}

		row := make(map[string]interface{})
		for i, col := range columns {
			val := values[i]
			// Aggregates over empty input come back NULL; report counts as 0
			if strings.Contains(col, "count") && val == nil {
				row[col] = 0
			} else {
				row[col] = val
			}
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %v", err)
	}

	core.Debugf(ctx, "got query result in: %v", time.Since(start))
	return result, nil
}

// Close releases resources
func (q *QueryClient) Close() error {
	if q.DB != nil {
		return q.DB.Close()
	}
	return nil
}
