package querier

import "net/http"

type formatterFn func(data []map[string]any, w http.ResponseWriter) error

var formatters = map[string]formatterFn{
	"json":   JsonFormatter,
	"ndjson": NDJsonFormatter,
}

// Formatter returns the response formatter for a name, defaulting to json.
func Formatter(name string) formatterFn {
	if f, ok := formatters[name]; ok {
		return f
	}
	return JsonFormatter
}
