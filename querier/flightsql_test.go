package querier

import (
	"testing"
	"time"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertResultsToArrow(t *testing.T) {
	results := []map[string]interface{}{
		{"month": "2022-01", "clicks": int64(105), "ctr": 3.5},
		{"month": "2022-02", "clicks": int64(200), "ctr": 4.1},
	}

	record, err := convertResultsToArrow(results)
	require.NoError(t, err)
	defer record.Release()

	assert.Equal(t, int64(2), record.NumRows())
	assert.Equal(t, int64(3), record.NumCols())

	schema := record.Schema()
	for i := 0; i < int(record.NumCols()); i++ {
		field := schema.Field(i)
		col := record.Column(i)
		switch field.Name {
		case "month":
			require.IsType(t, &array.String{}, col)
			assert.Equal(t, "2022-01", col.(*array.String).Value(0))
		case "clicks":
			require.IsType(t, &array.Int64{}, col)
			assert.Equal(t, int64(105), col.(*array.Int64).Value(0))
			assert.Equal(t, int64(200), col.(*array.Int64).Value(1))
		case "ctr":
			require.IsType(t, &array.Float64{}, col)
			assert.Equal(t, 3.5, col.(*array.Float64).Value(0))
		default:
			t.Fatalf("unexpected column %q", field.Name)
		}
	}
}

func TestConvertResultsToArrowNulls(t *testing.T) {
	results := []map[string]interface{}{
		{"clicks": nil},
		{"clicks": int64(7)},
	}

	record, err := convertResultsToArrow(results)
	require.NoError(t, err)
	defer record.Release()

	// Type inferred from the first non-null value.
	field := record.Schema().Field(0)
	assert.Equal(t, arrow.PrimitiveTypes.Int64, field.Type)

	col := record.Column(0).(*array.Int64)
	assert.True(t, col.IsNull(0))
	assert.Equal(t, int64(7), col.Value(1))
}

func TestConvertResultsToArrowTimestamps(t *testing.T) {
	ts := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	results := []map[string]interface{}{{"loaded_at": ts}}

	record, err := convertResultsToArrow(results)
	require.NoError(t, err)
	defer record.Release()

	col := record.Column(0)
	require.IsType(t, &array.Timestamp{}, col)
	assert.Equal(t, arrow.Timestamp(ts.UnixMicro()), col.(*array.Timestamp).Value(0))
}

func TestConvertResultsToArrowEmpty(t *testing.T) {
	_, err := convertResultsToArrow(nil)
	assert.Error(t, err)
}
