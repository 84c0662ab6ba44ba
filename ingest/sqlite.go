package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"

	"github.com/YuminosukeSato/fraudflow/pkg/errors"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	_ "modernc.org/sqlite"
)

// SQLiteIngestor reads every row of Table from the SQLite database at Path.
// Columns whose non-NULL values are all integers become Int series, columns
// mixing integers and reals become Float series, anything else String.
// NULL cells are missing values.
type SQLiteIngestor struct {
	Path  string
	Table string
}

// Source implements Ingestor.
func (s *SQLiteIngestor) Source() string { return "sqlite:" + s.Path + "#" + s.Table }

// Load implements Ingestor.
func (s *SQLiteIngestor) Load(ctx context.Context) (dataframe.DataFrame, error) {
	if !tablePattern.MatchString(s.Table) {
		return dataframe.DataFrame{}, errors.NewValidationError("ingest.table", "must be a plain SQL identifier", s.Table)
	}
	if _, err := os.Stat(s.Path); err != nil {
		return dataframe.DataFrame{}, errors.Wrapf(err, "open %s", s.Path)
	}
	db, err := sql.Open("sqlite", s.Path)
	if err != nil {
		return dataframe.DataFrame{}, errors.Wrapf(err, "open %s", s.Path)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, fmt.Sprintf(`SELECT * FROM "%s"`, s.Table))
	if err != nil {
		return dataframe.DataFrame{}, errors.Wrapf(err, "query table %s", s.Table)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return dataframe.DataFrame{}, errors.Wrap(err, "read columns")
	}
	cols := make([]*columnBuilder, len(names))
	for j := range cols {
		cols[j] = &columnBuilder{kind: series.Int}
	}

	values := make([]any, len(names))
	ptrs := make([]any, len(names))
	for j := range values {
		ptrs[j] = &values[j]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return dataframe.DataFrame{}, errors.Wrap(err, "scan row")
		}
		for j, v := range values {
			cols[j].add(v)
		}
	}
	if err := rows.Err(); err != nil {
		return dataframe.DataFrame{}, errors.Wrapf(err, "read table %s", s.Table)
	}

	list := make([]series.Series, len(names))
	for j, name := range names {
		list[j] = cols[j].build(name)
	}
	df := dataframe.New(list...)
	if df.Err != nil {
		return dataframe.DataFrame{}, errors.Wrapf(df.Err, "build dataset from %s", s.Table)
	}
	logLoaded(s.Source(), df)
	return df, nil
}

// columnBuilder collects cells as gota records and narrows the column type
// from Int to Float to String as values arrive.
type columnBuilder struct {
	records []string
	kind    series.Type
	seen    bool
}

func (c *columnBuilder) add(v any) {
	switch x := v.(type) {
	case nil:
		c.records = append(c.records, "NaN")
		return
	case int64:
		c.records = append(c.records, strconv.FormatInt(x, 10))
	case float64:
		c.records = append(c.records, strconv.FormatFloat(x, 'g', -1, 64))
		if c.kind == series.Int {
			c.kind = series.Float
		}
	case bool:
		if x {
			c.records = append(c.records, "1")
		} else {
			c.records = append(c.records, "0")
		}
	case []byte:
		c.records = append(c.records, string(x))
		c.kind = series.String
	default:
		c.records = append(c.records, fmt.Sprint(x))
		c.kind = series.String
	}
	c.seen = true
}

func (c *columnBuilder) build(name string) series.Series {
	kind := c.kind
	if !c.seen {
		kind = series.Float
	}
	return series.New(c.records, kind, name)
}
