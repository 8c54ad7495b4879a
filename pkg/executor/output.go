package executor

import (
	"database/sql"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"
)

// writeRows renders a result set as an aligned table followed by a row count.
// Statements that return no columns produce no output.
//
//	ID  NAME
//	--  ----
//	1   alpha
//	2   NULL
//	(2 rows)
func writeRows(w io.Writer, rows *sql.Rows) error {
	columns, err := rows.Columns()
	if err != nil {
		return err
	}

	if len(columns) == 0 {
		for rows.Next() {
		}
		return rows.Err()
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	dashes := make([]string, len(columns))
	for i, col := range columns {
		dashes[i] = strings.Repeat("-", len(col))
	}

	fmt.Fprintln(tw, strings.Join(columns, "\t"))
	fmt.Fprintln(tw, strings.Join(dashes, "\t"))

	values := make([]any, len(columns))
	dest := make([]any, len(columns))
	for i := range values {
		dest[i] = &values[i]
	}

	count := 0
	cells := make([]string, len(columns))
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return err
		}

		for i, v := range values {
			cells[i] = formatValue(v)
		}

		fmt.Fprintln(tw, strings.Join(cells, "\t"))
		count++
	}

	if err := rows.Err(); err != nil {
		return err
	}

	if err := tw.Flush(); err != nil {
		return err
	}

	noun := "rows"
	if count == 1 {
		noun = "row"
	}

	_, err = fmt.Fprintf(w, "(%d %s)\n", count, noun)
	return err
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(val)
	case time.Time:
		return val.Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(val)
	}
}
